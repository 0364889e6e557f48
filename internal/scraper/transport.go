package scraper

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// loggingTransport logs every outgoing request and its outcome at debug
// level, tagged with a request ID so concurrent image downloads can be told
// apart.
type loggingTransport struct {
	next   http.RoundTripper
	logger logrus.FieldLogger
}

func newLoggingTransport(next http.RoundTripper, logger logrus.FieldLogger) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &loggingTransport{next: next, logger: logger}
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	log := t.logger.WithFields(logrus.Fields{
		"request_id": uuid.NewString(),
		"method":     req.Method,
		"url":        req.URL.String(),
	})
	log.Debug("outgoing request")

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		log.WithError(err).WithField("duration", time.Since(start)).Debug("request failed")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"status":         resp.StatusCode,
		"duration":       time.Since(start),
		"content_length": resp.ContentLength,
	}).Debug("response received")
	return resp, nil
}
