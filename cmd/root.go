package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tesh254/webmd/internal/app"
	"github.com/tesh254/webmd/internal/scraper"
	"github.com/tesh254/webmd/internal/version"
)

const longHelp = `webmd fetches a web page, extracts the main article and saves it as Markdown.

By default the Markdown is written to "<title>.md" in the current directory and
the article's images are downloaded into a sibling folder:

  <title>.md
  <title>_images/
    ├── image1.png
    ├── image2.jpg
    └── ...

Image links in the Markdown point into that folder. With --stdout the Markdown
is printed instead and no images are downloaded.`

const examples = `  webmd https://example.com/article
  webmd https://example.com/article -o notes.md
  webmd https://news.ycombinator.com -s > hn.md`

type rootFlags struct {
	output  string
	stdout  bool
	cfgFile string
	version bool
}

// NewRootCommand builds the webmd command. Markdown and help go to stdout,
// progress and errors to stderr.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	v := viper.New()
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:           "webmd <url>",
		Short:         "Save a web article as Markdown",
		Long:          longHelp,
		Example:       examples,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(v, flags.cfgFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose := v.GetBool("verbose")

			if flags.version {
				if verbose {
					fmt.Fprintln(cmd.OutOrStdout(), version.GetDetailedVersion())
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), version.GetShortVersion())
				}
				return nil
			}

			if len(args) == 0 {
				if cmd.Flags().NFlag() == 0 {
					return cmd.Help()
				}
				return &app.InvalidInputError{}
			}

			cfg := scraper.DefaultConfig()
			cfg.UserAgent = v.GetString("user-agent")
			cfg.Timeout = v.GetDuration("timeout")
			cfg.MaxConcurrent = v.GetInt("concurrency")

			_, err := app.Run(cmd.Context(), app.Options{
				URL:      args[0],
				Output:   flags.output,
				ToStdout: flags.stdout,
				Config:   cfg,
				Stdout:   stdout,
				Reporter: scraper.NewReporter(stderr, verbose),
				Logger:   newLogger(stderr, verbose),
			})
			return err
		},
	}

	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	defaults := scraper.DefaultConfig()
	rootCmd.Flags().StringVarP(&flags.output, "output", "o", "", "Save the Markdown to this file")
	rootCmd.Flags().BoolVarP(&flags.stdout, "stdout", "s", false, "Print the Markdown to stdout instead of saving it")
	rootCmd.Flags().BoolVarP(&flags.version, "version", "v", false, "Print the version and exit (with --verbose, include build details)")
	rootCmd.Flags().StringVar(&flags.cfgFile, "config", "", "Read settings from this YAML file")
	rootCmd.Flags().Bool("verbose", false, "Print debug logs and an image download summary")
	rootCmd.Flags().String("user-agent", defaults.UserAgent, "User-Agent header sent with every request")
	rootCmd.Flags().Duration("timeout", defaults.Timeout, "Timeout for each HTTP request")
	rootCmd.Flags().Int("concurrency", defaults.MaxConcurrent, "Maximum simultaneous image downloads")

	for _, key := range []string{"verbose", "user-agent", "timeout", "concurrency"} {
		v.BindPFlag(key, rootCmd.Flags().Lookup(key))
	}

	return rootCmd
}

// loadConfig reads cfgFile into v. Nothing is read when no file is given.
func loadConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile == "" {
		return nil
	}
	v.SetConfigFile(cfgFile)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// Execute runs the command against the process arguments and returns the
// exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd := NewRootCommand(stdout, stderr)
	rootCmd.SetArgs(args)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		scraper.NewReporter(stderr, false).Error(err)
		return 1
	}
	return 0
}
