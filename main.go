package main

import (
	"os"

	"github.com/tesh254/webmd/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
