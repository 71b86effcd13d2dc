// Command todo manages the daily task list, either against the API server or
// in a local store.
package main

import (
	"os"

	"github.com/charmbracelet/log"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
