// Package main provides the entry point for the ldc directory fingerprint CLI.
package main

import (
	"fmt"
	"os"

	"github.com/jamesainslie/ldc/pkg/ldc/logging"
)

func main() {
	err := newRootCmd(os.Stdout, os.Stderr).Execute()
	_ = logging.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
