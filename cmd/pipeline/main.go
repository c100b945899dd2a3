// pipeline is the creative automation CLI: it picks up campaign briefs from
// an intake directory, resolves or generates hero assets, composes sized
// renditions, and archives finished campaigns.
//
// Usage:
//
//	pipeline run [--intake=<dir>] [--workdir=<dir>] [--mock]
//	pipeline check
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
