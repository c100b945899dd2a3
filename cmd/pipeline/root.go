package main

import (
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Creative automation for campaign briefs",
	Long: "Pipeline turns JSON campaign briefs into per-product marketing assets.\n" +
		"Hero images come from intake seeds, the asset cache, or text-to-image\n" +
		"generation; a composition service renders the sized output variants.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.Version = version
}
