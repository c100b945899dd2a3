package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/peteworth/creative-automation-pipeline/pkg/zip"
)

var bundleFlags struct {
	output string
}

var bundleCmd = &cobra.Command{
	Use:   "bundle <campaign-dir>",
	Short: "Zip a campaign's output renditions for handoff",
	Long: `Bundle collects every rendition under <campaign-dir>/output into a
single zip archive, preserving the per-product directory layout.`,
	Args: cobra.ExactArgs(1),
	RunE: runBundle,
}

func init() {
	bundleCmd.Flags().StringVarP(&bundleFlags.output, "output", "o", "", "Archive path (default: <campaign-dir>/<campaign>_assets.zip)")
	rootCmd.AddCommand(bundleCmd)
}

func runBundle(cmd *cobra.Command, args []string) error {
	campaignDir := filepath.Clean(args[0])
	outputDir := filepath.Join(campaignDir, "output")
	data, err := zip.ArchiveDir(outputDir)
	if err != nil {
		return err
	}

	archivePath := bundleFlags.output
	if archivePath == "" {
		archivePath = filepath.Join(campaignDir, filepath.Base(campaignDir)+"_assets.zip")
	}
	if err := os.WriteFile(archivePath, data, 0o644); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), archivePath)
	return nil
}
