package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/peteworth/creative-automation-pipeline/internal/infra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate environment configuration for live provider calls",
	Long: `Check loads configuration the same way run does and reports the
environment variables still missing for live Firefly, Bannerbear, and
asset store access. Mock mode needs no credentials.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := infra.LoadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateCredentials(); err != nil {
		return err
	}
	if cfg.MockMode {
		fmt.Fprintln(cmd.OutOrStdout(), "mock mode enabled, no provider credentials required")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), "configuration complete, live providers reachable with the configured credentials")
	return nil
}
