package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/peteworth/creative-automation-pipeline/internal/infra"
	"github.com/peteworth/creative-automation-pipeline/internal/intake"
	"github.com/peteworth/creative-automation-pipeline/internal/layout"
	"github.com/peteworth/creative-automation-pipeline/internal/orchestrator"
	"github.com/peteworth/creative-automation-pipeline/internal/providers/bannerbear"
	"github.com/peteworth/creative-automation-pipeline/internal/providers/compose"
	"github.com/peteworth/creative-automation-pipeline/internal/providers/firefly"
	"github.com/peteworth/creative-automation-pipeline/internal/providers/image"
	"github.com/peteworth/creative-automation-pipeline/internal/resolver"
	"github.com/peteworth/creative-automation-pipeline/internal/store"
)

var runFlags struct {
	intakeDir string
	workDir   string
	workers   int
	mock      bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process every campaign brief in the intake directory",
	Long: `Run one pass over the intake directory: each *.json brief becomes a
campaign. Per product, the pipeline reuses a matching intake seed image,
falls back to the asset store cache, and generates a hero image when
neither exists, then composes the configured rendition sizes.

Environment drives provider configuration (see pipeline check). Flags
override the intake and work directories for ad hoc runs.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.intakeDir, "intake", "", "Intake directory with briefs and seed images (default: $INTAKE_DIR)")
	f.StringVar(&runFlags.workDir, "workdir", "", "Root directory for campaign folders (default: $WORK_DIR)")
	f.IntVar(&runFlags.workers, "workers", 0, "Concurrent products per campaign (default: $PIPELINE_WORKERS)")
	f.BoolVar(&runFlags.mock, "mock", false, "Use deterministic local providers instead of live APIs")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := infra.LoadConfig()
	if err != nil {
		return err
	}
	if runFlags.intakeDir != "" {
		cfg.IntakeDir = runFlags.intakeDir
	}
	if runFlags.workDir != "" {
		cfg.WorkDir = runFlags.workDir
	}
	if runFlags.workers > 0 {
		cfg.Workers = runFlags.workers
	}
	if runFlags.mock {
		cfg.MockMode = true
	}

	logger := infra.NewLogger(cfg.AppEnv)
	if err := cfg.ValidateCredentials(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	assetStore, err := buildStore(cfg, &logger)
	if err != nil {
		return err
	}
	generator, err := buildGenerator(cfg, &logger)
	if err != nil {
		return err
	}
	composer, err := buildComposer(cfg, &logger)
	if err != nil {
		return err
	}
	dimensions, err := loadDimensions(cfg)
	if err != nil {
		return err
	}

	orch := orchestrator.New(orchestrator.Options{
		Layout:     layout.NewManager(cfg.WorkDir, logger),
		Locator:    resolver.NewLocator(assetStore, generator, logger),
		Composer:   composer,
		Store:      assetStore,
		Dimensions: dimensions,
		Workers:    cfg.Workers,
		Logger:     logger,
	})
	runner := intake.NewRunner(cfg.IntakeDir, orch, logger)

	results, ok, err := runner.RunOnce(ctx)
	if err != nil {
		return err
	}
	for _, result := range results {
		level := zerolog.InfoLevel
		if !result.Succeeded() {
			level = zerolog.WarnLevel
		}
		succeeded := 0
		for _, p := range result.Products {
			if p.Status == orchestrator.ProductSucceeded {
				succeeded++
			}
		}
		logger.WithLevel(level).
			Str("campaign", result.Campaign).
			Str("status", string(result.Status)).
			Int("products", len(result.Products)).
			Int("succeeded", succeeded).
			Msg("campaign finished")
	}
	if !ok {
		return fmt.Errorf("%d campaign(s) processed, at least one did not fully succeed", len(results))
	}
	return nil
}

func buildStore(cfg *infra.Config, logger *infra.Logger) (store.Store, error) {
	switch cfg.AssetStore {
	case "http":
		return store.NewHTTPStore(store.HTTPStoreOptions{
			BaseURL:        cfg.StoreBaseURL,
			APIToken:       cfg.StoreAPIToken,
			Logger:         logger,
			RequestTimeout: cfg.ProviderTimeout,
		})
	case "", "file":
		return store.NewFileStore(cfg.StorePath)
	default:
		return nil, fmt.Errorf("unknown ASSET_STORE backend %q (want file or http)", cfg.AssetStore)
	}
}

func buildGenerator(cfg *infra.Config, logger *infra.Logger) (image.Generator, error) {
	synthetic := image.NewSyntheticGenerator()
	if cfg.MockMode {
		return synthetic, nil
	}
	client, err := firefly.NewClient(firefly.Options{
		ClientID:       cfg.AdobeClientID,
		ClientSecret:   cfg.AdobeClientSecret,
		BaseURL:        cfg.FireflyBaseURL,
		IMSBaseURL:     cfg.AdobeIMSBaseURL,
		Logger:         logger,
		RequestTimeout: cfg.ProviderTimeout,
	})
	if err != nil {
		return nil, err
	}
	// The synthetic fallback keeps keyless environments productive.
	return image.NewFireflyGenerator(client, synthetic), nil
}

func buildComposer(cfg *infra.Config, logger *infra.Logger) (compose.Composer, error) {
	if cfg.MockMode {
		return compose.NewMockComposer(), nil
	}
	client, err := bannerbear.NewClient(bannerbear.Options{
		APIKey:         cfg.BannerbearAPIKey,
		CollectionID:   cfg.BannerbearCollectionID,
		BaseURL:        cfg.BannerbearBaseURL,
		Logger:         logger,
		RequestTimeout: cfg.ProviderTimeout,
	})
	if err != nil {
		return nil, err
	}
	return compose.NewBannerbearComposer(client), nil
}

func loadDimensions(cfg *infra.Config) (map[string][]compose.Dimension, error) {
	if cfg.RenditionsPath == "" {
		return nil, nil
	}
	return compose.LoadDimensions(cfg.RenditionsPath)
}
