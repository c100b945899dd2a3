// Package orchestrator drives one campaign through the pipeline: layout,
// per-product hero resolution and composition, output and store mirroring,
// and brief archival. Product failures are isolated at the per-product
// boundary; only validation and layout errors are campaign-fatal.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/peteworth/creative-automation-pipeline/internal/brief"
	"github.com/peteworth/creative-automation-pipeline/internal/infra"
	"github.com/peteworth/creative-automation-pipeline/internal/layout"
	"github.com/peteworth/creative-automation-pipeline/internal/providers/compose"
	"github.com/peteworth/creative-automation-pipeline/internal/resolver"
	"github.com/peteworth/creative-automation-pipeline/internal/store"
)

// CampaignStatus is the terminal state of one campaign run.
type CampaignStatus string

const (
	// StatusArchived means every product was attempted and the brief was
	// archived into the campaign input folder.
	StatusArchived CampaignStatus = "ARCHIVED"
	// StatusFailed means validation, layout, or archival prevented the
	// campaign from completing; the intake brief stays in place for retry.
	StatusFailed CampaignStatus = "FAILED"
)

// ProductStatus is the outcome of one product pass.
type ProductStatus string

const (
	ProductSucceeded ProductStatus = "SUCCESS"
	ProductFailed    ProductStatus = "FAILED"
)

// ProductOutcome records one product's result, in brief order.
type ProductOutcome struct {
	Product    string
	Status     ProductStatus
	Reason     string
	HeroSource resolver.Source
	Renditions []string
}

// CampaignResult aggregates per-product outcomes with the campaign status.
type CampaignResult struct {
	Campaign string
	Status   CampaignStatus
	Products []ProductOutcome
	Err      error
}

// Succeeded reports whether the campaign archived with every product ok.
func (r CampaignResult) Succeeded() bool {
	if r.Status != StatusArchived {
		return false
	}
	for _, p := range r.Products {
		if p.Status != ProductSucceeded {
			return false
		}
	}
	return true
}

// Options wires the orchestrator's collaborators.
type Options struct {
	Layout   *layout.Manager
	Locator  *resolver.Locator
	Composer compose.Composer
	Store    store.Store
	// Dimensions maps an output extension ("png", "jpg") to its rendition
	// set. Missing entries use compose.DefaultDimensions.
	Dimensions map[string][]compose.Dimension
	// Workers bounds concurrent product passes; products own disjoint
	// output paths and store key namespaces, so no further coordination
	// is needed.
	Workers int
	Logger  infra.Logger
}

// Orchestrator runs campaigns. Safe for sequential reuse across campaigns;
// the brief and its product jobs live only for the duration of one Run.
type Orchestrator struct {
	layout     *layout.Manager
	locator    *resolver.Locator
	composer   compose.Composer
	store      store.Store
	dimensions map[string][]compose.Dimension
	workers    int
	logger     infra.Logger
}

// New constructs an Orchestrator from Options.
func New(opts Options) *Orchestrator {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		layout:     opts.Layout,
		locator:    opts.Locator,
		composer:   opts.Composer,
		store:      opts.Store,
		dimensions: opts.Dimensions,
		workers:    workers,
		logger:     opts.Logger,
	}
}

// Run executes one campaign. briefPath is the intake location of the brief
// file; it is removed only when the campaign archives.
func (o *Orchestrator) Run(ctx context.Context, b *brief.Brief, briefPath, intakeDir string) CampaignResult {
	result := CampaignResult{Campaign: b.CampaignKey}
	o.logger.Info().
		Str("campaign", b.Campaign).
		Int("products", len(b.Products)).
		Str("region", b.TargetRegion).
		Msg("orchestrator: brief accepted")

	paths, err := o.layout.EnsureLayout(b.CampaignKey, b.Products)
	if err != nil {
		o.logger.Error().Err(err).Str("campaign", b.CampaignKey).Msg("orchestrator: campaign layout failed")
		result.Status = StatusFailed
		result.Err = err
		return result
	}
	if err := o.layout.CollectSeedAssets(intakeDir, paths); err != nil {
		// Seed collection is convenience, not a gate: resolution reads the
		// intake directory directly.
		o.logger.Warn().Err(err).Str("campaign", b.CampaignKey).Msg("orchestrator: seed asset collection failed")
	}

	result.Products = o.processProducts(ctx, b, paths, intakeDir)

	if err := ctx.Err(); err != nil {
		o.logger.Warn().Str("campaign", b.CampaignKey).Msg("orchestrator: campaign aborted")
		result.Status = StatusFailed
		result.Err = err
		return result
	}

	if err := o.layout.ArchiveBrief(briefPath, paths); err != nil {
		o.logger.Error().Err(err).Str("campaign", b.CampaignKey).Msg("orchestrator: brief archival failed")
		result.Status = StatusFailed
		result.Err = err
		return result
	}

	result.Status = StatusArchived
	o.logger.Info().Str("campaign", b.CampaignKey).Msg("orchestrator: campaign archived")
	return result
}

// processProducts attempts every product and returns outcomes in brief
// order. Failures never escape the per-product boundary.
func (o *Orchestrator) processProducts(ctx context.Context, b *brief.Brief, paths layout.Paths, intakeDir string) []ProductOutcome {
	jobs := b.Jobs()
	outcomes := make([]ProductOutcome, len(jobs))
	runID := uuid.NewString()

	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(o.workers)
	for i, job := range jobs {
		outcomes[i] = ProductOutcome{Product: job.ProductName}
		// Cancellation is checked at the top of each product pass;
		// in-flight products finish and their artifacts stay as written.
		if err := ctx.Err(); err != nil {
			outcomes[i].Status = ProductFailed
			outcomes[i].Reason = "canceled before processing"
			continue
		}
		grp.Go(func() error {
			outcomes[i] = o.processProduct(grpCtx, b, job, paths, intakeDir, runID)
			return nil
		})
	}
	grp.Wait()

	// A cancellation may land while workers are queued; make sure every
	// product still carries an outcome.
	for i := range outcomes {
		if outcomes[i].Status == "" {
			outcomes[i].Status = ProductFailed
			outcomes[i].Reason = "canceled before processing"
		}
	}
	return outcomes
}

func (o *Orchestrator) processProduct(ctx context.Context, b *brief.Brief, job brief.ProductJob, paths layout.Paths, intakeDir, runID string) ProductOutcome {
	outcome := ProductOutcome{Product: job.ProductName}
	logger := o.logger.With().
		Str("campaign", job.CampaignName).
		Str("product", job.ProductName).
		Logger()

	hero, err := o.locator.Resolve(ctx, resolver.Request{
		Campaign:  job.CampaignName,
		Product:   job.ProductName,
		Locale:    job.Locale,
		Message:   job.OverlayText,
		Audience:  b.TargetAudience,
		IntakeDir: intakeDir,
		RunID:     runID,
	})
	if err != nil {
		logger.Error().Err(err).Str("stage", "resolve").Msg("orchestrator: product failed")
		outcome.Status = ProductFailed
		outcome.Reason = err.Error()
		return outcome
	}
	outcome.HeroSource = hero.Source

	heroURL, err := o.ensureAddressable(ctx, job, hero)
	if err != nil {
		logger.Error().Err(err).Str("stage", "upload-hero").Msg("orchestrator: product failed")
		outcome.Status = ProductFailed
		outcome.Reason = err.Error()
		return outcome
	}

	renditions, err := o.composer.Compose(ctx, compose.Request{
		HeroImage:    hero.Data,
		HeroImageURL: heroURL,
		OverlayText:  job.OverlayText,
		OutputExt:    job.Format.Extension(),
		Dimensions:   o.dimensionsFor(job.Format),
		RequestID:    runID,
	})
	if err != nil {
		logger.Error().Err(err).Str("stage", "compose").Msg("orchestrator: product failed")
		outcome.Status = ProductFailed
		outcome.Reason = err.Error()
		return outcome
	}

	written, err := o.persistRenditions(ctx, job, paths, renditions)
	outcome.Renditions = written
	if err != nil {
		logger.Error().Err(err).Str("stage", "persist").Msg("orchestrator: product failed")
		outcome.Status = ProductFailed
		outcome.Reason = err.Error()
		return outcome
	}

	outcome.Status = ProductSucceeded
	logger.Info().
		Str("hero_source", string(hero.Source)).
		Int("renditions", len(written)).
		Msg("orchestrator: product succeeded")
	return outcome
}

// ensureAddressable gives the composer a fetchable hero URL. Cache and
// generation results already live in the store under their key; a local seed
// file is mirrored there first, the same way seed assets were uploaded
// before composition in earlier revisions of this pipeline. A store without
// fetchable URLs yields an empty URL, leaving composers that render from
// the raw bytes working and remote composers rejecting the product.
func (o *Orchestrator) ensureAddressable(ctx context.Context, job brief.ProductJob, hero *resolver.HeroImage) (string, error) {
	if strings.HasPrefix(hero.Location, "http://") || strings.HasPrefix(hero.Location, "https://") {
		return hero.Location, nil
	}
	key := hero.Location
	if hero.Source == resolver.SourceLocal {
		key = fmt.Sprintf("assets/%s_%s_hero.%s", job.CampaignName, job.ProductName, hero.Ext)
		if _, err := o.store.Put(ctx, key, hero.Data); err != nil {
			return "", fmt.Errorf("orchestrator: mirror local hero to store: %w", err)
		}
	}
	url, err := o.store.URL(key)
	if err != nil {
		if errors.Is(err, store.ErrNotAddressable) {
			return "", nil
		}
		return "", fmt.Errorf("orchestrator: hero url for %s: %w", key, err)
	}
	return url, nil
}

func (o *Orchestrator) persistRenditions(ctx context.Context, job brief.ProductJob, paths layout.Paths, renditions []compose.Rendition) ([]string, error) {
	outputDir := paths.ProductOutput(job.ProductName)
	if outputDir == "" {
		return nil, fmt.Errorf("orchestrator: no output directory for product %s", job.ProductName)
	}
	var written []string
	for _, r := range renditions {
		filename := fmt.Sprintf("%s_%s_%s.%s", r.Label(), job.CampaignName, job.ProductName, r.Ext)
		path := filepath.Join(outputDir, filename)
		if err := os.WriteFile(path, r.Data, 0o644); err != nil {
			return written, fmt.Errorf("orchestrator: write rendition %s: %w", filename, err)
		}
		written = append(written, path)

		key := store.RenditionKey(job.CampaignName, job.ProductName, filename)
		if _, err := o.store.Put(ctx, key, r.Data); err != nil {
			return written, fmt.Errorf("orchestrator: upload rendition %s: %w", filename, err)
		}
	}
	return written, nil
}

func (o *Orchestrator) dimensionsFor(format brief.OutputFormat) []compose.Dimension {
	if dims, ok := o.dimensions[format.Extension()]; ok && len(dims) > 0 {
		return dims
	}
	return compose.DefaultDimensions
}
