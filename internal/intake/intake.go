// Package intake scans the drop directory for campaign briefs and drives
// the orchestrator over each one. Briefs that fail to parse or validate are
// reported as failed campaigns and left in place for correction.
package intake

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peteworth/creative-automation-pipeline/internal/brief"
	"github.com/peteworth/creative-automation-pipeline/internal/infra"
	"github.com/peteworth/creative-automation-pipeline/internal/orchestrator"
)

// campaignRunner executes one parsed campaign brief.
type campaignRunner interface {
	Run(ctx context.Context, b *brief.Brief, briefPath, intakeDir string) orchestrator.CampaignResult
}

// Runner is one pass over the intake directory.
type Runner struct {
	intakeDir string
	runner    campaignRunner
	logger    infra.Logger
}

func NewRunner(intakeDir string, runner campaignRunner, logger infra.Logger) *Runner {
	return &Runner{intakeDir: intakeDir, runner: runner, logger: logger}
}

// RunOnce processes every brief currently in the intake directory, in
// lexical filename order, and returns one result per brief. The second
// return reports whether every campaign archived with all products
// succeeding.
func (r *Runner) RunOnce(ctx context.Context) ([]orchestrator.CampaignResult, bool, error) {
	briefs, err := r.findBriefs()
	if err != nil {
		return nil, false, err
	}
	if len(briefs) == 0 {
		r.logger.Info().Str("dir", r.intakeDir).Msg("intake: no briefs found")
		return nil, true, nil
	}

	results := make([]orchestrator.CampaignResult, 0, len(briefs))
	ok := true
	for _, path := range briefs {
		if err := ctx.Err(); err != nil {
			return results, false, err
		}
		result := r.processBrief(ctx, path)
		results = append(results, result)
		if !result.Succeeded() {
			ok = false
		}
	}
	return results, ok, nil
}

func (r *Runner) processBrief(ctx context.Context, path string) orchestrator.CampaignResult {
	b, err := brief.ParseFile(path)
	if err != nil {
		// A malformed brief fails its campaign before any product work;
		// the file stays in intake so it can be fixed and re-dropped.
		r.logger.Error().Err(err).Str("brief", path).Msg("intake: brief rejected")
		return orchestrator.CampaignResult{
			Campaign: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			Status:   orchestrator.StatusFailed,
			Err:      err,
		}
	}
	r.logger.Info().Str("brief", path).Str("campaign", b.Campaign).Msg("intake: brief accepted")
	return r.runner.Run(ctx, b, path, r.intakeDir)
}

// findBriefs lists *.json files in the intake directory, sorted by name.
func (r *Runner) findBriefs() ([]string, error) {
	entries, err := os.ReadDir(r.intakeDir)
	if err != nil {
		return nil, fmt.Errorf("intake: read directory %s: %w", r.intakeDir, err)
	}
	var briefs []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			briefs = append(briefs, filepath.Join(r.intakeDir, e.Name()))
		}
	}
	sort.Strings(briefs)
	return briefs, nil
}
