// Package layout materializes the on-disk campaign folder structure:
//
//	{campaign}/input
//	{campaign}/output/{product}
//
// Creation is idempotent so a retried campaign reuses its existing layout
// without truncating anything already written.
package layout

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peteworth/creative-automation-pipeline/internal/infra"
)

// ArchivedBriefName is the filename the brief is archived under.
const ArchivedBriefName = "campaign_brief.json"

var seedAssetExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Paths is the table of directories for one campaign.
type Paths struct {
	Root      string
	Input     string
	Output    string
	ByProduct map[string]string
}

// ProductOutput returns the output directory for a product.
func (p Paths) ProductOutput(product string) string {
	return p.ByProduct[product]
}

// Manager creates and maintains campaign layouts under a base directory.
type Manager struct {
	baseDir string
	logger  infra.Logger
}

// NewManager returns a Manager rooted at baseDir.
func NewManager(baseDir string, logger infra.Logger) *Manager {
	if baseDir == "" {
		baseDir = "."
	}
	return &Manager{baseDir: baseDir, logger: logger}
}

// EnsureLayout creates the campaign tree and returns its path table.
// Calling it again for an existing campaign succeeds and leaves existing
// contents untouched.
func (m *Manager) EnsureLayout(campaignName string, products []string) (Paths, error) {
	root := filepath.Join(m.baseDir, campaignName)
	paths := Paths{
		Root:      root,
		Input:     filepath.Join(root, "input"),
		Output:    filepath.Join(root, "output"),
		ByProduct: make(map[string]string, len(products)),
	}

	for _, dir := range []string{paths.Input, paths.Output} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Paths{}, fmt.Errorf("layout: create %s: %w", dir, err)
		}
	}
	for _, product := range products {
		dir := filepath.Join(paths.Output, product)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Paths{}, fmt.Errorf("layout: create %s: %w", dir, err)
		}
		paths.ByProduct[product] = dir
	}

	m.logger.Debug().Str("campaign", campaignName).Str("root", root).Msg("layout: campaign tree ready")
	return paths, nil
}

// CollectSeedAssets copies companion image files from the intake directory
// into the campaign input folder. Files already present are left alone.
func (m *Manager) CollectSeedAssets(intakeDir string, paths Paths) error {
	entries, err := os.ReadDir(intakeDir)
	if err != nil {
		return fmt.Errorf("layout: read intake dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !seedAssetExtensions[ext] {
			continue
		}
		dst := filepath.Join(paths.Input, entry.Name())
		if _, err := os.Stat(dst); err == nil {
			continue
		}
		if err := copyFile(filepath.Join(intakeDir, entry.Name()), dst); err != nil {
			return fmt.Errorf("layout: copy seed asset %s: %w", entry.Name(), err)
		}
		m.logger.Debug().Str("asset", entry.Name()).Msg("layout: collected seed asset")
	}
	return nil
}

// ArchiveBrief copies the brief into the campaign input folder and removes
// it from the intake directory. Called only once a campaign is archived, so
// a failed campaign keeps its brief in place for retry.
func (m *Manager) ArchiveBrief(briefPath string, paths Paths) error {
	dst := filepath.Join(paths.Input, ArchivedBriefName)
	if err := copyFile(briefPath, dst); err != nil {
		return fmt.Errorf("layout: archive brief: %w", err)
	}
	if err := os.Remove(briefPath); err != nil {
		return fmt.Errorf("layout: remove intake brief: %w", err)
	}
	m.logger.Info().Str("brief", filepath.Base(briefPath)).Str("archived_to", dst).Msg("layout: brief archived")
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
