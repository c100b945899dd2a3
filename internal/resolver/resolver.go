// Package resolver decides where a product's hero image comes from. The
// fallback chain is an ordered list of strategies tried in sequence: a
// naming-convention scan of the intake directory, a remote cache lookup,
// and finally text-to-image generation. First match wins.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/peteworth/creative-automation-pipeline/internal/infra"
	"github.com/peteworth/creative-automation-pipeline/internal/providers/image"
	"github.com/peteworth/creative-automation-pipeline/internal/store"
)

// ErrResolution tags every failure to produce a hero image. Resolution
// failures are product-fatal; the campaign continues with its remaining
// products.
var ErrResolution = errors.New("hero resolution failed")

// Source identifies where a hero image came from.
type Source string

const (
	SourceLocal       Source = "LOCAL"
	SourceRemoteCache Source = "REMOTE_CACHE"
	SourceGenerated   Source = "GENERATED"
)

// imageExtensions lists supported hero image extensions, in the order cache
// keys are probed.
var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}

// HeroImage is the result of resolution. It is consumed once by the
// composer and discarded; only the store retains anything across runs.
type HeroImage struct {
	Source Source
	// Location is a local path for SourceLocal, a storage key for
	// SourceRemoteCache, and the uploaded location for SourceGenerated.
	Location string
	Ext      string
	Data     []byte
}

// Request carries the brief fields resolution needs for one product.
type Request struct {
	Campaign  string
	Product   string
	Locale    string
	Message   string
	Audience  string
	IntakeDir string
	RunID     string
}

func (r Request) key() string {
	return r.Campaign + "/" + r.Product
}

// strategy is one resolution source. found=false means fall through to the
// next strategy; an error stops the chain.
type strategy func(ctx context.Context, req Request) (hero *HeroImage, found bool, err error)

// Locator resolves hero images through the fallback chain. Concurrent
// resolutions of the same (campaign, product) key collapse into a single
// generation call via singleflight; losers reuse the winner's result.
type Locator struct {
	store     store.Store
	generator image.Generator
	logger    infra.Logger

	group      singleflight.Group
	mu         sync.Mutex
	generated  map[string]*HeroImage
	strategies []strategy
}

// NewLocator wires the chain in resolution order.
func NewLocator(assetStore store.Store, generator image.Generator, logger infra.Logger) *Locator {
	l := &Locator{
		store:     assetStore,
		generator: generator,
		logger:    logger,
		generated: make(map[string]*HeroImage),
	}
	l.strategies = []strategy{
		l.resolveLocal,
		l.resolveRemoteCache,
		l.resolveGenerate,
	}
	return l
}

// Resolve runs the chain for one product. It never returns a nil hero
// without an error.
func (l *Locator) Resolve(ctx context.Context, req Request) (*HeroImage, error) {
	for _, resolve := range l.strategies {
		hero, found, err := resolve(ctx, req)
		if err != nil {
			return nil, err
		}
		if found {
			l.logger.Info().
				Str("campaign", req.Campaign).
				Str("product", req.Product).
				Str("source", string(hero.Source)).
				Str("location", hero.Location).
				Msg("resolver: hero image resolved")
			return hero, nil
		}
	}
	// The generation strategy is terminal, so the chain cannot be exhausted.
	return nil, fmt.Errorf("resolver: no source produced a hero image: %w", ErrResolution)
}

// resolveLocal scans the intake directory for a file matching the
// {campaign}_{product}_hero.{ext} convention, case-insensitively and with
// hyphens treated as underscores. Multiple matches are ambiguous: the first
// in lexicographic order wins and a warning is logged.
func (l *Locator) resolveLocal(ctx context.Context, req Request) (*HeroImage, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	entries, err := os.ReadDir(req.IntakeDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("resolver: scan intake dir: %v: %w", err, ErrResolution)
	}

	want := normalizeForMatch(req.Campaign + "_" + req.Product + "_hero")
	var matches []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !supportedExtension(ext) {
			continue
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		if normalizeForMatch(stem) == want {
			matches = append(matches, name)
		}
	}
	if len(matches) == 0 {
		return nil, false, nil
	}
	sort.Strings(matches)
	if len(matches) > 1 {
		l.logger.Warn().
			Str("campaign", req.Campaign).
			Str("product", req.Product).
			Strs("matches", matches).
			Msg("resolver: ambiguous hero image matches, using first in lexicographic order")
	}

	path := filepath.Join(req.IntakeDir, matches[0])
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("resolver: read local hero %s: %v: %w", path, err, ErrResolution)
	}
	return &HeroImage{
		Source:   SourceLocal,
		Location: path,
		Ext:      strings.TrimPrefix(strings.ToLower(filepath.Ext(matches[0])), "."),
		Data:     data,
	}, true, nil
}

// resolveRemoteCache probes the store for a previously generated hero. Any
// store failure here is logged and treated as a cache miss so one flaky read
// cannot force a redundant generation failure.
func (l *Locator) resolveRemoteCache(ctx context.Context, req Request) (*HeroImage, bool, error) {
	for _, ext := range imageExtensions {
		key := store.HeroKey(req.Campaign, req.Product, ext)
		exists, err := l.store.Exists(ctx, key)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, false, err
			}
			l.logger.Warn().Err(err).Str("key", key).Msg("resolver: cache probe failed, treating as miss")
			continue
		}
		if !exists {
			continue
		}
		data, err := l.store.Get(ctx, key)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, false, err
			}
			l.logger.Warn().Err(err).Str("key", key).Msg("resolver: cache read failed, treating as miss")
			continue
		}
		return &HeroImage{
			Source:   SourceRemoteCache,
			Location: key,
			Ext:      strings.TrimPrefix(ext, "."),
			Data:     data,
		}, true, nil
	}
	return nil, false, nil
}

// resolveGenerate synthesizes a hero image and warms the cache before
// returning. This strategy is terminal: any failure surfaces as a
// resolution error. Generation runs at most once per (campaign, product)
// key per Locator lifetime: concurrent callers collapse via singleflight
// and completed results are memoized for late arrivals.
func (l *Locator) resolveGenerate(ctx context.Context, req Request) (*HeroImage, bool, error) {
	if hero, ok := l.loadGenerated(req.key()); ok {
		return hero, true, nil
	}
	result, err, shared := l.group.Do(req.key(), func() (any, error) {
		if hero, ok := l.loadGenerated(req.key()); ok {
			return hero, nil
		}
		hero, err := l.generate(ctx, req)
		if err != nil {
			return nil, err
		}
		l.storeGenerated(req.key(), hero)
		return hero, nil
	})
	if err != nil {
		return nil, false, err
	}
	if shared {
		l.logger.Debug().
			Str("campaign", req.Campaign).
			Str("product", req.Product).
			Msg("resolver: reused in-flight generation result")
	}
	return result.(*HeroImage), true, nil
}

func (l *Locator) generate(ctx context.Context, req Request) (*HeroImage, error) {
	prompt := image.BuildHeroPrompt(image.HeroPromptInput{
		Product:         req.Product,
		CampaignMessage: req.Message,
		TargetAudience:  req.Audience,
		Locale:          req.Locale,
	})
	asset, err := l.generator.Generate(ctx, image.GenerateRequest{
		Prompt:    prompt,
		Locale:    req.Locale,
		RequestID: req.RunID,
	})
	if err != nil {
		return nil, fmt.Errorf("resolver: generation failed for %s/%s: %v: %w", req.Campaign, req.Product, err, ErrResolution)
	}

	ext := extensionForFormat(asset.Format)
	key := store.HeroKey(req.Campaign, req.Product, ext)
	location, err := l.store.Put(ctx, key, asset.Data)
	if err != nil {
		return nil, fmt.Errorf("resolver: persist generated hero for %s/%s: %v: %w", req.Campaign, req.Product, err, ErrResolution)
	}
	l.logger.Info().
		Str("campaign", req.Campaign).
		Str("product", req.Product).
		Str("key", key).
		Msg("resolver: generated hero image cached")
	return &HeroImage{
		Source:   SourceGenerated,
		Location: location,
		Ext:      ext,
		Data:     asset.Data,
	}, nil
}

func (l *Locator) loadGenerated(key string) (*HeroImage, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	hero, ok := l.generated[key]
	return hero, ok
}

func (l *Locator) storeGenerated(key string, hero *HeroImage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.generated[key] = hero
}

func normalizeForMatch(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.ReplaceAll(name, " ", "_")
	return name
}

func supportedExtension(ext string) bool {
	for _, candidate := range imageExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

func extensionForFormat(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	default:
		return "png"
	}
}
