package intake

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/peteworth/creative-automation-pipeline/internal/brief"
	"github.com/peteworth/creative-automation-pipeline/internal/orchestrator"
)

type stubRunner struct {
	results map[string]orchestrator.CampaignResult
	ran     []string
}

func (s *stubRunner) Run(ctx context.Context, b *brief.Brief, briefPath, intakeDir string) orchestrator.CampaignResult {
	s.ran = append(s.ran, b.Campaign)
	if r, ok := s.results[b.Campaign]; ok {
		return r
	}
	return orchestrator.CampaignResult{Campaign: b.CampaignKey, Status: orchestrator.StatusArchived}
}

func writeIntake(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, contents := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestRunOnceProcessesBriefsInNameOrder(t *testing.T) {
	dir := writeIntake(t, map[string]string{
		"b_second.json": `{"campaign":"Second","products":["A","B"],"campaign_message":"m","file_format":"PNG"}`,
		"a_first.json":  `{"campaign":"First","products":["A","B"],"campaign_message":"m","file_format":"PNG"}`,
		"notes.txt":     "ignored",
	})
	stub := &stubRunner{}
	runner := NewRunner(dir, stub, zerolog.New(io.Discard))

	results, ok, err := runner.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if !ok {
		t.Fatal("all campaigns archived, expected ok")
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	want := []string{"First", "Second"}
	for i, campaign := range want {
		if stub.ran[i] != campaign {
			t.Fatalf("run order %v, want %v", stub.ran, want)
		}
	}
}

func TestRunOnceInvalidBriefFailsWithoutProducts(t *testing.T) {
	dir := writeIntake(t, map[string]string{
		"bad.json": `{"campaign":"Solo","products":["OnlyOne"],"campaign_message":"m"}`,
	})
	stub := &stubRunner{}
	runner := NewRunner(dir, stub, zerolog.New(io.Discard))

	results, ok, err := runner.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if ok {
		t.Fatal("invalid brief must flip overall success to false")
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	r := results[0]
	if r.Status != orchestrator.StatusFailed {
		t.Fatalf("status = %s, want FAILED", r.Status)
	}
	if len(r.Products) != 0 {
		t.Fatalf("no products should be attempted, got %d", len(r.Products))
	}
	if !errors.Is(r.Err, brief.ErrValidation) {
		t.Fatalf("err = %v, want validation error", r.Err)
	}
	if len(stub.ran) != 0 {
		t.Fatal("orchestrator must not run for a rejected brief")
	}
	// The malformed brief stays in place for correction.
	if _, err := os.Stat(filepath.Join(dir, "bad.json")); err != nil {
		t.Fatal("rejected brief should remain in intake")
	}
}

func TestRunOnceFailedCampaignFlipsOverallSuccess(t *testing.T) {
	dir := writeIntake(t, map[string]string{
		"one.json": `{"campaign":"One","products":["A","B"],"campaign_message":"m","file_format":"PNG"}`,
		"two.json": `{"campaign":"Two","products":["A","B"],"campaign_message":"m","file_format":"PNG"}`,
	})
	stub := &stubRunner{results: map[string]orchestrator.CampaignResult{
		"One": {
			Campaign: "One",
			Status:   orchestrator.StatusArchived,
			Products: []orchestrator.ProductOutcome{
				{Product: "A", Status: orchestrator.ProductFailed, Reason: "compose failed"},
				{Product: "B", Status: orchestrator.ProductSucceeded},
			},
		},
	}}
	runner := NewRunner(dir, stub, zerolog.New(io.Discard))

	results, ok, err := runner.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if ok {
		t.Fatal("partial product failure must flip overall success")
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	// Both campaigns still ran.
	if len(stub.ran) != 2 {
		t.Fatalf("campaigns run = %d, want 2", len(stub.ran))
	}
}

func TestRunOnceEmptyIntake(t *testing.T) {
	runner := NewRunner(t.TempDir(), &stubRunner{}, zerolog.New(io.Discard))
	results, ok, err := runner.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if !ok || len(results) != 0 {
		t.Fatalf("empty intake should be vacuously ok, got ok=%v results=%d", ok, len(results))
	}
}

func TestRunOnceMissingDirectory(t *testing.T) {
	runner := NewRunner(filepath.Join(t.TempDir(), "absent"), &stubRunner{}, zerolog.New(io.Discard))
	if _, _, err := runner.RunOnce(context.Background()); err == nil {
		t.Fatal("expected error for missing intake directory")
	}
}

func TestRunOnceStopsOnCanceledContext(t *testing.T) {
	dir := writeIntake(t, map[string]string{
		"one.json": `{"campaign":"One","products":["A","B"],"campaign_message":"m","file_format":"PNG"}`,
	})
	stub := &stubRunner{}
	runner := NewRunner(dir, stub, zerolog.New(io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok, err := runner.RunOnce(ctx)
	if err == nil {
		t.Fatal("expected context error")
	}
	if ok {
		t.Fatal("canceled pass must not report success")
	}
	if len(stub.ran) != 0 {
		t.Fatal("no campaigns should run after cancellation")
	}
}
