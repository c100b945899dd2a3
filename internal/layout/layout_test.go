package layout

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

func testManager(t *testing.T) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	return NewManager(dir, zerolog.New(io.Discard)), dir
}

func TestEnsureLayoutCreatesTree(t *testing.T) {
	m, base := testManager(t)

	paths, err := m.EnsureLayout("Demo", []string{"Hat", "Mug"})
	if err != nil {
		t.Fatalf("EnsureLayout returned error: %v", err)
	}

	for _, dir := range []string{
		filepath.Join(base, "Demo", "input"),
		filepath.Join(base, "Demo", "output", "Hat"),
		filepath.Join(base, "Demo", "output", "Mug"),
	} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
	if paths.ProductOutput("Hat") != filepath.Join(base, "Demo", "output", "Hat") {
		t.Fatalf("unexpected product output path: %s", paths.ProductOutput("Hat"))
	}
}

func TestEnsureLayoutIsIdempotent(t *testing.T) {
	m, base := testManager(t)

	first, err := m.EnsureLayout("Demo", []string{"Hat", "Mug"})
	if err != nil {
		t.Fatalf("first EnsureLayout: %v", err)
	}

	keep := filepath.Join(base, "Demo", "output", "Hat", "existing.png")
	if err := os.WriteFile(keep, []byte("rendition"), 0o644); err != nil {
		t.Fatal(err)
	}

	second, err := m.EnsureLayout("Demo", []string{"Hat", "Mug"})
	if err != nil {
		t.Fatalf("second EnsureLayout: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("path table changed across invocations (-first +second):\n%s", diff)
	}
	if data, err := os.ReadFile(keep); err != nil || string(data) != "rendition" {
		t.Fatalf("existing file was not preserved: %v", err)
	}
}

func TestCollectSeedAssetsCopiesImagesOnce(t *testing.T) {
	m, base := testManager(t)
	intake := filepath.Join(base, "intake")
	if err := os.MkdirAll(intake, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(intake, "Demo_Hat_hero.png"), "seed")
	writeFile(t, filepath.Join(intake, "brief.json"), "{}")
	writeFile(t, filepath.Join(intake, "notes.txt"), "skip me")

	paths, err := m.EnsureLayout("Demo", []string{"Hat", "Mug"})
	if err != nil {
		t.Fatal(err)
	}
	if err := m.CollectSeedAssets(intake, paths); err != nil {
		t.Fatalf("CollectSeedAssets: %v", err)
	}

	copied := filepath.Join(paths.Input, "Demo_Hat_hero.png")
	if data, err := os.ReadFile(copied); err != nil || string(data) != "seed" {
		t.Fatalf("seed asset not copied: %v", err)
	}
	if _, err := os.Stat(filepath.Join(paths.Input, "notes.txt")); !os.IsNotExist(err) {
		t.Fatal("non-image file should not be collected")
	}

	// A second pass must not clobber the already-collected copy.
	writeFile(t, copied, "edited")
	if err := m.CollectSeedAssets(intake, paths); err != nil {
		t.Fatal(err)
	}
	if data, _ := os.ReadFile(copied); string(data) != "edited" {
		t.Fatal("existing input copy was overwritten")
	}
}

func TestArchiveBriefMovesIntakeFile(t *testing.T) {
	m, base := testManager(t)
	briefPath := filepath.Join(base, "campaign.json")
	writeFile(t, briefPath, `{"campaign":"Demo"}`)

	paths, err := m.EnsureLayout("Demo", []string{"Hat", "Mug"})
	if err != nil {
		t.Fatal(err)
	}
	if err := m.ArchiveBrief(briefPath, paths); err != nil {
		t.Fatalf("ArchiveBrief: %v", err)
	}

	archived := filepath.Join(paths.Input, ArchivedBriefName)
	if data, err := os.ReadFile(archived); err != nil || string(data) != `{"campaign":"Demo"}` {
		t.Fatalf("archived brief missing or wrong: %v", err)
	}
	if _, err := os.Stat(briefPath); !os.IsNotExist(err) {
		t.Fatal("intake brief should be removed after archival")
	}
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}
