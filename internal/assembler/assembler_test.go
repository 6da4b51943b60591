package assembler

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/mdbook-reader/reader/internal/content"
	"github.com/mdbook-reader/reader/internal/models"
)

// recordingFetcher serves files from a map and records every request
type recordingFetcher struct {
	mu    sync.Mutex
	files map[string]string
	calls []string
}

func newRecordingFetcher(files map[string]string) *recordingFetcher {
	return &recordingFetcher{files: files}
}

func (f *recordingFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, ok := f.files[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, content.ErrNotFound)
	}
	return []byte(data), nil
}

func (f *recordingFetcher) requested(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, call := range f.calls {
		if call == name {
			return true
		}
	}
	return false
}

func orders(chapters []models.Chapter) []int {
	out := make([]int, 0, len(chapters))
	for _, ch := range chapters {
		out = append(out, ch.Order)
	}
	return out
}

func fileNames(chapters []models.Chapter) []string {
	out := make([]string, 0, len(chapters))
	for _, ch := range chapters {
		out = append(out, ch.FileName)
	}
	return out
}

func TestIndexStrategyLoadsListedFilesInOrder(t *testing.T) {
	fetcher := newRecordingFetcher(map[string]string{
		"index.json": `{"files": ["b.md", "a.md", "c.md"]}`,
		"a.md":       "# Alpha",
		"b.md":       "# Beta",
		"c.md":       "no heading",
		"chapter1.md": "# Should not be probed",
	})

	chapters, err := New(fetcher, Config{}).Assemble(context.Background())
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	if got := fileNames(chapters); !reflect.DeepEqual(got, []string{"b.md", "a.md", "c.md"}) {
		t.Errorf("Expected listed order, got %v", got)
	}
	if got := orders(chapters); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Errorf("Expected orders 1..3, got %v", got)
	}

	expected := []struct{ id, title string }{
		{"chapter-1", "Beta"},
		{"chapter-2", "Alpha"},
		{"chapter-3", "c"},
	}
	for i, want := range expected {
		if chapters[i].ID != want.id {
			t.Errorf("Chapter %d: expected id %s, got %s", i, want.id, chapters[i].ID)
		}
		if chapters[i].Title != want.title {
			t.Errorf("Chapter %d: expected title %s, got %s", i, want.title, chapters[i].Title)
		}
	}

	if fetcher.requested("chapter1.md") {
		t.Errorf("Expected probing to be skipped when the index is present")
	}
}

func TestIndexStrategyNumbersSuccessesContiguously(t *testing.T) {
	fetcher := newRecordingFetcher(map[string]string{
		"index.json": `{"files": ["one.md", "missing.md", "two.md", "", "gone.md", "three.md"]}`,
		"one.md":     "# One",
		"two.md":     "# Two",
		"three.md":   "# Three",
	})

	a := New(fetcher, Config{})
	chapters, err := a.Assemble(context.Background())
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	if got := fileNames(chapters); !reflect.DeepEqual(got, []string{"one.md", "two.md", "three.md"}) {
		t.Errorf("Expected successes in listed order, got %v", got)
	}
	if got := orders(chapters); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Errorf("Expected contiguous orders, got %v", got)
	}
	if chapters[2].ID != "chapter-3" {
		t.Errorf("Expected chapter-3, got %s", chapters[2].ID)
	}

	report := a.LastReport()
	if report == nil {
		t.Fatal("Expected a report")
	}
	if report.Strategy != "index" {
		t.Errorf("Expected index strategy, got %s", report.Strategy)
	}
	if report.Attempted != 5 || report.Loaded != 3 {
		t.Errorf("Expected 5 attempted and 3 loaded, got %d and %d", report.Attempted, report.Loaded)
	}
	if !reflect.DeepEqual(report.Skipped, []string{"missing.md", "gone.md"}) {
		t.Errorf("Unexpected skipped files: %v", report.Skipped)
	}
	if !errors.Is(report.Misses, content.ErrNotFound) {
		t.Errorf("Expected combined misses to wrap ErrNotFound, got %v", report.Misses)
	}
}

func TestIndexStrategyIsAuthoritativeWhenEmpty(t *testing.T) {
	fetcher := newRecordingFetcher(map[string]string{
		"index.json":  `{"files": ["missing.md"]}`,
		"chapter1.md": "# Probed",
	})

	chapters, err := New(fetcher, Config{}).Assemble(context.Background())
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if len(chapters) != 0 {
		t.Errorf("Expected no chapters, got %v", fileNames(chapters))
	}
	if fetcher.requested("chapter1.md") {
		t.Errorf("Expected no probing once the index applies")
	}
}

func TestProbeFallback(t *testing.T) {
	tests := []struct {
		name  string
		index string
	}{
		{name: "missing index"},
		{name: "malformed index", index: `{"files": [`},
		{name: "index without files", index: `{"chapters": ["a.md"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := map[string]string{
				"preface.md":  "# Preface",
				"chapter2.md": "## Second",
				"chapter1.md": "# First",
				"ch3.md":      "plain",
				"结语.md":       "# 结语",
			}
			if tt.index != "" {
				files["index.json"] = tt.index
			}
			fetcher := newRecordingFetcher(files)

			a := New(fetcher, Config{})
			chapters, err := a.Assemble(context.Background())
			if err != nil {
				t.Fatalf("Assemble failed: %v", err)
			}

			expected := []string{"chapter1.md", "chapter2.md", "ch3.md", "preface.md", "结语.md"}
			if got := fileNames(chapters); !reflect.DeepEqual(got, expected) {
				t.Errorf("Expected catalog order %v, got %v", expected, got)
			}
			if got := orders(chapters); !reflect.DeepEqual(got, []int{1, 2, 3, 4, 5}) {
				t.Errorf("Expected orders 1..5, got %v", got)
			}
			if chapters[1].Title != "Second" {
				t.Errorf("Expected title 'Second', got %s", chapters[1].Title)
			}
			if a.LastReport().Strategy != "probe" {
				t.Errorf("Expected probe strategy, got %s", a.LastReport().Strategy)
			}
		})
	}
}

func TestProbeFetchesSequentiallyInCatalogOrder(t *testing.T) {
	fetcher := newRecordingFetcher(map[string]string{})

	chapters, err := New(fetcher, Config{}).Assemble(context.Background())
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if len(chapters) != 0 {
		t.Errorf("Expected no chapters, got %d", len(chapters))
	}

	expected := append([]string{"index.json"}, ProbeCatalog...)
	if !reflect.DeepEqual(fetcher.calls, expected) {
		t.Errorf("Expected fetch sequence %v, got %v", expected, fetcher.calls)
	}
}

func TestProbeCatalog(t *testing.T) {
	if len(ProbeCatalog) != 49 {
		t.Errorf("Expected 49 catalog entries, got %d", len(ProbeCatalog))
	}

	checks := map[int]string{
		0:  "chapter1.md",
		9:  "chapter10.md",
		10: "ch1.md",
		20: "01.md",
		29: "10.md",
		30: "第一章.md",
		35: "第1章.md",
		40: "intro.md",
		48: "结语.md",
	}
	for index, name := range checks {
		if ProbeCatalog[index] != name {
			t.Errorf("Expected %s at %d, got %s", name, index, ProbeCatalog[index])
		}
	}
}

func TestScanStrategy(t *testing.T) {
	fsys := fstest.MapFS{
		"part10.md":     {Data: []byte("# Ten")},
		"part2.md":      {Data: []byte("# Two")},
		"appendix.MD":   {Data: []byte("# Appendix")},
		"notes.txt":     {Data: []byte("ignored")},
		"sub/nested.md": {Data: []byte("ignored")},
	}
	fetcher := content.NewFSFetcher(fsys)

	t.Run("disabled by default", func(t *testing.T) {
		chapters, err := New(fetcher, Config{}).Assemble(context.Background())
		if err != nil {
			t.Fatalf("Assemble failed: %v", err)
		}
		if len(chapters) != 0 {
			t.Errorf("Expected no chapters without scanning, got %v", fileNames(chapters))
		}
	})

	t.Run("natural order when enabled", func(t *testing.T) {
		a := New(fetcher, Config{ScanDirectory: true})
		chapters, err := a.Assemble(context.Background())
		if err != nil {
			t.Fatalf("Assemble failed: %v", err)
		}
		expected := []string{"appendix.MD", "part2.md", "part10.md"}
		if got := fileNames(chapters); !reflect.DeepEqual(got, expected) {
			t.Errorf("Expected %v, got %v", expected, got)
		}
		if a.LastReport().Strategy != "scan" {
			t.Errorf("Expected scan strategy, got %s", a.LastReport().Strategy)
		}
	})

	t.Run("probe wins over scan", func(t *testing.T) {
		withProbe := fstest.MapFS{
			"ch1.md":   {Data: []byte("# Probed")},
			"extra.md": {Data: []byte("# Extra")},
		}
		chapters, err := New(content.NewFSFetcher(withProbe), Config{ScanDirectory: true}).Assemble(context.Background())
		if err != nil {
			t.Fatalf("Assemble failed: %v", err)
		}
		if got := fileNames(chapters); !reflect.DeepEqual(got, []string{"ch1.md"}) {
			t.Errorf("Expected only probed file, got %v", got)
		}
	})
}

func TestScanStrategyRequiresLister(t *testing.T) {
	candidates, err := ScanStrategy{}.Candidates(context.Background(), newRecordingFetcher(nil))
	if err != nil {
		t.Fatalf("Candidates failed: %v", err)
	}
	if candidates != nil {
		t.Errorf("Expected scan not to apply without a lister, got %v", candidates.Names)
	}
}

func TestAssembleCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(newRecordingFetcher(map[string]string{"chapter1.md": "# One"}), Config{}).Assemble(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestNewChapter(t *testing.T) {
	ch := NewChapter(4, "my_chapter-one.md", "Body only")

	if ch.ID != "chapter-4" {
		t.Errorf("Expected chapter-4, got %s", ch.ID)
	}
	if ch.Order != 4 {
		t.Errorf("Expected order 4, got %d", ch.Order)
	}
	if ch.Title != "my chapter one" {
		t.Errorf("Expected 'my chapter one', got %s", ch.Title)
	}
	if ch.Slug != "my-chapter-one" {
		t.Errorf("Expected slug 'my-chapter-one', got %s", ch.Slug)
	}
	if ch.Content != "Body only" {
		t.Errorf("Expected raw content to be kept, got %q", ch.Content)
	}
}

func TestIndexEntriesAreTrimmed(t *testing.T) {
	fetcher := newRecordingFetcher(map[string]string{
		"index.json": `{"files": [" a.md ", "   ", "b.md\t"]}`,
		"a.md":       "# A",
		"b.md":       "# B",
	})

	a := New(fetcher, Config{})
	chapters, err := a.Assemble(context.Background())
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if got := fileNames(chapters); !reflect.DeepEqual(got, []string{"a.md", "b.md"}) {
		t.Errorf("Expected trimmed file names, got %q", got)
	}
	if a.LastReport().Attempted != 2 {
		t.Errorf("Expected blank entries not to be attempted, got %d", a.LastReport().Attempted)
	}
}
