// Package assembler discovers chapter files under a content root and turns
// them into an ordered chapter list.
package assembler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gosimple/slug"
	"go.uber.org/multierr"

	"github.com/mdbook-reader/reader/internal/content"
	"github.com/mdbook-reader/reader/internal/models"
	"github.com/mdbook-reader/reader/internal/titles"
)

// Config controls which strategies the assembler chains
type Config struct {
	// IndexPath overrides the manifest location (defaults to index.json)
	IndexPath string
	// Catalog overrides the probing catalog
	Catalog []string
	// ScanDirectory appends the directory listing strategy for fetchers
	// that implement content.Lister
	ScanDirectory bool
}

// Report describes the outcome of the last assembly
type Report struct {
	Strategy  string   `json:"strategy" yaml:"strategy"`
	Attempted int      `json:"attempted" yaml:"attempted"`
	Loaded    int      `json:"loaded" yaml:"loaded"`
	Skipped   []string `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	// Misses combines the soft-miss errors of skipped files
	Misses error `json:"-" yaml:"-"`
}

// Assembler runs an ordered chain of strategies against a fetcher
type Assembler struct {
	fetcher    content.Fetcher
	strategies []Strategy

	mu         sync.Mutex
	lastReport *Report
}

// New creates an assembler with the index strategy followed by probing,
// plus directory scanning when enabled
func New(fetcher content.Fetcher, cfg Config) *Assembler {
	strategies := []Strategy{
		IndexStrategy{Path: cfg.IndexPath},
		ProbeStrategy{Catalog: cfg.Catalog},
	}
	if cfg.ScanDirectory {
		strategies = append(strategies, ScanStrategy{})
	}
	return NewWithStrategies(fetcher, strategies...)
}

// NewWithStrategies creates an assembler with an explicit strategy chain
func NewWithStrategies(fetcher content.Fetcher, strategies ...Strategy) *Assembler {
	return &Assembler{
		fetcher:    fetcher,
		strategies: strategies,
	}
}

// Assemble walks the strategy chain until one yields chapters or an
// authoritative strategy applies. Missing files never fail assembly; the
// only errors returned come from cancellation or a failing strategy.
func (a *Assembler) Assemble(ctx context.Context) ([]models.Chapter, error) {
	last := &Report{}

	for _, strategy := range a.strategies {
		candidates, err := strategy.Candidates(ctx, a.fetcher)
		if err != nil {
			return nil, fmt.Errorf("%s strategy: %w", strategy.Name(), err)
		}
		if candidates == nil {
			slog.Debug("Strategy does not apply", "strategy", strategy.Name())
			continue
		}

		chapters, report, err := a.load(ctx, strategy.Name(), candidates.Names)
		if err != nil {
			return nil, err
		}
		last = report

		slog.Info("Chapters assembled",
			"strategy", report.Strategy,
			"attempted", report.Attempted,
			"loaded", report.Loaded,
			"skipped", len(report.Skipped))

		if len(chapters) > 0 || candidates.Authoritative {
			a.setReport(last)
			return chapters, nil
		}
	}

	a.setReport(last)
	return []models.Chapter{}, nil
}

// load fetches names sequentially. Order comes from a counter that only
// advances on success, so loaded chapters are numbered 1..n without gaps.
func (a *Assembler) load(ctx context.Context, strategy string, names []string) ([]models.Chapter, *Report, error) {
	report := &Report{Strategy: strategy}
	chapters := make([]models.Chapter, 0, len(names))
	order := 0

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		report.Attempted++

		data, err := a.fetcher.Fetch(ctx, name)
		if err != nil {
			if !content.IsMiss(err) {
				return nil, nil, err
			}
			slog.Debug("Skipping chapter", "file", name, "error", err)
			report.Skipped = append(report.Skipped, name)
			report.Misses = multierr.Append(report.Misses, err)
			continue
		}

		order++
		chapters = append(chapters, NewChapter(order, name, string(data)))
	}

	report.Loaded = len(chapters)
	return chapters, report, nil
}

// NewChapter builds the chapter for a loaded file
func NewChapter(order int, fileName, markdown string) models.Chapter {
	id := models.ChapterID(order)
	title := titles.Extract(markdown, fileName)

	chapterSlug := slug.Make(title)
	if chapterSlug == "" {
		chapterSlug = id
	}

	return models.Chapter{
		ID:       id,
		Title:    title,
		Content:  markdown,
		Order:    order,
		FileName: fileName,
		Slug:     chapterSlug,
	}
}

// LastReport returns the report of the most recent assembly, or nil
func (a *Assembler) LastReport() *Report {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastReport
}

func (a *Assembler) setReport(report *Report) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastReport = report
}
