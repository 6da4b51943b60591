// Package loader assembles a book from a content root once per loader and
// serves the cached result afterwards.
package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/mdbook-reader/reader/internal/assembler"
	"github.com/mdbook-reader/reader/internal/content"
	"github.com/mdbook-reader/reader/internal/models"
)

// ConfigFile is the book configuration looked up at the content root
const ConfigFile = "config.json"

// ErrLoadFailed is the only error Load surfaces; the cause is logged.
var ErrLoadFailed = errors.New("Failed to load book content")

// Options configures a Loader
type Options struct {
	// ConfigPath overrides the config location (defaults to config.json)
	ConfigPath string
	Assembler  assembler.Config
}

// Loader builds the book on first use and caches it with its config
type Loader struct {
	assembler  *assembler.Assembler
	fetcher    content.Fetcher
	configPath string

	group singleflight.Group

	mu     sync.RWMutex
	book   *models.Book
	config *models.BookConfig
	// gen is bumped by Reset; loads started under an older gen are not cached
	gen uint64
}

// New creates a loader reading from fetcher
func New(fetcher content.Fetcher, opts Options) *Loader {
	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = ConfigFile
	}

	return &Loader{
		assembler:  assembler.New(fetcher, opts.Assembler),
		fetcher:    fetcher,
		configPath: configPath,
	}
}

// Load returns the book, assembling it on the first call. Later calls
// return the same *Book without touching the content root, even if the
// content changed. Overlapping calls share a single in-flight load.
//
// The shared load is detached from the caller's cancellation and runs to
// completion; a caller whose ctx ends while waiting gets ErrLoadFailed and
// the others still receive the book.
//
// A book with no chapters is a valid result. ErrLoadFailed is returned
// only for structural failures, in which case nothing is cached.
func (l *Loader) Load(ctx context.Context) (*models.Book, error) {
	if book := l.Book(); book != nil {
		return book, nil
	}
	if err := ctx.Err(); err != nil {
		slog.Error("Failed to load book", "error", err)
		return nil, ErrLoadFailed
	}

	shared := context.WithoutCancel(ctx)
	ch := l.group.DoChan("book", func() (any, error) {
		if book := l.Book(); book != nil {
			return book, nil
		}
		return l.load(shared, l.generation())
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			slog.Debug("Joined in-flight book load")
		}
		return res.Val.(*models.Book), nil
	case <-ctx.Done():
		slog.Warn("Stopped waiting for book load", "error", ctx.Err())
		return nil, ErrLoadFailed
	}
}

func (l *Loader) load(ctx context.Context, gen uint64) (book *models.Book, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Failed to load book", "panic", r)
			book, err = nil, ErrLoadFailed
		}
	}()

	cfg, err := l.loadConfig(ctx)
	if err != nil {
		slog.Error("Failed to load book", "error", err)
		return nil, ErrLoadFailed
	}

	chapters, err := l.assembler.Assemble(ctx)
	if err != nil {
		slog.Error("Failed to load book", "error", err)
		return nil, ErrLoadFailed
	}

	sort.SliceStable(chapters, func(i, j int) bool {
		return chapters[i].Order < chapters[j].Order
	})

	title := cfg.Title
	if title == "" {
		title = models.UntitledBook
	}

	book = &models.Book{
		Title:       title,
		Author:      cfg.Author,
		Description: cfg.Description,
		Chapters:    chapters,
	}

	l.mu.Lock()
	stale := l.gen != gen
	if !stale {
		l.book = book
		l.config = &cfg
	}
	l.mu.Unlock()

	if stale {
		slog.Debug("Discarding book loaded before reset", "title", book.Title)
		return book, nil
	}

	slog.Info("Book loaded", "title", book.Title, "chapters", len(book.Chapters))
	return book, nil
}

func (l *Loader) generation() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.gen
}

// loadConfig never fails on a missing or malformed config; defaults are
// substituted instead. Only cancellation is returned.
func (l *Loader) loadConfig(ctx context.Context) (models.BookConfig, error) {
	data, err := l.fetcher.Fetch(ctx, l.configPath)
	if err != nil {
		if !content.IsMiss(err) {
			return models.BookConfig{}, fmt.Errorf("failed to fetch %s: %w", l.configPath, err)
		}
		slog.Warn("No config.json found, using defaults", "path", l.configPath, "error", err)
		return models.DefaultBookConfig(), nil
	}

	var cfg models.BookConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		slog.Warn("Malformed config.json, using defaults", "path", l.configPath, "error", err)
		return models.DefaultBookConfig(), nil
	}
	return cfg, nil
}

// Book returns the cached book, or nil before the first successful load
func (l *Loader) Book() *models.Book {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.book
}

// Config returns the cached config, or nil before the first successful load
func (l *Loader) Config() *models.BookConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.config == nil {
		return nil
	}
	cfg := *l.config
	return &cfg
}

// Report returns the assembler report of the last load
func (l *Loader) Report() *assembler.Report {
	return l.assembler.LastReport()
}

// Reset drops the cached book and config so the next Load starts over. A
// load still in flight completes for its callers but is not cached.
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.book = nil
	l.config = nil
	l.gen++
	l.group.Forget("book")
}

var (
	defaultMu     sync.Mutex
	defaultLoader *Loader
)

// Default returns the process-wide loader, creating it from fetcher and
// opts on first use. Arguments of later calls are ignored.
func Default(fetcher content.Fetcher, opts Options) *Loader {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLoader == nil {
		defaultLoader = New(fetcher, opts)
	}
	return defaultLoader
}

// ResetDefault discards the process-wide loader
func ResetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLoader = nil
}
