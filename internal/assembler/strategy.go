package assembler

import (
	"context"
	"encoding/json"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/maruel/natural"
	"github.com/mdbook-reader/reader/internal/content"
	"github.com/mdbook-reader/reader/internal/models"
)

// IndexFile is the manifest name looked up at the content root
const IndexFile = "index.json"

// Candidates is the ordered list of files a strategy wants loaded
type Candidates struct {
	Names []string
	// Authoritative candidates end the chain even when none of them load
	Authoritative bool
}

// Strategy proposes chapter files for the assembler to load. Candidates
// returns nil when the strategy does not apply to the content root; errors
// are reserved for structural failures such as cancellation.
type Strategy interface {
	Name() string
	Candidates(ctx context.Context, fetcher content.Fetcher) (*Candidates, error)
}

// IndexStrategy reads the file list from index.json
type IndexStrategy struct {
	Path string
}

func (s IndexStrategy) Name() string { return "index" }

func (s IndexStrategy) Candidates(ctx context.Context, fetcher content.Fetcher) (*Candidates, error) {
	manifestPath := s.Path
	if manifestPath == "" {
		manifestPath = IndexFile
	}

	data, err := fetcher.Fetch(ctx, manifestPath)
	if err != nil {
		if !content.IsMiss(err) {
			return nil, err
		}
		slog.Debug("No index manifest found, scanning for markdown files", "path", manifestPath, "error", err)
		return nil, nil
	}

	var manifest models.IndexManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		slog.Warn("Malformed index manifest, scanning for markdown files", "path", manifestPath, "error", err)
		return nil, nil
	}
	if manifest.Files == nil {
		slog.Warn("Index manifest has no files list, scanning for markdown files", "path", manifestPath)
		return nil, nil
	}

	return &Candidates{
		Names:         append([]string(nil), manifest.Files...),
		Authoritative: true,
	}, nil
}

// ProbeStrategy tries every name of a fixed catalog
type ProbeStrategy struct {
	Catalog []string
}

func (s ProbeStrategy) Name() string { return "probe" }

func (s ProbeStrategy) Candidates(ctx context.Context, _ content.Fetcher) (*Candidates, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	catalog := s.Catalog
	if catalog == nil {
		catalog = ProbeCatalog
	}
	return &Candidates{Names: append([]string(nil), catalog...)}, nil
}

// ScanStrategy lists Markdown files from fetchers that can enumerate their root
type ScanStrategy struct{}

func (s ScanStrategy) Name() string { return "scan" }

func (s ScanStrategy) Candidates(ctx context.Context, fetcher content.Fetcher) (*Candidates, error) {
	lister, ok := fetcher.(content.Lister)
	if !ok {
		return nil, nil
	}

	names, err := lister.List(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		slog.Warn("Unable to list content root", "error", err)
		return nil, nil
	}

	var markdown []string
	for _, name := range names {
		switch strings.ToLower(path.Ext(name)) {
		case ".md", ".markdown":
			markdown = append(markdown, name)
		}
	}
	sort.Sort(natural.StringSlice(markdown))

	return &Candidates{Names: markdown}, nil
}
