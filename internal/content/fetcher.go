package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strings"
)

var (
	// ErrNotFound indicates the requested file does not exist at the content root
	ErrNotFound = errors.New("content: file not found")

	// ErrUnavailable indicates the file could not be retrieved (transport
	// failure or non-success status other than not found)
	ErrUnavailable = errors.New("content: file unavailable")
)

// Fetcher retrieves raw files relative to a content root
type Fetcher interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// Lister is implemented by fetchers that can enumerate their content root
type Lister interface {
	List(ctx context.Context) ([]string, error)
}

// IsMiss reports whether a failed fetch should be treated as an absent file.
// Every failure counts as a miss except cancellation of the caller's context.
func IsMiss(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// New picks a fetcher for source: http(s) URLs are fetched over HTTP,
// anything else is treated as a local directory
func New(source string) Fetcher {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return NewHTTPFetcher(source)
	}
	if strings.TrimSpace(source) == "" {
		source = "."
	}
	return NewFSFetcher(os.DirFS(source))
}

// HTTPFetcher retrieves content files from a static file server
type HTTPFetcher struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewHTTPFetcher creates a fetcher rooted at baseURL. The client carries no
// timeout; bound requests through the context instead.
func NewHTTPFetcher(baseURL string) *HTTPFetcher {
	return &HTTPFetcher{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{},
	}
}

// Fetch downloads name relative to the base URL
func (f *HTTPFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+"/"+escapePath(name), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", name, ErrUnavailable)
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("failed to fetch %s: %w: %v", name, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, fmt.Errorf("%s returned status %d: %w", name, resp.StatusCode, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%s returned status %d: %w", name, resp.StatusCode, ErrUnavailable)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("failed to read %s: %w: %v", name, ErrUnavailable, err)
	}

	return data, nil
}

// escapePath escapes each segment so names like 第一章.md survive the trip
func escapePath(name string) string {
	segments := strings.Split(strings.TrimLeft(name, "/"), "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}

// FSFetcher retrieves content files from a filesystem
type FSFetcher struct {
	FS fs.FS
}

// NewFSFetcher creates a fetcher reading from fsys
func NewFSFetcher(fsys fs.FS) *FSFetcher {
	return &FSFetcher{FS: fsys}
}

// Fetch reads name from the filesystem
func (f *FSFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name = strings.TrimLeft(name, "/")
	if !fs.ValidPath(name) || name == "." {
		return nil, fmt.Errorf("invalid path %q: %w", name, ErrNotFound)
	}

	data, err := fs.ReadFile(f.FS, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read %s: %w: %v", name, ErrUnavailable, err)
	}

	return data, nil
}

// List returns the regular files directly under the filesystem root
func (f *FSFetcher) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := fs.ReadDir(f.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to list content root: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}
