package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mdbook-reader/reader/internal/models"
)

func testBook() *models.Book {
	return &models.Book{
		Title:  "Sample",
		Author: "Someone",
		Chapters: []models.Chapter{
			{ID: "chapter-1", Title: "One", Content: "# One\n\nfirst words here", Order: 1, FileName: "chapter1.md", Slug: "one"},
			{ID: "chapter-2", Title: "Two", Content: "# Two\n\nsecond", Order: 2, FileName: "chapter2.md", Slug: "two"},
		},
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path     string
		expected string
		wantErr  bool
	}{
		{path: "out.jsonl", expected: FormatJSONL},
		{path: "out.json", expected: FormatJSONL},
		{path: "out.YAML", expected: FormatYAML},
		{path: "out.yml", expected: FormatYAML},
		{path: "dir/out.parquet", expected: FormatParquet},
		{path: "out.csv", wantErr: true},
		{path: "noext", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := DetectFormat(tt.path)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %s", tt.path)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestRecords(t *testing.T) {
	records := Records(testBook(), false)
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].BookTitle != "Sample" || records[0].Order != 1 || records[0].Words != 5 {
		t.Errorf("Unexpected first record: %+v", records[0])
	}
	if records[0].Content != "" {
		t.Error("Expected content to be omitted")
	}

	withContent := Records(testBook(), true)
	if withContent[1].Content != "# Two\n\nsecond" {
		t.Errorf("Expected content, got %q", withContent[1].Content)
	}
}

func TestWriteAndRead(t *testing.T) {
	for _, ext := range []string{".jsonl", ".yaml", ".parquet"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "book"+ext)

			if err := Write(testBook(), path, "", true); err != nil {
				t.Fatalf("Write failed: %v", err)
			}

			records, err := Read(path)
			if err != nil {
				t.Fatalf("Read failed: %v", err)
			}
			if len(records) != 2 {
				t.Fatalf("Expected 2 records, got %d", len(records))
			}
			if records[1].ID != "chapter-2" || records[1].FileName != "chapter2.md" || records[1].Order != 2 {
				t.Errorf("Unexpected second record: %+v", records[1])
			}
			if records[0].Content != "# One\n\nfirst words here" {
				t.Errorf("Expected content to survive, got %q", records[0].Content)
			}
		})
	}
}

func TestWriteYAMLDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.yml")
	if err := Write(testBook(), path, FormatYAML, false); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	for _, want := range []string{"title: Sample", "author: Someone", "file_name: chapter1.md"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("Expected %q in YAML:\n%s", want, data)
		}
	}
	if strings.Contains(string(data), "content:") {
		t.Error("Expected content to be omitted")
	}
}

func TestWriteUnsupported(t *testing.T) {
	dir := t.TempDir()
	if err := Write(testBook(), filepath.Join(dir, "book.txt"), "", false); err == nil {
		t.Error("Expected error for unknown extension")
	}
	if err := Write(testBook(), filepath.Join(dir, "book.jsonl"), "xml", false); err == nil {
		t.Error("Expected error for unknown format")
	}
}
