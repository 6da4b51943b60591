// Package export writes the assembled chapter table to JSONL, YAML or Parquet.
package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"

	"github.com/mdbook-reader/reader/internal/models"
)

// ChapterRecord is one exported chapter row
type ChapterRecord struct {
	BookTitle string `json:"book_title" yaml:"book_title" parquet:"book_title"`
	ID        string `json:"id" yaml:"id" parquet:"id"`
	Order     int64  `json:"order" yaml:"order" parquet:"order"`
	Title     string `json:"title" yaml:"title" parquet:"title"`
	FileName  string `json:"file_name" yaml:"file_name" parquet:"file_name"`
	Slug      string `json:"slug" yaml:"slug" parquet:"slug"`
	Words     int64  `json:"words" yaml:"words" parquet:"words"`
	Content   string `json:"content,omitempty" yaml:"content,omitempty" parquet:"content,optional"`
}

// BookSpec is the YAML document layout
type BookSpec struct {
	Title       string          `yaml:"title"`
	Author      string          `yaml:"author,omitempty"`
	Description string          `yaml:"description,omitempty"`
	Chapters    []ChapterRecord `yaml:"chapters"`
}

// Supported formats
const (
	FormatJSONL   = "jsonl"
	FormatYAML    = "yaml"
	FormatParquet = "parquet"
)

// DetectFormat maps a file extension to an export format
func DetectFormat(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".parquet":
		return FormatParquet, nil
	case ".jsonl", ".json":
		return FormatJSONL, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported file format: %s (supported: .jsonl, .yaml, .parquet)", ext)
	}
}

// Records flattens book into export rows
func Records(book *models.Book, includeContent bool) []ChapterRecord {
	records := make([]ChapterRecord, 0, len(book.Chapters))
	for _, ch := range book.Chapters {
		record := ChapterRecord{
			BookTitle: book.Title,
			ID:        ch.ID,
			Order:     int64(ch.Order),
			Title:     ch.Title,
			FileName:  ch.FileName,
			Slug:      ch.Slug,
			Words:     int64(len(strings.Fields(ch.Content))),
		}
		if includeContent {
			record.Content = ch.Content
		}
		records = append(records, record)
	}
	return records
}

// Write exports book to path in format. An empty format is detected from
// the file extension.
func Write(book *models.Book, path, format string, includeContent bool) error {
	if format == "" {
		detected, err := DetectFormat(path)
		if err != nil {
			return err
		}
		format = detected
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	records := Records(book, includeContent)
	slog.Debug("Exporting chapters", "path", path, "format", format, "records", len(records))

	switch format {
	case FormatJSONL:
		return writeJSONL(path, records)
	case FormatYAML:
		return writeYAML(path, book, records)
	case FormatParquet:
		return writeParquet(path, records)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

func writeJSONL(path string, records []ChapterRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	enc := json.NewEncoder(w)
	for _, record := range records {
		if err := enc.Encode(record); err != nil {
			return fmt.Errorf("failed to encode chapter %s: %w", record.ID, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

func writeYAML(path string, book *models.Book, records []ChapterRecord) error {
	spec := BookSpec{
		Title:       book.Title,
		Author:      book.Author,
		Description: book.Description,
		Chapters:    records,
	}

	data, err := yaml.Marshal(&spec)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}
	return nil
}

func writeParquet(path string, records []ChapterRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[ChapterRecord](file)
	if _, err := writer.Write(records); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}
