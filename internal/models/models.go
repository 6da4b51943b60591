package models

import (
	"strconv"
	"time"
)

// BookConfig holds the optional book metadata read from config.json
type BookConfig struct {
	Title       string `json:"title" yaml:"title"`
	Author      string `json:"author,omitempty" yaml:"author,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// DefaultBookConfig is substituted when config.json is missing or malformed
func DefaultBookConfig() BookConfig {
	return BookConfig{
		Title:       "My Book",
		Author:      "Unknown Author",
		Description: "A wonderful book created with Markdown Book Publisher",
	}
}

// UntitledBook is used when the config carries an empty title
const UntitledBook = "Untitled Book"

// Chapter is one orderable unit of book content
type Chapter struct {
	ID       string `json:"id" yaml:"id" parquet:"id"`
	Title    string `json:"title" yaml:"title" parquet:"title"`
	Content  string `json:"content" yaml:"content" parquet:"content"` // Raw markdown
	Order    int    `json:"order" yaml:"order" parquet:"order"`       // 1-based
	FileName string `json:"fileName" yaml:"file_name" parquet:"file_name"`
	Slug     string `json:"slug" yaml:"slug" parquet:"slug"`
}

// ChapterID returns the stable identifier for the chapter at the given order
func ChapterID(order int) string {
	return "chapter-" + strconv.Itoa(order)
}

// Book is the assembled, ordered book
type Book struct {
	Title       string    `json:"title"`
	Author      string    `json:"author,omitempty"`
	Description string    `json:"description,omitempty"`
	Chapters    []Chapter `json:"chapters"`
}

// Empty reports whether no chapters were discovered
func (b *Book) Empty() bool {
	return b == nil || len(b.Chapters) == 0
}

// Chapter looks up a chapter by ID
func (b *Book) Chapter(id string) (Chapter, bool) {
	if b == nil {
		return Chapter{}, false
	}
	for _, ch := range b.Chapters {
		if ch.ID == id {
			return ch, true
		}
	}
	return Chapter{}, false
}

// IndexManifest is the optional index.json listing chapter files in order
type IndexManifest struct {
	Files []string `json:"files"`
}

// Progress is the scroll position saved for one chapter
type Progress struct {
	ChapterID      string  `json:"chapterId"`
	ScrollPosition float64 `json:"scrollPosition"`
	Timestamp      int64   `json:"timestamp"` // Unix milliseconds
}

// DisplaySettings are the per-session reader preferences
type DisplaySettings struct {
	FontSize   int     `json:"fontSize"`
	Theme      string  `json:"theme"` // "light", "dark", "sepia"
	LineHeight float64 `json:"lineHeight"`
}

// DefaultDisplaySettings returns the settings a new session starts with
func DefaultDisplaySettings() DisplaySettings {
	return DisplaySettings{
		FontSize:   16,
		Theme:      "light",
		LineHeight: 1.6,
	}
}

// ReaderSession represents one reader's state
type ReaderSession struct {
	ID               string              `json:"id"`
	CurrentChapterID string              `json:"currentChapterId,omitempty"`
	Loading          bool                `json:"loading"`
	Error            string              `json:"error,omitempty"`
	Settings         DisplaySettings     `json:"settings"`
	Progress         map[string]Progress `json:"progress"`
	CreatedAt        time.Time           `json:"created_at"`
}
