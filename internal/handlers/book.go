package handlers

import (
	"net/http"
	"strings"

	"github.com/mdbook-reader/reader/internal/models"
)

// ChapterSummary is a table-of-contents entry
type ChapterSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Order    int    `json:"order"`
	FileName string `json:"fileName"`
	Slug     string `json:"slug"`
}

// BookResponse is the payload of GET /api/book
type BookResponse struct {
	State       string           `json:"state"`
	Title       string           `json:"title"`
	Author      string           `json:"author,omitempty"`
	Description string           `json:"description,omitempty"`
	Empty       bool             `json:"empty"`
	Message     string           `json:"message,omitempty"`
	Chapters    []ChapterSummary `json:"chapters"`
}

// ChapterResponse is the payload of GET /api/chapters/{id}
type ChapterResponse struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Order    int    `json:"order"`
	FileName string `json:"fileName"`
	Slug     string `json:"slug"`
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
	PrevID   string `json:"prevId,omitempty"`
	NextID   string `json:"nextId,omitempty"`
}

func (h *Handler) HandleBook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	book, ok := h.loadBook(r.Context(), w)
	if !ok {
		return
	}

	response := BookResponse{
		State:       StateReading,
		Title:       book.Title,
		Author:      book.Author,
		Description: book.Description,
		Empty:       book.Empty(),
		Chapters:    make([]ChapterSummary, 0, len(book.Chapters)),
	}
	if response.Empty {
		response.State = StateEmpty
		response.Message = "No content found. " + Remediation
	}

	for _, ch := range book.Chapters {
		response.Chapters = append(response.Chapters, ChapterSummary{
			ID:       ch.ID,
			Title:    ch.Title,
			Order:    ch.Order,
			FileName: ch.FileName,
			Slug:     ch.Slug,
		})
	}

	h.writeJSON(w, response)
}

func (h *Handler) HandleChapter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	chapterID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/chapters/"), "/")
	if chapterID == "" {
		h.writeError(w, "Chapter id is required", http.StatusBadRequest)
		return
	}

	book, ok := h.loadBook(r.Context(), w)
	if !ok {
		return
	}

	index := chapterIndex(book, chapterID)
	if index < 0 {
		h.writeError(w, "Chapter not found", http.StatusNotFound)
		return
	}
	chapter := book.Chapters[index]

	html, err := h.renderer.Render(chapter.Content)
	if err != nil {
		h.writeError(w, "Failed to render chapter: "+err.Error(), http.StatusInternalServerError)
		return
	}

	response := ChapterResponse{
		ID:       chapter.ID,
		Title:    chapter.Title,
		Order:    chapter.Order,
		FileName: chapter.FileName,
		Slug:     chapter.Slug,
		Markdown: chapter.Content,
		HTML:     html,
	}
	if index > 0 {
		response.PrevID = book.Chapters[index-1].ID
	}
	if index < len(book.Chapters)-1 {
		response.NextID = book.Chapters[index+1].ID
	}

	h.writeJSON(w, response)
}

// chapterIndex finds a chapter by id or slug
func chapterIndex(book *models.Book, key string) int {
	for i, ch := range book.Chapters {
		if ch.ID == key {
			return i
		}
	}
	for i, ch := range book.Chapters {
		if ch.Slug == key {
			return i
		}
	}
	return -1
}
