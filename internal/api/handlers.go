package api

import (
	"bytes"
	"net/http"
	"strings"

	"tracker/internal/chart"
	"tracker/internal/tracker"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListColormaps(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(chart.Colormaps()))
	for _, c := range chart.Colormaps() {
		names = append(names, c.String())
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"colormaps": names,
		"default":   chart.DefaultColormap.String(),
	})
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.tracker.Books(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := make([]BookResponse, 0, len(books))
	for i := range books {
		resp = append(resp, newBookResponse(&books[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddBook(w http.ResponseWriter, r *http.Request) {
	var req BookRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	book, err := s.tracker.AddBook(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newBookResponse(book))
}

// handleEditBook edits the first book matching old_title and old_author.
// A miss is not reported.
func (s *Server) handleEditBook(w http.ResponseWriter, r *http.Request) {
	var req EditBookRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.tracker.EditBook(r.Context(), req.OldTitle, req.OldAuthor, in); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveBook(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	author := strings.TrimSpace(r.URL.Query().Get("author"))
	if title == "" || author == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "title and author query parameters are required"})
		return
	}

	removed, err := s.tracker.RemoveBook(r.Context(), title, author)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RemovedResponse{Removed: removed})
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id, err := bookID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	book, err := s.tracker.Book(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBookResponse(book))
}

func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	id, err := bookID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req BookRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	updated, err := s.tracker.UpdateBook(r.Context(), id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !updated {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "book not found"})
		return
	}

	book, err := s.tracker.Book(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBookResponse(book))
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id, err := bookID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	removed, err := s.tracker.DeleteBook(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RemovedResponse{Removed: removed})
}

func (s *Server) handleBookProgress(w http.ResponseWriter, r *http.Request) {
	id, err := bookID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	entries, err := s.tracker.BookProgress(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := make([]ProgressEntryResponse, 0, len(entries))
	for i := range entries {
		resp = append(resp, newProgressEntryResponse(&entries[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddProgress(w http.ResponseWriter, r *http.Request) {
	var req ProgressRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	date, err := tracker.ParseDate(req.Date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	entry, err := s.tracker.AddProgress(r.Context(), req.BookID, date, req.PagesRead)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newProgressEntryResponse(entry))
}

func (s *Server) handleProgressTable(w http.ResponseWriter, r *http.Request) {
	rows, err := s.tracker.FetchProgressTable(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := make([]ProgressRowResponse, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, ProgressRowResponse{
			Title:     row.Title,
			Date:      formatDate(row.Date),
			PagesRead: row.PagesRead,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProgressMatrix(w http.ResponseWriter, r *http.Request) {
	m, err := s.tracker.ProgressMatrix(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newMatrixResponse(m))
}

func (s *Server) handleProgressSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.tracker.Summary(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	cmap, err := chart.ParseColormap(r.URL.Query().Get("colormap"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	m, err := s.tracker.ProgressMatrix(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := chart.RenderHeatmap(&buf, m, cmap); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
