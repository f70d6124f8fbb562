package api

import (
	"time"

	"tracker/internal/models"
	"tracker/internal/pivot"
	"tracker/internal/tracker"
)

// BookRequest is the body of book create and update calls
type BookRequest struct {
	Title     string  `json:"title"`
	Author    string  `json:"author"`
	StartDate string  `json:"start_date"`
	EndDate   *string `json:"end_date,omitempty"`
	DailyGoal *string `json:"daily_goal,omitempty"`
}

func (req BookRequest) toInput() (tracker.BookInput, error) {
	in := tracker.BookInput{
		Title:     req.Title,
		Author:    req.Author,
		DailyGoal: req.DailyGoal,
	}
	if req.StartDate != "" {
		start, err := tracker.ParseDate(req.StartDate)
		if err != nil {
			return in, err
		}
		in.StartDate = start
	}
	if req.EndDate != nil && *req.EndDate != "" {
		end, err := tracker.ParseDate(*req.EndDate)
		if err != nil {
			return in, err
		}
		in.EndDate = &end
	}
	return in, nil
}

// EditBookRequest addresses a book by its current title and author
type EditBookRequest struct {
	OldTitle  string `json:"old_title"`
	OldAuthor string `json:"old_author"`
	BookRequest
}

// ProgressRequest is the body of POST /api/progress
type ProgressRequest struct {
	BookID    int64  `json:"book_id"`
	Date      string `json:"date"`
	PagesRead int    `json:"pages_read"`
}

type BookResponse struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	Author    string  `json:"author"`
	StartDate string  `json:"start_date"`
	EndDate   *string `json:"end_date"`
	DailyGoal *string `json:"daily_goal"`
}

type ProgressEntryResponse struct {
	ID        int64  `json:"id"`
	BookID    int64  `json:"book_id"`
	Date      string `json:"date"`
	PagesRead int    `json:"pages_read"`
}

type ProgressRowResponse struct {
	Title     string `json:"title"`
	Date      string `json:"date"`
	PagesRead int    `json:"pages_read"`
}

type MatrixResponse struct {
	Dates  []string `json:"dates"`
	Titles []string `json:"titles"`
	Cells  [][]int  `json:"cells"`
}

type RemovedResponse struct {
	Removed bool `json:"removed"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func formatDate(t time.Time) string {
	return t.Format(tracker.DateLayout)
}

func newBookResponse(b *models.Book) BookResponse {
	resp := BookResponse{
		ID:        b.ID,
		Title:     b.Title,
		Author:    b.Author,
		StartDate: formatDate(b.StartDate),
		DailyGoal: b.DailyGoal,
	}
	if b.EndDate != nil {
		end := formatDate(*b.EndDate)
		resp.EndDate = &end
	}
	return resp
}

func newProgressEntryResponse(e *models.ProgressEntry) ProgressEntryResponse {
	return ProgressEntryResponse{
		ID:        e.ID,
		BookID:    e.BookID,
		Date:      formatDate(e.Date),
		PagesRead: e.PagesRead,
	}
}

func newMatrixResponse(m *pivot.Matrix) MatrixResponse {
	return MatrixResponse{
		Dates:  m.DateLabels(),
		Titles: m.Titles,
		Cells:  m.Cells,
	}
}
