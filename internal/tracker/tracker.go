// Package tracker implements the reading tracker operations on top of a
// storage backend. Each call is a self-contained unit of work.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"tracker/internal/models"
	"tracker/internal/pivot"
	"tracker/internal/storage"
)

// DateLayout is the wire and input format of calendar dates
const DateLayout = "2006-01-02"

// BookInput carries the user-editable fields of a book
type BookInput struct {
	Title     string     `json:"title" validate:"required,max=255"`
	Author    string     `json:"author" validate:"required,max=255"`
	StartDate time.Time  `json:"start_date" validate:"required"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	DailyGoal *string    `json:"daily_goal,omitempty" validate:"omitempty,max=255"`
}

type progressInput struct {
	Date      time.Time `json:"date" validate:"required"`
	PagesRead int       `json:"pages_read" validate:"gte=0"`
}

type Service struct {
	store     storage.Storage
	logger    *zap.Logger
	validator *inputValidator
}

func NewService(store storage.Storage, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		logger:    logger,
		validator: newValidator(),
	}
}

// AddBook creates a book. Duplicate title and author pairs are allowed.
func (s *Service) AddBook(ctx context.Context, in BookInput) (*models.Book, error) {
	in = normalize(in)
	if err := s.validator.validate(in); err != nil {
		return nil, err
	}

	book := &models.Book{}
	apply(book, in)
	if err := s.store.CreateBook(ctx, book); err != nil {
		s.logger.Error("Failed to add book", zap.String("title", in.Title), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Book added", zap.Int64("book_id", book.ID), zap.String("title", book.Title))
	return book, nil
}

// AddProgress records pages read against a book on a given day. A book ID
// that does not exist fails with the backend's referential error.
func (s *Service) AddProgress(ctx context.Context, bookID int64, date time.Time, pagesRead int) (*models.ProgressEntry, error) {
	in := progressInput{Date: Day(date), PagesRead: pagesRead}
	if err := s.validator.validate(in); err != nil {
		return nil, err
	}

	entry := &models.ProgressEntry{
		BookID:    bookID,
		Date:      in.Date,
		PagesRead: in.PagesRead,
	}
	if err := s.store.CreateProgress(ctx, entry); err != nil {
		s.logger.Error("Failed to add progress",
			zap.Int64("book_id", bookID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("Progress recorded",
		zap.Int64("book_id", bookID),
		zap.String("date", entry.Date.Format(DateLayout)),
		zap.Int("pages_read", entry.PagesRead),
	)
	return entry, nil
}

// EditBook replaces every field of the first book matching oldTitle and
// oldAuthor. When nothing matches it does nothing and returns nil, the new
// values are only validated once a book was found.
func (s *Service) EditBook(ctx context.Context, oldTitle, oldAuthor string, in BookInput) error {
	book, err := s.store.FindBook(ctx, oldTitle, oldAuthor)
	if errors.Is(err, storage.ErrBookNotFound) {
		s.logger.Debug("Edit skipped, no matching book",
			zap.String("title", oldTitle),
			zap.String("author", oldAuthor),
		)
		return nil
	}
	if err != nil {
		return err
	}

	in = normalize(in)
	if err := s.validator.validate(in); err != nil {
		return err
	}

	_, err = s.updateBook(ctx, book, in)
	return err
}

// RemoveBook deletes the first book matching title and author together
// with its progress. It reports false when nothing matched.
func (s *Service) RemoveBook(ctx context.Context, title, author string) (bool, error) {
	book, err := s.store.FindBook(ctx, title, author)
	if errors.Is(err, storage.ErrBookNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s.DeleteBook(ctx, book.ID)
}

// FetchProgressTable returns every progress entry joined to its book title
func (s *Service) FetchProgressTable(ctx context.Context) ([]models.ProgressRow, error) {
	rows, err := s.store.ListProgressRows(ctx)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []models.ProgressRow{}
	}
	return rows, nil
}

// Book returns the book with the given ID
func (s *Service) Book(ctx context.Context, id int64) (*models.Book, error) {
	return s.store.GetBook(ctx, id)
}

// Books returns every book ordered by ID
func (s *Service) Books(ctx context.Context) ([]models.Book, error) {
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
	if books == nil {
		books = []models.Book{}
	}
	return books, nil
}

// UpdateBook replaces every field of the book with the given ID
func (s *Service) UpdateBook(ctx context.Context, id int64, in BookInput) (bool, error) {
	in = normalize(in)
	if err := s.validator.validate(in); err != nil {
		return false, err
	}

	book, err := s.store.GetBook(ctx, id)
	if errors.Is(err, storage.ErrBookNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s.updateBook(ctx, book, in)
}

// DeleteBook removes the book with the given ID and its progress
func (s *Service) DeleteBook(ctx context.Context, id int64) (bool, error) {
	err := s.store.DeleteBook(ctx, id)
	if errors.Is(err, storage.ErrBookNotFound) {
		return false, nil
	}
	if err != nil {
		s.logger.Error("Failed to remove book", zap.Int64("book_id", id), zap.Error(err))
		return false, err
	}

	s.logger.Info("Book removed", zap.Int64("book_id", id))
	return true, nil
}

// BookProgress returns the progress entries of one book ordered by date
func (s *Service) BookProgress(ctx context.Context, id int64) ([]models.ProgressEntry, error) {
	if _, err := s.store.GetBook(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.store.ListProgress(ctx, id)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.ProgressEntry{}
	}
	return entries, nil
}

// ProgressMatrix pivots the progress table into a date by title presence grid
func (s *Service) ProgressMatrix(ctx context.Context) (*pivot.Matrix, error) {
	rows, err := s.FetchProgressTable(ctx)
	if err != nil {
		return nil, err
	}
	return pivot.Build(rows), nil
}

// Summary returns per-title totals of the progress table
func (s *Service) Summary(ctx context.Context) ([]pivot.TitleSummary, error) {
	rows, err := s.FetchProgressTable(ctx)
	if err != nil {
		return nil, err
	}
	return pivot.Summarize(rows), nil
}

func (s *Service) updateBook(ctx context.Context, book *models.Book, in BookInput) (bool, error) {
	apply(book, in)
	err := s.store.UpdateBook(ctx, book)
	if errors.Is(err, storage.ErrBookNotFound) {
		return false, nil
	}
	if err != nil {
		s.logger.Error("Failed to update book", zap.Int64("book_id", book.ID), zap.Error(err))
		return false, err
	}

	s.logger.Info("Book updated", zap.Int64("book_id", book.ID), zap.String("title", book.Title))
	return true, nil
}

// Day strips the time of day, keeping the calendar date in UTC
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	return t, nil
}

func normalize(in BookInput) BookInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	in.StartDate = Day(in.StartDate)
	if in.EndDate != nil {
		end := Day(*in.EndDate)
		in.EndDate = &end
	}
	if in.DailyGoal != nil {
		goal := strings.TrimSpace(*in.DailyGoal)
		if goal == "" {
			in.DailyGoal = nil
		} else {
			in.DailyGoal = &goal
		}
	}
	return in
}

func apply(book *models.Book, in BookInput) {
	book.Title = in.Title
	book.Author = in.Author
	book.StartDate = in.StartDate
	book.EndDate = in.EndDate
	book.DailyGoal = in.DailyGoal
}
