package storage

import (
	"context"
	"errors"

	"tracker/internal/models"
)

var (
	// ErrBookNotFound is returned when no book matches a lookup
	ErrBookNotFound = errors.New("book not found")

	// ErrUnknownBook is returned by backends without foreign key enforcement
	// when a progress entry references a book that does not exist
	ErrUnknownBook = errors.New("progress entry references unknown book")
)

// Storage defines the interface for data storage operations
type Storage interface {
	// Book operations
	CreateBook(ctx context.Context, book *models.Book) error
	GetBook(ctx context.Context, id int64) (*models.Book, error)

	// FindBook returns the first book (lowest ID) with the given title and author
	FindBook(ctx context.Context, title, author string) (*models.Book, error)
	ListBooks(ctx context.Context) ([]models.Book, error)

	// UpdateBook overwrites every mutable field of the book with the given ID
	UpdateBook(ctx context.Context, book *models.Book) error

	// DeleteBook removes the book and all of its progress entries
	DeleteBook(ctx context.Context, id int64) error

	// Progress operations
	CreateProgress(ctx context.Context, entry *models.ProgressEntry) error
	ListProgress(ctx context.Context, bookID int64) ([]models.ProgressEntry, error)

	// ListProgressRows joins every progress entry to its book title,
	// ordered by date and then by entry ID
	ListProgressRows(ctx context.Context) ([]models.ProgressRow, error)

	// Lifecycle
	Initialize(ctx context.Context) error
	Close() error
}
