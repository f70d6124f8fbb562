package stubs

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"tracker/internal/models"
	"tracker/internal/storage"
)

// MockDB is an in-memory implementation of the Storage interface for testing
type MockDB struct {
	mu         sync.RWMutex
	books      map[int64]models.Book
	progress   map[int64]models.ProgressEntry
	nextBookID int64
	nextEntry  int64
}

// NewMockDB creates a new mock database
func NewMockDB() *MockDB {
	return &MockDB{
		books:    make(map[int64]models.Book),
		progress: make(map[int64]models.ProgressEntry),
	}
}

// Initialize is a no-op, the maps are ready on construction
func (m *MockDB) Initialize(ctx context.Context) error {
	return nil
}

// CreateBook stores the book and assigns its ID
func (m *MockDB) CreateBook(ctx context.Context, book *models.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextBookID++
	book.ID = m.nextBookID
	m.books[book.ID] = cloneBook(*book)
	return nil
}

// GetBook returns the book with the given ID
func (m *MockDB) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	book, ok := m.books[id]
	if !ok {
		return nil, storage.ErrBookNotFound
	}
	book = cloneBook(book)
	return &book, nil
}

// FindBook returns the first book matching title and author
func (m *MockDB) FindBook(ctx context.Context, title, author string) (*models.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, book := range m.sortedBooks() {
		if book.Title == title && book.Author == author {
			return &book, nil
		}
	}
	return nil, storage.ErrBookNotFound
}

// ListBooks returns all books ordered by ID
func (m *MockDB) ListBooks(ctx context.Context) ([]models.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.sortedBooks(), nil
}

// UpdateBook replaces the stored book with the same ID
func (m *MockDB) UpdateBook(ctx context.Context, book *models.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.books[book.ID]; !ok {
		return storage.ErrBookNotFound
	}
	m.books[book.ID] = cloneBook(*book)
	return nil
}

// DeleteBook removes the book and its progress entries
func (m *MockDB) DeleteBook(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.books[id]; !ok {
		return storage.ErrBookNotFound
	}
	delete(m.books, id)

	for entryID, entry := range m.progress {
		if entry.BookID == id {
			delete(m.progress, entryID)
		}
	}
	return nil
}

// CreateProgress stores a progress entry for an existing book
func (m *MockDB) CreateProgress(ctx context.Context, entry *models.ProgressEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.books[entry.BookID]; !ok {
		return fmt.Errorf("%w: %d", storage.ErrUnknownBook, entry.BookID)
	}

	m.nextEntry++
	entry.ID = m.nextEntry
	m.progress[entry.ID] = *entry
	return nil
}

// ListProgress returns the entries of one book ordered by date
func (m *MockDB) ListProgress(ctx context.Context, bookID int64) ([]models.ProgressEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []models.ProgressEntry
	for _, entry := range m.sortedProgress() {
		if entry.BookID == bookID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// ListProgressRows joins every entry with its book title
func (m *MockDB) ListProgressRows(ctx context.Context) ([]models.ProgressRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var rows []models.ProgressRow
	for _, entry := range m.sortedProgress() {
		book, ok := m.books[entry.BookID]
		if !ok {
			continue
		}
		rows = append(rows, models.ProgressRow{
			Title:     book.Title,
			Date:      entry.Date,
			PagesRead: entry.PagesRead,
		})
	}
	return rows, nil
}

// Close does nothing for mock DB
func (m *MockDB) Close() error {
	return nil
}

func (m *MockDB) sortedBooks() []models.Book {
	books := make([]models.Book, 0, len(m.books))
	for _, book := range m.books {
		books = append(books, cloneBook(book))
	}
	sort.Slice(books, func(i, j int) bool {
		return books[i].ID < books[j].ID
	})
	return books
}

func (m *MockDB) sortedProgress() []models.ProgressEntry {
	entries := make([]models.ProgressEntry, 0, len(m.progress))
	for _, entry := range m.progress {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		return entries[i].ID < entries[j].ID
	})
	return entries
}

// cloneBook copies the optional fields so callers cannot mutate stored state
func cloneBook(book models.Book) models.Book {
	if book.EndDate != nil {
		end := *book.EndDate
		book.EndDate = &end
	}
	if book.DailyGoal != nil {
		goal := *book.DailyGoal
		book.DailyGoal = &goal
	}
	book.Progress = nil
	return book
}
