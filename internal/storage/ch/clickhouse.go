package ch

import (
	"context"
	"crypto/tls"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sync"

	"tracker/internal/models"
	"tracker/internal/storage"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/pressly/goose/v3"
)

// Migrations holds the goose migrations for the ClickHouse schema
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations holding the goose files
const MigrationsDir = "migrations"

type ClickHouseDB struct {
	conn    clickhouse.Conn
	options *clickhouse.Options

	// serialises ID allocation, ClickHouse has no auto-increment
	idMu sync.Mutex
}

// Options builds the native protocol connection settings
func Options(host string, port int, database, user, password string, useTLS bool) *clickhouse.Options {
	options := &clickhouse.Options{
		Addr:     []string{fmt.Sprintf("%s:%d", host, port)},
		Protocol: clickhouse.Native,
		Auth: clickhouse.Auth{
			Database: database,
			Username: user,
			Password: password,
		},
	}

	// Configure TLS if enabled
	if useTLS {
		options.TLS = &tls.Config{
			InsecureSkipVerify: false,
		}
	}
	return options
}

// NewClickHouseDB creates a new ClickHouse database connection
func NewClickHouseDB(host string, port int, database, user, password string, useTLS bool) (*ClickHouseDB, error) {
	options := Options(host, port, database, user, password, useTLS)

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	// Test the connection
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &ClickHouseDB{conn: conn, options: options}, nil
}

// NewMigrator returns a goose provider over the embedded migrations. The
// caller owns db.
func NewMigrator(db *sql.DB) (*goose.Provider, error) {
	fsys, err := fs.Sub(Migrations, MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	return goose.NewProvider(goose.DialectClickHouse, db, fsys, goose.WithLogger(goose.NopLogger()))
}

// Initialize applies every pending migration and records it in
// goose_db_version, so cmd/migrate sees the same state
func (db *ClickHouseDB) Initialize(ctx context.Context) error {
	sqlDB := clickhouse.OpenDB(db.options)
	defer sqlDB.Close()

	migrator, err := NewMigrator(sqlDB)
	if err != nil {
		return err
	}
	if _, err := migrator.Up(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// syncCtx makes mutations and lightweight deletes visible before returning
func syncCtx(ctx context.Context) context.Context {
	return clickhouse.Context(ctx, clickhouse.WithSettings(clickhouse.Settings{
		"mutations_sync": 2,
	}))
}

func (db *ClickHouseDB) nextID(ctx context.Context, table, column string) (int64, error) {
	var maxID int64
	query := fmt.Sprintf("SELECT max(%s) FROM %s", column, table)
	if err := db.conn.QueryRow(ctx, query).Scan(&maxID); err != nil {
		return 0, fmt.Errorf("failed to allocate id in %s: %w", table, err)
	}
	return maxID + 1, nil
}

// CreateBook inserts a book with the next free ID
func (db *ClickHouseDB) CreateBook(ctx context.Context, book *models.Book) error {
	db.idMu.Lock()
	defer db.idMu.Unlock()

	id, err := db.nextID(ctx, "books", "booksId")
	if err != nil {
		return err
	}

	err = db.conn.Exec(ctx, `INSERT INTO books (booksId, title, author, start_date, end_date, daily_goal) VALUES (?, ?, ?, ?, ?, ?)`,
		id, book.Title, book.Author, book.StartDate, book.EndDate, book.DailyGoal)
	if err != nil {
		return fmt.Errorf("failed to create book: %w", err)
	}
	book.ID = id
	return nil
}

const selectBook = `SELECT booksId, title, author, start_date, end_date, daily_goal FROM books`

func (db *ClickHouseDB) queryBooks(ctx context.Context, query string, args ...interface{}) ([]models.Book, error) {
	rows, err := db.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []models.Book
	for rows.Next() {
		var book models.Book
		if err := rows.Scan(&book.ID, &book.Title, &book.Author, &book.StartDate, &book.EndDate, &book.DailyGoal); err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, book)
	}
	return books, rows.Err()
}

// GetBook returns the book with the given ID
func (db *ClickHouseDB) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	books, err := db.queryBooks(ctx, selectBook+` WHERE booksId = ? LIMIT 1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	if len(books) == 0 {
		return nil, storage.ErrBookNotFound
	}
	return &books[0], nil
}

// FindBook returns the first book (lowest ID) with the given title and author
func (db *ClickHouseDB) FindBook(ctx context.Context, title, author string) (*models.Book, error) {
	books, err := db.queryBooks(ctx, selectBook+` WHERE title = ? AND author = ? ORDER BY booksId LIMIT 1`, title, author)
	if err != nil {
		return nil, fmt.Errorf("failed to find book: %w", err)
	}
	if len(books) == 0 {
		return nil, storage.ErrBookNotFound
	}
	return &books[0], nil
}

// ListBooks returns all books ordered by ID
func (db *ClickHouseDB) ListBooks(ctx context.Context) ([]models.Book, error) {
	books, err := db.queryBooks(ctx, selectBook+` ORDER BY booksId`)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return books, nil
}

// UpdateBook overwrites every mutable field of the book
func (db *ClickHouseDB) UpdateBook(ctx context.Context, book *models.Book) error {
	if _, err := db.GetBook(ctx, book.ID); err != nil {
		return err
	}

	err := db.conn.Exec(syncCtx(ctx), `ALTER TABLE books UPDATE title = ?, author = ?, start_date = ?, end_date = ?, daily_goal = ? WHERE booksId = ?`,
		book.Title, book.Author, book.StartDate, book.EndDate, book.DailyGoal, book.ID)
	if err != nil {
		return fmt.Errorf("failed to update book: %w", err)
	}
	return nil
}

// DeleteBook removes the book's progress entries and then the book.
// ClickHouse has no foreign keys, so the cascade is done here.
func (db *ClickHouseDB) DeleteBook(ctx context.Context, id int64) error {
	if _, err := db.GetBook(ctx, id); err != nil {
		return err
	}

	ctx = syncCtx(ctx)
	if err := db.conn.Exec(ctx, `DELETE FROM reading_progress WHERE booksId = ?`, id); err != nil {
		return fmt.Errorf("failed to delete progress: %w", err)
	}
	if err := db.conn.Exec(ctx, `DELETE FROM books WHERE booksId = ?`, id); err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	return nil
}

// CreateProgress inserts a progress entry after checking the book exists
func (db *ClickHouseDB) CreateProgress(ctx context.Context, entry *models.ProgressEntry) error {
	var count uint64
	if err := db.conn.QueryRow(ctx, `SELECT count() FROM books WHERE booksId = ?`, entry.BookID).Scan(&count); err != nil {
		return fmt.Errorf("failed to check book: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("%w: %d", storage.ErrUnknownBook, entry.BookID)
	}

	db.idMu.Lock()
	defer db.idMu.Unlock()

	id, err := db.nextID(ctx, "reading_progress", "reading_progressId")
	if err != nil {
		return err
	}

	err = db.conn.Exec(ctx, `INSERT INTO reading_progress (reading_progressId, booksId, date, pages_read) VALUES (?, ?, ?, ?)`,
		id, entry.BookID, entry.Date, int32(entry.PagesRead))
	if err != nil {
		return fmt.Errorf("failed to create progress entry: %w", err)
	}
	entry.ID = id
	return nil
}

// ListProgress returns the entries of one book ordered by date
func (db *ClickHouseDB) ListProgress(ctx context.Context, bookID int64) ([]models.ProgressEntry, error) {
	rows, err := db.conn.Query(ctx, `SELECT reading_progressId, booksId, date, pages_read FROM reading_progress WHERE booksId = ? ORDER BY date, reading_progressId`, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	defer rows.Close()

	var entries []models.ProgressEntry
	for rows.Next() {
		var (
			entry models.ProgressEntry
			pages int32
		)
		if err := rows.Scan(&entry.ID, &entry.BookID, &entry.Date, &pages); err != nil {
			return nil, fmt.Errorf("failed to scan progress entry: %w", err)
		}
		entry.PagesRead = int(pages)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ListProgressRows joins every progress entry with its book title
func (db *ClickHouseDB) ListProgressRows(ctx context.Context) ([]models.ProgressRow, error) {
	rows, err := db.conn.Query(ctx, `
		SELECT b.title, p.date, p.pages_read
		FROM reading_progress AS p
		INNER JOIN books AS b ON b.booksId = p.booksId
		ORDER BY p.date, p.reading_progressId`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch progress table: %w", err)
	}
	defer rows.Close()

	var result []models.ProgressRow
	for rows.Next() {
		var (
			row   models.ProgressRow
			pages int32
		)
		if err := rows.Scan(&row.Title, &row.Date, &pages); err != nil {
			return nil, fmt.Errorf("failed to scan progress row: %w", err)
		}
		row.PagesRead = int(pages)
		result = append(result, row)
	}
	return result, rows.Err()
}

// Close closes the database connection
func (db *ClickHouseDB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
