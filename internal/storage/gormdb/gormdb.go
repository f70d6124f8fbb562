package gormdb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tracker/internal/models"
	"tracker/internal/storage"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DB is the relational storage backend
type DB struct {
	db *gorm.DB
}

// Open connects to postgres or sqlite. SQLite connections always enable
// foreign keys so progress entries cannot reference a missing book.
func Open(driver, dsn string) (*DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
		dialector = sqlite.Open(withForeignKeys(dsn))
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if driver == DriverSQLite {
		// one connection keeps in-memory databases alive and serialises writers
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db: db}, nil
}

// Initialize creates the books and reading_progress tables if absent
func (d *DB) Initialize(ctx context.Context) error {
	if err := d.db.WithContext(ctx).AutoMigrate(&models.Book{}, &models.ProgressEntry{}); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	return nil
}

// CreateBook inserts a book and assigns its ID
func (d *DB) CreateBook(ctx context.Context, book *models.Book) error {
	if err := d.db.WithContext(ctx).Omit("Progress").Create(book).Error; err != nil {
		return fmt.Errorf("failed to create book: %w", err)
	}
	return nil
}

// GetBook returns the book with the given ID
func (d *DB) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	var book models.Book
	err := d.db.WithContext(ctx).Where(map[string]interface{}{"booksId": id}).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return &book, nil
}

// FindBook returns the first book (lowest ID) with the given title and author
func (d *DB) FindBook(ctx context.Context, title, author string) (*models.Book, error) {
	var book models.Book
	err := d.db.WithContext(ctx).
		Where(map[string]interface{}{"title": title, "author": author}).
		First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find book: %w", err)
	}
	return &book, nil
}

// ListBooks returns all books ordered by ID
func (d *DB) ListBooks(ctx context.Context) ([]models.Book, error) {
	var books []models.Book
	if err := d.db.WithContext(ctx).Order(`"booksId"`).Find(&books).Error; err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return books, nil
}

// UpdateBook overwrites every mutable field, clearing optional ones when nil
func (d *DB) UpdateBook(ctx context.Context, book *models.Book) error {
	res := d.db.WithContext(ctx).
		Model(&models.Book{}).
		Where(map[string]interface{}{"booksId": book.ID}).
		Updates(map[string]interface{}{
			"title":      book.Title,
			"author":     book.Author,
			"start_date": book.StartDate,
			"end_date":   book.EndDate,
			"daily_goal": book.DailyGoal,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update book: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrBookNotFound
	}
	return nil
}

// DeleteBook removes the progress entries and then the book in one transaction
func (d *DB) DeleteBook(ctx context.Context, id int64) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cond := map[string]interface{}{"booksId": id}
		if err := tx.Where(cond).Delete(&models.ProgressEntry{}).Error; err != nil {
			return fmt.Errorf("failed to delete progress: %w", err)
		}

		res := tx.Where(cond).Delete(&models.Book{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete book: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return storage.ErrBookNotFound
		}
		return nil
	})
}

// CreateProgress inserts a progress entry. A missing book is rejected by
// the foreign key and reported as ErrUnknownBook.
func (d *DB) CreateProgress(ctx context.Context, entry *models.ProgressEntry) error {
	err := d.db.WithContext(ctx).Create(entry).Error
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return fmt.Errorf("%w: %d: %v", storage.ErrUnknownBook, entry.BookID, err)
	}
	if err != nil {
		return fmt.Errorf("failed to create progress entry: %w", err)
	}
	return nil
}

// ListProgress returns the entries of one book ordered by date
func (d *DB) ListProgress(ctx context.Context, bookID int64) ([]models.ProgressEntry, error) {
	var entries []models.ProgressEntry
	err := d.db.WithContext(ctx).
		Where(map[string]interface{}{"booksId": bookID}).
		Order(`"date", "reading_progressId"`).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	return entries, nil
}

// ListProgressRows joins every progress entry with its book title
func (d *DB) ListProgressRows(ctx context.Context) ([]models.ProgressRow, error) {
	var rows []models.ProgressRow
	err := d.db.WithContext(ctx).
		Table("reading_progress").
		Select(`books.title AS title, reading_progress."date" AS "date", reading_progress.pages_read AS pages_read`).
		Joins(`JOIN books ON books."booksId" = reading_progress."booksId"`).
		Order(`reading_progress."date", reading_progress."reading_progressId"`).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch progress table: %w", err)
	}
	return rows, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ensureDir creates the parent directory of a file-backed sqlite database
func ensureDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}
