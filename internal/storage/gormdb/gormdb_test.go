package gormdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker/internal/models"
	"tracker/internal/storage"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(DriverSQLite, ":memory:")
	require.NoError(t, err, "Failed to open sqlite database")
	require.NoError(t, db.Initialize(context.Background()))

	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDB_Initialize_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	assert.NoError(t, db.Initialize(context.Background()))
}

func TestDB_CreateAndGetBook(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	end := day(2024, 2, 1)
	goal := "30 pages"
	book := &models.Book{
		Title:     "Dune",
		Author:    "Frank Herbert",
		StartDate: day(2024, 1, 1),
		EndDate:   &end,
		DailyGoal: &goal,
	}
	require.NoError(t, db.CreateBook(ctx, book))
	assert.NotZero(t, book.ID)

	stored, err := db.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", stored.Title)
	assert.Equal(t, "Frank Herbert", stored.Author)
	assert.True(t, stored.StartDate.Equal(day(2024, 1, 1)))
	require.NotNil(t, stored.EndDate)
	assert.True(t, stored.EndDate.Equal(end))
	require.NotNil(t, stored.DailyGoal)
	assert.Equal(t, "30 pages", *stored.DailyGoal)

	plain := &models.Book{Title: "Emma", Author: "Jane Austen", StartDate: day(2024, 1, 1)}
	require.NoError(t, db.CreateBook(ctx, plain))
	stored, err = db.GetBook(ctx, plain.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.EndDate)
	assert.Nil(t, stored.DailyGoal)

	_, err = db.GetBook(ctx, 999)
	assert.ErrorIs(t, err, storage.ErrBookNotFound)
}

func TestDB_FindBook_FirstMatch(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first := &models.Book{Title: "Dune", Author: "Frank Herbert", StartDate: day(2024, 1, 1)}
	second := &models.Book{Title: "Dune", Author: "Frank Herbert", StartDate: day(2024, 3, 1)}
	require.NoError(t, db.CreateBook(ctx, first))
	require.NoError(t, db.CreateBook(ctx, second))

	found, err := db.FindBook(ctx, "Dune", "Frank Herbert")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)

	_, err = db.FindBook(ctx, "Dune", "Brian Herbert")
	assert.ErrorIs(t, err, storage.ErrBookNotFound)
}

func TestDB_ListBooks(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	books, err := db.ListBooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)

	for _, title := range []string{"C", "A", "B"} {
		require.NoError(t, db.CreateBook(ctx, &models.Book{Title: title, Author: "X", StartDate: day(2024, 1, 1)}))
	}

	books, err = db.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.Equal(t, "C", books[0].Title)
	assert.Equal(t, "A", books[1].Title)
	assert.Equal(t, "B", books[2].Title)
}

func TestDB_UpdateBook(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	goal := "10 pages"
	book := &models.Book{Title: "Dune", Author: "Frank Herbert", StartDate: day(2024, 1, 1), DailyGoal: &goal}
	require.NoError(t, db.CreateBook(ctx, book))

	end := day(2024, 5, 1)
	book.Title = "Dune Messiah"
	book.StartDate = day(2024, 2, 1)
	book.EndDate = &end
	book.DailyGoal = nil
	require.NoError(t, db.UpdateBook(ctx, book))

	stored, err := db.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", stored.Title)
	assert.True(t, stored.StartDate.Equal(day(2024, 2, 1)))
	require.NotNil(t, stored.EndDate)
	assert.True(t, stored.EndDate.Equal(end))
	assert.Nil(t, stored.DailyGoal, "nil goal should clear the column")

	err = db.UpdateBook(ctx, &models.Book{ID: 999, Title: "Ghost"})
	assert.ErrorIs(t, err, storage.ErrBookNotFound)
}

func TestDB_DeleteBook_Cascades(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	book := &models.Book{Title: "Dune", Author: "Frank Herbert", StartDate: day(2024, 1, 1)}
	other := &models.Book{Title: "Emma", Author: "Jane Austen", StartDate: day(2024, 1, 1)}
	require.NoError(t, db.CreateBook(ctx, book))
	require.NoError(t, db.CreateBook(ctx, other))

	for i := 1; i <= 4; i++ {
		require.NoError(t, db.CreateProgress(ctx, &models.ProgressEntry{BookID: book.ID, Date: day(2024, 1, i), PagesRead: 10 * i}))
	}
	require.NoError(t, db.CreateProgress(ctx, &models.ProgressEntry{BookID: other.ID, Date: day(2024, 1, 1), PagesRead: 7}))

	require.NoError(t, db.DeleteBook(ctx, book.ID))

	entries, err := db.ListProgress(ctx, book.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	var orphans int64
	require.NoError(t, db.db.Model(&models.ProgressEntry{}).Where(map[string]interface{}{"booksId": book.ID}).Count(&orphans).Error)
	assert.Zero(t, orphans)

	rows, err := db.ListProgressRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Emma", rows[0].Title)

	assert.ErrorIs(t, db.DeleteBook(ctx, book.ID), storage.ErrBookNotFound)
}

func TestDB_CreateProgress_ForeignKeyViolation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	err := db.CreateProgress(ctx, &models.ProgressEntry{BookID: 42, Date: day(2024, 1, 1), PagesRead: 5})
	assert.ErrorIs(t, err, storage.ErrUnknownBook)
}

func TestDB_CreateProgress_RejectsNegativePages(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	book := &models.Book{Title: "Dune", Author: "Frank Herbert", StartDate: day(2024, 1, 1)}
	require.NoError(t, db.CreateBook(ctx, book))

	err := db.CreateProgress(ctx, &models.ProgressEntry{BookID: book.ID, Date: day(2024, 1, 1), PagesRead: -1})
	assert.Error(t, err)
}

func TestDB_ListProgressRows(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	rows, err := db.ListProgressRows(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)

	a := &models.Book{Title: "A", Author: "X", StartDate: day(2024, 1, 1)}
	b := &models.Book{Title: "B", Author: "Y", StartDate: day(2024, 1, 1)}
	require.NoError(t, db.CreateBook(ctx, a))
	require.NoError(t, db.CreateBook(ctx, b))

	require.NoError(t, db.CreateProgress(ctx, &models.ProgressEntry{BookID: b.ID, Date: day(2024, 1, 2), PagesRead: 10}))
	require.NoError(t, db.CreateProgress(ctx, &models.ProgressEntry{BookID: a.ID, Date: day(2024, 1, 1), PagesRead: 5}))
	require.NoError(t, db.CreateProgress(ctx, &models.ProgressEntry{BookID: a.ID, Date: day(2024, 1, 1), PagesRead: 3}))

	rows, err = db.ListProgressRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "A", rows[0].Title)
	assert.Equal(t, 5, rows[0].PagesRead)
	assert.Equal(t, "2024-01-01", rows[0].Date.Format("2006-01-02"))
	assert.Equal(t, "A", rows[1].Title)
	assert.Equal(t, 3, rows[1].PagesRead)
	assert.Equal(t, "B", rows[2].Title)
	assert.Equal(t, "2024-01-02", rows[2].Date.Format("2006-01-02"))
}

func TestDB_Close(t *testing.T) {
	db, err := Open(DriverSQLite, ":memory:")
	require.NoError(t, err)

	assert.NoError(t, db.Close())
	assert.NoError(t, db.Close())
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("oracle", "whatever")
	assert.Error(t, err)
}

func TestWithForeignKeys(t *testing.T) {
	assert.Equal(t, ":memory:?_foreign_keys=on", withForeignKeys(":memory:"))
	assert.Equal(t, "data.db?cache=shared&_foreign_keys=on", withForeignKeys("data.db?cache=shared"))
	assert.Equal(t, "data.db?_fk=1", withForeignKeys("data.db?_fk=1"))
}
