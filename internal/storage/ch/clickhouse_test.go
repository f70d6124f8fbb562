package ch

import (
	"context"
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clickhouseTC "github.com/testcontainers/testcontainers-go/modules/clickhouse"

	"tracker/internal/models"
	"tracker/internal/storage"
)

// setupTestDB creates a test ClickHouse instance using testcontainers
func setupTestDB(t *testing.T) (*ClickHouseDB, func()) {
	if testing.Short() {
		t.Skip("skipping ClickHouse container test in short mode")
	}
	ctx := context.Background()

	// Start ClickHouse container
	clickhouseContainer, err := clickhouseTC.Run(ctx,
		"clickhouse/clickhouse-server:24.3.3.102-alpine",
		clickhouseTC.WithUsername("default"),
		clickhouseTC.WithPassword(""),
		clickhouseTC.WithDatabase("default"),
	)
	require.NoError(t, err, "Failed to start ClickHouse container")

	// Get connection details
	host, err := clickhouseContainer.Host(ctx)
	require.NoError(t, err)

	port, err := clickhouseContainer.MappedPort(ctx, "9000/tcp")
	require.NoError(t, err)

	// Create database connection
	db, err := NewClickHouseDB(host, port.Int(), "default", "default", "", false)
	require.NoError(t, err, "Failed to connect to ClickHouse")

	require.NoError(t, db.Initialize(ctx), "Failed to initialize schema")

	cleanup := func() {
		db.Close()
		clickhouseContainer.Terminate(ctx)
	}

	return db, cleanup
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestEmbeddedMigrations(t *testing.T) {
	// OpenDB does not dial until the first query
	sqlDB := clickhouse.OpenDB(Options("localhost", 9000, "default", "default", "", false))
	defer sqlDB.Close()

	migrator, err := NewMigrator(sqlDB)
	require.NoError(t, err)

	sources := migrator.ListSources()
	require.Len(t, sources, 1)
	assert.Equal(t, int64(1), sources[0].Version)
	assert.Equal(t, goose.TypeSQL, sources[0].Type)
	assert.Contains(t, sources[0].Path, "00001_create_tables.sql")
}

func TestOptions(t *testing.T) {
	opts := Options("db.example.com", 9440, "reading", "reader", "secret", true)
	assert.Equal(t, []string{"db.example.com:9440"}, opts.Addr)
	assert.Equal(t, "reading", opts.Auth.Database)
	assert.Equal(t, "reader", opts.Auth.Username)
	assert.NotNil(t, opts.TLS)

	assert.Nil(t, Options("localhost", 9000, "default", "default", "", false).TLS)
}

func TestClickHouseDB_Initialize_Idempotent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	assert.NoError(t, db.Initialize(ctx))

	sqlDB := clickhouse.OpenDB(db.options)
	defer sqlDB.Close()
	migrator, err := NewMigrator(sqlDB)
	require.NoError(t, err)

	version, err := migrator.GetDBVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version, "Initialize records the applied migration")

	pending, err := migrator.HasPending(ctx)
	require.NoError(t, err)
	assert.False(t, pending)
}

func TestClickHouseDB_Books(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	goal := "25 pages"
	first := &models.Book{Title: "Dune", Author: "Frank Herbert", StartDate: day(2024, 1, 1), DailyGoal: &goal}
	second := &models.Book{Title: "Dune", Author: "Frank Herbert", StartDate: day(2024, 6, 1)}
	require.NoError(t, db.CreateBook(ctx, first))
	require.NoError(t, db.CreateBook(ctx, second))
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)

	stored, err := db.GetBook(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", stored.Title)
	require.NotNil(t, stored.DailyGoal)
	assert.Equal(t, "25 pages", *stored.DailyGoal)
	assert.Nil(t, stored.EndDate)

	found, err := db.FindBook(ctx, "Dune", "Frank Herbert")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID, "first match should win")

	_, err = db.FindBook(ctx, "Emma", "Jane Austen")
	assert.ErrorIs(t, err, storage.ErrBookNotFound)

	end := day(2024, 2, 1)
	first.Title = "Dune Messiah"
	first.EndDate = &end
	first.DailyGoal = nil
	require.NoError(t, db.UpdateBook(ctx, first))

	stored, err = db.GetBook(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", stored.Title)
	require.NotNil(t, stored.EndDate)
	assert.Equal(t, "2024-02-01", stored.EndDate.Format("2006-01-02"))
	assert.Nil(t, stored.DailyGoal)

	books, err := db.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, first.ID, books[0].ID)
}

func TestClickHouseDB_Progress(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	err := db.CreateProgress(ctx, &models.ProgressEntry{BookID: 7, Date: day(2024, 1, 1), PagesRead: 3})
	assert.ErrorIs(t, err, storage.ErrUnknownBook)

	a := &models.Book{Title: "A", Author: "X", StartDate: day(2024, 1, 1)}
	b := &models.Book{Title: "B", Author: "Y", StartDate: day(2024, 1, 1)}
	require.NoError(t, db.CreateBook(ctx, a))
	require.NoError(t, db.CreateBook(ctx, b))

	require.NoError(t, db.CreateProgress(ctx, &models.ProgressEntry{BookID: b.ID, Date: day(2024, 1, 2), PagesRead: 10}))
	require.NoError(t, db.CreateProgress(ctx, &models.ProgressEntry{BookID: a.ID, Date: day(2024, 1, 1), PagesRead: 5}))
	require.NoError(t, db.CreateProgress(ctx, &models.ProgressEntry{BookID: a.ID, Date: day(2024, 1, 1), PagesRead: 3}))

	entries, err := db.ListProgress(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 5, entries[0].PagesRead)

	rows, err := db.ListProgressRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "A", rows[0].Title)
	assert.Equal(t, "A", rows[1].Title)
	assert.Equal(t, "B", rows[2].Title)

	require.NoError(t, db.DeleteBook(ctx, a.ID))

	rows, err = db.ListProgressRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "B", rows[0].Title)

	entries, err = db.ListProgress(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.ErrorIs(t, db.DeleteBook(ctx, a.ID), storage.ErrBookNotFound)
}
