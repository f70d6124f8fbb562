package app

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tracker/internal/config"
	"tracker/internal/storage/gormdb"
	"tracker/internal/storage/stubs"
)

func TestOpenStorage(t *testing.T) {
	db, err := openStorage(&config.Config{StorageDriver: config.DriverMemory}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &stubs.MockDB{}, db)

	path := filepath.Join(t.TempDir(), "tracker.db")
	db, err = openStorage(&config.Config{StorageDriver: config.DriverSQLite, DatabaseURL: path}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &gormdb.DB{}, db)
	require.NoError(t, db.Close())

	_, err = openStorage(&config.Config{StorageDriver: "mongo"}, zap.NewNop())
	assert.Error(t, err)
}

func TestNewApp_APIOnly(t *testing.T) {
	cfg := &config.Config{Env: "test", Port: "0", StorageDriver: config.DriverMemory}

	a, err := newApp(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, a.bot)

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	body := `{"title":"Dune","author":"Frank Herbert","start_date":"2024-01-01"}`
	req := httptest.NewRequest(http.MethodPost, "/api/books", strings.NewReader(body))
	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)

	// The webhook route only exists when the bot runs in webhook mode
	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/telegram-webhook", strings.NewReader("{}")))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, a.Shutdown())
}

func TestNewApp_SQLite(t *testing.T) {
	cfg := &config.Config{
		Env:           "test",
		Port:          "0",
		StorageDriver: config.DriverSQLite,
		DatabaseURL:   filepath.Join(t.TempDir(), "nested", "tracker.db"),
	}

	a, err := newApp(cfg, zap.NewNop())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/books", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	require.NoError(t, a.Shutdown())
}
