package books

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LIBRA-backend/internal/platform/apierr"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "books.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	_, err = conn.Exec(`
		CREATE TABLE books (
			book_id INTEGER PRIMARY KEY AUTOINCREMENT,
			title   TEXT NOT NULL UNIQUE,
			author  TEXT,
			genre   TEXT,
			image   TEXT,
			status  TEXT NOT NULL DEFAULT 'Available'
		)`)
	require.NoError(t, err)
	return conn
}

func mustInsertBook(t *testing.T, conn *sql.DB, title, author, genre, status string) int64 {
	t.Helper()
	res, err := conn.Exec(
		`INSERT INTO books (title, author, genre, status) VALUES (?, ?, ?, ?)`,
		title, author, genre, status)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func TestListFiltersAndOrder(t *testing.T) {
	conn := newTestDB(t)
	store := NewStore(conn)
	ctx := context.Background()

	mustInsertBook(t, conn, "Gamma", "Carol", "Scifi", StatusAvailable)
	mustInsertBook(t, conn, "Alpha", "Alice", "Romance", StatusAvailable)
	mustInsertBook(t, conn, "Beta", "Bob", "Romance", StatusBorrowed)

	all, err := store.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Alpha", all[0].Title)
	assert.Equal(t, "Beta", all[1].Title)
	assert.Equal(t, "Gamma", all[2].Title)

	romance, err := store.List(ctx, ListFilter{Genre: "Romance"})
	require.NoError(t, err)
	require.Len(t, romance, 2)

	borrowed, err := store.List(ctx, ListFilter{Status: StatusBorrowed})
	require.NoError(t, err)
	require.Len(t, borrowed, 1)
	assert.Equal(t, "Beta", borrowed[0].Title)

	// q matches title or author, case-insensitive
	byAuthor, err := store.List(ctx, ListFilter{Query: "aliCE"})
	require.NoError(t, err)
	require.Len(t, byAuthor, 1)
	assert.Equal(t, "Alpha", byAuthor[0].Title)
}

func TestGetStatusNotFound(t *testing.T) {
	conn := newTestDB(t)
	store := NewStore(conn)

	_, err := store.GetStatus(context.Background(), 999)
	require.Error(t, err)
	assert.True(t, apierr.HasCode(err, apierr.CodeNotFound))
}

func TestSetStatus(t *testing.T) {
	conn := newTestDB(t)
	store := NewStore(conn)
	ctx := context.Background()

	id := mustInsertBook(t, conn, "Alpha", "Alice", "Romance", StatusAvailable)

	b, err := store.SetStatus(ctx, id, StatusBorrowed)
	require.NoError(t, err)
	assert.Equal(t, StatusBorrowed, b.Status)

	_, err = store.SetStatus(ctx, 999, StatusBorrowed)
	require.Error(t, err)
	assert.True(t, apierr.HasCode(err, apierr.CodeNotFound))
}

func TestSetStatusIf(t *testing.T) {
	conn := newTestDB(t)
	store := NewStore(conn)
	ctx := context.Background()

	id := mustInsertBook(t, conn, "Alpha", "Alice", "Romance", StatusAvailable)

	// winner: expected status still holds
	require.NoError(t, store.SetStatusIf(ctx, conn, id, StatusAvailable, StatusBorrowed))

	// loser: raced on a stale read of "Available"
	err := store.SetStatusIf(ctx, conn, id, StatusAvailable, StatusBorrowed)
	require.Error(t, err)
	assert.True(t, apierr.HasCode(err, apierr.CodeConflict))

	status, err := store.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusBorrowed, status)
}
