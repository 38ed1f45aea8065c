package books

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/db"
)

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

const bookColumns = `book_id, title, author, genre, image, status`

func scanBook(row *sql.Row) (*Book, error) {
	var b Book
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.Genre, &b.Image, &b.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apierr.ErrNotFound("book not found")
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// List returns books matching the filter, ordered by title. Callers that
// need a configured collation re-sort the slice (see Service.List).
func (s *Store) List(ctx context.Context, f ListFilter) ([]Book, error) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT ` + bookColumns + ` FROM books WHERE 1=1`)

	args := []any{}
	if f.Query != "" {
		sb.WriteString(` AND (LOWER(title) LIKE ? OR LOWER(author) LIKE ?)`)
		needle := "%" + strings.ToLower(f.Query) + "%"
		args = append(args, needle, needle)
	}
	if f.Genre != "" {
		sb.WriteString(` AND genre = ?`)
		args = append(args, f.Genre)
	}
	if f.Status != "" {
		sb.WriteString(` AND status = ?`)
		args = append(args, f.Status)
	}
	sb.WriteString(` ORDER BY title ASC`)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Book, 0, 32)
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Genre, &b.Image, &b.Status); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*Book, error) {
	return s.GetByIDTx(ctx, s.db, id)
}

// GetByIDTx reads a book through ex so the toggle can read inside its own
// transaction.
func (s *Store) GetByIDTx(ctx context.Context, ex db.DBTX, id int64) (*Book, error) {
	const q = `SELECT ` + bookColumns + ` FROM books WHERE book_id = ?`
	return scanBook(ex.QueryRowContext(ctx, q, id))
}

func (s *Store) GetStatus(ctx context.Context, id int64) (string, error) {
	const q = `SELECT status FROM books WHERE book_id = ?`
	var status string
	if err := s.db.QueryRowContext(ctx, q, id).Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apierr.ErrNotFound("book not found")
		}
		return "", err
	}
	return status, nil
}

func (s *Store) TitleExists(ctx context.Context, title string) (bool, error) {
	const q = `SELECT COUNT(*) FROM books WHERE title = ?`
	var n int
	if err := s.db.QueryRowContext(ctx, q, title).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) Insert(ctx context.Context, b *Book) error {
	const q = `
	INSERT INTO books (title, author, genre, image, status)
	VALUES (?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, q, b.Title, b.Author, b.Genre, b.Image, b.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = id
	return nil
}

func (s *Store) Update(ctx context.Context, b *Book) error {
	const q = `
	UPDATE books
	SET title = ?, author = ?, genre = ?, image = ?
	WHERE book_id = ?`
	_, err := s.db.ExecContext(ctx, q, b.Title, b.Author, b.Genre, b.Image, b.ID)
	return err
}

// SetStatus overwrites the status unconditionally and returns the updated
// row. The toggle path never uses this; it goes through the CAS in the
// borrows store.
func (s *Store) SetStatus(ctx context.Context, id int64, status string) (*Book, error) {
	const q = `UPDATE books SET status = ? WHERE book_id = ?`
	res, err := s.db.ExecContext(ctx, q, status, id)
	if err != nil {
		return nil, err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		// could also be a no-change update, so confirm existence
		if _, err := s.GetByID(ctx, id); err != nil {
			return nil, err
		}
	}
	return s.GetByID(ctx, id)
}

// SetStatusIf is the compare-and-swap used by concurrent status writers.
// Zero rows affected means the expected status no longer holds.
func (s *Store) SetStatusIf(ctx context.Context, ex db.DBTX, id int64, expected, next string) error {
	const q = `UPDATE books SET status = ? WHERE book_id = ? AND status = ?`
	res, err := ex.ExecContext(ctx, q, next, id, expected)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return apierr.ErrConflict("book was modified concurrently")
	}
	return nil
}
