package borrows

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"LIBRA-backend/internal/catalog/books"
	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/db"
)

type Store struct {
	db    *sql.DB
	books *books.Store
}

func NewStore(conn *sql.DB) *Store {
	return &Store{db: conn, books: books.NewStore(conn)}
}

// OpenLoan is one open borrow row joined with its book.
type OpenLoan struct {
	Book       books.Book
	BorrowID   int64
	BorrowULID string
	BorrowedAt time.Time
}

// ---- Transactional methods ----

// ExecToggle runs the whole toggle as one transaction:
//
//  1. read the book's current status
//  2. compute the next status (books.NextStatus)
//  3. CAS-write it; zero rows affected means a concurrent toggle won and
//     the caller gets CONFLICT
//  4. userID == nil: skip the ledger entirely
//  5. otherwise open or close the loan to match the transition
//
// Status write and ledger write commit or roll back together, so the book
// can never end up Borrowed without its loan row (or vice versa).
func (s *Store) ExecToggle(ctx context.Context, bookID int64, userID *int64, now time.Time, borrowULID string) (*books.Book, error) {
	var updated *books.Book

	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		b, err := s.books.GetByIDTx(ctx, tx, bookID)
		if err != nil {
			return err
		}

		next := books.NextStatus(b.Status)
		if err := s.books.SetStatusIf(ctx, tx, bookID, b.Status, next); err != nil {
			return err
		}

		if userID != nil {
			if next == books.StatusBorrowed {
				if _, err := s.OpenLoan(ctx, tx, *userID, bookID, now, borrowULID); err != nil {
					return err
				}
			} else {
				// Pair-scoped close first; if the holder on record is
				// someone else (or nobody), close whatever is open for the
				// book so the ledger tracks the status. Nothing open is a
				// no-op, not an error.
				aff, err := s.closeOpenLoanForPair(ctx, tx, *userID, bookID, now)
				if err != nil {
					return err
				}
				if aff == 0 {
					if _, err := s.closeOpenLoansForBook(ctx, tx, bookID, now); err != nil {
						return err
					}
				}
			}
		}

		b.Status = next
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// OpenLoan inserts a fresh borrow row for (user, book). Leftover open rows
// for the book (anonymous toggles can strand them) are closed first, so at
// most one open row per book ever exists.
func (s *Store) OpenLoan(ctx context.Context, ex db.DBTX, userID, bookID int64, now time.Time, borrowULID string) (*BorrowRecord, error) {
	ok, err := s.userExists(ctx, ex, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apierr.ErrNotFound("user not found")
	}

	if _, err := s.closeOpenLoansForBook(ctx, ex, bookID, now); err != nil {
		return nil, err
	}

	rec := &BorrowRecord{
		BorrowULID: borrowULID,
		UserID:     userID,
		BookID:     bookID,
		BorrowedAt: now,
	}
	const q = `
	INSERT INTO user_borrows (borrow_ulid, user_id, book_id, borrowed_at, returned_at)
	VALUES (?, ?, ?, ?, NULL)`
	res, err := ex.ExecContext(ctx, q, rec.BorrowULID, rec.UserID, rec.BookID, rec.BorrowedAt)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	rec.BorrowID = id
	return rec, nil
}

// CloseLoan sets returned_at on the open row for (user, book). NOT_FOUND
// when the pair has no open loan.
func (s *Store) CloseLoan(ctx context.Context, userID, bookID int64, now time.Time) (*BorrowRecord, error) {
	var closed *BorrowRecord

	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		rec, err := s.getOpenLoanForPair(ctx, tx, userID, bookID)
		if err != nil {
			return err
		}
		if rec == nil {
			return apierr.ErrNotFound("no open loan for this user and book")
		}

		aff, err := s.closeOpenLoanForPair(ctx, tx, userID, bookID, now)
		if err != nil {
			return err
		}
		if aff == 0 {
			return apierr.ErrConflict("loan was closed concurrently")
		}

		rec.ReturnedAt = sql.NullTime{Time: now, Valid: true}
		closed = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return closed, nil
}

func (s *Store) userExists(ctx context.Context, ex db.DBTX, userID int64) (bool, error) {
	var n int
	if err := ex.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE user_id = ?`, userID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) getOpenLoanForPair(ctx context.Context, ex db.DBTX, userID, bookID int64) (*BorrowRecord, error) {
	const q = `
	SELECT borrow_id, borrow_ulid, user_id, book_id, borrowed_at, returned_at
	FROM user_borrows
	WHERE user_id = ? AND book_id = ? AND returned_at IS NULL
	LIMIT 1`
	var rec BorrowRecord
	err := ex.QueryRowContext(ctx, q, userID, bookID).Scan(
		&rec.BorrowID, &rec.BorrowULID, &rec.UserID, &rec.BookID, &rec.BorrowedAt, &rec.ReturnedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) closeOpenLoanForPair(ctx context.Context, ex db.DBTX, userID, bookID int64, now time.Time) (int64, error) {
	const q = `
	UPDATE user_borrows
	SET returned_at = ?
	WHERE user_id = ? AND book_id = ? AND returned_at IS NULL`
	res, err := ex.ExecContext(ctx, q, now, userID, bookID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) closeOpenLoansForBook(ctx context.Context, ex db.DBTX, bookID int64, now time.Time) (int64, error) {
	const q = `
	UPDATE user_borrows
	SET returned_at = ?
	WHERE book_id = ? AND returned_at IS NULL`
	res, err := ex.ExecContext(ctx, q, now, bookID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ---- Queries ----

func (s *Store) ListOpenLoansForUser(ctx context.Context, userID int64) ([]OpenLoan, error) {
	const q = `
	SELECT
		b.book_id, b.title, b.author, b.genre, b.image, b.status,
		ub.borrow_id, ub.borrow_ulid, ub.borrowed_at
	FROM user_borrows ub
	JOIN books b ON b.book_id = ub.book_id
	WHERE ub.user_id = ? AND ub.returned_at IS NULL
	ORDER BY ub.borrowed_at DESC`

	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OpenLoan
	for rows.Next() {
		var l OpenLoan
		if err := rows.Scan(
			&l.Book.ID, &l.Book.Title, &l.Book.Author, &l.Book.Genre, &l.Book.Image, &l.Book.Status,
			&l.BorrowID, &l.BorrowULID, &l.BorrowedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func buildHistoryWhere(f HistoryFilter) (string, []any) {
	sb := strings.Builder{}
	args := []any{}
	if f.UserID != nil {
		sb.WriteString(` AND user_id = ?`)
		args = append(args, *f.UserID)
	}
	if f.BookID != nil {
		sb.WriteString(` AND book_id = ?`)
		args = append(args, *f.BookID)
	}
	if f.OpenOnly {
		sb.WriteString(` AND returned_at IS NULL`)
	}
	return sb.String(), args
}

func (s *Store) ListBorrows(ctx context.Context, f HistoryFilter, p Page) ([]BorrowRecord, int64, error) {
	where, args := buildHistoryWhere(f)

	order := "DESC"
	if strings.ToLower(p.Order) == "asc" {
		order = "ASC"
	}
	if p.Limit <= 0 {
		p.Limit = 50
	}
	if p.Offset < 0 {
		p.Offset = 0
	}

	q := fmt.Sprintf(`
	SELECT borrow_id, borrow_ulid, user_id, book_id, borrowed_at, returned_at
	FROM user_borrows
	WHERE 1=1%s
	ORDER BY borrowed_at %s
	LIMIT ? OFFSET ?`, where, order)

	rows, err := s.db.QueryContext(ctx, q, append(args, p.Limit, p.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []BorrowRecord
	for rows.Next() {
		var r BorrowRecord
		if err := rows.Scan(&r.BorrowID, &r.BorrowULID, &r.UserID, &r.BookID, &r.BorrowedAt, &r.ReturnedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	countQ := `SELECT COUNT(*) FROM user_borrows WHERE 1=1` + where
	if err := s.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// CountOpenLoansForBook exists for the invariant checks in tests and the
// odd support query; the toggle itself never needs it.
func (s *Store) CountOpenLoansForBook(ctx context.Context, bookID int64) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_borrows WHERE book_id = ? AND returned_at IS NULL`, bookID,
	).Scan(&n)
	return n, err
}
