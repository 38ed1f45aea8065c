package borrows

import (
	"context"
	"crypto/rand"
	"database/sql"
	"time"

	"github.com/oklog/ulid/v2"

	"LIBRA-backend/internal/catalog/books"
	"LIBRA-backend/internal/platform/apierr"
)

type Clock interface{ Now() time.Time }
type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type IDGen interface{ NewULID(t time.Time) string }
type ulidGen struct{}

func (ulidGen) NewULID(t time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

type Service struct {
	store *Store
	clock Clock
	id    IDGen
}

func NewService(conn *sql.DB) *Service {
	return &Service{
		store: NewStore(conn),
		clock: realClock{},
		id:    ulidGen{},
	}
}

// Toggle flips the book between Available and Borrowed and keeps the
// ledger in step. userID nil (or non-positive, which the old front end
// sent for "not logged in") flips the status only.
func (s *Service) Toggle(ctx context.Context, bookID int64, userID *int64) (*books.BookResponse, error) {
	if bookID <= 0 {
		return nil, apierr.ErrInvalid("invalid book id")
	}
	if userID != nil && *userID <= 0 {
		userID = nil
	}

	now := s.clock.Now()
	b, err := s.store.ExecToggle(ctx, bookID, userID, now, s.id.NewULID(now))
	if err != nil {
		return nil, err
	}

	resp := books.ToResponse(b)
	return &resp, nil
}

// CloseLoan is the standalone ledger contract: close the open loan for
// (user, book), NOT_FOUND when there is none. It does not touch the book
// status; the toggle owns that.
func (s *Service) CloseLoan(ctx context.Context, userID, bookID int64) (*BorrowResponse, error) {
	if userID <= 0 || bookID <= 0 {
		return nil, apierr.ErrInvalid("invalid user or book id")
	}

	rec, err := s.store.CloseLoan(ctx, userID, bookID, s.clock.Now())
	if err != nil {
		return nil, err
	}
	resp := toBorrowResponse(rec)
	return &resp, nil
}

// ListUserBorrowed returns the user's currently open loans joined with
// book data, newest first.
func (s *Service) ListUserBorrowed(ctx context.Context, userID int64) ([]BorrowedBookResponse, error) {
	if userID <= 0 {
		return nil, apierr.ErrInvalid("invalid user id")
	}

	loans, err := s.store.ListOpenLoansForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]BorrowedBookResponse, 0, len(loans))
	for i := range loans {
		out = append(out, toBorrowedBookResponse(&loans[i]))
	}
	return out, nil
}

// ListBorrows returns the borrow history with filters and pagination.
func (s *Service) ListBorrows(ctx context.Context, f HistoryFilter, p Page) (*BorrowListResponse, error) {
	items, total, err := s.store.ListBorrows(ctx, f, p)
	if err != nil {
		return nil, err
	}

	resp := &BorrowListResponse{
		Items: make([]BorrowResponse, 0, len(items)),
		Total: total,
	}
	for i := range items {
		resp.Items = append(resp.Items, toBorrowResponse(&items[i]))
	}
	return resp, nil
}
