package borrows

import (
	"database/sql"
	"time"
)

// BorrowRecord is one lending episode: one row of user_borrows.
// An open loan is a row whose returned_at is still NULL.
type BorrowRecord struct {
	BorrowID   int64
	BorrowULID string
	UserID     int64
	BookID     int64
	BorrowedAt time.Time
	ReturnedAt sql.NullTime
}

// HistoryFilter narrows the borrow-history listing.
type HistoryFilter struct {
	UserID   *int64
	BookID   *int64
	OpenOnly bool
}

type Page struct {
	Limit  int
	Offset int
	Order  string // "asc" or "desc" by borrowed_at, default desc
}
