package borrows

import (
	"time"

	"LIBRA-backend/internal/catalog/books"
)

// ToggleRequest is the POST /borrow/:book_id body. A missing or null
// userId means an anonymous toggle: the status flips, the ledger is left
// alone.
type ToggleRequest struct {
	UserID *int64 `json:"userId"`
}

// BorrowedBookResponse is one entry of GET /user/:user_id/borrowed —
// book fields flattened next to the loan fields, as the front end expects.
type BorrowedBookResponse struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Author     *string   `json:"author"`
	Genre      *string   `json:"genre"`
	Image      *string   `json:"image"`
	Status     string    `json:"status"`
	BorrowID   int64     `json:"borrow_id"`
	BorrowULID string    `json:"borrow_ulid"`
	BorrowedAt time.Time `json:"borrowed_at"`
}

// BorrowResponse is one history row of GET /borrows.
type BorrowResponse struct {
	BorrowID   int64      `json:"borrow_id"`
	BorrowULID string     `json:"borrow_ulid"`
	UserID     int64      `json:"user_id"`
	BookID     int64      `json:"book_id"`
	BorrowedAt time.Time  `json:"borrowed_at"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
}

type BorrowListResponse struct {
	Items []BorrowResponse `json:"items"`
	Total int64            `json:"total"`
}

func toBorrowResponse(r *BorrowRecord) BorrowResponse {
	resp := BorrowResponse{
		BorrowID:   r.BorrowID,
		BorrowULID: r.BorrowULID,
		UserID:     r.UserID,
		BookID:     r.BookID,
		BorrowedAt: r.BorrowedAt,
	}
	if r.ReturnedAt.Valid {
		val := r.ReturnedAt.Time
		resp.ReturnedAt = &val
	}
	return resp
}

func toBorrowedBookResponse(l *OpenLoan) BorrowedBookResponse {
	book := books.ToResponse(&l.Book)
	return BorrowedBookResponse{
		ID:         book.ID,
		Title:      book.Title,
		Author:     book.Author,
		Genre:      book.Genre,
		Image:      book.Image,
		Status:     book.Status,
		BorrowID:   l.BorrowID,
		BorrowULID: l.BorrowULID,
		BorrowedAt: l.BorrowedAt,
	}
}
