package books

import (
	"database/sql"
	"strings"
)

const (
	StatusAvailable = "Available"
	StatusBorrowed  = "Borrowed"
)

// Book is one row of the books table.
type Book struct {
	ID     int64
	Title  string
	Author sql.NullString
	Genre  sql.NullString
	Image  sql.NullString
	Status string
}

// NextStatus is the toggle transition rule. "Available" (compared
// case-insensitively, as the legacy data demands) flips to Borrowed;
// every other value, known or not, flips to Available.
func NextStatus(current string) string {
	if strings.EqualFold(current, StatusAvailable) {
		return StatusBorrowed
	}
	return StatusAvailable
}

// ListFilter narrows the catalog listing.
type ListFilter struct {
	Query  string // matches title or author, case-insensitive
	Genre  string
	Status string
}
