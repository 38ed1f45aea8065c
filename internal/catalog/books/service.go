package books

import (
	"context"
	"database/sql"
	"log"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"LIBRA-backend/internal/platform/apierr"
)

type Service struct {
	store    *Store
	collator *collate.Collator
}

// NewService builds the catalog service. collation is a BCP 47 tag from
// config; an empty or unparseable tag falls back to Und.
func NewService(db *sql.DB, collation string) *Service {
	tag := language.Und
	if collation != "" {
		parsed, err := language.Parse(collation)
		if err != nil {
			log.Printf("[WARN] invalid collation %q, falling back to Und", collation)
		} else {
			tag = parsed
		}
	}
	return &Service{
		store:    NewStore(db),
		collator: collate.New(tag),
	}
}

// List returns the catalog ordered by title under the configured collation.
func (s *Service) List(ctx context.Context, f ListFilter) ([]BookResponse, error) {
	items, err := s.store.List(ctx, f)
	if err != nil {
		return nil, err
	}

	// the store pre-orders with the database's binary collation; re-sort
	// with the configured locale so e.g. accented titles land correctly
	sort.SliceStable(items, func(i, j int) bool {
		return s.collator.CompareString(items[i].Title, items[j].Title) < 0
	})

	out := make([]BookResponse, 0, len(items))
	for i := range items {
		out = append(out, ToResponse(&items[i]))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*BookResponse, error) {
	if id <= 0 {
		return nil, apierr.ErrInvalid("invalid book id")
	}
	b, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToResponse(b)
	return &resp, nil
}

// Create adds a catalog entry. New books always start Available.
func (s *Service) Create(ctx context.Context, req CreateBookRequest) (*BookResponse, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apierr.ErrInvalid("title is required")
	}

	exists, err := s.store.TitleExists(ctx, title)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apierr.ErrConflict("title already exists")
	}

	b := &Book{
		Title:  title,
		Author: toNullString(req.Author),
		Genre:  toNullString(req.Genre),
		Image:  toNullString(req.Image),
		Status: StatusAvailable,
	}
	if err := s.store.Insert(ctx, b); err != nil {
		return nil, err
	}
	resp := ToResponse(b)
	return &resp, nil
}

// Update edits catalog fields. Status is not editable here; availability
// only changes through the toggle.
func (s *Service) Update(ctx context.Context, id int64, req UpdateBookRequest) (*BookResponse, error) {
	if id <= 0 {
		return nil, apierr.ErrInvalid("invalid book id")
	}

	b, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, apierr.ErrInvalid("title must not be empty")
		}
		if title != b.Title {
			exists, err := s.store.TitleExists(ctx, title)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, apierr.ErrConflict("title already exists")
			}
			b.Title = title
		}
	}
	if req.Author != nil {
		b.Author = toNullString(req.Author)
	}
	if req.Genre != nil {
		b.Genre = toNullString(req.Genre)
	}
	if req.Image != nil {
		b.Image = toNullString(req.Image)
	}

	if err := s.store.Update(ctx, b); err != nil {
		return nil, err
	}
	resp := ToResponse(b)
	return &resp, nil
}

func toNullString(p *string) sql.NullString {
	if p == nil || *p == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}
