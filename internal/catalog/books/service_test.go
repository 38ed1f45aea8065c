package books

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LIBRA-backend/internal/platform/apierr"
)

func TestNextStatus(t *testing.T) {
	cases := []struct {
		current string
		want    string
	}{
		{StatusAvailable, StatusBorrowed},
		{"available", StatusBorrowed}, // legacy rows are lowercased
		{"AVAILABLE", StatusBorrowed},
		{StatusBorrowed, StatusAvailable},
		{"borrowed", StatusAvailable},
		{"", StatusAvailable},        // unknown values flip to Available
		{"Damaged", StatusAvailable}, // same fallback for garbage
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NextStatus(tc.current), "NextStatus(%q)", tc.current)
	}
}

func TestCreateBook(t *testing.T) {
	conn := newTestDB(t)
	svc := NewService(conn, "en")
	ctx := context.Background()

	author := "Ana Huang"
	created, err := svc.Create(ctx, CreateBookRequest{Title: "King of Envy", Author: &author})
	require.NoError(t, err)
	assert.Equal(t, StatusAvailable, created.Status, "new books default to Available")
	assert.Greater(t, created.ID, int64(0))

	_, err = svc.Create(ctx, CreateBookRequest{Title: "King of Envy"})
	require.Error(t, err)
	assert.True(t, apierr.HasCode(err, apierr.CodeConflict))

	_, err = svc.Create(ctx, CreateBookRequest{Title: "   "})
	require.Error(t, err)
	assert.True(t, apierr.HasCode(err, apierr.CodeInvalidArgument))
}

func TestUpdateBook(t *testing.T) {
	conn := newTestDB(t)
	svc := NewService(conn, "")
	ctx := context.Background()

	id := mustInsertBook(t, conn, "Alpha", "Alice", "Romance", StatusAvailable)
	mustInsertBook(t, conn, "Beta", "Bob", "Romance", StatusAvailable)

	newTitle := "Alpha II"
	newGenre := "Fantasy"
	updated, err := svc.Update(ctx, id, UpdateBookRequest{Title: &newTitle, Genre: &newGenre})
	require.NoError(t, err)
	assert.Equal(t, "Alpha II", updated.Title)
	require.NotNil(t, updated.Genre)
	assert.Equal(t, "Fantasy", *updated.Genre)

	taken := "Beta"
	_, err = svc.Update(ctx, id, UpdateBookRequest{Title: &taken})
	require.Error(t, err)
	assert.True(t, apierr.HasCode(err, apierr.CodeConflict))

	_, err = svc.Update(ctx, 999, UpdateBookRequest{Genre: &newGenre})
	require.Error(t, err)
	assert.True(t, apierr.HasCode(err, apierr.CodeNotFound))
}

func TestListCollation(t *testing.T) {
	conn := newTestDB(t)
	svc := NewService(conn, "en")
	ctx := context.Background()

	// binary ORDER BY would put "Zebra" before "apple"
	mustInsertBook(t, conn, "apple", "A", "", StatusAvailable)
	mustInsertBook(t, conn, "Zebra", "Z", "", StatusAvailable)
	mustInsertBook(t, conn, "Mango", "M", "", StatusAvailable)

	out, err := svc.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "apple", out[0].Title)
	assert.Equal(t, "Mango", out[1].Title)
	assert.Equal(t, "Zebra", out[2].Title)
}
