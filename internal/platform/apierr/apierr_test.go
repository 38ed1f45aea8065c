package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrInvalid("bad"), http.StatusBadRequest},
		{ErrUnauthorized("nope"), http.StatusUnauthorized},
		{ErrNotFound("missing"), http.StatusNotFound},
		{ErrConflict("raced"), http.StatusConflict},
		{ErrInternal("boom"), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", ErrNotFound("missing")), http.StatusNotFound},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ToHTTPStatus(tc.err), "%v", tc.err)
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("toggle: %w", ErrConflict("raced"))
	assert.True(t, HasCode(err, CodeConflict))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(errors.New("plain"), CodeConflict))
}

func TestFromErr(t *testing.T) {
	dto := FromErr(ErrNotFound("book not found"))
	assert.Equal(t, CodeNotFound, dto.Error.Code)
	assert.Equal(t, "book not found", dto.Error.Message)

	dto = FromErr(errors.New("disk on fire"))
	assert.Equal(t, CodeInternal, dto.Error.Code)
}
