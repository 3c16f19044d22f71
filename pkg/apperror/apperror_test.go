package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("load playlist: %w", NotFound("playlist not found"))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, Is(err, KindNotFound))
	assert.Equal(t, "playlist not found", Message(err))
}

func TestKindOf_Unclassified(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "internal server error", Message(err))
	assert.False(t, Is(nil, KindInternal))
}

func TestStatusMapping(t *testing.T) {
	cases := map[Kind]int{
		KindValidation: http.StatusBadRequest,
		KindConflict:   http.StatusConflict,
		KindNotFound:   http.StatusNotFound,
		KindForbidden:  http.StatusForbidden,
		KindAuth:       http.StatusUnauthorized,
		KindDependency: http.StatusInternalServerError,
		KindInternal:   http.StatusInternalServerError,
	}
	for k, want := range cases {
		assert.Equal(t, want, k.Status(), k.String())
	}
}

func TestDependency_Unwrap(t *testing.T) {
	cause := errors.New("smtp down")
	err := Dependency(cause, "failed to send mail")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "smtp down")
}
