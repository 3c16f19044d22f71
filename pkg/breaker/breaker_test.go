package breaker

import (
	"errors"
	"fmt"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
)

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := New("test", 2, time.Hour)
	boom := errors.New("boom")

	assert.ErrorIs(t, b.Do(func() error { return boom }), boom)
	assert.ErrorIs(t, b.Do(func() error { return boom }), boom)
	assert.Equal(t, gobreaker.StateOpen, b.State())

	calls := 0
	err := b.Do(func() error { calls++; return nil })
	assert.True(t, Rejected(err))
	assert.Equal(t, 0, calls)
}

func TestBreaker_SuccessResetsStreak(t *testing.T) {
	b := New("test", 2, time.Hour)
	boom := errors.New("boom")

	_ = b.Do(func() error { return boom })
	assert.NoError(t, b.Do(func() error { return nil }))
	_ = b.Do(func() error { return boom })
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_IgnoredErrorsDoNotCount(t *testing.T) {
	badInput := errors.New("bad input")
	b := New("test", 2, time.Hour, badInput)

	for i := 0; i < 5; i++ {
		err := b.Do(func() error { return fmt.Errorf("wrapped: %w", badInput) })
		assert.ErrorIs(t, err, badInput)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())

	boom := errors.New("boom")
	_ = b.Do(func() error { return boom })
	_ = b.Do(func() error { return boom })
	assert.Equal(t, gobreaker.StateOpen, b.State())
}
