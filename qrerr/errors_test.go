package qrerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesByKindOnly(t *testing.T) {
	a := New(Correction, "block 2 exceeded capacity").WithVersion(5).WithBlock(2)
	assert.True(t, errors.Is(a, ErrCorrection))
	assert.False(t, errors.Is(a, ErrFormat))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("rs decode failed")
	wrapped := New(Correction, "").WithWrapped(cause)
	assert.Equal(t, cause, errors.Unwrap(wrapped))
	assert.True(t, errors.Is(wrapped, cause))
}

func TestErrorMessageIncludesContext(t *testing.T) {
	e := New(Format, "bch mismatch").WithVersion(7).WithBlock(1)
	msg := e.Error()
	assert.Contains(t, msg, "Format")
	assert.Contains(t, msg, "bch mismatch")
	assert.Contains(t, msg, "version 7")
	assert.Contains(t, msg, "block 1")
}

func TestErrorMessageOmitsUnsetContext(t *testing.T) {
	e := New(VersionEstimate, "estimate out of range")
	msg := e.Error()
	assert.NotContains(t, msg, "version")
	assert.NotContains(t, msg, "block")
}

func TestKindStringCoversAllKinds(t *testing.T) {
	kinds := []Kind{
		VersionEstimate, AlignmentNotFound, SamplingOutOfBounds, Format,
		Version, Correction, ParseMode, ParseLength, InvalidEncoding,
		UnsupportedMode,
	}
	for _, k := range kinds {
		assert.NotEqual(t, "Unknown", k.String())
	}
}
