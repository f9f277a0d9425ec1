package errors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
)

func TestWrap_KeepsCodeAndMeta(t *testing.T) {
	base := dherr.Authoringf("formula %q does not parse", "1d").WithMeta("item", "blade")
	wrapped := dherr.Wrapf(base, "damage part %d", 0)

	assert.True(t, dherr.IsAuthoring(wrapped))
	assert.Equal(t, "blade", dherr.GetMeta(wrapped)["item"])
	assert.Equal(t, `damage part 0: formula "1d" does not parse`, wrapped.Error())
	assert.True(t, errors.Is(wrapped, base))

	// the copy is independent of the cause
	wrapped.WithMeta("stage", "damage")
	assert.NotContains(t, base.Meta, "stage")
}

func TestWrap_ForeignErrorIsUnknown(t *testing.T) {
	wrapped := dherr.Wrap(fmt.Errorf("boom"), "lookup failed")
	assert.Equal(t, dherr.CodeUnknown, dherr.GetCode(wrapped))
	assert.Nil(t, dherr.GetMeta(wrapped))
}

func TestWrap_NilStaysNil(t *testing.T) {
	assert.Nil(t, dherr.Wrap(nil, "x"))
	assert.Nil(t, dherr.Wrapf(nil, "x %d", 1))
	assert.Nil(t, dherr.WrapWithCode(nil, dherr.CodeInternal, "x"))
}

func TestWrapWithCode_Overrides(t *testing.T) {
	err := dherr.WrapWithCode(dherr.NotFoundf("actor %s", "a1"), dherr.CodeUnavailable, "gm offline")
	assert.True(t, dherr.IsUnavailable(err))
	assert.False(t, dherr.IsNotFound(err))
}

func TestIsHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"not found", dherr.NotFoundf("x"), dherr.IsNotFound},
		{"authoring", dherr.Authoringf("x"), dherr.IsAuthoring},
		{"unavailable", dherr.Unavailable("x"), dherr.IsUnavailable},
		{"canceled", dherr.Canceled("x"), dherr.IsCanceled},
		{"depth", dherr.DepthExceededf("x"), dherr.IsDepthExceeded},
		{"insufficient", dherr.InsufficientResources("x"), dherr.IsInsufficientResources},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.True(t, tt.check(fmt.Errorf("outer: %w", tt.err)))
			assert.False(t, tt.check(errors.New("plain")))
		})
	}
}
