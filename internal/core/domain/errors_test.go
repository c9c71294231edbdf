package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrSourceUnavailable", ErrSourceUnavailable},
		{"ErrOffline", ErrOffline},
		{"ErrFetchFailed", ErrFetchFailed},
		{"ErrStaleResponse", ErrStaleResponse},
		{"ErrLauncherUnavailable", ErrLauncherUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrors_AreDistinct(t *testing.T) {
	all := []error{
		ErrNotFound, ErrInvalidInput, ErrSourceUnavailable, ErrOffline,
		ErrFetchFailed, ErrStaleResponse, ErrLauncherUnavailable,
	}
	for i, a := range all {
		for j, b := range all {
			if i != j {
				assert.False(t, errors.Is(a, b), "%v matches %v", a, b)
			}
		}
	}
}

func TestErrFetchFailed_Wrapping(t *testing.T) {
	wrapped := fmt.Errorf("list forms: %w", ErrFetchFailed)

	assert.ErrorIs(t, wrapped, ErrFetchFailed)
	assert.Equal(t, "list forms: fetching forms failed", wrapped.Error())
}
