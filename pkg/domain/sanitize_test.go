package domain_test

import (
	"strings"
	"testing"

	"github.com/aretw0/scout/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeRequest_SizeLimit(t *testing.T) {
	limit := domain.DefaultMaxRequestSize

	tests := []struct {
		name      string
		inputSize int
		wantErr   bool
	}{
		{"Under Limit", limit - 1, false},
		{"Exact Limit", limit, false},
		{"Over Limit", limit + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.SanitizeRequest(strings.Repeat("a", tt.inputSize))
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrRequestTooLarge)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizeRequest_EnvOverride(t *testing.T) {
	t.Setenv(domain.EnvMaxRequestSize, "8")
	assert.Equal(t, 8, domain.MaxRequestSize())
	_, err := domain.SanitizeRequest("123456789")
	assert.ErrorIs(t, err, domain.ErrRequestTooLarge)

	t.Setenv(domain.EnvMaxRequestSize, "nonsense")
	assert.Equal(t, domain.DefaultMaxRequestSize, domain.MaxRequestSize())
}

func TestSanitizeRequest_ControlChars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Normal Text", "find jobs", "find jobs"},
		{"Safe Controls", "Line1\nLine2\tTabbed\r", "Line1\nLine2\tTabbed\r"},
		{"ANSI Code", "\x1b[31mRed\x1b[0m", "[31mRed[0m"},
		{"Null Byte", "Null\x00Byte", "NullByte"},
		{"Bell", "Ding\x07", "Ding"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.SanitizeRequest(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSanitizeRequest_InvalidUTF8(t *testing.T) {
	_, err := domain.SanitizeRequest("bad \xff byte")
	assert.ErrorIs(t, err, domain.ErrInvalidUTF8)
}

func TestNewState_SanitizesRequest(t *testing.T) {
	state, err := domain.NewState("run-1", "acme", registry, "find\x1b jobs")
	require.NoError(t, err)
	assert.Equal(t, "find jobs", state.Messages[0].Content)

	_, err = domain.NewState("run-1", "acme", registry, strings.Repeat("x", domain.DefaultMaxRequestSize+1))
	assert.ErrorIs(t, err, domain.ErrRequestTooLarge)
}
