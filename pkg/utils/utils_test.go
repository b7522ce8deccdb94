package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateID(t *testing.T) {
	id1, err := GenerateID()
	require.NoError(t, err)
	assert.Len(t, id1, 32)

	id2, err := GenerateID()
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)
}

func TestIsValidSolanaAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		valid   bool
	}{
		{"typical address", "GRQvj7x2DBn5d7JJTXjp7A3bDfC2yMBqSceT4cvDCbtM", true},
		{"another address", "CKs1E69a2e9TmH4mKKLrXFF8kD3ZnwKjoEuXa6sz9WqX", true},
		{"empty", "", false},
		{"too short", "abc123", false},
		{"too long", "GRQvj7x2DBn5d7JJTXjp7A3bDfC2yMBqSceT4cvDCbtMGRQvj7x2DBn5", false},
		{"contains zero", "0RQvj7x2DBn5d7JJTXjp7A3bDfC2yMBqSceT4cvDCbtM", false},
		{"contains uppercase o", "ORQvj7x2DBn5d7JJTXjp7A3bDfC2yMBqSceT4cvDCbt", false},
		{"contains symbol", "GRQvj7x2DBn5d7JJTXjp7A3bDfC2yMBqSceT4cvDCbt!", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidSolanaAddress(tt.address))
		})
	}
}

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, "abc", NormalizeAddress("  abc\n"))
	assert.Equal(t, "AbC", NormalizeAddress("AbC"))
	assert.Equal(t, "", NormalizeAddress("   "))
}

func TestAppError(t *testing.T) {
	err := NewAppError(ErrCodeValidation, "Invalid input", "field missing")
	assert.Equal(t, "VALIDATION_ERROR: Invalid input (field missing)", err.Error())

	bare := NewAppError(ErrCodeDatabase, "Query failed")
	assert.Equal(t, "DATABASE_ERROR: Query failed", bare.Error())
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrCodeAuth, CodeOf(NewAppError(ErrCodeAuth, "nope")))
	assert.Equal(t, ErrCodeInternal, CodeOf(errors.New("plain error")))
}

func TestDetailsOf(t *testing.T) {
	assert.Equal(t, "", DetailsOf(nil))
	assert.Equal(t, "connection refused", DetailsOf(NewAppError(ErrCodeConnection, "Failed to connect", "connection refused")))
	assert.Equal(t, "plain error", DetailsOf(errors.New("plain error")))
}
