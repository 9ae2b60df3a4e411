package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateShortCode(t *testing.T) {
	assert.NoError(t, ValidateShortCode("abc-DEF_123"))
	assert.Error(t, ValidateShortCode(""))
	assert.Error(t, ValidateShortCode("has space"))
	assert.Error(t, ValidateShortCode("slash/code"))
	assert.Error(t, ValidateShortCode("百分号"))
}

func TestValidateTargetURL(t *testing.T) {
	assert.NoError(t, ValidateTargetURL("https://example.com/path?q=1"))
	assert.Error(t, ValidateTargetURL(""))
	assert.Error(t, ValidateTargetURL("example.com"))        // no scheme
	assert.Error(t, ValidateTargetURL("https://"))           // no host
	assert.Error(t, ValidateTargetURL("https://example.com/"+strings.Repeat("a", 2048)))
}

func TestParseExpiry_Durations(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	got, err := ParseExpiry("30m", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(30*time.Minute).UnixMilli(), got)

	got, err = ParseExpiry("2h", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(2*time.Hour).UnixMilli(), got)

	got, err = ParseExpiry("7d", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(7*24*time.Hour).UnixMilli(), got)

	// Unit matching is case-insensitive.
	got, err = ParseExpiry("2H", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(2*time.Hour).UnixMilli(), got)
}

func TestParseExpiry_AbsoluteTime(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	got, err := ParseExpiry("2025-07-01T00:00:00Z", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC).UnixMilli(), got)

	// Past timestamps are rejected.
	_, err = ParseExpiry("2025-01-01T00:00:00Z", now)
	assert.Error(t, err)
}

func TestParseExpiry_EmptyAndInvalid(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	got, err := ParseExpiry("", now)
	require.NoError(t, err)
	assert.Zero(t, got)

	for _, s := range []string{"soon", "10x", "m30", "2025-13-99"} {
		_, err := ParseExpiry(s, now)
		assert.Error(t, err, s)
	}
}

func TestRegistrableDomain(t *testing.T) {
	assert.Equal(t, "example.com", RegistrableDomain("WWW.Example.com"))
	assert.Equal(t, "sub.example.com", RegistrableDomain("sub.example.com"))
}
