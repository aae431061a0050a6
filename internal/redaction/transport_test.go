package redaction_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codecritics/codecritics/internal/redaction"
)

func TestSanitizeErrorSurface_RedactsBearerAndOpaqueTokens(t *testing.T) {
	input := "upstream rejected Authorization: Bearer abc123def456ghi789 with sk-thisisaverylongsecretkeyvalue1234"

	out := redaction.SanitizeErrorSurface(input, false)

	assert.NotContains(t, out, "abc123def456ghi789")
	assert.NotContains(t, out, "thisisaverylongsecretkeyvalue1234")
	assert.Contains(t, out, "[REDACTED]")
}

func TestSanitizeErrorSurface_RedactsKeyValuePattern(t *testing.T) {
	input := `provider error: key: aVeryLongOpaqueApiKeyValue1234567890`

	out := redaction.SanitizeErrorSurface(input, false)

	assert.NotContains(t, out, "aVeryLongOpaqueApiKeyValue1234567890")
}

func TestSanitizeErrorSurface_ProductionModeRedactsWholesale(t *testing.T) {
	input := "some provider body with details that should never leak"

	out := redaction.SanitizeErrorSurface(input, true)

	assert.Equal(t, "[Error details redacted in production]", out)
}

func TestSanitizeErrorSurface_LeavesShortTextsUntouched(t *testing.T) {
	input := "connection reset by peer"

	out := redaction.SanitizeErrorSurface(input, false)

	assert.Equal(t, input, out)
}
