package redaction

import "regexp"

// opaqueTokenPattern matches any long run of token characters that
// could plausibly be an API key or secret, independent of a known
// provider's key format.
var opaqueTokenPattern = regexp.MustCompile(`[A-Za-z0-9_-]{32,}`)

// bearerPattern, skPattern, and keyValuePattern match secret shapes
// commonly leaked in the LLM Gateway's error surface: Authorization
// headers, OpenAI-style "sk-" keys, and "key: <value>" style log lines.
var (
	bearerPattern   = regexp.MustCompile(`(?i)Bearer\s+\S+`)
	skPattern       = regexp.MustCompile(`sk-[A-Za-z0-9]+`)
	keyValuePattern = regexp.MustCompile(`(?i)\bkey:\s*\S+`)
)

const productionRedactedBody = "[Error details redacted in production]"

// SanitizeErrorSurface redacts anything that looks like a credential
// from text that is about to be logged or returned to a caller (an
// LLM provider error message, a raw HTTP response body). Matches are
// replaced with the literal marker "[REDACTED]" rather than the
// stable hash placeholders Engine.Redact uses, because this text is
// never diffed or deduplicated — it is discarded after logging.
//
// In production mode the entire body is replaced wholesale, since a
// partially-redacted provider error can still leak structure an
// attacker can use to fingerprint the backend.
func SanitizeErrorSurface(text string, production bool) string {
	if production {
		return productionRedactedBody
	}

	out := bearerPattern.ReplaceAllString(text, "[REDACTED]")
	out = skPattern.ReplaceAllString(out, "[REDACTED]")
	out = keyValuePattern.ReplaceAllString(out, "[REDACTED]")
	out = opaqueTokenPattern.ReplaceAllString(out, "[REDACTED]")
	return out
}
