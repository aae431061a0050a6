package redaction

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// redactedPrefix marks every placeholder Engine.Redact emits; also
// the marker IsRedacted looks for.
const redactedPrefix = "<REDACTED:"

// secretPattern names one regex used to spot a class of credential,
// so a matched span can be traced back to what it looked like without
// keeping the secret itself around.
type secretPattern struct {
	name string
	re   *regexp.Regexp
}

// Engine finds strings that look like credentials and swaps them for
// deterministic placeholders, so the same secret always redacts to
// the same token without ever appearing twice in logged output.
type Engine struct {
	patterns []secretPattern
}

// NewEngine builds an Engine with the built-in set of credential
// patterns (API keys, PEM private keys, bearer tokens, and friends).
func NewEngine() *Engine {
	return &Engine{patterns: builtinSecretPatterns()}
}

// Redact returns input with every recognized secret substring
// replaced by a "<REDACTED:xxxxxxxx>" placeholder. Two occurrences of
// the same secret always produce the same placeholder, since the
// placeholder is derived from a hash of the secret rather than from
// where it appears.
func (e *Engine) Redact(input string) (string, error) {
	if input == "" {
		return "", nil
	}

	placeholders := e.findPlaceholders(input)
	if len(placeholders) == 0 {
		return input, nil
	}

	var out strings.Builder
	out.Grow(len(input))
	remaining := input
	for remaining != "" {
		secret, at := earliestMatch(remaining, placeholders)
		if at < 0 {
			out.WriteString(remaining)
			break
		}
		out.WriteString(remaining[:at])
		out.WriteString(placeholders[secret])
		remaining = remaining[at+len(secret):]
	}
	return out.String(), nil
}

// findPlaceholders locates every distinct secret substring in input
// and assigns it a stable placeholder, without mutating input.
func (e *Engine) findPlaceholders(input string) map[string]string {
	placeholders := make(map[string]string)
	for _, p := range e.patterns {
		for _, match := range p.re.FindAllString(input, -1) {
			if _, done := placeholders[match]; done {
				continue
			}
			placeholders[match] = placeholderFor(match)
		}
	}
	return placeholders
}

// earliestMatch scans s for whichever key in placeholders occurs
// first, so overlapping candidates (e.g. a bearer token that contains
// what also matches a shorter pattern) are resolved left to right
// instead of pattern-by-pattern.
func earliestMatch(s string, placeholders map[string]string) (secret string, at int) {
	at = -1
	for candidate := range placeholders {
		idx := strings.Index(s, candidate)
		if idx < 0 {
			continue
		}
		if at < 0 || idx < at || (idx == at && len(candidate) > len(secret)) {
			secret, at = candidate, idx
		}
	}
	return secret, at
}

// placeholderFor derives a stable eight-character placeholder from a
// secret's SHA-256 digest so repeated occurrences collapse to one
// identifier without the original value surviving anywhere.
func placeholderFor(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return redactedPrefix + hex.EncodeToString(sum[:])[:8] + ">"
}

// IsRedacted reports whether content already contains a placeholder
// this Engine would have produced.
func (e *Engine) IsRedacted(content string) bool {
	return strings.Contains(content, redactedPrefix)
}

// builtinSecretPatterns is the default credential-shape table:
// cloud provider keys, VCS tokens, JWTs, PEM private keys, and a
// generic bearer-token catch-all.
func builtinSecretPatterns() []secretPattern {
	table := []struct {
		name    string
		pattern string
	}{
		{"openai", `sk-[a-zA-Z0-9]{20,}`},
		{"anthropic", `sk-ant-[a-zA-Z0-9\-]{20,}`},
		{"aws-access-key", `AKIA[0-9A-Z]{16}`},
		{"aws-secret-key", `aws.{0,20}?['\"][0-9a-zA-Z/+]{40}['\"]`},
		{"github-token", `gh[posr]_[a-zA-Z0-9]{20,}`},
		{"google-api-key", `AIza[0-9A-Za-z\-_]{35}`},
		{"jwt", `eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`},
		{"pem-private-key", `-----BEGIN\s+(?:RSA|EC|OPENSSH|DSA|ENCRYPTED)\s+PRIVATE\s+KEY-----[\s\S]*?-----END\s+(?:RSA|EC|OPENSSH|DSA|ENCRYPTED)\s+PRIVATE\s+KEY-----`},
		{"slack-token", `xox[baprs]-[a-zA-Z0-9\-]{10,}`},
		{"bearer-token", `Bearer\s+[a-zA-Z0-9_\-\.]+`},
	}

	patterns := make([]secretPattern, 0, len(table))
	for _, entry := range table {
		patterns = append(patterns, secretPattern{name: entry.name, re: regexp.MustCompile(entry.pattern)})
	}
	return patterns
}
