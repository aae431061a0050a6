// Package reviewparse turns a model's raw reply text into a list of
// domain.Finding values, tolerant of anything an LLM might get wrong
// about the requested block grammar. It never panics: a malformed
// block is dropped rather than propagated as an error.
package reviewparse

import (
	"strconv"
	"strings"

	"github.com/codecritics/codecritics/internal/domain"
)

// NoIssuesSentinel is the exact phrase a reply must contain to signal
// a clean review with no findings.
const NoIssuesSentinel = "No significant issues found. Good job!"

const blockSeparator = "---"

const (
	labelLocation        = "Location"
	labelIssueType       = "Issue Type"
	labelDescription     = "Description"
	labelSeverity        = "Severity"
	labelSuggestedChange = "Suggested Change"
)

const (
	defaultIssueType   = "Code Issue"
	defaultSeverity    = "Medium"
	defaultDescription = "No description provided"
	defaultSuggestion  = "No specific change suggested"
)

// block accumulates the labeled fields of one finding while scanning.
type block struct {
	path             string
	line             int
	hasPath          bool
	issueType        string
	description      string
	severity         string
	suggestedChange  string
	hasDescription   bool
	continuationInto *string // points at the field currently absorbing unlabeled lines
}

// Parse extracts Findings from a raw model reply. If the reply
// contains NoIssuesSentinel, it returns an empty, non-nil slice
// without attempting to parse any blocks.
func Parse(reply string) []domain.Finding {
	if strings.Contains(reply, NoIssuesSentinel) {
		return []domain.Finding{}
	}

	var findings []domain.Finding
	for _, raw := range splitBlocks(reply) {
		b := parseBlock(raw)
		if f, ok := b.toFinding(); ok {
			findings = append(findings, f)
		}
	}
	if findings == nil {
		findings = []domain.Finding{}
	}
	return findings
}

// splitBlocks splits on lines containing only "---", trimming
// surrounding whitespace and discarding empty segments.
func splitBlocks(reply string) []string {
	lines := strings.Split(reply, "\n")
	var segments []string
	var current []string
	flush := func() {
		joined := strings.TrimSpace(strings.Join(current, "\n"))
		if joined != "" {
			segments = append(segments, joined)
		}
		current = nil
	}
	for _, line := range lines {
		if strings.TrimSpace(line) == blockSeparator {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	return segments
}

func parseBlock(raw string) *block {
	b := &block{}
	for _, line := range strings.Split(raw, "\n") {
		label, value, ok := splitLabel(line)
		if !ok {
			appendContinuation(b, line)
			continue
		}
		switch label {
		case labelLocation:
			b.path, b.line, b.hasPath = parseLocation(value)
			b.continuationInto = nil
		case labelIssueType:
			b.issueType = value
			b.continuationInto = nil
		case labelDescription:
			b.description = value
			b.hasDescription = strings.TrimSpace(value) != ""
			b.continuationInto = &b.description
		case labelSeverity:
			b.severity = value
			b.continuationInto = nil
		case labelSuggestedChange:
			b.suggestedChange = value
			b.continuationInto = &b.suggestedChange
		default:
			// An unrecognized "**Label**:" line ends continuation but
			// contributes nothing; tolerate and move on.
			b.continuationInto = nil
		}
	}
	return b
}

// appendContinuation feeds an unlabeled line into whichever
// multi-line-capable field most recently started, preserving newlines.
// Blank lines and lines before any field has started are ignored.
func appendContinuation(b *block, line string) {
	if b.continuationInto == nil {
		return
	}
	if strings.TrimSpace(line) == "" && *b.continuationInto == "" {
		return
	}
	*b.continuationInto += "\n" + line
	if b.continuationInto == &b.description {
		b.hasDescription = strings.TrimSpace(b.description) != ""
	}
}

// splitLabel recognizes a "**Label**: value" line and returns the
// label with surrounding whitespace and asterisks stripped.
func splitLabel(line string) (label, value string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "**") {
		return "", "", false
	}
	rest := trimmed[2:]
	end := strings.Index(rest, "**")
	if end < 0 {
		return "", "", false
	}
	label = rest[:end]
	after := rest[end+2:]
	after = strings.TrimPrefix(strings.TrimSpace(after), ":")
	return label, strings.TrimSpace(after), true
}

// parseLocation parses "path[:line]", stripping backticks from path
// and defaulting line to 1 when absent or not a positive integer.
func parseLocation(value string) (path string, line int, ok bool) {
	value = strings.TrimSpace(value)
	value = strings.Trim(value, "`")
	if value == "" {
		return "", 0, false
	}

	idx := strings.LastIndex(value, ":")
	if idx < 0 {
		return value, 1, true
	}

	path = strings.TrimSpace(strings.Trim(value[:idx], "`"))
	lineStr := strings.TrimSpace(value[idx+1:])
	n, err := strconv.Atoi(lineStr)
	if err != nil || n <= 0 {
		// Not a valid line suffix — treat the whole value as the path
		// unless the colon truly separated a bad number, in which case
		// we still keep the path portion and default the line.
		if path == "" {
			return "", 0, false
		}
		return path, 1, true
	}
	if path == "" {
		return "", 0, false
	}
	return path, n, true
}

// toFinding renders the block into a domain.Finding, applying tolerant
// defaults, or reports ok=false if the block lacks both path and
// description (the only unrecoverable case).
func (b *block) toFinding() (domain.Finding, bool) {
	if !b.hasPath {
		return domain.Finding{}, false
	}

	issueType := strings.TrimSpace(b.issueType)
	if issueType == "" {
		issueType = defaultIssueType
	}
	severity := strings.TrimSpace(b.severity)
	if severity == "" {
		severity = defaultSeverity
	}
	description := strings.TrimSpace(b.description)
	if description == "" {
		description = defaultDescription
	}
	suggestion := strings.TrimSpace(b.suggestedChange)
	if suggestion == "" {
		suggestion = defaultSuggestion
	}

	line := b.line
	if line <= 0 {
		line = 1
	}

	return domain.NewFinding(domain.FindingInput{
		File:        b.path,
		LineStart:   line,
		LineEnd:     line,
		Severity:    severity,
		Category:    issueType,
		Description: description,
		Suggestion:  suggestion,
	}), true
}

// Render produces the stable comment body for a single Finding, ending
// in the inline-comment marker used for identification and dedup.
func Render(f domain.Finding) string {
	var sb strings.Builder
	sb.WriteString("**Issue Type**: " + f.Category + "\n")
	sb.WriteString("**Description**: " + f.Description + "\n")
	sb.WriteString("**Severity**: " + f.Severity + "\n")
	sb.WriteString("**Suggested Change**: " + f.Suggestion + "\n\n")
	sb.WriteString(domain.MarkerInlineComment)
	return sb.String()
}
