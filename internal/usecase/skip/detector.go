// Package skip detects requests to bypass automated code review,
// signaled by a marker embedded in a commit message, PR title, or PR
// description.
package skip

import (
	"regexp"
	"strings"
)

// triggerPattern matches "[skip code-review]" or "[skip-code-review]",
// case-insensitively, anywhere in the text.
var triggerPattern = regexp.MustCompile(`(?i)\[skip[ -]code-review\]`)

// ContainsSkipTrigger reports whether text embeds a skip marker.
func ContainsSkipTrigger(text string) bool {
	return triggerPattern.MatchString(text)
}

// CheckRequest bundles the places a skip marker can appear. All
// fields are optional.
type CheckRequest struct {
	CommitMessages []string
	PRTitle        string
	PRDescription  string
}

// CheckResult reports whether a review should be skipped, and where
// the marker that triggered it was found.
type CheckResult struct {
	ShouldSkip bool
	Reason     string
}

// source is one place Check looks for a marker: a reason label plus
// the candidate strings to test, in the order they should be tried.
type source struct {
	reason string
	texts  []string
}

// Check looks for a skip marker across commit messages, then the PR
// title, then the PR description, and reports the first hit.
func Check(req CheckRequest) CheckResult {
	sources := []source{
		{reason: "commit message", texts: req.CommitMessages},
		{reason: "PR title", texts: []string{strings.TrimSpace(req.PRTitle)}},
		{reason: "PR description", texts: []string{req.PRDescription}},
	}

	for _, src := range sources {
		for _, text := range src.texts {
			if ContainsSkipTrigger(text) {
				return CheckResult{ShouldSkip: true, Reason: src.reason}
			}
		}
	}
	return CheckResult{}
}
