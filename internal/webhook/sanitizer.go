package webhook

import (
	"github.com/codecritics/codecritics/internal/domain"
	"github.com/codecritics/codecritics/internal/redaction"
)

const truncateLimit = 100

// secretScrubber redacts anything in a logged comment body that looks
// like a pasted credential, before truncation shortens it further.
var secretScrubber = redaction.NewEngine()

// SanitizeForLogging returns a copy of the envelope safe to log: the
// comment body is scrubbed of anything that looks like a credential
// and then truncated, so a large PR comment (or one containing a
// pasted secret) never floods the log stream or leaks a token into it.
func SanitizeForLogging(e domain.EventEnvelope) domain.EventEnvelope {
	scrubbed, err := secretScrubber.Redact(e.CommentBody)
	if err != nil {
		scrubbed = e.CommentBody
	}
	e.CommentBody = truncate(scrubbed)
	return e
}

func truncate(s string) string {
	if len(s) <= truncateLimit {
		return s
	}
	return s[:truncateLimit] + "..."
}
