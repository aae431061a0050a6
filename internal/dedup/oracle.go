// Package dedup implements the Dedup Oracle: it decides whether an
// automatically triggered review would duplicate one already posted
// recently, by scanning the PR's comment thread for the bot's own
// summary marker.
package dedup

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/codecritics/codecritics/internal/domain"
	"github.com/codecritics/codecritics/internal/sourcehost"
)

// recentWindow bounds how long a prior bot summary suppresses a new
// automatic review.
const recentWindow = time.Hour

var timestampMarkerPattern = regexp.MustCompile(`<!-- timestamp: (\d+) -->`)

// Oracle answers ShouldSkip for a given PR and trigger kind.
type Oracle struct {
	host sourcehost.Client
}

// NewOracle constructs an Oracle backed by a source-host client.
func NewOracle(host sourcehost.Client) *Oracle {
	return &Oracle{host: host}
}

// ShouldSkip lists the PR's comments and reports whether the job
// should be skipped as a duplicate. Manual triggers are never skipped
// here — a prior summary is informational only for them.
func (o *Oracle) ShouldSkip(ctx context.Context, owner, repo string, number int, trigger domain.TriggerKind, now time.Time) (bool, error) {
	if trigger == domain.TriggerManual {
		return false, nil
	}

	comments, err := o.host.ListPRComments(ctx, owner, repo, number)
	if err != nil {
		return false, err
	}

	summary, ok := latestBotSummary(comments)
	if !ok {
		return false, nil
	}
	return isRecent(summary, now), nil
}

// latestBotSummary returns the most recently created comment whose
// body carries the review-summary marker, preferring the host's own
// CreatedAt ordering over the embedded timestamp marker so a summary
// with a malformed or clock-skewed marker still counts as the latest.
func latestBotSummary(comments []sourcehost.Comment) (sourcehost.Comment, bool) {
	var latest sourcehost.Comment
	var latestCreated time.Time
	found := false

	for _, c := range comments {
		if !strings.Contains(c.Body, domain.MarkerReviewSummary) {
			continue
		}
		created, err := time.Parse(time.RFC3339, c.CreatedAt)
		if err != nil {
			continue
		}
		if !found || created.After(latestCreated) {
			latest = c
			latestCreated = created
			found = true
		}
	}
	return latest, found
}

// isRecent reports whether c's embedded timestamp marker falls within
// recentWindow of now. A missing or malformed marker is treated as not
// recent, matching the parser's "never trust, always tolerate" stance.
func isRecent(c sourcehost.Comment, now time.Time) bool {
	match := timestampMarkerPattern.FindStringSubmatch(c.Body)
	if match == nil {
		return false
	}
	unixSeconds, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return false
	}
	postedAt := time.Unix(unixSeconds, 0)
	age := now.Sub(postedAt)
	return age >= 0 && age <= recentWindow
}
