// Package diffproc fetches a pull request's diff and reduces it to a
// prompt-ready payload: a validated fetch step (SSRF-safe URL check
// with a compare-commits fallback) and a chunking step (extension
// filter, file-boundary packing, size-adaptive skip decision).
package diffproc

import (
	"context"
	"fmt"
	"net/url"
	"regexp"

	"github.com/codecritics/codecritics/internal/domain"
	"github.com/codecritics/codecritics/internal/sourcehost"
)

// pullDiffPath matches "/{owner}/{repo}/pull/{number}" or
// "/{owner}/{repo}/pull/{number}.diff" — nothing else is an acceptable
// path for a caller-supplied diff URL, regardless of query string or
// fragment.
var pullDiffPath = regexp.MustCompile(`^/[^/]+/[^/]+/pull/[0-9]+(\.diff)?$`)

// Fetcher retrieves a pull request's unified diff, preferring the
// webhook-supplied diff URL and falling back to the source host's
// compare-commits API when that URL is missing or fails validation.
type Fetcher struct {
	host          sourcehost.Client
	allowedDomain string
}

// NewFetcher constructs a Fetcher. allowedDomain is the only host a
// caller-supplied diff URL may point at (SSRF defense); an empty
// domain disables the direct-URL path entirely and always falls back
// to compareCommits.
func NewFetcher(host sourcehost.Client, allowedDomain string) *Fetcher {
	return &Fetcher{host: host, allowedDomain: allowedDomain}
}

// Fetch returns the unified diff text for a pull request. It tries the
// envelope's diff URL first if it passes validation, then falls back
// to comparing base and head commits through the source host.
func (f *Fetcher) Fetch(ctx context.Context, env domain.EventEnvelope, pr sourcehost.PullRequest) (string, error) {
	if env.DiffURL != "" {
		if err := ValidateDiffURL(env.DiffURL, f.allowedDomain, env.Repo.Owner, env.Repo.Name, env.PullNumber); err == nil {
			text, fetchErr := fetchURL(ctx, env.DiffURL)
			if fetchErr == nil {
				return text, nil
			}
			// Falls through to the API fallback on any fetch failure —
			// a dead diff_url should not fail the whole job.
		}
	}

	return f.host.CompareCommits(ctx, env.Repo.Owner, env.Repo.Name, pr.BaseSHA, pr.HeadSHA)
}

// ValidateDiffURL rejects any URL that is not an HTTPS request to
// allowedDomain for exactly this PR's diff resource. This is the
// strict variant: exact host match plus an exact path template, no
// substring or prefix matching against the allowed domain.
func ValidateDiffURL(rawURL, allowedDomain, owner, repo string, pullNumber int) error {
	if allowedDomain == "" {
		return fmt.Errorf("diffproc: direct diff URL fetch is disabled")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("diffproc: malformed diff URL: %w", err)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("diffproc: diff URL must use https, got %q", u.Scheme)
	}
	if u.Host != allowedDomain {
		return fmt.Errorf("diffproc: diff URL host %q does not match allowed domain %q", u.Host, allowedDomain)
	}
	if !pullDiffPath.MatchString(u.Path) {
		return fmt.Errorf("diffproc: diff URL path %q does not match the expected pull-request diff shape", u.Path)
	}

	expectedPath := fmt.Sprintf("/%s/%s/pull/%d", owner, repo, pullNumber)
	if u.Path != expectedPath && u.Path != expectedPath+".diff" {
		return fmt.Errorf("diffproc: diff URL does not reference %s/%s#%d", owner, repo, pullNumber)
	}

	return nil
}
