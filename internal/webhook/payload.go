// Package webhook validates and classifies inbound webhook payloads.
package webhook

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/codecritics/codecritics/internal/domain"
)

// MentionToken is the marker that, when present in a PR comment,
// requests a manual re-review.
const MentionToken = "@codecritics"

// ValidationError describes one structural problem found while
// validating a payload; multiple may be returned together.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// rawPayload mirrors the subset of a source-host webhook body the
// validator needs; unrecognized fields are ignored.
type rawPayload struct {
	Action     string `json:"action"`
	Repository struct {
		FullName string `json:"full_name"`
		Private  bool   `json:"private"`
	} `json:"repository"`
	PullRequest *struct {
		Number  int    `json:"number"`
		DiffURL string `json:"diff_url"`
		Head    struct {
			SHA string `json:"sha"`
		} `json:"head"`
	} `json:"pull_request"`
	Issue *struct {
		Number      int       `json:"number"`
		PullRequest *struct{} `json:"pull_request"`
	} `json:"issue"`
	Comment *struct {
		Body string `json:"body"`
		User struct {
			Login string `json:"login"`
		} `json:"user"`
	} `json:"comment"`
	Zen *string `json:"zen"`
}

var prChangedActions = map[string]bool{
	"opened":      true,
	"synchronize": true,
	"reopened":    true,
}

// Validate parses body and produces an EventEnvelope, or a list of
// field errors if the payload is structurally invalid. This function
// never panics on malformed JSON; a parse failure is reported as a
// single ValidationError.
func Validate(eventHeader string, body []byte) (domain.EventEnvelope, []ValidationError) {
	var raw rawPayload
	if err := json.Unmarshal(body, &raw); err != nil {
		return domain.EventEnvelope{}, []ValidationError{{Field: "body", Message: "invalid JSON: " + err.Error()}}
	}

	if eventHeader == "ping" || raw.Zen != nil {
		return domain.EventEnvelope{EventKind: domain.EventPing, Action: raw.Action}, nil
	}

	var errs []ValidationError
	if strings.TrimSpace(raw.Action) == "" {
		errs = append(errs, ValidationError{Field: "action", Message: "required"})
	}
	if strings.TrimSpace(raw.Repository.FullName) == "" {
		errs = append(errs, ValidationError{Field: "repository.full_name", Message: "required"})
	}
	if len(errs) > 0 {
		return domain.EventEnvelope{}, errs
	}

	repo := repoFromFullName(raw.Repository.FullName, raw.Repository.Private)

	if eventHeader == "pull_request" && prChangedActions[raw.Action] {
		if raw.PullRequest == nil {
			return domain.EventEnvelope{}, []ValidationError{{Field: "pull_request", Message: "required for pull_request events"}}
		}
		if raw.PullRequest.Number == 0 {
			errs = append(errs, ValidationError{Field: "pull_request.number", Message: "required"})
		}
		if strings.TrimSpace(raw.PullRequest.Head.SHA) == "" {
			errs = append(errs, ValidationError{Field: "pull_request.head.sha", Message: "required"})
		}
		if strings.TrimSpace(raw.PullRequest.DiffURL) == "" {
			errs = append(errs, ValidationError{Field: "pull_request.diff_url", Message: "required"})
		}
		if len(errs) > 0 {
			return domain.EventEnvelope{}, errs
		}

		return domain.EventEnvelope{
			EventKind:  domain.EventPRChanged,
			Action:     raw.Action,
			Repo:       repo,
			PullNumber: raw.PullRequest.Number,
			DiffURL:    raw.PullRequest.DiffURL,
			HeadSHA:    raw.PullRequest.Head.SHA,
		}, nil
	}

	if eventHeader == "issue_comment" && raw.Action == "created" && raw.Issue != nil && raw.Issue.PullRequest != nil {
		if raw.Comment == nil {
			return domain.EventEnvelope{}, []ValidationError{{Field: "comment", Message: "required for issue_comment events"}}
		}
		if !strings.Contains(strings.ToLower(raw.Comment.Body), MentionToken) {
			return domain.EventEnvelope{EventKind: domain.EventOther, Action: raw.Action, Repo: repo}, nil
		}

		return domain.EventEnvelope{
			EventKind:   domain.EventMentionComment,
			Action:      raw.Action,
			Repo:        repo,
			PullNumber:  raw.Issue.Number,
			CommentBody: raw.Comment.Body,
			Commenter:   raw.Comment.User.Login,
		}, nil
	}

	return domain.EventEnvelope{EventKind: domain.EventOther, Action: raw.Action, Repo: repo}, nil
}

func repoFromFullName(fullName string, private bool) domain.Repo {
	owner, name, _ := strings.Cut(fullName, "/")
	return domain.Repo{Owner: owner, Name: name, FullName: fullName, Private: private}
}
