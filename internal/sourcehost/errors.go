package sourcehost

import (
	"errors"

	llmhttp "github.com/codecritics/codecritics/internal/adapter/llm/http"
	"github.com/codecritics/codecritics/internal/domain"
)

// ClassifyError maps an error returned by a Client method onto the
// pipeline-wide failure taxonomy, so the orchestrator can decide
// whether to retry, fail the job, or report a provider outage without
// knowing which source host produced the error.
func ClassifyError(err error) domain.FailureKind {
	var hostErr *llmhttp.Error
	if !errors.As(err, &hostErr) {
		return domain.FailureInternalBug
	}

	switch hostErr.Type {
	case llmhttp.ErrTypeTimeout:
		return domain.FailureTimeout
	case llmhttp.ErrTypeRateLimit, llmhttp.ErrTypeServiceUnavailable:
		return domain.FailureProviderUnavailable
	case llmhttp.ErrTypeAuthentication, llmhttp.ErrTypeInvalidRequest, llmhttp.ErrTypeModelNotFound, llmhttp.ErrTypeContentFiltered:
		return domain.FailurePermanent
	default:
		if hostErr.IsRetryable() {
			return domain.FailureTransient
		}
		return domain.FailurePermanent
	}
}
