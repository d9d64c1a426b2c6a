package budgetwatch

import (
	"strings"

	"github.com/budgetwatch/budgetwatch-go/internal/types"
)

var (
	// ErrRateLimited is returned when the API responds with HTTP 429
	ErrRateLimited = types.ErrRateLimited

	// ErrUnauthorized is returned when the access token is rejected
	ErrUnauthorized = types.ErrUnauthorized

	// ErrServiceUnavailable is returned when the API responds with HTTP 503
	ErrServiceUnavailable = types.ErrServiceUnavailable

	// ErrInvalidBudgetID is returned when a budget identifier is missing or
	// still holds the literal placeholder value
	ErrInvalidBudgetID = types.ErrInvalidBudgetID

	// ErrRefreshInProgress is returned when a refresh is already in flight
	ErrRefreshInProgress = types.ErrRefreshInProgress

	// ErrSchedulerStopped is returned when the scheduler has shut down
	ErrSchedulerStopped = types.ErrSchedulerStopped
)

// maxStoredErrorLen bounds the error text carried in the status record.
const maxStoredErrorLen = 100

// classifyError maps a refresh-cycle failure onto the status enumeration and
// a short stored error description. Matching is on message substrings, in
// priority order: rate limit before unauthorized before service unavailable,
// with everything else a generic API error.
func classifyError(err error) (Status, string) {
	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(msg, "429") || strings.Contains(lower, "rate limit"):
		return StatusRateLimited, "429 - Too Many Requests"
	case strings.Contains(msg, "401") || strings.Contains(lower, "unauthorized"):
		return StatusUnauthorized, "401 - Invalid API Token"
	case strings.Contains(msg, "503") || strings.Contains(lower, "service unavailable"):
		return StatusServiceUnavailable, "503 - Service Down"
	default:
		return StatusAPIError, "Error: " + truncateError(msg)
	}
}

// truncateError bounds error text for storage.
func truncateError(msg string) string {
	if len(msg) <= maxStoredErrorLen {
		return msg
	}
	return msg[:maxStoredErrorLen]
}
