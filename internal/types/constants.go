package types

import (
	"errors"
	"time"
)

const (
	// DefaultBaseURL is the default YNAB API base URL
	DefaultBaseURL = "https://api.youneedabudget.com/v1"

	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = 30 * time.Second

	// UserAgent is the user agent string
	UserAgent = "budgetwatch-go/1.0.0"

	// HourlyRequestEstimate is the assumed per-credential hourly quota.
	// The remote service does not publish its exact algorithm, so this
	// is a conservative estimate rather than a learned value.
	HourlyRequestEstimate = 200
)

// Common errors
var (
	// ErrRateLimited is returned when the API responds with HTTP 429
	ErrRateLimited = errors.New("429 - too many requests")

	// ErrUnauthorized is returned when the access token is rejected
	ErrUnauthorized = errors.New("401 - unauthorized")

	// ErrServiceUnavailable is returned when the API responds with HTTP 503
	ErrServiceUnavailable = errors.New("503 - service unavailable")

	// ErrTimeout is returned on request timeout
	ErrTimeout = errors.New("request timeout")

	// ErrInvalidBudgetID is returned when a budget identifier is missing
	// or still holds the literal placeholder value
	ErrInvalidBudgetID = errors.New("invalid budget id")

	// ErrRefreshInProgress is returned when a refresh is already in flight
	ErrRefreshInProgress = errors.New("refresh already in progress")

	// ErrSchedulerStopped is returned when the scheduler has shut down
	ErrSchedulerStopped = errors.New("scheduler stopped")
)
