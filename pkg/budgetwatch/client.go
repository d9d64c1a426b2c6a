package budgetwatch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/budgetwatch/budgetwatch-go/internal/transport"
	internalTypes "github.com/budgetwatch/budgetwatch-go/internal/types"
	"github.com/getsentry/sentry-go"
	"github.com/pkg/errors"
)

// placeholderBudgetID is the literal value a budget identifier holds before
// setup has picked a real budget. Requests are short-circuited when seen.
const placeholderBudgetID = "budgets"

// Logger interface for logging
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Transport handles HTTP communication with the remote API
type Transport interface {
	Get(ctx context.Context, path string) (json.RawMessage, error)
	SetAuth(token string)
}

// Client performs authenticated reads against the remote budgeting API and
// reports quota state. Every issued request, whatever its outcome, is
// recorded in the shared RequestTracker for the client's credential.
type Client struct {
	transport Transport
	tracker   *RequestTracker
	logger    Logger
	options   *ClientOptions
}

// ClientOptions configures the client
type ClientOptions struct {
	// BaseURL overrides the default API base URL
	BaseURL string

	// HTTPClient allows using a custom HTTP client
	HTTPClient *http.Client

	// Token is the bearer access token
	Token string

	// Logger for debug logging
	Logger Logger

	// RetryConfig configures retry behavior
	RetryConfig *internalTypes.RetryConfig

	// Hooks for observability
	Hooks *internalTypes.Hooks

	// Trackers is the shared quota registry. Instances configured with the
	// same credential must share one registry to see one quota view; a
	// private registry is created when nil.
	Trackers *TrackerRegistry

	// SentryDSN enables Sentry error tracking when set
	SentryDSN string

	// SentryOptions allows custom Sentry configuration
	SentryOptions *sentry.ClientOptions
}

// NewClient creates a new API client
func NewClient(opts *ClientOptions) (*Client, error) {
	if opts == nil {
		opts = &ClientOptions{}
	}

	// Initialize Sentry if DSN is provided
	if opts.SentryDSN != "" || opts.SentryOptions != nil {
		sentryOpts := sentry.ClientOptions{}

		if opts.SentryOptions != nil {
			sentryOpts = *opts.SentryOptions
		}

		if opts.SentryDSN != "" {
			sentryOpts.Dsn = opts.SentryDSN
		}

		if sentryOpts.Environment == "" {
			sentryOpts.Environment = "production"
		}

		if err := sentry.Init(sentryOpts); err != nil {
			// Log error but don't fail client creation
			if opts.Logger != nil {
				opts.Logger.Error("Failed to initialize Sentry", "error", err)
			}
		}
	}

	if opts.BaseURL == "" {
		opts.BaseURL = internalTypes.DefaultBaseURL
	}

	trans := transport.NewRESTTransport(&transport.Options{
		BaseURL:     opts.BaseURL,
		HTTPClient:  opts.HTTPClient,
		Token:       opts.Token,
		RetryConfig: opts.RetryConfig,
		Logger:      opts.Logger,
		Hooks:       opts.Hooks,
	})

	registry := opts.Trackers
	if registry == nil {
		registry = NewTrackerRegistry()
	}

	return &Client{
		transport: trans,
		tracker:   registry.Tracker(Fingerprint(opts.Token)),
		logger:    opts.Logger,
		options:   opts,
	}, nil
}

// SetToken sets the authentication token
func (c *Client) SetToken(token string) {
	c.transport.SetAuth(token)
}

// Quota returns the current quota view for this client's credential,
// computed from the shared request tracker.
func (c *Client) Quota() QuotaInfo {
	return c.tracker.Quota()
}

// GetBudgets fetches the available budgets. Used by setup to pick a budget.
func (c *Client) GetBudgets(ctx context.Context) ([]*BudgetInfo, error) {
	var result struct {
		Budgets []*BudgetInfo `json:"budgets"`
	}

	if err := c.get(ctx, "/budgets", &result); err != nil {
		return nil, errors.Wrap(err, "failed to get budgets")
	}

	return result.Budgets, nil
}

// GetBudget fetches detail for a specific budget.
func (c *Client) GetBudget(ctx context.Context, budgetID string) (*BudgetDetail, error) {
	if !c.validBudgetID(budgetID, "budget") {
		return &BudgetDetail{}, nil
	}

	var result struct {
		Budget *BudgetDetail `json:"budget"`
	}

	if err := c.get(ctx, "/budgets/"+budgetID, &result); err != nil {
		return nil, errors.Wrap(err, "failed to get budget")
	}

	if result.Budget == nil {
		return &BudgetDetail{}, nil
	}
	return result.Budget, nil
}

// GetAccounts fetches the accounts for a specific budget.
func (c *Client) GetAccounts(ctx context.Context, budgetID string) ([]*Account, error) {
	if !c.validBudgetID(budgetID, "accounts") {
		return []*Account{}, nil
	}

	var result struct {
		Accounts []*Account `json:"accounts"`
	}

	if err := c.get(ctx, "/budgets/"+budgetID+"/accounts", &result); err != nil {
		return nil, errors.Wrap(err, "failed to get accounts")
	}

	return result.Accounts, nil
}

// GetCategories fetches the grouped categories for a specific budget.
func (c *Client) GetCategories(ctx context.Context, budgetID string) ([]*CategoryGroup, error) {
	if !c.validBudgetID(budgetID, "categories") {
		return []*CategoryGroup{}, nil
	}

	var result struct {
		CategoryGroups []*CategoryGroup `json:"category_groups"`
	}

	if err := c.get(ctx, "/budgets/"+budgetID+"/categories", &result); err != nil {
		return nil, errors.Wrap(err, "failed to get categories")
	}

	return result.CategoryGroups, nil
}

// GetMonth fetches the month detail for a budget. The month key is the
// first day of the month in YYYY-MM-01 form.
func (c *Client) GetMonth(ctx context.Context, budgetID, month string) (*Month, error) {
	if !c.validBudgetID(budgetID, "months") {
		return &Month{}, nil
	}

	var result struct {
		Month *Month `json:"month"`
	}

	if err := c.get(ctx, "/budgets/"+budgetID+"/months/"+month, &result); err != nil {
		return nil, errors.Wrap(err, "failed to get month detail")
	}

	if result.Month == nil {
		if c.logger != nil {
			c.logger.Warn("No month data found", "budget_id", budgetID, "month", month)
		}
		return &Month{}, nil
	}
	return result.Month, nil
}

// GetTransactions fetches the transactions for a specific budget.
func (c *Client) GetTransactions(ctx context.Context, budgetID string) ([]*Transaction, error) {
	if !c.validBudgetID(budgetID, "transactions") {
		return []*Transaction{}, nil
	}

	var result struct {
		Transactions []*Transaction `json:"transactions"`
	}

	if err := c.get(ctx, "/budgets/"+budgetID+"/transactions", &result); err != nil {
		return nil, errors.Wrap(err, "failed to get transactions")
	}

	return result.Transactions, nil
}

// validBudgetID reports whether a budget identifier is usable. An invalid
// identifier is logged and the caller returns an empty result without a
// network call, so no request is recorded and no failure is counted.
func (c *Client) validBudgetID(budgetID, resource string) bool {
	if budgetID == "" || budgetID == placeholderBudgetID {
		if c.logger != nil {
			c.logger.Error("Invalid budget id before API call", "budget_id", budgetID, "resource", resource)
		}
		return false
	}
	return true
}

// get issues one tracked request and unmarshals the data payload.
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	c.tracker.Record()

	payload, err := c.transport.Get(ctx, path)
	if err != nil {
		c.captureError(ctx, path, err)
		return err
	}

	if result != nil && len(payload) > 0 {
		if err := json.Unmarshal(payload, result); err != nil {
			return errors.Wrap(err, "failed to unmarshal result")
		}
	}

	return nil
}

// captureError reports a transport failure to Sentry, if initialized.
func (c *Client) captureError(ctx context.Context, path string, err error) {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("api.path", path)
			hub.CaptureException(err)
		})
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("api.path", path)
		sentry.CaptureException(err)
	})
}

// String implements fmt.Stringer without exposing the token.
func (c *Client) String() string {
	return fmt.Sprintf("budgetwatch.Client(%s)", Fingerprint(c.options.Token))
}
