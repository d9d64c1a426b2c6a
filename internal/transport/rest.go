package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/budgetwatch/budgetwatch-go/internal/types"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
)

const (
	authHeaderKey = "Authorization"
	contentType   = "application/json"
)

// emptyPayload is what callers receive for non-200 responses that are not
// quota failures: a valid, empty JSON object they can merge as "no data".
var emptyPayload = json.RawMessage(`{}`)

// RESTTransport performs authenticated reads against the YNAB REST API.
type RESTTransport struct {
	baseURL     string
	httpClient  *http.Client
	retryClient *retryablehttp.Client
	token       string
	logger      types.Logger
	hooks       *types.Hooks
}

// envelope is the top-level response shape: payloads arrive under "data".
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// Options for the REST transport
type Options struct {
	BaseURL     string
	HTTPClient  *http.Client
	Token       string
	RetryConfig *types.RetryConfig
	Logger      types.Logger
	Hooks       *types.Hooks
}

// NewRESTTransport creates a new REST transport
func NewRESTTransport(opts *Options) *RESTTransport {
	if opts == nil {
		opts = &Options{}
	}

	// Set defaults
	if opts.BaseURL == "" {
		opts.BaseURL = types.DefaultBaseURL
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{
			Timeout: types.DefaultTimeout,
		}
	}

	// Create retry client if configured
	var retryClient *retryablehttp.Client
	if opts.RetryConfig != nil {
		retryClient = retryablehttp.NewClient()
		retryClient.HTTPClient = opts.HTTPClient
		retryClient.RetryMax = opts.RetryConfig.MaxRetries
		retryClient.RetryWaitMin = opts.RetryConfig.RetryWait
		retryClient.RetryWaitMax = opts.RetryConfig.MaxWait

		// A 429 must surface as a quota failure, never be retried away
		// behind the caller's back.
		retryClient.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
			if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
				return false, nil
			}
			return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
		}

		if opts.Logger != nil {
			retryClient.Logger = &retryLogger{logger: opts.Logger}
		}
	}

	return &RESTTransport{
		baseURL:     opts.BaseURL,
		httpClient:  opts.HTTPClient,
		retryClient: retryClient,
		token:       opts.Token,
		logger:      opts.Logger,
		hooks:       opts.Hooks,
	}
}

// SetAuth sets the bearer token
func (t *RESTTransport) SetAuth(token string) {
	t.token = token
}

// Get issues a GET against path (relative to the base URL) and returns the
// "data" sub-object of the response. Non-200 statuses other than 429 are
// logged and come back as an empty payload; 429 is returned as
// types.ErrRateLimited so callers can apply their degraded-mode policy.
func (t *RESTTransport) Get(ctx context.Context, path string) (json.RawMessage, error) {
	url := t.baseURL + path

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	httpReq.Header.Set("Accept", contentType)
	httpReq.Header.Set("User-Agent", types.UserAgent)
	httpReq.Header.Set(authHeaderKey, fmt.Sprintf("Bearer %s", t.token))

	if t.hooks != nil && t.hooks.OnRequest != nil {
		t.hooks.OnRequest(ctx, httpReq)
	}

	if t.logger != nil {
		t.logger.Debug("API request", "url", url)
	}

	start := time.Now()
	resp, err := t.doRequest(httpReq)
	duration := time.Since(start)

	if err != nil {
		if t.hooks != nil && t.hooks.OnError != nil {
			t.hooks.OnError(ctx, err)
		}
		return nil, errors.Wrapf(err, "request failed: %s", url)
	}
	defer resp.Body.Close()

	if t.hooks != nil && t.hooks.OnResponse != nil {
		t.hooks.OnResponse(ctx, resp, duration)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}

	if t.logger != nil {
		t.logger.Debug("API response", "status", resp.StatusCode, "duration", duration, "size", len(respBody))
	}

	if resp.StatusCode != http.StatusOK {
		if t.logger != nil {
			t.logger.Error("API error", "status", resp.StatusCode, "url", url)
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, errors.Wrapf(types.ErrRateLimited, "url %s", url)
		}
		return emptyPayload, nil
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, errors.Wrap(err, "failed to parse response")
	}

	if len(env.Data) == 0 {
		return emptyPayload, nil
	}

	return env.Data, nil
}

// doRequest executes the HTTP request with retry if configured
func (t *RESTTransport) doRequest(req *http.Request) (*http.Response, error) {
	if t.retryClient != nil {
		retryReq, err := retryablehttp.FromRequest(req)
		if err != nil {
			return nil, err
		}
		return t.retryClient.Do(retryReq)
	}
	return t.httpClient.Do(req)
}

// retryLogger adapts our logger to retryablehttp
type retryLogger struct {
	logger types.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, keysAndValues...)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, keysAndValues...)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, keysAndValues...)
}
