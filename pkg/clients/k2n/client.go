package k2n

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/k2nservice/console/internal/config"
	"github.com/k2nservice/console/internal/domain/models"
)

// Resource paths relative to the API base URL.
const (
	PathLogin          = "auth/login/"
	PathAcquisitions   = "acquisitions"
	PathSales          = "sales"
	PathFunds          = "fonds"
	PathStocks         = "stocks"
	PathOutbound       = "sorties"
	PathReports        = "sales/rapport"
	PathContacts       = "contact/"
	PathDashboardStats = "dashboard/stats"
	PathFundState      = "etat_fonds"
)

// TokenSource returns the bearer token to attach to a request, or "".
type TokenSource func() string

// Client talks JSON over HTTP to the K2N backend. Every call is a single
// request/response: no retries, no caching.
type Client struct {
	http   *resty.Client
	tokens TokenSource
	logger *zap.Logger
}

// NewClient builds a backend client from the configuration.
func NewClient(cfg config.BackendConfig, tokens TokenSource, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tokens == nil {
		tokens = func() string { return "" }
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	restyClient := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &Client{http: restyClient, tokens: tokens, logger: logger}
}

// SetTokenSource swaps the token provider. The session store and the client
// depend on each other, so the provider is bound after both exist.
func (c *Client) SetTokenSource(tokens TokenSource) {
	if tokens != nil {
		c.tokens = tokens
	}
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx)
	if token := c.tokens(); token != "" {
		req.SetAuthToken(token)
	}
	return req
}

// Login exchanges credentials for a token and the operator identity.
func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	result := new(models.LoginResponse)
	apiErr := new(errorBody)

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(models.LoginRequest{Email: email, Password: password, RememberMe: true}).
		SetResult(result).
		SetError(apiErr).
		Post(PathLogin)
	if err != nil && !refused(resp) {
		c.logger.Warn("login request failed", zap.String("email", email), zap.Error(err))
		return nil, &AuthError{Message: DefaultAuthMessage}
	}

	if !resp.IsSuccess() {
		message := apiErr.reason()
		if message == "" {
			message = DefaultAuthMessage
		}
		c.logger.Info("login refused", zap.String("email", email), zap.Int("status", resp.StatusCode()))
		return nil, &AuthError{StatusCode: resp.StatusCode(), Message: message}
	}

	if result.Token == "" {
		return nil, &AuthError{StatusCode: resp.StatusCode(), Message: DefaultAuthMessage}
	}

	return result, nil
}

// DashboardStats reads the dashboard summary.
func (c *Client) DashboardStats(ctx context.Context) (models.DashboardStats, error) {
	var raw map[string]any

	resp, err := c.request(ctx).SetResult(&raw).Get(PathDashboardStats)
	if err != nil {
		return models.DashboardStats{}, &FetchError{Resource: PathDashboardStats, Err: err}
	}
	if !resp.IsSuccess() {
		return models.DashboardStats{}, &FetchError{Resource: PathDashboardStats, StatusCode: resp.StatusCode()}
	}

	var stats models.DashboardStats
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       decimalHook,
		WeaklyTypedInput: true,
		Result:           &stats,
	})
	if err != nil {
		return models.DashboardStats{}, fmt.Errorf("build stats decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return models.DashboardStats{}, &FetchError{Resource: PathDashboardStats, StatusCode: resp.StatusCode(), Err: err}
	}

	return stats, nil
}

// FundState reads the fund analytics payload.
func (c *Client) FundState(ctx context.Context) (models.FundState, error) {
	var state models.FundState

	resp, err := c.request(ctx).SetResult(&state).Get(PathFundState)
	if err != nil {
		return models.FundState{}, &FetchError{Resource: PathFundState, Err: err}
	}
	if !resp.IsSuccess() {
		return models.FundState{}, &FetchError{Resource: PathFundState, StatusCode: resp.StatusCode()}
	}

	return state, nil
}

// refused reports whether resp carries an HTTP error status. Resty also
// returns an error when such a body cannot be decoded; the status wins.
func refused(resp *resty.Response) bool {
	return resp != nil && resp.RawResponse != nil && resp.IsError()
}

// emptySuccess reports a 2xx response without a body to decode.
func emptySuccess(resp *resty.Response) bool {
	return resp != nil && resp.RawResponse != nil && resp.IsSuccess() && len(strings.TrimSpace(resp.String())) == 0
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

func decimalHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != decimalType || from == decimalType {
		return data, nil
	}
	if data == nil {
		return decimal.Zero, nil
	}
	text, err := cast.ToStringE(data)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(text)
	if err != nil {
		return nil, errors.New("not a number: " + text)
	}
	return value, nil
}
