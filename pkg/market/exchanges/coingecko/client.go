package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/zeromicro/go-zero/core/logx"

	"cryptodash/pkg/market"
)

const (
	defaultBaseURL      = "https://api.coingecko.com/api/v3"
	defaultHTTPTimeout  = 10 * time.Second
	defaultMaxRetries   = 3
	defaultRetryWait    = 150 * time.Millisecond
	defaultRetryMaxWait = 2 * time.Second
	defaultUserAgent    = "cryptodash/1.0"

	maxErrorBody = 256
)

// ErrUnexpectedStatus wraps non-2xx responses from the API.
var ErrUnexpectedStatus = errors.New("coingecko: unexpected status")

// Client wraps the public CoinGecko v3 REST endpoints.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	maxRetries   int
	retryWait    time.Duration
	retryMaxWait time.Duration
	userAgent    string

	rest *resty.Client
}

// Option configures a new Client.
type Option func(*Client)

// WithHTTPClient injects a custom http.Client (e.g. a recorder transport).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL overrides the default API root.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithMaxRetries adjusts the retry budget.
func WithMaxRetries(max int) Option {
	return func(c *Client) {
		if max >= 0 {
			c.maxRetries = max
		}
	}
}

// WithRetryWait sets the backoff bounds between attempts.
func WithRetryWait(wait, maxWait time.Duration) Option {
	return func(c *Client) {
		if wait > 0 {
			c.retryWait = wait
		}
		if maxWait >= wait && maxWait > 0 {
			c.retryMaxWait = maxWait
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient constructs a CoinGecko API client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:      defaultBaseURL,
		maxRetries:   defaultMaxRetries,
		retryWait:    defaultRetryWait,
		retryMaxWait: defaultRetryMaxWait,
		userAgent:    defaultUserAgent,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	client.rest = resty.NewWithClient(client.httpClient).
		SetLogger(restyLogger{}).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", client.userAgent).
		SetRetryCount(client.maxRetries).
		SetRetryWaitTime(client.retryWait).
		SetRetryMaxWaitTime(client.retryMaxWait).
		AddRetryCondition(retryable)
	return client
}

// retryable retries transport failures, throttling and server errors.
func retryable(resp *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if resp == nil {
		return false
	}
	code := resp.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// GetMarkets fetches one page of /coins/markets.
func (c *Client) GetMarkets(ctx context.Context, query market.MoversQuery) ([]market.Asset, error) {
	query = query.Normalized()
	body, err := c.get(ctx, "/coins/markets", map[string]string{
		"vs_currency": query.Currency,
		"order":       query.Order,
		"per_page":    strconv.Itoa(query.PerPage),
		"page":        strconv.Itoa(query.Page),
		"sparkline":   strconv.FormatBool(query.Sparkline),
	})
	if err != nil {
		return nil, err
	}

	var rows []marketRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: decode markets: %v", market.ErrMalformedResponse, err)
	}
	assets := make([]market.Asset, 0, len(rows))
	for i, row := range rows {
		asset, err := row.toAsset()
		if err != nil {
			return nil, fmt.Errorf("markets row %d: %w", i, err)
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

// GetTickers fetches /coins/{id}/tickers and keeps at most limit entries.
func (c *Client) GetTickers(ctx context.Context, coinID string, limit int) ([]market.ExchangeTicker, error) {
	coinID = strings.TrimSpace(coinID)
	if coinID == "" {
		return nil, fmt.Errorf("coingecko: coin id is required")
	}
	body, err := c.get(ctx, "/coins/"+url.PathEscape(coinID)+"/tickers", nil)
	if err != nil {
		return nil, err
	}
	return parseTickers(body, limit)
}

func (c *Client) get(ctx context.Context, path string, query map[string]string) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req := c.rest.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}

	resp, err := req.Get(c.baseURL + path)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("coingecko: request %s: %w", path, err)
	}
	if code := resp.StatusCode(); code < 200 || code >= 300 {
		return nil, fmt.Errorf("%w %d on %s: %s", ErrUnexpectedStatus, code, path, truncate(resp.Body()))
	}
	return resp.Body(), nil
}

func truncate(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}

// restyLogger routes resty diagnostics through logx.
type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...interface{}) {
	logx.Errorf("coingecko: "+format, v...)
}

func (restyLogger) Warnf(format string, v ...interface{}) {
	logx.Infof("coingecko: "+format, v...)
}

func (restyLogger) Debugf(format string, v ...interface{}) {
	logx.Debugf("coingecko: "+format, v...)
}
