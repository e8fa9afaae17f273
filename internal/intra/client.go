package intra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/alexanderramin/clustertrack/internal/domain"
)

// Client talks to the intra REST API.
type Client struct {
	cfg       Config
	http      *http.Client
	tokenHTTP *http.Client
	tokens    oauth2.TokenSource
	observer Observer
	logger   *slog.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the client used for API calls. Token requests do not
// go through it.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTokenHTTPClient sets the client used for the token exchange.
func WithTokenHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.tokenHTTP = hc }
}

// WithTokenSource replaces the client-credentials flow.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func WithObserver(o Observer) Option {
	return func(c *Client) {
		if o != nil {
			c.observer = o
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a Client. Without WithTokenSource it authenticates
// with the configured client credentials.
func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
		observer: NoopObserver{},
		logger:   slog.Default(),
		sleep:    sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tokens == nil {
		c.tokens = NewTokenSource(cfg, c.tokenHTTP)
	}
	return c
}

// FetchAllSessions returns every location record of a user, newest pages
// first as served. Pagination stops on a short page or after MaxPages.
// A failure on the first page is an error; a later failure returns what was
// collected so far.
func (c *Client) FetchAllSessions(ctx context.Context, login string) ([]domain.RawLocation, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, fmt.Errorf("%w: empty login", ErrPermanent)
	}
	path := "/v2/users/" + url.PathEscape(login) + "/locations"
	return c.paginate(ctx, path, nil, c.cfg.MaxPages)
}

// FetchActiveHosts returns the lower-cased hosts currently in use on the
// configured campus.
func (c *Client) FetchActiveHosts(ctx context.Context) (map[string]struct{}, error) {
	path := "/v2/campus/" + strconv.Itoa(c.cfg.CampusID) + "/locations"
	params := url.Values{"filter[active]": {"true"}}
	records, err := c.paginate(ctx, path, params, c.cfg.ActiveMaxPages)
	if err != nil {
		return nil, err
	}
	hosts := make(map[string]struct{}, len(records))
	for _, r := range records {
		if h := domain.NormalizeHost(r.Host); h != "" {
			hosts[h] = struct{}{}
		}
	}
	return hosts, nil
}

func (c *Client) paginate(ctx context.Context, path string, params url.Values, maxPages int) ([]domain.RawLocation, error) {
	perPage := c.cfg.PerPage
	if perPage <= 0 {
		perPage = 100
	}
	if maxPages <= 0 {
		maxPages = 1
	}

	var all []domain.RawLocation
	for page := 1; page <= maxPages; page++ {
		records, err := c.fetchPageWithRetry(ctx, path, params, page, perPage)
		if err != nil {
			if page == 1 {
				return nil, err
			}
			c.logger.Warn("pagination stopped early, keeping partial result",
				"path", path, "page", page, "records", len(all), "error", err)
			return all, nil
		}
		all = append(all, records...)
		if len(records) < perPage {
			break
		}
	}
	return all, nil
}

func (c *Client) fetchPageWithRetry(ctx context.Context, path string, params url.Values, page, perPage int) ([]domain.RawLocation, error) {
	attempts := 1 + c.cfg.MaxRetries
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			wait := c.cfg.backoffFor(attempt - 1)
			var httpErr *HTTPError
			if errors.As(lastErr, &httpErr) && httpErr.RetryAfter > wait {
				wait = httpErr.RetryAfter
				if c.cfg.MaxBackoff > 0 && wait > c.cfg.MaxBackoff {
					wait = c.cfg.MaxBackoff
				}
			}
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
		}

		start := time.Now()
		records, err := c.fetchPage(ctx, path, params, page, perPage)
		c.observer.OnPageFetched(PageEvent{
			Endpoint:  path,
			Page:      page,
			Attempt:   attempt,
			Records:   len(records),
			LatencyMs: time.Since(start).Milliseconds(),
			Success:   err == nil,
			ErrorCode: ErrorCode(err),
		})
		if err == nil {
			return records, nil
		}
		lastErr = err

		// Caller cancellation and non-transient errors are final.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !errors.Is(err, ErrTransient) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) fetchPage(ctx context.Context, path string, params url.Values, page, perPage int) ([]domain.RawLocation, error) {
	tok, err := c.tokens.Token()
	if err != nil {
		if errors.Is(err, ErrAuth) || errors.Is(err, ErrTransient) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrAuth, err)
	}

	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + path + "?" + q.Encode()

	if c.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", ErrPermanent, err)
	}
	tok.SetAuthHeader(req)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrTransient, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       excerpt(body, 200),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			kind:       classifyStatus(resp.StatusCode),
		}
	}

	var records []domain.RawLocation
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return records, nil
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

func excerpt(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
