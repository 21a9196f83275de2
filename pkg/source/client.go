package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/trailmap/pkg/buildinfo"
	"github.com/matzehuels/trailmap/pkg/cache"
	"github.com/matzehuels/trailmap/pkg/core/trail"
	"github.com/matzehuels/trailmap/pkg/errors"
	"github.com/matzehuels/trailmap/pkg/observability"
)

const (
	httpTimeout     = 10 * time.Second
	DefaultPageSize = 20
	DefaultMaxPages = 50
)

// Item is one step as listed by the backend.
type Item struct {
	ID                 string  `json:"id"`
	Status             string  `json:"status"`
	ProgressPercentage float64 `json:"progress_percentage"`
}

// Page is one page of a course listing.
type Page struct {
	Items    []Item `json:"items"`
	NextPage *int   `json:"next_page"`
}

// Result is the concatenation of every fetched page.
type Result struct {
	Steps   []trail.Step
	Pages   int
	Dropped int  // duplicate ids skipped across page boundaries
	Partial bool // stopped at MaxPages with more pages left
}

// Client talks to the learning backend.
type Client struct {
	http     *http.Client
	base     string
	token    string
	pageSize int
	cache    cache.Cache
	keyer    cache.Keyer
	backoff  cache.Backoff
	logger   *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithToken sends "Authorization: Bearer <token>" on every request.
func WithToken(token string) Option { return func(c *Client) { c.token = token } }

// WithPageSize sets the page_size query parameter.
func WithPageSize(n int) Option { return func(c *Client) { c.pageSize = n } }

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithKeyer sets the keyer used for page cache keys.
func WithKeyer(k cache.Keyer) Option { return func(c *Client) { c.keyer = k } }

// WithBackoff sets the retry policy.
func WithBackoff(b cache.Backoff) Option { return func(c *Client) { c.backoff = b } }

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option { return func(c *Client) { c.logger = l } }

// NewClient creates a client for the backend at baseURL. A nil cache
// disables page caching.
func NewClient(baseURL string, c cache.Cache, opts ...Option) (*Client, error) {
	if err := errors.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	cl := &Client{
		http:     &http.Client{Timeout: httpTimeout},
		base:     strings.TrimRight(baseURL, "/"),
		pageSize: DefaultPageSize,
		cache:    c,
		keyer:    cache.NewDefaultKeyer(),
		backoff:  cache.DefaultBackoff,
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(cl)
	}
	if cl.pageSize <= 0 {
		cl.pageSize = DefaultPageSize
	}
	return cl, nil
}

// BaseURL returns the backend root without a trailing slash.
func (c *Client) BaseURL() string { return c.base }

// FetchOptions control FetchAll.
type FetchOptions struct {
	MaxPages int  // 0 means DefaultMaxPages
	Refresh  bool // bypass cached pages
}

// FetchAll walks the course listing from page 1 and concatenates the items.
// The first occurrence of an id wins; later duplicates are dropped.
func (c *Client) FetchAll(ctx context.Context, course string, opts FetchOptions) (Result, error) {
	if err := errors.ValidateCourseID(course); err != nil {
		return Result{}, err
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	start := time.Now()
	observability.Pipeline().OnFetchStart(ctx, course)

	var res Result
	seen := make(map[string]bool)
	page := 1
	var err error
	for {
		var p Page
		p, err = c.FetchPage(ctx, course, page, opts.Refresh)
		if err != nil {
			break
		}
		res.Pages++
		for _, it := range p.Items {
			if seen[it.ID] {
				res.Dropped++
				continue
			}
			seen[it.ID] = true
			res.Steps = append(res.Steps, trail.Step{
				ID:       it.ID,
				Status:   trail.ParseStatus(it.Status),
				Progress: it.ProgressPercentage,
			})
		}
		if p.NextPage == nil {
			break
		}
		if res.Pages >= maxPages {
			res.Partial = true
			c.logger.Warn("stopped at page limit", "course", course, "pages", res.Pages)
			break
		}
		if *p.NextPage <= page {
			err = errors.New(errors.ErrCodeNetwork, "backend returned next_page %d after page %d", *p.NextPage, page)
			break
		}
		page = *p.NextPage
	}

	observability.Pipeline().OnFetchComplete(ctx, course, len(res.Steps), res.Pages, time.Since(start), err)
	if err != nil {
		return Result{}, err
	}
	if res.Steps == nil {
		res.Steps = []trail.Step{}
	}
	c.logger.Debug("fetched course", "course", course, "steps", len(res.Steps), "pages", res.Pages, "dropped", res.Dropped)
	return res, nil
}

// FetchPage returns one page, from cache unless refresh is set.
func (c *Client) FetchPage(ctx context.Context, course string, page int, refresh bool) (Page, error) {
	key := c.keyer.PageKey(c.base, course, page, c.pageSize)
	hooks := observability.Cache()

	if !refresh {
		if data, hit, err := c.cache.Get(ctx, key); err == nil && hit {
			var p Page
			if json.Unmarshal(data, &p) == nil {
				hooks.OnCacheHit(ctx, "page")
				return p, nil
			}
		}
		hooks.OnCacheMiss(ctx, "page")
	}

	var p Page
	err := c.backoff.Do(ctx, func() error {
		var ferr error
		p, ferr = c.get(ctx, course, page)
		return ferr
	})
	if err != nil {
		return Page{}, unwrapRetryable(err)
	}

	if data, err := json.Marshal(p); err == nil {
		if c.cache.Set(ctx, key, data, cache.TTLPage) == nil {
			hooks.OnCacheSet(ctx, "page", len(data))
		}
	}
	return p, nil
}

func (c *Client) pageURL(course string, page int) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(c.pageSize))
	return fmt.Sprintf("%s/courses/%s/steps?%s", c.base, url.PathEscape(course), q.Encode())
}

func (c *Client) get(ctx context.Context, course string, page int) (Page, error) {
	rawURL := c.pageURL(course, page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Page{}, errors.Wrap(errors.ErrCodeInternal, err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		if ctx.Err() != nil {
			return Page{}, errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "fetch page %d", page)
		}
		return Page{}, cache.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "fetch page %d", page))
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp, course, page); err != nil {
		return Page{}, err
	}

	var p Page
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return Page{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode page %d", page)
	}
	for i, it := range p.Items {
		if err := errors.ValidateStepID(it.ID); err != nil {
			return Page{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "page %d item %d", page, i)
		}
	}
	return p, nil
}

func checkStatus(resp *http.Response, course string, page int) error {
	code := resp.StatusCode
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "course %q not found", course)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return errors.New(errors.ErrCodeUnauthorized, "backend refused access (status %d)", code)
	case code == http.StatusTooManyRequests:
		retry, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return &errors.RateLimitedError{RetryAfter: retry, Message: fmt.Sprintf("page %d", page)}
	case code >= 500:
		return cache.Retryable(errors.New(errors.ErrCodeNetwork, "backend status %d on page %d", code, page))
	default:
		return errors.New(errors.ErrCodeNetwork, "unexpected backend status %d on page %d", code, page)
	}
}

func unwrapRetryable(err error) error {
	if re, ok := err.(*cache.RetryableError); ok {
		return re.Err
	}
	return err
}
