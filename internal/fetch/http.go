package fetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tablefare/enrich-cli/internal/resilience"
)

// maxBodyBytes bounds how much of a listing page is read into memory.
const maxBodyBytes = 2 << 20

// Options configures the HTTP fetcher.
type Options struct {
	Timeout    time.Duration
	Retry      resilience.Policy
	Identities *IdentityPool

	// RequestsPerSecond is the per-host politeness rate. The reference
	// behavior of one request every 2 seconds corresponds to 0.5.
	RequestsPerSecond float64
	Burst             int
}

// HTTPFetcher implements Fetcher using net/http with redirects followed,
// per-host rate limiting, block detection and identity-rotating retries.
type HTTPFetcher struct {
	client     *http.Client
	retry      resilience.Policy
	identities *IdentityPool

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

// NewHTTPFetcher creates an HTTPFetcher with the given options.
func NewHTTPFetcher(opts Options) *HTTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 0.5
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.Identities == nil {
		opts.Identities = NewIdentityPool(nil)
	}
	transport := &http.Transport{
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		retry:      opts.Retry,
		identities: opts.Identities,
		limiters:   make(map[string]*rate.Limiter),
		rps:        rate.Limit(opts.RequestsPerSecond),
		burst:      opts.Burst,
	}
}

func (f *HTTPFetcher) limiterFor(rawURL string) *rate.Limiter {
	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	lim, ok := f.limiters[host]
	if !ok {
		lim = rate.NewLimiter(f.rps, f.burst)
		f.limiters[host] = lim
	}
	return lim
}

// Fetch retrieves targetURL, following redirects and recording the final
// resolved URL. Transient failures and anti-bot blocks are retried under a
// rotated identity per the configured policy.
func (f *HTTPFetcher) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	policy := f.retry
	userOnRetry := policy.OnRetry
	policy.OnRetry = func(attempt int, err error) {
		agent := f.identities.Rotate()
		zap.L().Debug("fetch: rotating identity for retry",
			zap.String("url", targetURL),
			zap.Int("attempt", attempt),
			zap.String("user_agent", agent),
		)
		if userOnRetry != nil {
			userOnRetry(attempt, err)
		}
	}

	return resilience.DoVal(ctx, policy, func(ctx context.Context) (*Page, error) {
		if err := f.limiterFor(targetURL).Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "fetch: rate limiter wait")
		}
		return f.fetchOnce(ctx, targetURL)
	})
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, targetURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: create request %s", targetURL)
	}
	req.Header.Set("User-Agent", f.identities.Current())
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-GB,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: get %s", targetURL)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: read body %s", targetURL)
	}

	if blocked, blockType := DetectBlock(resp, body); blocked {
		zap.L().Warn("fetch: blocked response",
			zap.String("url", targetURL),
			zap.String("block_type", string(blockType)),
			zap.Int("status", resp.StatusCode),
		)
		return nil, resilience.NewTransientError(
			eris.Errorf("fetch: blocked (%s) at %s", blockType, targetURL),
			resp.StatusCode,
		)
	}

	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		return nil, resilience.NewTransientError(
			eris.Errorf("fetch: http %d from %s", resp.StatusCode, targetURL),
			resp.StatusCode,
		)
	}
	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("fetch: http %d from %s", resp.StatusCode, targetURL)
	}

	finalURL := targetURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Page{
		FinalURL:   finalURL,
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}
