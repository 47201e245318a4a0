package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/ppiankov/verifyhub/internal/model"
	"github.com/ppiankov/verifyhub/internal/util"
)

// PageFetcher retrieves one page. Implementations never return an error;
// every failure is described by the outcome.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) model.FetchOutcome
}

// Fetcher performs bounded-time GETs against evidence pages
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	timeout    time.Duration
	limiter    *util.Limiter
	robots     *util.RobotsChecker
}

// NewFetcher creates a Fetcher from the HTTP configuration
func NewFetcher(cfg model.HTTPConfig) *Fetcher {
	maxRedirects := cfg.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = 10
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 12 * time.Second
	}

	f := &Fetcher{
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
				TLSHandshakeTimeout: timeout,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBodyBytes,
		timeout:   timeout,
		limiter:   util.NewLimiter(cfg.RequestsPerSecond, cfg.Burst),
	}

	if cfg.RespectRobots {
		f.robots = util.NewRobotsChecker(cfg.UserAgent, timeout)
	}

	return f
}

// Fetch retrieves rawURL. The deadline covers the robots check, time queued on
// the per-host limiter, the request and the full body read; on expiry the
// in-flight request is cancelled and a Timeout outcome returned.
// Failed fetches are not retried.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) model.FetchOutcome {
	outcome := model.FetchOutcome{URL: rawURL}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if f.robots != nil {
		allowed, delay, err := f.robots.CanFetch(ctx, rawURL)
		if err == nil && !allowed {
			outcome.FailureKind = model.FailureDisallowed
			outcome.Err = "disallowed by robots.txt"
			return outcome
		}
		if delay > 0 {
			if parsed, perr := url.Parse(rawURL); perr == nil {
				f.limiter.SlowHost(parsed.Hostname(), delay)
			}
		}
	}

	if err := f.limiter.Wait(ctx, rawURL); err != nil {
		return failed(ctx, outcome, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		outcome.FailureKind = model.FailureNetworkError
		outcome.Err = fmt.Sprintf("create request: %v", err)
		return outcome
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return failed(ctx, outcome, err)
	}
	defer func() { _ = resp.Body.Close() }()

	outcome.HTTPStatus = resp.StatusCode
	outcome.FinalURL = resp.Request.URL.String()

	var body io.Reader = resp.Body
	if f.maxBytes > 0 {
		body = io.LimitReader(resp.Body, f.maxBytes)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return failed(ctx, outcome, fmt.Errorf("read body: %w", err))
	}
	outcome.Body = string(data)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		outcome.FailureKind = model.FailureNonSuccessStatus
		outcome.Err = fmt.Sprintf("unexpected status: %s", resp.Status)
		return outcome
	}

	outcome.Succeeded = true
	return outcome
}

// failed classifies a transport error as Timeout or NetworkError
func failed(ctx context.Context, outcome model.FetchOutcome, err error) model.FetchOutcome {
	outcome.Succeeded = false
	outcome.Err = err.Error()
	if isTimeout(ctx, err) {
		outcome.FailureKind = model.FailureTimeout
	} else {
		outcome.FailureKind = model.FailureNetworkError
	}
	return outcome
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
