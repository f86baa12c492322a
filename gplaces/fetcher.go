package gplaces

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gosom/scrapemate"
	"golang.org/x/time/rate"
)

var (
	ErrAPIStatus = errors.New("places api returned a retryable status")
	ErrHTTP      = errors.New("places api http error")
)

var _ scrapemate.HTTPFetcher = (*apiFetcher)(nil)

// delayable is implemented by jobs that must not be fetched before a
// point in time. Follow-up page jobs use it for the next_page_token
// warm-up period: the service rejects a token that is reused immediately.
type delayable interface {
	ActivationTime() time.Time
}

// apiFetcher issues Places API requests with two independent token
// buckets: text search pages are spaced by the pagination interval while
// details requests honor the service's separate, tighter rate limit.
type apiFetcher struct {
	client         *http.Client
	searchLimiter  *rate.Limiter
	detailsLimiter *rate.Limiter
}

func NewFetcher(pageInterval, detailsInterval time.Duration) scrapemate.HTTPFetcher {
	const timeout = 30 * time.Second

	return &apiFetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		searchLimiter:  newLimiter(pageInterval),
		detailsLimiter: newLimiter(detailsInterval),
	}
}

func newLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}

	return rate.NewLimiter(rate.Every(interval), 1)
}

func (f *apiFetcher) Close() error {
	f.client.CloseIdleConnections()

	return nil
}

func (f *apiFetcher) Fetch(ctx context.Context, job scrapemate.IJob) scrapemate.Response {
	var resp scrapemate.Response

	if d, ok := job.(delayable); ok {
		if err := waitUntil(ctx, d.ActivationTime()); err != nil {
			resp.Error = err

			return resp
		}
	}

	// Rate limits and the status envelope apply to the Places web service
	// only; business-website fetches (email extraction) pass through raw.
	isAPI := isPlacesURL(job.GetURL())

	if isAPI {
		if err := f.limiterFor(job.GetURL()).Wait(ctx); err != nil {
			resp.Error = err

			return resp
		}
	}

	if job.GetTimeout() > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, job.GetTimeout())
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.GetFullURL(), http.NoBody)
	if err != nil {
		resp.Error = err

		return resp
	}

	res, err := f.client.Do(req)
	if err != nil {
		resp.Error = err

		return resp
	}

	defer res.Body.Close()

	resp.URL = res.Request.URL.String()
	resp.StatusCode = res.StatusCode
	resp.Headers = res.Header.Clone()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		resp.Error = err

		return resp
	}

	resp.Body = body

	if res.StatusCode != http.StatusOK {
		resp.Error = fmt.Errorf("%w: %d", ErrHTTP, res.StatusCode)

		return resp
	}

	if !isAPI {
		return resp
	}

	// A 200 with a retryable envelope status (quota, transient backend
	// trouble) still needs another attempt; surface it as a fetch error so
	// the job's retry budget applies. Terminal statuses reach Process and
	// abandon the job there without burning retries.
	var envelope struct {
		Status string `json:"status"`
	}

	if err := json.Unmarshal(body, &envelope); err != nil {
		resp.Error = fmt.Errorf("malformed places response: %w", err)

		return resp
	}

	if IsRetryableStatus(envelope.Status) {
		resp.Error = fmt.Errorf("%w: %s", ErrAPIStatus, envelope.Status)
	}

	return resp
}

func (f *apiFetcher) limiterFor(u string) *rate.Limiter {
	if strings.Contains(u, "/details/") {
		return f.detailsLimiter
	}

	return f.searchLimiter
}

func isPlacesURL(u string) bool {
	return strings.Contains(u, "/maps/api/place/")
}

// acceptPlacesResponse is the retry gate for API jobs. A fetch error,
// which includes a 200 carrying a retryable envelope status, consumes a
// retry instead of reaching Process.
func acceptPlacesResponse(resp *scrapemate.Response) bool {
	return resp.Error == nil && resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices
}

func waitUntil(ctx context.Context, t time.Time) error {
	d := time.Until(t)
	if d <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
