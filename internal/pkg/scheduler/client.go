package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/derya/enrollsync/internal/app/models"
	"github.com/derya/enrollsync/internal/pkg/apperrors"
	"github.com/derya/enrollsync/internal/pkg/logger"
)

const (
	defaultCrawlerBaseURL = "https://gt-scheduler.github.io/crawler-v2/"
	defaultSeatBaseURL    = "https://gt-scheduler.azurewebsites.net/proxy/class_section?"

	defaultRequestTimeout = 30 * time.Second
	defaultMaxRetries     = 3
	defaultRetryBackoff   = time.Second
	defaultBatchSize      = 10
	defaultBatchPause     = 100 * time.Millisecond
	defaultCacheSize      = 8
	defaultCacheTTL       = 10 * time.Minute
)

// enrollmentLabels are the seat-count labels scraped from the seat proxy's
// HTML, in output column order.
var enrollmentLabels = []string{
	"Enrollment Actual",
	"Enrollment Maximum",
	"Enrollment Seats Available",
	"Waitlist Capacity",
	"Waitlist Actual",
	"Waitlist Seats Available",
}

var enrollmentPatterns = buildEnrollmentPatterns()

func buildEnrollmentPatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(enrollmentLabels))
	for _, label := range enrollmentLabels {
		patterns[label] = regexp.MustCompile(regexp.QuoteMeta(label) + `:</span> <span\s+dir="ltr">(\d+)</span>`)
	}
	return patterns
}

// Config holds the schedule-source client settings.
type Config struct {
	// CrawlerBaseURL is the base URL of the course catalog crawler.
	CrawlerBaseURL string
	// SeatBaseURL is the base URL of the per-CRN seat detail proxy.
	SeatBaseURL string
	// RequestTimeout bounds a single HTTP request.
	RequestTimeout time.Duration
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// RetryBackoff is the base backoff, doubled on every attempt.
	RetryBackoff time.Duration
	// BatchSize is how many seat requests run concurrently.
	BatchSize int
	// BatchPause is the pause between seat request batches.
	BatchPause time.Duration
	// CacheSize and CacheTTL bound the term payload cache.
	CacheSize int
	CacheTTL  time.Duration
}

func (c Config) withDefaults() Config {
	if c.CrawlerBaseURL == "" {
		c.CrawlerBaseURL = defaultCrawlerBaseURL
	}
	if c.SeatBaseURL == "" {
		c.SeatBaseURL = defaultSeatBaseURL
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = defaultRetryBackoff
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.BatchPause < 0 {
		c.BatchPause = defaultBatchPause
	}
	if c.CacheSize <= 0 {
		c.CacheSize = defaultCacheSize
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = defaultCacheTTL
	}
	return c
}

// Client fetches term catalogs and per-CRN seat counts from the external
// schedule source. Term payloads are cached so concurrent jobs touching the
// same term fetch it once.
type Client struct {
	cfg        Config
	httpClient *http.Client
	cache      *expirable.LRU[string, *models.TermPayload]
}

// NewClient builds a schedule-source client. Zero config fields fall back
// to production defaults.
func NewClient(cfg Config) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		cache:      expirable.NewLRU[string, *models.TermPayload](cfg.CacheSize, nil, cfg.CacheTTL),
	}
}

type termIndex struct {
	Terms []struct {
		Term string `json:"term"`
	} `json:"terms"`
}

type termDocument struct {
	Courses   map[string]json.RawMessage `json:"courses"`
	UpdatedAt string                     `json:"updatedAt"`
	Caches    struct {
		Periods []string `json:"periods"`
	} `json:"caches"`
}

// FetchNTerms returns up to n term codes, most recent first. Summer terms
// are skipped unless includeSummer is set; a shortfall is logged, not an
// error. The upstream index being unreachable is an error.
func (c *Client) FetchNTerms(ctx context.Context, n int, includeSummer bool) ([]string, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: term count must be positive, got %d", apperrors.ErrBadRequest, n)
	}

	body, err := c.fetchWithRetry(ctx, c.cfg.CrawlerBaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching term index: %v", apperrors.ErrUpstreamUnavailable, err)
	}

	var index termIndex
	if err := json.Unmarshal(body, &index); err != nil {
		return nil, fmt.Errorf("%w: decoding term index: %v", apperrors.ErrUpstreamUnavailable, err)
	}

	available := make([]string, 0, len(index.Terms))
	for _, t := range index.Terms {
		if t.Term != "" {
			available = append(available, t.Term)
		}
	}
	if len(available) == 0 {
		logger.Warn().Msg("Term index is empty")
		return nil, nil
	}

	// Term codes are YYYYMM, so reverse lexicographic order is reverse
	// chronological order.
	sort.Sort(sort.Reverse(sort.StringSlice(available)))

	selected := make([]string, 0, n)
	for _, term := range available {
		if len(selected) >= n {
			break
		}
		if !includeSummer && models.IsSummerTerm(term) {
			logger.Debug().Str("term", models.ParseTermName(term)).Msg("Skipping summer term")
			continue
		}
		selected = append(selected, term)
	}

	if len(selected) < n {
		logger.Warn().
			Int("requested", n).
			Int("selected", len(selected)).
			Bool("include_summer", includeSummer).
			Msg("Fewer terms available than requested")
	}
	return selected, nil
}

// FetchTermPayload fetches one term's course catalog, with meeting periods
// formatted to HH:MM pairs. Payloads are served from cache when fresh.
func (c *Client) FetchTermPayload(ctx context.Context, term string) (*models.TermPayload, error) {
	if payload, ok := c.cache.Get(term); ok {
		logger.Debug().Str("term", term).Msg("Term payload served from cache")
		return payload, nil
	}

	body, err := c.fetchWithRetry(ctx, c.cfg.CrawlerBaseURL+term+".json")
	if err != nil {
		return nil, fmt.Errorf("%w: fetching term %s: %v", apperrors.ErrUpstreamUnavailable, term, err)
	}

	var doc termDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: decoding term %s: %v", apperrors.ErrUpstreamUnavailable, term, err)
	}

	payload := &models.TermPayload{
		Term:      term,
		UpdatedAt: doc.UpdatedAt,
		Periods:   formatPeriods(doc.Caches.Periods),
		Courses:   doc.Courses,
	}
	c.cache.Add(term, payload)

	logger.Info().
		Str("term", models.ParseTermName(term)).
		Int("courses", len(payload.Courses)).
		Msg("Fetched term payload")
	return payload, nil
}

// FetchEnrollment fetches the seat counts for every CRN of a term. Requests
// run in concurrent batches with a pause between batches; a CRN whose fetch
// fails gets an all-nil entry rather than failing the term.
func (c *Client) FetchEnrollment(ctx context.Context, term string, crns []string) (map[string]models.Enrollment, error) {
	result := make(map[string]models.Enrollment, len(crns))
	if len(crns) == 0 {
		return result, nil
	}
	logger.Info().Int("crns", len(crns)).Str("term", term).Msg("Fetching enrollment data")

	var mu sync.Mutex
	for start := 0; start < len(crns); start += c.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		end := start + c.cfg.BatchSize
		if end > len(crns) {
			end = len(crns)
		}

		var wg sync.WaitGroup
		for _, crn := range crns[start:end] {
			wg.Add(1)
			go func(crn string) {
				defer wg.Done()
				url := fmt.Sprintf("%sterm=%s&crn=%s", c.cfg.SeatBaseURL, term, crn)
				body, err := c.fetchWithRetry(ctx, url)
				if err != nil {
					logger.Warn().Str("crn", crn).Err(err).Msg("Failed to fetch enrollment for CRN")
					body = nil
				}
				enrollment := parseEnrollment(string(body))
				mu.Lock()
				result[crn] = enrollment
				mu.Unlock()
			}(crn)
		}
		wg.Wait()

		if end < len(crns) && c.cfg.BatchPause > 0 {
			if err := sleepCtx(ctx, c.cfg.BatchPause); err != nil {
				return result, err
			}
		}
	}

	logger.Info().Int("crns", len(result)).Msg("Fetched enrollment data")
	return result, nil
}

// fetchWithRetry performs a GET with retries and exponential backoff. A 429
// waits out the backoff and retries; other non-200 statuses are retried the
// same way.
func (c *Client) fetchWithRetry(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := c.cfg.RetryBackoff << (attempt - 1)
			if err := sleepCtx(ctx, wait); err != nil {
				return nil, err
			}
		}

		body, status, err := c.doGet(ctx, url)
		if err != nil {
			lastErr = err
			logger.Warn().Str("url", url).Int("attempt", attempt+1).Err(err).Msg("Request failed")
			continue
		}
		switch {
		case status == http.StatusOK:
			return body, nil
		case status == http.StatusTooManyRequests:
			lastErr = apperrors.ErrUpstreamThrottled
			logger.Warn().Str("url", url).Int("attempt", attempt+1).Msg("Rate limited, backing off")
		default:
			lastErr = fmt.Errorf("unexpected status %d", status)
			logger.Warn().Str("url", url).Int("status", status).Msg("Unexpected response status")
		}
	}
	return nil, fmt.Errorf("all attempts failed for %s: %w", url, lastErr)
}

func (c *Client) doGet(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// formatPeriods turns raw "HHMM - HHMM" period strings into HH:MM pairs.
// "TBA" and malformed entries become empty pairs, keeping indexes aligned.
func formatPeriods(raw []string) [][2]string {
	periods := make([][2]string, 0, len(raw))
	for _, period := range raw {
		if period == "TBA" {
			periods = append(periods, [2]string{"", ""})
			continue
		}
		parts := strings.SplitN(period, " - ", 2)
		if len(parts) != 2 {
			periods = append(periods, [2]string{"", ""})
			continue
		}
		periods = append(periods, [2]string{formatClock(parts[0]), formatClock(parts[1])})
	}
	return periods
}

func formatClock(s string) string {
	if len(s) <= 2 {
		return s + ":"
	}
	return s[:2] + ":" + s[2:]
}

// parseEnrollment scrapes the six seat-count fields out of a seat detail
// HTML page. Labels absent from the page stay nil.
func parseEnrollment(page string) models.Enrollment {
	var enrollment models.Enrollment
	fields := map[string]**int{
		"Enrollment Actual":          &enrollment.Actual,
		"Enrollment Maximum":         &enrollment.Maximum,
		"Enrollment Seats Available": &enrollment.SeatsAvailable,
		"Waitlist Capacity":          &enrollment.WaitlistCapacity,
		"Waitlist Actual":            &enrollment.WaitlistActual,
		"Waitlist Seats Available":   &enrollment.WaitlistSeatsAvailable,
	}

	for label, target := range fields {
		m := enrollmentPatterns[label].FindStringSubmatch(page)
		if m == nil {
			continue
		}
		value, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		*target = &value
	}
	return enrollment
}
