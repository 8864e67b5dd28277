// Package statsapi fetches schedules and boxscores from the NHL stats API.
package statsapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/gocolly/colly/v2"

	"github.com/aluiziolira/go-crawl-nhl/config"
	"github.com/aluiziolira/go-crawl-nhl/models"
	"github.com/aluiziolira/go-crawl-nhl/parser"
	"github.com/aluiziolira/go-crawl-nhl/retry"
)

const (
	phaseSchedule = "schedule"
	phaseBoxscore = "boxscore"
)

// Client wraps a colly collector with retry logic for the stats API.
type Client struct {
	baseURL   string
	collector *colly.Collector
	policy    retry.Policy
	metrics   *Metrics
	logger    *slog.Logger
}

// NewClient builds a client configured from cfg. metrics and logger may be nil.
func NewClient(cfg *config.Config, metrics *Metrics, logger *slog.Logger) (*Client, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}
	if logger == nil {
		logger = slog.Default()
	}

	collector := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
	)
	collector.SetRequestTimeout(cfg.Timeout)
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        16,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		collector: collector,
		policy:    cfg.RetryPolicy(),
		metrics:   metrics,
		logger:    logger,
	}, nil
}

// Schedule fetches the games scheduled between start and end, inclusive.
func (c *Client) Schedule(ctx context.Context, start, end time.Time) (*models.Schedule, error) {
	query := url.Values{}
	query.Set("startDate", start.Format(config.DateLayout))
	query.Set("endDate", end.Format(config.DateLayout))
	target := c.url("schedule") + "?" + query.Encode()

	body, err := c.get(ctx, phaseSchedule, target)
	if err != nil {
		return nil, err
	}
	schedule, err := parser.DecodeSchedule(body)
	if err != nil {
		c.metrics.IncError(phaseSchedule, errorTypeLabel(err))
		return nil, upstream(phaseSchedule, target, err)
	}
	return schedule, nil
}

// Boxscore fetches the boxscore of one game.
func (c *Client) Boxscore(ctx context.Context, gameID models.GameID) (*models.Boxscore, error) {
	target := c.url("game", gameID.String(), "boxscore")

	body, err := c.get(ctx, phaseBoxscore, target)
	if err != nil {
		return nil, err
	}
	box, err := parser.DecodeBoxscore(body)
	if err != nil {
		c.metrics.IncError(phaseBoxscore, errorTypeLabel(err))
		return nil, upstream(phaseBoxscore, target, err)
	}
	return box, nil
}

// IsUpstreamFetch reports whether err is a stats API fetch failure.
func IsUpstreamFetch(err error) bool {
	return crerr.Is(err, ErrUpstreamFetch)
}

func upstream(phase, target string, err error) error {
	return crerr.Mark(fmt.Errorf("fetch %s %s: %w", phase, target, err), ErrUpstreamFetch)
}

func (c *Client) url(parts ...string) string {
	escaped := make([]string, 0, len(parts))
	for _, p := range parts {
		escaped = append(escaped, url.PathEscape(p))
	}
	return c.baseURL + "/" + strings.Join(escaped, "/")
}

func (c *Client) get(ctx context.Context, phase, target string) ([]byte, error) {
	var body []byte
	err := retry.Do(ctx, c.policy, func(int) error {
		var err error
		body, err = c.fetchOnce(phase, target)
		return err
	}, retryable, func(attempt int, delay time.Duration, err error) {
		c.metrics.IncRetries(phase)
		c.logger.Warn("stats api request failed, retrying",
			slog.String("phase", phase),
			slog.String("url", target),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.Any("error", err),
		)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, upstream(phase, target, err)
		}
		c.logger.Error("stats api request failed",
			slog.String("phase", phase),
			slog.String("url", target),
			slog.String("category", errorTypeLabel(err)),
			slog.Any("error", err),
		)
		return nil, upstream(phase, target, err)
	}
	return body, nil
}

func (c *Client) fetchOnce(phase, target string) ([]byte, error) {
	collector := c.collector.Clone()

	var (
		body       []byte
		statusCode int
	)
	collector.OnResponse(func(r *colly.Response) {
		statusCode = r.StatusCode
		body = r.Body
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			statusCode = r.StatusCode
		}
	})

	c.metrics.IncRequest(phase)
	start := time.Now()
	err := collector.Request(http.MethodGet, target, nil, colly.NewContext(), http.Header{"Accept": []string{"application/json"}})
	c.metrics.ObserveDuration(phase, time.Since(start))

	if classified := classifyError(err, statusCode); classified != nil {
		c.metrics.IncError(phase, errorTypeLabel(classified))
		return nil, classified
	}
	return body, nil
}

func classifyError(err error, statusCode int) error {
	if err == nil && (statusCode == 0 || statusCode < http.StatusBadRequest) {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}

	if statusCode >= http.StatusBadRequest {
		wrapped := err
		if wrapped == nil {
			wrapped = errors.New(http.StatusText(statusCode))
		}
		return ErrStatus{StatusCode: statusCode, Err: wrapped}
	}

	return err
}
