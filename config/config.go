package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/aluiziolira/go-crawl-nhl/retry"
)

// DateLayout is the date format accepted on the command line and sent to the API.
const DateLayout = "2006-01-02"

// Config holds crawler configuration.
type Config struct {
	BaseURL         string
	StartDate       time.Time
	EndDate         time.Time
	SchemaVersion   string
	Timeout         time.Duration
	MaxRetries      int
	RetryBackoff    time.Duration
	RetryBackoffMax time.Duration
	Workers         int
	OutputFormat    string // csv, json, or dual
	StorageBackend  string // s3 or fs
	DestBucket      string
	S3EndpointURL   string
	AWSRegion       string
	OutputDir       string
	RedisURL        string
	CheckpointTTL   time.Duration
	DedupeMaxSize   int
	Force           bool
	MetricsAddr     string
	UserAgent       string
	Verbose         bool
}

// DefaultConfig returns the defaults of the original crawl window.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:         "https://statsapi.web.nhl.com/api/v1",
		StartDate:       time.Date(2020, 8, 4, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2020, 8, 5, 0, 0, 0, 0, time.UTC),
		SchemaVersion:   "v1",
		Timeout:         10 * time.Second,
		MaxRetries:      3,
		RetryBackoff:    500 * time.Millisecond,
		RetryBackoffMax: 8 * time.Second,
		Workers:         1,
		OutputFormat:    "csv",
		StorageBackend:  "s3",
		DestBucket:      "output",
		AWSRegion:       "us-east-1",
		OutputDir:       "output",
		CheckpointTTL:   30 * 24 * time.Hour,
		DedupeMaxSize:   100000,
		UserAgent:       "go-crawl-nhl/1.0",
	}
}

// RetryPolicy returns the backoff policy shared by fetches and storage writes.
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxRetries: c.MaxRetries,
		Backoff:    c.RetryBackoff,
		BackoffMax: c.RetryBackoffMax,
	}
}

// ParseDate parses a YYYY-MM-DD date in UTC.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", value, err)
	}
	return t, nil
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return fmt.Errorf("start date and end date are required")
	}
	if c.EndDate.Before(c.StartDate) {
		return fmt.Errorf("end date %s is before start date %s", c.EndDate.Format(DateLayout), c.StartDate.Format(DateLayout))
	}
	if c.SchemaVersion == "" {
		return fmt.Errorf("schema version cannot be empty")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.RetryBackoffMax < 0 {
		return fmt.Errorf("retry backoff max cannot be negative")
	}
	if c.RetryBackoffMax > 0 && c.RetryBackoff > c.RetryBackoffMax {
		return fmt.Errorf("retry backoff (%s) cannot exceed retry backoff max (%s)", c.RetryBackoff, c.RetryBackoffMax)
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	switch c.StorageBackend {
	case "s3":
		if c.DestBucket == "" {
			return fmt.Errorf("destination bucket cannot be empty")
		}
		if c.S3EndpointURL != "" {
			if u, err := url.Parse(c.S3EndpointURL); err != nil || u.Host == "" {
				return fmt.Errorf("invalid S3 endpoint URL %q", c.S3EndpointURL)
			}
		}
	case "fs":
		if c.OutputDir == "" {
			return fmt.Errorf("output dir cannot be empty")
		}
	default:
		return fmt.Errorf("storage backend must be s3 or fs")
	}
	if c.DedupeMaxSize <= 0 {
		return fmt.Errorf("dedupe max size must be positive")
	}
	if c.CheckpointTTL < 0 {
		return fmt.Errorf("checkpoint ttl cannot be negative")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}

	return nil
}
