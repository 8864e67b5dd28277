package statsapi

import (
	"errors"
	"fmt"

	crerr "github.com/cockroachdb/errors"

	"github.com/aluiziolira/go-crawl-nhl/parser"
)

// ErrUpstreamFetch marks every failure to obtain a usable schedule or boxscore.
var ErrUpstreamFetch = crerr.New("upstream fetch failure")

// ErrTimeout indicates a timeout while issuing a request.
type ErrTimeout struct {
	Err error
}

func (e ErrTimeout) Error() string {
	return fmt.Errorf("timeout: %w", e.Err).Error()
}

func (e ErrTimeout) Unwrap() error {
	return e.Err
}

// ErrConnection indicates a network connectivity failure.
type ErrConnection struct {
	Err error
}

func (e ErrConnection) Error() string {
	return fmt.Errorf("connection: %w", e.Err).Error()
}

func (e ErrConnection) Unwrap() error {
	return e.Err
}

// ErrStatus indicates an HTTP error status from the stats API.
type ErrStatus struct {
	StatusCode int
	Err        error
}

func (e ErrStatus) Error() string {
	return fmt.Errorf("http status %d: %w", e.StatusCode, e.Err).Error()
}

func (e ErrStatus) Unwrap() error {
	return e.Err
}

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var timeout ErrTimeout
	if errors.As(err, &timeout) {
		return "timeout"
	}
	var conn ErrConnection
	if errors.As(err, &conn) {
		return "connection"
	}
	var status ErrStatus
	if errors.As(err, &status) {
		switch {
		case status.StatusCode == 403:
			return "forbidden"
		case status.StatusCode == 404:
			return "not_found"
		case status.StatusCode == 429:
			return "rate_limited"
		case status.StatusCode >= 500:
			return "server"
		default:
			return "client"
		}
	}
	if errors.Is(err, parser.ErrInvalidPayload) {
		return "decode"
	}
	return "other"
}

// retryable reports whether a classified error is worth another attempt.
func retryable(err error) bool {
	switch errorTypeLabel(err) {
	case "timeout", "connection", "rate_limited", "server", "other":
		return true
	default:
		return false
	}
}
