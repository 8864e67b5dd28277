// Package pipeline encodes flattened player rows and stores one object per
// player per game.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aluiziolira/go-crawl-nhl/models"
	"github.com/aluiziolira/go-crawl-nhl/parser"
	"github.com/aluiziolira/go-crawl-nhl/retry"
	"github.com/aluiziolira/go-crawl-nhl/storage"
)

const defaultDedupeSize = 100000

// ErrDuplicateKey is returned by Sink.Store when an object key was already
// written by this sink, e.g. a player listed on both sides of one game.
var ErrDuplicateKey = errors.New("object key already written")

// Sink writes player rows to a Store.
type Sink struct {
	store    storage.Store
	encoders []Encoder
	policy   retry.Policy
	written  *lru.Cache[string, struct{}]
	logger   *slog.Logger

	metrics metrics
}

// NewSink builds a sink. dedupeSize bounds the set of keys remembered as
// written during this process.
func NewSink(store storage.Store, encoders []Encoder, policy retry.Policy, dedupeSize int, logger *slog.Logger) (*Sink, error) {
	if store == nil {
		return nil, errors.New("pipeline: store is required")
	}
	if len(encoders) == 0 {
		encoders = []Encoder{CSVEncoder{}}
	}
	if dedupeSize <= 0 {
		dedupeSize = defaultDedupeSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	written, err := lru.New[string, struct{}](dedupeSize)
	if err != nil {
		return nil, fmt.Errorf("create dedupe cache: %w", err)
	}

	return &Sink{
		store:    store,
		encoders: encoders,
		policy:   policy,
		written:  written,
		logger:   logger,
		metrics:  newMetrics(),
	}, nil
}

// Store writes row under "{playerId}/{gameId}.{ext}" for every encoder. Keys
// already written by this sink are skipped and reported with ErrDuplicateKey
// once the remaining keys are written. Writes run on a context detached
// from cancellation so an interrupted crawl does not leave half-written
// records. A failed write returns an error matching storage.ErrStorageWrite.
func (s *Sink) Store(ctx context.Context, gameID models.GameID, row parser.PlayerRow) error {
	key, err := storage.NewKey(row.PlayerID, gameID)
	if err != nil {
		s.metrics.addFailure("invalid_key")
		return &parser.MalformedRecordError{Fragment: "person", Field: "id", PlayerID: row.PlayerID}
	}

	writeCtx := context.WithoutCancel(ctx)
	var duplicates []string
	for _, enc := range s.encoders {
		objectKey := key.Render(enc.Extension())
		if s.written.Contains(objectKey) {
			s.metrics.incrementDuplicates()
			s.logger.Warn("object already written, skipping",
				slog.String("key", objectKey),
				slog.String("game_id", gameID.String()),
				slog.String("player_key", row.PlayerKey),
			)
			duplicates = append(duplicates, objectKey)
			continue
		}

		body, err := enc.Encode([]models.Row{row.Row})
		if err != nil {
			s.metrics.addFailure("encode")
			return fmt.Errorf("%w: encode %s: %w", storage.ErrStorageWrite, objectKey, err)
		}

		if err := s.put(writeCtx, objectKey, body, enc.ContentType()); err != nil {
			s.metrics.addFailure("write")
			s.logger.Error("storage write failed",
				slog.String("key", objectKey),
				slog.String("game_id", gameID.String()),
				slog.String("player_id", row.PlayerID),
				slog.Any("error", err),
			)
			if !errors.Is(err, storage.ErrStorageWrite) {
				err = fmt.Errorf("%w: %w", storage.ErrStorageWrite, err)
			}
			return err
		}

		s.written.Add(objectKey, struct{}{})
		s.metrics.incrementStored()
	}
	if len(duplicates) > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, strings.Join(duplicates, ", "))
	}
	return nil
}

func (s *Sink) put(ctx context.Context, key string, body []byte, contentType string) error {
	return retry.Do(ctx, s.policy, func(int) error {
		return s.store.Put(ctx, key, body, contentType)
	}, nil, func(attempt int, delay time.Duration, err error) {
		s.metrics.incrementRetries()
		s.logger.Warn("storage write failed, retrying",
			slog.String("key", key),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.Any("error", err),
		)
	})
}

// GetMetrics returns a snapshot of the internal counters.
func (s *Sink) GetMetrics() map[string]interface{} {
	return s.metrics.snapshot()
}

type metrics struct {
	mu         sync.Mutex
	stored     int64
	duplicates int64
	retries    int64
	failures   map[string]int
}

func newMetrics() metrics {
	return metrics{
		failures: make(map[string]int),
	}
}

func (m *metrics) incrementStored() {
	m.mu.Lock()
	m.stored++
	m.mu.Unlock()
}

func (m *metrics) incrementDuplicates() {
	m.mu.Lock()
	m.duplicates++
	m.mu.Unlock()
}

func (m *metrics) incrementRetries() {
	m.mu.Lock()
	m.retries++
	m.mu.Unlock()
}

func (m *metrics) addFailure(kind string) {
	m.mu.Lock()
	m.failures[kind]++
	m.mu.Unlock()
}

func (m *metrics) snapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	copyFailures := make(map[string]int, len(m.failures))
	for k, v := range m.failures {
		copyFailures[k] = v
	}

	return map[string]interface{}{
		"stored_objects": m.stored,
		"duplicate_keys": m.duplicates,
		"write_retries":  m.retries,
		"write_failures": copyFailures,
	}
}
