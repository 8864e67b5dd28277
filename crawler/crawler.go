// Package crawler walks a schedule window and stores one record per player
// per game.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/aluiziolira/go-crawl-nhl/checkpoint"
	"github.com/aluiziolira/go-crawl-nhl/config"
	"github.com/aluiziolira/go-crawl-nhl/models"
	"github.com/aluiziolira/go-crawl-nhl/parser"
	"github.com/aluiziolira/go-crawl-nhl/pipeline"
	"github.com/aluiziolira/go-crawl-nhl/schema"
	"github.com/aluiziolira/go-crawl-nhl/statsapi"
)

const (
	gameSucceeded = "succeeded"
	gameFailed    = "failed"
	gameSkipped   = "skipped"

	playerStored    = "stored"
	playerFailed    = "failed"
	playerDuplicate = "duplicate"
)

// Source fetches schedules and boxscores.
type Source interface {
	Schedule(ctx context.Context, start, end time.Time) (*models.Schedule, error)
	Boxscore(ctx context.Context, gameID models.GameID) (*models.Boxscore, error)
}

// Sink stores one flattened player row.
type Sink interface {
	Store(ctx context.Context, gameID models.GameID, row parser.PlayerRow) error
}

// Options configures a Crawler.
type Options struct {
	Columns    schema.Columns
	Workers    int
	Checkpoint checkpoint.Checkpoint // nil disables skipping
	Metrics    *Metrics
	Logger     *slog.Logger
}

// Crawler drives schedule fetch, boxscore fetch, flattening and storage.
type Crawler struct {
	source     Source
	sink       Sink
	flattener  *parser.Flattener
	version    string
	workers    int
	checkpoint checkpoint.Checkpoint
	metrics    *Metrics
	logger     *slog.Logger
}

// New builds a crawler.
func New(source Source, sink Sink, opts Options) *Crawler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	cp := opts.Checkpoint
	if cp == nil {
		cp = checkpoint.Nop{}
	}

	return &Crawler{
		source:     source,
		sink:       sink,
		flattener:  parser.NewFlattener(opts.Columns, logger),
		version:    opts.Columns.Version(),
		workers:    workers,
		checkpoint: cp,
		metrics:    opts.Metrics,
		logger:     logger,
	}
}

// Run crawls every game scheduled between start and end. A schedule fetch
// failure ends the run with an error. Failures of single games or players are
// counted in the result and never stop the others. Once ctx is cancelled no
// new games are started and ctx.Err() is returned with the partial result.
func (c *Crawler) Run(ctx context.Context, start, end time.Time) (*models.CrawlResult, error) {
	result := models.NewCrawlResult(start, end, c.version)
	logger := c.logger.With(
		slog.String("start_date", start.Format(config.DateLayout)),
		slog.String("end_date", end.Format(config.DateLayout)),
		slog.String("schema_version", c.version),
	)
	logger.Info("crawl started", slog.Int("workers", c.workers))

	schedule, err := c.source.Schedule(ctx, start, end)
	if err != nil {
		category := fetchCategory(err)
		result.FailuresByCategory[category]++
		c.metrics.addFailures(category, 1)
		c.finish(logger, result)
		return result, fmt.Errorf("fetch schedule: %w", err)
	}

	if !schedule.DatesPresent {
		logger.Warn("schedule response has no dates, nothing to crawl")
		result.EmptyWindow = true
		c.finish(logger, result)
		return result, nil
	}

	gameIDs := parser.GameIDs(schedule)
	if len(gameIDs) == 0 {
		logger.Warn("no games scheduled in window", slog.Int("dates", len(schedule.Dates)))
		result.EmptyWindow = true
		c.finish(logger, result)
		return result, nil
	}
	logger.Info("schedule fetched", slog.Int("games", len(gameIDs)))

	if err := c.crawlGames(ctx, logger, gameIDs, result); err != nil {
		c.finish(logger, result)
		return result, err
	}

	c.finish(logger, result)
	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("crawl interrupted: %w", err)
	}
	return result, nil
}

func (c *Crawler) crawlGames(ctx context.Context, logger *slog.Logger, gameIDs []models.GameID, result *models.CrawlResult) error {
	pool, err := ants.NewPool(c.workers)
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		mu      sync.Mutex
		workers sync.WaitGroup
	)
	for i, gameID := range gameIDs {
		if ctx.Err() != nil {
			logger.Warn("crawl cancelled, not starting remaining games", slog.Int("remaining", len(gameIDs)-i))
			break
		}

		gameID := gameID
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			if ctx.Err() != nil {
				return
			}
			outcome := c.crawlGame(ctx, gameID)
			mu.Lock()
			outcome.apply(result)
			mu.Unlock()
		}); err != nil {
			workers.Done()
			workers.Wait()
			return fmt.Errorf("submit game %s: %w", gameID, err)
		}
	}
	workers.Wait()
	return nil
}

type gameOutcome struct {
	gameID           models.GameID
	status           string
	playersStored    int
	playersFailed    int
	playersDuplicate int
	failures         map[string]int
}

func (o gameOutcome) apply(result *models.CrawlResult) {
	switch o.status {
	case gameSkipped:
		result.GamesSkipped++
		return
	case gameSucceeded:
		result.GamesSucceeded++
	case gameFailed:
		result.GamesFailed++
		result.FailedGames = append(result.FailedGames, o.gameID)
	}
	result.GamesAttempted++
	result.PlayersStored += o.playersStored
	result.PlayersFailed += o.playersFailed
	result.PlayersDuplicate += o.playersDuplicate
	for category, n := range o.failures {
		result.FailuresByCategory[category] += n
	}
}

func (c *Crawler) crawlGame(ctx context.Context, gameID models.GameID) gameOutcome {
	logger := c.logger.With(slog.String("game_id", gameID.String()))
	outcome := gameOutcome{gameID: gameID, failures: map[string]int{}}
	defer func() {
		c.metrics.incGame(outcome.status)
		c.metrics.addPlayers(playerStored, outcome.playersStored)
		c.metrics.addPlayers(playerFailed, outcome.playersFailed)
		c.metrics.addPlayers(playerDuplicate, outcome.playersDuplicate)
		for category, n := range outcome.failures {
			c.metrics.addFailures(category, n)
		}
	}()

	done, err := c.checkpoint.Done(ctx, c.version, gameID)
	if err != nil {
		outcome.failures[models.FailureCheckpoint]++
		logger.Warn("checkpoint lookup failed, crawling game", slog.Any("error", err))
	}
	if done {
		logger.Info("game already stored, skipping")
		outcome.status = gameSkipped
		return outcome
	}

	box, err := c.source.Boxscore(ctx, gameID)
	if err != nil {
		outcome.status = gameFailed
		outcome.failures[fetchCategory(err)]++
		logger.Error("boxscore fetch failed, skipping game", slog.Any("error", err))
		return outcome
	}

	flat := c.flattener.Flatten(gameID, box)
	for _, failure := range flat.Failures {
		outcome.playersFailed++
		outcome.failures[models.FailureMalformedRecord]++
		logger.Warn("malformed player record, skipping player",
			slog.String("side", string(failure.Side)),
			slog.String("player_key", failure.PlayerKey),
			slog.Any("error", failure.Err),
		)
	}

	storeFailures := 0
	for _, row := range flat.Rows {
		err := c.sink.Store(ctx, gameID, row)
		switch {
		case err == nil:
			outcome.playersStored++
			continue
		case errors.Is(err, pipeline.ErrDuplicateKey):
			outcome.playersDuplicate++
			outcome.failures[models.FailureDuplicateKey]++
			logger.Warn("player record already stored for this game, skipping",
				slog.String("player_id", row.PlayerID),
				slog.String("side", string(row.Side)),
				slog.String("player_key", row.PlayerKey),
			)
			continue
		}

		outcome.playersFailed++
		category := failureCategory(err)
		outcome.failures[category]++
		if category == models.FailureStorageWrite {
			storeFailures++
		}
		logger.Error("player record not stored",
			slog.String("player_id", row.PlayerID),
			slog.String("category", category),
			slog.Any("error", err),
		)
	}

	if storeFailures > 0 {
		outcome.status = gameFailed
		return outcome
	}
	outcome.status = gameSucceeded

	if outcome.playersFailed > 0 {
		logger.Warn("game has players that were not stored, leaving it unmarked for a later run",
			slog.Int("players_failed", outcome.playersFailed),
		)
		return outcome
	}
	if err := c.checkpoint.Mark(context.WithoutCancel(ctx), c.version, gameID); err != nil {
		outcome.failures[models.FailureCheckpoint]++
		logger.Warn("checkpoint mark failed", slog.Any("error", err))
	}
	logger.Debug("game stored", slog.Int("players", outcome.playersStored))
	return outcome
}

// fetchCategory labels a Source error; only marked stats API failures count
// as upstream fetch failures.
func fetchCategory(err error) string {
	if statsapi.IsUpstreamFetch(err) {
		return models.FailureUpstreamFetch
	}
	return models.FailureUnclassified
}

func failureCategory(err error) string {
	if errors.Is(err, parser.ErrMalformedPlayerRecord) {
		return models.FailureMalformedRecord
	}
	return models.FailureStorageWrite
}

func (c *Crawler) finish(logger *slog.Logger, result *models.CrawlResult) {
	result.EndTime = time.Now()
	duration := result.EndTime.Sub(result.StartTime)
	c.metrics.observeRun(duration)

	categories := make([]string, 0, len(result.FailuresByCategory))
	for category := range result.FailuresByCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	failures := make([]any, 0, len(categories))
	for _, category := range categories {
		failures = append(failures, slog.Int(category, result.FailuresByCategory[category]))
	}

	logger.Info("crawl finished",
		slog.Int("games_attempted", result.GamesAttempted),
		slog.Int("games_succeeded", result.GamesSucceeded),
		slog.Int("games_skipped", result.GamesSkipped),
		slog.Int("games_failed", result.GamesFailed),
		slog.Int("players_stored", result.PlayersStored),
		slog.Int("players_failed", result.PlayersFailed),
		slog.Int("players_duplicate", result.PlayersDuplicate),
		slog.Bool("empty_window", result.EmptyWindow),
		slog.Group("failures", failures...),
		slog.Duration("duration", duration),
	)
}
