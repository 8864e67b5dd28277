package parser

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/aluiziolira/go-crawl-nhl/models"
	"github.com/aluiziolira/go-crawl-nhl/schema"
)

// PlayerRow is the full-width output row of one player in one game.
type PlayerRow struct {
	PlayerID  string
	PlayerKey string
	Side      models.Side
	Row       models.Row
}

// PlayerFailure records a player that could not be normalized.
type PlayerFailure struct {
	PlayerKey string
	Side      models.Side
	Err       error
}

// FlattenResult is the outcome of flattening one boxscore.
type FlattenResult struct {
	Rows     []PlayerRow
	Failures []PlayerFailure
}

// Flattener turns boxscores into one row per player.
type Flattener struct {
	all    []string
	person []string
	goalie []string
	skater []string
	logger *slog.Logger
}

// NewFlattener builds a Flattener over a schema. A nil logger uses slog.Default.
func NewFlattener(columns schema.Columns, logger *slog.Logger) *Flattener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Flattener{
		all:    columns.All(),
		person: columns.Person(),
		goalie: columns.Goalie(),
		skater: columns.Skater(),
		logger: logger,
	}
}

// Flatten processes the home side, then the away side. Within a side players
// are visited in ascending key order. Players that fail normalization are
// reported in Failures and do not stop the others.
func (f *Flattener) Flatten(gameID models.GameID, box *models.Boxscore) FlattenResult {
	result := FlattenResult{}
	if box == nil {
		return result
	}
	result.Rows = make([]PlayerRow, 0, box.PlayerCount())

	for _, side := range models.Sides {
		players := box.Team(side).Players
		keys := make([]string, 0, len(players))
		for key := range players {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			logger := f.logger.With(
				slog.String("game_id", gameID.String()),
				slog.String("side", string(side)),
				slog.String("player_key", key),
			)
			row, err := f.flattenPlayer(logger, players[key])
			if err != nil {
				result.Failures = append(result.Failures, PlayerFailure{PlayerKey: key, Side: side, Err: err})
				continue
			}
			row.PlayerKey = key
			row.Side = side
			result.Rows = append(result.Rows, row)
		}
	}
	return result
}

func (f *Flattener) flattenPlayer(logger *slog.Logger, entry models.PlayerEntry) (PlayerRow, error) {
	if entry.Person == nil {
		return PlayerRow{}, &MalformedRecordError{Fragment: "player", Field: "person"}
	}
	playerID := personID(entry.Person)
	if !entry.HasJerseyNumber {
		return PlayerRow{}, &MalformedRecordError{Fragment: "player", Field: "jerseyNumber", PlayerID: playerID}
	}

	logger.Debug("normalizing player",
		slog.String("player_id", playerID),
		slog.Any("full_name", entry.Person["fullName"]),
		slog.String("stats", entry.Stats.Kind().String()),
	)
	if entry.StatsConflict {
		logger.Warn("player has both goalie and skater stats, keeping goalie stats",
			slog.String("player_id", playerID),
		)
	}

	person, err := NormalizePerson(entry.Person, entry.JerseyNumber, f.person)
	if err != nil {
		return PlayerRow{}, err
	}
	goalie, err := NormalizeGoalieStats(entry.Stats.Goalie(), f.goalie)
	if err != nil {
		return PlayerRow{}, withPlayer(err, playerID)
	}
	skater, err := NormalizeSkaterStats(entry.Stats.Skater(), f.skater)
	if err != nil {
		return PlayerRow{}, withPlayer(err, playerID)
	}

	parts := make([]models.Row, 0, 1+len(goalie)+len(skater))
	parts = append(parts, person)
	parts = append(parts, goalie...)
	parts = append(parts, skater...)

	row, err := models.Reindex(f.all, parts...)
	if err != nil {
		return PlayerRow{}, fmt.Errorf("reindex player %s: %w", playerID, err)
	}
	return PlayerRow{PlayerID: playerID, Row: row}, nil
}
