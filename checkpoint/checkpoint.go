// Package checkpoint remembers games whose players were all stored, so a
// re-run of the same window can skip them.
package checkpoint

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aluiziolira/go-crawl-nhl/models"
)

// Checkpoint records completed games per schema version.
type Checkpoint interface {
	Done(ctx context.Context, schemaVersion string, gameID models.GameID) (bool, error)
	Mark(ctx context.Context, schemaVersion string, gameID models.GameID) error
}

// Key returns the checkpoint key of a game.
func Key(schemaVersion string, gameID models.GameID) string {
	return fmt.Sprintf("nhlcrawler:%s:game:%s", schemaVersion, gameID)
}

// Memory is a process-local checkpoint bounded to size entries.
type Memory struct {
	games *lru.Cache[string, struct{}]
}

// NewMemory returns an in-memory checkpoint.
func NewMemory(size int) (*Memory, error) {
	if size <= 0 {
		size = 10000
	}
	games, err := lru.New[string, struct{}](size)
	if err != nil {
		return nil, fmt.Errorf("create checkpoint cache: %w", err)
	}
	return &Memory{games: games}, nil
}

func (m *Memory) Done(_ context.Context, schemaVersion string, gameID models.GameID) (bool, error) {
	return m.games.Contains(Key(schemaVersion, gameID)), nil
}

func (m *Memory) Mark(_ context.Context, schemaVersion string, gameID models.GameID) error {
	m.games.Add(Key(schemaVersion, gameID), struct{}{})
	return nil
}

// Nop never reports a game as done. Used with -force.
type Nop struct{}

func (Nop) Done(context.Context, string, models.GameID) (bool, error) { return false, nil }
func (Nop) Mark(context.Context, string, models.GameID) error         { return nil }
