package storage

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aluiziolira/go-crawl-nhl/models"
)

// Key addresses one player's record for one game.
type Key struct {
	PlayerID int64
	GameID   models.GameID
}

// NewKey parses a player id as delivered by the API. Integral floats such as
// "8475683.0" are accepted and rendered without the fraction.
func NewKey(playerID string, gameID models.GameID) (Key, error) {
	raw := strings.TrimSpace(playerID)
	if raw == "" {
		return Key{}, fmt.Errorf("storage key: empty player id")
	}
	if gameID == "" {
		return Key{}, fmt.Errorf("storage key: empty game id for player %s", raw)
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || f != math.Trunc(f) || math.IsInf(f, 0) || math.Abs(f) >= math.MaxInt64 {
			return Key{}, fmt.Errorf("storage key: player id %q is not an integer", raw)
		}
		id = int64(f)
	}
	return Key{PlayerID: id, GameID: gameID}, nil
}

// Render returns "{playerId}/{gameId}.{ext}".
func (k Key) Render(ext string) string {
	return fmt.Sprintf("%d/%s.%s", k.PlayerID, k.GameID, strings.TrimPrefix(ext, "."))
}

// String is the CSV object key.
func (k Key) String() string {
	return k.Render("csv")
}
