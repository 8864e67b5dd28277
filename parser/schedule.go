package parser

import "github.com/aluiziolira/go-crawl-nhl/models"

// GameIDs walks dates[*].games[*].gamePk in encounter order. Repeated ids are
// kept only at their first position. Absent dates yield an empty result.
func GameIDs(schedule *models.Schedule) []models.GameID {
	if schedule == nil {
		return []models.GameID{}
	}

	ids := make([]models.GameID, 0)
	seen := make(map[models.GameID]struct{})
	for _, date := range schedule.Dates {
		for _, game := range date.Games {
			if _, ok := seen[game.GamePk]; ok {
				continue
			}
			seen[game.GamePk] = struct{}{}
			ids = append(ids, game.GamePk)
		}
	}
	return ids
}
