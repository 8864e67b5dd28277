package parser

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/aluiziolira/go-crawl-nhl/models"
)

// ErrInvalidPayload is returned when a response body cannot be decoded into
// the expected shape.
var ErrInvalidPayload = errors.New("invalid payload")

// Numbers decode to json.Number so values pass through verbatim.
var payloadAPI = sonic.Config{UseNumber: true}.Froze()

type rawSchedule struct {
	Dates *[]struct {
		Date  string `json:"date"`
		Games []struct {
			GamePk any `json:"gamePk"`
		} `json:"games"`
	} `json:"dates"`
}

// DecodeSchedule decodes a schedule response body.
func DecodeSchedule(body []byte) (*models.Schedule, error) {
	var raw rawSchedule
	if err := payloadAPI.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode schedule: %v", ErrInvalidPayload, err)
	}

	schedule := &models.Schedule{}
	if raw.Dates == nil {
		return schedule, nil
	}

	schedule.DatesPresent = true
	schedule.Dates = make([]models.ScheduleDate, 0, len(*raw.Dates))
	for _, date := range *raw.Dates {
		entry := models.ScheduleDate{Date: date.Date, Games: make([]models.ScheduleGame, 0, len(date.Games))}
		for _, game := range date.Games {
			id, err := models.ParseGameID(game.GamePk)
			if err != nil {
				return nil, fmt.Errorf("%w: schedule date %s: %v", ErrInvalidPayload, date.Date, err)
			}
			entry.Games = append(entry.Games, models.ScheduleGame{GamePk: id})
		}
		schedule.Dates = append(schedule.Dates, entry)
	}
	return schedule, nil
}

type rawBoxscore struct {
	Teams map[string]struct {
		Players map[string]map[string]any `json:"players"`
	} `json:"teams"`
}

// DecodeBoxscore decodes a boxscore response body. Both sides must be present;
// individual player entries are validated later by the Flattener.
func DecodeBoxscore(body []byte) (*models.Boxscore, error) {
	var raw rawBoxscore
	if err := payloadAPI.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode boxscore: %v", ErrInvalidPayload, err)
	}
	if raw.Teams == nil {
		return nil, fmt.Errorf("%w: boxscore has no teams", ErrInvalidPayload)
	}

	box := &models.Boxscore{}
	for _, side := range models.Sides {
		team, ok := raw.Teams[string(side)]
		if !ok {
			return nil, fmt.Errorf("%w: boxscore has no %s team", ErrInvalidPayload, side)
		}
		players := make(map[string]models.PlayerEntry, len(team.Players))
		for key, entry := range team.Players {
			players[key] = playerEntry(entry)
		}
		if side == models.SideHome {
			box.Home = models.TeamBoxscore{Players: players}
		} else {
			box.Away = models.TeamBoxscore{Players: players}
		}
	}
	return box, nil
}

func playerEntry(raw map[string]any) models.PlayerEntry {
	person, _ := raw["person"].(map[string]any)
	jersey, hasJersey := raw["jerseyNumber"]
	rawStats, _ := raw["stats"].(map[string]any)
	stats, conflict := models.ClassifyStats(rawStats)

	return models.PlayerEntry{
		Person:          person,
		JerseyNumber:    jersey,
		HasJerseyNumber: hasJersey,
		Stats:           stats,
		StatsConflict:   conflict,
	}
}
