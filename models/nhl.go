// Package models defines the payload, row and result types shared by the crawler.
package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// GameID identifies one game (the API's gamePk) in its decimal string form.
type GameID string

// ParseGameID accepts the integer or numeric-string forms the API uses for gamePk.
func ParseGameID(v any) (GameID, error) {
	switch val := v.(type) {
	case json.Number:
		return parseGameIDString(val.String())
	case string:
		return parseGameIDString(val)
	case float64:
		if val != float64(int64(val)) {
			return "", fmt.Errorf("game id %v is not an integer", val)
		}
		return GameID(strconv.FormatInt(int64(val), 10)), nil
	case int:
		return GameID(strconv.Itoa(val)), nil
	case int64:
		return GameID(strconv.FormatInt(val, 10)), nil
	case nil:
		return "", fmt.Errorf("game id is missing")
	default:
		return "", fmt.Errorf("unsupported game id type %T", v)
	}
}

func parseGameIDString(s string) (GameID, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return "", fmt.Errorf("game id %q is not numeric: %w", s, err)
	}
	return GameID(strconv.FormatInt(n, 10)), nil
}

func (g GameID) String() string { return string(g) }

// Schedule is the decoded schedule response.
type Schedule struct {
	// DatesPresent is false when the response carried no "dates" key at all.
	DatesPresent bool
	Dates        []ScheduleDate
}

// ScheduleDate is one date entry of a schedule.
type ScheduleDate struct {
	Date  string
	Games []ScheduleGame
}

// ScheduleGame is a game summary; only the id matters to the crawler.
type ScheduleGame struct {
	GamePk GameID
}

// Side is one of the two teams of a game.
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

// Sides lists both sides in processing order.
var Sides = []Side{SideHome, SideAway}

// Boxscore is the decoded boxscore response.
type Boxscore struct {
	Home TeamBoxscore
	Away TeamBoxscore
}

// Team returns the players of one side.
func (b *Boxscore) Team(side Side) TeamBoxscore {
	if side == SideAway {
		return b.Away
	}
	return b.Home
}

// PlayerCount is the number of player entries across both sides.
func (b *Boxscore) PlayerCount() int {
	return len(b.Home.Players) + len(b.Away.Players)
}

// TeamBoxscore maps the API's player key (e.g. "ID8475683") to the entry.
type TeamBoxscore struct {
	Players map[string]PlayerEntry
}

// PlayerEntry is one player's participation in a game.
type PlayerEntry struct {
	Person map[string]any
	// JerseyNumber is kept as delivered; HasJerseyNumber tracks presence.
	JerseyNumber    any
	HasJerseyNumber bool
	Stats           PlayerStats
	// StatsConflict is set when the payload populated both stats variants.
	StatsConflict bool
}

// StatsKind discriminates the stats variant of a player entry.
type StatsKind int

const (
	StatsAbsent StatsKind = iota
	StatsGoalie
	StatsSkater
)

func (k StatsKind) String() string {
	switch k {
	case StatsGoalie:
		return "goalie"
	case StatsSkater:
		return "skater"
	default:
		return "absent"
	}
}

// PlayerStats holds exactly one stats variant. Build it with ClassifyStats.
type PlayerStats struct {
	kind   StatsKind
	fields map[string]any
}

// Payload keys of the stats variants.
const (
	GoalieStatsKey = "goalieStats"
	SkaterStatsKey = "skaterStats"
)

// ClassifyStats picks the populated variant of a raw "stats" object. The second
// return value reports that both variants were populated, in which case the
// goalie variant wins.
func ClassifyStats(raw map[string]any) (PlayerStats, bool) {
	goalie, _ := raw[GoalieStatsKey].(map[string]any)
	skater, _ := raw[SkaterStatsKey].(map[string]any)

	switch {
	case len(goalie) > 0:
		return PlayerStats{kind: StatsGoalie, fields: goalie}, len(skater) > 0
	case len(skater) > 0:
		return PlayerStats{kind: StatsSkater, fields: skater}, false
	default:
		return PlayerStats{kind: StatsAbsent}, false
	}
}

// GoalieStats builds a goalie variant directly. An empty map yields StatsAbsent.
func GoalieStats(fields map[string]any) PlayerStats {
	if len(fields) == 0 {
		return PlayerStats{}
	}
	return PlayerStats{kind: StatsGoalie, fields: fields}
}

// SkaterStats builds a skater variant directly. An empty map yields StatsAbsent.
func SkaterStats(fields map[string]any) PlayerStats {
	if len(fields) == 0 {
		return PlayerStats{}
	}
	return PlayerStats{kind: StatsSkater, fields: fields}
}

// Kind reports which variant is populated.
func (s PlayerStats) Kind() StatsKind { return s.kind }

// Goalie returns the goalie fields, or nil for any other variant.
func (s PlayerStats) Goalie() map[string]any {
	if s.kind != StatsGoalie {
		return nil
	}
	return s.fields
}

// Skater returns the skater fields, or nil for any other variant.
func (s PlayerStats) Skater() map[string]any {
	if s.kind != StatsSkater {
		return nil
	}
	return s.fields
}
