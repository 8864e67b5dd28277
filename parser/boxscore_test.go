package parser

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aluiziolira/go-crawl-nhl/models"
	"github.com/aluiziolira/go-crawl-nhl/schema"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadBoxscore(t *testing.T) *models.Boxscore {
	t.Helper()
	body, err := os.ReadFile(filepath.Join("testdata", "boxscore.json"))
	require.NoError(t, err)
	box, err := DecodeBoxscore(body)
	require.NoError(t, err)
	return box
}

func TestFlattenOneRowPerPlayer(t *testing.T) {
	cols := v1Columns(t)
	box := loadBoxscore(t)

	result := NewFlattener(cols, discardLogger()).Flatten("2019030042", box)
	require.Empty(t, result.Failures)
	require.Len(t, result.Rows, box.PlayerCount())

	for _, pr := range result.Rows {
		assert.Equal(t, schema.Width, pr.Row.Width(), "player %s", pr.PlayerID)
		assert.Equal(t, cols.All(), pr.Row.Columns)
	}

	order := make([]string, 0, len(result.Rows))
	for _, pr := range result.Rows {
		order = append(order, string(pr.Side)+":"+pr.PlayerKey)
	}
	assert.Equal(t, []string{
		"home:ID8475683",
		"home:ID8477493",
		"away:ID8476432",
		"away:ID8480000",
	}, order)
}

func TestFlattenGoalieAndSkaterColumns(t *testing.T) {
	cols := v1Columns(t)
	box := loadBoxscore(t)

	result := NewFlattener(cols, discardLogger()).Flatten("2019030042", box)
	rows := make(map[string]models.Row, len(result.Rows))
	for _, pr := range result.Rows {
		rows[pr.PlayerID] = pr.Row
	}

	goalie := rows["8475683"]
	assert.False(t, goalie.IsNull(0, schema.PersonWidth))
	assert.False(t, goalie.IsNull(cols.GoalieOffset(), cols.SkaterOffset()))
	assert.True(t, goalie.IsNull(cols.SkaterOffset(), schema.Width), "goalie skater columns must be null")
	v, _ := goalie.Get("player_jerseyNumber")
	assert.Equal(t, "72", v)
	v, _ = goalie.Get("player_stats_goalieStats_savePercentage")
	assert.Equal(t, json.Number("88.23529411764706"), v)

	skater := rows["8476432"]
	assert.True(t, skater.IsNull(cols.GoalieOffset(), cols.SkaterOffset()), "skater goalie columns must be null")
	assert.False(t, skater.IsNull(cols.SkaterOffset(), schema.Width))
	v, _ = skater.Get("player_stats_skaterStats_timeOnIce")
	assert.Equal(t, "18:19", v)
	v, _ = skater.Get("player_person_birthStateProvince")
	assert.Equal(t, "ON", v)
	v, _ = skater.Get(schema.SideColumn)
	assert.Nil(t, v)

	scratched := rows["8480000"]
	assert.False(t, scratched.IsNull(0, schema.PersonWidth))
	assert.True(t, scratched.IsNull(schema.PersonWidth, schema.Width), "no stats means only person cells")
}

func TestFlattenHomeGoalieAndSkater(t *testing.T) {
	cols := v1Columns(t)
	goalie, _ := models.ClassifyStats(map[string]any{models.GoalieStatsKey: goalieStats()})
	skater, _ := models.ClassifyStats(map[string]any{models.SkaterStatsKey: skaterStats()})

	skaterPerson := bobrovsky()
	skaterPerson["id"] = json.Number("8476432")

	box := &models.Boxscore{
		Home: models.TeamBoxscore{Players: map[string]models.PlayerEntry{
			"ID8475683": {Person: bobrovsky(), JerseyNumber: "72", HasJerseyNumber: true, Stats: goalie},
			"ID8476432": {Person: skaterPerson, JerseyNumber: "38", HasJerseyNumber: true, Stats: skater},
		}},
		Away: models.TeamBoxscore{Players: map[string]models.PlayerEntry{}},
	}

	result := NewFlattener(cols, discardLogger()).Flatten("1", box)
	require.Empty(t, result.Failures)
	require.Len(t, result.Rows, 2)

	assert.Equal(t, "8475683", result.Rows[0].PlayerID)
	assert.True(t, result.Rows[0].Row.IsNull(cols.SkaterOffset(), schema.Width))
	assert.Equal(t, "8476432", result.Rows[1].PlayerID)
	assert.True(t, result.Rows[1].Row.IsNull(cols.GoalieOffset(), cols.SkaterOffset()))
}

func TestFlattenSkipsMalformedPlayerOnly(t *testing.T) {
	cols := v1Columns(t)
	box := loadBoxscore(t)

	broken := box.Home.Players["ID8477493"]
	delete(broken.Person, "birthCity")

	result := NewFlattener(cols, discardLogger()).Flatten("2019030042", box)
	require.Len(t, result.Failures, 1)
	assert.Len(t, result.Rows, box.PlayerCount()-1)

	failure := result.Failures[0]
	assert.Equal(t, "ID8477493", failure.PlayerKey)
	assert.Equal(t, models.SideHome, failure.Side)

	var malformed *MalformedRecordError
	require.True(t, errors.As(failure.Err, &malformed))
	assert.Equal(t, "birthCity", malformed.Field)
	assert.Equal(t, "8477493", malformed.PlayerID)
}

func TestFlattenMissingStatsFieldNamesPlayer(t *testing.T) {
	cols := v1Columns(t)
	stats := skaterStats()
	delete(stats, "hits")

	box := &models.Boxscore{
		Away: models.TeamBoxscore{Players: map[string]models.PlayerEntry{
			"ID1": {Person: bobrovsky(), JerseyNumber: "72", HasJerseyNumber: true, Stats: models.SkaterStats(stats)},
		}},
	}

	result := NewFlattener(cols, discardLogger()).Flatten("1", box)
	require.Len(t, result.Failures, 1)

	var malformed *MalformedRecordError
	require.True(t, errors.As(result.Failures[0].Err, &malformed))
	assert.Equal(t, "hits", malformed.Field)
	assert.Equal(t, "8475683", malformed.PlayerID)
}

func TestFlattenMissingPersonOrJersey(t *testing.T) {
	cols := v1Columns(t)
	box := &models.Boxscore{
		Home: models.TeamBoxscore{Players: map[string]models.PlayerEntry{
			"ID1": {JerseyNumber: "1", HasJerseyNumber: true},
			"ID2": {Person: bobrovsky()},
		}},
	}

	result := NewFlattener(cols, discardLogger()).Flatten("1", box)
	require.Len(t, result.Failures, 2)
	assert.Empty(t, result.Rows)

	fields := []string{}
	for _, failure := range result.Failures {
		var malformed *MalformedRecordError
		require.True(t, errors.As(failure.Err, &malformed))
		fields = append(fields, malformed.Field)
	}
	assert.Equal(t, []string{"person", "jerseyNumber"}, fields)
}

func TestFlattenConflictingStatsKeepsGoalie(t *testing.T) {
	cols := v1Columns(t)
	stats, conflict := models.ClassifyStats(map[string]any{
		models.GoalieStatsKey: goalieStats(),
		models.SkaterStatsKey: skaterStats(),
	})
	require.True(t, conflict)

	box := &models.Boxscore{
		Home: models.TeamBoxscore{Players: map[string]models.PlayerEntry{
			"ID1": {Person: bobrovsky(), JerseyNumber: "72", HasJerseyNumber: true, Stats: stats, StatsConflict: true},
		}},
	}

	result := NewFlattener(cols, discardLogger()).Flatten("1", box)
	require.Len(t, result.Rows, 1)
	assert.True(t, result.Rows[0].Row.IsNull(cols.SkaterOffset(), schema.Width))
}
