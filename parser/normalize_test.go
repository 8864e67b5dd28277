package parser

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aluiziolira/go-crawl-nhl/schema"
)

func v1Columns(t *testing.T) schema.Columns {
	t.Helper()
	cols, err := schema.Lookup("v1")
	require.NoError(t, err)
	return cols
}

func bobrovsky() map[string]any {
	return map[string]any{
		"id":               json.Number("8475683"),
		"fullName":         "Sergei Bobrovsky",
		"link":             "/api/v1/people/8475683",
		"firstName":        "Sergei",
		"lastName":         "Bobrovsky",
		"primaryNumber":    "72",
		"birthDate":        "1988-09-20",
		"currentAge":       json.Number("32"),
		"birthCity":        "Novokuznetsk",
		"birthCountry":     "RUS",
		"nationality":      "RUS",
		"height":           `6' 2"`,
		"weight":           json.Number("187"),
		"active":           true,
		"alternateCaptain": false,
		"captain":          false,
		"rookie":           false,
		"shootsCatches":    "L",
		"rosterStatus":     "Y",
		"currentTeam":      map[string]any{"id": json.Number("13"), "name": "Florida Panthers", "link": "/api/v1/teams/13"},
		"primaryPosition":  map[string]any{"code": "G", "name": "Goalie", "type": "Goalie", "abbreviation": "G"},
	}
}

func goalieStats() map[string]any {
	return map[string]any{
		"timeOnIce":                  "57:29",
		"assists":                    json.Number("0"),
		"goals":                      json.Number("0"),
		"pim":                        json.Number("0"),
		"shots":                      json.Number("34"),
		"saves":                      json.Number("30"),
		"powerPlaySaves":             json.Number("3"),
		"shortHandedSaves":           json.Number("0"),
		"evenSaves":                  json.Number("27"),
		"shortHandedShotsAgainst":    json.Number("0"),
		"evenShotsAgainst":           json.Number("29"),
		"powerPlayShotsAgainst":      json.Number("5"),
		"decision":                   "L",
		"savePercentage":             json.Number("88.23529411764706"),
		"powerPlaySavePercentage":    json.Number("60.0"),
		"evenStrengthSavePercentage": json.Number("93.10344827586206"),
	}
}

func skaterStats() map[string]any {
	return map[string]any{
		"timeOnIce":            "18:19",
		"assists":              json.Number("0"),
		"goals":                json.Number("0"),
		"shots":                json.Number("0"),
		"hits":                 json.Number("3"),
		"powerPlayGoals":       json.Number("0"),
		"powerPlayAssists":     json.Number("0"),
		"penaltyMinutes":       json.Number("0"),
		"faceOffPct":           json.Number("62.5"),
		"faceOffWins":          json.Number("5"),
		"faceoffTaken":         json.Number("8"),
		"takeaways":            json.Number("0"),
		"giveaways":            json.Number("2"),
		"shortHandedGoals":     json.Number("0"),
		"shortHandedAssists":   json.Number("0"),
		"blocked":              json.Number("0"),
		"plusMinus":            json.Number("0"),
		"evenTimeOnIce":        "12:30",
		"powerPlayTimeOnIce":   "0:00",
		"shortHandedTimeOnIce": "5:49",
	}
}

func TestNormalizePerson(t *testing.T) {
	cols := v1Columns(t)
	person := bobrovsky()

	row, err := NormalizePerson(person, "72", cols.Person())
	require.NoError(t, err)

	want := []any{
		json.Number("8475683"),
		"72",
		true,
		false,
		"Novokuznetsk",
		"RUS",
		"1988-09-20",
		nil,
		false,
		json.Number("32"),
		json.Number("13"),
		"/api/v1/teams/13",
		"Florida Panthers",
		"Sergei",
		"Sergei Bobrovsky",
		`6' 2"`,
		"Bobrovsky",
		"/api/v1/people/8475683",
		"RUS",
		"72",
		"G",
		"G",
		"Goalie",
		"Goalie",
		false,
		"Y",
		"L",
		json.Number("187"),
	}
	assert.Equal(t, want, row.Values)
	assert.Equal(t, cols.Person(), row.Columns)
}

func TestNormalizePersonKeepsBirthStateProvince(t *testing.T) {
	person := bobrovsky()
	person["birthStateProvince"] = "ON"

	row, err := NormalizePerson(person, "72", v1Columns(t).Person())
	require.NoError(t, err)

	v, ok := row.Get("player_person_birthStateProvince")
	require.True(t, ok)
	assert.Equal(t, "ON", v)
}

func TestNormalizePersonMissingRequiredField(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(map[string]any)
		wantField string
	}{
		{
			name:      "birth city",
			mutate:    func(p map[string]any) { delete(p, "birthCity") },
			wantField: "birthCity",
		},
		{
			name:      "team name",
			mutate:    func(p map[string]any) { delete(p["currentTeam"].(map[string]any), "name") },
			wantField: "currentTeam.name",
		},
		{
			name:      "whole position fragment",
			mutate:    func(p map[string]any) { delete(p, "primaryPosition") },
			wantField: "primaryPosition.abbreviation",
		},
		{
			name:      "team is not an object",
			mutate:    func(p map[string]any) { p["currentTeam"] = "Florida" },
			wantField: "currentTeam.id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			person := bobrovsky()
			tt.mutate(person)

			_, err := NormalizePerson(person, "72", v1Columns(t).Person())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedPlayerRecord))

			var malformed *MalformedRecordError
			require.True(t, errors.As(err, &malformed))
			assert.Equal(t, tt.wantField, malformed.Field)
			assert.Equal(t, "person", malformed.Fragment)
			assert.Equal(t, "8475683", malformed.PlayerID)
			assert.Contains(t, err.Error(), tt.wantField)
		})
	}
}

func TestNormalizePersonExplicitNullIsPresent(t *testing.T) {
	person := bobrovsky()
	person["birthCity"] = nil

	row, err := NormalizePerson(person, "72", v1Columns(t).Person())
	require.NoError(t, err)
	v, _ := row.Get("player_person_birthCity")
	assert.Nil(t, v)
}

func TestNormalizePersonWrongColumnWidth(t *testing.T) {
	_, err := NormalizePerson(bobrovsky(), "72", v1Columns(t).Goalie())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMalformedPlayerRecord))
}

func TestNormalizeGoalieStats(t *testing.T) {
	cols := v1Columns(t).Goalie()

	t.Run("absent", func(t *testing.T) {
		rows, err := NormalizeGoalieStats(nil, cols)
		require.NoError(t, err)
		assert.Empty(t, rows)

		rows, err = NormalizeGoalieStats(map[string]any{}, cols)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("present", func(t *testing.T) {
		rows, err := NormalizeGoalieStats(goalieStats(), cols)
		require.NoError(t, err)
		require.Len(t, rows, 1)

		want := []any{
			json.Number("0"),
			"L",
			json.Number("27"),
			json.Number("29"),
			json.Number("93.10344827586206"),
			json.Number("0"),
			json.Number("0"),
			json.Number("60.0"),
			json.Number("3"),
			json.Number("5"),
			json.Number("88.23529411764706"),
			json.Number("30"),
			nil,
			json.Number("0"),
			json.Number("0"),
			json.Number("34"),
			"57:29",
		}
		assert.Equal(t, want, rows[0].Values)
	})

	t.Run("optional percentages absent", func(t *testing.T) {
		stats := goalieStats()
		delete(stats, "powerPlaySavePercentage")

		rows, err := NormalizeGoalieStats(stats, cols)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		v, _ := rows[0].Get("player_stats_goalieStats_powerPlaySavePercentage")
		assert.Nil(t, v)
	})

	t.Run("required field missing", func(t *testing.T) {
		stats := goalieStats()
		delete(stats, "saves")

		_, err := NormalizeGoalieStats(stats, cols)
		var malformed *MalformedRecordError
		require.True(t, errors.As(err, &malformed))
		assert.Equal(t, "saves", malformed.Field)
		assert.Equal(t, "goalieStats", malformed.Fragment)
	})
}

func TestNormalizeSkaterStats(t *testing.T) {
	cols := v1Columns(t).Skater()

	t.Run("absent", func(t *testing.T) {
		rows, err := NormalizeSkaterStats(nil, cols)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("present", func(t *testing.T) {
		rows, err := NormalizeSkaterStats(skaterStats(), cols)
		require.NoError(t, err)
		require.Len(t, rows, 1)

		want := []any{
			json.Number("0"),
			json.Number("0"),
			"12:30",
			json.Number("62.5"),
			json.Number("5"),
			json.Number("8"),
			json.Number("2"),
			json.Number("0"),
			json.Number("3"),
			json.Number("0"),
			json.Number("0"),
			json.Number("0"),
			json.Number("0"),
			"0:00",
			json.Number("0"),
			json.Number("0"),
			"5:49",
			json.Number("0"),
			json.Number("0"),
			"18:19",
			nil,
		}
		assert.Equal(t, want, rows[0].Values)
	})

	t.Run("side is never copied from the payload", func(t *testing.T) {
		stats := skaterStats()
		stats["side"] = "home"

		rows, err := NormalizeSkaterStats(stats, cols)
		require.NoError(t, err)
		v, ok := rows[0].Get(schema.SideColumn)
		require.True(t, ok)
		assert.Nil(t, v)
	})

	t.Run("faceoff percentage optional", func(t *testing.T) {
		stats := skaterStats()
		delete(stats, "faceOffPct")

		rows, err := NormalizeSkaterStats(stats, cols)
		require.NoError(t, err)
		v, _ := rows[0].Get("player_stats_skaterStats_faceOffPct")
		assert.Nil(t, v)
	})
}
