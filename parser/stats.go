package parser

import "github.com/aluiziolira/go-crawl-nhl/models"

var goalieFields = []fieldSpec{
	required("assists"),
	required("decision"),
	required("evenSaves"),
	required("evenShotsAgainst"),
	required("evenStrengthSavePercentage"),
	required("goals"),
	required("pim"),
	optional("powerPlaySavePercentage"),
	required("powerPlaySaves"),
	required("powerPlayShotsAgainst"),
	required("savePercentage"),
	required("saves"),
	optional("shortHandedSavePercentage"),
	required("shortHandedSaves"),
	required("shortHandedShotsAgainst"),
	required("shots"),
	required("timeOnIce"),
}

var skaterFields = []fieldSpec{
	required("assists"),
	required("blocked"),
	required("evenTimeOnIce"),
	optional("faceOffPct"),
	required("faceOffWins"),
	required("faceoffTaken"),
	required("giveaways"),
	required("goals"),
	required("hits"),
	required("penaltyMinutes"),
	required("plusMinus"),
	required("powerPlayAssists"),
	required("powerPlayGoals"),
	required("powerPlayTimeOnIce"),
	required("shortHandedAssists"),
	required("shortHandedGoals"),
	required("shortHandedTimeOnIce"),
	required("shots"),
	required("takeaways"),
	required("timeOnIce"),
	// side is reserved and never populated from the payload.
	{source: alwaysNull},
}

// NormalizeGoalieStats returns no rows for absent or empty stats, otherwise
// exactly one row over the goalie column group.
func NormalizeGoalieStats(stats map[string]any, columns []string) ([]models.Row, error) {
	return normalizeStats(models.GoalieStatsKey, stats, goalieFields, columns)
}

// NormalizeSkaterStats returns no rows for absent or empty stats, otherwise
// exactly one row over the skater column group with a null side cell.
func NormalizeSkaterStats(stats map[string]any, columns []string) ([]models.Row, error) {
	return normalizeStats(models.SkaterStatsKey, stats, skaterFields, columns)
}

func normalizeStats(fragment string, stats map[string]any, specs []fieldSpec, columns []string) ([]models.Row, error) {
	if len(stats) == 0 {
		return nil, nil
	}
	row, err := extract(fragment, stats, specs, columns, nil)
	if err != nil {
		return nil, err
	}
	return []models.Row{row}, nil
}
