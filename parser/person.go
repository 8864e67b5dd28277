package parser

import (
	"fmt"

	"github.com/aluiziolira/go-crawl-nhl/models"
)

var personFields = []fieldSpec{
	required("id"),
	{source: fromJersey, path: []string{"jerseyNumber"}},
	required("active"),
	required("alternateCaptain"),
	required("birthCity"),
	required("birthCountry"),
	required("birthDate"),
	optional("birthStateProvince"),
	required("captain"),
	required("currentAge"),
	required("currentTeam", "id"),
	required("currentTeam", "link"),
	required("currentTeam", "name"),
	required("firstName"),
	required("fullName"),
	required("height"),
	required("lastName"),
	required("link"),
	required("nationality"),
	required("primaryNumber"),
	required("primaryPosition", "abbreviation"),
	required("primaryPosition", "code"),
	required("primaryPosition", "name"),
	required("primaryPosition", "type"),
	required("rookie"),
	required("rosterStatus"),
	required("shootsCatches"),
	required("weight"),
}

// NormalizePerson flattens a person fragment into the person column group.
// The jersey number comes from the player entry, not the person fragment.
func NormalizePerson(person map[string]any, jerseyNumber any, columns []string) (models.Row, error) {
	row, err := extract("person", person, personFields, columns, jerseyNumber)
	if err != nil {
		return models.Row{}, withPlayer(err, personID(person))
	}
	return row, nil
}

func personID(person map[string]any) string {
	id, ok := person["id"]
	if !ok || id == nil {
		return ""
	}
	return fmt.Sprint(id)
}
