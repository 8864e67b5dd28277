package pipeline

import "fmt"

// Output formats accepted by Encoders.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatDual = "dual"
)

// Encoders returns the encoders for an output format. Dual writes both a CSV
// and a JSON lines object per record.
func Encoders(format string) ([]Encoder, error) {
	switch format {
	case "", FormatCSV:
		return []Encoder{CSVEncoder{}}, nil
	case FormatJSON:
		return []Encoder{JSONEncoder{}}, nil
	case FormatDual:
		return []Encoder{CSVEncoder{}, JSONEncoder{}}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want csv, json or dual)", format)
	}
}
