package pipeline

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/bytedance/sonic"

	"github.com/aluiziolira/go-crawl-nhl/models"
)

// Encoder renders rows into one stored object.
type Encoder interface {
	Encode(rows []models.Row) ([]byte, error)
	Extension() string
	ContentType() string
}

// CSVEncoder writes a header row equal to the row columns followed by one
// record per row. Null cells are empty.
type CSVEncoder struct{}

func (CSVEncoder) Extension() string   { return "csv" }
func (CSVEncoder) ContentType() string { return "text/csv" }

// Encode renders rows as CSV. All rows must share the same columns.
func (CSVEncoder) Encode(rows []models.Row) ([]byte, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("encode csv: no rows")
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	header := rows[0].Columns
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(header))
	for i, row := range rows {
		if row.Width() != len(header) || len(row.Values) != len(header) {
			return nil, fmt.Errorf("encode csv: row %d has %d cells, header has %d", i, len(row.Values), len(header))
		}
		for j, value := range row.Values {
			record[j] = formatCell(value)
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv records: %w", err)
	}
	return buf.Bytes(), nil
}

func formatCell(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprint(v)
	}
}

// DecodeCSV parses CSV produced by CSVEncoder. Empty cells decode to null and
// all other cells stay strings. CSV has one representation for null and the
// empty string, so an empty string value also comes back as null.
func DecodeCSV(data []byte) ([]models.Row, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read csv: missing header")
	}

	header := records[0]
	rows := make([]models.Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := models.NewRow(header)
		for i, cell := range record {
			if cell != "" {
				row.Values[i] = cell
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// JSONEncoder writes newline-delimited JSON, one object per row with keys in
// column order.
type JSONEncoder struct{}

func (JSONEncoder) Extension() string   { return "json" }
func (JSONEncoder) ContentType() string { return "application/x-ndjson" }

// Encode renders rows as JSON lines.
func (JSONEncoder) Encode(rows []models.Row) ([]byte, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("encode json: no rows")
	}

	var buf bytes.Buffer
	for i, row := range rows {
		if len(row.Values) != len(row.Columns) {
			return nil, fmt.Errorf("encode json: row %d has %d cells for %d columns", i, len(row.Values), len(row.Columns))
		}
		buf.WriteByte('{')
		for j, column := range row.Columns {
			if j > 0 {
				buf.WriteByte(',')
			}
			key, err := sonic.ConfigStd.Marshal(column)
			if err != nil {
				return nil, fmt.Errorf("encode json key %q: %w", column, err)
			}
			value, err := sonic.ConfigStd.Marshal(row.Values[j])
			if err != nil {
				return nil, fmt.Errorf("encode json value %q: %w", column, err)
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(value)
		}
		buf.WriteString("}\n")
	}
	return buf.Bytes(), nil
}
