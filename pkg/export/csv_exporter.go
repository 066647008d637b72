package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Dataset is the tabular form a progress report is flattened into
// before rendering. Row values are keyed by header name so exporters
// can reorder or omit columns without touching the report builder.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// records expands the dataset into ordered string slices, header row
// first. Missing cells render as empty strings.
func (d Dataset) records() [][]string {
	out := make([][]string, 0, len(d.Rows)+1)
	out = append(out, d.Headers)
	for _, row := range d.Rows {
		record := make([]string, len(d.Headers))
		for i, header := range d.Headers {
			record[i] = row[header]
		}
		out = append(out, record)
	}
	return out
}

// CSVExporter renders a dataset as RFC 4180 CSV.
type CSVExporter struct{}

func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render encodes the dataset, header row included.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv export needs at least one column")
	}
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.WriteAll(data.records()); err != nil {
		return nil, fmt.Errorf("encode csv report: %w", err)
	}
	return buf.Bytes(), nil
}
