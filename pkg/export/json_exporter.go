package export

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// JSONExporter renders Dataset records as a JSON array of objects.
type JSONExporter struct{}

// NewJSONExporter builds a JSON exporter.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

// Render produces a JSON array with one object per row, keyed by the dataset
// headers. Missing cells render as empty strings so every object carries the
// full column set.
func (e *JSONExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("json export requires at least one header")
	}
	records := make([]map[string]string, 0, len(data.Rows))
	for _, row := range data.Rows {
		record := make(map[string]string, len(data.Headers))
		for _, header := range data.Headers {
			record[header] = row[header]
		}
		records = append(records, record)
	}
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("encode json export: %w", err)
	}
	return buf.Bytes(), nil
}
