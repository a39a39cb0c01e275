package export

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"student_key", "status"},
		Rows: []map[string]string{
			{"student_key": "student_0128fe4a", "status": "pending"},
			{"student_key": "student_aae45c81", "status": "enrolled"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	exporter := NewCSVExporter()
	payload, err := exporter.Render(sampleDataset())
	require.NoError(t, err)
	require.Equal(t, "student_key,status\nstudent_0128fe4a,pending\nstudent_aae45c81,enrolled\n", string(payload))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	exporter := NewCSVExporter()
	_, err := exporter.Render(Dataset{})
	require.Error(t, err)
}

func TestJSONExporterRender(t *testing.T) {
	exporter := NewJSONExporter()
	payload, err := exporter.Render(sampleDataset())
	require.NoError(t, err)

	var records []map[string]string
	require.NoError(t, json.Unmarshal(payload, &records))
	require.Len(t, records, 2)
	require.Equal(t, "student_0128fe4a", records[0]["student_key"])
	require.Equal(t, "enrolled", records[1]["status"])
}

func TestJSONExporterFillsMissingCells(t *testing.T) {
	exporter := NewJSONExporter()
	payload, err := exporter.Render(Dataset{
		Headers: []string{"student_key", "status"},
		Rows:    []map[string]string{{"student_key": "student_1"}},
	})
	require.NoError(t, err)

	var records []map[string]string
	require.NoError(t, json.Unmarshal(payload, &records))
	require.Equal(t, "", records[0]["status"])
}
