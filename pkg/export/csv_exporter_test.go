package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	exporter := NewCSVExporter()
	data := Dataset{
		Headers: []string{"Course", "Check-in %"},
		Rows: []map[string]string{
			{"Course": "Backend Camp", "Check-in %": "83"},
			{"Course": "Frontend Camp", "Check-in %": "50"},
		},
	}

	out, err := exporter.Render(data)
	require.NoError(t, err)
	assert.Equal(t, "Course,Check-in %\nBackend Camp,83\nFrontend Camp,50\n", string(out))
}

func TestCSVExporterMissingCellLeftEmpty(t *testing.T) {
	exporter := NewCSVExporter()
	out, err := exporter.Render(Dataset{
		Headers: []string{"A", "B"},
		Rows:    []map[string]string{{"A": "1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "A,B\n1,\n", string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	exporter := NewCSVExporter()
	_, err := exporter.Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	exporter := NewPDFExporter()
	out, err := exporter.Render(Dataset{
		Headers: []string{"Course", "Rate"},
		Rows:    []map[string]string{{"Course": "Backend Camp", "Rate": "83"}},
	}, "Window report", []string{"Window: 2026-03-01 to 2026-03-07"})
	require.NoError(t, err)
	assert.True(t, len(out) > 0)
	assert.Equal(t, "%PDF", string(out[:4]))
}
