package exporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uascope/internal/graph"
)

func sampleSnapshots() []graph.ChannelSnapshot {
	return []graph.ChannelSnapshot{
		{
			NodeID:   "ns=2;s=Demo.Temperature",
			Name:     "Temperature",
			DataType: "Double",
			Mode:     "scalar",
			Samples:  []float64{0, 1.5, 2.25},
		},
		{
			NodeID:  "ns=2;s=Demo.Waveform",
			Mode:    "array",
			Samples: []float64{10, 20},
		},
	}
}

func TestWriteCSVShapesRowsBySampleIndex(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleSnapshots()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	// Header plus one row per index of the widest channel.
	require.Len(t, records, 4)
	assert.Equal(t, []string{"Sample", "Temperature (scalar)", "ns=2;s=Demo.Waveform (array)"}, records[0])
	assert.Equal(t, []string{"0", "0", "10"}, records[1])
	assert.Equal(t, []string{"1", "1.5", "20"}, records[2])
	// The shorter channel leaves its trailing cell empty.
	assert.Equal(t, []string{"2", "2.25", ""}, records[3])
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"Sample"}, records[0])
}

func TestWriteJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleSnapshots()))

	var decoded []graph.ChannelSnapshot
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, sampleSnapshots(), decoded)
}

func TestExportToCSVWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "channels.csv")
	require.NoError(t, ExportToCSV(path, sampleSnapshots()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Temperature (scalar)")
}

func TestExportToJSONWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "channels.json")
	require.NoError(t, ExportToJSON(path, sampleSnapshots()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded []graph.ChannelSnapshot
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded, 2)
}

func TestExportToExcelWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "channels.xlsx")
	require.NoError(t, ExportToExcel(path, sampleSnapshots()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
