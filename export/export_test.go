package export_test

import (
	"bytes"
	"encoding/csv"
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	dydactic "github.com/eddiethedean/dydactic"
	"github.com/eddiethedean/dydactic/export"
)

func sampleResults() []dydactic.Result {
	return []dydactic.Result{
		{
			Validated: map[string]any{"id": 1, "name": "Alice"},
			Original:  map[string]any{"id": "1", "name": "Alice"},
		},
		{
			Err: dydactic.FieldErrors{"id": {
				Field:        "id",
				Code:         dydactic.CodeInvalidType,
				DeclaredType: "int",
				Value:        "bad",
				ValueType:    "string",
				Message:      "cannot convert",
			}},
			Original: map[string]any{"id": "bad", "name": "Bob"},
		},
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	err := export.Write(&buf, sampleResults(), export.Options{
		Format:          export.JSON,
		IncludeOriginal: true,
		FullDetail:      true,
	})
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, gojson.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 2)

	assert.Equal(t, true, rows[0]["valid"])
	assert.NotNil(t, rows[0]["validated"])
	assert.Nil(t, rows[0]["error"])

	assert.Equal(t, false, rows[1]["valid"])
	errInfo := rows[1]["error"].(map[string]any)
	assert.Equal(t, "FieldErrors", errInfo["type"])
	fields := errInfo["fields"].([]any)
	require.Len(t, fields, 1)
	entry := fields[0].(map[string]any)
	assert.Equal(t, "id", entry["field"])
	assert.Equal(t, dydactic.CodeInvalidType, entry["code"])
}

func TestWriteJSONErrorsOnly(t *testing.T) {
	var buf bytes.Buffer
	err := export.Write(&buf, sampleResults(), export.Options{Format: export.JSON, ErrorsOnly: true})
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, gojson.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, false, rows[0]["valid"])
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	err := export.Write(&buf, sampleResults(), export.Options{Format: export.YAML})
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, true, rows[0]["valid"])
	assert.Equal(t, false, rows[1]["valid"])
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := export.Write(&buf, sampleResults(), export.Options{
		Format:          export.CSV,
		IncludeOriginal: true,
		FullDetail:      true,
	})
	require.NoError(t, err)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	header := rows[0]
	col := map[string]int{}
	for i, name := range header {
		col[name] = i
	}
	require.Contains(t, col, "valid")
	require.Contains(t, col, "original_id")
	require.Contains(t, col, "error_locations")

	assert.Equal(t, "yes", rows[1][col["valid"]])
	assert.Equal(t, "no", rows[2][col["valid"]])
	assert.Equal(t, "id", rows[2][col["error_locations"]])
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := export.Write(&buf, nil, export.Options{Format: export.CSV})
	require.NoError(t, err)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1, "empty export still writes a header")
}

func TestWriteFile(t *testing.T) {
	path := t.TempDir() + "/out.json"
	err := export.WriteFile(path, sampleResults(), export.Options{Format: export.JSON})
	require.NoError(t, err)
	assert.FileExists(t, path)
}
