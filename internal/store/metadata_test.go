package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataMarshalNaturalJSON(t *testing.T) {
	meta := Metadata{
		"journal":  String("Nature Genetics"),
		"year":     Number(2021),
		"reviewed": Bool(true),
		"extra": Map(Metadata{
			"pmid": String("34012345"),
		}),
	}

	data, err := json.Marshal(meta)
	require.NoError(t, err)

	// Natural JSON, no kind tags on the wire
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "Nature Genetics", raw["journal"])
	assert.Equal(t, 2021.0, raw["year"])
	assert.Equal(t, true, raw["reviewed"])
	nested, ok := raw["extra"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "34012345", nested["pmid"])
}

func TestMetadataUnmarshal(t *testing.T) {
	input := `{"journal":"Cell","year":2019,"reviewed":false,"extra":{"issue":4}}`

	var meta Metadata
	require.NoError(t, json.Unmarshal([]byte(input), &meta))

	journal, ok := meta["journal"].AsString()
	assert.True(t, ok)
	assert.Equal(t, "Cell", journal)

	year, ok := meta["year"].AsNumber()
	assert.True(t, ok)
	assert.Equal(t, 2019.0, year)

	reviewed, ok := meta["reviewed"].AsBool()
	assert.True(t, ok)
	assert.False(t, reviewed)

	extra, ok := meta["extra"].AsMap()
	require.True(t, ok)
	issue, ok := extra["issue"].AsNumber()
	assert.True(t, ok)
	assert.Equal(t, 4.0, issue)
}

func TestMetadataRejectsUnsupportedValues(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"array", `{"tags":["a","b"]}`},
		{"null", `{"missing":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var meta Metadata
			err := json.Unmarshal([]byte(tt.input), &meta)
			assert.Error(t, err)
		})
	}
}

func TestValueAccessorsWrongKind(t *testing.T) {
	v := String("hello")

	_, ok := v.AsNumber()
	assert.False(t, ok)
	_, ok = v.AsBool()
	assert.False(t, ok)
	_, ok = v.AsMap()
	assert.False(t, ok)

	s, ok := v.AsString()
	assert.True(t, ok)
	assert.Equal(t, "hello", s)
}
