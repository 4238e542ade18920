package vision

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"```json\n{\"drug\":null}\n```", `{"drug":null}`},
		{"```\n{}\n```", "{}"},
		{"  {} ", "{}"},
		{"no fences", "no fences"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripCodeFences(tt.in))
	}
}

func TestDecodeObject(t *testing.T) {
	t.Run("strict json", func(t *testing.T) {
		var e Extraction
		err := DecodeObject(`{"drug":"warfarin","doseMg":5,"frequencyPerDay":1,"uncertain":false}`, &e)
		require.NoError(t, err)
		require.NotNil(t, e.Drug)
		assert.Equal(t, "warfarin", *e.Drug)
		require.NotNil(t, e.DoseMg)
		assert.Equal(t, 5.0, *e.DoseMg)
		require.NotNil(t, e.FrequencyPerDay)
		assert.Equal(t, 1, *e.FrequencyPerDay)
		assert.False(t, e.Uncertain)
	})

	t.Run("fenced json", func(t *testing.T) {
		var e Extraction
		err := DecodeObject("```json\n{\"drug\":\"aspirin\",\"uncertain\":false}\n```", &e)
		require.NoError(t, err)
		require.NotNil(t, e.Drug)
		assert.Equal(t, "aspirin", *e.Drug)
	})

	t.Run("object buried in prose", func(t *testing.T) {
		var e Extraction
		err := DecodeObject(`Here is the result: {"drug":"metformin","doseMg":500,"uncertain":false} hope that helps`, &e)
		require.NoError(t, err)
		require.NotNil(t, e.Drug)
		assert.Equal(t, "metformin", *e.Drug)
	})

	t.Run("no object at all", func(t *testing.T) {
		var e Extraction
		err := DecodeObject("I could not read the label", &e)
		require.Error(t, err)
	})

	t.Run("broken object", func(t *testing.T) {
		var e Extraction
		err := DecodeObject(`{"drug": "warfarin`, &e)
		require.Error(t, err)
	})
}

func TestExtraction_Empty(t *testing.T) {
	assert.True(t, Extraction{Uncertain: true}.Empty())

	d := "warfarin"
	assert.False(t, Extraction{Drug: &d}.Empty())

	mg := 5.0
	assert.False(t, Extraction{DoseMg: &mg}.Empty())

	f := 2
	assert.False(t, Extraction{FrequencyPerDay: &f}.Empty())
}

func TestGeminiExtract_EmptyKey(t *testing.T) {
	g := NewGemini("", "", 0, nil)
	_, err := g.Extract(context.Background(), []byte("img"), "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key")
}
