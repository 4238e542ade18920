package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText_Guardrails(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		confidence float64
		words      int
		reason     string
	}{
		{
			name:       "too few words regardless of confidence",
			text:       "Ibuprofen 200mg",
			confidence: 99,
			words:      2,
			reason:     ReasonLowConfidence,
		},
		{
			name:       "confidence below threshold",
			text:       "Take Ibuprofen 200mg twice daily",
			confidence: 54.9,
			words:      6,
			reason:     ReasonLowConfidence,
		},
		{
			name:       "text too short after normalization",
			text:       "a   b   c",
			confidence: 90,
			words:      3,
			reason:     ReasonLowConfidence,
		},
		{
			name:       "length gate counts characters not bytes",
			text:       "аб вг дежз", // 10 runes, 18 bytes
			confidence: 90,
			words:      3,
			reason:     ReasonLowConfidence,
		},
		{
			name:       "empty text",
			text:       "",
			confidence: 90,
			words:      10,
			reason:     ReasonLowConfidence,
		},
		{
			name:       "no prescription signals",
			text:       "the quick brown fox jumps over the lazy sleeping dog",
			confidence: 90,
			words:      10,
			reason:     ReasonNoRxSignals,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Text(tt.text, tt.confidence, tt.words)
			assert.Empty(t, got.Medications)
			assert.True(t, got.LowConfidence)
			assert.Equal(t, tt.reason, got.Reason)
		})
	}
}

func TestText_SingleMedication(t *testing.T) {
	got := Text("Take Ibuprofen 200mg twice daily before meals", 90, 10)

	require.False(t, got.LowConfidence)
	require.Len(t, got.Medications, 1)
	m := got.Medications[0]
	require.NotNil(t, m.Drug)
	assert.Equal(t, "ibuprofen", *m.Drug)
	require.NotNil(t, m.DoseMg)
	assert.Equal(t, 200.0, *m.DoseMg)
	require.NotNil(t, m.FrequencyPerDay)
	assert.Equal(t, 2, *m.FrequencyPerDay)
	require.NotNil(t, m.Timing)
	assert.Equal(t, "before meals", *m.Timing)
	assert.False(t, m.Flags.UnknownDrug)
}

func TestText_MultipleLines(t *testing.T) {
	text := "Warfarin 5mg once daily\nIbuprofen 400mg three times daily after meals"
	got := Text(text, 88, 11)

	require.Len(t, got.Medications, 2)
	assert.Equal(t, "warfarin", *got.Medications[0].Drug)
	assert.Equal(t, 5.0, *got.Medications[0].DoseMg)
	assert.Equal(t, 1, *got.Medications[0].FrequencyPerDay)
	assert.Nil(t, got.Medications[0].Timing)

	assert.Equal(t, "ibuprofen", *got.Medications[1].Drug)
	assert.Equal(t, 400.0, *got.Medications[1].DoseMg)
	assert.Equal(t, 3, *got.Medications[1].FrequencyPerDay)
	require.NotNil(t, got.Medications[1].Timing)
	assert.Equal(t, "after meals", *got.Medications[1].Timing)
}

func TestText_UnknownDrugFlag(t *testing.T) {
	got := Text("Take Zylophen 150mg with food every day", 80, 8)

	require.Len(t, got.Medications, 1)
	m := got.Medications[0]
	assert.Equal(t, "zylophen", *m.Drug)
	assert.True(t, m.Flags.UnknownDrug)
	require.NotNil(t, m.Timing)
	assert.Equal(t, "with food", *m.Timing)
}

func TestText_WholeTextFallback(t *testing.T) {
	// no single line matches name+dose, the whole normalized text does
	got := Text("Rx refill\nmetformin\n500 mg, twice daily", 75, 7)

	require.Len(t, got.Medications, 1)
	m := got.Medications[0]
	require.NotNil(t, m.Drug)
	assert.Equal(t, "metformin", *m.Drug)
	require.NotNil(t, m.DoseMg)
	assert.Equal(t, 500.0, *m.DoseMg)
	assert.Equal(t, 2, *m.FrequencyPerDay)
}

func TestText_FallbackDropsUnknownName(t *testing.T) {
	// fallback path nils a name it cannot vouch for, keeps the dose
	got := Text("quantity 30 unknownium\n250 mg daily dose", 80, 7)

	require.Len(t, got.Medications, 1)
	m := got.Medications[0]
	assert.Nil(t, m.Drug)
	require.NotNil(t, m.DoseMg)
	assert.Equal(t, 250.0, *m.DoseMg)
}

func TestText_NoStrongParsePlaceholder(t *testing.T) {
	// has rx keywords but no extractable dose anywhere
	got := Text("take one tablet daily as prescribed by your doctor", 80, 9)

	require.Len(t, got.Medications, 1)
	m := got.Medications[0]
	assert.Nil(t, m.Drug)
	assert.Nil(t, m.DoseMg)
	assert.Nil(t, m.FrequencyPerDay)
	assert.Nil(t, m.Timing)
	assert.True(t, m.Flags.LowConfidence)
	assert.Equal(t, ReasonNoStrongParse, m.Flags.Reason)
}

func TestFrequencyPerDay(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"take once daily", 1},
		{"once a day", 1},
		{"twice daily", 2},
		{"BID with water", 2},
		{"2x per day", 2},
		{"three times daily", 3},
		{"TID", 3},
		{"four times a day", 4},
		{"QID", 4},
		{"every 6 hours", 4},
		{"every 8 hours", 3},
		{"every 5 hrs", 5},
		{"every 12 h", 2},
		{"every 24 hours", 1},
		{"no frequency mentioned", 1},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := frequencyPerDay(tt.in); got != tt.want {
				t.Errorf("frequencyPerDay(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsCommonDrug(t *testing.T) {
	assert.True(t, IsCommonDrug("  Warfarin "))
	assert.True(t, IsCommonDrug("ibuprofen"))
	assert.False(t, IsCommonDrug("zylophen"))
}
