package explain

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxscan/rxscan/internal/rules"
)

type fakeTexter struct {
	out       string
	err       error
	gotPrompt string
	calls     int
}

func (f *fakeTexter) Generate(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.gotPrompt = prompt
	return f.out, f.err
}

func findings() []rules.Message {
	return []rules.Message{
		{Type: rules.TypeInteraction, Severity: "high", Message: "Warfarin + NSAIDs raise bleeding risk."},
		{Type: rules.TypeOverdose, Severity: "high", Message: "Ibuprofen above the daily maximum. You entered ~3200 mg/day."},
	}
}

func TestExplain_NoFindings(t *testing.T) {
	model := &fakeTexter{}
	s := NewService(model, slog.New(slog.DiscardHandler))

	got := s.Explain(context.Background(), nil)
	assert.Equal(t, "No major interactions or overdose concerns detected based on current inputs.", got)
	assert.Zero(t, model.calls)
}

func TestExplain_NoModelUsesTemplate(t *testing.T) {
	s := NewService(nil, slog.New(slog.DiscardHandler))

	got := s.Explain(context.Background(), findings())
	assert.True(t, strings.HasPrefix(got, "Based on your medicines"), got)
	assert.Contains(t, got, "- Warfarin + NSAIDs raise bleeding risk.\n- Ibuprofen above the daily maximum.")
	assert.Contains(t, got, "consult your healthcare provider")
}

func TestExplain_ModelAnswer(t *testing.T) {
	model := &fakeTexter{out: "  These medicines can interact; check with your clinician.\n"}
	s := NewService(model, slog.New(slog.DiscardHandler))

	got := s.Explain(context.Background(), findings())
	assert.Equal(t, "These medicines can interact; check with your clinician.", got)
	require.Equal(t, 1, model.calls)
	assert.Contains(t, model.gotPrompt, "plain language")
	assert.Contains(t, model.gotPrompt, "- Warfarin + NSAIDs raise bleeding risk.")
}

func TestExplain_ModelFailureFallsBack(t *testing.T) {
	model := &fakeTexter{err: errors.New("quota exceeded")}
	s := NewService(model, slog.New(slog.DiscardHandler))

	got := s.Explain(context.Background(), findings())
	assert.True(t, strings.HasPrefix(got, "Based on your medicines"), got)
}

func TestExplain_EmptyModelAnswerFallsBack(t *testing.T) {
	model := &fakeTexter{out: "   "}
	s := NewService(model, slog.New(slog.DiscardHandler))

	got := s.Explain(context.Background(), findings())
	assert.True(t, strings.HasPrefix(got, "Based on your medicines"), got)
}

func TestGeminiGenerate_EmptyKey(t *testing.T) {
	g := NewGemini("", "", 0, nil)
	_, err := g.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key")
}
