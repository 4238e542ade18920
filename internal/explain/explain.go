package explain

import (
	"context"
	"log/slog"
	"strings"

	"github.com/rxscan/rxscan/internal/rules"
)

// Texter is the narrow contract to the summarization model.
type Texter interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

const noFindings = "No major interactions or overdose concerns detected based on current inputs."

const promptHeader = `Summarize these medication safety notes in friendly, plain language (max 3 sentences).
Avoid absolute directives; recommend consulting a clinician if serious.

Notes:
`

// Service turns rule-engine findings into a short plain-language summary.
// With no model configured, or on any model failure, it degrades to a
// deterministic bullet-list template; Explain never fails.
type Service struct {
	model  Texter // nil disables the model path
	logger *slog.Logger
}

func NewService(model Texter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{model: model, logger: logger}
}

// Explain summarizes the findings. No findings is itself an answer.
func (s *Service) Explain(ctx context.Context, messages []rules.Message) string {
	if len(messages) == 0 {
		return noFindings
	}
	bullets := bulletList(messages)
	if s.model == nil {
		return fallback(bullets)
	}

	out, err := s.model.Generate(ctx, promptHeader+bullets)
	if err != nil {
		s.logger.Warn("explain.model.failed", "error", err)
		return fallback(bullets)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return fallback(bullets)
	}
	return out
}

func bulletList(messages []rules.Message) string {
	var b strings.Builder
	for i, m := range messages {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(m.Message)
	}
	return b.String()
}

func fallback(bullets string) string {
	return "Based on your medicines, here’s what we found:\n" + bullets +
		"\nPlease consult your healthcare provider for personal advice."
}
