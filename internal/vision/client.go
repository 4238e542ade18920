package vision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Extraction is the strict JSON contract with the vision model. Uncertain
// means the model declined to commit; callers keep their heuristic result.
type Extraction struct {
	Drug            *string  `json:"drug"`
	DoseMg          *float64 `json:"doseMg"`
	FrequencyPerDay *int     `json:"frequencyPerDay"`
	Uncertain       bool     `json:"uncertain"`
}

// Empty reports whether no field carries a value.
func (e Extraction) Empty() bool {
	return e.Drug == nil && e.DoseMg == nil && e.FrequencyPerDay == nil
}

// Extractor is the narrow contract to the vision-capable model service.
type Extractor interface {
	Extract(ctx context.Context, image []byte, mimeType string) (Extraction, error)
}

const extractionPrompt = `You are reading a prescription label or doctor's note image.
Return ONLY strict JSON:

{
  "drug": string|null,
  "doseMg": number|null,
  "frequencyPerDay": number|null,
  "uncertain": boolean
}

Rules:
- If text is unclear / not a prescription, set all fields to null and uncertain=true.
- Normalize dose to mg only (strip units).
- Map frequency text to number of times per day:
  - "once daily", "q24h" => 1
  - "twice daily", "BID", "2x/day" => 2
  - "TID" => 3
  - "QID" => 4
  - "every X hours" => round(24 / X), clamp 1..24
- Do not hallucinate drug names; if unsure, use null and uncertain=true.`

// Gemini asks a Gemini vision model to read the original image when the
// heuristic parse was not usable.
type Gemini struct {
	apiKey  string
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

func NewGemini(apiKey, model string, timeout time.Duration, logger *slog.Logger) *Gemini {
	if logger == nil {
		logger = slog.Default()
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &Gemini{
		apiKey:  strings.TrimSpace(apiKey),
		model:   strings.TrimSpace(model),
		timeout: timeout,
		logger:  logger,
	}
}

// Extract sends the image and decodes the model's strict-JSON answer.
// Malformed but recoverable output is tolerated (code fences, surrounding
// prose); an unusable answer degrades to uncertain=true rather than an error.
func (g *Gemini) Extract(ctx context.Context, image []byte, mimeType string) (Extraction, error) {
	if g.apiKey == "" {
		return Extraction{}, errors.New("gemini: api key is empty")
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	cl, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return Extraction{}, fmt.Errorf("gemini: new client: %w", err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(g.model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
	}

	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	start := time.Now()
	resp, err := m.GenerateContent(ctx,
		genai.Text(extractionPrompt),
		&genai.Blob{MIMEType: mimeType, Data: image},
	)
	if err != nil {
		return Extraction{}, fmt.Errorf("gemini: generate: %w", err)
	}

	raw := firstText(resp)
	g.logger.Debug("vision.extract.response",
		"model", g.model,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	if raw == "" {
		return Extraction{}, errors.New("gemini: empty response")
	}

	var out Extraction
	if err := DecodeObject(raw, &out); err != nil {
		// last resort: treat undecodable output as an uncertain read
		g.logger.Warn("vision.extract.bad_json", "error", err)
		return Extraction{Uncertain: true}, nil
	}
	return out, nil
}

// firstText concatenates the text parts of the first candidate.
func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return strings.TrimSpace(b.String())
}

func ptrFloat32(v float32) *float32 { return &v }
