package ocr

import (
	"context"
	"log/slog"
	"math"

	"github.com/rxscan/rxscan/internal/imaging"
)

// ProgressReport receives the aggregate percent (0..100) plus a stage label
// of the form "<variantTag>|<configTag>". Monotonicity is enforced by the
// job orchestrator, not here.
type ProgressReport func(percent int, stage string)

// Ensemble sweeps every (variant, config) pair through the recognition
// engine, one task at a time, and keeps the best result.
type Ensemble struct {
	rec     Recognizer
	configs []EngineConfig
	logger  *slog.Logger
}

func NewEnsemble(rec Recognizer, logger *slog.Logger) *Ensemble {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ensemble{rec: rec, configs: Configs(), logger: logger}
}

// Run executes all recognition tasks sequentially and returns the single best
// result: highest confidence, ties broken by higher word count. If every task
// fails the zero Result is returned; the parser's guardrails are the one
// place that decides "not enough signal".
func (e *Ensemble) Run(ctx context.Context, variants []imaging.Variant, onProgress ProgressReport) Result {
	total := len(variants) * len(e.configs)
	completed := 0
	var best Result

	for _, v := range variants {
		for _, cfg := range e.configs {
			stage := v.Tag + "|" + cfg.Tag
			done := completed // capture for the per-task closure

			out, err := e.rec.Recognize(ctx, v.Bytes, cfg, func(p float64) {
				if onProgress != nil {
					onProgress(overallPercent(done, p, total), stage)
				}
			})
			if err != nil {
				// failed task counts as zero confidence, job continues
				e.logger.Warn("ocr.ensemble.task_failed", "stage", stage, "error", err)
				out = Result{}
			}

			if out.Confidence > best.Confidence ||
				(out.Confidence == best.Confidence && out.WordsCount > best.WordsCount) {
				best = out
				best.SourceTag = stage
			}

			completed++
			if onProgress != nil {
				onProgress(overallPercent(completed, 0, total), stage)
			}
			e.logger.Debug("ocr.ensemble.task_done",
				"stage", stage,
				"confidence", out.Confidence,
				"words", out.WordsCount,
				"completed", completed,
				"total", total,
			)
		}
	}

	e.logger.Info("ocr.ensemble.best",
		"source", best.SourceTag,
		"confidence", best.Confidence,
		"words", best.WordsCount,
		"text_bytes", len(best.Text),
	)
	return best
}

func overallPercent(completed int, p float64, total int) int {
	if total <= 0 {
		return 100
	}
	pct := int(math.Round((float64(completed) + p) / float64(total) * 100))
	if pct > 100 {
		pct = 100
	}
	return pct
}
