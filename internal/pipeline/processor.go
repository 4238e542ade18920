package pipeline

import (
	"context"
	"log/slog"

	"github.com/rxscan/rxscan/constants"
	"github.com/rxscan/rxscan/internal/common"
	"github.com/rxscan/rxscan/internal/imaging"
	"github.com/rxscan/rxscan/internal/jobs"
	"github.com/rxscan/rxscan/internal/ocr"
	"github.com/rxscan/rxscan/internal/ocrcache"
	"github.com/rxscan/rxscan/internal/parse"
	"github.com/rxscan/rxscan/internal/rules"
	"github.com/rxscan/rxscan/internal/vision"
)

// Recognition runs the variant x config sweep. Satisfied by *ocr.Ensemble;
// substituted in tests.
type Recognition interface {
	Run(ctx context.Context, variants []imaging.Variant, onProgress ocr.ProgressReport) ocr.Result
}

// ProgressFunc observes aggregate job progress for one pipeline run.
type ProgressFunc func(percent int, stage string)

// Processor owns job lifecycle: submission registers a job, a background
// goroutine runs variants -> recognition -> parse -> optional vision
// escalation -> safety checks, and status polls read snapshots.
type Processor struct {
	Logger   *slog.Logger
	Registry *jobs.Registry
	OCR      Recognition
	Vision   vision.Extractor // nil disables escalation
	Rules    *rules.Table
	Cache    ocrcache.Store // nil disables the recognition cache
}

func NewProcessor(logger *slog.Logger, registry *jobs.Registry, rec Recognition, vx vision.Extractor, table *rules.Table, cache ocrcache.Store) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if table == nil {
		table = rules.Default()
	}
	return &Processor{
		Logger:   logger,
		Registry: registry,
		OCR:      rec,
		Vision:   vx,
		Rules:    table,
		Cache:    cache,
	}
}

// Submit validates the input, registers a queued job, and starts its
// background execution. The caller is never blocked by recognition work.
func (p *Processor) Submit(image []byte, mimeType string) (string, error) {
	if len(image) == 0 {
		return "", common.NewAppError("image_required", "image payload is empty", common.ErrInvalidInput)
	}
	mt := constants.NormalizeMIME(mimeType)
	if !constants.IsAllowedImageMIME(mt) {
		return "", common.NewAppError("unsupported_media_type", "unreadable image mime type", common.ErrInvalidInput)
	}

	job := p.Registry.Create()
	go p.run(context.Background(), job.ID, image, mt)
	return job.ID, nil
}

// Status is a pure read of the job snapshot.
func (p *Processor) Status(id string) (jobs.Job, bool) {
	return p.Registry.Get(id)
}

// run executes the whole pipeline inside the job's own goroutine. Anything
// unexpected is caught here and surfaces only as a generic error code.
func (p *Processor) run(ctx context.Context, jobID string, image []byte, mimeType string) {
	defer func() {
		if r := recover(); r != nil {
			p.Logger.Error("pipeline.job.panic", "job_id", jobID, "panic", r)
			p.Registry.Fail(jobID, "ocr_failed")
		}
	}()

	p.Registry.SetProcessing(jobID)

	res, err := p.Process(ctx, image, mimeType, func(percent int, stage string) {
		p.Registry.ReportProgress(jobID, percent)
		p.Logger.Debug("pipeline.job.progress", "job_id", jobID, "percent", percent, "stage", stage)
	})
	if err != nil {
		p.Logger.Error("pipeline.job.failed", "job_id", jobID, "error", err)
		p.Registry.Fail(jobID, "ocr_failed")
		return
	}

	p.Registry.Finish(jobID, res)
	p.Logger.Info("pipeline.job.done",
		"job_id", jobID,
		"meds", len(res.Medications),
		"usable", res.Usable,
		"messages", len(res.Messages),
	)
}

// Process runs the recognition-and-safety pipeline synchronously and returns
// the job result. It is the single code path for background jobs and the
// one-shot CLI.
func (p *Processor) Process(ctx context.Context, image []byte, mimeType string, onProgress ProgressFunc) (*jobs.Result, error) {
	raw := p.recognize(ctx, image, onProgress)

	parsed := parse.Text(raw.Text, raw.Confidence, raw.WordsCount)
	isUsable := usable(parsed)
	p.Logger.Info("pipeline.parse.ok",
		"meds", len(parsed.Medications),
		"usable", isUsable,
		"reason", parsed.Reason,
	)

	if !isUsable && p.Vision != nil {
		parsed, isUsable = p.escalate(ctx, image, mimeType, parsed)
	}

	var checkInputs []rules.MedInput
	if isUsable {
		checkInputs = eligibleForChecks(parsed.Medications)
	}
	messages := []rules.Message{}
	if len(checkInputs) > 0 {
		messages = rules.RunChecks(p.Rules, checkInputs, nil)
	}

	return &jobs.Result{
		Medications: parsed.Medications,
		Raw: jobs.RawRecognition{
			Text:       raw.Text,
			Confidence: raw.Confidence,
			WordsCount: raw.WordsCount,
		},
		Usable:   isUsable,
		Messages: messages,
	}, nil
}

// recognize returns the best recognition result, consulting the cache first.
// Cache failures are logged and ignored; recognition failures yield the zero
// result and it is the parser's guardrails that decide "not enough signal".
func (p *Processor) recognize(ctx context.Context, image []byte, onProgress ProgressFunc) ocr.Result {
	var key string
	if p.Cache != nil {
		key = ocrcache.Key(image)
		if e, ok, err := p.Cache.Get(ctx, key); err != nil {
			p.Logger.Warn("pipeline.cache.get_failed", "error", err)
		} else if ok {
			p.Logger.Info("pipeline.cache.hit", "confidence", e.Confidence, "words", e.WordsCount)
			if onProgress != nil {
				onProgress(100, "cache")
			}
			return ocr.Result{Text: e.Text, Confidence: e.Confidence, WordsCount: e.WordsCount}
		}
	}

	variants := imaging.Generate(image, p.Logger)
	best := p.OCR.Run(ctx, variants, ocr.ProgressReport(onProgress))
	best.Text = ocr.Normalize(best.Text)

	if p.Cache != nil && best.WordsCount > 0 {
		if err := p.Cache.Put(ctx, key, ocrcache.Entry{
			Text:       best.Text,
			Confidence: best.Confidence,
			WordsCount: best.WordsCount,
		}); err != nil {
			p.Logger.Warn("pipeline.cache.put_failed", "error", err)
		}
	}
	return best
}

// escalate sends the original image to the vision model. A confident answer
// with at least one field replaces the heuristic set with a single record;
// an uncertain answer tags the heuristic records; transport/parse failures
// are swallowed with a flag and never fail the job.
func (p *Processor) escalate(ctx context.Context, image []byte, mimeType string, parsed parse.Result) (parse.Result, bool) {
	g, err := p.Vision.Extract(ctx, image, mimeType)
	if err != nil {
		p.Logger.Warn("pipeline.vision.failed", "error", err)
		for i := range parsed.Medications {
			parsed.Medications[i].Flags.GeminiError = true
		}
		return parsed, false
	}

	if !g.Uncertain && !g.Empty() {
		freq := 1
		if g.FrequencyPerDay != nil && *g.FrequencyPerDay > 0 {
			freq = *g.FrequencyPerDay
		}
		med := parse.Medication{
			Drug:            g.Drug,
			DoseMg:          g.DoseMg,
			FrequencyPerDay: &freq,
			Flags:           parse.Flags{GeminiVision: true},
		}
		p.Logger.Info("pipeline.vision.replaced")
		return parse.Result{Medications: []parse.Medication{med}}, true
	}

	p.Logger.Info("pipeline.vision.uncertain")
	for i := range parsed.Medications {
		parsed.Medications[i].Flags.GeminiUncertain = true
	}
	return parsed, false
}

// usable: at least one record carries drug, dose, or a frequency above the
// once-a-day default, and nothing is flagged low confidence.
func usable(res parse.Result) bool {
	if res.LowConfidence {
		return false
	}
	any := false
	for _, m := range res.Medications {
		if m.Flags.LowConfidence {
			return false
		}
		if m.Drug != nil || m.DoseMg != nil || (m.FrequencyPerDay != nil && *m.FrequencyPerDay > 1) {
			any = true
		}
	}
	return any
}

// eligibleForChecks keeps records with both a drug name and a dose; the rule
// engine cannot say anything meaningful about the rest.
func eligibleForChecks(meds []parse.Medication) []rules.MedInput {
	var out []rules.MedInput
	for _, m := range meds {
		if m.Drug == nil || m.DoseMg == nil {
			continue
		}
		in := rules.MedInput{Drug: *m.Drug, DoseMg: *m.DoseMg}
		if m.FrequencyPerDay != nil {
			in.FrequencyPerDay = float64(*m.FrequencyPerDay)
		}
		out = append(out, in)
	}
	return out
}
