package ocr

import "context"

// Result is one recognition attempt's output. Confidence is 0..100.
type Result struct {
	Text       string
	Confidence float64
	WordsCount int
	SourceTag  string // "<variantTag>|<configTag>", diagnostics only
}

// EngineConfig is one named combination of engine behavior switches.
// OEM 1 = neural (LSTM), 3 = legacy+neural; PSM 6 = block, 7 = single line,
// 11 = sparse text.
type EngineConfig struct {
	Tag string
	OEM int
	PSM int
}

// Configs returns the static configuration catalog the ensemble sweeps.
func Configs() []EngineConfig {
	return []EngineConfig{
		{Tag: "oem1_psm6", OEM: 1, PSM: 6},
		{Tag: "oem1_psm7", OEM: 1, PSM: 7},
		{Tag: "oem1_psm11", OEM: 1, PSM: 11},
		{Tag: "oem3_psm6", OEM: 3, PSM: 6},
	}
}

// ProgressFunc receives fractional progress in [0,1] within a single task.
type ProgressFunc func(p float64)

// Recognizer is the narrow contract to the external text-recognition engine.
// It is invoked once per (variant, config) task and must tolerate up to
// variants x configs calls per job.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, cfg EngineConfig, onProgress ProgressFunc) (Result, error)
}
