package ocr

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// TesseractConfig configures the exec-based Tesseract recognizer.
type TesseractConfig struct {
	Binary      string // binary name or absolute path; if empty -> "tesseract"
	TessdataDir string
	Lang        string // default "eng"
}

// Tesseract recognizes text by shelling out to the tesseract binary in TSV
// mode, which carries per-word confidences alongside the text.
type Tesseract struct {
	cfg    TesseractConfig
	runner Runner
}

func NewTesseract(cfg TesseractConfig) *Tesseract {
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	return &Tesseract{cfg: cfg, runner: execRunner{}}
}

// Recognize runs one tesseract invocation over the image bytes. Progress is
// coarse: 0 at start, 1 on completion; the ensemble's aggregation contract
// tolerates any fraction in between.
func (t *Tesseract) Recognize(ctx context.Context, image []byte, cfg EngineConfig, onProgress ProgressFunc) (Result, error) {
	if onProgress != nil {
		onProgress(0)
	}

	args := []string{"stdin", "stdout", "-l", t.cfg.Lang}
	if cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(cfg.OEM))
	}
	if cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(cfg.PSM))
	}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	args = append(args, "-c", "preserve_interword_spaces=1", "tsv")

	out, errb, err := t.runner.Run(ctx, image, t.cfg.Binary, args...)
	if err != nil {
		return Result{}, fmt.Errorf("tesseract: %w (stderr: %s)", err, truncate(string(errb), 512))
	}

	res := parseTSV(string(out))
	if onProgress != nil {
		onProgress(1)
	}
	return res, nil
}

// parseTSV reconstructs the recognized text from word rows and computes the
// mean word confidence (0..100). Columns: level page block par line word
// left top width height conf text.
func parseTSV(tsv string) Result {
	var (
		b         strings.Builder
		confSum   float64
		words     int
		lastBlock = ""
	)
	for i, ln := range strings.Split(tsv, "\n") {
		if i == 0 || len(ln) == 0 {
			continue // skip header
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		confStr := cols[10]
		word := strings.TrimSpace(cols[11])
		if confStr == "" || confStr == "-1" || word == "" {
			continue // non-word rows (page/block/line markers)
		}
		conf, err := strconv.ParseFloat(confStr, 64)
		if err != nil {
			continue
		}

		// block|par|line key; a change starts a new output line
		key := cols[2] + "|" + cols[3] + "|" + cols[4]
		if words > 0 {
			if key == lastBlock {
				b.WriteByte(' ')
			} else {
				b.WriteByte('\n')
			}
		}
		lastBlock = key

		b.WriteString(word)
		confSum += conf
		words++
	}

	res := Result{Text: b.String(), WordsCount: words}
	if words > 0 {
		res.Confidence = confSum / float64(words)
	}
	return res
}
