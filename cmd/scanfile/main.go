package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"

	"github.com/rxscan/rxscan/internal/common"
	"github.com/rxscan/rxscan/internal/jobs"
	"github.com/rxscan/rxscan/internal/ocr"
	"github.com/rxscan/rxscan/internal/pipeline"
	"github.com/rxscan/rxscan/internal/rules"
	"github.com/rxscan/rxscan/internal/vision"
)

// scanfile runs the full pipeline synchronously over one image file and
// prints the result JSON to stdout. Progress goes to stderr.
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: scanfile <image-file>")
		os.Exit(2)
	}
	path := os.Args[1]
	image, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read image", "path", path, "error", err)
		os.Exit(1)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	cfg := common.LoadConfig()
	table := rules.Default()
	if cfg.Rules.Path != "" {
		if table, err = rules.Load(cfg.Rules.Path); err != nil {
			logger.Error("load rules", "error", err)
			os.Exit(1)
		}
	}

	rec := ocr.NewTesseract(ocr.TesseractConfig{
		Binary:      cfg.OCR.Tesseract,
		TessdataDir: cfg.OCR.TessdataDir,
		Lang:        cfg.OCR.Lang,
	})
	var vx vision.Extractor
	if cfg.Vision.APIKey != "" {
		vx = vision.NewGemini(cfg.Vision.APIKey, cfg.Vision.Model, cfg.Vision.Timeout, logger)
	}

	proc := pipeline.NewProcessor(logger, jobs.NewRegistry(), ocr.NewEnsemble(rec, logger), vx, table, nil)

	res, err := proc.Process(context.Background(), image, mimeType, func(percent int, stage string) {
		fmt.Fprintf(os.Stderr, "\r%3d%% %s", percent, stage)
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		logger.Error("pipeline", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		logger.Error("encode result", "error", err)
		os.Exit(1)
	}
}
