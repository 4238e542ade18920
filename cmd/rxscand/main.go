package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	"github.com/rxscan/rxscan/internal/common"
	"github.com/rxscan/rxscan/internal/explain"
	"github.com/rxscan/rxscan/internal/jobs"
	"github.com/rxscan/rxscan/internal/ocr"
	"github.com/rxscan/rxscan/internal/ocrcache"
	"github.com/rxscan/rxscan/internal/pipeline"
	"github.com/rxscan/rxscan/internal/rules"
	"github.com/rxscan/rxscan/internal/server"
	"github.com/rxscan/rxscan/internal/vision"
)

func main() {
	cfg := common.LoadConfig()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Rule table
	table := rules.Default()
	if cfg.Rules.Path != "" {
		t, err := rules.Load(cfg.Rules.Path)
		if err != nil {
			logger.Error("load rules", "path", cfg.Rules.Path, "error", err)
			os.Exit(1)
		}
		table = t
	}
	logger.Info("rules loaded",
		"interactions", len(table.Interactions),
		"overdose", len(table.Overdose),
		"food", len(table.Food),
	)

	// OCR result cache (optional)
	var cache ocrcache.Store
	switch cfg.Cache.Driver {
	case "sqlite":
		s, err := ocrcache.OpenSQLite(ctx, cfg.Cache.DSN)
		if err != nil {
			logger.Error("open sqlite cache", "error", err)
			os.Exit(1)
		}
		cache = s
	case "postgres":
		s, err := ocrcache.OpenPostgres(ctx, cfg.Cache.DSN, logger)
		if err != nil {
			logger.Error("open postgres cache", "error", err)
			os.Exit(1)
		}
		cache = s
	}
	if cache != nil {
		defer func() {
			if err := cache.Close(); err != nil {
				logger.Error("close cache", "error", err)
			}
		}()
	}

	// Recognition engine + ensemble
	rec := ocr.NewTesseract(ocr.TesseractConfig{
		Binary:      cfg.OCR.Tesseract,
		TessdataDir: cfg.OCR.TessdataDir,
		Lang:        cfg.OCR.Lang,
	})
	ensemble := ocr.NewEnsemble(rec, logger)

	// Vision escalation and summary model (optional, same key)
	var vx vision.Extractor
	var texter explain.Texter
	if cfg.Vision.APIKey != "" {
		vx = vision.NewGemini(cfg.Vision.APIKey, cfg.Vision.Model, cfg.Vision.Timeout, logger)
		texter = explain.NewGemini(cfg.Vision.APIKey, cfg.Vision.Model, cfg.Vision.Timeout, logger)
		logger.Info("gemini enabled", "model", cfg.Vision.Model)
	} else {
		logger.Info("gemini disabled (no GEMINI_API_KEY); explanations use the template")
	}

	proc := pipeline.NewProcessor(logger, jobs.NewRegistry(), ensemble, vx, table, cache)
	svc := server.NewService(proc, table, explain.NewService(texter, logger), cfg.Server.MaxUploadBytes, logger)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.NewRouter(svc, logger),
	}

	go func() {
		logger.Info("http serving", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("stopped")
}
