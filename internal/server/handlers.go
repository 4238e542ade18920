package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rxscan/rxscan/internal/common"
	"github.com/rxscan/rxscan/internal/explain"
	"github.com/rxscan/rxscan/internal/jobs"
	"github.com/rxscan/rxscan/internal/pipeline"
	"github.com/rxscan/rxscan/internal/rules"
	"github.com/rxscan/rxscan/internal/server/response"
)

// Service exposes the pipeline over HTTP: submit, poll, direct rule checks,
// and plain-language summaries of rule findings.
type Service struct {
	proc           *pipeline.Processor
	rules          *rules.Table
	explainer      *explain.Service
	maxUploadBytes int64
	logger         *slog.Logger
}

func NewService(proc *pipeline.Processor, table *rules.Table, explainer *explain.Service, maxUploadBytes int64, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if explainer == nil {
		explainer = explain.NewService(nil, logger)
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &Service{proc: proc, rules: table, explainer: explainer, maxUploadBytes: maxUploadBytes, logger: logger}
}

type startResponse struct {
	OK    bool   `json:"ok"`
	JobID string `json:"jobId"`
}

// StartOCR handles POST /api/ocr/start: multipart field "image". Responds
// immediately with the job id; recognition runs in the background.
func (s *Service) StartOCR(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		response.Error(w, http.StatusBadRequest, "image_required")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "image_required")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "image_required")
		return
	}
	mimeType := header.Header.Get("Content-Type")

	jobID, err := s.proc.Submit(image, mimeType)
	if err != nil {
		var appErr *common.AppError
		if errors.As(err, &appErr) {
			response.Error(w, http.StatusBadRequest, appErr.Code)
			return
		}
		s.logger.Error("server.start.failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "start_failed")
		return
	}
	response.JSON(w, http.StatusOK, startResponse{OK: true, JobID: jobID})
}

type statusResponse struct {
	OK bool `json:"ok"`
	jobs.Job
}

// JobStatus handles GET /api/ocr/status/{jobID}.
func (s *Service) JobStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")
	job, ok := s.proc.Status(id)
	if !ok {
		response.Error(w, http.StatusNotFound, "not_found")
		return
	}
	response.JSON(w, http.StatusOK, statusResponse{OK: true, Job: job})
}

type checkRequest struct {
	Meds  []rules.MedInput `json:"meds"`
	Foods []string         `json:"foods"`
}

type checkResponse struct {
	OK       bool            `json:"ok"`
	Messages []rules.Message `json:"messages"`
}

// CheckInteractions handles POST /api/interactions/check: a direct,
// synchronous rule-engine call over caller-supplied medications.
func (s *Service) CheckInteractions(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid_body")
		return
	}
	messages := rules.RunChecks(s.rules, req.Meds, req.Foods)
	response.JSON(w, http.StatusOK, checkResponse{OK: true, Messages: messages})
}

type explainRequest struct {
	Messages []rules.Message `json:"messages"`
}

type explainResponse struct {
	OK   bool   `json:"ok"`
	Text string `json:"text"`
}

// ExplainMessages handles POST /api/explain: body `{messages}` from a prior
// check or job result, answered with a plain-language summary.
func (s *Service) ExplainMessages(w http.ResponseWriter, r *http.Request) {
	var req explainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid_body")
		return
	}
	text := s.explainer.Explain(r.Context(), req.Messages)
	response.JSON(w, http.StatusOK, explainResponse{OK: true, Text: text})
}

// Health handles GET /api/health.
func (s *Service) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}
