// Package handlers implements the HTTP endpoints for statement analysis.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/atlaudit/statement-auditor/internal/api/middleware"
	"github.com/atlaudit/statement-auditor/internal/archive"
	"github.com/atlaudit/statement-auditor/internal/domain"
	"github.com/atlaudit/statement-auditor/internal/jobs"
	"github.com/atlaudit/statement-auditor/internal/pipeline"
	"github.com/atlaudit/statement-auditor/internal/textextract"
	"github.com/rs/zerolog"
)

// maxStatementBytes bounds one uploaded statement file.
const maxStatementBytes = 16 << 20

// StatementAnalyzer runs one full statement analysis.
type StatementAnalyzer interface {
	Analyze(ctx context.Context, req pipeline.Request) (*domain.Report, error)
}

// ReportsHandler handles synchronous report generation.
type ReportsHandler struct {
	analyzer StatementAnalyzer
	archiver *archive.Archiver
	log      zerolog.Logger
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(analyzer StatementAnalyzer, archiver *archive.Archiver, log zerolog.Logger) *ReportsHandler {
	return &ReportsHandler{
		analyzer: analyzer,
		archiver: archiver,
		log:      log,
	}
}

// GenerateReport handles POST /api/reports with a JSON body carrying
// pre-extracted statement text.
func (h *ReportsHandler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TextData    string `json:"textData"`
		Mode        string `json:"mode"`
		AccountType string `json:"accountType"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TextData == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Statement text is required")
		return
	}

	report, err := h.analyzer.Analyze(r.Context(), pipeline.Request{
		Mode:        domain.Mode(req.Mode),
		AccountType: domain.AccountType(req.AccountType),
		TextData:    req.TextData,
	})
	if err != nil {
		h.writeAnalysisError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"data": report})
}

// UploadStatement handles POST /api/reports/upload with a multipart form:
// "file" is the statement, "mode" and "accountType" are optional fields.
func (h *ReportsHandler) UploadStatement(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxStatementBytes); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "A statement file is required")
		return
	}
	defer file.Close()

	document, err := io.ReadAll(file)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Could not read uploaded file")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/pdf"
	}

	statementObject := h.archiver.ArchiveStatement(r.Context(), document, header.Filename)

	report, err := h.analyzer.Analyze(r.Context(), pipeline.Request{
		Mode:        domain.Mode(r.FormValue("mode")),
		AccountType: domain.AccountType(r.FormValue("accountType")),
		Document:    document,
		MimeType:    mimeType,
	})
	if err != nil {
		h.writeAnalysisError(w, err)
		return
	}

	h.archiver.ArchiveReport(r.Context(), statementObject, report)

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"data": report})
}

// writeAnalysisError maps pipeline failures to HTTP statuses. An unreadable
// document is the caller's problem; an empty statement is unprocessable;
// anything else is ours.
func (h *ReportsHandler) writeAnalysisError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, textextract.ErrExtractionFailure):
		middleware.WriteError(w, http.StatusBadRequest,
			"Could not extract readable text from the document. Upload a clearer scan or a text-based PDF.")
	case errors.Is(err, pipeline.ErrNoTransactions):
		middleware.WriteError(w, http.StatusUnprocessableEntity,
			"No transactions could be extracted from the statement.")
	case errors.Is(err, pipeline.ErrInvalidRequest):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error().Err(err).Msg("Statement analysis failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Statement analysis failed")
	}
}

// JobsHandler handles asynchronous analysis jobs.
type JobsHandler struct {
	store     jobs.JobStore
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, publisher jobs.Publisher, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store:     store,
		publisher: publisher,
		log:       log,
	}
}

// EnqueueAnalysis handles POST /api/jobs. The statement text is analyzed in
// the background; poll the returned job ID for the report.
func (h *JobsHandler) EnqueueAnalysis(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TextData    string `json:"textData"`
		Mode        string `json:"mode"`
		AccountType string `json:"accountType"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TextData == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Statement text is required")
		return
	}

	job := &jobs.AnalyzeStatementJob{
		Mode:        domain.Mode(req.Mode),
		AccountType: domain.AccountType(req.AccountType),
		TextData:    req.TextData,
	}

	if err := h.publisher.PublishAnalyzeStatement(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue analysis job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue analysis job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Msg("Analysis job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		Status:      jobs.JobStatus(query.Get("status")),
		AccountType: domain.AccountType(query.Get("accountType")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
