package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/atlaudit/statement-auditor/internal/domain"
	"github.com/atlaudit/statement-auditor/internal/jobs"
	"github.com/atlaudit/statement-auditor/internal/jobs/inmemory"
	"github.com/atlaudit/statement-auditor/internal/pipeline"
	"github.com/atlaudit/statement-auditor/internal/textextract"
	"github.com/rs/zerolog"
)

// fakeAnalyzer returns a scripted report or error, recording the request.
type fakeAnalyzer struct {
	report *domain.Report
	err    error
	req    pipeline.Request
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, req pipeline.Request) (*domain.Report, error) {
	f.req = req
	return f.report, f.err
}

func newReportsHandler(a StatementAnalyzer) *ReportsHandler {
	return NewReportsHandler(a, nil, zerolog.Nop())
}

func TestGenerateReport(t *testing.T) {
	analyzer := &fakeAnalyzer{report: &domain.Report{
		Transactions: []domain.ClassifiedTransaction{{ID: "t-1"}},
	}}
	h := newReportsHandler(analyzer)

	body := `{"textData":"statement text","mode":"Auditor","accountType":"Current"}`
	req := httptest.NewRequest(http.MethodPost, "/api/reports", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.GenerateReport(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if analyzer.req.Mode != domain.ModeAuditor || analyzer.req.AccountType != domain.AccountCurrent {
		t.Errorf("request passed through as %+v", analyzer.req)
	}

	var resp struct {
		Data domain.Report `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data.Transactions) != 1 || resp.Data.Transactions[0].ID != "t-1" {
		t.Errorf("report = %+v", resp.Data)
	}
}

func TestGenerateReportRequiresText(t *testing.T) {
	h := newReportsHandler(&fakeAnalyzer{})

	req := httptest.NewRequest(http.MethodPost, "/api/reports", strings.NewReader(`{"mode":"School"}`))
	rec := httptest.NewRecorder()
	h.GenerateReport(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestGenerateReportErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"extraction failure", textextract.ErrExtractionFailure, http.StatusBadRequest},
		{"wrapped extraction failure", fmt.Errorf("pipeline step 2: %w", textextract.ErrExtractionFailure), http.StatusBadRequest},
		{"no transactions", fmt.Errorf("pipeline step 4: %w", pipeline.ErrNoTransactions), http.StatusUnprocessableEntity},
		{"invalid request", fmt.Errorf("%w: unknown mode", pipeline.ErrInvalidRequest), http.StatusBadRequest},
		{"internal", fmt.Errorf("upstream exploded"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newReportsHandler(&fakeAnalyzer{err: tt.err})

			req := httptest.NewRequest(http.MethodPost, "/api/reports", strings.NewReader(`{"textData":"x"}`))
			rec := httptest.NewRecorder()
			h.GenerateReport(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestUploadStatement(t *testing.T) {
	analyzer := &fakeAnalyzer{report: &domain.Report{}}
	h := newReportsHandler(analyzer)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "statement.pdf")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write([]byte("%PDF-1.4 fake content")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.WriteField("accountType", "Savings"); err != nil {
		t.Fatalf("WriteField: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/reports/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	h.UploadStatement(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(analyzer.req.Document) == 0 {
		t.Error("document bytes not passed to analyzer")
	}
	if analyzer.req.AccountType != domain.AccountSavings {
		t.Errorf("account type = %s", analyzer.req.AccountType)
	}
}

func TestUploadStatementRequiresFile(t *testing.T) {
	h := newReportsHandler(&fakeAnalyzer{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("mode", "School")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/reports/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	h.UploadStatement(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestEnqueueAndFetchJob(t *testing.T) {
	store := inmemory.NewStore()
	queue := inmemory.NewQueue(4, 1, store)
	defer queue.Close()

	h := NewJobsHandler(store, queue, zerolog.Nop())

	body := `{"textData":"statement text","accountType":"Current"}`
	req := httptest.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.EnqueueAnalysis(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	jobID := resp["job_id"]
	if jobID == "" {
		t.Fatal("no job_id in response")
	}

	getReq := httptest.NewRequest(http.MethodGet, "/api/jobs/"+jobID, nil)
	getRec := httptest.NewRecorder()
	h.GetJob(getRec, getReq, jobID)

	if getRec.Code != http.StatusOK {
		t.Fatalf("GetJob status = %d", getRec.Code)
	}
	var job jobs.AnalyzeStatementJob
	if err := json.Unmarshal(getRec.Body.Bytes(), &job); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	if job.AccountType != domain.AccountCurrent {
		t.Errorf("job account type = %s", job.AccountType)
	}
}

func TestGetJobNotFound(t *testing.T) {
	h := NewJobsHandler(inmemory.NewStore(), nil, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/nope", nil)
	rec := httptest.NewRecorder()
	h.GetJob(rec, req, "nope")

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
}
