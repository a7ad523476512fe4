package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/atlaudit/statement-auditor/internal/api/handlers"
	"github.com/atlaudit/statement-auditor/internal/api/middleware"
	"github.com/atlaudit/statement-auditor/internal/archive"
	"github.com/atlaudit/statement-auditor/internal/config"
	"github.com/atlaudit/statement-auditor/internal/extractor"
	"github.com/atlaudit/statement-auditor/internal/jobs"
	"github.com/atlaudit/statement-auditor/internal/jobs/inmemory"
	"github.com/atlaudit/statement-auditor/internal/logger"
	"github.com/atlaudit/statement-auditor/internal/pipeline"
	"github.com/atlaudit/statement-auditor/internal/textextract"
)

const maxUploadBytes = 16 << 20

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(1)
	}

	log := logger.NewWithLevel(cfg.LogLevel)
	ctx := context.Background()

	// Upstream clients.
	generator, err := extractor.NewGeminiGenerator(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	var ocr textextract.OCRClient
	visionClient, err := textextract.NewVisionOCRClient(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Vision OCR unavailable - scanned documents will be rejected")
	} else {
		ocr = visionClient
	}

	archiver, err := archive.New(ctx, cfg.ArchiveBucket, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create archiver")
	}
	if archiver == nil {
		log.Warn().Msg("No archive bucket configured - statement archiving disabled")
	}
	defer archiver.Close()

	// Analysis pipeline.
	acquirer := textextract.NewAcquirer(ocr, textextract.DefaultMinTextChars, log)
	ext := extractor.New(generator, log)
	analyzer := pipeline.NewAnalyzer(acquirer, ext, log)

	// Job infrastructure for asynchronous analyses.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.JobQueueSize, cfg.JobWorkers, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job jobs.Job) error {
		analysisJob, ok := job.(*jobs.AnalyzeStatementJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", analysisJob.JobID).
			Str("account_type", string(analysisJob.AccountType)).
			Msg("Processing analysis job")

		report, err := analyzer.Analyze(ctx, pipeline.Request{
			Mode:        analysisJob.Mode,
			AccountType: analysisJob.AccountType,
			TextData:    analysisJob.TextData,
			Document:    analysisJob.Document,
			MimeType:    analysisJob.MimeType,
		})
		if err != nil {
			log.Error().Err(err).Str("job_id", analysisJob.JobID).Msg("Analysis job failed")
			return err
		}

		analysisJob.Report = report
		log.Info().
			Str("job_id", analysisJob.JobID).
			Int("transactions", len(report.Transactions)).
			Msg("Analysis job completed")
		return nil
	}

	go func() {
		log.Info().Int("workers", cfg.JobWorkers).Msg("Starting job workers")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job worker stopped with error")
		}
	}()

	// Handlers and routes.
	reportsHandler := handlers.NewReportsHandler(analyzer, archiver, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, jobQueue, log)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/reports", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			reportsHandler.GenerateReport(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/reports/upload", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			reportsHandler.UploadStatement(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			jobsHandler.ListJobs(w, r)
		case http.MethodPost:
			jobsHandler.EnqueueAnalysis(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(
					middleware.MaxBodySize(maxUploadBytes)(mux),
				),
			),
		),
	)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
		// Model-backed extraction can take minutes on long statements.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}
