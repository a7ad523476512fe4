package main

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/atlaudit/statement-auditor/internal/config"
	"github.com/atlaudit/statement-auditor/internal/domain"
	"github.com/atlaudit/statement-auditor/internal/extractor"
	"github.com/atlaudit/statement-auditor/internal/logger"
	"github.com/atlaudit/statement-auditor/internal/pipeline"
	"github.com/atlaudit/statement-auditor/internal/textextract"
	"github.com/spf13/cobra"
)

var (
	flagMode        string
	flagAccountType string
	flagText        string
	flagJSON        bool
	flagTimeout     time.Duration
)

func main() {
	root := &cobra.Command{
		Use:           "auditor",
		Short:         "Analyze ATL grant account statements for budget compliance",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	audit := &cobra.Command{
		Use:   "audit [statement file]",
		Short: "Generate a compliance report from a bank statement",
		Long: "Extracts transactions from a bank statement (PDF, image, or plain text\n" +
			"via --text), classifies them against the ATL funding categories and\n" +
			"reports tranche utilisation and cap breaches.",
		Args: cobra.MaximumNArgs(1),
		RunE: runAudit,
	}
	audit.Flags().StringVar(&flagMode, "mode", "School", "report tone: School or Auditor")
	audit.Flags().StringVar(&flagAccountType, "account-type", "Savings", "account type: Savings or Current")
	audit.Flags().StringVar(&flagText, "text", "", "analyze pre-extracted statement text instead of a file")
	audit.Flags().BoolVar(&flagJSON, "json", false, "print the full report as JSON")
	audit.Flags().DurationVar(&flagTimeout, "timeout", 10*time.Minute, "overall analysis timeout")
	root.AddCommand(audit)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runAudit(cmd *cobra.Command, args []string) error {
	if _, err := config.Load(); err != nil {
		return err
	}
	log := logger.NewWithLevel(os.Getenv("LOG_LEVEL"))

	req := pipeline.Request{
		Mode:        domain.Mode(flagMode),
		AccountType: domain.AccountType(flagAccountType),
		TextData:    flagText,
	}

	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read statement: %w", err)
		}
		req.Document = data
		req.MimeType = mimeTypeFor(args[0])
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
	defer cancel()

	generator, err := extractor.NewGeminiGenerator(ctx)
	if err != nil {
		return fmt.Errorf("create Gemini client: %w", err)
	}

	var ocr textextract.OCRClient
	if visionClient, err := textextract.NewVisionOCRClient(ctx); err == nil {
		ocr = visionClient
	} else {
		log.Warn().Err(err).Msg("Vision OCR unavailable - scanned documents will be rejected")
	}

	acquirer := textextract.NewAcquirer(ocr, textextract.DefaultMinTextChars, log)
	analyzer := pipeline.NewAnalyzer(acquirer, extractor.New(generator, log), log)

	report, err := analyzer.Analyze(ctx, req)
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printReport(report)
	return nil
}

func mimeTypeFor(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return "application/pdf"
}

func printReport(report *domain.Report) {
	fmt.Printf("\n=== Transactions (%d) ===\n", len(report.Transactions))
	for i, t := range report.Transactions {
		fmt.Printf("\n%d. %s\n", i+1, t.Narration)
		fmt.Printf("   Date:      %s\n", t.Date)
		fmt.Printf("   Amount:    ₹%s (%s)\n", t.Amount.StringFixed(2), t.Direction)
		fmt.Printf("   Category:  %s\n", t.Category)
		fmt.Printf("   Tranche:   %s\n", t.Tranche)
		if t.RiskScore != domain.RiskLow {
			fmt.Printf("   Risk:      %s (%s)\n", t.RiskScore, t.VerificationStatus)
		}
	}

	fmt.Printf("\n=== Compliance Checklist ===\n")
	for _, item := range report.ComplianceChecklist {
		fmt.Printf("[%s] %s - %s\n", item.Status, item.Label, item.Comment)
	}

	if len(report.Observations) > 0 {
		fmt.Printf("\n=== Observations ===\n")
		for _, obs := range report.Observations {
			fmt.Printf("- [%s] %s\n  %s\n", obs.Severity, obs.Observation, obs.Recommendation)
		}
	}

	if len(report.Warnings) > 0 {
		fmt.Printf("\n=== Warnings ===\n")
		for _, w := range report.Warnings {
			fmt.Printf("- %s\n", w)
		}
	}
	fmt.Println()
}
