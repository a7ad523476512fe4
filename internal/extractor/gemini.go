package extractor

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// Generator is the generative structured-output capability. The production
// implementation calls Gemini; tests substitute fakes.
type Generator interface {
	Generate(ctx context.Context, cfg ModelConfig, system, prompt string) (string, error)
}

// GeminiGenerator implements Generator on google.golang.org/genai.
// Construct once at process start and inject; never a package-level
// singleton.
type GeminiGenerator struct {
	client *genai.Client
}

// NewGeminiGenerator creates a Gemini-backed generator. Credentials come
// from the environment (API key or Application Default Credentials).
func NewGeminiGenerator(ctx context.Context) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiGenerator{client: client}, nil
}

// transactionListSchema mirrors the instruction set: a JSON array of
// transaction objects. Applied only for StrictSchema configurations.
var transactionListSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"date":      {Type: genai.TypeString, Nullable: genai.Ptr(true)},
			"narration": {Type: genai.TypeString},
			"amount":    {Type: genai.TypeNumber},
			"direction": {Type: genai.TypeString, Enum: []string{"DEBIT", "CREDIT"}},
			"gstNo":     {Type: genai.TypeString, Nullable: genai.Ptr(true)},
			"voucherNo": {Type: genai.TypeString, Nullable: genai.Ptr(true)},
		},
		Required: []string{"narration", "amount", "direction"},
	},
}

// Generate performs one structured-output call.
func (g *GeminiGenerator) Generate(ctx context.Context, cfg ModelConfig, system, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	genCfg := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(cfg.Temperature),
		MaxOutputTokens:   cfg.MaxOutputTokens,
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
		ResponseMIMEType:  "application/json",
	}
	if cfg.StrictSchema {
		genCfg.ResponseSchema = transactionListSchema
	}

	resp, err := g.client.Models.GenerateContent(ctx, cfg.Model, contents, genCfg)
	if err != nil {
		return "", fmt.Errorf("generate content (%s): %w", cfg.Model, err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from %s", cfg.Model)
	}
	return text, nil
}

// isTransient reports whether an upstream error is worth retrying with
// backoff (rate limiting, temporary unavailability, timeouts). Anything
// else moves straight to the next configuration.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 429, 500, 503:
			return true
		}
	}
	return false
}
