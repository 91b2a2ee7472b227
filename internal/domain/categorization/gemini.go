package categorization

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	// classifyTimeout bounds a single classification call; the pipeline
	// must never block on the external service.
	classifyTimeout = 10 * time.Second

	// classifyRateLimit caps outbound calls per second during bulk
	// imports.
	classifyRateLimit = 5
)

// GeminiClassifier calls a Gemini-style generateContent endpoint and digs
// the CategoryAnalysis JSON out of the returned text.
type GeminiClassifier struct {
	client   *http.Client
	endpoint string
	apiKey   string
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// DefaultEndpoint returns the public generateContent URL for a model.
func DefaultEndpoint(model string) string {
	return fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent", model)
}

// NewGeminiClassifier builds a classifier for the given endpoint. The
// endpoint is called as-is with the API key in a header, so it works against
// a proxy or a fake in tests.
func NewGeminiClassifier(endpoint, apiKey string, logger *slog.Logger) *GeminiClassifier {
	return &GeminiClassifier{
		client:   &http.Client{Timeout: classifyTimeout},
		endpoint: endpoint,
		apiKey:   apiKey,
		limiter:  rate.NewLimiter(rate.Limit(classifyRateLimit), classifyRateLimit),
		logger:   logger,
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Classify sends one transaction to the service. Every failure mode, from
// rate limiting to malformed JSON, surfaces as an error so the caller falls
// back to the rule engine; there are no retries.
func (g *GeminiClassifier) Classify(ctx context.Context, input ClassifyInput) (*CategoryAnalysis, error) {
	if !g.limiter.Allow() {
		return nil, fmt.Errorf("classifier rate limit exceeded")
	}

	ctx, cancel := context.WithTimeout(ctx, classifyTimeout)
	defer cancel()

	prompt := fmt.Sprintf(
		`Classify this bank transaction. Respond with a JSON object with fields `+
			`category, confidence (0-1), isIncome, tags, reasoning. `+
			`Description: %q Amount (cents): %d Merchant: %q`,
		input.Description, input.Amount, input.Merchant)

	payload, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("x-goog-api-key", g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classify call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read classify response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		g.logger.Warn("classifier returned non-200",
			slog.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("classify call returned status %d", resp.StatusCode)
	}

	var gr geminiResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return nil, fmt.Errorf("failed to parse classify response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("classify response has no candidates")
	}

	analysis, err := extractAnalysis(gr.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		g.logger.Warn("classifier response unusable", slog.Any("error", err))
		return nil, err
	}
	return analysis, nil
}
