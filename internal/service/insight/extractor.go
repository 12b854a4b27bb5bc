// Package insight extracts CRM-relevant data and coaching suggestions from
// conversation transcripts via a language model.
package insight

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"sales-conversation-service/internal/observability/metrics"
)

const (
	analyzePromptTemplate = "Analyze the following conversation and extract relevant data for the CRM:\n\n%s"
	suggestPromptTemplate = "Based on the following conversation, generate suggestions for things to say to the sales manager:\n\n%s"
)

// Extractor produces insight text from a transcript. Both calls are
// independent completions; no context is shared between them.
type Extractor interface {
	// AnalyzeConversation returns free text intended for the Lead description.
	AnalyzeConversation(ctx context.Context, transcript string) (string, error)

	// GenerateSuggestions returns free-text coaching suggestions.
	GenerateSuggestions(ctx context.Context, transcript string) (string, error)
}

// completionAPI is the slice of the OpenAI client the extractor uses.
type completionAPI interface {
	CreateCompletion(ctx context.Context, request openai.CompletionRequest) (openai.CompletionResponse, error)
}

// OpenAIExtractor implements Extractor with OpenAI text completions.
type OpenAIExtractor struct {
	client    completionAPI
	model     string
	maxTokens int
	metrics   *metrics.Metrics
}

// NewOpenAIExtractor creates an extractor backed by the OpenAI API.
func NewOpenAIExtractor(apiKey, model string, maxTokens int) *OpenAIExtractor {
	return &OpenAIExtractor{
		client:    openai.NewClient(apiKey),
		model:     model,
		maxTokens: maxTokens,
		metrics:   metrics.DefaultMetrics,
	}
}

// AnalyzeConversation asks the model to pull lead-relevant data out of the
// transcript. The transcript may be empty; it is embedded as-is.
func (e *OpenAIExtractor) AnalyzeConversation(ctx context.Context, transcript string) (string, error) {
	return e.complete(ctx, "analyze", fmt.Sprintf(analyzePromptTemplate, transcript))
}

// GenerateSuggestions asks the model for coaching suggestions for the sales
// manager based on the transcript.
func (e *OpenAIExtractor) GenerateSuggestions(ctx context.Context, transcript string) (string, error) {
	return e.complete(ctx, "suggest", fmt.Sprintf(suggestPromptTemplate, transcript))
}

func (e *OpenAIExtractor) complete(ctx context.Context, purpose, prompt string) (string, error) {
	start := time.Now()
	resp, err := e.client.CreateCompletion(ctx, openai.CompletionRequest{
		Model:     e.model,
		Prompt:    prompt,
		MaxTokens: e.maxTokens,
	})
	e.metrics.CompletionLatency.WithLabelValues(purpose).Observe(time.Since(start).Seconds())
	if err != nil {
		e.metrics.CompletionsTotal.WithLabelValues(purpose, "error").Inc()
		return "", err
	}
	e.metrics.CompletionsTotal.WithLabelValues(purpose, "success").Inc()

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Text), nil
}
