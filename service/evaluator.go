package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
)

const (
	maxRetries       = 3
	initialBackoff   = time.Second
	evaluatorTimeout = 30 * time.Second
	// maxPromptChars bounds prompts sent to the evaluator to stay inside
	// model context limits.
	maxPromptChars = 30000
)

var (
	ErrEvaluatorNotConfigured = errors.New("evaluator client not configured")
	ErrEvaluationFailed       = errors.New("evaluation failed")
)

// Evaluator submits an instruction/prompt pair to an external model and
// returns its reply as raw JSON bytes. Any transport failure, timeout, or
// non-JSON reply is an error; callers are expected to recover locally with
// a degraded default rather than propagate.
type Evaluator interface {
	Evaluate(ctx context.Context, systemInstruction, userPrompt string) ([]byte, error)
}

// GeminiEvaluator implements Evaluator on the Gemini API
type GeminiEvaluator struct {
	client *genai.Client
	model  string
}

// NewGeminiEvaluator wraps a Gemini client. The client must be non-nil:
// a missing API key is a startup configuration error, not something to
// mask as zero scores later.
func NewGeminiEvaluator(client *genai.Client, model string) (*GeminiEvaluator, error) {
	if client == nil {
		return nil, ErrEvaluatorNotConfigured
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiEvaluator{client: client, model: model}, nil
}

// Evaluate calls the model requesting a JSON reply, with per-call timeout
// and exponential backoff between attempts
func (e *GeminiEvaluator) Evaluate(ctx context.Context, systemInstruction, userPrompt string) ([]byte, error) {
	if len(userPrompt) > maxPromptChars {
		log.Printf("Warning: Prompt too long (%d chars), truncating to %d chars", len(userPrompt), maxPromptChars)
		userPrompt = userPrompt[:maxPromptChars] + "\n\n[Content truncated due to length...]"
	}

	model := e.client.GenerativeModel(e.model)
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.2)
	if systemInstruction != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(systemInstruction)},
		}
	}

	var lastErr error
	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}

		callCtx, cancel := context.WithTimeout(ctx, evaluatorTimeout)
		resp, err := model.GenerateContent(callCtx, genai.Text(userPrompt))
		cancel()
		if err != nil {
			lastErr = err
			continue
		}

		text, err := responseText(resp)
		if err != nil {
			lastErr = err
			continue
		}

		raw := []byte(text)
		if !json.Valid(raw) {
			lastErr = fmt.Errorf("model returned invalid JSON")
			continue
		}
		return raw, nil
	}

	return nil, fmt.Errorf("%w after %d attempts: %v", ErrEvaluationFailed, maxRetries, lastErr)
}

// responseText concatenates the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("model returned no candidates")
	}

	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}

	if sb.Len() == 0 {
		return "", fmt.Errorf("model returned empty content")
	}
	return sb.String(), nil
}
