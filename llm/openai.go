package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// retryBaseDelay scales the linear backoff between retries; tests shrink it.
var retryBaseDelay = 2 * time.Second

// OpenAIProvider implements Summarizer against any OpenAI-compatible chat
// completions endpoint.
type OpenAIProvider struct {
	apiKey     string
	baseURL    string
	model      string
	maxRetries int
	debug      bool
	httpClient *http.Client
}

// NewOpenAIProvider creates a provider. baseURL may point at any
// OpenAI-compatible server; empty means the OpenAI API.
func NewOpenAIProvider(apiKey, baseURL, model string, timeout time.Duration, maxRetries int, debug bool) *OpenAIProvider {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &OpenAIProvider{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		maxRetries: maxRetries,
		debug:      debug,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// openAIRequestPayload defines the structure for the chat completions request.
type openAIRequestPayload struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
}

// openAIMessage defines a message in the conversation.
type openAIMessage struct {
	Role    string `json:"role"` // "system", "user", or "assistant"
	Content string `json:"content"`
}

// openAIResponsePayload defines the structure of the API response.
type openAIResponsePayload struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int           `json:"index"`
		Message      openAIMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Summarize sends the prompt as a single user message and returns the model
// reply. Recoverable statuses (429 and 5xx) are retried with backoff up to
// the configured limit.
func (p *OpenAIProvider) Summarize(ctx context.Context, prompt string) (string, error) {
	payload := openAIRequestPayload{
		Model:       p.model,
		Messages:    []openAIMessage{{Role: "user", Content: prompt}},
		Temperature: 0.2,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * retryBaseDelay
			if p.debug {
				slog.Debug("retrying summarization", "attempt", attempt, "backoff", backoff)
			}
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		reply, retryable, err := p.send(ctx, body)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return "", lastErr
}

func (p *OpenAIProvider) send(ctx context.Context, body []byte) (reply string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", true, fmt.Errorf("model endpoint returned %d: %s", resp.StatusCode, string(raw))
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", false, fmt.Errorf("model endpoint returned %d: %s", resp.StatusCode, string(raw))
	}

	var payload openAIResponsePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", false, fmt.Errorf("decode response: %w", err)
	}
	if len(payload.Choices) == 0 {
		return "", false, fmt.Errorf("model returned no choices")
	}
	if p.debug {
		slog.Debug("summarization usage",
			"prompt_tokens", payload.Usage.PromptTokens,
			"completion_tokens", payload.Usage.CompletionTokens)
	}
	return strings.TrimSpace(payload.Choices[0].Message.Content), false, nil
}
