package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sknshr/kakao-hr-bot/internal/logger"
)

const defaultBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterService implements core.LLMService against the OpenRouter API.
type OpenRouterService struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// OpenRouterError represents an error response from the OpenRouter API.
type OpenRouterError struct {
	Error struct {
		Message  string `json:"message"`
		Code     int    `json:"code"`
		Metadata struct {
			Raw          string `json:"raw"`
			ProviderName string `json:"provider_name"`
		} `json:"metadata"`
	} `json:"error"`
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents a request to the chat completion API.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float32   `json:"temperature"`
}

// NewOpenRouterService creates a new instance of OpenRouterService.
func NewOpenRouterService(apiKey, model string) *OpenRouterService {
	return &OpenRouterService{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second, // Generous timeout for LLM responses
		},
	}
}

// WithBaseURL overrides the API endpoint, mainly for tests.
func (s *OpenRouterService) WithBaseURL(baseURL string) *OpenRouterService {
	s.baseURL = baseURL
	return s
}

// Complete sends one system+user exchange and returns the model's text.
func (s *OpenRouterService) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error) {
	reqBody := ChatRequest{
		Model: s.model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	logger.Debug("Sending request to LLM '%s' (%d prompt chars)", s.model, len(systemPrompt)+len(userPrompt))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	// The API reports some failures with a 200 status, so check the error
	// envelope before the status code.
	var apiErr OpenRouterError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		errMsg := fmt.Sprintf("OpenRouter API error: %s (code: %d)", apiErr.Error.Message, apiErr.Error.Code)
		if apiErr.Error.Metadata.ProviderName != "" {
			errMsg = fmt.Sprintf("OpenRouter API error (%s): %s", apiErr.Error.Metadata.ProviderName, apiErr.Error.Message)
		}
		logger.Error("%s", errMsg)
		return "", fmt.Errorf("%s", errMsg)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("OpenRouter API HTTP error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Choices []struct {
			FinishReason string  `json:"finish_reason"`
			Message      Message `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage,omitempty"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("OpenRouter API returned no choices")
	}

	if parsed.Usage.TotalTokens > 0 {
		logger.Debug("LLM usage - prompt: %d, completion: %d, total: %d tokens, finish: %s",
			parsed.Usage.PromptTokens, parsed.Usage.CompletionTokens,
			parsed.Usage.TotalTokens, parsed.Choices[0].FinishReason)
	}

	return parsed.Choices[0].Message.Content, nil
}
