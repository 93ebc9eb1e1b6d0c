package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"propsearch/internal/config"
	"propsearch/internal/observability"
	"propsearch/internal/utils"
)

// ErrModelDisabled is returned when no API key is configured
var ErrModelDisabled = errors.New("OpenAI API is not enabled (missing API key)")

// OpenAIClient handles OpenAI-compatible chat completions
type OpenAIClient struct {
	config     *config.OpenAIConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewOpenAIClient creates a new OpenAI-compatible client
func NewOpenAIClient(cfg *config.OpenAIConfig) *OpenAIClient {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	log.Info().Str("base", cfg.APIBase).Str("model", cfg.ChatModel).Bool("enabled", cfg.Enabled).
		Msg("language model client configured")

	return &OpenAIClient{
		config:  cfg,
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

// IsEnabled returns whether the client is configured and ready
func (c *OpenAIClient) IsEnabled() bool {
	return c != nil && c.config.Enabled
}

// ChatCompletionRequest represents a chat completion request
type ChatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []ChatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ChatMessage represents a single message in the conversation
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat specifies the format of the response
type ResponseFormat struct {
	Type string `json:"type"` // "json_object" or "text"
}

// ChatCompletionResponse represents the API response
type ChatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int         `json:"index"`
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// ChatCompletion performs a chat completion request
func (c *OpenAIClient) ChatCompletion(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error) {
	if !c.IsEnabled() {
		return nil, ErrModelDisabled
	}

	if req.Model == "" {
		req.Model = c.config.ChatModel
	}
	if req.Temperature == 0 && c.config.ChatTemperature > 0 {
		req.Temperature = c.config.ChatTemperature
	}
	if req.MaxTokens == 0 && c.config.ChatMaxTokens > 0 {
		req.MaxTokens = c.config.ChatMaxTokens
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", c.config.APIBase)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.config.APIKey))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &result, nil
}

const querySystemPrompt = `You are a real estate search assistant in Malaysia. Parse the user's natural language query (English or Malay) into structured filters.

Extract the following information if present:
- bedrooms: number of bedrooms (integer)
- bedroom_mode: "minimum" when the user says "at least", "minimum" or "3+", otherwise "exact"
- bathrooms: number of bathrooms (integer)
- bathroom_mode: "minimum" for "at least 2 bathrooms" or "2+ baths", otherwise "exact"
- property_type: one of "condominium", "apartment", "service-residence", "house", "townhouse", "studio", "penthouse", "land", "office", "shop-office", "retail-space", "commercial", "industrial"
- listing_type: "rent" or "sale"
- min_price / max_price: price in MYR (number)
- min_roi / max_roi: ROI percentage (number)
- city: Malaysian locality name (string)
- transport_types: array of "MRT", "LRT", "KTM", "Monorail", "BRT"
- station_names: array of specific station names mentioned next to a transport keyword
- max_distance: maximum distance to the station in meters (integer)

Important rules:
- Respond ONLY with valid JSON
- If a field is not mentioned, omit it
- For prices: "1.5M" = 1500000, "800K" = 800000, "RM2,500" = 2500
- "10 min walk" = 833 meters
- Words describing the searcher ("for parents", "family", "students") are never station names

Examples:
Query: "3 bedroom condo near MRT KLCC under RM3000"
Response: {"bedrooms": 3, "bedroom_mode": "exact", "property_type": "condominium", "transport_types": ["MRT"], "station_names": ["KLCC"], "max_price": 3000}

Query: "rumah sewa dekat LRT bawah RM1500"
Response: {"property_type": "house", "listing_type": "rent", "transport_types": ["LRT"], "max_price": 1500}

Query: "investment unit with ROI at least 5% in Cyberjaya"
Response: {"min_roi": 5, "city": "Cyberjaya"}`

// ParseQueryWithAI asks the model for structured filters and validates the
// answer against the response schema
func (c *OpenAIClient) ParseQueryWithAI(ctx context.Context, query string) (*AIQueryResponse, error) {
	if !c.IsEnabled() {
		return nil, ErrModelDisabled
	}

	start := time.Now()
	result, tokens, err := c.parseQuery(ctx, query)
	observability.ObserveModel(err, tokens, time.Since(start))
	if err != nil {
		return nil, err
	}
	result.TokensUsed = tokens
	return result, nil
}

func (c *OpenAIClient) parseQuery(ctx context.Context, query string) (*AIQueryResponse, int, error) {
	req := ChatCompletionRequest{
		Model: c.config.ChatModel,
		Messages: []ChatMessage{
			{Role: "system", Content: querySystemPrompt},
			{Role: "user", Content: query},
		},
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	}

	resp, err := c.ChatCompletion(ctx, req)
	if err != nil {
		return nil, 0, err
	}
	tokens := resp.Usage.TotalTokens

	if len(resp.Choices) == 0 {
		return nil, tokens, fmt.Errorf("no response from model")
	}

	content := resp.Choices[0].Message.Content
	raw, err := utils.ExtractModelObject(content)
	if err != nil {
		log.Warn().Str("content", content).Msg("failed to parse model response")
		return nil, tokens, fmt.Errorf("failed to parse model response: %w", err)
	}

	parsed, err := decodeModelResponse(raw)
	if err != nil {
		return nil, tokens, err
	}
	return parsed, tokens, nil
}
