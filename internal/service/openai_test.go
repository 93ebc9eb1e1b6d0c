package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propsearch/internal/config"
)

func newTestOpenAI(t *testing.T, content string, status int) (*OpenAIClient, *ChatCompletionRequest) {
	t.Helper()
	var seen ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&seen))

		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":"boom"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":    "cmpl-1",
			"model": "gpt-test",
			"choices": []map[string]any{
				{"index": 0, "message": map[string]string{"role": "assistant", "content": content}},
			},
			"usage": map[string]int{"total_tokens": 42},
		})
	}))
	t.Cleanup(srv.Close)

	client := NewOpenAIClient(&config.OpenAIConfig{
		APIKey:            "test-key",
		APIBase:           srv.URL,
		ChatModel:         "gpt-test",
		Timeout:           5,
		RequestsPerSecond: 10,
		Enabled:           true,
	})
	return client, &seen
}

func TestOpenAIClient_ParseQueryWithAI(t *testing.T) {
	content := "```json\n{\"bedrooms\": 3, \"property_type\": \"condominium\", \"transport_types\": [\"MRT\"], \"station_names\": [\"KLCC\"], \"max_price\": 3000}\n```"
	client, seen := newTestOpenAI(t, content, http.StatusOK)

	resp, err := client.ParseQueryWithAI(context.Background(), "3 bedroom condo near mrt klcc under rm3000")
	require.NoError(t, err)

	assert.Equal(t, 42, resp.TokensUsed)
	require.NotNil(t, resp.Bedrooms)
	assert.Equal(t, 3, *resp.Bedrooms)
	assert.Equal(t, "condominium", *resp.PropertyType)
	assert.Equal(t, []string{"MRT"}, resp.TransportTypes)
	assert.Equal(t, []string{"KLCC"}, resp.StationNames)
	assert.Equal(t, 3000.0, *resp.MaxPrice)

	assert.Equal(t, "gpt-test", seen.Model)
	require.Len(t, seen.Messages, 2)
	assert.Equal(t, "system", seen.Messages[0].Role)
	assert.Equal(t, "3 bedroom condo near mrt klcc under rm3000", seen.Messages[1].Content)
	require.NotNil(t, seen.ResponseFormat)
	assert.Equal(t, "json_object", seen.ResponseFormat.Type)
}

func TestOpenAIClient_RejectsInvalidSchema(t *testing.T) {
	client, _ := newTestOpenAI(t, `{"property_type": "castle"}`, http.StatusOK)

	_, err := client.ParseQueryWithAI(context.Background(), "castle in kl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation")
}

func TestOpenAIClient_HTTPError(t *testing.T) {
	client, _ := newTestOpenAI(t, "", http.StatusInternalServerError)

	_, err := client.ParseQueryWithAI(context.Background(), "condo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestOpenAIClient_Disabled(t *testing.T) {
	client := NewOpenAIClient(&config.OpenAIConfig{})
	assert.False(t, client.IsEnabled())

	_, err := client.ParseQueryWithAI(context.Background(), "condo")
	assert.ErrorIs(t, err, ErrModelDisabled)

	var nilClient *OpenAIClient
	assert.False(t, nilClient.IsEnabled())
}

func TestDecodeModelResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"bedrooms": 2, "listing_type": "rent", "max_distance": 800}`, false},
		{"nulls allowed", `{"bedrooms": null, "city": null}`, false},
		{"empty object", `{}`, false},
		{"unknown transport", `{"transport_types": ["Tram"]}`, true},
		{"fractional bedrooms", `{"bedrooms": 2.5}`, true},
		{"negative price", `{"max_price": -1}`, true},
		{"inverted price range", `{"min_price": 5000, "max_price": 1000}`, true},
		{"inverted roi range", `{"min_roi": 8, "max_roi": 4}`, true},
		{"not json", `bedrooms: 2`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := decodeModelResponse([]byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, resp)
		})
	}
}
