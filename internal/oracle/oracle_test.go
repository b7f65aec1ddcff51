package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/ai/azopenai"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/danielolaszy/ticketpulse/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUnconfigured(t *testing.T) {
	tests := []struct {
		name   string
		oracle config.OracleConfig
	}{
		{name: "Nothing set", oracle: config.OracleConfig{}},
		{name: "Missing key", oracle: config.OracleConfig{Endpoint: "https://x.openai.azure.com/", Deployment: "gpt-4o"}},
		{name: "Missing endpoint", oracle: config.OracleConfig{Key: "k", Deployment: "gpt-4o"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(&config.Config{Oracle: tt.oracle})
			assert.Nil(t, client)
			assert.True(t, errors.Is(err, ErrOracleUnavailable))
		})
	}
}

func TestNilClientIsUnavailable(t *testing.T) {
	var client *AzureClient
	_, err := client.Classify(context.Background(), "prompt", "")
	assert.True(t, errors.Is(err, ErrOracleUnavailable))
}

func newAzureTestClient(t *testing.T, handler http.HandlerFunc) *AzureClient {
	t.Helper()
	server := httptest.NewTLSServer(handler)
	t.Cleanup(server.Close)

	opts := &azopenai.ClientOptions{ClientOptions: azcore.ClientOptions{Transport: server.Client()}}
	opts.Retry.MaxRetries = -1

	client, err := NewAzureClient(config.OracleConfig{
		Endpoint:   server.URL + "/",
		Key:        "azure-key",
		Deployment: "gpt-4o",
	}, 5*time.Second, opts)
	require.NoError(t, err)
	return client
}

func TestClassify(t *testing.T) {
	var body map[string]any
	client := newAzureTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.Equal(t, "azure-key", r.Header.Get("api-key"))

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "  [{\"ticket_key\": \"AL-1\"}]\n"}}]
		}`))
	})

	answer, err := client.Classify(context.Background(), "classify these tickets", "[{ticket_key}]")
	require.NoError(t, err)
	assert.Equal(t, `[{"ticket_key": "AL-1"}]`, answer)

	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	system := messages[0].(map[string]any)
	assert.Equal(t, "system", system["role"])
	assert.Contains(t, system["content"], "[{ticket_key}]")
	user := messages[1].(map[string]any)
	assert.Equal(t, "user", user["role"])
	assert.Equal(t, "classify these tickets", user["content"])
}

func TestClassifyNoChoices(t *testing.T) {
	client := newAzureTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "chatcmpl-2", "created": 1700000000, "choices": []}`))
	})

	_, err := client.Classify(context.Background(), "prompt", "")
	assert.True(t, errors.Is(err, ErrOracleUnavailable))
}

func TestClassifyServiceError(t *testing.T) {
	client := newAzureTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"code": "BadRequest", "message": "content filtered"}}`))
	})

	_, err := client.Classify(context.Background(), "prompt", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get chat completion")
}
