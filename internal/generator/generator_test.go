package generator

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatServer(t *testing.T, status int, content string, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		if seen != nil {
			_ = json.Unmarshal(body, seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = io.WriteString(w, `{"error":{"message":"boom","type":"server_error"}}`)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAI_GenerateForwardsOptions(t *testing.T) {
	var seen map[string]any
	srv := chatServer(t, http.StatusOK, " a torus shape", &seen)

	g, err := NewOpenAI(Config{
		BaseURL: srv.URL,
		APIKey:  "sk-test",
		Model:   "test-model",
		Options: Options{MaxTokens: 100, Temperature: 0.8, TopP: 0.95},
	})
	require.NoError(t, err)

	out, err := g.Generate(context.Background(), "make a ring")
	require.NoError(t, err)
	assert.Equal(t, " a torus shape", out)

	assert.Equal(t, "test-model", seen["model"])
	assert.InDelta(t, 0.8, seen["temperature"], 1e-9)
	assert.InDelta(t, 0.95, seen["top_p"], 1e-9)
	assert.InDelta(t, 100, seen["max_tokens"], 1e-9)
}

func TestOpenAI_EchoPrompt(t *testing.T) {
	srv := chatServer(t, http.StatusOK, " ok", nil)
	g, err := NewOpenAI(Config{BaseURL: srv.URL, Model: "m", EchoPrompt: true})
	require.NoError(t, err)

	out, err := g.Generate(context.Background(), "a cube")
	require.NoError(t, err)
	assert.Equal(t, "a cube ok", out)
}

func TestOpenAI_UpstreamErrorIsGenerationFailed(t *testing.T) {
	srv := chatServer(t, http.StatusInternalServerError, "", nil)
	g, err := NewOpenAI(Config{BaseURL: srv.URL, Model: "m"})
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "a cube")
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestNewOpenAI_Validation(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewOpenAI(Config{})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewOpenAI(Config{Model: "m"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	t.Setenv("OPENAI_API_KEY", "sk-env")
	_, err = NewOpenAI(Config{Model: "m"})
	assert.NoError(t, err)
}

func TestNew_Backends(t *testing.T) {
	g, err := New(Config{Backend: "echo"})
	require.NoError(t, err)
	out, err := g.Generate(context.Background(), "a gear")
	require.NoError(t, err)
	assert.Equal(t, "a gear", out)

	_, err = New(Config{Backend: "gpt2-local"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestEcho_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Echo{}.Generate(ctx, "x")
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestMock(t *testing.T) {
	m := NewMock("sphere")
	out, err := m.Generate(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "sphere", out)
	assert.Equal(t, "p1", m.LastPrompt())

	m = NewMockWithError(ErrGenerationFailed)
	_, err = m.Generate(context.Background(), "p2")
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.Equal(t, []string{"p2"}, m.Prompts())
}
