package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/talentscout/internal/llm"
)

// fakeLLM spins up an httptest messages endpoint whose reply is chosen from
// the system prompt, so each service call in a flow can answer differently.
func fakeLLM(t *testing.T, reply func(system, user string) string) *llm.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			System   string `json:"system"`
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		user := ""
		if len(req.Messages) > 0 {
			user = req.Messages[0].Content
		}
		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"content": []map[string]string{{"type": "text", "text": reply(req.System, user)}},
			"usage":   map[string]int{"input_tokens": 100, "output_tokens": 50},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)

	client, err := llm.New(llm.Config{BaseURL: srv.URL, APIKey: "test-key"}, nil)
	require.NoError(t, err)
	return client
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}
