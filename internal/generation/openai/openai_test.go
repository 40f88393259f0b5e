package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"faqbot/internal/generation"
)

type chatRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	Messages  []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Tools []struct {
		Type     string `json:"type"`
		Function struct {
			Name string `json:"name"`
		} `json:"function"`
	} `json:"tools"`
}

func newTestGenerator(t *testing.T, handler http.HandlerFunc) *Generator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Setenv("FAQBOT_TEST_OPENAI_KEY", "test-key")
	g, err := NewGenerator(Config{
		BaseURL:   srv.URL + "/v1",
		APIKeyEnv: "FAQBOT_TEST_OPENAI_KEY",
		Model:     "test-chat",
		Timeout:   5 * time.Second,
	})
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	return g
}

func writeChoice(w http.ResponseWriter, message map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"model":   "test-chat",
		"choices": []map[string]any{{"index": 0, "message": message, "finish_reason": "stop"}},
	})
}

var request = generation.Request{
	System:    "You are a test assistant.",
	History:   []generation.Message{{Role: generation.RoleUser, Content: "hi"}, {Role: generation.RoleAssistant, Content: "hello"}, {Role: generation.RoleUser, Content: "dental?"}},
	MaxTokens: 2048,
	Tools:     []generation.ToolSpec{{Name: "get_course_information", Parameters: map[string]any{"type": "object"}}},
}

func TestGenerator_Text(t *testing.T) {
	var got chatRequest
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeChoice(w, map[string]any{"role": "assistant", "content": "BDS is offered."})
	})
	reply, err := g.Generate(context.Background(), request)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if reply.Text != "BDS is offered." || reply.ToolCall != nil {
		t.Errorf("unexpected reply %+v", reply)
	}
	roles := make([]string, len(got.Messages))
	for i, m := range got.Messages {
		roles[i] = m.Role
	}
	if diff := cmp.Diff([]string{"system", "user", "assistant", "user"}, roles); diff != "" {
		t.Errorf("unexpected roles (-want +got):\n%s", diff)
	}
	if got.MaxTokens != 2048 || len(got.Tools) != 1 || got.Tools[0].Function.Name != "get_course_information" {
		t.Errorf("unexpected request %+v", got)
	}
}

func TestGenerator_ToolCall(t *testing.T) {
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		writeChoice(w, map[string]any{
			"role": "assistant",
			"tool_calls": []map[string]any{{
				"id":   "call_1",
				"type": "function",
				"function": map[string]any{
					"name":      "get_course_information",
					"arguments": `{"institution":"Dental College","course_level":"undergraduate","course_name":"Bachelor of Dental Surgery"}`,
				},
			}},
		})
	})
	reply, err := g.Generate(context.Background(), request)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	want := &generation.ToolCall{Name: "get_course_information", Arguments: map[string]any{
		"institution": "Dental College", "course_level": "undergraduate", "course_name": "Bachelor of Dental Surgery",
	}}
	if diff := cmp.Diff(want, reply.ToolCall); diff != "" {
		t.Errorf("unexpected tool call (-want +got):\n%s", diff)
	}
}

func TestGenerator_Errors(t *testing.T) {
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		writeChoice(w, map[string]any{"role": "assistant", "content": ""})
	})
	if _, err := g.Generate(context.Background(), request); !errors.Is(err, generation.ErrEmptyReply) {
		t.Errorf("expected ErrEmptyReply, got %v", err)
	}

	g = newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad"}}`, http.StatusBadRequest)
	})
	if _, err := g.Generate(context.Background(), request); err == nil {
		t.Error("expected error on 400")
	}

	t.Setenv("FAQBOT_MISSING_KEY", "")
	if _, err := NewGenerator(Config{APIKeyEnv: "FAQBOT_MISSING_KEY"}); err == nil {
		t.Error("expected error for missing key")
	}
}
