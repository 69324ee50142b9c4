package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestOpenAIClient_Complete_ToolCalls(t *testing.T) {
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":null,"tool_calls":[
			{"id":"call_1","type":"function","function":{"name":"add_task","arguments":"{\"title\":\"call mom\",\"list_name\":\"Free Time\"}"}}
		]},"finish_reason":"tool_calls"}]}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{BaseURL: server.URL + "/", APIKey: "test-key", Model: "gpt-4o-mini", Temperature: 0.7, Timeout: 5 * time.Second})
	resp, err := client.Complete(context.Background(), Request{
		System:   "be kind",
		Messages: []Message{{Role: RoleUser, Content: "yes"}},
		Tools:    []ToolSpec{{Name: "add_task", Description: "Add a task", Parameters: map[string]interface{}{"type": "object"}}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0].Name != "add_task" || resp.ToolCalls[0].ID != "call_1" {
		t.Fatalf("tool calls = %+v", resp.ToolCalls)
	}
	if !strings.Contains(resp.ToolCalls[0].Arguments, "Free Time") {
		t.Errorf("arguments = %s", resp.ToolCalls[0].Arguments)
	}

	messages := captured["messages"].([]interface{})
	if len(messages) != 2 {
		t.Fatalf("sent %d messages, want system + user", len(messages))
	}
	if role := messages[0].(map[string]interface{})["role"]; role != "system" {
		t.Errorf("first message role = %v", role)
	}
	tools := captured["tools"].([]interface{})
	if fn := tools[0].(map[string]interface{})["function"].(map[string]interface{}); fn["name"] != "add_task" {
		t.Errorf("tool = %v", fn)
	}
	if captured["stream"] != false {
		t.Errorf("stream = %v", captured["stream"])
	}
}

func TestOpenAIClient_Complete_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get("Authorization"), "empty") {
			w.Write([]byte(`{"choices":[]}`))
			return
		}
		http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{BaseURL: server.URL, APIKey: "k", Model: "m"})
	if _, err := client.Complete(context.Background(), Request{}); err == nil || !strings.Contains(err.Error(), "status=503") {
		t.Errorf("expected status error, got %v", err)
	}

	empty := NewOpenAIClient(OpenAIConfig{BaseURL: server.URL, APIKey: "empty", Model: "m"})
	if _, err := empty.Complete(context.Background(), Request{}); err != ErrEmptyResponse {
		t.Errorf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestToOpenAIMessages_ToolRoundTrip(t *testing.T) {
	msgs := toOpenAIMessages(Request{Messages: []Message{
		{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "c1", Name: "create_list", Arguments: `{"name":"Gym"}`}}},
		{Role: RoleTool, ToolCallID: "c1", Name: "create_list", Content: "✓ Created list 'Gym'"},
	}})

	if len(msgs) != 2 {
		t.Fatalf("got %d messages", len(msgs))
	}
	if msgs[0].Content != nil {
		t.Errorf("assistant tool-call message should have null content")
	}
	if msgs[0].ToolCalls[0].Type != "function" || msgs[0].ToolCalls[0].Function.Name != "create_list" {
		t.Errorf("tool call = %+v", msgs[0].ToolCalls[0])
	}
	if msgs[1].ToolCallID != "c1" || *msgs[1].Content != "✓ Created list 'Gym'" {
		t.Errorf("tool message = %+v", msgs[1])
	}
}

func TestToGeminiContents(t *testing.T) {
	contents, err := toGeminiContents([]Message{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "c1", Name: "get_today_context", Arguments: "{}"}}},
		{Role: RoleTool, ToolCallID: "c1", Name: "get_today_context", Content: "No open tasks."},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(contents) != 3 {
		t.Fatalf("got %d contents", len(contents))
	}
	if contents[1].Role != "model" || contents[1].Parts[0].FunctionCall.Name != "get_today_context" {
		t.Errorf("model content = %+v", contents[1])
	}
	if contents[2].Parts[0].FunctionResponse.Response["output"] != "No open tasks." {
		t.Errorf("function response = %+v", contents[2].Parts[0].FunctionResponse)
	}

	if _, err := toGeminiContents([]Message{{Role: RoleAssistant, ToolCalls: []ToolCall{{Name: "x", Arguments: "{"}}}}); err == nil {
		t.Error("expected error for malformed arguments")
	}
}
