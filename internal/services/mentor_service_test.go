package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"mentor/internal/llm"
	"mentor/internal/models"
	"mentor/internal/tools"
)

// scriptedModel replays canned responses and records every request it saw.
type scriptedModel struct {
	mu        sync.Mutex
	responses []*llm.Response
	err       error
	repeat    bool
	requests  []llm.Request
}

func (m *scriptedModel) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	if len(m.responses) == 0 {
		return &llm.Response{}, nil
	}
	resp := m.responses[0]
	if !m.repeat {
		m.responses = m.responses[1:]
	}
	return resp, nil
}

func toolCall(id, name, args string) *llm.Response {
	return &llm.Response{ToolCalls: []llm.ToolCall{{ID: id, Name: name, Arguments: args}}, FinishReason: "tool_calls"}
}

func text(content string) *llm.Response {
	return &llm.Response{Content: content, FinishReason: "stop"}
}

type mentorFixture struct {
	mentor   *MentorService
	model    *scriptedModel
	tasks    *TaskService
	entities *EntityService
	messages *MessageService
	metrics  *Metrics
}

func newMentorFixture(t *testing.T, cfg MentorConfig, responses ...*llm.Response) *mentorFixture {
	t.Helper()
	db := newTestDB(t)
	persona, err := NewPersonaStore("")
	if err != nil {
		t.Fatalf("NewPersonaStore failed: %v", err)
	}
	f := &mentorFixture{
		model:    &scriptedModel{responses: responses},
		tasks:    NewTaskService(db, nil),
		entities: NewEntityService(db),
		messages: NewMessageService(db, 20, time.Minute),
		metrics:  NewMetrics(prometheus.NewRegistry()),
	}
	f.mentor = NewMentorService(f.model, tools.NewMentorRegistry(), f.messages, f.entities, f.tasks,
		NewUserService(db), persona, f.metrics, cfg)
	return f
}

func TestMentor_AddTaskScenario(t *testing.T) {
	f := newMentorFixture(t, MentorConfig{},
		toolCall("call_1", "add_task", `{"title":"call mom","list_name":"Free Time"}`),
		text("Done! I put 'call mom' on your Free Time list."),
	)
	ctx := context.Background()

	result, err := f.mentor.Chat(ctx, "u1", "I need to call mom")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if result.Reply != "Done! I put 'call mom' on your Free Time list." {
		t.Errorf("Unexpected reply %q", result.Reply)
	}
	if result.Iterations != 2 || result.Fallback != "" {
		t.Errorf("Expected 2 iterations without fallback, got %d (%q)", result.Iterations, result.Fallback)
	}
	if len(result.ToolCalls) != 1 || result.ToolCalls[0].Result != "✓ Added 'call mom' to Free Time list!" {
		t.Errorf("Unexpected tool calls %+v", result.ToolCalls)
	}

	freeTime, err := f.tasks.FindListByName(ctx, "u1", "free time")
	if err != nil {
		t.Fatalf("FindListByName failed: %v", err)
	}
	tasks, _ := f.tasks.ListTasks(ctx, "u1", freeTime.ID)
	if len(tasks) != 1 || tasks[0].Title != "call mom" {
		t.Errorf("Expected 'call mom' on Free Time, got %+v", tasks)
	}

	// second model call sees the tool result after the assistant's call
	second := f.model.requests[1].Messages
	last := second[len(second)-1]
	if last.Role != llm.RoleTool || last.ToolCallID != "call_1" || !strings.HasPrefix(last.Content, "✓ Added") {
		t.Errorf("Expected tool result as last message, got %+v", last)
	}
	if second[len(second)-2].Role != llm.RoleAssistant || len(second[len(second)-2].ToolCalls) != 1 {
		t.Errorf("Expected assistant tool-call message before the result, got %+v", second[len(second)-2])
	}

	history, _ := f.messages.Recent(ctx, "u1", 10)
	if len(history) != 2 {
		t.Fatalf("Expected user and assistant messages persisted, got %d", len(history))
	}
	if history[0].Role != models.RoleUser || history[1].Role != models.RoleAssistant {
		t.Errorf("Unexpected roles %s, %s", history[0].Role, history[1].Role)
	}
	if calls, ok := history[1].ExtraData["tool_calls"].([]interface{}); !ok || len(calls) != 1 {
		t.Errorf("Expected tool calls in extra_data, got %v", history[1].ExtraData)
	}
	if got := testutil.ToFloat64(f.metrics.ToolCalls.WithLabelValues("add_task", "ok")); got != 1 {
		t.Errorf("Expected 1 ok add_task call metric, got %v", got)
	}
}

func TestMentor_ReplaysHistory(t *testing.T) {
	f := newMentorFixture(t, MentorConfig{}, text("Hi there!"), text("Sure."))
	ctx := context.Background()

	if _, err := f.mentor.Chat(ctx, "u1", "hello"); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if _, err := f.mentor.Chat(ctx, "u1", "thanks"); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	req := f.model.requests[1]
	if len(req.Messages) != 3 {
		t.Fatalf("Expected 2 replayed + 1 new message, got %d", len(req.Messages))
	}
	if req.Messages[0].Content != "hello" || req.Messages[1].Content != "Hi there!" || req.Messages[2].Content != "thanks" {
		t.Errorf("Unexpected replay %+v", req.Messages)
	}
	if req.System == "" || len(req.Tools) != 6 {
		t.Errorf("Expected system prompt and 6 tools, got %d tools", len(req.Tools))
	}
}

func TestMentor_FallbackCases(t *testing.T) {
	tests := []struct {
		name      string
		model     *scriptedModel
		cfg       MentorConfig
		reason    string
		wantIters int
	}{
		{
			name:      "model error",
			model:     &scriptedModel{err: errors.New("connection refused")},
			reason:    FallbackModelError,
			wantIters: 1,
		},
		{
			name:      "empty response",
			model:     &scriptedModel{responses: []*llm.Response{text("   ")}},
			reason:    FallbackEmptyResponse,
			wantIters: 1,
		},
		{
			name:      "bad json arguments",
			model:     &scriptedModel{responses: []*llm.Response{toolCall("c1", "add_task", `{"title":`)}},
			reason:    FallbackMalformedCall,
			wantIters: 1,
		},
		{
			name:      "unknown tool",
			model:     &scriptedModel{responses: []*llm.Response{toolCall("c1", "delete_everything", `{}`)}},
			reason:    FallbackMalformedCall,
			wantIters: 1,
		},
		{
			name:      "iteration cap",
			model:     &scriptedModel{responses: []*llm.Response{toolCall("c1", "get_current_time", `{}`)}, repeat: true},
			cfg:       MentorConfig{MaxIterations: 3},
			reason:    FallbackMaxIterations,
			wantIters: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newMentorFixture(t, tt.cfg)
			f.mentor.model = tt.model

			result, err := f.mentor.Chat(context.Background(), "u1", "hello")
			if err != nil {
				t.Fatalf("Chat should not fail on model problems: %v", err)
			}
			if result.Fallback != tt.reason {
				t.Errorf("Expected fallback %q, got %q", tt.reason, result.Fallback)
			}
			if result.Reply != "I'm here to help! What would you like to do?" {
				t.Errorf("Expected fallback reply, got %q", result.Reply)
			}
			if result.Iterations != tt.wantIters {
				t.Errorf("Expected %d iterations, got %d", tt.wantIters, result.Iterations)
			}

			history, _ := f.messages.Recent(context.Background(), "u1", 10)
			if len(history) != 2 || history[1].ExtraData["fallback"] != tt.reason {
				t.Errorf("Expected persisted fallback turn, got %+v", history)
			}
			if got := testutil.ToFloat64(f.metrics.ChatFallbacks.WithLabelValues(tt.reason)); got != 1 {
				t.Errorf("Expected fallback metric 1, got %v", got)
			}
		})
	}
}

func TestMentor_MalformedBatchRunsNothing(t *testing.T) {
	f := newMentorFixture(t, MentorConfig{}, &llm.Response{ToolCalls: []llm.ToolCall{
		{ID: "c1", Name: "create_list", Arguments: `{"name":"Gym"}`},
		{ID: "c2", Name: "nope", Arguments: `{}`},
	}})

	result, err := f.mentor.Chat(context.Background(), "u1", "make a gym list")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if result.Fallback != FallbackMalformedCall {
		t.Errorf("Expected malformed fallback, got %q", result.Fallback)
	}
	if _, err := f.tasks.FindListByName(context.Background(), "u1", "gym"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected no list to be created, got %v", err)
	}
}

func TestMentor_ToolErrorGoesBackToModel(t *testing.T) {
	f := newMentorFixture(t, MentorConfig{},
		toolCall("c1", "add_task", `{"title":"buy milk"}`),
		text("Which list should it go on?"),
	)

	result, err := f.mentor.Chat(context.Background(), "u1", "add buy milk")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if result.Reply != "Which list should it go on?" {
		t.Errorf("Unexpected reply %q", result.Reply)
	}
	if result.ToolCalls[0].Outcome != "error" || !strings.HasPrefix(result.ToolCalls[0].Result, "Error: ") {
		t.Errorf("Expected error string result, got %+v", result.ToolCalls[0])
	}
}

func TestMentor_ConfirmationGate(t *testing.T) {
	f := newMentorFixture(t, MentorConfig{ConfirmationGate: true},
		toolCall("c1", "add_task", `{"title":"call mom","list_name":"Free Time"}`),
		text("Want me to add 'call mom' to Free Time?"),
		toolCall("c2", "add_task", `{"title":"call mom","list_name":"Free Time"}`),
		text("✓ Added 'call mom' to Free Time!"),
	)
	ctx := context.Background()

	first, err := f.mentor.Chat(ctx, "u1", "I need to call mom")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if first.ToolCalls[0].Outcome != "refused" {
		t.Errorf("Expected refused tool call, got %+v", first.ToolCalls[0])
	}
	if open, _ := f.tasks.OpenTasks(ctx, "u1"); len(open) != 0 {
		t.Fatalf("Expected no task before confirmation, got %d", len(open))
	}

	second, err := f.mentor.Chat(ctx, "u1", "Yes please!")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if second.ToolCalls[0].Outcome != "ok" {
		t.Errorf("Expected tool to run after confirmation, got %+v", second.ToolCalls[0])
	}
	if open, _ := f.tasks.OpenTasks(ctx, "u1"); len(open) != 1 {
		t.Errorf("Expected one task after confirmation, got %d", len(open))
	}
}

func TestMentor_ReadOnlyToolsBypassGate(t *testing.T) {
	f := newMentorFixture(t, MentorConfig{ConfirmationGate: true},
		toolCall("c1", "get_today_context", `{}`),
		text("Your lists are empty."),
	)

	result, err := f.mentor.Chat(context.Background(), "u1", "what's on today?")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if result.ToolCalls[0].Outcome != "ok" || !strings.Contains(result.ToolCalls[0].Result, "No open tasks. Lists: Town, Home, Free Time") {
		t.Errorf("Expected read-only tool to run, got %+v", result.ToolCalls[0])
	}
}

func TestMentor_EmptyMessage(t *testing.T) {
	f := newMentorFixture(t, MentorConfig{})

	if _, err := f.mentor.Chat(context.Background(), "u1", "   "); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
	if len(f.model.requests) != 0 {
		t.Error("Expected no model call for an empty message")
	}
}
