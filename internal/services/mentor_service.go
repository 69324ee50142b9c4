package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"mentor/internal/llm"
	"mentor/internal/logging"
	"mentor/internal/models"
	"mentor/internal/tools"
)

// Fallback reasons, also used as metric labels.
const (
	FallbackModelError     = "model_error"
	FallbackEmptyResponse  = "empty_response"
	FallbackMaxIterations  = "max_iterations"
	FallbackMalformedCall  = "malformed_tool_call"
	defaultMaxIterations   = 10
	unconfirmedToolMessage = "Not done: the user has not confirmed yet. Ask them before making changes."
)

type turnState int

const (
	stateAwaitingModel turnState = iota
	stateExecutingTools
	stateDone
)

// ToolCallRecord is what one tool call did during a turn. It is persisted in
// the assistant message's extra_data.
type ToolCallRecord struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	Result    string `json:"result"`
	Outcome   string `json:"outcome"`
}

// TurnResult is the outcome of one chat turn.
type TurnResult struct {
	Reply      string
	ToolCalls  []ToolCallRecord
	Iterations int
	Fallback   string // empty unless the fallback reply was used
}

// MentorConfig tunes the dispatch loop.
type MentorConfig struct {
	MaxIterations    int
	ConfirmationGate bool
}

// MentorService runs the conversational loop: it replays recent history to the
// model, executes the tools it asks for, and persists both sides of the turn.
type MentorService struct {
	model    llm.ChatModel
	registry *tools.Registry
	messages *MessageService
	entities *EntityService
	tasks    *TaskService
	users    *UserService
	persona  *PersonaStore
	metrics  *Metrics
	cfg      MentorConfig
	clock    func() time.Time
}

// NewMentorService wires the loop. users and metrics may be nil.
func NewMentorService(
	model llm.ChatModel,
	registry *tools.Registry,
	messages *MessageService,
	entities *EntityService,
	tasks *TaskService,
	users *UserService,
	persona *PersonaStore,
	metrics *Metrics,
	cfg MentorConfig,
) *MentorService {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = defaultMaxIterations
	}
	return &MentorService{
		model:    model,
		registry: registry,
		messages: messages,
		entities: entities,
		tasks:    tasks,
		users:    users,
		persona:  persona,
		metrics:  metrics,
		cfg:      cfg,
		clock:    time.Now,
	}
}

// Chat processes one user message and returns the mentor's reply. Model
// failures never surface as errors; they produce the persona's fallback reply.
// Only storage failures are returned.
func (s *MentorService) Chat(ctx context.Context, userID, message string) (*TurnResult, error) {
	started := s.clock()
	s.metrics.RecordChatRequest()
	defer func() { s.metrics.RecordChatLatency(s.clock().Sub(started)) }()

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", models.ErrValidation)
	}

	logger := logging.WithTurn(uuid.NewString(), userID)
	persona := s.persona.Get()

	history, err := s.messages.ReplayWindow(ctx, userID)
	if err != nil {
		s.metrics.RecordChatError("history")
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if _, err := s.messages.Append(ctx, userID, models.RoleUser, message, nil); err != nil {
		s.metrics.RecordChatError("persist")
		return nil, fmt.Errorf("failed to save user message: %w", err)
	}

	tc := &tools.ToolContext{
		UserID:   userID,
		Entities: s.entities,
		Tasks:    s.tasks,
		Location: s.userLocation(ctx, userID),
		Now:      s.clock,
	}

	conversation := make([]llm.Message, 0, len(history)+1)
	for _, m := range history {
		conversation = append(conversation, llm.Message{Role: string(m.Role), Content: m.Content})
	}
	conversation = append(conversation, llm.Message{Role: llm.RoleUser, Content: message})

	result := s.runTurn(ctx, logger, tc, persona.SystemPrompt, conversation, persona.IsAffirmative(message))
	if result.Fallback != "" {
		result.Reply = persona.FallbackReply
		s.metrics.RecordFallback(result.Fallback)
		logger.Warn("chat turn fell back", "reason", result.Fallback, "iterations", result.Iterations)
	}
	s.metrics.RecordIterations(result.Iterations)

	extra := map[string]interface{}{"iterations": result.Iterations}
	if len(result.ToolCalls) > 0 {
		extra["tool_calls"] = result.ToolCalls
	}
	if result.Fallback != "" {
		extra["fallback"] = result.Fallback
	}
	if _, err := s.messages.Append(ctx, userID, models.RoleAssistant, result.Reply, extra); err != nil {
		s.metrics.RecordChatError("persist")
		return nil, fmt.Errorf("failed to save assistant message: %w", err)
	}

	logger.Info("chat turn complete",
		"iterations", result.Iterations,
		"tool_calls", len(result.ToolCalls),
		"duration_ms", s.clock().Sub(started).Milliseconds())
	return result, nil
}

// runTurn drives the state machine until the model answers without tool calls
// or the turn has to fall back.
func (s *MentorService) runTurn(ctx context.Context, logger *slog.Logger, tc *tools.ToolContext, system string, conversation []llm.Message, confirmed bool) *TurnResult {
	result := &TurnResult{}
	specs := s.registry.Specs()
	var pending []llm.ToolCall

	state := stateAwaitingModel
	for state != stateDone {
		switch state {
		case stateAwaitingModel:
			if result.Iterations >= s.cfg.MaxIterations {
				result.Fallback = FallbackMaxIterations
				state = stateDone
				continue
			}
			result.Iterations++

			resp, err := s.model.Complete(ctx, llm.Request{System: system, Messages: conversation, Tools: specs})
			if err != nil {
				logger.Error("model call failed", "iteration", result.Iterations, "error", err)
				s.metrics.RecordChatError("model")
				result.Fallback = FallbackModelError
				state = stateDone
				continue
			}

			if len(resp.ToolCalls) == 0 {
				if strings.TrimSpace(resp.Content) == "" {
					result.Fallback = FallbackEmptyResponse
				} else {
					result.Reply = resp.Content
				}
				state = stateDone
				continue
			}

			logger.Debug("model requested tools", "iteration", result.Iterations, "count", len(resp.ToolCalls))
			conversation = append(conversation, llm.Message{
				Role:      llm.RoleAssistant,
				Content:   resp.Content,
				ToolCalls: resp.ToolCalls,
			})
			pending = resp.ToolCalls
			state = stateExecutingTools

		case stateExecutingTools:
			calls, err := s.decodeCalls(pending)
			if err != nil {
				logger.Warn("malformed tool call", "error", err)
				s.metrics.RecordChatError("malformed_tool_call")
				result.Fallback = FallbackMalformedCall
				state = stateDone
				continue
			}

			// Sequential: later calls may depend on lists created by earlier ones.
			for _, call := range calls {
				record := s.executeCall(ctx, logger, tc, call, confirmed)
				result.ToolCalls = append(result.ToolCalls, record)
				conversation = append(conversation, llm.Message{
					Role:       llm.RoleTool,
					Content:    record.Result,
					ToolCallID: call.raw.ID,
					Name:       call.raw.Name,
				})
			}
			pending = nil
			state = stateAwaitingModel
		}
	}
	return result
}

type decodedCall struct {
	raw  llm.ToolCall
	tool *tools.Tool
	args map[string]interface{}
}

// decodeCalls validates a whole batch before anything runs.
func (s *MentorService) decodeCalls(calls []llm.ToolCall) ([]decodedCall, error) {
	decoded := make([]decodedCall, 0, len(calls))
	for _, call := range calls {
		tool, ok := s.registry.Get(call.Name)
		if !ok {
			return nil, fmt.Errorf("unknown tool %q", call.Name)
		}
		args := map[string]interface{}{}
		if raw := strings.TrimSpace(call.Arguments); raw != "" {
			if err := json.Unmarshal([]byte(raw), &args); err != nil {
				return nil, fmt.Errorf("invalid arguments for %s: %w", call.Name, err)
			}
		}
		decoded = append(decoded, decodedCall{raw: call, tool: tool, args: args})
	}
	return decoded, nil
}

func (s *MentorService) executeCall(ctx context.Context, logger *slog.Logger, tc *tools.ToolContext, call decodedCall, confirmed bool) ToolCallRecord {
	toolLogger := logging.WithTool(logger, call.raw.Name, call.raw.ID)
	record := ToolCallRecord{Name: call.raw.Name, Arguments: call.raw.Arguments}

	if s.cfg.ConfirmationGate && call.tool.Mutates && !confirmed {
		toolLogger.Info("tool refused, user has not confirmed")
		record.Result = unconfirmedToolMessage
		record.Outcome = "refused"
		s.metrics.RecordToolCall(record.Name, record.Outcome)
		return record
	}

	output, err := s.registry.Execute(ctx, tc, call.raw.Name, call.args)
	switch {
	case errors.Is(err, tools.ErrNoContext):
		record.Result = "Error: " + err.Error()
		record.Outcome = "error"
		toolLogger.Error("tool ran without session context")
	case err != nil:
		record.Result = "Error: " + err.Error()
		record.Outcome = "error"
		toolLogger.Warn("tool failed", "error", err)
	default:
		record.Result = output
		record.Outcome = "ok"
		toolLogger.Debug("tool executed", "result_len", len(output))
	}
	s.metrics.RecordToolCall(record.Name, record.Outcome)
	return record
}

func (s *MentorService) userLocation(ctx context.Context, userID string) *time.Location {
	if s.users == nil {
		return time.UTC
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil || user.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(user.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
