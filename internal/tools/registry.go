package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"mentor/internal/llm"
	"mentor/internal/models"
	"mentor/internal/query"
)

// ErrNoContext is returned when a tool runs without a session to act for.
var ErrNoContext = errors.New("no active session context")

// EntityStore is the slice of the entity service the tools need.
type EntityStore interface {
	Create(ctx context.Context, userID string, req models.EntityCreate) (*models.Entity, error)
	List(ctx context.Context, userID string, filter query.EntityFilter) ([]models.Entity, error)
}

// TaskStore is the slice of the task service the tools need.
type TaskStore interface {
	EnsureDefaultLists(ctx context.Context, userID string) ([]models.List, error)
	FindOrCreateList(ctx context.Context, userID, name string) (*models.List, bool, error)
	CreateTask(ctx context.Context, userID string, req models.TaskCreate) (*models.Task, error)
	OpenTasks(ctx context.Context, userID string) ([]models.Task, error)
}

// ToolContext carries everything a tool may act on for one chat request.
// It is built per request and passed explicitly; tools never read shared state.
type ToolContext struct {
	UserID   string
	Entities EntityStore
	Tasks    TaskStore
	Location *time.Location // user's timezone; nil means UTC
	Now      func() time.Time
}

func (tc *ToolContext) now() time.Time {
	if tc.Now != nil {
		return tc.Now()
	}
	return time.Now()
}

func (tc *ToolContext) location() *time.Location {
	if tc.Location != nil {
		return tc.Location
	}
	return time.UTC
}

// Tool represents a callable tool with its metadata and execution function
type Tool struct {
	Name        string
	DisplayName string // User-friendly name (e.g., "Add Task")
	Description string
	Parameters  map[string]interface{}
	Execute     ExecuteFunc
	Category    string // tasks, entities, time
	Mutates     bool   // writes user data; subject to the confirmation gate
}

// ExecuteFunc is the function signature for tool execution
type ExecuteFunc func(ctx context.Context, tc *ToolContext, args map[string]interface{}) (string, error)

// Registry holds the tools offered to the chat model
type Registry struct {
	tools map[string]*Tool
	mutex sync.RWMutex
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// NewMentorRegistry returns a registry with every mentor tool registered
func NewMentorRegistry() *Registry {
	r := NewRegistry()
	for _, tool := range []*Tool{
		NewAddTaskTool(),
		NewCreateListTool(),
		NewTodayContextTool(),
		NewAddEntityTool(),
		NewEntitiesOverviewTool(),
		NewTimeTool(),
	} {
		if err := r.Register(tool); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a new tool to the registry
func (r *Registry) Register(tool *Tool) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if tool.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	if tool.Execute == nil {
		return fmt.Errorf("tool %s must have an Execute function", tool.Name)
	}

	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("tool %s is already registered", tool.Name)
	}

	r.tools[tool.Name] = tool
	return nil
}

// Get retrieves a tool by name
func (r *Registry) Get(name string) (*Tool, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	tool, exists := r.tools[name]
	return tool, exists
}

// Specs returns the tool definitions sent to the model, sorted by name
func (r *Registry) Specs() []llm.ToolSpec {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	specs := make([]llm.ToolSpec, 0, len(r.tools))
	for _, tool := range r.tools {
		specs = append(specs, llm.ToolSpec{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  tool.Parameters,
		})
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}

// Execute runs a tool by name for the session described by tc
func (r *Registry) Execute(ctx context.Context, tc *ToolContext, name string, args map[string]interface{}) (string, error) {
	tool, exists := r.Get(name)
	if !exists {
		return "", fmt.Errorf("tool %s not found", name)
	}
	if tc == nil || tc.UserID == "" {
		return "", ErrNoContext
	}
	return tool.Execute(ctx, tc, args)
}

// Count returns the number of registered tools
func (r *Registry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.tools)
}

func stringArg(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func stringSliceArg(args map[string]interface{}, key string) []string {
	switch v := args[key].(type) {
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	case string:
		if v != "" {
			return []string{v}
		}
	}
	return []string{}
}

func intArg(args map[string]interface{}, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}
