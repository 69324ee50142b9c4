package tools

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func echoTool(name string) *Tool {
	return &Tool{
		Name:        name,
		Description: "A test tool",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"input": map[string]interface{}{
					"type": "string",
				},
			},
		},
		Execute: func(ctx context.Context, tc *ToolContext, args map[string]interface{}) (string, error) {
			return tc.UserID + ":" + stringArg(args, "input"), nil
		},
	}
}

func TestNewRegistry(t *testing.T) {
	registry := NewRegistry()

	if registry.Count() != 0 {
		t.Errorf("Expected 0 tools in new registry, got %d", registry.Count())
	}
}

func TestRegistry_Register(t *testing.T) {
	registry := NewRegistry()

	if err := registry.Register(echoTool("test_tool")); err != nil {
		t.Fatalf("Failed to register tool: %v", err)
	}

	if registry.Count() != 1 {
		t.Errorf("Expected 1 tool, got %d", registry.Count())
	}
}

func TestRegistry_Register_EmptyName(t *testing.T) {
	registry := NewRegistry()

	if err := registry.Register(echoTool("")); err == nil {
		t.Error("Expected error when registering tool with empty name")
	}
}

func TestRegistry_Register_NilExecute(t *testing.T) {
	registry := NewRegistry()

	tool := echoTool("no_exec")
	tool.Execute = nil
	if err := registry.Register(tool); err == nil {
		t.Error("Expected error when registering tool without Execute")
	}
}

func TestRegistry_Register_Duplicate(t *testing.T) {
	registry := NewRegistry()

	if err := registry.Register(echoTool("dup")); err != nil {
		t.Fatalf("First register failed: %v", err)
	}
	if err := registry.Register(echoTool("dup")); err == nil {
		t.Error("Expected error when registering a duplicate tool")
	}
}

func TestRegistry_Execute(t *testing.T) {
	registry := NewRegistry()
	_ = registry.Register(echoTool("echo"))

	result, err := registry.Execute(context.Background(), &ToolContext{UserID: "u1"}, "echo", map[string]interface{}{"input": "hi"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result != "u1:hi" {
		t.Errorf("Expected 'u1:hi', got %q", result)
	}
}

func TestRegistry_Execute_UnknownTool(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Execute(context.Background(), &ToolContext{UserID: "u1"}, "missing", nil)
	if err == nil {
		t.Error("Expected error for unknown tool")
	}
}

func TestRegistry_Execute_NoContext(t *testing.T) {
	registry := NewRegistry()
	_ = registry.Register(echoTool("echo"))

	if _, err := registry.Execute(context.Background(), nil, "echo", nil); !errors.Is(err, ErrNoContext) {
		t.Errorf("Expected ErrNoContext for nil context, got %v", err)
	}
	if _, err := registry.Execute(context.Background(), &ToolContext{}, "echo", nil); !errors.Is(err, ErrNoContext) {
		t.Errorf("Expected ErrNoContext for empty user, got %v", err)
	}
}

func TestRegistry_Specs_Sorted(t *testing.T) {
	registry := NewRegistry()
	_ = registry.Register(echoTool("zeta"))
	_ = registry.Register(echoTool("alpha"))

	specs := registry.Specs()
	if len(specs) != 2 {
		t.Fatalf("Expected 2 specs, got %d", len(specs))
	}
	if specs[0].Name != "alpha" || specs[1].Name != "zeta" {
		t.Errorf("Expected specs sorted by name, got %s, %s", specs[0].Name, specs[1].Name)
	}
	if specs[0].Parameters["type"] != "object" {
		t.Error("Expected parameters to be carried into the tool definition")
	}
}

func TestNewMentorRegistry(t *testing.T) {
	registry := NewMentorRegistry()

	expected := map[string]bool{
		"add_task":              true,
		"create_list":           true,
		"get_today_context":     false,
		"add_entity":            true,
		"get_entities_overview": false,
		"get_current_time":      false,
	}
	if registry.Count() != len(expected) {
		t.Errorf("Expected %d tools, got %d", len(expected), registry.Count())
	}
	for name, mutates := range expected {
		tool, ok := registry.Get(name)
		if !ok {
			t.Errorf("Expected tool %s to be registered", name)
			continue
		}
		if tool.Mutates != mutates {
			t.Errorf("Tool %s: expected Mutates=%v", name, mutates)
		}
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	registry := NewMentorRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = registry.Specs()
			_, _ = registry.Get("add_task")
		}()
	}
	wg.Wait()
}

func TestArgHelpers(t *testing.T) {
	args := map[string]interface{}{
		"s":     "text",
		"tags":  []interface{}{"a", "", "b", 3},
		"one":   "solo",
		"float": float64(4),
	}

	if got := stringArg(args, "s"); got != "text" {
		t.Errorf("stringArg: got %q", got)
	}
	if got := stringArg(args, "float"); got != "" {
		t.Errorf("stringArg on non-string: got %q", got)
	}
	if got := stringSliceArg(args, "tags"); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("stringSliceArg: got %v", got)
	}
	if got := stringSliceArg(args, "one"); len(got) != 1 || got[0] != "solo" {
		t.Errorf("stringSliceArg on string: got %v", got)
	}
	if got := stringSliceArg(args, "missing"); got == nil || len(got) != 0 {
		t.Errorf("stringSliceArg on missing: got %v", got)
	}
	if got := intArg(args, "float"); got != 4 {
		t.Errorf("intArg: got %d", got)
	}
}
