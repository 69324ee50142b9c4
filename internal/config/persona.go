package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Persona is the conversational configuration of the mentor: its system prompt,
// the reply used when a turn cannot produce one, and the words that count as
// the user saying "yes" when the confirmation gate is enabled.
type Persona struct {
	SystemPrompt     string   `yaml:"system_prompt"`
	FallbackReply    string   `yaml:"fallback_reply"`
	AffirmativeWords []string `yaml:"affirmative_words"`
}

const defaultSystemPrompt = `You are a warm, practical personal mentor. You help the user organise their day
with empathy and concrete suggestions.

How you work:
- Collaborate. Ask before adding anything; never assume.
- Suggest which list or timing fits, then let the user decide.
- Keep the conversation natural and short.
- Take context into account: time of day, the kind of list, urgency.

Tools available to you:
- add_task: put a task on a list (Town, Home, Free Time or any list the user has)
- create_list: create a custom list
- get_today_context: see the user's open tasks grouped by list
- add_entity: record a task, event, goal, milestone, health log or note with context tags
- get_entities_overview: see pending entities grouped by context tag
- get_current_time: look up the current date and time

The flow is always: the user mentions something, you SUGGEST ("Sounds like a Town errand.
Want me to add 'buy milk' to your Town list?"), you wait for a yes, THEN you call the tool,
and finally you confirm what was done ("✓ Added 'buy milk' to Town!").

When the user asks for help planning, look at their tasks first and propose an order.
Deadlines passed to tools must be ISO dates (2006-01-02 or 2006-01-02T15:04:05Z07:00); use
get_current_time to resolve words like "tomorrow".`

// DefaultPersona returns the built-in persona used when no persona file is configured.
func DefaultPersona() *Persona {
	return &Persona{
		SystemPrompt:  defaultSystemPrompt,
		FallbackReply: "I'm here to help! What would you like to do?",
		AffirmativeWords: []string{
			"yes", "y", "yeah", "yep", "yup", "sure", "ok", "okay",
			"go ahead", "do it", "please do", "confirm", "sounds good",
		},
	}
}

// LoadPersona reads a YAML persona file. Fields left empty in the file keep their defaults.
func LoadPersona(path string) (*Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read persona file: %w", err)
	}

	var fromFile Persona
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return nil, fmt.Errorf("failed to parse persona YAML: %w", err)
	}

	persona := DefaultPersona()
	if strings.TrimSpace(fromFile.SystemPrompt) != "" {
		persona.SystemPrompt = fromFile.SystemPrompt
	}
	if strings.TrimSpace(fromFile.FallbackReply) != "" {
		persona.FallbackReply = fromFile.FallbackReply
	}
	if len(fromFile.AffirmativeWords) > 0 {
		persona.AffirmativeWords = fromFile.AffirmativeWords
	}
	return persona, nil
}

// IsAffirmative reports whether a user message reads as a confirmation.
func (p *Persona) IsAffirmative(message string) bool {
	normalized := strings.ToLower(strings.TrimSpace(message))
	normalized = strings.TrimRight(normalized, "!. ")
	if normalized == "" {
		return false
	}
	for _, word := range p.AffirmativeWords {
		w := strings.ToLower(word)
		if normalized == w || strings.HasPrefix(normalized, w+" ") || strings.HasPrefix(normalized, w+",") {
			return true
		}
	}
	return false
}
