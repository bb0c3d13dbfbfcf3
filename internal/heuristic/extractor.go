package heuristic

import (
	"strings"

	"github.com/solacehq/solace/internal/memory"
)

// Extractor applies keyword tables to an exchange to update a context.
type Extractor struct {
	tables Tables
}

// NewExtractor creates an Extractor over the given tables.
func NewExtractor(tables Tables) *Extractor {
	return &Extractor{tables: tables}
}

// Apply derives an updated context from the user message and the model
// reply. The input context is not mutated.
func (e *Extractor) Apply(ctx memory.Context, userMessage, reply string) memory.Context {
	out := ctx
	lowerMsg := strings.ToLower(userMessage)
	lowerReply := strings.ToLower(reply)

	// Task detection only fills an empty slot; an existing task is kept.
	if out.CurrentTask == "" && containsAny(lowerMsg, e.tables.TaskTriggers) {
		if task := e.captureTask(userMessage); task != "" {
			out.CurrentTask = task
		}
	}

	if mood, ok := e.detectMood(lowerMsg); ok {
		out.Mood = mood
	}
	if energy, ok := e.detectEnergy(lowerMsg); ok {
		out.Energy = energy
	}

	for _, topic := range e.extractTopics(userMessage) {
		out.AddTopic(topic)
	}

	// Modules activate off both sides of the exchange.
	for _, rule := range e.tables.Modules {
		if containsAny(lowerMsg, rule.Keywords) || containsAny(lowerReply, rule.Keywords) {
			out.ActivateModule(rule.Module)
		}
	}

	return out
}

// captureTask returns the first task phrase matched by the capture patterns,
// trimmed but otherwise verbatim.
func (e *Extractor) captureTask(message string) string {
	for _, re := range e.tables.TaskCapture {
		if m := re.FindStringSubmatch(message); len(m) > 1 {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// detectMood returns the first mood whose keyword set matches. Table order
// decides ties between moods.
func (e *Extractor) detectMood(lowerMsg string) (memory.Mood, bool) {
	for _, rule := range e.tables.Moods {
		if containsAny(lowerMsg, rule.Keywords) {
			return rule.Mood, true
		}
	}
	return "", false
}

func (e *Extractor) detectEnergy(lowerMsg string) (memory.Energy, bool) {
	for _, rule := range e.tables.Energies {
		if containsAny(lowerMsg, rule.Keywords) {
			return rule.Energy, true
		}
	}
	return "", false
}

// extractTopics returns single-word topic captures in pattern order.
func (e *Extractor) extractTopics(message string) []string {
	var topics []string
	for _, re := range e.tables.TopicPatterns {
		if m := re.FindStringSubmatch(message); len(m) > 1 {
			topics = append(topics, strings.ToLower(m[1]))
		}
	}
	return topics
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
