// Package heuristic derives conversation-context updates from raw message
// text using fixed keyword tables. No scoring, no model — case-insensitive
// substring and regex matching only.
package heuristic

import (
	"regexp"

	"github.com/solacehq/solace/internal/memory"
	"github.com/solacehq/solace/internal/template"
)

// MoodRule maps a mood to its trigger keywords. Rules are evaluated in
// declaration order; the first matching rule wins.
type MoodRule struct {
	Mood     memory.Mood
	Keywords []string
}

// EnergyRule maps an energy level to its trigger keywords.
type EnergyRule struct {
	Energy   memory.Energy
	Keywords []string
}

// ModuleRule maps a module name to the keywords that activate it.
type ModuleRule struct {
	Module   string
	Keywords []string
}

// Tables holds every keyword table the extractor matches against. Passing
// tables as data keeps them independently testable and replaceable without
// touching orchestration logic.
type Tables struct {
	// TaskTriggers gate task detection: the message must contain one.
	TaskTriggers []string
	// TaskCapture patterns pull the task phrase out of the message.
	// First match wins; the capture is stored verbatim (trimmed).
	TaskCapture []*regexp.Regexp
	// TopicPatterns extract single-word topics from the message.
	TopicPatterns []*regexp.Regexp

	Moods    []MoodRule
	Energies []EnergyRule
	Modules  []ModuleRule
}

// DefaultTables returns the built-in keyword vocabulary.
func DefaultTables() Tables {
	return Tables{
		TaskTriggers: []string{"task", "todo", "remind", "deadline", "due", "finish", "complete"},
		TaskCapture: []*regexp.Regexp{
			regexp.MustCompile(`(?i)remind me to\s+(.{3,80}?)(?:[.!?,;]|$)`),
			regexp.MustCompile(`(?i)need to\s+(.{3,80}?)(?:[.!?,;]|$)`),
			regexp.MustCompile(`(?i)\btask\b[:\s]+(?:is\s+)?(.{3,80}?)(?:[.!?,;]|$)`),
			regexp.MustCompile(`(?i)\btodo\b[:\s]+(.{3,80}?)(?:[.!?,;]|$)`),
		},
		TopicPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)talking about (\w+)`),
			regexp.MustCompile(`(?i)\b(\w+) is (?:important|interesting|difficult)`),
			regexp.MustCompile(`(?i)working on (\w+)`),
		},
		Moods: []MoodRule{
			{Mood: memory.MoodHappy, Keywords: []string{"happy", "great", "awesome", "wonderful", "glad", "excited"}},
			{Mood: memory.MoodStressed, Keywords: []string{"stressed", "anxious", "overwhelmed", "worried", "pressure"}},
			{Mood: memory.MoodNeutral, Keywords: []string{"okay", "fine", "alright", "so-so"}},
		},
		Energies: []EnergyRule{
			{Energy: memory.EnergyHigh, Keywords: []string{"energetic", "pumped", "motivated", "ready to go"}},
			{Energy: memory.EnergyLow, Keywords: []string{"tired", "exhausted", "drained", "sleepy", "worn out"}},
			{Energy: memory.EnergyMedium, Keywords: []string{"decent", "not bad"}},
		},
		Modules: []ModuleRule{
			{Module: template.ModuleLanguage, Keywords: []string{"spanish", "french", "german", "japanese", "vocabulary", "language practice", "conjugation"}},
			{Module: template.ModuleWellbeing, Keywords: []string{"meditation", "breathing", "self-care", "burnout", "mental health", "relax"}},
			{Module: template.ModuleCoding, Keywords: []string{"code", "coding", "bug", "compiler", "function", "deploy", "refactor"}},
		},
	}
}
