// Package template manages the named prompt fragments (persona, task
// guidance, per-module guidance) that Solace assembles into prompts.
package template

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when no fragment exists for a requested name.
var ErrNotFound = errors.New("template: fragment not found")

// Fragment names resolvable via Store.Fragment. Module fragments are
// addressed by their module name.
const (
	NameSystem = "system"
	NameTask   = "task"
)

// Style holds presentation preferences merged field-by-field.
type Style struct {
	Tone      string `toml:"tone" json:"tone,omitempty"`
	Verbosity string `toml:"verbosity" json:"verbosity,omitempty"`
}

// Fragment is a single named block of guidance text.
type Fragment struct {
	Body       string   `toml:"body" json:"body"`
	Guidelines []string `toml:"guidelines" json:"guidelines,omitempty"`
}

// Template is the full typed prompt structure: the system persona, the
// task-management guidance, and one prompt per module name.
type Template struct {
	SystemPrompt  string            `toml:"system_prompt" json:"systemPrompt,omitempty"`
	TaskPrompt    string            `toml:"task_prompt" json:"taskPrompt,omitempty"`
	Guidelines    []string          `toml:"guidelines" json:"guidelines,omitempty"`
	ModulePrompts map[string]string `toml:"module_prompts" json:"modulePrompts,omitempty"`
	Style         Style             `toml:"style" json:"style,omitempty"`
}

// Override mirrors Template field-for-field. Zero values mean "keep the
// default"; ModulePrompts is merged key-by-key rather than replaced.
type Override = Template

// Merge applies an override on top of defaults. Scalar fields replace fully,
// ModulePrompts merges key-wise (override keys win, default keys not present
// in the override survive), and Style merges field-by-field.
func Merge(defaults Template, override Override) Template {
	out := defaults

	if override.SystemPrompt != "" {
		out.SystemPrompt = override.SystemPrompt
	}
	if override.TaskPrompt != "" {
		out.TaskPrompt = override.TaskPrompt
	}
	if override.Guidelines != nil {
		out.Guidelines = override.Guidelines
	}

	if len(override.ModulePrompts) > 0 {
		merged := make(map[string]string, len(defaults.ModulePrompts)+len(override.ModulePrompts))
		for k, v := range defaults.ModulePrompts {
			merged[k] = v
		}
		for k, v := range override.ModulePrompts {
			merged[k] = v
		}
		out.ModulePrompts = merged
	}

	if override.Style.Tone != "" {
		out.Style.Tone = override.Style.Tone
	}
	if override.Style.Verbosity != "" {
		out.Style.Verbosity = override.Style.Verbosity
	}

	return out
}

// Fragment resolves a named fragment from the template: "system", "task", or
// a module name. Returns ErrNotFound when nothing exists under the name.
func (t Template) Fragment(name string) (Fragment, error) {
	switch name {
	case NameSystem:
		if t.SystemPrompt == "" {
			return Fragment{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return Fragment{Body: t.SystemPrompt, Guidelines: t.Guidelines}, nil
	case NameTask:
		if t.TaskPrompt == "" {
			return Fragment{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return Fragment{Body: t.TaskPrompt}, nil
	}
	if body, ok := t.ModulePrompts[name]; ok {
		return Fragment{Body: body}, nil
	}
	return Fragment{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// injectionDenylist holds known prompt-injection trigger phrases. Matching is
// a case-insensitive substring test.
var injectionDenylist = []string{
	"ignore previous",
	"ignore all previous",
	"disregard previous",
	"you are now",
	"forget everything",
	"forget all previous",
	"new instructions:",
	"system override",
}

// Validate checks a template for structural and content problems. A non-empty
// result means the template should not be used as-is: a template with no
// prompt field at all is structurally invalid, and any content matching the
// injection denylist is flagged.
func Validate(t Template) []error {
	var errs []error

	if t.SystemPrompt == "" && t.TaskPrompt == "" && len(t.ModulePrompts) == 0 {
		errs = append(errs, errors.New("template: must contain at least one prompt field"))
	}

	check := func(label, text string) {
		lower := strings.ToLower(text)
		for _, phrase := range injectionDenylist {
			if strings.Contains(lower, phrase) {
				errs = append(errs, fmt.Errorf("template: %s contains suspicious phrase %q", label, phrase))
			}
		}
	}

	check("system prompt", t.SystemPrompt)
	check("task prompt", t.TaskPrompt)
	for name, body := range t.ModulePrompts {
		check("module prompt "+name, body)
	}
	for _, g := range t.Guidelines {
		check("guideline", g)
	}

	return errs
}
