// Package prompt assembles template fragments, memories, and the live user
// message into an ordered, role-tagged prompt.
package prompt

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/solacehq/solace/internal/memory"
	"github.com/solacehq/solace/internal/template"
)

// Block roles. The gateway may send blocks as a role-based message list or
// collapse them to flat text, depending on the backend's wire shape.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Block is one role-tagged section of an assembled prompt.
type Block struct {
	Role    string `json:"role"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Prompt is the result of assembly: ordered blocks plus the flat rendering.
type Prompt struct {
	Blocks []Block `json:"blocks"`
}

// Text renders the prompt as one flat text block, sections separated by
// blank lines.
func (p Prompt) Text() string {
	parts := make([]string, 0, len(p.Blocks))
	for _, b := range p.Blocks {
		parts = append(parts, b.Content)
	}
	return strings.Join(parts, "\n\n")
}

// SystemText renders only the system-role blocks.
func (p Prompt) SystemText() string {
	var parts []string
	for _, b := range p.Blocks {
		if b.Role == RoleSystem {
			parts = append(parts, b.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

// UserText renders only the user-role blocks.
func (p Prompt) UserText() string {
	var parts []string
	for _, b := range p.Blocks {
		if b.Role == RoleUser {
			parts = append(parts, b.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Assembler builds prompts from the template store.
type Assembler struct {
	templates *template.Store
}

// NewAssembler creates an Assembler.
func NewAssembler(templates *template.Store) *Assembler {
	return &Assembler{templates: templates}
}

// Build assembles the prompt for a user message. Order is fixed: persona,
// task guidance, one block per active module (in activation order), the
// memory digest (only when non-empty), then the user message. A module with
// no registered fragment is skipped, not an error. A non-nil override is
// merged onto the current template set before resolution.
func (a *Assembler) Build(userMessage string, ctx memory.Context, memoryDigest string, override *template.Override) (Prompt, error) {
	tmpl := a.templates.Template()
	if override != nil {
		tmpl = template.Merge(tmpl, *override)
	}

	var blocks []Block

	system, err := tmpl.Fragment(template.NameSystem)
	if err != nil {
		return Prompt{}, fmt.Errorf("assemble: resolve system fragment: %w", err)
	}
	blocks = append(blocks, Block{Role: RoleSystem, Name: template.NameSystem, Content: renderFragment(system)})

	task, err := tmpl.Fragment(template.NameTask)
	if err != nil {
		return Prompt{}, fmt.Errorf("assemble: resolve task fragment: %w", err)
	}
	blocks = append(blocks, Block{Role: RoleSystem, Name: template.NameTask, Content: renderFragment(task)})

	for _, mod := range ctx.ActiveModules {
		frag, err := tmpl.Fragment(mod)
		if err != nil {
			slog.Debug("skipping module with no template fragment", "module", mod)
			continue
		}
		blocks = append(blocks, Block{Role: RoleSystem, Name: mod, Content: renderFragment(frag)})
	}

	if memoryDigest != "" {
		blocks = append(blocks, Block{
			Role:    RoleSystem,
			Name:    "memories",
			Content: "Relevant things you remember about this user: " + memoryDigest,
		})
	}

	blocks = append(blocks, Block{Role: RoleUser, Name: "message", Content: userMessage})

	return Prompt{Blocks: blocks}, nil
}

// DebugView renders the same assembly with a human-readable header per block.
// Purely a presentation variant of Build.
func (a *Assembler) DebugView(userMessage string, ctx memory.Context, memoryDigest string, override *template.Override) (string, error) {
	p, err := a.Build(userMessage, ctx, memoryDigest, override)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("=== Assembled Prompt ===\n")
	for i, block := range p.Blocks {
		fmt.Fprintf(&b, "\n--- [%d] %s (%s) ---\n%s\n", i+1, block.Name, block.Role, block.Content)
	}
	return b.String(), nil
}

// renderFragment joins a fragment body with its guideline list.
func renderFragment(f template.Fragment) string {
	if len(f.Guidelines) == 0 {
		return f.Body
	}
	var b strings.Builder
	b.WriteString(f.Body)
	b.WriteString("\n\nGuidelines:")
	for _, g := range f.Guidelines {
		b.WriteString("\n- ")
		b.WriteString(g)
	}
	return b.String()
}
