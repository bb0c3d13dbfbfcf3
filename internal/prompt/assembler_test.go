package prompt

import (
	"strings"
	"testing"

	"github.com/solacehq/solace/internal/memory"
	"github.com/solacehq/solace/internal/template"
)

func testAssembler() *Assembler {
	return NewAssembler(template.NewStore())
}

func TestBuild_BlockOrder(t *testing.T) {
	a := testAssembler()

	ctx := memory.NewContext("u1")
	ctx.ActivateModule(template.ModuleWellbeing)
	ctx.ActivateModule(template.ModuleCoding)

	p, err := a.Build("hello", ctx, "likes tea", nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var names []string
	for _, b := range p.Blocks {
		names = append(names, b.Name)
	}
	want := []string{"system", "task", template.ModuleWellbeing, template.ModuleCoding, "memories", "message"}
	if len(names) != len(want) {
		t.Fatalf("block names: got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("block %d: got %q, want %q", i, names[i], want[i])
		}
	}
}

func TestBuild_EmptyDigestOmitsMemoriesBlock(t *testing.T) {
	a := testAssembler()

	p, err := a.Build("hello", memory.NewContext("u1"), "", nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, b := range p.Blocks {
		if b.Name == "memories" {
			t.Error("empty digest should not produce a memories block")
		}
	}
}

func TestBuild_UnknownModuleSkipped(t *testing.T) {
	a := testAssembler()

	ctx := memory.NewContext("u1")
	ctx.ActivateModule("no_such_module")
	ctx.ActivateModule(template.ModuleCoding)

	p, err := a.Build("hello", ctx, "", nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, b := range p.Blocks {
		if b.Name == "no_such_module" {
			t.Error("module without a fragment should be skipped")
		}
	}
	found := false
	for _, b := range p.Blocks {
		if b.Name == template.ModuleCoding {
			found = true
		}
	}
	if !found {
		t.Error("known module should still be included")
	}
}

func TestBuild_Roles(t *testing.T) {
	a := testAssembler()

	p, err := a.Build("hello", memory.NewContext("u1"), "likes tea", nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	last := p.Blocks[len(p.Blocks)-1]
	if last.Role != RoleUser || last.Content != "hello" {
		t.Errorf("last block: got %+v", last)
	}
	for _, b := range p.Blocks[:len(p.Blocks)-1] {
		if b.Role != RoleSystem {
			t.Errorf("block %q role: got %q", b.Name, b.Role)
		}
	}
}

func TestBuild_OverrideApplies(t *testing.T) {
	a := testAssembler()

	override := &template.Override{SystemPrompt: "You are a pirate."}
	p, err := a.Build("hello", memory.NewContext("u1"), "", override)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(p.Blocks[0].Content, "You are a pirate.") {
		t.Errorf("override not applied: %q", p.Blocks[0].Content)
	}

	// The override is per-call; the store is untouched.
	p2, _ := a.Build("hello", memory.NewContext("u1"), "", nil)
	if strings.Contains(p2.Blocks[0].Content, "pirate") {
		t.Error("override leaked into the store")
	}
}

func TestBuild_SystemBlockCarriesGuidelines(t *testing.T) {
	a := testAssembler()

	p, err := a.Build("hello", memory.NewContext("u1"), "", nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(p.Blocks[0].Content, "Guidelines:") {
		t.Error("system block should render guidelines")
	}
}

func TestPrompt_TextSplitsByRole(t *testing.T) {
	p := Prompt{Blocks: []Block{
		{Role: RoleSystem, Name: "system", Content: "persona"},
		{Role: RoleSystem, Name: "task", Content: "tasks"},
		{Role: RoleUser, Name: "message", Content: "hi"},
	}}

	if p.SystemText() != "persona\n\ntasks" {
		t.Errorf("system text: got %q", p.SystemText())
	}
	if p.UserText() != "hi" {
		t.Errorf("user text: got %q", p.UserText())
	}
	if p.Text() != "persona\n\ntasks\n\nhi" {
		t.Errorf("text: got %q", p.Text())
	}
}

func TestDebugView(t *testing.T) {
	a := testAssembler()

	view, err := a.DebugView("hello", memory.NewContext("u1"), "likes tea", nil)
	if err != nil {
		t.Fatalf("DebugView: %v", err)
	}
	if !strings.HasPrefix(view, "=== Assembled Prompt ===") {
		t.Errorf("view header: got %q", view[:40])
	}
	if !strings.Contains(view, "memories (system)") {
		t.Error("view should label the memories block")
	}
}
