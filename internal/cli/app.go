package cli

import (
	"fmt"

	"github.com/solacehq/solace/internal/chat"
	"github.com/solacehq/solace/internal/config"
	"github.com/solacehq/solace/internal/db"
	"github.com/solacehq/solace/internal/gateway"
	"github.com/solacehq/solace/internal/heuristic"
	"github.com/solacehq/solace/internal/memory"
	"github.com/solacehq/solace/internal/prompt"
	"github.com/solacehq/solace/internal/task"
	"github.com/solacehq/solace/internal/template"
)

// app bundles the wired conversation pipeline for CLI commands. Every
// command builds one, uses it, and closes it; nothing lives in globals.
type app struct {
	cfg       config.Config
	db        *db.DB
	memories  *memory.Store
	tasks     *task.Store
	templates *template.Store

	orchestrator *chat.Orchestrator
}

// openApp loads config and wires the full pipeline against the configured
// database and backend.
func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	templates, err := template.NewStoreFromFile(cfg.TemplatePath)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("load templates: %w", err)
	}

	backend, err := gateway.New(cfg.Backend.Kind, gateway.Options{
		BaseURL:     cfg.Backend.BaseURL,
		Model:       cfg.Backend.Model,
		Temperature: cfg.Backend.Temperature,
		MaxTokens:   cfg.Backend.MaxTokens,
	})
	if err != nil {
		database.Close()
		return nil, err
	}

	// A missing tokenizer degrades prompt metadata to character counts.
	tokenizer, err := prompt.NewTokenizer()
	if err != nil {
		tokenizer = nil
	}

	memories := memory.NewStore(database)
	tasks := task.NewStore(database)
	assembler := prompt.NewAssembler(templates)
	extractor := heuristic.NewExtractor(heuristic.DefaultTables())

	return &app{
		cfg:          cfg,
		db:           database,
		memories:     memories,
		tasks:        tasks,
		templates:    templates,
		orchestrator: chat.NewOrchestrator(memories, templates, assembler, backend, extractor, tokenizer),
	}, nil
}

func (a *app) Close() {
	a.db.Close()
}
