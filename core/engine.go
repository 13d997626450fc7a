package core

import (
	"fmt"
	"log/slog"
	"strconv"
)

// Config controls execution bounds and logging. A negative StepQuota
// disables the step bound; cancellation through the run context still
// applies.
type Config struct {
	RecursionLimit int
	StepQuota      int
	InstanceQuota  int
	Logger         *slog.Logger
}

// Engine loads declaration sets into runnable Programs.
type Engine struct {
	config Config
	logger *slog.Logger
}

// NewEngine constructs an Engine, filling unset limits with defaults.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.RecursionLimit <= 0 {
		cfg.RecursionLimit = 1024
	}
	switch {
	case cfg.StepQuota == 0:
		cfg.StepQuota = 100_000_000
	case cfg.StepQuota < 0:
		cfg.StepQuota = -1
	}
	if cfg.InstanceQuota <= 0 {
		cfg.InstanceQuota = 100_000
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{config: cfg, logger: cfg.Logger}, nil
}

// MustNewEngine constructs an Engine or panics if the config is invalid.
func MustNewEngine(cfg Config) *Engine {
	engine, err := NewEngine(cfg)
	if err != nil {
		panic(err)
	}
	return engine
}

func (e *Engine) Config() Config {
	return e.config
}

// ConfigSummary renders the effective limits for diagnostics.
func (e *Engine) ConfigSummary() string {
	steps := "unlimited"
	if e.config.StepQuota > 0 {
		steps = strconv.Itoa(e.config.StepQuota)
	}
	return fmt.Sprintf("recursion limit %d, step quota %s, instance quota %d",
		e.config.RecursionLimit, steps, e.config.InstanceQuota)
}

// Load registers decls into a fresh table, seals it and binds every call
// site. The returned Program is immutable; the decls must not be mutated
// afterwards.
func (e *Engine) Load(decls []*TypeDecl) (*Program, error) {
	return e.load(decls, "")
}

// LoadYAML decodes a declaration document and loads it. The source is kept
// so runtime errors can show a code frame.
func (e *Engine) LoadYAML(source []byte) (*Program, error) {
	decls, err := DecodeYAML(source)
	if err != nil {
		return nil, err
	}
	return e.load(decls, string(source))
}

func (e *Engine) load(decls []*TypeDecl, source string) (*Program, error) {
	table := NewTable()
	for _, decl := range decls {
		if err := table.Register(decl); err != nil {
			return nil, err
		}
	}
	if err := table.Seal(); err != nil {
		return nil, err
	}
	resolver := NewResolver(table)
	sites, err := bindProgram(table, resolver, e.logger)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("program loaded", slog.Int("types", len(decls)), slog.Int("call_sites", len(sites)))
	return &Program{
		engine:   e,
		table:    table,
		resolver: resolver,
		sites:    sites,
		source:   source,
	}, nil
}
