// Package analysis owns the question-to-report pipeline: it wires the
// AI provider, the engine chain, the knowledge base, and the attempt
// store into an Agent, then runs plan / generate / execute / chart
// sessions against them.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/DachengChen/sqlsage/ai"
	"github.com/DachengChen/sqlsage/applog"
	"github.com/DachengChen/sqlsage/config"
	"github.com/DachengChen/sqlsage/engine"
	"github.com/DachengChen/sqlsage/knowledge"
	"github.com/DachengChen/sqlsage/session"
)

// Agent is a ready-to-analyze assembly of collaborators. One Agent
// serves many sessions; each Analyze call gets its own memory.
type Agent struct {
	cfg       *config.Config
	provider  ai.Provider
	knowledge *knowledge.Base
	planner   *ai.Planner
	generator *ai.Generator
	store     *session.Store

	mu      sync.Mutex
	engines []engine.Engine
}

// New builds an Agent from the configuration: provider from the AI
// settings, engines primary-first, knowledge base from its file, and
// the attempt store when history is enabled. A failing attempt store
// degrades to in-memory history with a logged error; everything else
// is fatal.
func New(ctx context.Context, cfg *config.Config) (*Agent, error) {
	provider, err := ai.NewProvider(cfg.AI)
	if err != nil {
		return nil, err
	}

	engines, err := engine.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	kb, err := knowledge.Load(cfg.KnowledgePath)
	if err != nil {
		engine.CloseAll(engines)
		return nil, err
	}

	a := &Agent{
		cfg:       cfg,
		provider:  provider,
		knowledge: kb,
		planner:   &ai.Planner{Provider: provider},
		generator: &ai.Generator{Provider: provider},
		engines:   engines,
	}

	if cfg.HistoryStore {
		store, err := session.OpenStore(cfg.HistoryFile())
		if err != nil {
			applog.Error("attempt store disabled: %v", err)
		} else {
			a.store = store
		}
	}

	applog.Info("agent ready: provider=%s engines=%d", provider.Name(), len(engines))
	return a, nil
}

// Engines returns the engine chain, primary first.
func (a *Agent) Engines() []engine.Engine {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]engine.Engine, len(a.engines))
	copy(out, a.engines)
	return out
}

// SetPrimary moves the named engine to the front of the chain and
// updates the in-memory config.
func (a *Agent) SetPrimary(name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	reordered, err := frontload(a.engines, name)
	if err != nil {
		return err
	}
	a.engines = reordered
	a.cfg.Executor.PrimaryEngine = name
	applog.Event("ENGINE", "primary switched to %s", name)
	return nil
}

// frontload returns engines with the named one first, preserving the
// relative order of the rest.
func frontload(engines []engine.Engine, name string) ([]engine.Engine, error) {
	idx := -1
	for i, e := range engines {
		if e.Name() == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("unknown engine %q", name)
	}
	out := make([]engine.Engine, 0, len(engines))
	out = append(out, engines[idx])
	out = append(out, engines[:idx]...)
	out = append(out, engines[idx+1:]...)
	return out, nil
}

// Knowledge returns the agent's knowledge base.
func (a *Agent) Knowledge() *knowledge.Base { return a.knowledge }

// Provider returns the active AI provider.
func (a *Agent) Provider() ai.Provider { return a.provider }

// Store returns the attempt store, or nil when history is disabled.
func (a *Agent) Store() *session.Store { return a.store }

// Config returns the configuration the agent was built from.
func (a *Agent) Config() *config.Config { return a.cfg }

// Close releases engines and the attempt store.
func (a *Agent) Close() {
	a.mu.Lock()
	engines := a.engines
	a.engines = nil
	a.mu.Unlock()

	engine.CloseAll(engines)
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			applog.Error("close attempt store: %v", err)
		}
	}
}

var errNoEngines = errors.New("no engines available")

// activeEngines snapshots the chain for one session, optionally moving
// an override to the front without touching the agent's order.
func (a *Agent) activeEngines(override string) ([]engine.Engine, error) {
	engines := a.Engines()
	if len(engines) == 0 {
		return nil, errNoEngines
	}
	if override == "" {
		return engines, nil
	}
	return frontload(engines, override)
}
