// registry.go builds the priority-ordered engine chain from config.
//
// Construction failures do not abort the chain: a broken engine is
// replaced by a stub whose every call reports KindUnavailable, so the
// executor records an honest attempt and falls through to the next
// engine instead of the whole analysis dying at startup.
package engine

import (
	"context"
	"fmt"

	"github.com/DachengChen/sqlsage/config"
)

// Open constructs every configured engine, primary first, the remaining
// engines in listed order as the fallback chain.
func Open(ctx context.Context, cfg *config.Config) ([]Engine, error) {
	if len(cfg.Engines) == 0 {
		return nil, fmt.Errorf("no engines configured")
	}

	seen := map[string]bool{}
	for _, ec := range cfg.Engines {
		if ec.Name == "" {
			return nil, fmt.Errorf("engine with empty name in config")
		}
		if seen[ec.Name] {
			return nil, fmt.Errorf("duplicate engine name %q", ec.Name)
		}
		seen[ec.Name] = true
	}

	primary := cfg.Executor.PrimaryEngine
	if primary == "" {
		primary = cfg.Engines[0].Name
	}
	if !seen[primary] {
		return nil, fmt.Errorf("primary engine %q is not configured", primary)
	}

	ordered := make([]config.EngineConfig, 0, len(cfg.Engines))
	if pc, ok := cfg.Engine(primary); ok {
		ordered = append(ordered, pc)
	}
	for _, ec := range cfg.Engines {
		if ec.Name != primary {
			ordered = append(ordered, ec)
		}
	}

	engines := make([]Engine, 0, len(ordered))
	for _, ec := range ordered {
		eng, err := OpenOne(ctx, ec)
		if err != nil {
			eng = Broken(ec.Name, err)
		}
		engines = append(engines, eng)
	}
	return engines, nil
}

// OpenOne constructs a single engine from its config entry.
func OpenOne(ctx context.Context, ec config.EngineConfig) (Engine, error) {
	switch ec.Driver {
	case "sqlite":
		return NewSQLite(ec)
	case "postgres":
		return NewPostgres(ctx, ec)
	default:
		return nil, fmt.Errorf("engine %s: unknown driver %q", ec.Name, ec.Driver)
	}
}

// CloseAll releases every engine in the chain.
func CloseAll(engines []Engine) {
	for _, e := range engines {
		e.Close()
	}
}

// Broken returns an engine stub that fails every call with
// KindUnavailable, carrying the original construction error.
func Broken(name string, cause error) Engine {
	return &brokenEngine{name: name, cause: cause}
}

type brokenEngine struct {
	name  string
	cause error
}

var _ Engine = (*brokenEngine)(nil)

func (b *brokenEngine) Name() string { return b.name }

func (b *brokenEngine) Execute(ctx context.Context, sql string) (*RowSet, error) {
	return nil, WrapError(KindUnavailable, b.name, "engine failed to initialize", b.cause)
}

func (b *brokenEngine) Schema(ctx context.Context) (*Schema, error) {
	return nil, WrapError(KindUnavailable, b.name, "engine failed to initialize", b.cause)
}

func (b *brokenEngine) Close() {}
