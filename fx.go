package ulink

import (
	"context"

	"go.uber.org/fx"
)

// Module wires the engine into an fx application. The host provides
// *Config and Options; the engine bootstraps on start and ends its
// session on stop.
var Module = fx.Module("ulink",
	fx.Provide(newFxEngine),
)

func newFxEngine(lc fx.Lifecycle, cfg *Config, opts Options) (*Engine, error) {
	engine, err := New(cfg, opts)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return engine.Initialize(ctx)
		},
		OnStop: func(context.Context) error {
			engine.Terminate()

			return nil
		},
	})

	return engine, nil
}
