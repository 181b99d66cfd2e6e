package attrib

import "context"

// ---- Run-time context options (internal wiring, exported for subpackages) ----

type contextKey int

const (
	_ctxKeyFailFast contextKey = iota
	_ctxKeyConfig
	_ctxKeySerState
)

// WithFailFast returns a child context that marks fail-fast behavior.
// This is set by Deserialize based on DeserializeConfig and consumed by
// adapters and validators.
func WithFailFast(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, _ctxKeyFailFast, enabled)
}

// IsFailFast reports whether the current run should stop on the first Detail.
func IsFailFast(ctx context.Context) bool {
	v := ctx.Value(_ctxKeyFailFast)
	b, _ := v.(bool)
	return b
}

// withConfig propagates the engine configuration so nested record adapters
// deserialize with the same settings as the outermost call.
func withConfig(ctx context.Context, cfg DeserializeConfig) context.Context {
	return context.WithValue(ctx, _ctxKeyConfig, cfg)
}

func configFromContext(ctx context.Context) DeserializeConfig {
	cfg, _ := ctx.Value(_ctxKeyConfig).(DeserializeConfig)
	return cfg
}
