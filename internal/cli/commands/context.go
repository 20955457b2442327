package commands

import (
	"context"
	"os"

	"github.com/viewlint-labs/viewlint/internal/cli/output"
	"github.com/viewlint-labs/viewlint/internal/config"
)

// configKey is used to store config in context.
type configKey struct{}

// rendererKey is used to store renderer in context.
type rendererKey struct{}

// WithConfig stores the loaded config in the context.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// WithRenderer stores the renderer in the context.
func WithRenderer(ctx context.Context, r *output.Renderer) context.Context {
	return context.WithValue(ctx, rendererKey{}, r)
}

// GetConfig retrieves the config from the command context.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return &config.Config{
		ArtifactsDir:  config.DefaultArtifactsDir,
		Whitelist:     config.DefaultWhitelist,
		Output:        config.DefaultOutput,
		Jobs:          config.DefaultJobs,
		LockTimeoutMS: config.DefaultLockTimeoutMS,
		ProjectRoot:   ".",
	}
}

// GetRenderer retrieves the renderer from the command context.
func GetRenderer(ctx context.Context) *output.Renderer {
	if r, ok := ctx.Value(rendererKey{}).(*output.Renderer); ok {
		return r
	}
	return output.NewRenderer(os.Stdout, os.Stderr, output.ModeAuto)
}
