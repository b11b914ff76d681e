package testsupport

import (
	"path/filepath"
	"testing"

	"lectern/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ScratchDir = filepath.Join(base, "scratch")
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Source.InputDir = filepath.Join(base, "input")
	cfg.Logging.Level = "error"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithRemote points the source section at an rclone remote.
func WithRemote(remote, path string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Source.InputDir = ""
		cfg.Source.RcloneRemote = remote
		cfg.Source.RemotePath = path
	}
}

// WithFormats overrides the output projections.
func WithFormats(formats ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Outputs.Formats = formats
	}
}
