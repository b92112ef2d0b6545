package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"fileorg/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose state directory lives in a per-test temp
// dir. History is disabled unless WithHistory is supplied, and the ffprobe
// binary points at a name that will not resolve so tests never depend on the
// host installation.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Organize.History = false
	cfgVal.Media.FFprobeBinary = "fileorg-test-missing-ffprobe"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithHistory enables the run history store.
func WithHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Organize.History = true
	}
}

// WithOrganize lets a test adjust the organize defaults in place.
func WithOrganize(fn func(*config.Organize)) ConfigOption {
	return func(b *configBuilder) {
		fn(&b.cfg.Organize)
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. Each stub prints output and exits 0. If names is
// empty, ffprobe is stubbed and the config is pointed at it.
func WithStubbedBinaries(output string, names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffprobe"}
			b.cfg.Media.FFprobeBinary = "ffprobe"
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\ncat <<'STUB'\n" + output + "\nSTUB\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}
