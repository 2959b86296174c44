package crmdialer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/gavet/crmdialer/test/integration/testutils"
)

// Config holds integration test configuration loaded from environment variables.
type Config struct {
	Binary string
}

func (c *Config) defaults() error {
	if c.Binary == "" {
		c.Binary = "crmdialer"
	}

	// go test changes the CWD to the test package directory, relative paths would not work.
	if !filepath.IsAbs(c.Binary) {
		return fmt.Errorf("CRMDIALER_INTEGRATION_BINARY must be an absolute path, got %q", c.Binary)
	}
	if _, err := os.Stat(c.Binary); err != nil {
		return fmt.Errorf("crmdialer binary not found at %q: %w", c.Binary, err)
	}

	return nil
}

// NewConfig loads integration test configuration from environment variables.
// If the config is invalid or the activation env var is not set, the test is skipped.
func NewConfig(t *testing.T) Config {
	t.Helper()

	const (
		envActivation = "CRMDIALER_INTEGRATION"
		envBinary     = "CRMDIALER_INTEGRATION_BINARY"
	)

	if os.Getenv(envActivation) != "true" {
		t.Skipf("Skipping integration test: %s is not set to 'true'", envActivation)
	}

	c := Config{Binary: os.Getenv(envBinary)}
	if err := c.defaults(); err != nil {
		t.Skipf("Skipping due to invalid config: %s", err)
	}

	return c
}

// Run executes a crmdialer command against the data dir with the store backend.
func Run(ctx context.Context, config Config, dataDir, store, cmdArgs string) (stdout, stderr []byte, err error) {
	args := fmt.Sprintf("--data-dir %s --store %s %s", dataDir, store, cmdArgs)
	return testutils.RunCrmdialer(ctx, nil, config.Binary, args, true)
}

// RunStdin executes a crmdialer command feeding stdin.
func RunStdin(ctx context.Context, config Config, dataDir, store string, stdin io.Reader, args ...string) (stdout, stderr []byte, err error) {
	args = append([]string{"--data-dir", dataDir, "--store", store}, args...)
	return testutils.RunCrmdialerArgs(ctx, nil, config.Binary, args, stdin, true)
}
