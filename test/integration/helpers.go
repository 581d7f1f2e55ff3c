//go:build integration

// Package integration runs read-only checks against a live LibCal site.
package integration

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/fivetwenty-io/libcal/pkg/libcal"
	"github.com/fivetwenty-io/libcal/pkg/libcalclient"
)

// TestConfig holds configuration for integration tests.
type TestConfig struct {
	Host         string
	ClientID     string
	ClientSecret string
	LocationID   int
	BinaryPath   string
	Verbose      bool
}

// LoadTestConfig loads configuration from environment variables.
func LoadTestConfig() *TestConfig {
	locationID, _ := strconv.Atoi(os.Getenv("LIBCAL_LOCATION_ID"))

	return &TestConfig{
		Host:         os.Getenv("LIBCAL_HOST"),
		ClientID:     os.Getenv("LIBCAL_CLIENT_ID"),
		ClientSecret: os.Getenv("LIBCAL_CLIENT_SECRET"),
		LocationID:   locationID,
		BinaryPath:   binaryPath(),
		Verbose:      os.Getenv("LIBCAL_VERBOSE") == "true",
	}
}

func binaryPath() string {
	if path := os.Getenv("LIBCAL_BINARY_PATH"); path != "" {
		return path
	}

	for _, candidate := range []string{"../../libcal", "./libcal", "../libcal"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "libcal"
}

// SkipIfMissingConfig skips the test unless a site and credentials are set.
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.Host == "" || config.ClientID == "" || config.ClientSecret == "" {
		t.Skip("LIBCAL_HOST, LIBCAL_CLIENT_ID or LIBCAL_CLIENT_SECRET not set, skipping integration test")
	}
}

// SkipIfMissingLocation skips the test unless LIBCAL_LOCATION_ID is set.
func (config *TestConfig) SkipIfMissingLocation(t *testing.T) {
	t.Helper()

	if config.LocationID <= 0 {
		t.Skip("LIBCAL_LOCATION_ID not set, skipping integration test")
	}
}

// SkipIfMissingBinary skips the test unless the CLI binary can be found.
func (config *TestConfig) SkipIfMissingBinary(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath(config.BinaryPath); err != nil {
		t.Skipf("libcal binary not found at %s, skipping integration test", config.BinaryPath)
	}
}

// NewClient creates a library client for the configured site.
func (config *TestConfig) NewClient(t *testing.T) libcal.Client {
	t.Helper()

	client, err := libcalclient.New(context.Background(), &libcal.Config{
		Host:         config.Host,
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		UserAgent:    "libcal-integration-tests",
		Cache:        libcal.DefaultCacheConfig(),
	})
	require.NoError(t, err)

	t.Cleanup(func() { _ = client.Close() })

	return client
}

// CommandRunner runs the libcal binary against the configured site.
type CommandRunner struct {
	config *TestConfig
	t      *testing.T
}

// NewCommandRunner creates a new command runner.
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	return &CommandRunner{config: config, t: t}
}

// Run executes a libcal command with the site credentials and returns its output.
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	full := append([]string{
		"--host", runner.config.Host,
		"--client-id", runner.config.ClientID,
		"--client-secret", runner.config.ClientSecret,
	}, args...)

	cmd := exec.Command(runner.config.BinaryPath, full...)

	var stdoutBuf, stderrBuf bytes.Buffer

	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.BinaryPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// AssertJSONOutput verifies command output is valid JSON.
func AssertJSONOutput(t *testing.T, output string) {
	t.Helper()

	if !gjson.Valid(strings.TrimSpace(output)) {
		t.Errorf("Output is not JSON: %s", output)
	}
}

// AssertYAMLOutput verifies command output looks like YAML.
func AssertYAMLOutput(t *testing.T, output string) {
	t.Helper()

	output = strings.TrimSpace(output)
	if strings.Contains(output, "---") || strings.Contains(output, ":") {
		return
	}

	t.Errorf("Output does not appear to be YAML: %s", output)
}
