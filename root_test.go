package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeCapture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.bin")
	require.NoError(t, os.WriteFile(path, encodeRecords(t, vaddRecords()).Bytes(), 0o644))
	return path
}

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := RootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func TestReplayCommand(t *testing.T) {
	out, err := executeRoot(t, "--log-verbose", "ERROR", "replay", "--input", writeCapture(t))
	require.NoError(t, err)

	require.Contains(t, out, "[BEFORE] vadd exec=1")
	require.Contains(t, out, "[AFTER] vadd exec=1")
	require.Contains(t, out, "vadd exec=1 after a[0:]: 2 4 6 8")
	require.Contains(t, out, "EXECUTIONS")
}

func TestReplayCommandConfigFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "trace.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("print_kernel_after_exec: false\nprint_kernel_name_only: true\n"), 0o644))

	// the flag wins over the file
	out, err := executeRoot(t, "--log-verbose", "ERROR", "--config", cfgPath,
		"--print-kernel-after-exec=true", "--top", "0", "replay", "--input", writeCapture(t))
	require.NoError(t, err)

	require.Contains(t, out, "[BEFORE] vadd exec=1")
	require.Contains(t, out, "[AFTER] vadd exec=1")
	require.NotContains(t, out, "a[0:]")
	require.NotContains(t, out, "EXECUTIONS")
}

func TestReplayCommandMissingInput(t *testing.T) {
	_, err := executeRoot(t, "--log-verbose", "ERROR", "replay", "--input", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := executeRoot(t, "--log-verbose", "LOUD", "replay", "--input", "-")
	require.ErrorContains(t, err, "invalid log level")
}

func TestPrintEventsRequiresDebug(t *testing.T) {
	_, err := executeRoot(t, "--print-events", "replay", "--input", "-")
	require.ErrorContains(t, err, "requires --debug")
}

func TestInvalidConfig(t *testing.T) {
	_, err := executeRoot(t, "--log-verbose", "ERROR", "--buffer-capacity", "-1", "replay", "--input", "-")
	require.Error(t, err)
}

func TestForceFinishRejected(t *testing.T) {
	_, err := executeRoot(t, "--log-verbose", "ERROR", "--force-finish", "replay", "--input", writeCapture(t))
	require.ErrorContains(t, err, "force_finish")

	cfgPath := filepath.Join(t.TempDir(), "trace.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("force_finish: true\n"), 0o644))
	_, err = executeRoot(t, "--log-verbose", "ERROR", "--config", cfgPath, "replay", "--input", writeCapture(t))
	require.ErrorContains(t, err, "force_finish")
}
