package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)

	stdout, stderr, err := runAdforge(t, binaryPath, home, "version")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.NotEmpty(t, stdout)

	_, stderr, err = runAdforge(t, binaryPath, home, "key", "set", "--value", "AIzaSmokeTestKey0000")
	require.NoError(t, err, "stderr: %s", stderr)

	stdout, stderr, err = runAdforge(t, binaryPath, home, "key", "show")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "AIza")
	assert.NotContains(t, stdout, "SmokeTestKey")

	stdout, stderr, err = runAdforge(t, binaryPath, home, "history")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "Generation History")
}

func TestSmokeGenerateRejectsMissingImage(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)

	_, stderr, err := runAdforge(t, binaryPath, home, "generate", "--image", filepath.Join(home, "missing.jpg"), "--quiet")
	require.Error(t, err)
	assert.Contains(t, stderr, "read image")
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "adforge-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/adforge")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build adforge binary: %s", string(output))
	return binaryPath
}

func runAdforge(t *testing.T, binaryPath, home string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	// No pass binary on PATH: secrets go to the file backend under HOME.
	cmd.Env = []string{"HOME=" + home, "PATH=" + t.TempDir(), "ADFORGE_LOG_LEVEL=error"}

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}
