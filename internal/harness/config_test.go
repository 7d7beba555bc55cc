package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runtests.toml")
	writeFile(t, path, `
[reference]
runtime = "/usr/bin/php"

[candidate]
compile = ["boundc", "emit", "{tree}"]
run = ["boundc", "run", "{tree}"]

[tests]
dirs = ["tests", "/abs/more"]

[run]
jobs = 3
timeout = "2m"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/usr/bin/php", cfg.Reference.Runtime)
	assert.Equal(t, "php", cfg.Reference.Name)
	assert.Equal(t, []string{"boundc", "emit", "{tree}"}, cfg.Candidate.Compile)
	assert.Equal(t, ".php", cfg.Tests.Extension)
	assert.Equal(t, ".yaml", cfg.Tests.TreeExtension)
	assert.Equal(t, 3, cfg.Run.Jobs)
	assert.Equal(t, []string{filepath.Join(dir, "tests"), "/abs/more"}, cfg.TestDirPaths())

	d, err := cfg.Timeout()
	require.NoError(t, err)
	assert.Equal(t, "2m0s", d.String())
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", "[tests]\ndirz = [\"x\"]\n", "unknown keys: tests.dirz"},
		{"bad timeout", "[run]\ntimeout = \"soon\"\n", "run.timeout"},
		{"negative jobs", "[run]\njobs = -1\n", "run.jobs"},
		{"bad extension", "[tests]\nextension = \"php\"\n", "must start with a dot"},
		{"syntax", "[run\n", "parse error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "runtests.toml")
			writeFile(t, path, tt.content)
			_, err := LoadConfig(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestApplyArgsRecognisesReferenceRuntime(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tests.Dirs = []string{"configured"}
	cfg.ApplyArgs("/work", []string{"tests/a", "bin/PHP.EXE", "/opt/php/bin/php", "/abs/b"})

	assert.Equal(t, "/opt/php/bin/php", cfg.Reference.Runtime, "the last runtime wins")
	assert.Equal(t, []string{"/work/tests/a", "/abs/b"}, cfg.Tests.Dirs)

	unchanged := DefaultConfig()
	unchanged.Tests.Dirs = []string{"configured"}
	unchanged.ApplyArgs("/work", nil)
	assert.Equal(t, []string{"configured"}, unchanged.Tests.Dirs)
}

func TestExpandTemplate(t *testing.T) {
	got := expandTemplate([]string{"tool", "{test}", "--out={out}", "{unknown}"}, map[string]string{
		"test": "a.php",
		"out":  "/w/a.php.out",
	})
	assert.Equal(t, []string{"tool", "a.php", "--out=/w/a.php.out", "{unknown}"}, got)
}
