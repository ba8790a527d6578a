package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spectang.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}

	assert.True(t, cfg.GetFailures())
	assert.False(t, cfg.GetMessage())
	assert.False(t, cfg.GetNoColor())
	assert.False(t, cfg.GetNoTTY())
	assert.Equal(t, 1.0, cfg.GetRate())
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `
failures: false
message: true
noColor: true
rate: 0.5
jsonfile: events.json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.GetFailures())
	assert.True(t, cfg.GetMessage())
	assert.True(t, cfg.GetNoColor())
	assert.False(t, cfg.GetNoTTY())
	assert.Equal(t, 0.5, cfg.GetRate())
	assert.Equal(t, "events.json", cfg.JSONFile)
	assert.Empty(t, cfg.OutFile)
}

func TestLoad_ZeroRateIsKept(t *testing.T) {
	cfg, err := Load(writeFile(t, "rate: 0\n"))
	require.NoError(t, err)

	require.NotNil(t, cfg.Rate)
	assert.Equal(t, 0.0, cfg.GetRate())
}

func TestLoad_MissingDefaultFile(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestLoad_DefaultFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFilename), []byte("notty: true\n"), 0o644))
	chdir(t, dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.GetNoTTY())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantErr string
	}{
		{
			name:    "missing explicit file",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yaml") },
			wantErr: "reading config",
		},
		{
			name:    "malformed yaml",
			path:    func(t *testing.T) string { return writeFile(t, "failures: [unterminated\n") },
			wantErr: "parsing config",
		},
		{
			name:    "wrong type",
			path:    func(t *testing.T) string { return writeFile(t, "failures: sometimes\n") },
			wantErr: "parsing config",
		},
		{
			name:    "negative rate",
			path:    func(t *testing.T) string { return writeFile(t, "rate: -1\n") },
			wantErr: "rate must be >= 0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent of testing.T.Chdir, Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
