package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp runs the loader from an empty directory so a developer's local
// config.yaml cannot leak into the test.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 2.0, cfg.Analysis.ZScoreThreshold)
	assert.Equal(t, 7, cfg.Analysis.LookbackDays)
	assert.Equal(t, 0.6, cfg.Analysis.StrongCorrelation)
	assert.Equal(t, -10.0, cfg.Analysis.WeaknessCutoff)
	assert.Equal(t, int64(10<<20), cfg.Upload.MaxSizeBytes)
	assert.Equal(t, "reports", cfg.Upload.ReportsDir)
}

func TestLoadFromFile(t *testing.T) {
	dir := chdirTemp(t)
	yaml := `
server:
  port: 9090
analysis:
  z_score_threshold: 2.5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2.5, cfg.Analysis.ZScoreThreshold)
	// Untouched keys keep their defaults.
	assert.Equal(t, 7, cfg.Analysis.LookbackDays)
	assert.Equal(t, "console", cfg.Logging.Output)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server:\n  port: 9090\n"), 0o644))
	t.Setenv("INSIGHTGEN_SERVER_PORT", "7070")
	t.Setenv("INSIGHTGEN_ANALYSIS_LOOKBACK_DAYS", "14")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 14, cfg.Analysis.LookbackDays)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port out of range", "INSIGHTGEN_SERVER_PORT", "70000"},
		{"non-positive z-score threshold", "INSIGHTGEN_ANALYSIS_Z_SCORE_THRESHOLD", "0"},
		{"lookback must be positive", "INSIGHTGEN_ANALYSIS_LOOKBACK_DAYS", "-1"},
		{"correlation above one", "INSIGHTGEN_ANALYSIS_STRONG_CORRELATION", "1.5"},
		{"weakness cutoff must be negative", "INSIGHTGEN_ANALYSIS_WEAKNESS_CUTOFF", "5"},
		{"upload size must be positive", "INSIGHTGEN_UPLOAD_MAX_SIZE_BYTES", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdirTemp(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadMalformedFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: ["), 0o644))
	_, err := Load()
	assert.Error(t, err)
}
