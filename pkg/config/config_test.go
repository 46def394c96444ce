package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metaflame/internal/calltree"
	"github.com/metaflame/internal/colorscheme"
	"github.com/metaflame/pkg/model"
)

func TestLoad_DefaultValues(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("log:\n  level: debug\n"), 0644))

	cfg, err := Load(configFile)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.View.Buckets)
	assert.Equal(t, "duration", cfg.View.Metric)
	assert.Equal(t, "time", cfg.View.Across)
	assert.False(t, cfg.View.Spacing)
	assert.Equal(t, 12.0, cfg.View.InspectorHeight)
	assert.Equal(t, "rainbow", cfg.Color.Scheme)
	assert.Equal(t, uint32(1), cfg.Color.Salt)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_CustomValues(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := `
view:
  buckets: 8
  metric: value
  across: thread
  spacing: true
  min_fraction: 0.01
color:
  scheme: ice
  salt: 42
  value_mode: proportional
storage:
  type: cos
  bucket: meshes-1250000000
  region: ap-guangzhou
database:
  enabled: true
  type: postgres
  host: db.example.com
  database: metaflame
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0644))

	cfg, err := Load(configFile)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.View.Buckets)
	assert.Equal(t, model.MetricValue, cfg.Metric())
	assert.Equal(t, model.AxisThread, cfg.Axis())
	assert.True(t, cfg.View.Spacing)
	assert.Equal(t, 0.01, cfg.View.MinFraction)
	assert.Equal(t, colorscheme.Ice, cfg.ColorScheme())
	assert.Equal(t, uint32(42), cfg.Color.Salt)
	assert.Equal(t, calltree.ValueProportional, cfg.ValueMode())
	assert.Equal(t, "cos", cfg.Storage.Type)
	assert.Equal(t, "ap-guangzhou", cfg.Storage.Region)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "db.example.com", cfg.Database.Host)
	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("view: [unterminated"), 0644))

	_, err := Load(configFile)
	assert.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("METAFLAME_VIEW_BUCKETS", "3")
	t.Setenv("METAFLAME_COLOR_SCHEME", "flame")

	cfg, err := LoadFromReader("yaml", []byte("view:\n  buckets: 10\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.View.Buckets)
	assert.Equal(t, colorscheme.Flame, cfg.ColorScheme())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"zero buckets", "view:\n  buckets: 0\n", "buckets"},
		{"bad metric", "view:\n  metric: latency\n", "unknown metric"},
		{"bad axis", "view:\n  across: space\n", "unknown axis"},
		{"bad height", "view:\n  inspector_height: 0\n", "inspector height"},
		{"bad fraction", "view:\n  min_fraction: 1.5\n", "min fraction"},
		{"bad scheme", "color:\n  scheme: sepia\n", "unknown color scheme"},
		{"bad value mode", "color:\n  value_mode: round\n", "unknown value mode"},
		{"bad storage", "storage:\n  type: s3\n", "unsupported storage type"},
		{"bad database", "database:\n  enabled: true\n  type: oracle\n", "unsupported database type"},
		{"sqlite without path", "database:\n  enabled: true\n  type: sqlite\n  path: \"\"\n", "sqlite database path"},
		{"postgres without host", "database:\n  enabled: true\n  type: postgres\n  host: \"\"\n", "database host"},
		{"bad port", "server:\n  port: 70000\n", "invalid server port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromReader("yaml", []byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_DisabledDatabaseIgnored(t *testing.T) {
	cfg, err := LoadFromReader("yaml", []byte("database:\n  type: oracle\n"))
	require.NoError(t, err)
	assert.False(t, cfg.Database.Enabled)
}
