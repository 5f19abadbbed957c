package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set(KeyDataDir, "/tmp/pt")

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000", cfg.BackendURL)
	assert.Equal(t, 20, cfg.MaxResults)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 2.0, cfg.RequestRate)
	assert.Equal(t, ":5000", cfg.Serve.Addr)
	assert.Equal(t, filepath.Join("/tmp/pt", "jobs.db"), cfg.Serve.DB)
	assert.Equal(t, 5*time.Second, cfg.Serve.WorkerInterval)
	assert.Equal(t, 20, cfg.Serve.TrendYears)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pubtrend.yaml")
	body := `backend_url: http://search.internal:8080
max_results: 50
http_timeout: 10s
serve:
  addr: ":9000"
  worker_interval: 250ms
  trend_years: 5
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	v := viper.New()
	SetDefaults(v)
	AddSearchPaths(v, path)
	require.NoError(t, Read(v))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "http://search.internal:8080", cfg.BackendURL)
	assert.Equal(t, 50, cfg.MaxResults)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, ":9000", cfg.Serve.Addr)
	assert.Equal(t, 250*time.Millisecond, cfg.Serve.WorkerInterval)
	assert.Equal(t, 5, cfg.Serve.TrendYears)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("PUBTREND_BACKEND_URL", "http://env:1234")
	t.Setenv("PUBTREND_SERVE_ADDR", ":7777")

	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "http://env:1234", cfg.BackendURL)
	assert.Equal(t, ":7777", cfg.Serve.Addr)
}

func TestReadMissingFileIsNotAnError(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigName("pubtrend-does-not-exist")
	v.AddConfigPath(t.TempDir())
	assert.NoError(t, Read(v))
}

func TestValidate(t *testing.T) {
	base := func() *viper.Viper {
		v := viper.New()
		SetDefaults(v)
		return v
	}

	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"empty backend", KeyBackendURL, ""},
		{"zero max results", KeyMaxResults, 0},
		{"zero timeout", KeyHTTPTimeout, "0s"},
		{"zero worker interval", KeyWorkerInterval, "0s"},
		{"zero trend years", KeyTrendYears, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := base()
			v.Set(tt.key, tt.val)
			_, err := Load(v)
			assert.Error(t, err)
		})
	}
}
