package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "data/finsight.db", cfg.Store.SQLitePath)
	assert.Equal(t, "finance", cfg.GCP.Dataset)
	assert.Equal(t, int64(10<<20), cfg.Upload.MaxBytes)
	assert.Equal(t, 3.0, cfg.Analysis.GlobalZThreshold)
	assert.Equal(t, 2.5, cfg.Analysis.CategoryZThreshold)
	assert.Equal(t, 5, cfg.Analysis.MinAnomalyRows)
	assert.Equal(t, 0.7, cfg.Analysis.DuplicateSimilarity)
	assert.Equal(t, 0.01, cfg.Analysis.DuplicateAmountTolerance)
	assert.Equal(t, 10, cfg.Analysis.MinTrainingRows)
	assert.Equal(t, 100, cfg.Analysis.MaxFeatures)
	assert.Equal(t, 0.5, cfg.Analysis.FallbackConfidence)
	assert.Equal(t, 7500000.0, cfg.Finance.DefaultCashOnHand)
	assert.Equal(t, EngineLinear, cfg.Forecast.Engine)
	assert.Equal(t, 180, cfg.Forecast.HorizonDays)
	assert.Empty(t, cfg.GCS.Bucket)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeFile(t, dir, "finsight.toml", `
[server]
port = 9090

[store]
backend = "bigquery"

[gcp]
project_id = "acme-finance"
dataset = "startup"

[analysis]
global_z_threshold = 2.0
min_anomaly_rows = 8

[forecast]
engine = "gemini"
model = "gemini-test"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, BackendBigQuery, cfg.Store.Backend)
	assert.Equal(t, "acme-finance", cfg.GCP.ProjectID)
	assert.Equal(t, "startup", cfg.GCP.Dataset)
	assert.Equal(t, EngineGemini, cfg.Forecast.Engine)
	assert.Equal(t, "gemini-test", cfg.Forecast.Model)

	opts := cfg.PipelineOptions()
	assert.Equal(t, 2.0, opts.Anomaly.GlobalZ)
	assert.Equal(t, 2.5, opts.Anomaly.CategoryZ)
	assert.Equal(t, 8, opts.Anomaly.MinRows)
	assert.Equal(t, 0.7, opts.Duplicate.Similarity)
	assert.Equal(t, 10, opts.Categorizer.MinTrainingExamples)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FINSIGHT_SERVER_PORT", "7000")
	t.Setenv("FINSIGHT_LOG_LEVEL", "debug")
	t.Setenv("FINSIGHT_FINANCE_DEFAULT_CASH_ON_HAND", "1000")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 1000.0, cfg.Finance.DefaultCashOnHand)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, ".env", "FINSIGHT_NOTION_TOKEN=secret_abc\nFINSIGHT_NOTION_DATABASE_ID=db-1\n")

	// register cleanup, then unset so the .env file can supply the values
	for _, key := range []string{"FINSIGHT_NOTION_TOKEN", "FINSIGHT_NOTION_DATABASE_ID"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "secret_abc", cfg.Notion.Token)
	assert.Equal(t, "db-1", cfg.Notion.DatabaseID)
}

func TestLoad_InvalidFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("nonexistent.toml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Store:    StoreConfig{Backend: BackendSQLite, SQLitePath: "x.db"},
			Upload:   UploadConfig{MaxBytes: 1},
			Forecast: ForecastConfig{Engine: EngineLinear, HorizonDays: 1},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown backend", mutate: func(c *Config) { c.Store.Backend = "postgres" }, errMsg: "unknown store.backend"},
		{name: "bigquery without project", mutate: func(c *Config) { c.Store.Backend = BackendBigQuery }, errMsg: "gcp.project_id"},
		{name: "unknown engine", mutate: func(c *Config) { c.Forecast.Engine = "prophet" }, errMsg: "unknown forecast.engine"},
		{name: "zero max bytes", mutate: func(c *Config) { c.Upload.MaxBytes = 0 }, errMsg: "max_bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
