// Package config loads application settings from a file, the environment and
// a local .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/dvloznov/finsight/internal/analysis"
	"github.com/dvloznov/finsight/internal/pipeline"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. FINSIGHT_SERVER_PORT.
const EnvPrefix = "FINSIGHT"

// Store backends.
const (
	BackendSQLite   = "sqlite"
	BackendBigQuery = "bigquery"
)

// Forecast engines.
const (
	EngineLinear = "linear"
	EngineGemini = "gemini"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Store    StoreConfig    `mapstructure:"store"`
	GCP      GCPConfig      `mapstructure:"gcp"`
	GCS      GCSConfig      `mapstructure:"gcs"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Finance  FinanceConfig  `mapstructure:"finance"`
	Forecast ForecastConfig `mapstructure:"forecast"`
	Notion   NotionConfig   `mapstructure:"notion"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type StoreConfig struct {
	Backend    string `mapstructure:"backend"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

type GCPConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Dataset   string `mapstructure:"dataset"`
}

// GCSConfig enables raw upload archiving when Bucket is set.
type GCSConfig struct {
	Bucket string `mapstructure:"bucket"`
}

type UploadConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

// AnalysisConfig holds the detection and training thresholds.
type AnalysisConfig struct {
	GlobalZThreshold         float64 `mapstructure:"global_z_threshold"`
	CategoryZThreshold       float64 `mapstructure:"category_z_threshold"`
	MinAnomalyRows           int     `mapstructure:"min_anomaly_rows"`
	DuplicateSimilarity      float64 `mapstructure:"duplicate_similarity"`
	DuplicateAmountTolerance float64 `mapstructure:"duplicate_amount_tolerance"`
	MinTrainingRows          int     `mapstructure:"min_training_rows"`
	MaxFeatures              int     `mapstructure:"max_features"`
	FallbackConfidence       float64 `mapstructure:"fallback_confidence"`
}

type FinanceConfig struct {
	DefaultCashOnHand float64 `mapstructure:"default_cash_on_hand"`
}

type ForecastConfig struct {
	Engine      string `mapstructure:"engine"`
	Model       string `mapstructure:"model"`
	HorizonDays int    `mapstructure:"horizon_days"`
}

type NotionConfig struct {
	Token      string `mapstructure:"token"`
	DatabaseID string `mapstructure:"database_id"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("store.backend", BackendSQLite)
	v.SetDefault("store.sqlite_path", "data/finsight.db")
	v.SetDefault("gcp.project_id", "")
	v.SetDefault("gcp.dataset", "finance")
	v.SetDefault("gcs.bucket", "")
	v.SetDefault("upload.max_bytes", 10<<20)
	v.SetDefault("analysis.global_z_threshold", analysis.DefaultGlobalZThreshold)
	v.SetDefault("analysis.category_z_threshold", analysis.DefaultCategoryZThreshold)
	v.SetDefault("analysis.min_anomaly_rows", analysis.DefaultMinAnomalyRows)
	v.SetDefault("analysis.duplicate_similarity", analysis.DefaultSimilarityThreshold)
	v.SetDefault("analysis.duplicate_amount_tolerance", analysis.DefaultAmountTolerance)
	v.SetDefault("analysis.min_training_rows", analysis.DefaultMinTrainingExamples)
	v.SetDefault("analysis.max_features", analysis.DefaultMaxFeatures)
	v.SetDefault("analysis.fallback_confidence", analysis.DefaultFallbackConfidence)
	v.SetDefault("finance.default_cash_on_hand", 7500000.0)
	v.SetDefault("forecast.engine", EngineLinear)
	v.SetDefault("forecast.model", "gemini-2.5-flash")
	v.SetDefault("forecast.horizon_days", 180)
	v.SetDefault("notion.token", "")
	v.SetDefault("notion.database_id", "")
}

// Load reads configPath (optional; any format viper understands) over the
// defaults, then applies FINSIGHT_* environment variables. A .env file in
// the working directory is loaded into the environment first, if present.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("config: store.sqlite_path is required for the sqlite backend")
		}
	case BackendBigQuery:
		if c.GCP.ProjectID == "" {
			return fmt.Errorf("config: gcp.project_id is required for the bigquery backend")
		}
	default:
		return fmt.Errorf("config: unknown store.backend %q", c.Store.Backend)
	}

	switch c.Forecast.Engine {
	case EngineLinear, EngineGemini:
	default:
		return fmt.Errorf("config: unknown forecast.engine %q", c.Forecast.Engine)
	}

	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("config: upload.max_bytes must be positive")
	}
	if c.Forecast.HorizonDays <= 0 {
		return fmt.Errorf("config: forecast.horizon_days must be positive")
	}
	return nil
}

// PipelineOptions converts the analysis thresholds into pipeline options.
func (c *Config) PipelineOptions() pipeline.Options {
	a := c.Analysis
	return pipeline.Options{
		Categorizer: analysis.CategorizerOptions{
			MinTrainingExamples: a.MinTrainingRows,
			MaxFeatures:         a.MaxFeatures,
			FallbackConfidence:  a.FallbackConfidence,
		},
		Anomaly: analysis.AnomalyOptions{
			MinRows:   a.MinAnomalyRows,
			GlobalZ:   a.GlobalZThreshold,
			CategoryZ: a.CategoryZThreshold,
		},
		Duplicate: analysis.DuplicateOptions{
			Similarity:      a.DuplicateSimilarity,
			AmountTolerance: a.DuplicateAmountTolerance,
		},
	}
}
