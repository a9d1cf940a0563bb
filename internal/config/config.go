package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Log      LogConfig
	Matching MatchingConfig
}

// AppConfig holds HTTP server settings.
type AppConfig struct {
	Port             string
	CORSAllowOrigins []string
}

// DatabaseConfig holds postgres connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
}

// MatchingConfig holds the tunable knobs of the candidate generator,
// the auto-match pass and the rule cache.
type MatchingConfig struct {
	TopK               int
	NameScoreCutoff    float64
	AutoMatchThreshold float64
	RuleCacheTTL       time.Duration
}

// DSN builds the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// Load reads configuration from environment variables (prefix RECON_)
// with defaults suitable for local development.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RECON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.port", "8080")
	v.SetDefault("app.cors_allow_origins", "http://localhost:3000")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "reconciliation")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("matching.top_k", 8)
	v.SetDefault("matching.name_score_cutoff", 0.6)
	v.SetDefault("matching.auto_match_threshold", 0.7)
	v.SetDefault("matching.rule_cache_ttl", time.Minute)

	cfg := &Config{
		App: AppConfig{
			Port:             v.GetString("app.port"),
			CORSAllowOrigins: strings.Split(v.GetString("app.cors_allow_origins"), ","),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("database.host"),
			Port:     v.GetInt("database.port"),
			User:     v.GetString("database.user"),
			Password: v.GetString("database.password"),
			DBName:   v.GetString("database.dbname"),
			SSLMode:  v.GetString("database.sslmode"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Matching: MatchingConfig{
			TopK:               v.GetInt("matching.top_k"),
			NameScoreCutoff:    v.GetFloat64("matching.name_score_cutoff"),
			AutoMatchThreshold: v.GetFloat64("matching.auto_match_threshold"),
			RuleCacheTTL:       v.GetDuration("matching.rule_cache_ttl"),
		},
	}

	if cfg.Matching.TopK <= 0 {
		return nil, fmt.Errorf("matching.top_k must be positive, got %d", cfg.Matching.TopK)
	}
	return cfg, nil
}
