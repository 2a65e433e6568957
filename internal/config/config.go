// Package config provides configuration management for the quant-edge application.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Ranking    RankingConfig    `mapstructure:"ranking"`
	Odds       OddsConfig       `mapstructure:"odds"`
	Source     SourceConfig     `mapstructure:"source" validate:"required"`
	Report     ReportConfig     `mapstructure:"report"`
	Database   DatabaseConfig   `mapstructure:"database"`
	API        APIConfig        `mapstructure:"api"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Schedule   ScheduleConfig   `mapstructure:"schedule"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
	Timezone    string `mapstructure:"timezone" validate:"required,timezone"`
}

// SimulationConfig controls the Monte Carlo stage
type SimulationConfig struct {
	Iterations int   `mapstructure:"iterations" validate:"gte=0"`
	Workers    int   `mapstructure:"workers" validate:"gte=0"`
	Seed       int64 `mapstructure:"seed"`
}

// RankingConfig controls play selection
type RankingConfig struct {
	MinEdge  float64 `mapstructure:"min_edge" validate:"gte=0,lt=1"`
	MaxPlays int     `mapstructure:"max_plays" validate:"gte=0,lte=50"`
}

// OddsConfig controls odds normalization
type OddsConfig struct {
	VigRemoval string `mapstructure:"vig_removal" validate:"vigmethod"`
}

// SourceConfig describes where the daily snapshot comes from
type SourceConfig struct {
	Kind           string  `mapstructure:"kind" validate:"required,sourcekind"`
	Path           string  `mapstructure:"path"`
	URL            string  `mapstructure:"url" validate:"omitempty,url"`
	APIKey         string  `mapstructure:"api_key"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds" validate:"gte=0"`
	RetryAttempts  int     `mapstructure:"retry_attempts" validate:"gte=0,lte=10"`
	RateLimit      float64 `mapstructure:"rate_limit" validate:"gte=0"`
}

// ReportConfig controls report delivery
type ReportConfig struct {
	OutputPath      string `mapstructure:"output_path"`
	CacheTTLMinutes int    `mapstructure:"cache_ttl_minutes" validate:"gte=0"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name           string `mapstructure:"name"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"gte=0"`
	MinConnections int    `mapstructure:"min_connections" validate:"gte=0"`
}

// APIConfig represents the HTTP API configuration
type APIConfig struct {
	Port           int      `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// ScheduleConfig represents the run schedule
type ScheduleConfig struct {
	DailyCron           string `mapstructure:"daily_cron"`
	PretipCheckCron     string `mapstructure:"pretip_check_cron"`
	PretipWindowMinutes int    `mapstructure:"pretip_window_minutes" validate:"gte=0"`
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Location loads the run timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.App.Timezone, err)
	}
	return loc, nil
}

// Timeout returns the snapshot fetch timeout; zero means the transport default.
func (s SourceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// ReportCacheTTL returns how long the latest report is served from memory.
func (c *Config) ReportCacheTTL() time.Duration {
	return time.Duration(c.Report.CacheTTLMinutes) * time.Minute
}

// PretipWindow returns how close to the first tip-off a pre-tip run fires.
func (c *Config) PretipWindow() time.Duration {
	return time.Duration(c.Schedule.PretipWindowMinutes) * time.Minute
}
