// Package config provides configuration management for FarmaVet.
// Configurations are loaded from TOML files with XDG-compliant paths.
package config

import (
	"errors"
	"fmt"
)

// Config holds the complete application configuration.
type Config struct {
	Pharmacy PharmacyConfig `toml:"pharmacy"`
	Alerts   AlertsConfig   `toml:"alerts"`
	Display  DisplayConfig  `toml:"display"`
	Logging  LoggingConfig  `toml:"logging"`
	Database DatabaseConfig `toml:"database"`
}

// PharmacyConfig identifies the pharmacy.
type PharmacyConfig struct {
	Name string `toml:"name"`
}

// AlertsConfig controls alert generation. ExpiryDays and LowStockRatio
// are the user-adjustable thresholds; edits made in the app are written
// back to this file.
type AlertsConfig struct {
	ExpiryDays     int     `toml:"expiry_days"`
	LowStockRatio  float64 `toml:"low_stock_ratio"`
	RecheckMinutes int     `toml:"recheck_minutes"`
	DismissalScope string  `toml:"dismissal_scope"`
}

// DisplayConfig controls TUI appearance.
type DisplayConfig struct {
	ColorScheme ColorScheme `toml:"color_scheme"`
	DateFormat  string      `toml:"date_format"`
	TimeFormat  string      `toml:"time_format"`
}

// ColorScheme defines the terminal color palette.
type ColorScheme string

const (
	ColorSchemeGreenPhosphor ColorScheme = "green_phosphor"
	ColorSchemeAmber         ColorScheme = "amber"
	ColorSchemeWhite         ColorScheme = "white"
)

// LoggingConfig controls application logging.
type LoggingConfig struct {
	Level      LogLevel `toml:"level"`
	File       string   `toml:"file"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// LogLevel defines logging verbosity.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// DatabaseConfig controls SQLite database settings.
type DatabaseConfig struct {
	Path                string `toml:"path"`
	BackupIntervalHours int    `toml:"backup_interval_hours"`
	BackupRetentionDays int    `toml:"backup_retention_days"`
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Alerts.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("alerts: %w", err))
	}

	if err := c.Display.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("display: %w", err))
	}

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the alerts configuration is valid.
func (a *AlertsConfig) Validate() error {
	var errs []error

	if a.ExpiryDays <= 0 {
		errs = append(errs, errors.New("expiry_days must be positive"))
	}

	if a.LowStockRatio <= 0 || a.LowStockRatio > 1 {
		errs = append(errs, errors.New("low_stock_ratio must be in (0, 1]"))
	}

	if a.RecheckMinutes < 1 {
		errs = append(errs, errors.New("recheck_minutes must be at least 1"))
	}

	if a.DismissalScope != "category" && a.DismissalScope != "instance" {
		errs = append(errs, fmt.Errorf("invalid dismissal_scope: %s", a.DismissalScope))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the display configuration is valid.
func (d *DisplayConfig) Validate() error {
	var errs []error

	validSchemes := map[ColorScheme]bool{
		ColorSchemeGreenPhosphor: true,
		ColorSchemeAmber:         true,
		ColorSchemeWhite:         true,
	}

	if !validSchemes[d.ColorScheme] && d.ColorScheme != "" {
		errs = append(errs, fmt.Errorf("invalid color_scheme: %s", d.ColorScheme))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the logging configuration is valid.
func (l *LoggingConfig) Validate() error {
	var errs []error

	validLevels := map[LogLevel]bool{
		LogLevelDebug: true,
		LogLevelInfo:  true,
		LogLevelWarn:  true,
		LogLevelError: true,
	}

	if !validLevels[l.Level] && l.Level != "" {
		errs = append(errs, fmt.Errorf("invalid log level: %s", l.Level))
	}

	if l.MaxSizeMB < 0 {
		errs = append(errs, errors.New("max_size_mb must be non-negative"))
	}

	if l.MaxBackups < 0 {
		errs = append(errs, errors.New("max_backups must be non-negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the database configuration is valid.
func (d *DatabaseConfig) Validate() error {
	var errs []error

	if d.Path == "" {
		errs = append(errs, errors.New("path is required"))
	}

	if d.BackupIntervalHours < 0 {
		errs = append(errs, errors.New("backup_interval_hours must be non-negative"))
	}

	if d.BackupRetentionDays < 0 {
		errs = append(errs, errors.New("backup_retention_days must be non-negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Default returns a configuration with sensible default values.
func Default() *Config {
	return &Config{
		Pharmacy: PharmacyConfig{
			Name: "Farmacia Veterinaria",
		},
		Alerts: AlertsConfig{
			ExpiryDays:     15,
			LowStockRatio:  0.5,
			RecheckMinutes: 5,
			DismissalScope: "category",
		},
		Display: DisplayConfig{
			ColorScheme: ColorSchemeGreenPhosphor,
			DateFormat:  "2006-01-02",
			TimeFormat:  "15:04:05",
		},
		Logging: LoggingConfig{
			Level:      LogLevelInfo,
			File:       "logs/farmavet.log",
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
		Database: DatabaseConfig{
			Path:                "farmavet.db",
			BackupIntervalHours: 24,
			BackupRetentionDays: 30,
		},
	}
}
