// Package logging builds the loggers handed to builder sessions. The SDK
// itself only depends on the logr API; this package provides the
// zap-backed construction and the YAML log configuration applications
// pass when opening a connection.
package logging

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config is the log configuration a session is opened with.
type Config struct {
	// Level is one of "debug", "info", "warn", "error". Empty means "info".
	Level string `yaml:"level"`

	// Development enables the human-oriented console encoding.
	Development bool `yaml:"development"`

	// File, when set, appends output to the given path instead of stderr.
	File string `yaml:"file"`
}

// ConfigFromYAML parses a Config from YAML.
func ConfigFromYAML(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("logging: parsing config: %w", err)
	}
	return cfg, nil
}

// Build constructs a logr.Logger for the configuration.
func (c Config) Build() (logr.Logger, error) {
	var zcfg zap.Config
	if c.Development {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}

	level := zapcore.InfoLevel
	if c.Level != "" {
		if err := level.Set(c.Level); err != nil {
			return logr.Logger{}, fmt.Errorf("logging: %w", err)
		}
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	if c.File != "" {
		zcfg.OutputPaths = []string{c.File}
	}

	zl, err := zcfg.Build()
	if err != nil {
		return logr.Logger{}, fmt.Errorf("logging: %w", err)
	}
	return zapr.NewLogger(zl), nil
}

// Discard returns a logger that drops everything. Used by debug
// connections opened without a log configuration.
func Discard() logr.Logger { return logr.Discard() }
