// Copyright 2025 Certen Protocol

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the validator node: a YAML file read
// at startup, with select fields overridable by environment variables for
// deployment environments that inject secrets and addresses that way.
type Config struct {
	// ChainID is the CometBFT chain identifier this node expects to join.
	ChainID string `yaml:"chain_id"`

	// DataDir holds the node's GoLevelDB instances: records, programs, the
	// validator set snapshot and the committed height.
	DataDir string `yaml:"data_dir"`

	// CometHome is CometBFT's own home directory (config.toml, priv
	// validator key, node key, address book).
	CometHome string `yaml:"comet_home"`

	// ListenAddr serves both /health and /metrics. MetricsAddr is read from
	// the file and environment but no listener is opened on it.
	ListenAddr  string `yaml:"listen_addr"`
	MetricsAddr string `yaml:"metrics_addr"`

	LogLevel string `yaml:"log_level"`

	// GenesisProgramPath optionally points to a JSON file describing the
	// credits program's initial deployment (source and verifying keys). It
	// is read from the file and environment only: nothing in the node loads
	// the file, and InitChain installs genesis records and validators but no
	// programs.
	GenesisProgramPath string `yaml:"genesis_program_path"`

	// AuxIndex configures the optional best-effort Postgres transaction
	// index. It is off unless Enabled is true; Validate rejects Enabled with
	// an empty DSN.
	AuxIndex AuxIndexConfig `yaml:"aux_index"`
}

// AuxIndexConfig configures pkg/auxindex's optional Postgres mirror.
type AuxIndexConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
}

// Load reads a YAML config file at path, then applies any environment
// variable overrides, mirroring the env-override idiom used throughout
// this codebase for secrets and per-environment addresses that shouldn't
// be checked into a YAML file.
func Load(path string) (*Config, error) {
	cfg := &Config{
		ChainID:     "aleo-lambda-1",
		DataDir:     "./data",
		CometHome:   "./cometbft",
		ListenAddr:  "0.0.0.0:8081",
		MetricsAddr: "0.0.0.0:9090",
		LogLevel:    "info",
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.ChainID = getEnv("VALIDATORD_CHAIN_ID", cfg.ChainID)
	cfg.DataDir = getEnv("VALIDATORD_DATA_DIR", cfg.DataDir)
	cfg.CometHome = getEnv("VALIDATORD_COMET_HOME", cfg.CometHome)
	cfg.ListenAddr = getEnv("VALIDATORD_LISTEN_ADDR", cfg.ListenAddr)
	cfg.MetricsAddr = getEnv("VALIDATORD_METRICS_ADDR", cfg.MetricsAddr)
	cfg.LogLevel = getEnv("VALIDATORD_LOG_LEVEL", cfg.LogLevel)
	cfg.GenesisProgramPath = getEnv("VALIDATORD_GENESIS_PROGRAM_PATH", cfg.GenesisProgramPath)
	cfg.AuxIndex.DSN = getEnv("VALIDATORD_AUX_INDEX_DSN", cfg.AuxIndex.DSN)
	cfg.AuxIndex.Enabled = getEnvBool("VALIDATORD_AUX_INDEX_ENABLED", cfg.AuxIndex.Enabled)

	return cfg, nil
}

// Validate checks that the configuration is usable before the node starts
// opening stores and bootstrapping CometBFT.
func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.ChainID) == "" {
		errs = append(errs, "chain_id must not be empty")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		errs = append(errs, "data_dir must not be empty")
	}
	if strings.TrimSpace(c.CometHome) == "" {
		errs = append(errs, "comet_home must not be empty")
	}
	if c.AuxIndex.Enabled && strings.TrimSpace(c.AuxIndex.DSN) == "" {
		errs = append(errs, "aux_index.dsn must be set when aux_index.enabled is true")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
