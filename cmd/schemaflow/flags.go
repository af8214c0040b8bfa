package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath  string
	InputPath   string
	Source      string
	Entity      string
	BatchSize   int
	LogLevel    string
	LogFormat   string
	Stats       bool
	Validate    bool
	ShowVersion bool
	ShowHelp    bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	flag.StringVar(&cfg.ConfigPath, "config",
		getEnv("SCHEMAFLOW_CONFIG", ""),
		"Path to configuration file, empty for defaults (env: SCHEMAFLOW_CONFIG)")

	flag.StringVar(&cfg.InputPath, "file", "",
		"Input file to ingest (.json or .csv)")

	flag.StringVar(&cfg.Source, "source", "",
		"Source category, empty to auto-detect from field names")

	flag.StringVar(&cfg.Entity, "entity", "",
		"Entity type, empty to auto-detect from field names")

	flag.IntVar(&cfg.BatchSize, "batch-size",
		getEnvInt("SCHEMAFLOW_BATCH_SIZE", 0),
		"Records per ingestion batch, 0 to use the configured default (env: SCHEMAFLOW_BATCH_SIZE)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("SCHEMAFLOW_LOG_LEVEL", ""),
		"Log level: debug, info, warn, error (env: SCHEMAFLOW_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("SCHEMAFLOW_LOG_FORMAT", ""),
		"Log format: json, text (env: SCHEMAFLOW_LOG_FORMAT)")

	flag.BoolVar(&cfg.Stats, "stats", false, "Print storage statistics and exit")
	flag.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")
	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")

	flag.Usage = func() {
		printDetailedHelp()
	}

	flag.Parse()
	return cfg
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	if cfg.ConfigPath != "" {
		if _, err := os.Stat(cfg.ConfigPath); err != nil {
			return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
		}
	}

	if !cfg.Stats && !cfg.Validate && cfg.InputPath == "" {
		return fmt.Errorf("nothing to do: provide -file, -stats, or -validate")
	}

	if cfg.InputPath != "" {
		if _, err := os.Stat(cfg.InputPath); err != nil {
			return fmt.Errorf("input file not found: %s", cfg.InputPath)
		}
	}

	if cfg.Source == "" && cfg.Entity != "" {
		return fmt.Errorf("-entity requires -source")
	}

	if cfg.BatchSize < 0 {
		return fmt.Errorf("invalid batch size: %d", cfg.BatchSize)
	}

	validLevels := []string{"", "debug", "info", "warn", "error"}
	if !contains(validLevels, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	validFormats := []string{"", "json", "text"}
	if !contains(validFormats, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	return nil
}

func printDetailedHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - Schema Inference & Ingestion Pipeline

Usage: %s [options]

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # Ingest a JSON file, auto-detecting source and entity
  %s --file=products.json

  # Ingest a CSV file under an explicit categorization
  %s --file=employees.csv --source=hr --entity=employees

  # Print per-domain storage statistics
  %s --stats

  # Validate configuration only
  %s --config=/etc/schemaflow/config.yaml --validate

Version: %s
Build: %s
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0], Version, BuildTime)
}

// Environment variable helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Utility function to check if slice contains string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
