package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables read by ApplyEnv.
const (
	EnvDriver  = "XLSQL_DRIVER"
	EnvVerbose = "XLSQL_VERBOSE"
)

// LoadDotEnv loads .env from the working directory when present.
// Variables already set in the environment win.
func LoadDotEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// ApplyEnv copies XLSQL_* environment variables into cfg for options not
// given on the command line.
func ApplyEnv(cfg *Config, changed func(flag string) bool) error {
	if v, ok := os.LookupEnv(EnvDriver); ok && v != "" && !changed("driver") {
		cfg.Driver = v
	}
	if v, ok := os.LookupEnv(EnvVerbose); ok && v != "" && !changed("verbose") {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %q", EnvVerbose, v)
		}
		cfg.Verbose = b
	}
	return nil
}
