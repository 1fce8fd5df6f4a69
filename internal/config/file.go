package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// ConfigFileName is the config file looked up in the working directory.
const ConfigFileName = "xlsql.yaml"

// FileConfig is the YAML config file. Unset fields leave the configuration
// unchanged.
type FileConfig struct {
	Sheets    []string `yaml:"sheets"`
	Columns   []string `yaml:"columns"`
	Index     []string `yaml:"index"`
	Overwrite *bool    `yaml:"overwrite"`
	Lowercase *bool    `yaml:"lowercase"`
	TextOnly  *bool    `yaml:"text_only"`
	Driver    string   `yaml:"driver"`
	Verbose   *bool    `yaml:"verbose"`
	Debug     *bool    `yaml:"debug"`
}

// LoadFile reads a YAML config file.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &fc, nil
}

// Apply copies the file's settings into cfg, skipping every option for which
// changed reports that a flag was given on the command line.
func (fc *FileConfig) Apply(cfg *Config, changed func(flag string) bool) {
	if len(fc.Sheets) > 0 && !changed("sheet") {
		cfg.Sheets = fc.Sheets
	}
	if len(fc.Columns) > 0 && !changed("column") {
		cfg.Columns = fc.Columns
	}
	if len(fc.Index) > 0 && !changed("index") {
		cfg.IndexColumns = fc.Index
	}
	if fc.Driver != "" && !changed("driver") {
		cfg.Driver = fc.Driver
	}
	applyBool(&cfg.Overwrite, fc.Overwrite, !changed("overwrite"))
	applyBool(&cfg.Lowercase, fc.Lowercase, !changed("lowercase"))
	applyBool(&cfg.TextOnly, fc.TextOnly, !changed("text-only"))
	applyBool(&cfg.Verbose, fc.Verbose, !changed("verbose"))
	applyBool(&cfg.Debug, fc.Debug, !changed("debug"))
}

func applyBool(dst *bool, v *bool, ok bool) {
	if v != nil && ok {
		*dst = *v
	}
}
