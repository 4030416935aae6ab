package msh

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

// ConfigName is the per-user configuration file, looked up in $HOME.
const ConfigName = ".mshrc.yaml"

// Config holds the user-tunable knobs. A missing file means defaults; a
// present-but-invalid file is a startup error rather than a silent fallback.
type Config struct {
	// Prompt template; %p expands to the shell's pid, %u to the user,
	// %h to the hostname and %w to the working directory.
	Prompt string `json:"prompt"`

	// HistoryPath overrides the SQLite history database location.
	HistoryPath string `json:"history_path"`

	// MaxArgs bounds the argument vector of a single pipeline stage.
	MaxArgs int `json:"max_args" validate:"gt=0"`

	// Color toggles prompt and ls coloring on terminals.
	Color bool `json:"color"`
}

func DefaultConfig() *Config {
	return &Config{
		Prompt:  "(%p) $ ",
		MaxArgs: DefaultMaxArgs,
		Color:   true,
	}
}

// DefaultConfigPath returns $HOME/.mshrc.yaml, or just the name when the
// home directory cannot be resolved.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ConfigName
	}
	return filepath.Join(home, ConfigName)
}

// LoadConfig reads and validates the configuration at path. Fields absent
// from the file keep their defaults.
func LoadConfig(fsys afero.Fs, path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := afero.ReadFile(fsys, path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %v", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %v", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %v", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for semantic errors.
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	})
	return validate.Struct(c)
}
