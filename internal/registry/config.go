package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// ConfigFileName is the per-project configuration file.
const ConfigFileName = "cbslint.toml"

// Limits configures lint pass budgets. Нулевое значение — использовать дефолт.
type Limits struct {
	MaxDiagnostics int `toml:"max-diagnostics"`
	MaxNesting     int `toml:"max-nesting"`
	DebounceMillis int `toml:"debounce-ms"`
}

// Config is the parsed cbslint.toml.
type Config struct {
	Limits   Limits       `toml:"limits"`
	Commands []*Signature `toml:"-"`
}

type fileConfig struct {
	Limits   Limits          `toml:"limits"`
	Commands []commandConfig `toml:"command"`
}

type commandConfig struct {
	Name        string   `toml:"name"`
	Aliases     []string `toml:"aliases"`
	Params      []string `toml:"params"`
	Variadic    bool     `toml:"variadic"`
	Prefix      bool     `toml:"prefix"`
	Block       bool     `toml:"block"`
	Deprecated  string   `toml:"deprecated"`
	Replacement string   `toml:"replacement"`
	Doc         string   `toml:"doc"`
}

// LoadConfig parses a cbslint.toml. Параметр с суффиксом `?` — опциональный.
func LoadConfig(path string) (*Config, error) {
	var raw fileConfig
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}

	cfg := &Config{Limits: raw.Limits}
	for i, cmd := range raw.Commands {
		if strings.TrimSpace(cmd.Name) == "" {
			return nil, fmt.Errorf("%s: [[command]] #%d: missing name", path, i+1)
		}
		sig := &Signature{
			Name:     strings.TrimSpace(cmd.Name),
			Aliases:  cmd.Aliases,
			Variadic: cmd.Variadic,
			Prefix:   cmd.Prefix,
			Block:    cmd.Block,
			Doc:      cmd.Doc,
		}
		for _, p := range cmd.Params {
			spec := ParamSpec{Name: strings.TrimSuffix(p, "?")}
			spec.Optional = strings.HasSuffix(p, "?")
			sig.Params = append(sig.Params, spec)
		}
		if cmd.Deprecated != "" || cmd.Replacement != "" {
			msg := cmd.Deprecated
			if msg == "" {
				msg = fmt.Sprintf("%s is deprecated", sig.Name)
			}
			sig.Deprecated = &Deprecation{Message: msg, Replacement: cmd.Replacement}
		}
		cfg.Commands = append(cfg.Commands, sig)
	}
	return cfg, nil
}

// FindConfig walks up from dir looking for cbslint.toml.
// Возвращает ("", false, nil) если файла нет до корня.
func FindConfig(dir string) (string, bool, error) {
	current, err := filepath.Abs(dir)
	if err != nil {
		return "", false, err
	}
	for {
		candidate := filepath.Join(current, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, err
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", false, nil
		}
		current = parent
	}
}
