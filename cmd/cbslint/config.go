package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cbslint/internal/registry"
)

// resolveRegistry собирает реестр команд: встроенные плюс расширения из
// cbslint.toml. Явный --config имеет приоритет над поиском вверх от цели.
func resolveRegistry(cmd *cobra.Command, targetDir string) (*registry.Registry, registry.Limits, error) {
	reg := registry.Default()
	var limits registry.Limits

	path, _ := cmd.Root().PersistentFlags().GetString("config")
	if path == "" {
		found, ok, err := registry.FindConfig(targetDir)
		if err != nil {
			return nil, limits, err
		}
		if !ok {
			return reg, limits, nil
		}
		path = found
	}

	cfg, err := registry.LoadConfig(path)
	if err != nil {
		return nil, limits, fmt.Errorf("failed to load config: %w", err)
	}
	reg.Extend(cfg.Commands)
	return reg, cfg.Limits, nil
}

// effectiveMaxDiagnostics: флаг, если задан явно, иначе лимит конфига,
// иначе дефолт флага.
func effectiveMaxDiagnostics(cmd *cobra.Command, limits registry.Limits) int {
	flags := cmd.Root().PersistentFlags()
	value, _ := flags.GetInt("max-diagnostics")
	if !flags.Changed("max-diagnostics") && limits.MaxDiagnostics > 0 {
		return limits.MaxDiagnostics
	}
	return value
}
