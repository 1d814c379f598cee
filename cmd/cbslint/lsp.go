package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"cbslint/internal/lint"
	"cbslint/internal/lsp"
)

var lspCmd = &cobra.Command{
	Use:          "lsp",
	Short:        "Run the cbslint language server over stdio",
	SilenceUsage: true,
	RunE:         runLSP,
}

func init() {
	lspCmd.Flags().Int("debounce-ms", 0, "diagnostics debounce in milliseconds (0 = default)")
}

func runLSP(cmd *cobra.Command, _ []string) error {
	debounceMS, _ := cmd.Flags().GetInt("debounce-ms")
	maxDiagnostics, _ := cmd.Root().PersistentFlags().GetInt("max-diagnostics")

	reg, limits, err := resolveRegistry(cmd, ".")
	if err != nil {
		return err
	}
	opts := lsp.ServerOptions{
		Registry:       reg,
		MaxDiagnostics: maxDiagnostics,
	}
	if limits.MaxNesting > 0 {
		opts.Lint = lint.Options{MaxNesting: limits.MaxNesting}
	}
	switch {
	case debounceMS > 0:
		opts.Debounce = time.Duration(debounceMS) * time.Millisecond
	case limits.DebounceMillis > 0:
		opts.Debounce = time.Duration(limits.DebounceMillis) * time.Millisecond
	}

	server := lsp.NewServer(os.Stdin, os.Stdout, opts)
	if err := server.Run(); err != nil {
		if errors.Is(err, lsp.ErrExit) {
			return nil
		}
		if errors.Is(err, lsp.ErrExitWithoutShutdown) {
			return fmt.Errorf("lsp exit without shutdown")
		}
		return err
	}
	return nil
}
