package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"cbslint/internal/diag"
	"cbslint/internal/diagfmt"
	"cbslint/internal/driver"
	"cbslint/internal/lint"
	"cbslint/internal/registry"
	"cbslint/internal/source"
	"cbslint/internal/ui"
	"cbslint/internal/version"
)

var lintCmd = &cobra.Command{
	Use:   "lint [flags] [path...]",
	Short: "Lint template documents",
	Long: `Lint validates curly-brace template documents: unknown commands, parameter
counts, block pairing, undefined variables and brace syntax.

Paths may be files or directories; directories are scanned recursively for
.md, .txt and .cbs documents. Without arguments the document is read from stdin.`,
	SilenceUsage: true,
	RunE:         runLint,
}

func init() {
	lintCmd.Flags().String("format", "pretty", "output format (pretty|short|json|sarif)")
	lintCmd.Flags().Int("jobs", 0, "parallel workers for directories (0 = GOMAXPROCS)")
	lintCmd.Flags().Int("max-nesting", 0, "nesting depth cap (0 = default)")
	lintCmd.Flags().Bool("ui", false, "interactive progress for directories")
	lintCmd.Flags().Bool("no-cache", false, "disable the on-disk result cache")
}

type lintTarget struct {
	fileSet *source.FileSet
	bag     *diag.Bag
}

func runLint(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	jobs, _ := cmd.Flags().GetInt("jobs")
	maxNesting, _ := cmd.Flags().GetInt("max-nesting")
	useUI, _ := cmd.Flags().GetBool("ui")
	noCache, _ := cmd.Flags().GetBool("no-cache")
	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")

	configDir := "."
	if len(args) > 0 {
		configDir = args[0]
		if info, err := os.Stat(configDir); err == nil && !info.IsDir() {
			configDir = filepath.Dir(configDir)
		}
	}
	reg, limits, err := resolveRegistry(cmd, configDir)
	if err != nil {
		return err
	}
	maxDiagnostics := effectiveMaxDiagnostics(cmd, limits)
	lintOpts := lint.Options{MaxNesting: maxNesting}
	if maxNesting == 0 && limits.MaxNesting > 0 {
		lintOpts.MaxNesting = limits.MaxNesting
	}

	var targets []lintTarget

	if len(args) == 0 {
		text, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		fileSet, bag := driver.LintText("<stdin>", text, reg, maxDiagnostics, lintOpts)
		targets = append(targets, lintTarget{fileSet, bag})
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return err
		}
		if info.IsDir() {
			dirTargets, err := lintDirectory(cmd, arg, reg, driver.DirOptions{
				MaxDiagnostics: maxDiagnostics,
				Jobs:           jobs,
				Lint:           lintOpts,
				Cache:          openCache(noCache, quiet),
			}, useUI)
			if err != nil {
				return err
			}
			targets = append(targets, dirTargets...)
			continue
		}
		fileSet, bag, err := driver.LintFile(arg, reg, maxDiagnostics, lintOpts)
		if err != nil {
			return err
		}
		targets = append(targets, lintTarget{fileSet, bag})
	}

	hasErrors := false
	for _, target := range targets {
		if err := renderTarget(cmd, format, target); err != nil {
			return err
		}
		if target.bag.HasErrors() {
			hasErrors = true
		}
	}

	if hasErrors {
		os.Exit(1)
	}
	return nil
}

func openCache(noCache, quiet bool) *driver.DiskCache {
	if noCache {
		return nil
	}
	cache, err := driver.OpenDiskCache("cbslint")
	if err != nil {
		if !quiet {
			fmt.Fprintf(os.Stderr, "cbslint: cache disabled: %v\n", err)
		}
		return nil
	}
	return cache
}

// lintDirectory обходит директорию; с --ui прогресс рисуется bubbletea-моделью.
func lintDirectory(cmd *cobra.Command, dir string, reg *registry.Registry, opts driver.DirOptions, useUI bool) ([]lintTarget, error) {
	interactive := useUI && isTerminal(os.Stdout)

	var events chan ui.Event
	if interactive {
		files, err := driver.ListPromptFiles(dir)
		if err != nil {
			return nil, err
		}
		events = make(chan ui.Event, len(files)*2)
		opts.Progress = func(res driver.LintDirResult, done, total int) {
			if res.Path == "" {
				return
			}
			events <- ui.Event{Path: res.Path, Status: statusFor(res.Bag)}
		}

		type dirOutcome struct {
			fileSet *source.FileSet
			results []driver.LintDirResult
			err     error
		}
		outcome := make(chan dirOutcome, 1)
		go func() {
			fileSet, results, err := driver.LintDir(cmd.Context(), dir, reg, opts)
			close(events)
			outcome <- dirOutcome{fileSet, results, err}
		}()

		model := ui.NewProgressModel("linting "+dir, files, events)
		if _, err := tea.NewProgram(model).Run(); err != nil {
			return nil, err
		}
		res := <-outcome
		if res.err != nil {
			return nil, res.err
		}
		return collectTargets(res.fileSet, res.results), nil
	}

	fileSet, results, err := driver.LintDir(cmd.Context(), dir, reg, opts)
	if err != nil {
		return nil, err
	}
	return collectTargets(fileSet, results), nil
}

func statusFor(bag *diag.Bag) ui.Status {
	switch {
	case bag == nil:
		return ui.StatusError
	case bag.HasErrors():
		return ui.StatusIssues
	case bag.HasWarnings():
		return ui.StatusIssues
	default:
		return ui.StatusClean
	}
}

func collectTargets(fileSet *source.FileSet, results []driver.LintDirResult) []lintTarget {
	targets := make([]lintTarget, 0, len(results))
	for _, res := range results {
		if res.Bag == nil {
			continue
		}
		targets = append(targets, lintTarget{fileSet, res.Bag})
	}
	return targets
}

func renderTarget(cmd *cobra.Command, format string, target lintTarget) error {
	if target.bag.Len() == 0 {
		return nil
	}
	switch format {
	case "pretty":
		diagfmt.Pretty(os.Stdout, target.bag, target.fileSet, diagfmt.PrettyOpts{
			Color:     useColor(cmd, os.Stdout),
			Context:   0,
			ShowNotes: true,
			ShowFixes: true,
		})
		return nil
	case "short":
		out := diag.FormatShort(target.bag.Items(), target.fileSet, false)
		if out != "" {
			fmt.Fprintln(os.Stdout, out)
		}
		return nil
	case "json":
		return diagfmt.JSON(os.Stdout, target.bag, target.fileSet, diagfmt.JSONOpts{
			IncludePositions: true,
			IncludeNotes:     true,
			IncludeFixes:     true,
		})
	case "sarif":
		return diagfmt.Sarif(os.Stdout, target.bag, target.fileSet, diagfmt.SarifRunMeta{
			ToolName:       "cbslint",
			ToolVersion:    version.Version,
			InvocationArgs: os.Args,
		})
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
