// Package lint implements the CBS diagnostic engine: a recursive command
// validator, a block-structure matcher, a variable flow analyzer and a
// general syntax scanner over one document snapshot.
//
// Проход — чистая функция (текст, реестр) → диагностики. Никакого состояния
// между проходами; каждый чекер сканирует документ независимо, и находки
// просто конкатенируются.
package lint

import (
	"cbslint/internal/diag"
	"cbslint/internal/registry"
	"cbslint/internal/source"
)

// DefaultMaxNesting is the recursion depth cap of the validator. Tags deeper
// than this produce a single warning per branch and are not descended into.
const DefaultMaxNesting = 10

// Options configures a lint pass. Нулевые значения — дефолты.
type Options struct {
	MaxNesting int
}

func (o Options) maxNesting() int {
	if o.MaxNesting <= 0 {
		return DefaultMaxNesting
	}
	return o.MaxNesting
}

// Run executes every checker over the document and reports findings.
// Чекеры независимы: падение одного тега в одном чекере не гасит находки
// других.
func Run(f *source.File, reg *registry.Registry, rep diag.Reporter, opts Options) {
	validateCommands(f, reg, rep, opts)
	matchBlocks(f, rep)
	analyzeVariables(f, rep)
	scanSyntax(f, rep)
}

// RunBag is a convenience wrapper collecting diagnostics into a sorted Bag.
func RunBag(f *source.File, reg *registry.Registry, maxDiagnostics int, opts Options) *diag.Bag {
	bag := diag.NewBag(maxDiagnostics)
	Run(f, reg, diag.BagReporter{Bag: bag}, opts)
	bag.Sort()
	return bag
}
