package lint

import (
	"fmt"
	"strings"

	"cbslint/internal/diag"
	"cbslint/internal/lexer"
	"cbslint/internal/parser"
	"cbslint/internal/registry"
	"cbslint/internal/source"
	"cbslint/internal/token"
)

// alwaysAccepted — встроенные команды движка, валидные даже если реестр их
// не знает. Их арность всё равно проверяется, когда сигнатура есть.
var alwaysAccepted = map[string]bool{
	"setvar":       true,
	"settempvar":   true,
	"getvar":       true,
	"gettempvar":   true,
	"getglobalvar": true,
}

type validator struct {
	file       *source.File
	reg        *registry.Registry
	rep        diag.Reporter
	maxNesting int
}

// validateCommands decomposes every top-level tag, checks it against the
// registry and recurses into parameters that are themselves complete tags.
func validateCommands(f *source.File, reg *registry.Registry, rep diag.Reporter, opts Options) {
	v := &validator{
		file:       f,
		reg:        reg,
		rep:        rep,
		maxNesting: opts.maxNesting(),
	}
	for _, tag := range lexer.ScanTopLevel(f) {
		v.check(tag, 0)
	}
}

func (v *validator) check(tag token.TagSpan, depth int) {
	if depth > v.maxNesting {
		diag.ReportWarning(v.rep, diag.LexNestingTooDeep, tag.Span,
			fmt.Sprintf("Excessive tag nesting: depth %d exceeds the limit of %d; this branch is not validated further.",
				depth, v.maxNesting)).Emit()
		return
	}

	// Синтаксический сканер ходит только по верхнему уровню; пустоту и
	// опечатку ` : ` во вложенных тегах репортим при спуске сами.
	if depth > 0 {
		checkTagSyntax(v.file, tag, v.rep)
	}

	parsed := parser.Decompose(tag)
	switch parsed.Conv {
	case token.ConvBlockClose:
		// Структурная корректность — забота Block Matcher.
		return
	case token.ConvExpr:
		// Тела выражений не типизируем; вложенные теги всё же обходим.
	case token.ConvBlockOpen:
		// Для заголовков блоков проверяем только устаревание имени.
		v.checkDeprecation(parsed, tag)
	default:
		v.checkCommand(parsed, tag)
	}

	v.recurse(parsed, depth)
}

func (v *validator) checkCommand(parsed token.ParsedTag, tag token.TagSpan) {
	name := parsed.Name
	if name == "" {
		// Пустой тег — предупреждение синтаксического сканера.
		return
	}
	// Опечатку ` : ` репортит синтаксический сканер; не наслаиваем на неё
	// ещё и unknown command от развалившегося разбора.
	if looksLikeSeparatorTypo(tag) {
		return
	}

	prefixCall := parsed.Conv == token.ConvPrefix
	sigs := v.reg.LookupAll(name, prefixCall)
	if len(sigs) == 0 {
		if alwaysAccepted[strings.ToLower(name)] {
			return
		}
		diag.ReportError(v.rep, diag.CmdUnknown, tag.Span,
			fmt.Sprintf("Unknown command '%s'.", name)).Emit()
		return
	}

	res := registry.CheckArity(sigs, len(parsed.Params))
	if !res.OK {
		diag.ReportError(v.rep, diag.CmdBadArity, tag.Span,
			fmt.Sprintf("Incorrect parameter count for command '%s'. Provided %d parameter(s). Valid signature(s): %s",
				name, len(parsed.Params), registry.RenderAll(sigs))).Emit()
	}
	if res.Matched != nil && res.Matched.Deprecated != nil {
		v.reportDeprecated(name, res.Matched.Deprecated, tag.Span)
	}
}

// checkDeprecation warns about deprecated block names; unknown blocks and
// арность заголовков не проверяются.
func (v *validator) checkDeprecation(parsed token.ParsedTag, tag token.TagSpan) {
	for _, sig := range v.reg.LookupAll(parsed.Name, false) {
		if sig.Deprecated != nil {
			v.reportDeprecated(parsed.Name, sig.Deprecated, tag.Span)
			return
		}
	}
}

func (v *validator) reportDeprecated(name string, dep *registry.Deprecation, span source.Span) {
	msg := dep.Message
	if msg == "" {
		msg = fmt.Sprintf("Command '%s' is deprecated", name)
	}
	if dep.Replacement != "" {
		msg = fmt.Sprintf("%s; use '%s' instead.", msg, dep.Replacement)
	} else {
		msg += "."
	}
	diag.ReportWarning(v.rep, diag.CmdDeprecated, span, msg).Emit()
}

// recurse descends into parameters that are themselves complete `{{...}}`
// spans.
func (v *validator) recurse(parsed token.ParsedTag, depth int) {
	for _, child := range parser.NestedTags(v.file, parsed, depth) {
		v.check(child, depth+1)
	}
}

// looksLikeSeparatorTypo reports whether the tag content carries a top-level
// ` : ` outside a `?`-expression — the common typo for `::`.
func looksLikeSeparatorTypo(tag token.TagSpan) bool {
	trimmed := strings.TrimSpace(tag.Inner)
	if strings.HasPrefix(trimmed, "?") {
		return false
	}
	return lexer.FindTopLevel(tag.Inner, " : ") >= 0
}
