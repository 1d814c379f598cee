package lint

import (
	"fmt"
	"strings"

	"cbslint/internal/diag"
	"cbslint/internal/lexer"
	"cbslint/internal/parser"
	"cbslint/internal/source"
	"cbslint/internal/token"
)

// BlockFrame is one open `{{#name}}` on the matcher's stack. Живёт только
// внутри одного прохода.
type BlockFrame struct {
	Name string
	Span source.Span
	Line uint32
}

// matchBlocks pairs `#` openers with `/` closers across the whole document
// with an independent scan: даже тег, не прошедший командный разбор,
// участвует в структурной сверке.
func matchBlocks(f *source.File, rep diag.Reporter) {
	var stack []BlockFrame

	for _, tag := range lexer.ScanTopLevel(f) {
		trimmed := strings.TrimSpace(tag.Inner)
		if trimmed == "" {
			continue
		}
		switch trimmed[0] {
		case '#':
			parsed := parser.Decompose(tag)
			stack = append(stack, BlockFrame{
				Name: parsed.Name,
				Span: tag.Span,
				Line: f.LineColAt(tag.Span.Start).Line,
			})
		case '/':
			closeName := strings.TrimSpace(trimmed[1:])
			if len(stack) == 0 {
				diag.ReportError(rep, diag.BlkUnexpectedClose, tag.Span,
					fmt.Sprintf("Unexpected closing tag '{{/%s}}': no open block.", closeName)).Emit()
				continue
			}
			frame := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			// Анонимный `{{/}}` закрывает верхний фрейм безусловно.
			if closeName == "" || strings.EqualFold(closeName, frame.Name) {
				continue
			}
			closeLine := f.LineColAt(tag.Span.Start).Line
			diag.ReportError(rep, diag.BlkNameMismatch, tag.Span,
				fmt.Sprintf("Mismatched closing tag '{{/%s}}': block '{{#%s}}' opened on line %d.",
					closeName, frame.Name, frame.Line)).Emit()
			diag.ReportError(rep, diag.BlkNameMismatch, frame.Span,
				fmt.Sprintf("Block '{{#%s}}' is closed as '{{/%s}}' on line %d.",
					frame.Name, closeName, closeLine)).Emit()
		}
	}

	// Непустой стек в конце документа — по ошибке на каждый фрейм.
	for _, frame := range stack {
		diag.ReportError(rep, diag.BlkUnclosed, frame.Span,
			fmt.Sprintf("Unclosed block tag '{{#%s}}' opened on line %d.", frame.Name, frame.Line)).Emit()
	}
}

// BlockRegions returns the span of every well-matched block pair, от открытия
// до закрытия. Используется фолдингом в LSP.
func BlockRegions(f *source.File) []source.Span {
	var (
		stack   []token.TagSpan
		regions []source.Span
	)
	for _, tag := range lexer.ScanTopLevel(f) {
		trimmed := strings.TrimSpace(tag.Inner)
		if trimmed == "" {
			continue
		}
		switch trimmed[0] {
		case '#':
			stack = append(stack, tag)
		case '/':
			if len(stack) == 0 {
				continue
			}
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			regions = append(regions, open.Span.Cover(tag.Span))
		}
	}
	return regions
}
