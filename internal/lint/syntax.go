package lint

import (
	"fmt"
	"strings"

	"cbslint/internal/diag"
	"cbslint/internal/lexer"
	"cbslint/internal/source"
	"cbslint/internal/token"
)

// scanSyntax runs the command-agnostic structural checks with its own brace
// scan: дисбаланс скобок, пустые теги и опечатка ` : ` вместо `::`.
func scanSyntax(f *source.File, rep diag.Reporter) {
	tags, imbalances := lexer.Scan(f)

	for _, imb := range imbalances {
		switch imb.Kind {
		case lexer.ImbalanceStrayClose:
			diag.ReportError(rep, diag.LexStrayClose, imb.Span,
				"Unmatched '}}' without a corresponding '{{'.").Emit()
		case lexer.ImbalanceUnterminated:
			diag.ReportError(rep, diag.LexUnterminatedTag, imb.Span,
				"Unterminated '{{': missing '}}' before end of document.").Emit()
		}
	}

	for _, tag := range tags {
		checkTagSyntax(f, tag, rep)
	}
}

// checkTagSyntax reports an empty tag or a top-level ` : ` typo in one tag.
// Сканер зовёт его для тегов верхнего уровня; вложенные теги его проход не
// видит, их при спуске проверяет валидатор тем же хелпером.
func checkTagSyntax(f *source.File, tag token.TagSpan, rep diag.Reporter) {
	trimmed := strings.TrimSpace(tag.Inner)
	if trimmed == "" {
		diag.ReportWarning(rep, diag.LexEmptyTag, tag.Span, "Empty tag.").Emit()
		return
	}
	// `?`-выражения свободно используют одиночные двоеточия.
	if strings.HasPrefix(trimmed, "?") {
		return
	}
	if idx := lexer.FindTopLevel(tag.Inner, " : "); idx >= 0 {
		innerStart := tag.Span.Start + 2
		sepSpan := source.Span{
			File:  f.ID,
			Start: innerStart + uint32(idx),
			End:   innerStart + uint32(idx) + 3,
		}
		diag.ReportError(rep, diag.LexBadSeparator, sepSpan,
			fmt.Sprintf("Invalid separator ' : ' in '{{%s}}': parameters are separated with '::'.", trimmed)).
			WithFix("Replace ' : ' with '::'", diag.FixEdit{Span: sepSpan, NewText: "::"}).
			Emit()
	}
}
