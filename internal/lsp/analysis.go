package lsp

import (
	"cbslint/internal/lexer"
	"cbslint/internal/parser"
	"cbslint/internal/source"
	"cbslint/internal/token"
)

// tagAt возвращает самый глубокий тег, покрывающий оффсет, либо false.
// Сканер отдаёт только теги верхнего уровня, вложенные `{{...}}` остаются
// внутри Inner, поэтому спускаемся по параметрам вручную.
func tagAt(file *source.File, off uint32) (token.TagSpan, bool) {
	for _, tag := range lexer.ScanTopLevel(file) {
		if tag.Span.Start <= off && off < tag.Span.End {
			return descendAt(file, tag, off), true
		}
	}
	return token.TagSpan{}, false
}

// descendAt спускается в параметр-тег, покрывающий оффсет, пока такой есть.
func descendAt(file *source.File, tag token.TagSpan, off uint32) token.TagSpan {
	parsed := parser.Decompose(tag)
	for _, child := range parser.NestedTags(file, parsed, tag.Depth) {
		if child.Span.Start <= off && off < child.Span.End {
			return descendAt(file, child, off)
		}
	}
	return tag
}
