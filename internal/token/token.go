package token

import (
	"cbslint/internal/source"
)

// TagSpan is one balanced top-level `{{...}}` pair captured by the scanner.
// Nested pairs stay inside Inner; recursion into them is the validator's job.
type TagSpan struct {
	Span  source.Span // весь тег, включая скобки
	Inner string      // сырое содержимое между скобками
	Depth int         // глубина вложенности на момент захвата (0 — верх документа)
}

// InnerSpan returns the span of Inner, i.e. the tag span without braces.
func (t TagSpan) InnerSpan() source.Span {
	return t.Span.Shrink(2)
}

// CallConv is the calling convention a tag was written in.
type CallConv uint8

const (
	// ConvBare — `{{name}}`, no parameters.
	ConvBare CallConv = iota
	// ConvDoubleColon — `{{name::a::b}}`.
	ConvDoubleColon
	// ConvPrefix — `{{name:payload}}`, exactly one unsplit parameter.
	ConvPrefix
	// ConvBlockOpen — `{{#name ...}}` / `{{#name::cond}}`.
	ConvBlockOpen
	// ConvBlockClose — `{{/name}}` or anonymous `{{/}}`.
	ConvBlockClose
	// ConvExpr — `{{?...}}` expression tag; not a value command.
	ConvExpr
)

func (c CallConv) String() string {
	switch c {
	case ConvBare:
		return "bare"
	case ConvDoubleColon:
		return "double-colon"
	case ConvPrefix:
		return "prefix"
	case ConvBlockOpen:
		return "block-open"
	case ConvBlockClose:
		return "block-close"
	case ConvExpr:
		return "expr"
	}
	return "unknown"
}

// Param is one raw parameter of a decomposed tag. Raw keeps the original
// surrounding whitespace; обрезка откладывается до потребителя, чтобы
// смещения для диагностик оставались точными.
type Param struct {
	Raw  string
	Span source.Span // абсолютный спан Raw в документе
}

// ParsedTag is the decomposition of one TagSpan's inner content.
type ParsedTag struct {
	Name     string      // имя команды как написано (без #, / и хвостов)
	NameSpan source.Span // спан имени в документе
	Conv     CallConv
	Params   []Param
}
