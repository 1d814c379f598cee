package parser

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"cbslint/internal/lexer"
	"cbslint/internal/source"
	"cbslint/internal/token"
)

// Decompose splits one tag's inner content into command name and raw
// parameters according to the calling convention:
//
//  1. `#name`, `#name::cond`, legacy `#name arg arg` — block opener;
//  2. `name::a::b` — double-colon parameters;
//  3. `name:payload` — prefix call, exactly one unsplit parameter;
//  4. `name` — bare command.
//
// Содержимое, начинающееся с `/` или `?`, и пустое содержимое командой-значением
// не считается. Raw-параметры сохраняют исходные пробелы: обрезка — забота
// потребителя, иначе поплывёт арифметика смещений в диагностиках.
func Decompose(tag token.TagSpan) token.ParsedTag {
	inner := tag.Inner
	innerOff := tag.Span.Start + 2

	trimmed := strings.TrimSpace(inner)
	lead, err := safecast.Conv[uint32](len(inner) - len(strings.TrimLeft(inner, " \t\r\n")))
	if err != nil {
		panic(fmt.Errorf("tag lead overflow: %w", err))
	}
	base := innerOff + lead // абсолютное смещение trimmed в документе

	if trimmed == "" {
		return token.ParsedTag{
			Conv:     token.ConvBare,
			NameSpan: source.Span{File: tag.Span.File, Start: base, End: base},
		}
	}

	switch trimmed[0] {
	case '/':
		name := strings.TrimSpace(trimmed[1:])
		return token.ParsedTag{
			Name:     name,
			NameSpan: nameSpan(tag, base+1, trimmed[1:]),
			Conv:     token.ConvBlockClose,
		}
	case '?':
		// Тег-выражение: тело не разбираем, отдаём одним параметром.
		body := rest(inner, innerOff, base+1, tag.Span.File)
		return token.ParsedTag{
			Name:     "?",
			NameSpan: source.Span{File: tag.Span.File, Start: base, End: base + 1},
			Conv:     token.ConvExpr,
			Params:   []token.Param{body},
		}
	case '#':
		return decomposeBlockOpen(tag, inner, innerOff, base, trimmed)
	}

	if idx := lexer.FindTopLevel(trimmed, "::"); idx >= 0 {
		relIdx, err := safecast.Conv[uint32](idx)
		if err != nil {
			panic(fmt.Errorf("separator offset overflow: %w", err))
		}
		region := rest(inner, innerOff, base+relIdx+2, tag.Span.File)
		return token.ParsedTag{
			Name:     strings.TrimSpace(trimmed[:idx]),
			NameSpan: nameSpan(tag, base, trimmed[:idx]),
			Conv:     token.ConvDoubleColon,
			Params:   splitParams(region, tag.Span.File),
		}
	}

	if idx := lexer.FindTopLevelSingleColon(trimmed); idx >= 0 {
		relIdx, err := safecast.Conv[uint32](idx)
		if err != nil {
			panic(fmt.Errorf("separator offset overflow: %w", err))
		}
		payload := rest(inner, innerOff, base+relIdx+1, tag.Span.File)
		return token.ParsedTag{
			Name:     strings.TrimSpace(trimmed[:idx]),
			NameSpan: nameSpan(tag, base, trimmed[:idx]),
			Conv:     token.ConvPrefix,
			Params:   []token.Param{payload},
		}
	}

	return token.ParsedTag{
		Name:     trimmed,
		NameSpan: nameSpan(tag, base, trimmed),
		Conv:     token.ConvBare,
	}
}

func decomposeBlockOpen(tag token.TagSpan, inner string, innerOff, base uint32, trimmed string) token.ParsedTag {
	body := trimmed[1:]
	bodyBase := base + 1

	// Сначала ищем топ-левел `::` — условие блока. Иначе легаси-форма с
	// пробелом: `#each arr item`.
	if idx := lexer.FindTopLevel(body, "::"); idx >= 0 {
		relIdx, err := safecast.Conv[uint32](idx)
		if err != nil {
			panic(fmt.Errorf("separator offset overflow: %w", err))
		}
		cond := rest(inner, innerOff, bodyBase+relIdx+2, tag.Span.File)
		return token.ParsedTag{
			Name:     strings.TrimSpace(body[:idx]),
			NameSpan: nameSpan(tag, bodyBase, body[:idx]),
			Conv:     token.ConvBlockOpen,
			Params:   []token.Param{cond},
		}
	}

	if idx := strings.IndexAny(body, " \t"); idx >= 0 {
		relIdx, err := safecast.Conv[uint32](idx)
		if err != nil {
			panic(fmt.Errorf("separator offset overflow: %w", err))
		}
		condRegion := rest(inner, innerOff, bodyBase+relIdx+1, tag.Span.File)
		return token.ParsedTag{
			Name:     body[:idx],
			NameSpan: nameSpan(tag, bodyBase, body[:idx]),
			Conv:     token.ConvBlockOpen,
			Params:   []token.Param{condRegion},
		}
	}

	return token.ParsedTag{
		Name:     body,
		NameSpan: nameSpan(tag, bodyBase, body),
		Conv:     token.ConvBlockOpen,
	}
}

// NestedTags returns the parameters of parsed that are themselves complete
// `{{...}}` spans, пересчитывая их абсолютные смещения по содержимому файла.
// Параметр с рассинхроном смещений пропускается, обход не валится целиком.
func NestedTags(f *source.File, parsed token.ParsedTag, parentDepth int) []token.TagSpan {
	var out []token.TagSpan
	for _, p := range parsed.Params {
		trimmed := strings.TrimSpace(p.Raw)
		if !lexer.IsCompleteTag(trimmed) {
			continue
		}
		lead := uint32(len(p.Raw) - len(strings.TrimLeft(p.Raw, " \t\r\n")))
		start := p.Span.Start + lead
		end := start + uint32(len(trimmed))
		if int(end) > len(f.Content) || string(f.Content[start:end]) != trimmed {
			continue
		}
		out = append(out, token.TagSpan{
			Span:  source.Span{File: f.ID, Start: start, End: end},
			Inner: trimmed[2 : len(trimmed)-2],
			Depth: parentDepth + 1,
		})
	}
	return out
}

// rest returns the raw tail of inner starting at the absolute offset `from`,
// включая хвостовые пробелы исходного содержимого.
func rest(inner string, innerOff, from uint32, file source.FileID) token.Param {
	rel := from - innerOff
	raw := inner[rel:]
	return token.Param{
		Raw:  raw,
		Span: source.Span{File: file, Start: from, End: from + uint32(len(raw))},
	}
}

func splitParams(region token.Param, file source.FileID) []token.Param {
	pieces := lexer.SplitTopLevel(region.Raw, "::")
	params := make([]token.Param, 0, len(pieces))
	for _, p := range pieces {
		off, err := safecast.Conv[uint32](p.Off)
		if err != nil {
			panic(fmt.Errorf("param offset overflow: %w", err))
		}
		start := region.Span.Start + off
		params = append(params, token.Param{
			Raw:  p.Text,
			Span: source.Span{File: file, Start: start, End: start + uint32(len(p.Text))},
		})
	}
	return params
}

// nameSpan builds the document span of a possibly space-padded name fragment,
// обрезая пробелы с обеих сторон.
func nameSpan(tag token.TagSpan, start uint32, fragment string) source.Span {
	leadTrim := len(fragment) - len(strings.TrimLeft(fragment, " \t\r\n"))
	trimmed := strings.TrimSpace(fragment)
	s := start + uint32(leadTrim)
	return source.Span{
		File:  tag.Span.File,
		Start: s,
		End:   s + uint32(len(trimmed)),
	}
}
