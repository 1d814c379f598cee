package lexer

import (
	"strings"

	"cbslint/internal/source"
	"cbslint/internal/token"
)

// `{{` и `}}` везде матчатся как атомарные двухсимвольные токены, слева
// направо. Вся скобочная арифметика репо живёт в этом файле: сканер тегов,
// поиск топ-левел разделителей и проверка целостности используют один и тот
// же обход.

// ImbalanceKind classifies a brace-balance violation.
type ImbalanceKind uint8

const (
	// ImbalanceStrayClose — `}}` without a matching `{{`.
	ImbalanceStrayClose ImbalanceKind = iota
	// ImbalanceUnterminated — `{{` left open at end of document.
	ImbalanceUnterminated
)

// Imbalance is a brace-balance violation found during a scan.
type Imbalance struct {
	Kind ImbalanceKind
	Span source.Span // спан двухсимвольного токена-нарушителя
}

// Scan walks the document once with a depth counter and captures every
// balanced top-level `{{...}}` pair. Nested pairs are not emitted separately:
// they stay inside the captured Inner. Imbalances are collected alongside so
// one malformed tag never suppresses detection of the others.
func Scan(f *source.File) ([]token.TagSpan, []Imbalance) {
	var (
		tags       []token.TagSpan
		imbalances []Imbalance
		openStack  []uint32
	)

	c := NewCursor(f)
	for !c.EOF() {
		switch {
		case c.AtOpen():
			openStack = append(openStack, c.Off)
			c.Off += 2
		case c.AtClose():
			if len(openStack) == 0 {
				imbalances = append(imbalances, Imbalance{
					Kind: ImbalanceStrayClose,
					Span: source.Span{File: f.ID, Start: c.Off, End: c.Off + 2},
				})
				c.Off += 2
				continue
			}
			start := openStack[len(openStack)-1]
			openStack = openStack[:len(openStack)-1]
			c.Off += 2
			if len(openStack) == 0 {
				tags = append(tags, token.TagSpan{
					Span:  source.Span{File: f.ID, Start: start, End: c.Off},
					Inner: string(f.Content[start+2 : c.Off-2]),
					Depth: 0,
				})
			}
		default:
			c.Off++
		}
	}

	// Незакрытые `{{` — в порядке документа.
	for _, start := range openStack {
		imbalances = append(imbalances, Imbalance{
			Kind: ImbalanceUnterminated,
			Span: source.Span{File: f.ID, Start: start, End: start + 2},
		})
	}
	return tags, imbalances
}

// ScanTopLevel returns the balanced top-level tags only, дисбаланс игнорирует.
func ScanTopLevel(f *source.File) []token.TagSpan {
	tags, _ := Scan(f)
	return tags
}

// FindTopLevel returns the byte index of the first occurrence of sep in s
// that is not nested inside a `{{...}}` pair, or -1. Разделитель внутри
// вложенного тега-параметра не принадлежит внешнему тегу.
func FindTopLevel(s, sep string) int {
	depth := 0
	for i := 0; i < len(s); {
		switch {
		case strings.HasPrefix(s[i:], "{{"):
			depth++
			i += 2
		case strings.HasPrefix(s[i:], "}}"):
			if depth > 0 {
				depth--
			}
			i += 2
		case depth == 0 && strings.HasPrefix(s[i:], sep):
			return i
		default:
			i++
		}
	}
	return -1
}

// FindTopLevelSingleColon returns the index of the first top-level `:` that
// is not part of a `::`, or -1.
func FindTopLevelSingleColon(s string) int {
	depth := 0
	for i := 0; i < len(s); {
		switch {
		case strings.HasPrefix(s[i:], "{{"):
			depth++
			i += 2
		case strings.HasPrefix(s[i:], "}}"):
			if depth > 0 {
				depth--
			}
			i += 2
		case s[i] == ':':
			if strings.HasPrefix(s[i:], "::") {
				i += 2
				continue
			}
			if depth == 0 {
				return i
			}
			i++
		default:
			i++
		}
	}
	return -1
}

// Piece is one fragment produced by SplitTopLevel, with its byte offset in
// the original string.
type Piece struct {
	Text string
	Off  int
}

// SplitTopLevel splits s on top-level occurrences of sep. Joining the pieces
// back with sep reproduces s byte-for-byte.
func SplitTopLevel(s, sep string) []Piece {
	pieces := make([]Piece, 0, 4)
	base := 0
	rest := s
	for {
		idx := FindTopLevel(rest, sep)
		if idx < 0 {
			pieces = append(pieces, Piece{Text: rest, Off: base})
			return pieces
		}
		pieces = append(pieces, Piece{Text: rest[:idx], Off: base})
		base += idx + len(sep)
		rest = rest[idx+len(sep):]
	}
}

// IsCompleteTag reports whether s is exactly one balanced `{{...}}` span,
// i.e. the opening pair's matching close sits at the very end.
func IsCompleteTag(s string) bool {
	if len(s) < 4 || !strings.HasPrefix(s, "{{") {
		return false
	}
	depth := 0
	for i := 0; i < len(s); {
		switch {
		case strings.HasPrefix(s[i:], "{{"):
			depth++
			i += 2
		case strings.HasPrefix(s[i:], "}}"):
			depth--
			i += 2
			if depth == 0 {
				return i == len(s)
			}
			if depth < 0 {
				return false
			}
		default:
			i++
		}
	}
	return false
}
