package lexer

import (
	"strings"
	"testing"

	"cbslint/internal/source"
)

// helper: создаёт виртуальный документ
func createFile(content string) *source.File {
	fs := source.NewFileSet()
	id := fs.AddVirtual("doc.md", []byte(content))
	return fs.Get(id)
}

// TestScanTopLevelCount проверяет, что число топ-левел спанов совпадает с
// числом внешних пар и дисбаланса нет
func TestScanTopLevelCount(t *testing.T) {
	tests := []struct {
		input string
		count int
	}{
		{"", 0},
		{"plain text", 0},
		{"Hello {{user}}!", 1},
		{"{{a}}{{b}}{{c}}", 3},
		{"{{outer {{inner}} tail}}", 1},
		{"{{a::{{b::{{c}}}}}}", 1},
		{"text {{one}} middle {{two}} end", 2},
	}
	for _, tt := range tests {
		tags, imb := Scan(createFile(tt.input))
		if len(tags) != tt.count {
			t.Errorf("Scan(%q): expected %d tags, got %d", tt.input, tt.count, len(tags))
		}
		if len(imb) != 0 {
			t.Errorf("Scan(%q): expected no imbalances, got %d", tt.input, len(imb))
		}
	}
}

// TestScanSpansAndInner проверяет точность смещений и содержимого
func TestScanSpansAndInner(t *testing.T) {
	tags, _ := Scan(createFile("ab {{user}} cd {{x {{y}} z}}"))
	if len(tags) != 2 {
		t.Fatalf("Expected 2 tags, got %d", len(tags))
	}

	if tags[0].Span.Start != 3 || tags[0].Span.End != 11 {
		t.Errorf("Expected first span 3-11, got %d-%d", tags[0].Span.Start, tags[0].Span.End)
	}
	if tags[0].Inner != "user" {
		t.Errorf("Expected inner \"user\", got %q", tags[0].Inner)
	}

	if tags[1].Inner != "x {{y}} z" {
		t.Errorf("Expected nested pair inside inner, got %q", tags[1].Inner)
	}
	inner := tags[1].InnerSpan()
	if inner.Start != tags[1].Span.Start+2 || inner.End != tags[1].Span.End-2 {
		t.Errorf("InnerSpan mismatch: %+v vs %+v", inner, tags[1].Span)
	}
}

// TestScanImbalances проверяет обнаружение лишних `}}` и незакрытых `{{`
func TestScanImbalances(t *testing.T) {
	tags, imb := Scan(createFile("a }} b {{x}} {{open"))
	if len(tags) != 1 {
		t.Fatalf("Expected 1 balanced tag, got %d", len(tags))
	}
	if len(imb) != 2 {
		t.Fatalf("Expected 2 imbalances, got %d", len(imb))
	}
	if imb[0].Kind != ImbalanceStrayClose || imb[0].Span.Start != 2 {
		t.Errorf("Expected stray close at 2, got %+v", imb[0])
	}
	if imb[1].Kind != ImbalanceUnterminated || imb[1].Span.Start != 13 {
		t.Errorf("Expected unterminated open at 13, got %+v", imb[1])
	}
}

// TestScanMalformedDoesNotSuppress: битый тег не гасит находки соседей
func TestScanMalformedDoesNotSuppress(t *testing.T) {
	tags, imb := Scan(createFile("{{broken {{ok}} and {{fine}}"))
	// внешний {{ так и не закрылся: {{ok}} и {{fine}} ушли внутрь него
	if len(tags) != 0 {
		t.Errorf("Expected no top-level tags under unterminated open, got %d", len(tags))
	}
	if len(imb) != 1 || imb[0].Kind != ImbalanceUnterminated {
		t.Fatalf("Expected one unterminated imbalance, got %+v", imb)
	}
}

// TestFindTopLevel проверяет, что разделители внутри вложенных тегов не видны
func TestFindTopLevel(t *testing.T) {
	tests := []struct {
		s    string
		sep  string
		want int
	}{
		{"replace::a::b", "::", 7},
		{"random", "::", -1},
		{"outer {{inner::x}} :: tail", "::", 19},
		{"{{a::b}}", "::", -1},
		{"a::{{b::c}}::d", "::", 1},
	}
	for _, tt := range tests {
		if got := FindTopLevel(tt.s, tt.sep); got != tt.want {
			t.Errorf("FindTopLevel(%q, %q): expected %d, got %d", tt.s, tt.sep, tt.want, got)
		}
	}
}

// TestFindTopLevelSingleColon проверяет поиск `:` вне `::`
func TestFindTopLevelSingleColon(t *testing.T) {
	tests := []struct {
		s    string
		want int
	}{
		{"random:A,B", 6},
		{"replace::a::b", -1},
		{"a::b:c", 4},
		{"{{x:y}} after:z", 13},
		{"no colon here", -1},
	}
	for _, tt := range tests {
		if got := FindTopLevelSingleColon(tt.s); got != tt.want {
			t.Errorf("FindTopLevelSingleColon(%q): expected %d, got %d", tt.s, tt.want, got)
		}
	}
}

// TestSplitTopLevelRoundTrip: склейка кусков разделителем даёт исходную строку
func TestSplitTopLevelRoundTrip(t *testing.T) {
	inputs := []string{
		"a:: b ::c",
		"x",
		"",
		" spaced :: {{nested::deep}} :: tail ",
		"::leading",
		"trailing::",
	}
	for _, in := range inputs {
		pieces := SplitTopLevel(in, "::")
		texts := make([]string, len(pieces))
		for i, p := range pieces {
			texts[i] = p.Text
			if in[p.Off:p.Off+len(p.Text)] != p.Text {
				t.Errorf("SplitTopLevel(%q): piece %d offset %d does not match text %q", in, i, p.Off, p.Text)
			}
		}
		if got := strings.Join(texts, "::"); got != in {
			t.Errorf("SplitTopLevel(%q): round-trip produced %q", in, got)
		}
	}
}

// TestSplitTopLevelNested: разделитель во вложенном теге не разрезает
func TestSplitTopLevelNested(t *testing.T) {
	pieces := SplitTopLevel("a::{{b::c}}::d", "::")
	if len(pieces) != 3 {
		t.Fatalf("Expected 3 pieces, got %d: %+v", len(pieces), pieces)
	}
	if pieces[1].Text != "{{b::c}}" {
		t.Errorf("Expected nested tag intact, got %q", pieces[1].Text)
	}
}

// TestIsCompleteTag проверяет распознавание целого тега
func TestIsCompleteTag(t *testing.T) {
	tests := []struct {
		s    string
		want bool
	}{
		{"{{user}}", true},
		{"{{a::{{b}}}}", true},
		{"{{user}} tail", false},
		{"head {{user}}", false},
		{"{{user", false},
		{"user}}", false},
		{"{{}}", true},
		{"{{", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsCompleteTag(tt.s); got != tt.want {
			t.Errorf("IsCompleteTag(%q): expected %v, got %v", tt.s, tt.want, got)
		}
	}
}

// TestCursorBasics проверяет последовательное чтение
func TestCursorBasics(t *testing.T) {
	c := NewCursor(createFile("{{a"))
	if !c.AtOpen() {
		t.Error("Expected AtOpen at start")
	}
	if c.AtClose() {
		t.Error("Did not expect AtClose at start")
	}
	m := c.Mark()
	c.Bump()
	c.Bump()
	if got := c.SpanFrom(m); got.Start != 0 || got.End != 2 {
		t.Errorf("Expected span 0-2, got %+v", got)
	}
	if c.Peek() != 'a' {
		t.Errorf("Expected 'a', got %c", c.Peek())
	}
	c.Bump()
	if !c.EOF() {
		t.Error("Expected EOF")
	}
	if c.Bump() != 0 {
		t.Error("Expected 0 at EOF")
	}
}
