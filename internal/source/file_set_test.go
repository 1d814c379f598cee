package source

import (
	"testing"
)

// TestResolveMultiline проверяет разрешение позиций на нескольких строках
func TestResolveMultiline(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("doc.md", []byte("hello\n{{user}}\nbye"))

	tests := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{Line: 1, Col: 1}},
		{4, LineCol{Line: 1, Col: 5}},
		{6, LineCol{Line: 2, Col: 1}},
		{13, LineCol{Line: 2, Col: 8}},
		{15, LineCol{Line: 3, Col: 1}},
	}
	for _, tt := range tests {
		got, _ := fs.Resolve(Span{File: id, Start: tt.off, End: tt.off})
		if got != tt.want {
			t.Errorf("Resolve(%d): expected %+v, got %+v", tt.off, tt.want, got)
		}
	}
}

// TestResolveUTF8 проверяет разрешение позиций в UTF-8 тексте
func TestResolveUTF8(t *testing.T) {
	fs := NewFileSet()

	content := []byte("α\n") // α = 2 байта
	id := fs.AddVirtual("doc.md", content)

	span := Span{File: id, Start: 0, End: 1}
	start, end := fs.Resolve(span)

	if (start != LineCol{Line: 1, Col: 1}) {
		t.Errorf("Expected start 1:1, got %+v", start)
	}
	if (end != LineCol{Line: 1, Col: 2}) {
		t.Errorf("Expected end 1:2, got %+v", end)
	}
}

// TestFileVersioning проверяет, что повторный Add того же пути даёт новый ID
func TestFileVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("doc.md", []byte("version 1"), 0)
	id2 := fs.Add("doc.md", []byte("version 2"), 0)

	if id2 == id1 {
		t.Error("Expected different FileID for second Add")
	}
	latest, ok := fs.GetLatest("doc.md")
	if !ok {
		t.Fatal("Expected file to exist")
	}
	if latest != id2 {
		t.Errorf("Expected latest ID %d, got %d", id2, latest)
	}
	if string(fs.Get(latest).Content) != "version 2" {
		t.Errorf("Expected latest content, got %q", fs.Get(latest).Content)
	}
}

// TestText проверяет выборку текста по спану с клампингом границ
func TestText(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("doc.md", []byte("{{user}}"))

	if got := fs.Text(Span{File: id, Start: 2, End: 6}); got != "user" {
		t.Errorf("Expected \"user\", got %q", got)
	}
	if got := fs.Text(Span{File: id, Start: 6, End: 100}); got != "}}" {
		t.Errorf("Expected clamped \"}}\", got %q", got)
	}
	if got := fs.Text(Span{File: id, Start: 50, End: 40}); got != "" {
		t.Errorf("Expected empty text for inverted span, got %q", got)
	}
}

// TestNormalizeCRLF проверяет нормализацию \r\n
func TestNormalizeCRLF(t *testing.T) {
	got, changed := normalizeCRLF([]byte("a\r\nb\rc\r\n"))
	if !changed {
		t.Error("Expected changed=true")
	}
	if string(got) != "a\nb\rc\n" {
		t.Errorf("Unexpected normalization result %q", got)
	}

	got, changed = normalizeCRLF([]byte("plain"))
	if changed {
		t.Error("Expected changed=false without \\r")
	}
	if string(got) != "plain" {
		t.Errorf("Expected unchanged content, got %q", got)
	}
}

// TestBOMRemoval проверяет удаление BOM
func TestBOMRemoval(t *testing.T) {
	content := []byte{0xEF, 0xBB, 0xBF, 'x', '\n'}
	without, had := removeBOM(content)
	if !had {
		t.Error("Expected BOM to be detected")
	}
	if string(without) != "x\n" {
		t.Errorf("Expected content without BOM, got %q", without)
	}
}

// TestGetLine проверяет выборку строк по номеру
func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("doc.md", []byte("one\ntwo\nthree"))
	f := fs.Get(id)

	tests := []struct {
		line uint32
		want string
	}{
		{1, "one"},
		{2, "two"},
		{3, "three"},
		{4, ""},
		{0, ""},
	}
	for _, tt := range tests {
		if got := f.GetLine(tt.line); got != tt.want {
			t.Errorf("GetLine(%d): expected %q, got %q", tt.line, tt.want, got)
		}
	}
}
