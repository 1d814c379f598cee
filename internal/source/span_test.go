package source

import "testing"

// TestSpanBasics проверяет Len/Empty/String
func TestSpanBasics(t *testing.T) {
	s := Span{File: 1, Start: 4, End: 9}
	if s.Len() != 5 {
		t.Errorf("Expected Len 5, got %d", s.Len())
	}
	if s.Empty() {
		t.Error("Expected non-empty span")
	}
	if s.String() != "1:4-9" {
		t.Errorf("Unexpected String %q", s.String())
	}

	empty := Span{File: 1, Start: 4, End: 4}
	if !empty.Empty() {
		t.Error("Expected empty span")
	}
}

// TestSpanCover проверяет объединение спанов
func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 4, End: 9}
	b := Span{File: 1, Start: 2, End: 6}
	got := a.Cover(b)
	if got.Start != 2 || got.End != 9 {
		t.Errorf("Expected 2-9, got %d-%d", got.Start, got.End)
	}

	// другой файл — без изменений
	other := Span{File: 2, Start: 0, End: 100}
	if a.Cover(other) != a {
		t.Error("Expected cover across files to be a no-op")
	}
}

// TestSpanSub проверяет перевод относительных смещений в абсолютные
func TestSpanSub(t *testing.T) {
	tag := Span{File: 1, Start: 10, End: 30}
	param := tag.Sub(5, 12)
	if param.Start != 15 || param.End != 22 {
		t.Errorf("Expected 15-22, got %d-%d", param.Start, param.End)
	}
	if param.File != tag.File {
		t.Error("Expected file to be preserved")
	}
}

// TestSpanShrink проверяет отбрасывание скобок тега
func TestSpanShrink(t *testing.T) {
	tag := Span{File: 1, Start: 10, End: 20}
	inner := tag.Shrink(2)
	if inner.Start != 12 || inner.End != 18 {
		t.Errorf("Expected 12-18, got %d-%d", inner.Start, inner.End)
	}

	// слишком короткий спан схлопывается, а не уходит в минус
	tiny := Span{File: 1, Start: 10, End: 13}
	if got := tiny.Shrink(2); !got.Empty() || got.Start != 10 {
		t.Errorf("Expected collapsed span at 10, got %+v", got)
	}
}

// TestSpanContains проверяет попадание смещения в спан
func TestSpanContains(t *testing.T) {
	s := Span{File: 1, Start: 4, End: 9}
	if !s.Contains(4) || !s.Contains(8) {
		t.Error("Expected boundaries 4 and 8 inside")
	}
	if s.Contains(9) || s.Contains(3) {
		t.Error("Expected 3 and 9 outside")
	}
}
