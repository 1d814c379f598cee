package diag

import (
	"math"
	"testing"

	"cbslint/internal/source"
)

func span(start, end uint32) source.Span {
	return source.Span{File: 0, Start: start, End: end}
}

// TestBagLimit проверяет, что лимит не превышается
func TestBagLimit(t *testing.T) {
	bag := NewBag(2)
	if !bag.Add(NewError(CmdUnknown, span(0, 2), "one")) {
		t.Error("Expected first Add to succeed")
	}
	if !bag.Add(NewError(CmdUnknown, span(2, 4), "two")) {
		t.Error("Expected second Add to succeed")
	}
	if bag.Add(NewError(CmdUnknown, span(4, 6), "three")) {
		t.Error("Expected third Add to be rejected")
	}
	if bag.Len() != 2 {
		t.Errorf("Expected Len 2, got %d", bag.Len())
	}
}

// TestBagSort проверяет детерминированный порядок
func TestBagSort(t *testing.T) {
	bag := NewBag(10)
	bag.Add(NewWarning(VarUndefined, span(10, 12), "later"))
	bag.Add(NewError(BlkUnclosed, span(0, 2), "earlier"))
	bag.Add(NewWarning(CmdDeprecated, span(0, 2), "same place, lower severity"))

	bag.Sort()
	items := bag.Items()
	if items[0].Code != BlkUnclosed {
		t.Errorf("Expected BlkUnclosed first, got %v", items[0].Code)
	}
	if items[1].Code != CmdDeprecated {
		t.Errorf("Expected CmdDeprecated second, got %v", items[1].Code)
	}
	if items[2].Code != VarUndefined {
		t.Errorf("Expected VarUndefined last, got %v", items[2].Code)
	}
}

// TestBagDedup проверяет дедупликацию по Code+Primary
func TestBagDedup(t *testing.T) {
	bag := NewBag(10)
	bag.Add(NewError(LexStrayClose, span(5, 7), "dup"))
	bag.Add(NewError(LexStrayClose, span(5, 7), "dup"))
	bag.Add(NewError(LexStrayClose, span(8, 10), "other place"))

	bag.Dedup()
	if bag.Len() != 2 {
		t.Errorf("Expected 2 after dedup, got %d", bag.Len())
	}
}

// TestBagFlags проверяет HasErrors/HasWarnings
func TestBagFlags(t *testing.T) {
	bag := NewBag(10)
	if bag.HasErrors() || bag.HasWarnings() {
		t.Error("Expected empty bag to have no findings")
	}
	bag.Add(NewWarning(VarUndefined, span(0, 1), "w"))
	if bag.HasErrors() {
		t.Error("Expected no errors with only a warning")
	}
	if !bag.HasWarnings() {
		t.Error("Expected HasWarnings")
	}
	bag.Add(NewError(CmdUnknown, span(0, 1), "e"))
	if !bag.HasErrors() {
		t.Error("Expected HasErrors")
	}
}

// TestCodeIDs проверяет префиксы пространств кодов
func TestCodeIDs(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{LexStrayClose, "LEX1001"},
		{CmdBadArity, "CMD2002"},
		{BlkNameMismatch, "BLK3003"},
		{VarUndefined, "VAR4001"},
		{UnknownCode, "E0000"},
	}
	for _, tt := range tests {
		if got := tt.code.ID(); got != tt.want {
			t.Errorf("ID(%d): expected %s, got %s", tt.code, tt.want, got)
		}
	}
}

// TestDedupReporter проверяет подавление повторов между чекерами
func TestDedupReporter(t *testing.T) {
	bag := NewBag(10)
	rep := NewDedupReporter(BagReporter{Bag: bag})

	rep.Report(LexEmptyTag, SevWarning, span(3, 7), "empty tag", nil, nil)
	rep.Report(LexEmptyTag, SevWarning, span(3, 7), "empty tag", nil, nil)
	rep.Report(LexEmptyTag, SevWarning, span(3, 7), "different message", nil, nil)

	if bag.Len() != 2 {
		t.Errorf("Expected 2 unique diagnostics, got %d", bag.Len())
	}
}

// TestBagMerge: слияние расширяет лимит под все элементы
func TestBagMerge(t *testing.T) {
	a := NewBag(1)
	a.Add(NewError(CmdUnknown, span(0, 2), "one"))
	b := NewBag(1)
	b.Add(NewWarning(CmdDeprecated, span(2, 4), "two"))
	a.Merge(b)
	if a.Len() != 2 {
		t.Fatalf("Expected 2 items after merge, got %d", a.Len())
	}
	if a.Cap() < 2 {
		t.Errorf("Expected cap to grow to fit both, got %d", a.Cap())
	}
}

// TestBagMergeOverflow: сумма больше 65535 не заворачивает лимит
func TestBagMergeOverflow(t *testing.T) {
	a := NewBag(40000)
	b := NewBag(40000)
	d := NewError(CmdUnknown, span(0, 2), "x")
	for i := 0; i < 40000; i++ {
		a.Add(d)
		b.Add(d)
	}
	a.Merge(b)
	if a.Len() != 80000 {
		t.Fatalf("Expected all items kept, got %d", a.Len())
	}
	if a.Cap() != math.MaxUint16 {
		t.Errorf("Expected cap clamped to %d, got %d", math.MaxUint16, a.Cap())
	}
}
