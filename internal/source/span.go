package source

import (
	"fmt"
)

type Span struct {
	File  FileID
	Start uint32 // в байтах включительно
	End   uint32 // в байтах не включительно
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

func (s Span) Cover(other Span) Span {
	if s.File != other.File {
		return s
	}
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}

// Sub returns the sub-span [relStart, relEnd) expressed relative to s.Start.
// Используется при спуске в параметры тега: относительные смещения внутри
// rawContent переводятся в абсолютные смещения документа.
func (s Span) Sub(relStart, relEnd uint32) Span {
	return Span{
		File:  s.File,
		Start: s.Start + relStart,
		End:   s.Start + relEnd,
	}
}

// Shrink trims n bytes from each side. Переход от спана тега вместе с
// фигурными скобками к спану его содержимого.
func (s Span) Shrink(n uint32) Span {
	if s.Len() < 2*n {
		return Span{File: s.File, Start: s.Start, End: s.Start}
	}
	return Span{
		File:  s.File,
		Start: s.Start + n,
		End:   s.End - n,
	}
}

// Contains reports whether the byte offset falls inside the span.
func (s Span) Contains(off uint32) bool {
	return off >= s.Start && off < s.End
}
