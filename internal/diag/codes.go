package diag

import (
	"fmt"
)

type Code uint16

// Пространство кодов разбито по чекерам:
//   1xxx — структура и синтаксис скобок (сканер/токенайзер)
//   2xxx — семантика команд (валидатор + реестр)
//   3xxx — структура блоков {{#...}}/{{/...}}
//   4xxx — поток переменных setvar/getvar
const (
	// Неизвестная ошибка - на первое время
	UnknownCode Code = 0

	// Структурные
	LexInfo            Code = 1000
	LexStrayClose      Code = 1001
	LexUnterminatedTag Code = 1002
	LexEmptyTag        Code = 1003
	LexBadSeparator    Code = 1004
	LexNestingTooDeep  Code = 1005

	// Командные
	CmdInfo       Code = 2000
	CmdUnknown    Code = 2001
	CmdBadArity   Code = 2002
	CmdDeprecated Code = 2003

	// Блочные
	BlkInfo            Code = 3000
	BlkUnclosed        Code = 3001
	BlkUnexpectedClose Code = 3002
	BlkNameMismatch    Code = 3003

	// Переменные
	VarInfo      Code = 4000
	VarUndefined Code = 4001

	// Ввод-вывод (драйвер)
	IOLoadFile Code = 5001
)

var codeDescription = map[Code]string{
	UnknownCode: "unknown diagnostic",

	LexInfo:            "lexical info",
	LexStrayClose:      "unmatched '}}'",
	LexUnterminatedTag: "unterminated '{{'",
	LexEmptyTag:        "empty tag",
	LexBadSeparator:    "invalid parameter separator",
	LexNestingTooDeep:  "excessive tag nesting",

	CmdInfo:       "command info",
	CmdUnknown:    "unknown command",
	CmdBadArity:   "incorrect parameter count",
	CmdDeprecated: "deprecated command",

	BlkInfo:            "block info",
	BlkUnclosed:        "unclosed block tag",
	BlkUnexpectedClose: "unexpected closing tag",
	BlkNameMismatch:    "mismatched block tag",

	VarInfo:      "variable info",
	VarUndefined: "undefined variable reference",

	IOLoadFile: "failed to load file",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("CMD%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("BLK%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("VAR%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
