package lint

import (
	"fmt"
	"regexp"
	"strings"

	"cbslint/internal/diag"
	"cbslint/internal/lexer"
	"cbslint/internal/source"
)

// VarKind distinguishes definition and reference sites.
type VarKind uint8

const (
	VarDefinition VarKind = iota
	VarReference
)

// StorageClass is the variable store a site talks to.
type StorageClass uint8

const (
	StorageChat StorageClass = iota
	StorageTemp
	StorageGlobal
)

// VariableSite is one definition or reference location. Список отдаётся
// наружу как есть: им пользуется find-references в LSP.
type VariableSite struct {
	Name    string
	Span    source.Span
	Kind    VarKind
	Storage StorageClass
}

// Имена переменных — буквальные токены, поэтому сайты ищутся прямыми
// паттернами, а не через генерик-декомпозер: так ловятся и вложенные
// вхождения на любой глубине.
var (
	varDefRe = regexp.MustCompile(`(?i)\{\{\s*(setvar|settempvar)\s*::\s*([A-Za-z0-9_]+)\s*::`)
	varRefRe = regexp.MustCompile(`(?i)\{\{\s*(getvar|gettempvar|getglobalvar)\s*::\s*([A-Za-z0-9_]+)\s*\}\}`)
	dollarRe = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
	calcRe   = regexp.MustCompile(`(?i)^calc\s*::`)
)

// CollectVariables gathers every definition and reference site in the
// document, including `$NAME` occurrences inside `{{?...}}` and `{{calc::...}}`
// expression tags.
func CollectVariables(f *source.File) []VariableSite {
	content := string(f.Content)
	var sites []VariableSite

	for _, m := range varDefRe.FindAllStringSubmatchIndex(content, -1) {
		cmd := strings.ToLower(content[m[2]:m[3]])
		storage := StorageChat
		if cmd == "settempvar" {
			storage = StorageTemp
		}
		sites = append(sites, VariableSite{
			Name:    content[m[4]:m[5]],
			Span:    source.Span{File: f.ID, Start: uint32(m[4]), End: uint32(m[5])},
			Kind:    VarDefinition,
			Storage: storage,
		})
	}

	for _, m := range varRefRe.FindAllStringSubmatchIndex(content, -1) {
		cmd := strings.ToLower(content[m[2]:m[3]])
		storage := StorageChat
		switch cmd {
		case "gettempvar":
			storage = StorageTemp
		case "getglobalvar":
			storage = StorageGlobal
		}
		sites = append(sites, VariableSite{
			Name:    content[m[4]:m[5]],
			Span:    source.Span{File: f.ID, Start: uint32(m[4]), End: uint32(m[5])},
			Kind:    VarReference,
			Storage: storage,
		})
	}

	// $NAME внутри тегов-выражений.
	for _, tag := range lexer.ScanTopLevel(f) {
		trimmed := strings.TrimSpace(tag.Inner)
		if !strings.HasPrefix(trimmed, "?") && !calcRe.MatchString(trimmed) {
			continue
		}
		innerStart := tag.Span.Start + 2
		for _, m := range dollarRe.FindAllStringSubmatchIndex(tag.Inner, -1) {
			sites = append(sites, VariableSite{
				Name:    tag.Inner[m[2]:m[3]],
				Span:    source.Span{File: f.ID, Start: innerStart + uint32(m[2]), End: innerStart + uint32(m[3])},
				Kind:    VarReference,
				Storage: StorageChat,
			})
		}
	}
	return sites
}

// analyzeVariables flags references whose name is never defined in the
// document. Порядок определения и использования не проверяется — только
// наличие где-то в документе. Имена с `toggle_` зарезервированы движком и не
// проверяются.
func analyzeVariables(f *source.File, rep diag.Reporter) {
	sites := CollectVariables(f)

	defined := make(map[string]bool)
	for _, site := range sites {
		if site.Kind == VarDefinition {
			defined[strings.ToLower(site.Name)] = true
		}
	}

	for _, site := range sites {
		if site.Kind != VarReference {
			continue
		}
		if strings.Contains(strings.ToLower(site.Name), "toggle_") {
			continue
		}
		if defined[strings.ToLower(site.Name)] {
			continue
		}
		diag.ReportWarning(rep, diag.VarUndefined, site.Span,
			fmt.Sprintf("Variable '%s' is used but not defined in this document.", site.Name)).Emit()
	}
}
