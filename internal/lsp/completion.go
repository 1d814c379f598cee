package lsp

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"cbslint/internal/lint"
	"cbslint/internal/registry"
	"cbslint/internal/source"
)

var varCompletionRe = regexp.MustCompile(`(?i)(getvar|gettempvar|getglobalvar|setvar|settempvar)\s*::\s*[A-Za-z0-9_]*$`)

func (s *Server) handleCompletion(msg *rpcMessage) error {
	var params completionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, -32602, "invalid params")
	}
	uri := canonicalURI(params.TextDocument.URI)
	file := s.documentFile(uri)
	if file == nil {
		return s.sendResponse(msg.ID, []completionItem{})
	}

	off := offsetForPositionInFile(file, params.Position)
	prefix := string(file.Content[:off])

	// Контекст — незакрытый `{{` слева от курсора.
	openIdx := strings.LastIndex(prefix, "{{")
	if openIdx < 0 || strings.Contains(prefix[openIdx:], "}}") {
		return s.sendResponse(msg.ID, []completionItem{})
	}
	inner := prefix[openIdx+2:]

	var items []completionItem
	switch {
	case varCompletionRe.MatchString(inner):
		items = s.variableCompletions(file)
	case strings.HasPrefix(strings.TrimSpace(inner), "#"):
		items = s.blockCompletions()
	case !strings.Contains(inner, ":"):
		items = s.commandCompletions()
	}
	return s.sendResponse(msg.ID, items)
}

func (s *Server) commandCompletions() []completionItem {
	reg := s.registry()
	var items []completionItem
	for _, name := range reg.Names() {
		sigs := reg.LookupAll(name, false)
		if len(sigs) == 0 || sigs[0].Block {
			continue
		}
		item := completionItem{
			Label:  name,
			Kind:   completionKindFunction,
			Detail: registry.RenderAll(sigs),
		}
		if sigs[0].Doc != "" {
			item.Documentation = sigs[0].Doc
		}
		if sigs[0].Deprecated != nil {
			item.Deprecated = true
			// устаревшие - в конец списка
			item.SortText = "~" + name
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Label < items[j].Label })
	return items
}

func (s *Server) blockCompletions() []completionItem {
	reg := s.registry()
	var items []completionItem
	for _, name := range reg.BlockNames() {
		sigs := reg.LookupAll(name, false)
		item := completionItem{
			Label:      name,
			Kind:       completionKindKeyword,
			InsertText: name,
		}
		if len(sigs) > 0 {
			item.Detail = sigs[0].Render()
			if sigs[0].Doc != "" {
				item.Documentation = sigs[0].Doc
			}
			if sigs[0].Deprecated != nil {
				item.Deprecated = true
				item.SortText = "~" + name
			}
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Label < items[j].Label })
	return items
}

// variableCompletions предлагает имена, уже встречающиеся в документе.
func (s *Server) variableCompletions(file *source.File) []completionItem {
	seen := make(map[string]bool)
	var items []completionItem
	for _, site := range lint.CollectVariables(file) {
		key := strings.ToLower(site.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		items = append(items, completionItem{
			Label: site.Name,
			Kind:  completionKindVariable,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Label < items[j].Label })
	return items
}
