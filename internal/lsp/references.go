package lsp

import (
	"encoding/json"
	"strings"

	"cbslint/internal/lint"
)

// handleReferences находит все сайты переменной под курсором: setvar/getvar
// любого класса хранения плюс `$NAME` в выражениях.
func (s *Server) handleReferences(msg *rpcMessage) error {
	var params referenceParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, -32602, "invalid params")
	}
	uri := canonicalURI(params.TextDocument.URI)
	file := s.documentFile(uri)
	if file == nil {
		return s.sendResponse(msg.ID, []location{})
	}

	off := offsetForPositionInFile(file, params.Position)
	sites := lint.CollectVariables(file)

	var name string
	for _, site := range sites {
		if site.Span.Start <= off && off <= site.Span.End {
			name = site.Name
			break
		}
	}
	if name == "" {
		return s.sendResponse(msg.ID, []location{})
	}

	locations := make([]location, 0, len(sites))
	for _, site := range sites {
		if !strings.EqualFold(site.Name, name) {
			continue
		}
		if site.Kind == lint.VarDefinition && !params.Context.IncludeDeclaration {
			continue
		}
		locations = append(locations, location{
			URI:   uri,
			Range: rangeForSpan(file, site.Span),
		})
	}
	return s.sendResponse(msg.ID, locations)
}
