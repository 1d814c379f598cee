package lsp

import (
	"encoding/json"

	"cbslint/internal/lexer"
	"cbslint/internal/parser"
	"cbslint/internal/registry"
	"cbslint/internal/token"
)

func (s *Server) handleSignatureHelp(msg *rpcMessage) error {
	var params signatureHelpParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, -32602, "invalid params")
	}
	uri := canonicalURI(params.TextDocument.URI)
	file := s.documentFile(uri)
	if file == nil {
		return s.sendResponse(msg.ID, nil)
	}

	off := offsetForPositionInFile(file, params.Position)
	tag, ok := tagAt(file, off)
	if !ok {
		return s.sendResponse(msg.ID, nil)
	}

	parsed := parser.Decompose(tag)
	if parsed.Name == "" {
		return s.sendResponse(msg.ID, nil)
	}
	switch parsed.Conv {
	case token.ConvDoubleColon, token.ConvBare:
	default:
		return s.sendResponse(msg.ID, nil)
	}

	sigs := s.registry().LookupAll(parsed.Name, false)
	if len(sigs) == 0 {
		return s.sendResponse(msg.ID, nil)
	}

	activeParam := activeParameterAt(tag, off)
	result := signatureHelp{
		Signatures:      make([]signatureInformation, 0, len(sigs)),
		ActiveSignature: activeSignatureFor(sigs, activeParam),
		ActiveParameter: activeParam,
	}
	for _, sig := range sigs {
		info := signatureInformation{
			Label:         sig.Render(),
			Documentation: sig.Doc,
		}
		for _, p := range sig.Params {
			info.Parameters = append(info.Parameters, parameterInformation{Label: p.Name})
		}
		if sig.Variadic {
			info.Parameters = append(info.Parameters, parameterInformation{Label: "..."})
		}
		result.Signatures = append(result.Signatures, info)
	}
	return s.sendResponse(msg.ID, result)
}

// activeParameterAt считает разделители `::` верхнего уровня между началом
// тела тега и курсором: ноль разделителей - курсор ещё на имени.
func activeParameterAt(tag token.TagSpan, off uint32) int {
	innerStart := tag.Span.Start + 2
	if off <= innerStart {
		return 0
	}
	rel := int(off - innerStart)
	if rel > len(tag.Inner) {
		rel = len(tag.Inner)
	}
	pieces := lexer.SplitTopLevel(tag.Inner[:rel], "::")
	if len(pieces) <= 1 {
		return 0
	}
	return len(pieces) - 2
}

// activeSignatureFor выбирает первую перегрузку, у которой хватает параметров.
func activeSignatureFor(sigs []*registry.Signature, activeParam int) int {
	for i, sig := range sigs {
		if sig.Variadic || sig.Total() > activeParam {
			return i
		}
	}
	return 0
}
