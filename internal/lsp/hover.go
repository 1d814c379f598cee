package lsp

import (
	"encoding/json"
	"fmt"
	"strings"

	"cbslint/internal/parser"
	"cbslint/internal/registry"
	"cbslint/internal/token"
)

func (s *Server) handleHover(msg *rpcMessage) error {
	var params hoverParams
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
	if parsed.Name == "" || parsed.Conv == token.ConvExpr {
		return s.sendResponse(msg.ID, nil)
	}

	sigs := s.registry().LookupAll(parsed.Name, parsed.Conv == token.ConvPrefix)
	if parsed.Conv == token.ConvBlockOpen || parsed.Conv == token.ConvBlockClose {
		sigs = filterBlocks(sigs)
	}
	if len(sigs) == 0 {
		return s.sendResponse(msg.ID, nil)
	}

	rng := rangeForSpan(file, tag.Span)
	result := hover{
		Contents: markupContent{
			Kind:  "markdown",
			Value: hoverMarkdown(sigs),
		},
		Range: &rng,
	}
	return s.sendResponse(msg.ID, result)
}

func filterBlocks(sigs []*registry.Signature) []*registry.Signature {
	var out []*registry.Signature
	for _, sig := range sigs {
		if sig.Block {
			out = append(out, sig)
		}
	}
	return out
}

// hoverMarkdown собирает карточку команды: сигнатуры, описание, статус
// устаревания.
func hoverMarkdown(sigs []*registry.Signature) string {
	var b strings.Builder

	fmt.Fprintf(&b, "**%s**\n\n", sigs[0].Name)
	b.WriteString("```\n")
	for _, sig := range sigs {
		b.WriteString(sig.Render())
		b.WriteString("\n")
	}
	b.WriteString("```\n")

	for _, sig := range sigs {
		if sig.Doc != "" {
			b.WriteString("\n")
			b.WriteString(sig.Doc)
			b.WriteString("\n")
			break
		}
	}

	if len(sigs[0].Aliases) > 0 {
		fmt.Fprintf(&b, "\nAliases: %s\n", strings.Join(sigs[0].Aliases, ", "))
	}

	for _, sig := range sigs {
		if sig.Deprecated == nil {
			continue
		}
		b.WriteString("\n*Deprecated*")
		if sig.Deprecated.Replacement != "" {
			fmt.Fprintf(&b, ": use `%s` instead", sig.Deprecated.Replacement)
		}
		b.WriteString(".\n")
		break
	}

	return b.String()
}
