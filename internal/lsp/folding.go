package lsp

import (
	"encoding/json"
	"sort"

	"cbslint/internal/lint"
)

// handleFoldingRange отдаёт регионы сомкнутых блоков `{{#...}}...{{/...}}`.
func (s *Server) handleFoldingRange(msg *rpcMessage) error {
	var params foldingRangeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, -32602, "invalid params")
		}
	}
	uri := canonicalURI(params.TextDocument.URI)
	file := s.documentFile(uri)
	if file == nil {
		return s.sendResponse(msg.ID, []foldingRange{})
	}

	ranges := make([]foldingRange, 0)
	for _, region := range lint.BlockRegions(file) {
		start := positionForOffsetInFile(file, region.Start)
		end := positionForOffsetInFile(file, region.End)
		if start.Line >= end.Line {
			continue
		}
		ranges = append(ranges, foldingRange{
			StartLine: start.Line,
			EndLine:   end.Line,
			Kind:      "region",
		})
	}
	sort.Slice(ranges, func(i, j int) bool {
		if ranges[i].StartLine != ranges[j].StartLine {
			return ranges[i].StartLine < ranges[j].StartLine
		}
		return ranges[i].EndLine < ranges[j].EndLine
	})
	return s.sendResponse(msg.ID, ranges)
}
