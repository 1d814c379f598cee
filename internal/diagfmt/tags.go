package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"

	"cbslint/internal/parser"
	"cbslint/internal/source"
	"cbslint/internal/token"
)

type ParamOutput struct {
	Raw  string      `json:"raw"`
	Span source.Span `json:"span"`
}

type TagOutput struct {
	Name       string        `json:"name"`
	Convention string        `json:"convention"`
	Depth      int           `json:"depth"`
	Span       source.Span   `json:"span"`
	Params     []ParamOutput `json:"params,omitempty"`
}

// expandNested раскрывает вложенные теги-параметры в плоский depth-first
// список: за родителем сразу идут его дети.
func expandNested(fs *source.FileSet, tags []token.TagSpan) []token.TagSpan {
	var out []token.TagSpan
	var walk func(tag token.TagSpan)
	walk = func(tag token.TagSpan) {
		out = append(out, tag)
		f := fs.Get(tag.Span.File)
		for _, child := range parser.NestedTags(f, parser.Decompose(tag), tag.Depth) {
			walk(child)
		}
	}
	for _, tag := range tags {
		walk(tag)
	}
	return out
}

// FormatTagsPretty выводит найденные теги в человекочитаемом формате
func FormatTagsPretty(w io.Writer, tags []token.TagSpan, fs *source.FileSet) error {
	for i, tag := range expandNested(fs, tags) {
		parsed := parser.Decompose(tag)
		startPos, endPos := fs.Resolve(tag.Span)

		fmt.Fprintf(w, "%3d: %-12s", i+1, parsed.Conv.String())

		if parsed.Name != "" {
			fmt.Fprintf(w, " %q", parsed.Name)
		}

		fmt.Fprintf(w, " at %d:%d-%d:%d",
			startPos.Line, startPos.Col,
			endPos.Line, endPos.Col)

		if tag.Depth > 0 {
			fmt.Fprintf(w, " (depth %d)", tag.Depth)
		}
		if len(parsed.Params) > 0 {
			fmt.Fprintf(w, " params=%d", len(parsed.Params))
		}

		fmt.Fprintln(w)

		for _, p := range parsed.Params {
			fmt.Fprintf(w, "       param %q\n", p.Raw)
		}
	}
	return nil
}

// FormatTagsJSON выводит найденные теги в JSON формате
func FormatTagsJSON(w io.Writer, tags []token.TagSpan, fs *source.FileSet) error {
	expanded := expandNested(fs, tags)
	output := make([]TagOutput, 0, len(expanded))

	for _, tag := range expanded {
		parsed := parser.Decompose(tag)

		tagOut := TagOutput{
			Name:       parsed.Name,
			Convention: parsed.Conv.String(),
			Depth:      tag.Depth,
			Span:       tag.Span,
		}
		for _, p := range parsed.Params {
			tagOut.Params = append(tagOut.Params, ParamOutput{Raw: p.Raw, Span: p.Span})
		}

		output = append(output, tagOut)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
