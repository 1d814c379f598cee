package diag

import (
	"fmt"
	"strings"

	"cbslint/internal/source"
)

// FormatShort renders diagnostics one per line in a stable order:
//
//	severity CODE path:line:col message
//
// Used by CLI short output and by tests asserting on whole lint passes.
func FormatShort(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	if fs == nil || len(diags) == 0 {
		return ""
	}

	var b strings.Builder
	for i, d := range diags {
		file := fs.Get(d.Primary.File)
		start, _ := fs.Resolve(d.Primary)
		fmt.Fprintf(&b, "%s %s %s:%d:%d %s",
			severityLabel(d.Severity), d.Code.ID(),
			file.FormatPath("relative", fs.BaseDir()), start.Line, start.Col,
			sanitizeMessage(d.Message))
		if includeNotes {
			for _, note := range d.Notes {
				nstart, _ := fs.Resolve(note.Span)
				fmt.Fprintf(&b, "\nnote %s %s:%d:%d %s",
					d.Code.ID(),
					fs.Get(note.Span.File).FormatPath("relative", fs.BaseDir()),
					nstart.Line, nstart.Col, sanitizeMessage(note.Msg))
			}
		}
		if i < len(diags)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func severityLabel(sev Severity) string {
	switch sev {
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	default:
		return "info"
	}
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
