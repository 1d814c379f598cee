package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"cbslint/internal/diag"
	"cbslint/internal/source"
)

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> [<CODE>]: <Message>
// затем строку документа с подчёркиванием ^~~~ по Span, затем Notes и Fixes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	sevColor := map[diag.Severity]*color.Color{
		diag.SevError:   color.New(color.FgRed, color.Bold),
		diag.SevWarning: color.New(color.FgYellow, color.Bold),
		diag.SevInfo:    color.New(color.FgCyan),
	}
	dim := color.New(color.Faint)
	for _, c := range sevColor {
		if !opts.Color {
			c.DisableColor()
		}
	}
	if !opts.Color {
		dim.DisableColor()
	}

	for _, d := range bag.Items() {
		f := fs.Get(d.Primary.File)
		start, _ := fs.Resolve(d.Primary)

		fmt.Fprintf(w, "%s:%d:%d: %s: %s\n",
			formatPath(f, fs, opts.PathMode), start.Line, start.Col,
			sevColor[d.Severity].Sprintf("%s [%s]", d.Severity, d.Code.ID()),
			d.Message)
		writeContext(w, f, d.Primary, start, opts, dim)

		if opts.ShowNotes {
			for _, note := range d.Notes {
				nf := fs.Get(note.Span.File)
				npos, _ := fs.Resolve(note.Span)
				fmt.Fprintf(w, "  %s %s:%d:%d: %s\n",
					dim.Sprint("note:"), formatPath(nf, fs, opts.PathMode),
					npos.Line, npos.Col, note.Msg)
			}
		}
		if opts.ShowFixes {
			for _, fix := range d.Fixes {
				fmt.Fprintf(w, "  %s %s\n", dim.Sprint("fix:"), fix.Title)
				for _, edit := range fix.Edits {
					epos, _ := fs.Resolve(edit.Span)
					fmt.Fprintf(w, "    %d:%d: replace %q with %q\n",
						epos.Line, epos.Col, fs.Text(edit.Span), edit.NewText)
				}
			}
		}
		fmt.Fprintln(w)
	}
}

// writeContext печатает строку документа и каретку под якорем.
func writeContext(w io.Writer, f *source.File, span source.Span, start source.LineCol, opts PrettyOpts, dim *color.Color) {
	line := f.GetLine(start.Line)
	if line == "" && len(strings.TrimSpace(line)) == 0 && start.Col > uint32(len(line))+1 {
		return
	}

	ctx := int(opts.Context)
	for n := start.Line - uint32(min(ctx, int(start.Line)-1)); n < start.Line; n++ {
		fmt.Fprintf(w, "  %s\n", dim.Sprintf("%4d | %s", n, f.GetLine(n)))
	}

	fmt.Fprintf(w, "  %4d | %s\n", start.Line, line)

	// Каретка покрывает часть спана, лежащую на первой строке якоря.
	col := int(start.Col)
	width := int(span.Len())
	if rem := len(line) - (col - 1); width > rem {
		width = rem
	}
	if width < 1 {
		width = 1
	}
	underline := "^" + strings.Repeat("~", width-1)
	fmt.Fprintf(w, "       | %s%s\n", strings.Repeat(" ", col-1), underline)

	for n := start.Line + 1; n <= start.Line+uint32(max(ctx, 0)); n++ {
		text := f.GetLine(n)
		if text == "" && n > start.Line+1 {
			break
		}
		fmt.Fprintf(w, "  %s\n", dim.Sprintf("%4d | %s", n, text))
	}
}

func formatPath(f *source.File, fs *source.FileSet, mode PathMode) string {
	switch mode {
	case PathModeAbsolute:
		return f.FormatPath("absolute", "")
	case PathModeRelative:
		return f.FormatPath("relative", fs.BaseDir())
	case PathModeBasename:
		return f.FormatPath("basename", "")
	default:
		return f.FormatPath("auto", "")
	}
}
