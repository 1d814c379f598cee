package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"cbslint/internal/diag"
	"cbslint/internal/lexer"
	"cbslint/internal/source"
)

func sampleBag(t *testing.T) (*diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("card.md", []byte("intro\n{{frobnicate}} tail\n"))

	bag := diag.NewBag(10)
	rep := diag.BagReporter{Bag: bag}
	span := source.Span{File: id, Start: 6, End: 21}
	diag.ReportError(rep, diag.CmdUnknown, span, "Unknown command 'frobnicate'.").
		WithFix("Remove the tag", diag.FixEdit{Span: span, NewText: ""}).
		Emit()
	bag.Sort()
	return bag, fs
}

// TestPrettyOutput: заголовок, строка контекста и подчёркивание
func TestPrettyOutput(t *testing.T) {
	bag, fs := sampleBag(t)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{ShowFixes: true})
	out := buf.String()

	if !strings.Contains(out, "card.md:2:1: ERROR [CMD2001]: Unknown command 'frobnicate'.") {
		t.Errorf("Missing header line in output:\n%s", out)
	}
	if !strings.Contains(out, "{{frobnicate}} tail") {
		t.Errorf("Missing context line in output:\n%s", out)
	}
	if !strings.Contains(out, "^~~~~~~~~~~~~~") {
		t.Errorf("Missing caret underline in output:\n%s", out)
	}
	if !strings.Contains(out, "fix: Remove the tag") {
		t.Errorf("Missing fix line in output:\n%s", out)
	}
	// без опции Color управляющих последовательностей быть не должно
	if strings.Contains(out, "\x1b[") {
		t.Errorf("Unexpected ANSI escapes in uncolored output:\n%s", out)
	}
}

// TestJSONOutput: сериализация и обратный разбор
func TestJSONOutput(t *testing.T) {
	bag, fs := sampleBag(t)

	var buf bytes.Buffer
	err := JSON(&buf, bag, fs, JSONOpts{
		IncludePositions: true,
		IncludeFixes:     true,
		PathMode:         PathModeBasename,
	})
	if err != nil {
		t.Fatalf("JSON failed: %v", err)
	}

	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if out.Count != 1 || len(out.Diagnostics) != 1 {
		t.Fatalf("Expected one diagnostic, got %+v", out)
	}
	d := out.Diagnostics[0]
	if d.Code != "CMD2001" || d.Severity != "ERROR" {
		t.Errorf("Unexpected code/severity: %+v", d)
	}
	if d.Location.File != "card.md" || d.Location.StartLine != 2 || d.Location.StartCol != 1 {
		t.Errorf("Unexpected location: %+v", d.Location)
	}
	if len(d.Fixes) != 1 || d.Fixes[0].Edits[0].OldText != "{{frobnicate}}" {
		t.Errorf("Unexpected fixes: %+v", d.Fixes)
	}
}

// TestJSONMax: опция Max обрезает вывод, не Bag
func TestJSONMax(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("doc.md", []byte("{{a}}{{b}}{{c}}"))
	bag := diag.NewBag(10)
	rep := diag.BagReporter{Bag: bag}
	for i := uint32(0); i < 3; i++ {
		diag.ReportError(rep, diag.CmdUnknown,
			source.Span{File: id, Start: i * 5, End: i*5 + 5}, "Unknown command.").Emit()
	}

	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{Max: 2})
	if out.Count != 2 || bag.Len() != 3 {
		t.Errorf("Expected truncated output of 2 with bag intact, got count=%d bagLen=%d", out.Count, bag.Len())
	}
}

// TestSarifOutput: минимальная валидность SARIF 2.1.0
func TestSarifOutput(t *testing.T) {
	bag, fs := sampleBag(t)

	var buf bytes.Buffer
	err := Sarif(&buf, bag, fs, SarifRunMeta{ToolName: "cbslint", ToolVersion: "0.1.0"})
	if err != nil {
		t.Fatalf("Sarif failed: %v", err)
	}

	var log map[string]any
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if log["version"] != "2.1.0" {
		t.Errorf("Expected SARIF version 2.1.0, got %v", log["version"])
	}
	runs := log["runs"].([]any)
	if len(runs) != 1 {
		t.Fatalf("Expected one run, got %d", len(runs))
	}
	results := runs[0].(map[string]any)["results"].([]any)
	if len(results) != 1 {
		t.Fatalf("Expected one result, got %d", len(results))
	}
	result := results[0].(map[string]any)
	if result["ruleId"] != "CMD2001" || result["level"] != "error" {
		t.Errorf("Unexpected result: %+v", result)
	}
}

// TestFormatTagsPretty: вывод разбора тегов
func TestFormatTagsPretty(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("doc.md", []byte("{{replace::a::b}} {{#if x}}{{/if}}"))
	tags, _ := lexer.Scan(fs.Get(id))

	var buf bytes.Buffer
	if err := FormatTagsPretty(&buf, tags, fs); err != nil {
		t.Fatalf("FormatTagsPretty failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"replace"`) || !strings.Contains(out, "params=2") {
		t.Errorf("Missing replace tag info:\n%s", out)
	}
	if !strings.Contains(out, `"if"`) {
		t.Errorf("Missing block tag info:\n%s", out)
	}
}

// TestFormatTagsNested: вложенные теги-параметры печатаются с глубиной
func TestFormatTagsNested(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("doc.md", []byte("{{not::{{getvar::hp}}}}"))
	tags, _ := lexer.Scan(fs.Get(id))

	var buf bytes.Buffer
	if err := FormatTagsPretty(&buf, tags, fs); err != nil {
		t.Fatalf("FormatTagsPretty failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"not"`) || !strings.Contains(out, `"getvar"`) {
		t.Errorf("Missing nested tag info:\n%s", out)
	}
	if !strings.Contains(out, "(depth 1)") {
		t.Errorf("Nested tag depth not printed:\n%s", out)
	}
}
