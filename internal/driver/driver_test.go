package driver

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"cbslint/internal/diag"
	"cbslint/internal/lint"
	"cbslint/internal/registry"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	return path
}

// TestLintText: проверка документа в памяти
func TestLintText(t *testing.T) {
	fs, bag := LintText("doc.md", []byte("{{getvar::hp}}"), registry.Default(), 100, lint.Options{})
	if fs == nil || bag.Len() != 1 {
		t.Fatalf("Expected one diagnostic, got %+v", bag)
	}
	if bag.Items()[0].Code != diag.VarUndefined {
		t.Errorf("Expected VarUndefined, got %v", bag.Items()[0].Code)
	}
}

// TestLintFile: загрузка с диска с нормализацией CRLF
func TestLintFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "card.md", "line one\r\n{{frobnicate}}\r\n")

	fs, bag, err := LintFile(path, registry.Default(), 100, lint.Options{})
	if err != nil {
		t.Fatalf("LintFile failed: %v", err)
	}
	if bag.Len() != 1 || bag.Items()[0].Code != diag.CmdUnknown {
		t.Fatalf("Expected one CmdUnknown, got %+v", bag.Items())
	}
	start, _ := fs.Resolve(bag.Items()[0].Primary)
	if start.Line != 2 || start.Col != 1 {
		t.Errorf("Expected position 2:1 after CRLF normalization, got %d:%d", start.Line, start.Col)
	}
}

// TestListPromptFiles: фильтрация по расширениям и стабильный порядок
func TestListPromptFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.md", "x")
	writeFile(t, dir, "a.txt", "x")
	writeFile(t, dir, "sub/c.cbs", "x")
	writeFile(t, dir, "skip.json", "x")
	writeFile(t, dir, "Upper.MD", "x")

	files, err := ListPromptFiles(dir)
	if err != nil {
		t.Fatalf("ListPromptFiles failed: %v", err)
	}
	if len(files) != 4 {
		t.Fatalf("Expected 4 prompt files, got %v", files)
	}
	for i := 1; i < len(files); i++ {
		if files[i-1] >= files[i] {
			t.Errorf("Expected sorted order, got %v", files)
		}
	}
}

// TestLintDir: параллельный обход с прогрессом
func TestLintDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "clean.md", "Hello {{user}}!")
	writeFile(t, dir, "broken.md", "{{#if x}}no close")
	writeFile(t, dir, "warn.txt", "{{getvar::y}}")

	var progressed atomic.Int32
	_, results, err := LintDir(context.Background(), dir, registry.Default(), DirOptions{
		MaxDiagnostics: 100,
		Jobs:           2,
		Progress: func(res LintDirResult, done, total int) {
			progressed.Add(1)
			if total != 3 {
				t.Errorf("Expected total 3, got %d", total)
			}
			if res.Path == "" || res.Bag == nil {
				t.Errorf("Expected populated result, got %+v", res)
			}
		},
	})
	if err != nil {
		t.Fatalf("LintDir failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	if progressed.Load() != 3 {
		t.Errorf("Expected 3 progress callbacks, got %d", progressed.Load())
	}

	byName := map[string]*diag.Bag{}
	for _, res := range results {
		byName[filepath.Base(res.Path)] = res.Bag
	}
	if byName["clean.md"].Len() != 0 {
		t.Errorf("Expected clean.md to have no findings, got %+v", byName["clean.md"].Items())
	}
	if !byName["broken.md"].HasErrors() {
		t.Errorf("Expected broken.md to have an error")
	}
	if !byName["warn.txt"].HasWarnings() || byName["warn.txt"].HasErrors() {
		t.Errorf("Expected warn.txt to carry only a warning, got %+v", byName["warn.txt"].Items())
	}
}

// TestLintDirEmpty: пустая директория — пустой результат, не ошибка
func TestLintDirEmpty(t *testing.T) {
	_, results, err := LintDir(context.Background(), t.TempDir(), registry.Default(), DirOptions{MaxDiagnostics: 10})
	if err != nil || len(results) != 0 {
		t.Fatalf("Expected empty results without error, got %v %v", results, err)
	}
}

// TestDiskCacheRoundtrip: запись и чтение payload по ключу
func TestDiskCacheRoundtrip(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	cache, err := OpenDiskCache("cbslint-test")
	if err != nil {
		t.Fatalf("OpenDiskCache failed: %v", err)
	}

	key := [32]byte{1, 2, 3}
	payload := &DiskPayload{
		Schema: diskCacheSchemaVersion,
		Diagnostics: []cachedDiagnostic{{
			Severity: uint8(diag.SevError),
			Code:     uint16(diag.CmdUnknown),
			Message:  "Unknown command 'x'.",
			Start:    5,
			End:      10,
		}},
	}
	if err := cache.Put(key, payload); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	var got DiskPayload
	ok, err := cache.Get(key, &got)
	if err != nil || !ok {
		t.Fatalf("Get failed: ok=%v err=%v", ok, err)
	}
	if len(got.Diagnostics) != 1 || got.Diagnostics[0].Message != "Unknown command 'x'." {
		t.Errorf("Roundtrip mismatch: %+v", got)
	}

	// промах по незнакомому ключу
	ok, err = cache.Get([32]byte{9}, &got)
	if err != nil || ok {
		t.Errorf("Expected miss for unknown key, got ok=%v err=%v", ok, err)
	}
}

// TestDiskCacheLintDir: второй прогон берёт результат из кэша
func TestDiskCacheLintDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	dir := t.TempDir()
	writeFile(t, dir, "card.md", "{{frobnicate}}")

	cache, err := OpenDiskCache("cbslint-test")
	if err != nil {
		t.Fatalf("OpenDiskCache failed: %v", err)
	}
	opts := DirOptions{MaxDiagnostics: 100, Cache: cache}

	_, first, err := LintDir(context.Background(), dir, registry.Default(), opts)
	if err != nil {
		t.Fatalf("First pass failed: %v", err)
	}
	_, second, err := LintDir(context.Background(), dir, registry.Default(), opts)
	if err != nil {
		t.Fatalf("Second pass failed: %v", err)
	}

	if first[0].Bag.Len() != 1 || second[0].Bag.Len() != 1 {
		t.Fatalf("Expected one finding in both passes, got %d and %d", first[0].Bag.Len(), second[0].Bag.Len())
	}
	a, b := first[0].Bag.Items()[0], second[0].Bag.Items()[0]
	if a.Code != b.Code || a.Message != b.Message || a.Primary.Start != b.Primary.Start {
		t.Errorf("Cached result differs: %+v vs %+v", a, b)
	}
}

// TestNilDiskCache: nil-кэш безопасен
func TestNilDiskCache(t *testing.T) {
	var cache *DiskCache
	if _, ok := cache.Lookup(nil, 10); ok {
		t.Error("Expected nil cache lookup to miss")
	}
	cache.Store(nil, nil)
	if err := cache.Put([32]byte{}, nil); err != nil {
		t.Errorf("Expected nil cache Put to be a no-op, got %v", err)
	}
}
