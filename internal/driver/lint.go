// Package driver ties the lint pipeline together for CLI and LSP callers:
// загрузка документов, прогон чекеров, параллельный обход директорий и
// дисковый кэш результатов.
package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"cbslint/internal/diag"
	"cbslint/internal/lint"
	"cbslint/internal/registry"
	"cbslint/internal/source"
)

// promptExtensions — расширения, которые считаются документами с шаблонами.
var promptExtensions = []string{".md", ".txt", ".cbs"}

// LintDirResult содержит результат проверки одного документа
type LintDirResult struct {
	Path   string        // Относительный путь к документу
	FileID source.FileID // ID документа в FileSet
	Bag    *diag.Bag     // Диагностики
}

// LintText lints an in-memory document. Это ядро, которым пользуются и CLI
// (stdin), и LSP (оверлеи): чистая функция без I/O.
func LintText(name string, text []byte, reg *registry.Registry, maxDiagnostics int, opts lint.Options) (*source.FileSet, *diag.Bag) {
	fileSet := source.NewFileSet()
	id := fileSet.AddVirtual(name, text)
	bag := lint.RunBag(fileSet.Get(id), reg, maxDiagnostics, opts)
	return fileSet, bag
}

// LintFile loads one document from disk and lints it.
func LintFile(path string, reg *registry.Registry, maxDiagnostics int, opts lint.Options) (*source.FileSet, *diag.Bag, error) {
	fileSet := source.NewFileSet()
	id, err := fileSet.Load(path)
	if err != nil {
		return nil, nil, err
	}
	bag := lint.RunBag(fileSet.Get(id), reg, maxDiagnostics, opts)
	return fileSet, bag, nil
}

// ListPromptFiles возвращает отсортированный список всех документов с
// шаблонами в директории
func ListPromptFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		for _, want := range promptExtensions {
			if ext == want {
				files = append(files, path)
				break
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	// Сортируем для детерминированного порядка
	sort.Strings(files)
	return files, nil
}

// DirOptions configures a directory lint pass.
type DirOptions struct {
	MaxDiagnostics int
	Jobs           int
	Lint           lint.Options
	Cache          *DiskCache // nil - без кэша

	// Progress вызывается после каждого документа из одной горутины.
	Progress func(res LintDirResult, done, total int)
}

// LintDir проверяет все документы с шаблонами в директории параллельно
func LintDir(ctx context.Context, dir string, reg *registry.Registry, opts DirOptions) (*source.FileSet, []LintDirResult, error) {
	// Собираем список документов
	files, err := ListPromptFiles(dir)
	if err != nil {
		return nil, nil, err
	}

	if len(files) == 0 {
		return source.NewFileSetWithBase(dir), nil, nil
	}

	// Создаём FileSet и предзагружаем все документы
	fileSet := source.NewFileSetWithBase(dir)
	fileIDs := make(map[string]source.FileID, len(files))
	loadErrors := make(map[string]error, len(files))

	for _, path := range files {
		fileID, err := fileSet.Load(path)
		if err != nil {
			// Сохраняем ошибку загрузки для последующей обработки
			loadErrors[path] = err
			continue
		}
		fileIDs[path] = fileID
	}

	// Настраиваем параллелизм
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Результаты (индексы уникальны для каждой горутины, мьютекс не нужен)
	results := make([]LintDirResult, len(files))
	done := make(chan int, len(files))

	// Параллельная проверка
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			defer func() { done <- i }()

			// Проверка отмены
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			// Проверяем ошибку загрузки
			if loadErr, hadError := loadErrors[path]; hadError {
				bag := diag.NewBag(opts.MaxDiagnostics)
				bag.Add(diag.Diagnostic{
					Severity: diag.SevError,
					Code:     diag.IOLoadFile,
					Message:  "failed to load file: " + loadErr.Error(),
					Primary:  source.Span{},
				})
				results[i] = LintDirResult{Path: path, Bag: bag}
				return nil
			}

			fileID := fileIDs[path]
			file := fileSet.Get(fileID)

			// Сначала пробуем кэш по хэшу содержимого
			if bag, ok := opts.Cache.Lookup(file, opts.MaxDiagnostics); ok {
				results[i] = LintDirResult{Path: path, FileID: fileID, Bag: bag}
				return nil
			}

			bag := lint.RunBag(file, reg, opts.MaxDiagnostics, opts.Lint)
			opts.Cache.Store(file, bag)

			// Сохраняем результат (мьютекс не нужен - индекс i уникален)
			results[i] = LintDirResult{Path: path, FileID: fileID, Bag: bag}
			return nil
		})
	}

	// Прогресс считается в этой горутине, чтобы колбэк не требовал
	// синхронизации от вызывающего.
	waitErr := make(chan error, 1)
	go func() { waitErr <- g.Wait() }()

	finished := 0
	for finished < len(files) {
		select {
		case idx := <-done:
			finished++
			if opts.Progress != nil {
				opts.Progress(results[idx], finished, len(files))
			}
		case <-ctx.Done():
			<-waitErr
			return fileSet, results, ctx.Err()
		}
	}

	if err := <-waitErr; err != nil {
		return fileSet, results, err
	}
	return fileSet, results, nil
}
