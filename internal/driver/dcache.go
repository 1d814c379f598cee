package driver

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"cbslint/internal/diag"
	"cbslint/internal/source"
)

// Current schema version - increment when cachedDiagnostic format changes
const diskCacheSchemaVersion uint16 = 1

// DiskCache хранит результаты проверки по хэшу содержимого документа.
// Повторный прогон неизменённого документа отдаётся с диска без чекеров.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiskPayload stores one document's cached lint findings.
type DiskPayload struct {
	// Schema version for safe invalidation when format changes
	Schema uint16

	Diagnostics []cachedDiagnostic
}

// cachedDiagnostic — диагностика без FileID: оффсеты валидны, пока хэш
// содержимого совпадает, а FileID подставляется при чтении.
type cachedDiagnostic struct {
	Severity uint8
	Code     uint16
	Message  string
	Start    uint32
	End      uint32
	Notes    []cachedNote
	Fixes    []cachedFix
}

type cachedNote struct {
	Message string
	Start   uint32
	End     uint32
}

type cachedFix struct {
	Title string
	Edits []cachedEdit
}

type cachedEdit struct {
	NewText string
	Start   uint32
	End     uint32
}

// OpenDiskCache initializes and returns a disk cache at the standard location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key [32]byte) string {
	hexKey := hex.EncodeToString(key[:])
	// Для удобства читаемости/очистки - подкаталог "docs".
	return filepath.Join(c.dir, "docs", hexKey+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key [32]byte, payload *DiskPayload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(payload); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), p)
}

// Get reads and deserializes a payload from the disk cache.
func (c *DiskCache) Get(key [32]byte, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	p := c.pathFor(key)
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			panic(closeErr)
		}
	}()
	dec := msgpack.NewDecoder(f)
	if err := dec.Decode(out); err != nil {
		return false, err
	}
	return true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// тривиально: переименуем каталог и удалим в фоне
	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	return os.RemoveAll(old)
}

// Lookup возвращает закэшированный Bag для документа с таким содержимым.
// Повреждённая или несовместимая запись считается промахом.
func (c *DiskCache) Lookup(f *source.File, maxDiagnostics int) (*diag.Bag, bool) {
	if c == nil {
		return nil, false
	}
	var payload DiskPayload
	ok, err := c.Get(f.Hash, &payload)
	if err != nil || !ok || payload.Schema != diskCacheSchemaVersion {
		return nil, false
	}
	return payloadToBag(&payload, f.ID, maxDiagnostics), true
}

// Store пишет результаты проверки документа в кэш. Ошибки записи глотаются:
// кэш - ускорение, не часть результата.
func (c *DiskCache) Store(f *source.File, bag *diag.Bag) {
	if c == nil || bag == nil {
		return
	}
	if err := c.Put(f.Hash, bagToPayload(bag)); err != nil {
		fmt.Fprintf(os.Stderr, "cbslint: cache write failed: %v\n", err)
	}
}

func bagToPayload(bag *diag.Bag) *DiskPayload {
	payload := &DiskPayload{Schema: diskCacheSchemaVersion}
	for _, d := range bag.Items() {
		cached := cachedDiagnostic{
			Severity: uint8(d.Severity),
			Code:     uint16(d.Code),
			Message:  d.Message,
			Start:    d.Primary.Start,
			End:      d.Primary.End,
		}
		for _, note := range d.Notes {
			cached.Notes = append(cached.Notes, cachedNote{
				Message: note.Msg,
				Start:   note.Span.Start,
				End:     note.Span.End,
			})
		}
		for _, fix := range d.Fixes {
			cf := cachedFix{Title: fix.Title}
			for _, edit := range fix.Edits {
				cf.Edits = append(cf.Edits, cachedEdit{
					NewText: edit.NewText,
					Start:   edit.Span.Start,
					End:     edit.Span.End,
				})
			}
			cached.Fixes = append(cached.Fixes, cf)
		}
		payload.Diagnostics = append(payload.Diagnostics, cached)
	}
	return payload
}

func payloadToBag(payload *DiskPayload, id source.FileID, maxDiagnostics int) *diag.Bag {
	bag := diag.NewBag(maxDiagnostics)
	span := func(start, end uint32) source.Span {
		return source.Span{File: id, Start: start, End: end}
	}
	for _, cached := range payload.Diagnostics {
		d := diag.Diagnostic{
			Severity: diag.Severity(cached.Severity),
			Code:     diag.Code(cached.Code),
			Message:  cached.Message,
			Primary:  span(cached.Start, cached.End),
		}
		for _, note := range cached.Notes {
			d.Notes = append(d.Notes, diag.Note{
				Msg:  note.Message,
				Span: span(note.Start, note.End),
			})
		}
		for _, fix := range cached.Fixes {
			f := diag.Fix{Title: fix.Title}
			for _, edit := range fix.Edits {
				f.Edits = append(f.Edits, diag.FixEdit{
					NewText: edit.NewText,
					Span:    span(edit.Start, edit.End),
				})
			}
			d.Fixes = append(d.Fixes, f)
		}
		bag.Add(d)
	}
	return bag
}
