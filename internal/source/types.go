package source

type (
	// FileID uniquely identifies a source document within a FileSet.
	FileID uint32 // просто ID документа
	// FileFlags encodes metadata about a source document.
	FileFlags uint8 // метаданные
)

const (
	// FileVirtual indicates the document was added from memory (test, stdin, LSP overlay).
	FileVirtual FileFlags = 1 << iota // добавлен не с диска
	FileHadBOM
	FileNormalizedCRLF
)

// File captures metadata and content for a single document.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol represents a human-readable position in a document.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based
}
