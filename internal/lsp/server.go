// Package lsp implements a stdio JSON-RPC language server for curly-brace
// template documents: диагностики с дебаунсом на документ, hover и
// автодополнение по реестру команд, подсказка сигнатур, find-references для
// переменных и фолдинг блоков.
package lsp

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"cbslint/internal/diag"
	"cbslint/internal/lint"
	"cbslint/internal/registry"
	"cbslint/internal/source"
)

var (
	// ErrExit signals a graceful shutdown after receiving "exit".
	ErrExit = errors.New("lsp exit")
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
)

// ServerOptions configures LSP server behavior.
type ServerOptions struct {
	Debounce       time.Duration
	Registry       *registry.Registry
	MaxDiagnostics int
	Lint           lint.Options
}

// Server handles stdio JSON-RPC for the cbslint LSP.
//
// Диагностики считаются на документ: каждая правка перезапускает таймер
// этого документа, не трогая остальные. Сам прогон — чистая функция
// (текст, реестр) → диагностики, поэтому никакого общего снапшота нет.
type Server struct {
	in     *bufio.Reader
	out    *bufio.Writer
	sendMu sync.Mutex
	mu     sync.Mutex

	openDocs  map[string]string
	versions  map[string]int
	timers    map[string]*time.Timer
	published map[string]struct{}

	workspaceRoot     string
	shutdownRequested bool
	debounce          time.Duration
	reg               *registry.Registry
	maxDiagnostics    int
	lintOpts          lint.Options
}

// NewServer constructs a new LSP server.
func NewServer(in io.Reader, out io.Writer, opts ServerOptions) *Server {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	reg := opts.Registry
	if reg == nil {
		reg = registry.Default()
	}
	maxDiagnostics := opts.MaxDiagnostics
	if maxDiagnostics <= 0 {
		maxDiagnostics = 100
	}
	return &Server{
		in:             bufio.NewReader(in),
		out:            bufio.NewWriter(out),
		openDocs:       make(map[string]string),
		versions:       make(map[string]int),
		timers:         make(map[string]*time.Timer),
		published:      make(map[string]struct{}),
		debounce:       debounce,
		reg:            reg,
		maxDiagnostics: maxDiagnostics,
		lintOpts:       opts.Lint,
	}
}

// Run serves LSP requests until shutdown.
func (s *Server) Run() error {
	for {
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logf("failed to parse message: %v", err)
			continue
		}
		if msg.Method == "" {
			continue
		}
		if err := s.handleMessage(&msg); err != nil {
			return err
		}
	}
}

func (s *Server) handleMessage(msg *rpcMessage) error {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		if s.shutdownRequested {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	case "workspace/didChangeConfiguration":
		return s.handleDidChangeConfiguration(msg)
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/hover":
		return s.handleHover(msg)
	case "textDocument/completion":
		return s.handleCompletion(msg)
	case "textDocument/signatureHelp":
		return s.handleSignatureHelp(msg)
	case "textDocument/references":
		return s.handleReferences(msg)
	case "textDocument/foldingRange":
		return s.handleFoldingRange(msg)
	default:
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, -32601, "method not found")
		}
		return nil
	}
}

func (s *Server) handleInitialize(msg *rpcMessage) error {
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, -32602, "invalid params")
		}
	}
	root := ""
	if params.RootURI != "" {
		root = uriToPath(params.RootURI)
	}
	if root == "" && params.RootPath != "" {
		root = params.RootPath
	}
	if root == "" && len(params.WorkspaceFolders) > 0 {
		root = uriToPath(params.WorkspaceFolders[0].URI)
	}
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}
	s.mu.Lock()
	s.workspaceRoot = root
	s.mu.Unlock()
	s.loadProjectConfig(root)

	result := initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    2,
				Save: saveOptions{
					IncludeText: true,
				},
			},
			HoverProvider:      true,
			ReferencesProvider: true,
			CompletionProvider: &completionOptions{
				TriggerCharacters: []string{"{", "#", ":"},
			},
			SignatureHelpProvider: &signatureHelpOptions{
				TriggerCharacters: []string{":"},
			},
			FoldingRangeProvider: true,
		},
	}
	return s.sendResponse(msg.ID, result)
}

// loadProjectConfig подхватывает cbslint.toml из корня рабочей области:
// пользовательские команды и лимиты.
func (s *Server) loadProjectConfig(root string) {
	if root == "" {
		return
	}
	path, found, err := registry.FindConfig(root)
	if err != nil || !found {
		return
	}
	cfg, err := registry.LoadConfig(path)
	if err != nil {
		s.logf("failed to load %s: %v", path, err)
		return
	}
	s.mu.Lock()
	s.reg.Extend(cfg.Commands)
	if cfg.Limits.MaxDiagnostics > 0 {
		s.maxDiagnostics = cfg.Limits.MaxDiagnostics
	}
	if cfg.Limits.MaxNesting > 0 {
		s.lintOpts.MaxNesting = cfg.Limits.MaxNesting
	}
	if cfg.Limits.DebounceMillis > 0 {
		s.debounce = time.Duration(cfg.Limits.DebounceMillis) * time.Millisecond
	}
	s.mu.Unlock()
}

func (s *Server) handleShutdown(msg *rpcMessage) error {
	s.mu.Lock()
	s.shutdownRequested = true
	for uri, timer := range s.timers {
		timer.Stop()
		delete(s.timers, uri)
	}
	published := make([]string, 0, len(s.published))
	for uri := range s.published {
		published = append(published, uri)
		delete(s.published, uri)
	}
	s.mu.Unlock()
	for _, uri := range published {
		if err := s.sendPublish(uri, nil); err != nil {
			s.logf("failed to clear diagnostics: %v", err)
		}
	}
	return s.sendResponse(msg.ID, nil)
}

func (s *Server) handleDidChangeConfiguration(msg *rpcMessage) error {
	var params didChangeConfigurationParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil
	}
	var settings lspSettings
	if err := json.Unmarshal(params.Settings, &settings); err != nil {
		return nil
	}
	s.mu.Lock()
	if v := settings.Cbslint.MaxDiagnostics; v != nil && *v > 0 {
		s.maxDiagnostics = *v
	}
	if v := settings.Cbslint.MaxNesting; v != nil && *v > 0 {
		s.lintOpts.MaxNesting = *v
	}
	if v := settings.Cbslint.DebounceMillis; v != nil && *v > 0 {
		s.debounce = time.Duration(*v) * time.Millisecond
	}
	uris := make([]string, 0, len(s.openDocs))
	for uri := range s.openDocs {
		uris = append(uris, uri)
	}
	s.mu.Unlock()
	for _, uri := range uris {
		s.scheduleDiagnostics(uri)
	}
	return nil
}

func (s *Server) handleDidOpen(msg *rpcMessage) error {
	var params didOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	s.openDocs[uri] = params.TextDocument.Text
	s.versions[uri] = params.TextDocument.Version
	s.mu.Unlock()
	s.scheduleDiagnostics(uri)
	return nil
}

func (s *Server) handleDidChange(msg *rpcMessage) error {
	var params didChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	text := s.openDocs[uri]
	text = applyChanges(text, params.ContentChanges)
	s.openDocs[uri] = text
	s.versions[uri] = params.TextDocument.Version
	s.mu.Unlock()
	s.scheduleDiagnostics(uri)
	return nil
}

func (s *Server) handleDidSave(msg *rpcMessage) error {
	var params didSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	if params.Text != nil {
		s.openDocs[uri] = *params.Text
	}
	s.mu.Unlock()
	s.scheduleDiagnostics(uri)
	return nil
}

func (s *Server) handleDidClose(msg *rpcMessage) error {
	var params didCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	delete(s.openDocs, uri)
	delete(s.versions, uri)
	if timer, ok := s.timers[uri]; ok {
		timer.Stop()
		delete(s.timers, uri)
	}
	_, hadDiagnostics := s.published[uri]
	delete(s.published, uri)
	s.mu.Unlock()
	if hadDiagnostics {
		if err := s.sendPublish(uri, nil); err != nil {
			s.logf("failed to clear diagnostics: %v", err)
		}
	}
	return nil
}

// scheduleDiagnostics (пере)запускает таймер дебаунса документа. Правка
// другого документа чужой таймер не трогает.
func (s *Server) scheduleDiagnostics(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdownRequested {
		return
	}
	if timer, ok := s.timers[uri]; ok {
		timer.Stop()
	}
	s.timers[uri] = time.AfterFunc(s.debounce, func() {
		s.publishFor(uri)
	})
}

// publishFor прогоняет чекеры над текущим оверлеем документа и публикует
// результат.
func (s *Server) publishFor(uri string) {
	s.mu.Lock()
	text, open := s.openDocs[uri]
	reg := s.reg
	maxDiagnostics := s.maxDiagnostics
	lintOpts := s.lintOpts
	delete(s.timers, uri)
	s.mu.Unlock()
	if !open {
		return
	}

	file := fileForText(uriToPath(uri), text)
	bag := lint.RunBag(file, reg, maxDiagnostics, lintOpts)

	list := make([]lspDiagnostic, 0, bag.Len())
	for _, d := range bag.Items() {
		list = append(list, lspDiagnostic{
			Range:    rangeForSpan(file, d.Primary),
			Severity: lspSeverity(d.Severity),
			Code:     d.Code.ID(),
			Source:   "cbslint",
			Message:  d.Message,
		})
	}

	s.mu.Lock()
	if _, stillOpen := s.openDocs[uri]; !stillOpen {
		s.mu.Unlock()
		return
	}
	s.published[uri] = struct{}{}
	s.mu.Unlock()

	if err := s.sendPublish(uri, list); err != nil {
		s.logf("failed to publish diagnostics: %v", err)
	}
}

// fileForText строит одноразовый File для оверлея.
func fileForText(name string, text string) *source.File {
	fileSet := source.NewFileSet()
	id := fileSet.AddVirtual(name, []byte(text))
	return fileSet.Get(id)
}

func lspSeverity(sev diag.Severity) int {
	switch sev {
	case diag.SevError:
		return 1
	case diag.SevWarning:
		return 2
	default:
		return 3
	}
}

// documentFile возвращает File для открытого документа, либо nil.
func (s *Server) documentFile(uri string) *source.File {
	s.mu.Lock()
	text, ok := s.openDocs[uri]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return fileForText(uriToPath(uri), text)
}

func (s *Server) registry() *registry.Registry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"result":  result,
	}
	return s.send(msg)
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"error": rpcError{
			Code:    code,
			Message: message,
		},
	}
	return s.send(msg)
}

func (s *Server) sendPublish(uri string, list []lspDiagnostic) error {
	if list == nil {
		list = []lspDiagnostic{}
	}
	msg := map[string]any{
		"jsonrpc": "2.0",
		"method":  "textDocument/publishDiagnostics",
		"params": publishDiagnosticsParams{
			URI:         uri,
			Diagnostics: list,
		},
	}
	return s.send(msg)
}

func (s *Server) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}

func (s *Server) logf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "lsp: "+format+"\n", args...)
}
