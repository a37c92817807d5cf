package ingestkit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gobeaver/ingestkit/mediatype"
)

// Document is an ingested document ready for persistence.
type Document struct {
	Name      string
	MediaType mediatype.MediaType
	Algorithm ChecksumAlgorithm
	Digest    string // hex digest of Content
	Size      int64
	Content   []byte
	Created   time.Time
}

// Reader returns a reader over the document content.
func (d *Document) Reader() io.Reader {
	return bytes.NewReader(d.Content)
}

// Store persists ingested documents.
type Store interface {
	Put(ctx context.Context, doc *Document) error
}

// StoreFunc adapts a function to the Store interface.
type StoreFunc func(ctx context.Context, doc *Document) error

// Put calls f(ctx, doc).
func (f StoreFunc) Put(ctx context.Context, doc *Document) error {
	return f(ctx, doc)
}

// ============================================================================
// MemoryStore
// ============================================================================

// MemoryStore keeps documents in memory.
// Useful for testing and short-lived pipelines
type MemoryStore struct {
	mu        sync.RWMutex
	docs      map[string]*Document
	maxSize   int64 // Maximum total content size (0 = unlimited)
	size      int64
	overwrite bool
}

// MemoryStoreConfig holds configuration for the memory store
type MemoryStoreConfig struct {
	// MaxSize is the maximum total content size in bytes (0 = unlimited)
	MaxSize int64

	// Overwrite replaces documents stored under the same name
	Overwrite bool
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore(cfg ...MemoryStoreConfig) *MemoryStore {
	s := &MemoryStore{docs: make(map[string]*Document)}
	if len(cfg) > 0 {
		s.maxSize = cfg[0].MaxSize
		s.overwrite = cfg[0].Overwrite
	}
	return s
}

// Put implements Store
func (s *MemoryStore) Put(ctx context.Context, doc *Document) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	name := normalizeName(doc.Name)
	if !isValidName(name) {
		return &PathError{Op: "put", Path: doc.Name, Err: ErrInvalidName}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	newSize := s.size + doc.Size
	if existing, exists := s.docs[name]; exists {
		if !s.overwrite {
			return &PathError{Op: "put", Path: name, Err: ErrExist}
		}
		newSize -= existing.Size
	}

	if s.maxSize > 0 && newSize > s.maxSize {
		return &PathError{Op: "put", Path: name, Err: ErrNoSpace}
	}

	stored := *doc
	stored.Name = name
	stored.Content = append([]byte(nil), doc.Content...)
	if stored.Created.IsZero() {
		stored.Created = time.Now()
	}
	s.docs[name] = &stored
	s.size = newSize

	return nil
}

// Get returns a copy of the named document.
func (s *MemoryStore) Get(ctx context.Context, name string) (*Document, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	name = normalizeName(name)

	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, exists := s.docs[name]
	if !exists {
		return nil, &PathError{Op: "get", Path: name, Err: ErrNotExist}
	}
	out := *doc
	out.Content = append([]byte(nil), doc.Content...)
	return &out, nil
}

// Delete removes the named document.
func (s *MemoryStore) Delete(ctx context.Context, name string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	name = normalizeName(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, exists := s.docs[name]
	if !exists {
		return &PathError{Op: "delete", Path: name, Err: ErrNotExist}
	}
	s.size -= doc.Size
	delete(s.docs, name)
	return nil
}

// Names returns the stored document names, sorted.
func (s *MemoryStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.docs))
	for name := range s.docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Size returns the total content size in bytes.
func (s *MemoryStore) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Clear removes all documents.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[string]*Document)
	s.size = 0
}

// ============================================================================
// DirStore
// ============================================================================

// DirStore writes documents below a root directory. Next to each document it
// writes a checksum file named after the digest algorithm, in the format of
// the sha256sum family of tools.
type DirStore struct {
	root      string
	overwrite bool
}

// DirStoreOption configures a DirStore
type DirStoreOption func(*DirStore)

// WithOverwrite lets Put replace existing documents
func WithOverwrite(overwrite bool) DirStoreOption {
	return func(s *DirStore) {
		s.overwrite = overwrite
	}
}

// NewDirStore creates a store rooted at root
func NewDirStore(root string, opts ...DirStoreOption) *DirStore {
	s := &DirStore{root: filepath.Clean(root)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the store's root directory
func (s *DirStore) Root() string {
	return s.root
}

// Put implements Store
func (s *DirStore) Put(ctx context.Context, doc *Document) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	name := normalizeName(doc.Name)
	if !isValidName(name) {
		return &PathError{Op: "put", Path: doc.Name, Err: ErrInvalidName}
	}

	fullPath := filepath.Join(s.root, filepath.FromSlash(name))

	// Check if the path is under the root
	if !isPathUnderRoot(s.root, fullPath) {
		return &PathError{Op: "put", Path: doc.Name, Err: ErrNotAllowed}
	}

	if !s.overwrite {
		if _, err := os.Stat(fullPath); err == nil {
			return &PathError{Op: "put", Path: name, Err: ErrExist}
		}
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return &PathError{Op: "put", Path: name, Err: err}
	}

	if err := writeFileAtomic(fullPath, doc.Reader()); err != nil {
		return &PathError{Op: "put", Path: name, Err: err}
	}

	if doc.Digest != "" && doc.Algorithm != "" {
		sum := fmt.Sprintf("%s  %s\n", doc.Digest, filepath.Base(fullPath))
		sumPath := fullPath + "." + strings.ToLower(string(doc.Algorithm))
		if err := writeFileAtomic(sumPath, strings.NewReader(sum)); err != nil {
			return &PathError{Op: "put", Path: name, Err: err}
		}
	}

	return nil
}

// writeFileAtomic writes content to a temporary file in the target directory
// and renames it into place.
func writeFileAtomic(path string, content io.Reader) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".ingest-*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func isPathUnderRoot(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}

	return !filepath.IsAbs(rel) && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// normalizeName turns a document name into a clean relative slash path
func normalizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.ToSlash(filepath.Clean("/" + name))
	return strings.TrimPrefix(name, "/")
}

func isValidName(name string) bool {
	return name != "" && name != "." && !strings.Contains(name, "\x00")
}
