package ingestkit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gobeaver/ingestkit/mediatype"
)

func testDocument(name, content string) *Document {
	return &Document{
		Name:      name,
		MediaType: mediatype.TextPlain,
		Algorithm: ChecksumSHA256,
		Digest:    sha256Hex([]byte(content)),
		Size:      int64(len(content)),
		Content:   []byte(content),
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     MemoryStoreConfig
		docs    []*Document
		wantErr error
	}{
		{name: "single", docs: []*Document{testDocument("a.txt", "a")}},
		{name: "nested name", docs: []*Document{testDocument("x/y/z.txt", "z")}},
		{name: "duplicate", docs: []*Document{testDocument("a.txt", "a"), testDocument("/a.txt", "b")}, wantErr: ErrExist},
		{name: "overwrite", cfg: MemoryStoreConfig{Overwrite: true}, docs: []*Document{testDocument("a.txt", "a"), testDocument("a.txt", "bb")}},
		{name: "max size", cfg: MemoryStoreConfig{MaxSize: 3}, docs: []*Document{testDocument("a.txt", "aa"), testDocument("b.txt", "bb")}, wantErr: ErrNoSpace},
		{name: "empty name", docs: []*Document{testDocument("", "a")}, wantErr: ErrInvalidName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewMemoryStore(tt.cfg)
			var err error
			for _, doc := range tt.docs {
				if err = s.Put(ctx, doc); err != nil {
					break
				}
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Put() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Put() error = %v", err)
			}

			last := tt.docs[len(tt.docs)-1]
			got, err := s.Get(ctx, last.Name)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if string(got.Content) != string(last.Content) || got.Digest != last.Digest {
				t.Errorf("Get() = %+v, want %+v", got, last)
			}
			if got.Created.IsZero() {
				t.Error("Created not set")
			}
			if s.Size() != last.Size && len(tt.docs) == 1 {
				t.Errorf("Size() = %d, want %d", s.Size(), last.Size)
			}
		})
	}
}

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_ = s.Put(ctx, testDocument("b.txt", "bb"))
	_ = s.Put(ctx, testDocument("a.txt", "a"))

	if got := s.Names(); len(got) != 2 || got[0] != "a.txt" || got[1] != "b.txt" {
		t.Errorf("Names() = %v", got)
	}
	if s.Size() != 3 {
		t.Errorf("Size() = %d, want 3", s.Size())
	}

	if err := s.Delete(ctx, "b.txt"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.Delete(ctx, "b.txt"); !IsNotExist(err) {
		t.Errorf("second Delete() error = %v, want ErrNotExist", err)
	}
	if _, err := s.Get(ctx, "b.txt"); !IsNotExist(err) {
		t.Errorf("Get() error = %v, want ErrNotExist", err)
	}
	if s.Size() != 1 {
		t.Errorf("Size() = %d, want 1", s.Size())
	}

	s.Clear()
	if len(s.Names()) != 0 || s.Size() != 0 {
		t.Error("Clear() left documents behind")
	}
}

func TestMemoryStoreConcurrency(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Put(ctx, testDocument(filepath.Join("docs", string(rune('a'+i%26)), "f.txt"), "x"))
		}(i)
	}
	wg.Wait()

	if got := len(s.Names()); got != 26 {
		t.Errorf("stored %d documents, want 26", got)
	}
}

func TestDirStore(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := NewDirStore(root)

	doc := testDocument("inbox/a.txt", "hello")
	if err := s.Put(ctx, doc); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "inbox", "a.txt"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("content = %q, want hello", data)
	}

	sum, err := os.ReadFile(filepath.Join(root, "inbox", "a.txt.sha256"))
	if err != nil {
		t.Fatalf("checksum file: %v", err)
	}
	if want := doc.Digest + "  a.txt\n"; string(sum) != want {
		t.Errorf("checksum file = %q, want %q", sum, want)
	}

	if err := s.Put(ctx, doc); !IsExist(err) {
		t.Errorf("second Put() error = %v, want ErrExist", err)
	}
	if err := NewDirStore(root, WithOverwrite(true)).Put(ctx, testDocument("inbox/a.txt", "bye")); err != nil {
		t.Errorf("Put() with overwrite error = %v", err)
	}

	// Traversal is folded into the root
	if err := s.Put(ctx, testDocument("../../escape.txt", "x")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "escape.txt")); err != nil {
		t.Errorf("escaped document not stored under root: %v", err)
	}

	if err := s.Put(ctx, testDocument("/", "x")); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Put(/) error = %v, want ErrInvalidName", err)
	}
}

func TestDirStoreCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NewDirStore(t.TempDir()).Put(ctx, testDocument("a.txt", "a")); !errors.Is(err, context.Canceled) {
		t.Errorf("Put() error = %v, want context.Canceled", err)
	}
}
