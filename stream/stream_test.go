package stream

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"hash"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

const emptySHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func TestMarkableReader(t *testing.T) {
	t.Run("reset replays marked bytes", func(t *testing.T) {
		m := NewMarkableReader(strings.NewReader("hello world"), 0)
		m.Mark(16)

		head := make([]byte, 5)
		if _, err := io.ReadFull(m, head); err != nil {
			t.Fatalf("ReadFull() error = %v", err)
		}
		if err := m.Reset(); err != nil {
			t.Fatalf("Reset() error = %v", err)
		}

		all, err := io.ReadAll(m)
		if err != nil {
			t.Fatalf("ReadAll() error = %v", err)
		}
		if string(all) != "hello world" {
			t.Errorf("ReadAll() = %q, want %q", all, "hello world")
		}
	})

	t.Run("reset without mark", func(t *testing.T) {
		m := NewMarkableReader(strings.NewReader("abc"), 0)
		if err := m.Reset(); !errors.Is(err, ErrResetWithoutMark) {
			t.Errorf("Reset() error = %v, want %v", err, ErrResetWithoutMark)
		}
	})

	t.Run("read past limit invalidates mark", func(t *testing.T) {
		m := NewMarkableReader(strings.NewReader("abcdef"), 0)
		m.Mark(2)

		buf := make([]byte, 3)
		if _, err := io.ReadFull(m, buf); err != nil {
			t.Fatalf("ReadFull() error = %v", err)
		}
		if err := m.Reset(); !errors.Is(err, ErrMarkInvalidated) {
			t.Errorf("Reset() error = %v, want %v", err, ErrMarkInvalidated)
		}

		rest, _ := io.ReadAll(m)
		if string(rest) != "def" {
			t.Errorf("remaining = %q, want %q", rest, "def")
		}
	})

	t.Run("mark during replay keeps pending bytes", func(t *testing.T) {
		m := NewMarkableReader(strings.NewReader("abcdef"), 0)
		m.Mark(10)
		buf := make([]byte, 4)
		io.ReadFull(m, buf)
		m.Reset()

		io.ReadFull(m, buf[:2])
		m.Mark(10)
		if _, err := io.ReadFull(m, buf); err != nil {
			t.Fatalf("ReadFull() error = %v", err)
		}
		if string(buf) != "cdef" {
			t.Fatalf("after second mark = %q, want %q", buf, "cdef")
		}
		if err := m.Reset(); err != nil {
			t.Fatalf("Reset() error = %v", err)
		}
		rest, _ := io.ReadAll(m)
		if string(rest) != "cdef" {
			t.Errorf("replay = %q, want %q", rest, "cdef")
		}
	})

	t.Run("skip is recorded", func(t *testing.T) {
		m := NewMarkableReader(strings.NewReader("0123456789"), 0)
		m.Mark(10)
		n, err := m.Skip(4)
		if err != nil || n != 4 {
			t.Fatalf("Skip() = %d, %v; want 4, nil", n, err)
		}
		b, _ := m.ReadByte()
		if b != '4' {
			t.Errorf("ReadByte() = %q, want '4'", b)
		}
		m.Reset()
		b, _ = m.ReadByte()
		if b != '0' {
			t.Errorf("ReadByte() after reset = %q, want '0'", b)
		}
	})

	t.Run("wrapping a markable reader returns it", func(t *testing.T) {
		m := NewMarkableReader(strings.NewReader("x"), 0)
		if got := NewMarkableReader(m, 8); got != m {
			t.Error("NewMarkableReader() rewrapped an existing MarkableReader")
		}
	})
}

func TestSkip(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		n       int64
		want    int64
		wantErr error
	}{
		{name: "zero", data: "abc", n: 0, want: 0},
		{name: "partial", data: "abcdef", n: 4, want: 4},
		{name: "exact", data: "abc", n: 3, want: 3},
		{name: "past end", data: "abc", n: 10, want: 3, wantErr: io.EOF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Skip(strings.NewReader(tt.data), tt.n)
			if got != tt.want {
				t.Errorf("Skip() = %d, want %d", got, tt.want)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Skip() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLengthGuardRead(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		limit   int64
		wantErr bool
	}{
		{name: "under limit", size: 10, limit: 20},
		{name: "at limit", size: 20, limit: 20},
		{name: "over limit", size: 21, limit: 20, wantErr: true},
		{name: "no limit", size: 1 << 16, limit: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := bytes.Repeat([]byte{'x'}, tt.size)
			g := NewLengthGuard(bytes.NewReader(data), MaxSize(tt.limit))

			got, err := io.ReadAll(g)
			if tt.wantErr {
				var sizeErr *SizeLimitError
				if !errors.As(err, &sizeErr) {
					t.Fatalf("ReadAll() error = %v, want *SizeLimitError", err)
				}
				if !errors.Is(err, ErrSizeLimitExceeded) {
					t.Errorf("errors.Is(err, ErrSizeLimitExceeded) = false")
				}
				if sizeErr.Limit != tt.limit {
					t.Errorf("SizeLimitError.Limit = %d, want %d", sizeErr.Limit, tt.limit)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if !bytes.Equal(got, data) {
				t.Error("guard altered the bytes it delivered")
			}
			if g.Count() != int64(tt.size) {
				t.Errorf("Count() = %d, want %d", g.Count(), tt.size)
			}
		})
	}
}

func TestLengthGuardFailsOnOffendingRead(t *testing.T) {
	data := bytes.Repeat([]byte{'a'}, 11)
	g := NewLengthGuard(iotest.OneByteReader(bytes.NewReader(data)), MaxSize(10))

	buf := make([]byte, 4)
	for i := 1; i <= 10; i++ {
		if _, err := g.Read(buf); err != nil {
			t.Fatalf("read %d: unexpected error %v", i, err)
		}
	}
	n, err := g.Read(buf)
	if n != 1 || !errors.Is(err, ErrSizeLimitExceeded) {
		t.Fatalf("read 11 = %d, %v; want 1, ErrSizeLimitExceeded", n, err)
	}

	var sizeErr *SizeLimitError
	if errors.As(err, &sizeErr) && sizeErr.Size != 11 {
		t.Errorf("SizeLimitError.Size = %d, want 11", sizeErr.Size)
	}
}

func TestLengthGuardCountsZeroBytes(t *testing.T) {
	g := NewLengthGuard(bytes.NewReader([]byte{0, 0, 7}), nil)

	for i := 0; i < 3; i++ {
		if _, err := g.ReadByte(); err != nil {
			t.Fatalf("ReadByte() error = %v", err)
		}
	}
	if _, err := g.ReadByte(); err != io.EOF {
		t.Fatalf("ReadByte() at end error = %v, want io.EOF", err)
	}
	if g.Count() != 3 {
		t.Errorf("Count() = %d, want 3", g.Count())
	}
}

func TestLengthGuardSkip(t *testing.T) {
	var seen []int64
	validate := func(total int64) error {
		seen = append(seen, total)
		return nil
	}
	g := NewLengthGuard(strings.NewReader("0123456789"), validate)

	n, err := g.Skip(6)
	if err != nil || n != 6 {
		t.Fatalf("Skip() = %d, %v; want 6, nil", n, err)
	}
	n, err = g.Skip(10)
	if n != 4 || err != io.EOF {
		t.Fatalf("Skip() past end = %d, %v; want 4, io.EOF", n, err)
	}
	if g.Count() != 10 {
		t.Errorf("Count() = %d, want 10", g.Count())
	}
	if len(seen) == 0 || seen[len(seen)-1] != 10 {
		t.Errorf("validator saw %v, want last total 10", seen)
	}
}

func TestLengthGuardMarkReset(t *testing.T) {
	g := NewLengthGuard(NewMarkableReader(strings.NewReader("abcdefghij"), 0), nil)
	if !g.MarkSupported() {
		t.Fatal("MarkSupported() = false over a MarkableReader")
	}

	buf := make([]byte, 3)
	io.ReadFull(g, buf)
	g.Mark(8)
	buf = make([]byte, 4)
	io.ReadFull(g, buf)
	if g.Count() != 7 {
		t.Fatalf("Count() = %d, want 7", g.Count())
	}

	if err := g.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if g.Count() != 3 {
		t.Errorf("Count() after reset = %d, want 3", g.Count())
	}

	rest, _ := io.ReadAll(g)
	if string(rest) != "defghij" {
		t.Errorf("rest = %q, want %q", rest, "defghij")
	}
	if g.Count() != 10 {
		t.Errorf("Count() at end = %d, want 10", g.Count())
	}
}

func TestLengthGuardResetUnsupported(t *testing.T) {
	g := NewLengthGuard(strings.NewReader("abc"), nil)
	if g.MarkSupported() {
		t.Error("MarkSupported() = true over a plain reader")
	}
	if err := g.Reset(); !errors.Is(err, ErrMarkNotSupported) {
		t.Errorf("Reset() error = %v, want %v", err, ErrMarkNotSupported)
	}
}

func TestDigestReaderReadModes(t *testing.T) {
	data := []byte("The quick brown fox jumps over the lazy dog")
	want := sha256Hex(data)

	tests := []struct {
		name    string
		consume func(d *DigestReader) error
	}{
		{
			name: "block",
			consume: func(d *DigestReader) error {
				_, err := io.Copy(io.Discard, d)
				return err
			},
		},
		{
			name: "byte by byte",
			consume: func(d *DigestReader) error {
				for {
					if _, err := d.ReadByte(); err == io.EOF {
						return nil
					} else if err != nil {
						return err
					}
				}
			},
		},
		{
			name: "skip",
			consume: func(d *DigestReader) error {
				_, err := d.Skip(int64(len(data)))
				return err
			},
		},
		{
			name: "mixed",
			consume: func(d *DigestReader) error {
				if _, err := d.ReadByte(); err != nil {
					return err
				}
				if _, err := d.Skip(10); err != nil {
					return err
				}
				_, err := io.ReadAll(d)
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDigestReader(bytes.NewReader(data))
			if err := tt.consume(d); err != nil {
				t.Fatalf("consume error = %v", err)
			}
			if got := d.DigestHex(); got != want {
				t.Errorf("DigestHex() = %s, want %s", got, want)
			}
		})
	}
}

func TestDigestReaderDigestResets(t *testing.T) {
	d := NewDigestReader(strings.NewReader("abc"))
	io.Copy(io.Discard, d)

	if got := d.DigestHex(); got != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Errorf("first DigestHex() = %s", got)
	}
	if got := d.DigestHex(); got != emptySHA256 {
		t.Errorf("second DigestHex() = %s, want empty digest %s", got, emptySHA256)
	}
}

func TestDigestReaderMarkReset(t *testing.T) {
	d := NewDigestReader(NewMarkableReader(strings.NewReader("hello world"), 0))
	if !d.MarkSupported() {
		t.Fatal("MarkSupported() = false with SHA-256 over a MarkableReader")
	}

	head := make([]byte, 5)
	io.ReadFull(d, head)
	d.Mark(16)
	io.Copy(io.Discard, d)

	if err := d.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	rest, _ := io.ReadAll(d)
	if string(rest) != " world" {
		t.Fatalf("rest = %q, want %q", rest, " world")
	}
	if got, want := d.DigestHex(), sha256Hex([]byte("hello world")); got != want {
		t.Errorf("DigestHex() = %s, want %s", got, want)
	}
}

func TestDigestReaderResetWithoutMarkClearsHash(t *testing.T) {
	m := NewMarkableReader(strings.NewReader("abcdef"), 0)
	m.Mark(10)
	d := NewDigestReader(m)

	io.Copy(io.Discard, d)
	if err := d.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if got := d.DigestHex(); got != emptySHA256 {
		t.Errorf("DigestHex() = %s, want empty digest", got)
	}
}

// opaqueHash hides the BinaryMarshaler implementation of the wrapped hash.
type opaqueHash struct {
	hash.Hash
}

func TestDigestReaderMarkUnsupported(t *testing.T) {
	tests := []struct {
		name string
		d    *DigestReader
	}{
		{
			name: "source cannot mark",
			d:    NewDigestReader(strings.NewReader("abc")),
		},
		{
			name: "hash cannot snapshot",
			d:    NewDigestReaderWithHash(NewMarkableReader(strings.NewReader("abc"), 0), opaqueHash{sha256.New()}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.d.MarkSupported() {
				t.Error("MarkSupported() = true")
			}
			tt.d.Mark(10)
			if err := tt.d.Reset(); !errors.Is(err, ErrMarkNotSupported) {
				t.Errorf("Reset() error = %v, want %v", err, ErrMarkNotSupported)
			}
		})
	}
}

func TestDecoratorsStacked(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789"), 100)
	src := NewMarkableReader(bytes.NewReader(data), 64)
	g := NewLengthGuard(src, MaxSize(int64(len(data))))
	d := NewDigestReader(g)

	d.Mark(512)
	peek := make([]byte, 512)
	if _, err := io.ReadFull(d, peek); err != nil {
		t.Fatalf("ReadFull() error = %v", err)
	}
	if err := d.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if g.Count() != 0 {
		t.Errorf("Count() after reset = %d, want 0", g.Count())
	}

	got, err := io.ReadAll(d)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("stacked decorators altered the bytes")
	}
	if g.Count() != int64(len(data)) {
		t.Errorf("Count() = %d, want %d", g.Count(), len(data))
	}
	if d.DigestHex() != sha256Hex(data) {
		t.Error("digest differs from digest of the raw bytes")
	}
}
