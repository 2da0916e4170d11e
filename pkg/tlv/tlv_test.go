package tlv

import (
	"bytes"
	"encoding/hex"
	"errors"
	"io"
	"testing"
)

func TestWriterEncoding(t *testing.T) {
	tests := []struct {
		name     string
		write    func(w *Writer) error
		expected string
	}{
		{"uint8 anonymous", func(w *Writer) error { return w.PutUint(Anonymous(), 42) }, "042a"},
		{"uint16 context", func(w *Writer) error { return w.PutUint(ContextTag(1), 0x1234) }, "25013412"},
		{"uint32", func(w *Writer) error { return w.PutUint(Anonymous(), 0x10000) }, "0600000100"},
		{"uint64", func(w *Writer) error { return w.PutUint(Anonymous(), 1<<40) }, "070000000000010000"},
		{"true", func(w *Writer) error { return w.PutBool(ContextTag(2), true) }, "2902"},
		{"false", func(w *Writer) error { return w.PutBool(Anonymous(), false) }, "08"},
		{"bytes", func(w *Writer) error { return w.PutBytes(ContextTag(0), []byte{0xaa, 0xbb}) }, "300002aabb"},
		{"empty bytes", func(w *Writer) error { return w.PutBytes(Anonymous(), nil) }, "1000"},
		{"struct", func(w *Writer) error {
			if err := w.StartStructure(Anonymous()); err != nil {
				return err
			}
			if err := w.PutUint(ContextTag(0), 1); err != nil {
				return err
			}
			return w.EndContainer()
		}, "1524000118"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := tt.write(NewWriter(&buf)); err != nil {
				t.Fatalf("write failed: %v", err)
			}
			if got := hex.EncodeToString(buf.Bytes()); got != tt.expected {
				t.Errorf("encoding = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestWriterLongBytes(t *testing.T) {
	var buf bytes.Buffer
	data := bytes.Repeat([]byte{1}, 300)
	if err := NewWriter(&buf).PutBytes(Anonymous(), data); err != nil {
		t.Fatalf("PutBytes failed: %v", err)
	}
	if ElementType(buf.Bytes()[0]) != ElementTypeBytes2 {
		t.Errorf("element type = %v, want Bytes2", ElementType(buf.Bytes()[0]))
	}

	r := NewReader(&buf)
	if err := r.Next(); err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	got, err := r.Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("payload mismatch")
	}
}

func TestStructRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.StartStructure(Anonymous())
	w.PutUint(ContextTag(0), 7)
	w.StartArray(ContextTag(1))
	w.PutBytes(Anonymous(), []byte("a"))
	w.PutBytes(Anonymous(), []byte("bc"))
	w.EndContainer()
	w.PutBool(ContextTag(2), true)
	if err := w.EndContainer(); err != nil {
		t.Fatalf("EndContainer failed: %v", err)
	}
	if w.ContainerDepth() != 0 {
		t.Fatalf("depth = %d after closing", w.ContainerDepth())
	}

	r := NewReader(bytes.NewReader(buf.Bytes()))
	if err := r.Next(); err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if err := r.EnterContainer(); err != nil {
		t.Fatalf("EnterContainer failed: %v", err)
	}

	var (
		num   uint64
		items [][]byte
		flag  bool
	)
	for {
		if err := r.Next(); err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if r.IsEndOfContainer() {
			break
		}
		switch r.Tag().TagNumber() {
		case 0:
			num, _ = r.Uint()
		case 1:
			if err := r.EnterContainer(); err != nil {
				t.Fatalf("EnterContainer failed: %v", err)
			}
			for {
				if err := r.Next(); err != nil {
					t.Fatalf("Next failed: %v", err)
				}
				if r.IsEndOfContainer() {
					break
				}
				b, err := r.Bytes()
				if err != nil {
					t.Fatalf("Bytes failed: %v", err)
				}
				items = append(items, b)
			}
			if err := r.ExitContainer(); err != nil {
				t.Fatalf("ExitContainer failed: %v", err)
			}
		case 2:
			flag, _ = r.Bool()
		}
	}
	if err := r.ExitContainer(); err != nil {
		t.Fatalf("ExitContainer failed: %v", err)
	}

	if num != 7 || len(items) != 2 || string(items[1]) != "bc" || !flag {
		t.Errorf("decoded num=%d items=%q flag=%v", num, items, flag)
	}
	if err := r.Next(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestReaderErrors(t *testing.T) {
	t.Run("type mismatch", func(t *testing.T) {
		r := NewReader(bytes.NewReader([]byte{0x04, 0x01}))
		r.Next()
		if _, err := r.Bytes(); !errors.Is(err, ErrTypeMismatch) {
			t.Errorf("got %v, want ErrTypeMismatch", err)
		}
	})
	t.Run("value read twice", func(t *testing.T) {
		r := NewReader(bytes.NewReader([]byte{0x04, 0x01}))
		r.Next()
		r.Uint()
		if _, err := r.Uint(); !errors.Is(err, ErrValueAlreadyRead) {
			t.Errorf("got %v, want ErrValueAlreadyRead", err)
		}
	})
	t.Run("no element", func(t *testing.T) {
		r := NewReader(bytes.NewReader(nil))
		if _, err := r.Uint(); !errors.Is(err, ErrNoElement) {
			t.Errorf("got %v, want ErrNoElement", err)
		}
	})
	t.Run("invalid element type", func(t *testing.T) {
		r := NewReader(bytes.NewReader([]byte{0x0a}))
		if err := r.Next(); !errors.Is(err, ErrInvalidElementType) {
			t.Errorf("got %v, want ErrInvalidElementType", err)
		}
	})
	t.Run("profile tag", func(t *testing.T) {
		r := NewReader(bytes.NewReader([]byte{0x44, 0x00, 0x00, 0x01}))
		if err := r.Next(); !errors.Is(err, ErrInvalidTagControl) {
			t.Errorf("got %v, want ErrInvalidTagControl", err)
		}
	})
	t.Run("truncated value", func(t *testing.T) {
		r := NewReader(bytes.NewReader([]byte{0x05, 0x01}))
		if err := r.Next(); !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("got %v, want io.ErrUnexpectedEOF", err)
		}
	})
	t.Run("oversized bytes", func(t *testing.T) {
		r := NewReader(bytes.NewReader([]byte{0x10, 0x05, 1, 2, 3, 4, 5}))
		r.SetMaxBytes(4)
		if err := r.Next(); !errors.Is(err, ErrTooLarge) {
			t.Errorf("got %v, want ErrTooLarge", err)
		}
	})
	t.Run("unclosed container", func(t *testing.T) {
		r := NewReader(bytes.NewReader([]byte{0x15, 0x04, 0x01}))
		r.Next()
		r.EnterContainer()
		if err := r.ExitContainer(); !errors.Is(err, ErrUnclosedContainer) {
			t.Errorf("got %v, want ErrUnclosedContainer", err)
		}
	})
	t.Run("end outside container", func(t *testing.T) {
		if err := NewWriter(io.Discard).EndContainer(); !errors.Is(err, ErrNotInContainer) {
			t.Errorf("got %v, want ErrNotInContainer", err)
		}
	})
}

func TestSkipNested(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.StartStructure(Anonymous())
	w.StartStructure(ContextTag(5))
	w.PutBytes(ContextTag(0), []byte("skipped"))
	w.EndContainer()
	w.PutUint(ContextTag(1), 99)
	w.EndContainer()

	r := NewReader(&buf)
	r.Next()
	r.EnterContainer()
	r.Next()
	if err := r.Skip(); err != nil {
		t.Fatalf("Skip failed: %v", err)
	}
	if err := r.Next(); err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if v, err := r.Uint(); err != nil || v != 99 {
		t.Errorf("Uint = %d, %v; want 99", v, err)
	}
}
