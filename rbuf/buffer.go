// Package rbuf provides the cursor over a branch's raw bytes that readers
// decode from.  All multi-byte values on the wire are big endian.  The fast
// primitive reads do no bounds checking of their own; the per-entry length
// validation in the driver is the backstop against malformed input.
package rbuf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"sort"
)

const (
	// NewClassTag in an object header announces a class name in place of a
	// back reference to a previously streamed class.
	NewClassTag = 0xFFFFFFFF
	// ByteCountMask is the mandatory marker bit of a byte-count word; the
	// low 30 bits hold the count.
	ByteCountMask = 0x40000000
	// IsReferenced in a TObject bit field signals a trailing process-id
	// reference.
	IsReferenced = 1 << 4
)

// ErrByteCountMarker reports a byte-count word without its marker bit, which
// means the cursor is not where the reader tree thinks it is.
var ErrByteCountMarker = errors.New("invalid byte count: marker bit missing")

// Buffer is a cursor over the concatenated event bytes of one branch.
// offsets has one more entry than there are events; event i occupies
// data[offsets[i]:offsets[i+1]].
type Buffer struct {
	data    []byte
	offsets []uint32
	pos     int
}

func New(data []byte, offsets []uint32) *Buffer {
	return &Buffer{data: data, offsets: offsets}
}

func (b *Buffer) Uint8() uint8 {
	v := b.data[b.pos]
	b.pos++
	return v
}

func (b *Buffer) Uint16() uint16 {
	v := binary.BigEndian.Uint16(b.data[b.pos:])
	b.pos += 2
	return v
}

func (b *Buffer) Uint32() uint32 {
	v := binary.BigEndian.Uint32(b.data[b.pos:])
	b.pos += 4
	return v
}

func (b *Buffer) Uint64() uint64 {
	v := binary.BigEndian.Uint64(b.data[b.pos:])
	b.pos += 8
	return v
}

func (b *Buffer) Int8() int8   { return int8(b.Uint8()) }
func (b *Buffer) Int16() int16 { return int16(b.Uint16()) }
func (b *Buffer) Int32() int32 { return int32(b.Uint32()) }
func (b *Buffer) Int64() int64 { return int64(b.Uint64()) }

func (b *Buffer) Float32() float32 { return math.Float32frombits(b.Uint32()) }
func (b *Buffer) Float64() float64 { return math.Float64frombits(b.Uint64()) }

// Bool reads one byte, normalizing any nonzero value to true.
func (b *Buffer) Bool() bool { return b.Uint8() != 0 }

// Skip advances the cursor n bytes without interpreting them.
func (b *Buffer) Skip(n int) { b.pos += n }

// Bytes returns the next n raw bytes and advances the cursor past them.
// The slice aliases the underlying data; callers that retain it must copy.
func (b *Buffer) Bytes(n int) []byte {
	v := b.data[b.pos : b.pos+n]
	b.pos += n
	return v
}

// ReadNBytes reads a byte-count word, validates its marker bit, and returns
// the 30-bit count of bytes that follow (the version word included).
func (b *Buffer) ReadNBytes() (uint32, error) {
	v := b.Uint32()
	if v&ByteCountMask == 0 {
		return 0, ErrByteCountMarker
	}
	return v & (ByteCountMask - 1), nil
}

// ReadVersion reads the two-byte signed version that follows a byte count.
func (b *Buffer) ReadVersion() int16 {
	return b.Int16()
}

// ReadStringLength reads a short-string length prefix: a single byte, or a
// four-byte length when the byte is 255.
func (b *Buffer) ReadStringLength() uint32 {
	n := uint32(b.Uint8())
	if n == 255 {
		n = b.Uint32()
	}
	return n
}

// ReadNullTerminated returns the bytes from the cursor up to, but not
// including, the next zero byte and leaves the cursor just past it.
func (b *Buffer) ReadNullTerminated() []byte {
	i := bytes.IndexByte(b.data[b.pos:], 0)
	v := b.data[b.pos : b.pos+i]
	b.pos += i + 1
	return v
}

// ReadObjectHeader consumes an object header: a byte count, a four-byte tag,
// and, when the tag is NewClassTag, a null-terminated class name, which is
// returned.  Back-reference tags name a previously streamed class by index
// and carry no name; the empty string is returned for them.
func (b *Buffer) ReadObjectHeader() (string, error) {
	if _, err := b.ReadNBytes(); err != nil {
		return "", err
	}
	if b.Uint32() == NewClassTag {
		return string(b.ReadNullTerminated()), nil
	}
	return "", nil
}

// SkipTObject consumes a full TObject header without recording it.
func (b *Buffer) SkipTObject() {
	b.Skip(2 + 4) // version, unique id
	if bits := b.Uint32(); bits&IsReferenced != 0 {
		b.Skip(2)
	}
}

// Pos returns the cursor position as a byte index into the branch data.
func (b *Buffer) Pos() int { return b.pos }

// SetPos moves the cursor to the given byte index.
func (b *Buffer) SetPos(p int) { b.pos = p }

// Entries returns the number of events in the branch.
func (b *Buffer) Entries() int { return len(b.offsets) - 1 }

// EntryStart returns the byte index at which event i begins.
func (b *Buffer) EntryStart(i int) int { return int(b.offsets[i]) }

// EntryEnd returns the byte index just past event i.
func (b *Buffer) EntryEnd(i int) int { return int(b.offsets[i+1]) }

// CurrentEntryEnd returns the end of the event containing the cursor: the
// first entry offset strictly greater than the cursor position.  Unsized
// C-style arrays use this to find where to stop.
func (b *Buffer) CurrentEntryEnd() int {
	k := sort.Search(len(b.offsets), func(i int) bool {
		return int(b.offsets[i]) > b.pos
	})
	return int(b.offsets[k])
}
