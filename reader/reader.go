// Package reader implements the decoders that turn a branch's event bytes
// into columnar payloads.  A reader tree mirrors the streamed layout of one
// branch: each reader decodes its own field and delegates to child readers
// for nested fields, all sharing one rbuf.Buffer cursor.
//
// Readers are stateful: each owns the columns it accumulates across events
// and hands them over through Finish.  A reader instance belongs to exactly
// one ReadData call and is not reusable.
package reader

import (
	"errors"
	"fmt"

	"github.com/hepio/rbranch"
	"github.com/hepio/rbranch/rbuf"
)

// Reader is the capability every decoder provides.  Read decodes exactly one
// occurrence of the reader's field from the cursor.  Finish surrenders the
// accumulated columns; it is called once, after the last event.
type Reader interface {
	Read(*rbuf.Buffer) error
	Finish() rbranch.Payload
	Name() string
}

// CountReader is implemented by readers that can decode a run of n
// occurrences themselves, consuming any outer header once instead of per
// occurrence.  Memberwise container layouts and fixed-size C-style arrays
// drive their children through this entry point.
//
// A negative count is the sentinel for "unknown, header-delimited": the
// reader must consume its header, derive the end position from the byte
// count, decode until it is reached, and return the number of occurrences.
type CountReader interface {
	Reader
	ReadCount(b *rbuf.Buffer, count int64) (uint32, error)
}

// RangeReader is implemented by readers that can decode occurrences up to an
// absolute cursor position, returning how many fit.  Unsized C-style arrays
// drive their children through this entry point.
type RangeReader interface {
	Reader
	ReadUntil(b *rbuf.Buffer, end int) (uint32, error)
}

var (
	// ErrCountUnsupported and ErrRangeUnsupported report a recursive call
	// into a reader that must not be driven by count or range, such as a
	// C-style array nested where only single reads make sense.
	ErrCountUnsupported = errors.New("counted read not supported")
	ErrRangeUnsupported = errors.New("range read not supported")

	// ErrNegativeCount reports the unknown-count sentinel reaching a reader
	// that has no header to derive the element count from.
	ErrNegativeCount = errors.New("negative count requires a header")
)

// ReadN decodes count occurrences with r.  Readers that implement
// CountReader handle the run themselves; for the rest, ReadN calls Read
// count times.  The sentinel negative count is only meaningful to
// CountReaders and is an error for anyone else.
func ReadN(r Reader, b *rbuf.Buffer, count int64) (uint32, error) {
	if cr, ok := r.(CountReader); ok {
		return cr.ReadCount(b, count)
	}
	if count < 0 {
		return 0, fmt.Errorf("%s: %w", r.Name(), ErrNegativeCount)
	}
	for i := int64(0); i < count; i++ {
		if err := r.Read(b); err != nil {
			return 0, err
		}
	}
	return uint32(count), nil
}

// ReadRange decodes occurrences with r until the cursor reaches end,
// returning how many were decoded.  Readers that implement RangeReader
// handle the run themselves, consuming any outer header once.
func ReadRange(r Reader, b *rbuf.Buffer, end int) (uint32, error) {
	if rr, ok := r.(RangeReader); ok {
		return rr.ReadUntil(b, end)
	}
	var n uint32
	for b.Pos() < end {
		if err := r.Read(b); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
