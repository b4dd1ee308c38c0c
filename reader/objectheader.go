package reader

import (
	"fmt"

	"github.com/hepio/rbranch"
	"github.com/hepio/rbranch/rbuf"
)

// ObjectHeader wraps a child reader in an object header: a byte count, a
// four-byte class tag, and, for the new-class sentinel tag, a
// null-terminated class name.  Back-reference tags carry no name.  The byte
// count delimits everything after itself, so after the child runs the cursor
// must land exactly on the computed end.
type ObjectHeader struct {
	name string
	elem Reader
}

func NewObjectHeader(name string, elem Reader) *ObjectHeader {
	return &ObjectHeader{name: name, elem: elem}
}

func (r *ObjectHeader) Read(b *rbuf.Buffer) error {
	nbytes, err := b.ReadNBytes()
	if err != nil {
		return fmt.Errorf("%s: %w", r.name, err)
	}
	end := b.Pos() + int(nbytes)
	if b.Uint32() == rbuf.NewClassTag {
		b.ReadNullTerminated()
	}
	start := b.Pos()
	if err := r.elem.Read(b); err != nil {
		return err
	}
	if b.Pos() != end {
		return fmt.Errorf("%s: invalid read length for %s: expected %d bytes, got %d",
			r.name, r.elem.Name(), end-start, b.Pos()-start)
	}
	return nil
}

func (r *ObjectHeader) Finish() rbranch.Payload { return r.elem.Finish() }

func (r *ObjectHeader) Name() string { return r.name }
