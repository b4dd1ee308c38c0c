package reader

import (
	"fmt"

	"github.com/hepio/rbranch"
	"github.com/hepio/rbranch/rbuf"
)

// CStyleArray decodes C-style array members.  A positive flatSize means the
// element count is fixed by the declaration (the product of the array's
// dimensions) and the elements repeat back to back with no count on the
// wire.  A non-positive flatSize means the size is not stored at all: the
// elements run to the end of the current event, which requires the array to
// be the last field of its event.
//
// A C-style array is a leaf of the count protocol; driving one through
// ReadCount or ReadUntil has no meaningful layout and is an error.
type CStyleArray struct {
	name     string
	flatSize int64
	elem     Reader
	offsets  []uint32
}

func NewCStyleArray(name string, flatSize int64, elem Reader) *CStyleArray {
	return &CStyleArray{name: name, flatSize: flatSize, elem: elem, offsets: []uint32{0}}
}

func (c *CStyleArray) Read(b *rbuf.Buffer) error {
	if c.flatSize > 0 {
		_, err := ReadN(c.elem, b, c.flatSize)
		return err
	}
	n, err := ReadRange(c.elem, b, b.CurrentEntryEnd())
	if err != nil {
		return err
	}
	c.offsets = append(c.offsets, c.offsets[len(c.offsets)-1]+n)
	return nil
}

func (c *CStyleArray) ReadCount(b *rbuf.Buffer, count int64) (uint32, error) {
	return 0, fmt.Errorf("%s: %w", c.name, ErrCountUnsupported)
}

func (c *CStyleArray) ReadUntil(b *rbuf.Buffer, end int) (uint32, error) {
	return 0, fmt.Errorf("%s: %w", c.name, ErrRangeUnsupported)
}

func (c *CStyleArray) Finish() rbranch.Payload {
	if c.flatSize > 0 {
		return c.elem.Finish()
	}
	return rbranch.List{Offsets: c.offsets, Values: c.elem.Finish()}
}

func (c *CStyleArray) Name() string { return c.name }
