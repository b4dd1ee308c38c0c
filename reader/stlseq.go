package reader

import (
	"fmt"

	"github.com/hepio/rbranch"
	"github.com/hepio/rbranch/rbuf"
)

// STLSeq decodes sequence-like STL containers (vector, list, set): a
// four-byte element count followed by the elements, with a byte-count and
// version header when the sequence is streamed as a top-level member.
//
// Elements are decoded through ReadN so that memberwise-capable children
// consume their own headers once per sequence rather than once per element.
type STLSeq struct {
	name       string
	withHeader bool
	elem       Reader
	offsets    []uint32
}

func NewSTLSeq(name string, withHeader bool, elem Reader) *STLSeq {
	return &STLSeq{name: name, withHeader: withHeader, elem: elem, offsets: []uint32{0}}
}

func (s *STLSeq) readBody(b *rbuf.Buffer) error {
	size := b.Uint32()
	s.offsets = append(s.offsets, s.offsets[len(s.offsets)-1]+size)
	_, err := ReadN(s.elem, b, int64(size))
	return err
}

func (s *STLSeq) Read(b *rbuf.Buffer) error {
	if _, err := b.ReadNBytes(); err != nil {
		return fmt.Errorf("%s: %w", s.name, err)
	}
	b.ReadVersion()
	return s.readBody(b)
}

// ReadCount decodes count sequences back to back.  The header, when
// configured, appears once for the whole run.  The negative sentinel decodes
// header-delimited sequences until the header's byte count is exhausted.
func (s *STLSeq) ReadCount(b *rbuf.Buffer, count int64) (uint32, error) {
	switch {
	case count == 0:
		return 0, nil
	case count < 0:
		if !s.withHeader {
			return 0, fmt.Errorf("%s: %w", s.name, ErrNegativeCount)
		}
		nbytes, err := b.ReadNBytes()
		if err != nil {
			return 0, fmt.Errorf("%s: %w", s.name, err)
		}
		b.ReadVersion()
		end := b.Pos() + int(nbytes) - 2
		var n uint32
		for b.Pos() < end {
			if err := s.readBody(b); err != nil {
				return n, err
			}
			n++
		}
		return n, nil
	default:
		if s.withHeader {
			if _, err := b.ReadNBytes(); err != nil {
				return 0, fmt.Errorf("%s: %w", s.name, err)
			}
			b.ReadVersion()
		}
		for i := int64(0); i < count; i++ {
			if err := s.readBody(b); err != nil {
				return 0, err
			}
		}
		return uint32(count), nil
	}
}

func (s *STLSeq) ReadUntil(b *rbuf.Buffer, end int) (uint32, error) {
	if b.Pos() == end {
		return 0, nil
	}
	if s.withHeader {
		if _, err := b.ReadNBytes(); err != nil {
			return 0, fmt.Errorf("%s: %w", s.name, err)
		}
		b.ReadVersion()
	}
	var n uint32
	for b.Pos() < end {
		if err := s.readBody(b); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (s *STLSeq) Finish() rbranch.Payload {
	return rbranch.List{Offsets: s.offsets, Values: s.elem.Finish()}
}

func (s *STLSeq) Name() string { return s.name }
