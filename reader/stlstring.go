package reader

import (
	"fmt"

	"github.com/hepio/rbranch"
	"github.com/hepio/rbranch/rbuf"
)

// STLString decodes std::string values: length-prefixed raw bytes,
// optionally preceded by a byte-count and version header.  The header is
// present when the string is streamed as a top-level member and absent when
// it is an element of an enclosing container.
type STLString struct {
	name       string
	withHeader bool
	offsets    []uint32
	data       []byte
}

func NewSTLString(name string, withHeader bool) *STLString {
	return &STLString{name: name, withHeader: withHeader, offsets: []uint32{0}}
}

func (s *STLString) readBody(b *rbuf.Buffer) {
	n := b.ReadStringLength()
	s.data = append(s.data, b.Bytes(int(n))...)
	s.offsets = append(s.offsets, uint32(len(s.data)))
}

func (s *STLString) Read(b *rbuf.Buffer) error {
	if s.withHeader {
		if _, err := b.ReadNBytes(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
		b.ReadVersion()
	}
	s.readBody(b)
	return nil
}

func (s *STLString) ReadCount(b *rbuf.Buffer, count int64) (uint32, error) {
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
			s.readBody(b)
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
			s.readBody(b)
		}
		return uint32(count), nil
	}
}

func (s *STLString) ReadUntil(b *rbuf.Buffer, end int) (uint32, error) {
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
		s.readBody(b)
		n++
	}
	return n, nil
}

func (s *STLString) Finish() rbranch.Payload {
	return rbranch.Bytes{Offsets: s.offsets, Data: s.data}
}

func (s *STLString) Name() string { return s.name }
