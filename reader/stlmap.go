package reader

import (
	"fmt"

	"github.com/hepio/rbranch"
	"github.com/hepio/rbranch/rbuf"
)

// STLMap decodes mapping-like STL containers.  The outer header is a byte
// count followed by an eight-byte preamble that the format leaves opaque;
// both are skipped.  Within a map the entries are stored either objectwise
// (key, value, key, value, ...) or memberwise (all keys, then all values);
// memberwise entries drive the key and value readers through ReadN so each
// consumes its own header once for the whole run.
type STLMap struct {
	name       string
	withHeader bool
	memberwise bool
	key        Reader
	val        Reader
	offsets    []uint32
}

func NewSTLMap(name string, withHeader, memberwise bool, key, val Reader) *STLMap {
	return &STLMap{
		name:       name,
		withHeader: withHeader,
		memberwise: memberwise,
		key:        key,
		val:        val,
		offsets:    []uint32{0},
	}
}

// mapPreamble is the opaque run of bytes between a map's byte count and its
// element count.
const mapPreamble = 8

func (s *STLMap) readBody(b *rbuf.Buffer) error {
	size := b.Uint32()
	s.offsets = append(s.offsets, s.offsets[len(s.offsets)-1]+size)
	if s.memberwise {
		if _, err := ReadN(s.key, b, int64(size)); err != nil {
			return err
		}
		_, err := ReadN(s.val, b, int64(size))
		return err
	}
	for i := uint32(0); i < size; i++ {
		if err := s.key.Read(b); err != nil {
			return err
		}
		if err := s.val.Read(b); err != nil {
			return err
		}
	}
	return nil
}

func (s *STLMap) Read(b *rbuf.Buffer) error {
	if _, err := b.ReadNBytes(); err != nil {
		return fmt.Errorf("%s: %w", s.name, err)
	}
	b.Skip(mapPreamble)
	return s.readBody(b)
}

func (s *STLMap) ReadCount(b *rbuf.Buffer, count int64) (uint32, error) {
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
		b.Skip(mapPreamble)
		end := b.Pos() + int(nbytes) - mapPreamble
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
			b.Skip(mapPreamble)
		}
		for i := int64(0); i < count; i++ {
			if err := s.readBody(b); err != nil {
				return 0, err
			}
		}
		return uint32(count), nil
	}
}

func (s *STLMap) ReadUntil(b *rbuf.Buffer, end int) (uint32, error) {
	if b.Pos() == end {
		return 0, nil
	}
	if s.withHeader {
		if _, err := b.ReadNBytes(); err != nil {
			return 0, fmt.Errorf("%s: %w", s.name, err)
		}
		b.Skip(mapPreamble)
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

func (s *STLMap) Finish() rbranch.Payload {
	return rbranch.Map{Offsets: s.offsets, Keys: s.key.Finish(), Values: s.val.Finish()}
}

func (s *STLMap) Name() string { return s.name }
