package reader

import (
	"github.com/hepio/rbranch"
	"github.com/hepio/rbranch/rbuf"
)

// TObject consumes the standard TObject header at the head of a streamed
// object: version, unique id, bit field, and a process-id reference when the
// kIsReferenced bit is set.  In discard mode it only advances the cursor; in
// retain mode it records the raw reference fields so higher layers can
// resolve cross-object references.  Graph reassembly is out of scope here.
type TObject struct {
	name string
	keep bool

	uniqueID   []uint32
	bits       []uint32
	pid        []uint16
	pidOffsets []uint32
}

func NewTObject(name string, keep bool) *TObject {
	t := &TObject{name: name, keep: keep}
	if keep {
		t.pidOffsets = []uint32{0}
	}
	return t
}

func (t *TObject) Read(b *rbuf.Buffer) error {
	b.Skip(2) // version
	uniqueID := b.Uint32()
	bits := b.Uint32()
	if bits&rbuf.IsReferenced != 0 {
		if t.keep {
			t.pid = append(t.pid, b.Uint16())
		} else {
			b.Skip(2)
		}
	}
	if t.keep {
		t.uniqueID = append(t.uniqueID, uniqueID)
		t.bits = append(t.bits, bits)
		t.pidOffsets = append(t.pidOffsets, uint32(len(t.pid)))
	}
	return nil
}

func (t *TObject) Finish() rbranch.Payload {
	if !t.keep {
		return nil
	}
	return rbranch.Refs{
		UniqueID:   t.uniqueID,
		Bits:       t.bits,
		PID:        t.pid,
		PIDOffsets: t.pidOffsets,
	}
}

func (t *TObject) Name() string { return t.name }
