package reader

import (
	"fmt"

	"github.com/hepio/rbranch"
	"github.com/hepio/rbranch/rbuf"
)

// BaseObject reads a named class body: one byte-count and version header
// followed by the class's members in declared order.  It behaves like
// NBytesVersion wrapping a Group but appears often enough in streamer
// layouts to be its own variant.
type BaseObject struct {
	name  string
	elems []Reader
}

func NewBaseObject(name string, elems []Reader) *BaseObject {
	return &BaseObject{name: name, elems: elems}
}

func (o *BaseObject) Read(b *rbuf.Buffer) error {
	if _, err := b.ReadNBytes(); err != nil {
		return fmt.Errorf("%s: %w", o.name, err)
	}
	b.ReadVersion()
	for _, r := range o.elems {
		if err := r.Read(b); err != nil {
			return err
		}
	}
	return nil
}

func (o *BaseObject) Finish() rbranch.Payload {
	res := make(rbranch.Record, 0, len(o.elems))
	for _, r := range o.elems {
		res = append(res, r.Finish())
	}
	return res
}

func (o *BaseObject) Name() string { return o.name }
