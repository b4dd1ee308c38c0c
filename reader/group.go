package reader

import (
	"github.com/hepio/rbranch"
	"github.com/hepio/rbranch/rbuf"
)

// Group reads an ordered run of heterogeneous fields, one child reader per
// field, with no header of its own.
type Group struct {
	name  string
	elems []Reader
}

func NewGroup(name string, elems []Reader) *Group {
	return &Group{name: name, elems: elems}
}

func (g *Group) Read(b *rbuf.Buffer) error {
	for _, r := range g.elems {
		if err := r.Read(b); err != nil {
			return err
		}
	}
	return nil
}

func (g *Group) Finish() rbranch.Payload {
	res := make(rbranch.Record, 0, len(g.elems))
	for _, r := range g.elems {
		res = append(res, r.Finish())
	}
	return res
}

func (g *Group) Name() string { return g.name }
