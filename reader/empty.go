package reader

import (
	"github.com/hepio/rbranch"
	"github.com/hepio/rbranch/rbuf"
)

// Empty reads nothing and keeps nothing.  The schema layer substitutes it
// for fields it chooses to drop.
type Empty struct {
	name string
}

func NewEmpty(name string) *Empty { return &Empty{name: name} }

func (e *Empty) Read(*rbuf.Buffer) error { return nil }
func (e *Empty) Finish() rbranch.Payload { return nil }
func (e *Empty) Name() string            { return e.name }
