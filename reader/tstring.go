package reader

import (
	"github.com/hepio/rbranch"
	"github.com/hepio/rbranch/rbuf"
)

// TString decodes length-prefixed raw bytes with no surrounding header.
type TString struct {
	name    string
	offsets []uint32
	data    []byte
}

func NewTString(name string) *TString {
	return &TString{name: name, offsets: []uint32{0}}
}

func (t *TString) Read(b *rbuf.Buffer) error {
	n := b.ReadStringLength()
	t.data = append(t.data, b.Bytes(int(n))...)
	t.offsets = append(t.offsets, uint32(len(t.data)))
	return nil
}

func (t *TString) Finish() rbranch.Payload {
	return rbranch.Bytes{Offsets: t.offsets, Data: t.data}
}

func (t *TString) Name() string { return t.name }
