package reader

import (
	"github.com/hepio/rbranch"
	"github.com/hepio/rbranch/rbuf"
)

// TArray decodes ROOT's TArray family (TArrayC through TArrayD): a four-byte
// element count followed by that many primitives, with no byte-count or
// version header.
type TArray[T rbranch.Value] struct {
	name    string
	read    func(*rbuf.Buffer) T
	offsets []uint32
	data    []T
}

func newTArray[T rbranch.Value](name string, read func(*rbuf.Buffer) T) *TArray[T] {
	return &TArray[T]{name: name, read: read, offsets: []uint32{0}}
}

func NewTArrayC(name string) *TArray[int8]    { return newTArray(name, (*rbuf.Buffer).Int8) }
func NewTArrayS(name string) *TArray[int16]   { return newTArray(name, (*rbuf.Buffer).Int16) }
func NewTArrayI(name string) *TArray[int32]   { return newTArray(name, (*rbuf.Buffer).Int32) }
func NewTArrayL(name string) *TArray[int64]   { return newTArray(name, (*rbuf.Buffer).Int64) }
func NewTArrayF(name string) *TArray[float32] { return newTArray(name, (*rbuf.Buffer).Float32) }
func NewTArrayD(name string) *TArray[float64] { return newTArray(name, (*rbuf.Buffer).Float64) }

func (t *TArray[T]) Read(b *rbuf.Buffer) error {
	size := b.Uint32()
	t.offsets = append(t.offsets, t.offsets[len(t.offsets)-1]+size)
	for i := uint32(0); i < size; i++ {
		t.data = append(t.data, t.read(b))
	}
	return nil
}

func (t *TArray[T]) Finish() rbranch.Payload {
	return rbranch.List{Offsets: t.offsets, Values: rbranch.Flat[T](t.data)}
}

func (t *TArray[T]) Name() string { return t.name }
