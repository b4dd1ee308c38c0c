package reader

import (
	"github.com/hepio/rbranch"
	"github.com/hepio/rbranch/rbuf"
	"github.com/x448/float16"
)

// Primitive decodes one fixed-width big-endian value per read into a flat
// column.  Instances are created through the typed constructors below.
type Primitive[T rbranch.Value] struct {
	name string
	read func(*rbuf.Buffer) T
	data []T
}

func newPrimitive[T rbranch.Value](name string, read func(*rbuf.Buffer) T) *Primitive[T] {
	return &Primitive[T]{name: name, read: read}
}

func NewUint8(name string) *Primitive[uint8]   { return newPrimitive(name, (*rbuf.Buffer).Uint8) }
func NewUint16(name string) *Primitive[uint16] { return newPrimitive(name, (*rbuf.Buffer).Uint16) }
func NewUint32(name string) *Primitive[uint32] { return newPrimitive(name, (*rbuf.Buffer).Uint32) }
func NewUint64(name string) *Primitive[uint64] { return newPrimitive(name, (*rbuf.Buffer).Uint64) }
func NewInt8(name string) *Primitive[int8]     { return newPrimitive(name, (*rbuf.Buffer).Int8) }
func NewInt16(name string) *Primitive[int16]   { return newPrimitive(name, (*rbuf.Buffer).Int16) }
func NewInt32(name string) *Primitive[int32]   { return newPrimitive(name, (*rbuf.Buffer).Int32) }
func NewInt64(name string) *Primitive[int64]   { return newPrimitive(name, (*rbuf.Buffer).Int64) }

func NewFloat32(name string) *Primitive[float32] {
	return newPrimitive(name, (*rbuf.Buffer).Float32)
}

func NewFloat64(name string) *Primitive[float64] {
	return newPrimitive(name, (*rbuf.Buffer).Float64)
}

// NewBool decodes one byte per value, normalizing nonzero to true.
func NewBool(name string) *Primitive[bool] {
	return newPrimitive(name, (*rbuf.Buffer).Bool)
}

// NewFloat16 decodes two-byte IEEE half floats, widened to a float32 column.
func NewFloat16(name string) *Primitive[float32] {
	return newPrimitive(name, func(b *rbuf.Buffer) float32 {
		return float16.Float16(b.Uint16()).Float32()
	})
}

func (p *Primitive[T]) Read(b *rbuf.Buffer) error {
	p.data = append(p.data, p.read(b))
	return nil
}

func (p *Primitive[T]) Finish() rbranch.Payload { return rbranch.Flat[T](p.data) }

func (p *Primitive[T]) Name() string { return p.name }
