// Package arrowio converts decoded branch payloads to Arrow arrays.  Flat
// columns become primitive arrays, byte columns become strings, and nested
// payloads become lists assembled directly from their offset vectors, so the
// conversion never re-walks element data.
package arrowio

import (
	"errors"
	"fmt"

	"github.com/apache/arrow/go/v11/arrow"
	"github.com/apache/arrow/go/v11/arrow/array"
	"github.com/apache/arrow/go/v11/arrow/memory"
	"github.com/hepio/rbranch"
)

// ErrEmptyPayload reports a conversion of a payload that kept no columns,
// such as a group of discarded fields.
var ErrEmptyPayload = errors.New("arrowio: payload has no columns")

// NewArray converts a payload to the corresponding Arrow array:
//
//	Flat[T]  -> primitive array of T (bool included)
//	Bytes    -> string
//	List     -> list of the child conversion
//	Map      -> list of struct{key, value}
//	Record   -> struct of the children, nil children omitted
//	Refs     -> struct{unique_id, bits, pidf list<uint16>}
//
// A nil payload yields ErrEmptyPayload; callers that allow dropped fields
// should skip nil payloads instead of converting them.
func NewArray(p rbranch.Payload) (arrow.Array, error) {
	mem := memory.DefaultAllocator
	switch p := p.(type) {
	case rbranch.Flat[bool]:
		b := array.NewBooleanBuilder(mem)
		defer b.Release()
		b.AppendValues(p, nil)
		return b.NewArray(), nil
	case rbranch.Flat[int8]:
		b := array.NewInt8Builder(mem)
		defer b.Release()
		b.AppendValues(p, nil)
		return b.NewArray(), nil
	case rbranch.Flat[int16]:
		b := array.NewInt16Builder(mem)
		defer b.Release()
		b.AppendValues(p, nil)
		return b.NewArray(), nil
	case rbranch.Flat[int32]:
		b := array.NewInt32Builder(mem)
		defer b.Release()
		b.AppendValues(p, nil)
		return b.NewArray(), nil
	case rbranch.Flat[int64]:
		b := array.NewInt64Builder(mem)
		defer b.Release()
		b.AppendValues(p, nil)
		return b.NewArray(), nil
	case rbranch.Flat[uint8]:
		b := array.NewUint8Builder(mem)
		defer b.Release()
		b.AppendValues(p, nil)
		return b.NewArray(), nil
	case rbranch.Flat[uint16]:
		b := array.NewUint16Builder(mem)
		defer b.Release()
		b.AppendValues(p, nil)
		return b.NewArray(), nil
	case rbranch.Flat[uint32]:
		b := array.NewUint32Builder(mem)
		defer b.Release()
		b.AppendValues(p, nil)
		return b.NewArray(), nil
	case rbranch.Flat[uint64]:
		b := array.NewUint64Builder(mem)
		defer b.Release()
		b.AppendValues(p, nil)
		return b.NewArray(), nil
	case rbranch.Flat[float32]:
		b := array.NewFloat32Builder(mem)
		defer b.Release()
		b.AppendValues(p, nil)
		return b.NewArray(), nil
	case rbranch.Flat[float64]:
		b := array.NewFloat64Builder(mem)
		defer b.Release()
		b.AppendValues(p, nil)
		return b.NewArray(), nil
	case rbranch.Bytes:
		return newStringArray(mem, p), nil
	case rbranch.List:
		values, err := NewArray(p.Values)
		if err != nil {
			return nil, err
		}
		defer values.Release()
		return newListArray(p.Offsets, values), nil
	case rbranch.Map:
		return newMapArray(p)
	case rbranch.Record:
		return newRecordArray(p)
	case rbranch.Refs:
		return newRefsArray(mem, p)
	case nil:
		return nil, ErrEmptyPayload
	default:
		return nil, fmt.Errorf("arrowio: unsupported payload type %T", p)
	}
}

func newStringArray(mem memory.Allocator, p rbranch.Bytes) arrow.Array {
	b := array.NewStringBuilder(mem)
	defer b.Release()
	for i := 0; i+1 < len(p.Offsets); i++ {
		b.Append(string(p.Data[p.Offsets[i]:p.Offsets[i+1]]))
	}
	return b.NewArray()
}

// newListArray wraps an element array in a list assembled from the decoded
// offsets vector, reusing the element buffers as-is.
func newListArray(offsets []uint32, values arrow.Array) arrow.Array {
	off := make([]int32, len(offsets))
	for i, v := range offsets {
		off[i] = int32(v)
	}
	buf := memory.NewBufferBytes(arrow.Int32Traits.CastToBytes(off))
	data := array.NewData(arrow.ListOf(values.DataType()), len(offsets)-1,
		[]*memory.Buffer{nil, buf}, []arrow.ArrayData{values.Data()}, 0, 0)
	defer data.Release()
	return array.NewListData(data)
}

func newStructArray(fields []arrow.Field, cols []arrow.Array, length int) arrow.Array {
	childData := make([]arrow.ArrayData, len(cols))
	for i, c := range cols {
		childData[i] = c.Data()
	}
	data := array.NewData(arrow.StructOf(fields...), length,
		[]*memory.Buffer{nil}, childData, 0, 0)
	defer data.Release()
	return array.NewStructData(data)
}

func newMapArray(p rbranch.Map) (arrow.Array, error) {
	keys, err := NewArray(p.Keys)
	if err != nil {
		return nil, err
	}
	defer keys.Release()
	values, err := NewArray(p.Values)
	if err != nil {
		return nil, err
	}
	defer values.Release()
	entries := newStructArray(
		[]arrow.Field{
			{Name: "key", Type: keys.DataType()},
			{Name: "value", Type: values.DataType()},
		},
		[]arrow.Array{keys, values}, keys.Len())
	defer entries.Release()
	return newListArray(p.Offsets, entries), nil
}

func newRecordArray(p rbranch.Record) (arrow.Array, error) {
	var fields []arrow.Field
	var cols []arrow.Array
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()
	for i, child := range p {
		if child == nil {
			continue
		}
		a, err := NewArray(child)
		if err != nil {
			return nil, err
		}
		fields = append(fields, arrow.Field{Name: fmt.Sprintf("f%d", i), Type: a.DataType()})
		cols = append(cols, a)
	}
	if len(cols) == 0 {
		return nil, ErrEmptyPayload
	}
	return newStructArray(fields, cols, cols[0].Len()), nil
}

func newRefsArray(mem memory.Allocator, p rbranch.Refs) (arrow.Array, error) {
	uniqueID := array.NewUint32Builder(mem)
	defer uniqueID.Release()
	uniqueID.AppendValues(p.UniqueID, nil)
	ids := uniqueID.NewArray()
	defer ids.Release()

	bitsBuilder := array.NewUint32Builder(mem)
	defer bitsBuilder.Release()
	bitsBuilder.AppendValues(p.Bits, nil)
	bits := bitsBuilder.NewArray()
	defer bits.Release()

	pidBuilder := array.NewUint16Builder(mem)
	defer pidBuilder.Release()
	pidBuilder.AppendValues(p.PID, nil)
	pid := pidBuilder.NewArray()
	defer pid.Release()
	pidf := newListArray(p.PIDOffsets, pid)
	defer pidf.Release()

	return newStructArray(
		[]arrow.Field{
			{Name: "unique_id", Type: ids.DataType()},
			{Name: "bits", Type: bits.DataType()},
			{Name: "pidf", Type: pidf.DataType()},
		},
		[]arrow.Array{ids, bits, pidf}, ids.Len()), nil
}
