package arrowio

import (
	"testing"

	"github.com/apache/arrow/go/v11/arrow/array"
	"github.com/hepio/rbranch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatColumns(t *testing.T) {
	a, err := NewArray(rbranch.Flat[int32]{1, 2, -3})
	require.NoError(t, err)
	defer a.Release()
	ints := a.(*array.Int32)
	require.Equal(t, 3, ints.Len())
	assert.Equal(t, []int32{1, 2, -3}, ints.Int32Values())

	a, err = NewArray(rbranch.Flat[float64]{0.5, 1.5})
	require.NoError(t, err)
	defer a.Release()
	assert.Equal(t, []float64{0.5, 1.5}, a.(*array.Float64).Float64Values())

	a, err = NewArray(rbranch.Flat[bool]{true, false, true})
	require.NoError(t, err)
	defer a.Release()
	bools := a.(*array.Boolean)
	assert.True(t, bools.Value(0))
	assert.False(t, bools.Value(1))
	assert.True(t, bools.Value(2))
}

func TestBytesColumn(t *testing.T) {
	a, err := NewArray(rbranch.Bytes{
		Offsets: []uint32{0, 3, 3, 5},
		Data:    []byte("foode"),
	})
	require.NoError(t, err)
	defer a.Release()
	strs := a.(*array.String)
	require.Equal(t, 3, strs.Len())
	assert.Equal(t, "foo", strs.Value(0))
	assert.Equal(t, "", strs.Value(1))
	assert.Equal(t, "de", strs.Value(2))
}

func TestListColumn(t *testing.T) {
	a, err := NewArray(rbranch.List{
		Offsets: []uint32{0, 2, 2, 3},
		Values:  rbranch.Flat[int32]{7, 8, 9},
	})
	require.NoError(t, err)
	defer a.Release()
	list := a.(*array.List)
	require.Equal(t, 3, list.Len())
	start, end := list.ValueOffsets(0)
	assert.Equal(t, int64(0), start)
	assert.Equal(t, int64(2), end)
	start, end = list.ValueOffsets(1)
	assert.Equal(t, start, end)
	assert.Equal(t, []int32{7, 8, 9}, list.ListValues().(*array.Int32).Int32Values())
}

func TestNestedListColumn(t *testing.T) {
	a, err := NewArray(rbranch.List{
		Offsets: []uint32{0, 2},
		Values: rbranch.List{
			Offsets: []uint32{0, 1, 3},
			Values:  rbranch.Flat[float64]{1, 2, 3},
		},
	})
	require.NoError(t, err)
	defer a.Release()
	outer := a.(*array.List)
	inner := outer.ListValues().(*array.List)
	assert.Equal(t, 2, inner.Len())
	assert.Equal(t, []float64{1, 2, 3}, inner.ListValues().(*array.Float64).Float64Values())
}

func TestMapColumn(t *testing.T) {
	a, err := NewArray(rbranch.Map{
		Offsets: []uint32{0, 2},
		Keys:    rbranch.Flat[int32]{10, 20},
		Values:  rbranch.Flat[float64]{1.5, 2.5},
	})
	require.NoError(t, err)
	defer a.Release()
	list := a.(*array.List)
	require.Equal(t, 1, list.Len())
	entries := list.ListValues().(*array.Struct)
	require.Equal(t, 2, entries.NumField())
	assert.Equal(t, []int32{10, 20}, entries.Field(0).(*array.Int32).Int32Values())
	assert.Equal(t, []float64{1.5, 2.5}, entries.Field(1).(*array.Float64).Float64Values())
}

func TestRecordColumnSkipsNilChildren(t *testing.T) {
	a, err := NewArray(rbranch.Record{
		nil, // discarded TObject base
		rbranch.Flat[int32]{1, 2},
		rbranch.Bytes{Offsets: []uint32{0, 1, 1}, Data: []byte("x")},
	})
	require.NoError(t, err)
	defer a.Release()
	rec := a.(*array.Struct)
	require.Equal(t, 2, rec.NumField())
	assert.Equal(t, []int32{1, 2}, rec.Field(0).(*array.Int32).Int32Values())
	assert.Equal(t, "x", rec.Field(1).(*array.String).Value(0))
}

func TestRefsColumn(t *testing.T) {
	a, err := NewArray(rbranch.Refs{
		UniqueID:   []uint32{1, 2},
		Bits:       []uint32{16, 0},
		PID:        []uint16{9},
		PIDOffsets: []uint32{0, 1, 1},
	})
	require.NoError(t, err)
	defer a.Release()
	rec := a.(*array.Struct)
	require.Equal(t, 3, rec.NumField())
	assert.Equal(t, []uint32{1, 2}, rec.Field(0).(*array.Uint32).Uint32Values())
	pidf := rec.Field(2).(*array.List)
	assert.Equal(t, 2, pidf.Len())
	assert.Equal(t, []uint16{9}, pidf.ListValues().(*array.Uint16).Uint16Values())
}

func TestNilPayload(t *testing.T) {
	_, err := NewArray(nil)
	assert.ErrorIs(t, err, ErrEmptyPayload)

	_, err = NewArray(rbranch.Record{nil, nil})
	assert.ErrorIs(t, err, ErrEmptyPayload)
}
