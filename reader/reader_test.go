package reader

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/hepio/rbranch"
	"github.com/hepio/rbranch/rbuf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// enc builds big-endian wire fixtures.
type enc struct {
	b []byte
}

func (e *enc) u8(v uint8) *enc { e.b = append(e.b, v); return e }

func (e *enc) u16(v uint16) *enc {
	e.b = binary.BigEndian.AppendUint16(e.b, v)
	return e
}

func (e *enc) u32(v uint32) *enc {
	e.b = binary.BigEndian.AppendUint32(e.b, v)
	return e
}

func (e *enc) u64(v uint64) *enc {
	e.b = binary.BigEndian.AppendUint64(e.b, v)
	return e
}

func (e *enc) i32(v int32) *enc     { return e.u32(uint32(v)) }
func (e *enc) f32(v float32) *enc   { return e.u32(math.Float32bits(v)) }
func (e *enc) f64(v float64) *enc   { return e.u64(math.Float64bits(v)) }
func (e *enc) raw(v ...byte) *enc   { e.b = append(e.b, v...); return e }
func (e *enc) version(v int16) *enc { return e.u16(uint16(v)) }

// nbytes writes a byte-count word with its marker bit.
func (e *enc) nbytes(n uint32) *enc { return e.u32(n | rbuf.ByteCountMask) }

// str writes a short-string length prefix and the bytes.
func (e *enc) str(s string) *enc {
	if len(s) >= 255 {
		e.u8(255).u32(uint32(len(s)))
	} else {
		e.u8(uint8(len(s)))
	}
	return e.raw([]byte(s)...)
}

func (e *enc) len() uint32 { return uint32(len(e.b)) }

func TestPrimitiveColumn(t *testing.T) {
	// One i32 per event across three events.
	data := new(enc).i32(1).i32(2).i32(-1)
	payload, err := ReadData(data.b, []uint32{0, 4, 8, 12}, NewInt32("val"))
	require.NoError(t, err)
	assert.Equal(t, rbranch.Flat[int32]{1, 2, -1}, payload)
}

func TestPrimitiveBoolNormalizesNonzero(t *testing.T) {
	data := new(enc).u8(0).u8(2).u8(1)
	payload, err := ReadData(data.b, []uint32{0, 1, 2, 3}, NewBool("flag"))
	require.NoError(t, err)
	assert.Equal(t, rbranch.Flat[bool]{false, true, true}, payload)
}

func TestPrimitiveFloat16(t *testing.T) {
	// 0x3E00 is 1.5 in IEEE half precision.
	data := new(enc).u16(0x3E00).u16(0xBE00)
	payload, err := ReadData(data.b, []uint32{0, 2, 4}, NewFloat16("half"))
	require.NoError(t, err)
	assert.Equal(t, rbranch.Flat[float32]{1.5, -1.5}, payload)
}

func TestTStringColumn(t *testing.T) {
	data := new(enc).str("foo").str("")
	payload, err := ReadData(data.b, []uint32{0, 4, 5}, NewTString("label"))
	require.NoError(t, err)
	assert.Equal(t, rbranch.Bytes{
		Offsets: []uint32{0, 3, 3},
		Data:    []byte("foo"),
	}, payload)
}

func TestTStringLengthBoundaries(t *testing.T) {
	short := make([]byte, 254)
	long := make([]byte, 300)
	for i := range short {
		short[i] = 'a'
	}
	for i := range long {
		long[i] = 'b'
	}
	data := new(enc).str("").str(string(short)).str(string(long))
	offsets := []uint32{0, 1, 1 + 255, 1 + 255 + 5 + 300}
	payload, err := ReadData(data.b, offsets, NewTString("s"))
	require.NoError(t, err)
	b := payload.(rbranch.Bytes)
	assert.Equal(t, []uint32{0, 0, 254, 554}, b.Offsets)
	assert.Len(t, b.Data, 554)
}

func TestSTLSeqWithHeader(t *testing.T) {
	// Spec scenario: one event holding the sequence {1.0, 2.0}.
	data := new(enc).nbytes(0x12).version(1).u32(2).f64(1.0).f64(2.0)
	root := NewSTLSeq("vals", true, NewFloat64("vals"))
	payload, err := ReadData(data.b, []uint32{0, data.len()}, root)
	require.NoError(t, err)
	assert.Equal(t, rbranch.List{
		Offsets: []uint32{0, 2},
		Values:  rbranch.Flat[float64]{1.0, 2.0},
	}, payload)
}

func TestSTLSeqEmptyKeepsHeader(t *testing.T) {
	data := new(enc).nbytes(6).version(1).u32(0)
	root := NewSTLSeq("vals", true, NewInt32("vals"))
	payload, err := ReadData(data.b, []uint32{0, data.len()}, root)
	require.NoError(t, err)
	assert.Equal(t, rbranch.List{
		Offsets: []uint32{0, 0},
		Values:  rbranch.Flat[int32](nil),
	}, payload)
}

func TestSTLSeqNested(t *testing.T) {
	// vector<vector<vector<int>>>: [[[1 2] [3]] [[4]]] in one event.  Only
	// the outermost sequence carries a header.
	inner := NewSTLSeq("v", false, NewInt32("v"))
	mid := NewSTLSeq("v", false, inner)
	root := NewSTLSeq("v", true, mid)
	data := new(enc).nbytes(0).version(1).
		u32(2).                 // outer size
		u32(2).                 // [0] size
		u32(2).i32(1).i32(2).   // [0][0]
		u32(1).i32(3).          // [0][1]
		u32(1).                 // [1] size
		u32(1).i32(4)           // [1][0]
	payload, err := ReadData(data.b, []uint32{0, data.len()}, root)
	require.NoError(t, err)
	want := rbranch.List{
		Offsets: []uint32{0, 2},
		Values: rbranch.List{
			Offsets: []uint32{0, 2, 3},
			Values: rbranch.List{
				Offsets: []uint32{0, 2, 3, 4},
				Values:  rbranch.Flat[int32]{1, 2, 3, 4},
			},
		},
	}
	assert.Equal(t, want, payload)
}

func TestSTLSeqDepthFour(t *testing.T) {
	// vector^4<int>: [[[[7]]]] across two events, second event empty.
	l3 := NewSTLSeq("v", false, NewInt32("v"))
	l2 := NewSTLSeq("v", false, l3)
	l1 := NewSTLSeq("v", false, l2)
	root := NewSTLSeq("v", true, l1)
	e1 := new(enc).nbytes(0).version(1).u32(1).u32(1).u32(1).u32(1).i32(7)
	e2 := new(enc).nbytes(0).version(1).u32(0)
	data := append(e1.b, e2.b...)
	payload, err := ReadData(data, []uint32{0, e1.len(), e1.len() + e2.len()}, root)
	require.NoError(t, err)
	want := rbranch.List{
		Offsets: []uint32{0, 1, 1},
		Values: rbranch.List{
			Offsets: []uint32{0, 1},
			Values: rbranch.List{
				Offsets: []uint32{0, 1},
				Values: rbranch.List{
					Offsets: []uint32{0, 1},
					Values:  rbranch.Flat[int32]{7},
				},
			},
		},
	}
	assert.Equal(t, want, payload)
}

func TestCStyleArrayFixedOfSequences(t *testing.T) {
	// Three sequences in a fixed-shape array: the element run carries one
	// header, then three count-prefixed bodies.
	root := NewCStyleArray("arr", 3, NewSTLSeq("arr", true, NewFloat64("arr")))
	data := new(enc).nbytes(0).version(1)
	v := 1.0
	for i := 0; i < 3; i++ {
		data.u32(3)
		for j := 0; j < 3; j++ {
			data.f64(v)
			v++
		}
	}
	payload, err := ReadData(data.b, []uint32{0, data.len()}, root)
	require.NoError(t, err)
	want := rbranch.List{
		Offsets: []uint32{0, 3, 6, 9},
		Values:  rbranch.Flat[float64]{1, 2, 3, 4, 5, 6, 7, 8, 9},
	}
	assert.Equal(t, want, payload)
}

func TestCStyleArrayFlatSizeOneHeaderedChild(t *testing.T) {
	root := NewCStyleArray("arr", 1, NewSTLSeq("arr", true, NewInt32("arr")))
	data := new(enc).nbytes(0).version(1).u32(2).i32(5).i32(6)
	payload, err := ReadData(data.b, []uint32{0, data.len()}, root)
	require.NoError(t, err)
	assert.Equal(t, rbranch.List{
		Offsets: []uint32{0, 2},
		Values:  rbranch.Flat[int32]{5, 6},
	}, payload)
}

func TestCStyleArrayUnsized(t *testing.T) {
	// No stored size: elements run to the end of each event.
	root := NewCStyleArray("arr", -1, NewFloat64("arr"))
	data := new(enc).f64(1).f64(2).f64(3)
	payload, err := ReadData(data.b, []uint32{0, 16, 24}, root)
	require.NoError(t, err)
	assert.Equal(t, rbranch.List{
		Offsets: []uint32{0, 2, 3},
		Values:  rbranch.Flat[float64]{1, 2, 3},
	}, payload)
}

func TestCStyleArrayUnsizedHeaderedSequences(t *testing.T) {
	// Ragged array of vector<int>: the event is one header followed by
	// count-prefixed bodies to the event end.
	root := NewCStyleArray("arr", -1, NewSTLSeq("arr", true, NewInt32("arr")))
	data := new(enc).nbytes(0).version(1).
		u32(2).i32(1).i32(2).
		u32(1).i32(3)
	payload, err := ReadData(data.b, []uint32{0, data.len()}, root)
	require.NoError(t, err)
	want := rbranch.List{
		Offsets: []uint32{0, 2},
		Values: rbranch.List{
			Offsets: []uint32{0, 2, 3},
			Values:  rbranch.Flat[int32]{1, 2, 3},
		},
	}
	assert.Equal(t, want, payload)
}

func TestCStyleArrayRejectsRecursiveCalls(t *testing.T) {
	arr := NewCStyleArray("arr", 2, NewInt32("arr"))
	b := rbuf.New(nil, []uint32{0})
	_, err := arr.ReadCount(b, 2)
	assert.ErrorIs(t, err, ErrCountUnsupported)
	_, err = arr.ReadUntil(b, 0)
	assert.ErrorIs(t, err, ErrRangeUnsupported)
}

func TestSTLMapMemberwise(t *testing.T) {
	// Spec scenario: map<i32,f64> of size 2, keys then values.
	root := NewSTLMap("m", true, true, NewInt32("key"), NewFloat64("val"))
	data := new(enc).nbytes(36).raw(0, 0, 0, 0, 0, 0, 0, 0).
		u32(2).
		i32(10).i32(20).
		f64(1.5).f64(2.5)
	payload, err := ReadData(data.b, []uint32{0, data.len()}, root)
	require.NoError(t, err)
	want := rbranch.Map{
		Offsets: []uint32{0, 2},
		Keys:    rbranch.Flat[int32]{10, 20},
		Values:  rbranch.Flat[float64]{1.5, 2.5},
	}
	assert.Equal(t, want, payload)
}

func TestSTLMapObjectwise(t *testing.T) {
	root := NewSTLMap("m", true, false, NewInt32("key"), NewFloat64("val"))
	data := new(enc).nbytes(0).raw(0, 0, 0, 0, 0, 0, 0, 0).
		u32(2).
		i32(10).f64(1.5).
		i32(20).f64(2.5)
	payload, err := ReadData(data.b, []uint32{0, data.len()}, root)
	require.NoError(t, err)
	want := rbranch.Map{
		Offsets: []uint32{0, 2},
		Keys:    rbranch.Flat[int32]{10, 20},
		Values:  rbranch.Flat[float64]{1.5, 2.5},
	}
	assert.Equal(t, want, payload)
}

func TestSTLMapMemberwiseVariableWidthColumns(t *testing.T) {
	// Memberwise map<string, vector<int>>: both columns are variable
	// length, so the element counts come only from the map size.
	root := NewSTLMap("m", true, true,
		NewSTLString("key", false),
		NewSTLSeq("val", false, NewInt32("val")))
	data := new(enc).nbytes(0).raw(0, 0, 0, 0, 0, 0, 0, 0).
		u32(2).
		str("a").str("bc").
		u32(2).i32(1).i32(2).
		u32(0)
	payload, err := ReadData(data.b, []uint32{0, data.len()}, root)
	require.NoError(t, err)
	want := rbranch.Map{
		Offsets: []uint32{0, 2},
		Keys: rbranch.Bytes{
			Offsets: []uint32{0, 1, 3},
			Data:    []byte("abc"),
		},
		Values: rbranch.List{
			Offsets: []uint32{0, 2, 2},
			Values:  rbranch.Flat[int32]{1, 2},
		},
	}
	assert.Equal(t, want, payload)
}

func TestSTLMapEmptyKeepsHeader(t *testing.T) {
	root := NewSTLMap("m", true, false, NewInt32("key"), NewInt32("val"))
	data := new(enc).nbytes(12).raw(0, 0, 0, 0, 0, 0, 0, 0).u32(0)
	payload, err := ReadData(data.b, []uint32{0, data.len()}, root)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 0}, payload.(rbranch.Map).Offsets)
}

func TestSTLStringWithHeader(t *testing.T) {
	root := NewSTLString("s", true)
	data := new(enc).nbytes(6).version(2).str("hey")
	payload, err := ReadData(data.b, []uint32{0, data.len()}, root)
	require.NoError(t, err)
	assert.Equal(t, rbranch.Bytes{
		Offsets: []uint32{0, 3},
		Data:    []byte("hey"),
	}, payload)
}

func TestSTLSeqNegativeCountDecodesToHeaderEnd(t *testing.T) {
	s := NewSTLSeq("v", true, NewInt32("v"))
	// Two bodies inside one header: nbytes = version + 2*(count+elems).
	data := new(enc).nbytes(2 + 8 + 8).version(1).
		u32(1).i32(1).
		u32(1).i32(2)
	b := rbuf.New(data.b, []uint32{0, data.len()})
	n, err := s.ReadCount(b, -1)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), n)
	assert.Equal(t, int(data.len()), b.Pos())
}

func TestSTLSeqNegativeCountWithoutHeader(t *testing.T) {
	s := NewSTLSeq("v", false, NewInt32("v"))
	_, err := s.ReadCount(rbuf.New(nil, []uint32{0}), -1)
	assert.ErrorIs(t, err, ErrNegativeCount)
}

func TestReadNNegativeCountOnPrimitive(t *testing.T) {
	_, err := ReadN(NewInt32("v"), rbuf.New(nil, []uint32{0}), -1)
	assert.ErrorIs(t, err, ErrNegativeCount)
}

func TestTArray(t *testing.T) {
	root := NewTArrayI("a")
	data := new(enc).u32(2).i32(7).i32(8).u32(0)
	payload, err := ReadData(data.b, []uint32{0, 12, 16}, root)
	require.NoError(t, err)
	assert.Equal(t, rbranch.List{
		Offsets: []uint32{0, 2, 2},
		Values:  rbranch.Flat[int32]{7, 8},
	}, payload)
}

func TestTObjectDiscard(t *testing.T) {
	root := NewTObject("base", false)
	data := new(enc).version(1).u32(42).u32(0)
	payload, err := ReadData(data.b, []uint32{0, data.len()}, root)
	require.NoError(t, err)
	assert.Nil(t, payload)
}

func TestTObjectRetain(t *testing.T) {
	root := NewTObject("base", true)
	data := new(enc).
		version(1).u32(42).u32(rbuf.IsReferenced).u16(7). // referenced
		version(1).u32(43).u32(0)                         // not referenced
	payload, err := ReadData(data.b, []uint32{0, 12, 22}, root)
	require.NoError(t, err)
	want := rbranch.Refs{
		UniqueID:   []uint32{42, 43},
		Bits:       []uint32{rbuf.IsReferenced, 0},
		PID:        []uint16{7},
		PIDOffsets: []uint32{0, 1, 1},
	}
	assert.Equal(t, want, payload)
}

func TestNBytesVersionChecksLength(t *testing.T) {
	// The wrapper advertises 3 bytes of body but the child consumes 4.
	root := NewNBytesVersion("obj", NewInt32("field"))
	data := new(enc).nbytes(5).version(1).i32(9)
	_, err := ReadData(data.b, []uint32{0, data.len()}, root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field")
	assert.Contains(t, err.Error(), "expected 3 bytes, got 4")
}

func TestNBytesVersionPassThrough(t *testing.T) {
	root := NewNBytesVersion("obj", NewInt32("field"))
	data := new(enc).nbytes(6).version(1).i32(9)
	payload, err := ReadData(data.b, []uint32{0, data.len()}, root)
	require.NoError(t, err)
	assert.Equal(t, rbranch.Flat[int32]{9}, payload)
}

func TestObjectHeaderNewClass(t *testing.T) {
	body := new(enc).i32(3)
	name := append([]byte("TThing"), 0)
	root := NewObjectHeader("obj", NewInt32("field"))
	data := new(enc).nbytes(uint32(4 + len(name) + len(body.b))).
		u32(rbuf.NewClassTag).raw(name...).raw(body.b...)
	payload, err := ReadData(data.b, []uint32{0, data.len()}, root)
	require.NoError(t, err)
	assert.Equal(t, rbranch.Flat[int32]{3}, payload)
}

func TestObjectHeaderBackReference(t *testing.T) {
	root := NewObjectHeader("obj", NewInt32("field"))
	data := new(enc).nbytes(8).u32(0x80000001).i32(4)
	payload, err := ReadData(data.b, []uint32{0, data.len()}, root)
	require.NoError(t, err)
	assert.Equal(t, rbranch.Flat[int32]{4}, payload)
}

func TestObjectHeaderChecksLength(t *testing.T) {
	root := NewObjectHeader("obj", NewInt32("field"))
	data := new(enc).nbytes(12).u32(0x80000001).i32(4).i32(5)
	_, err := ReadData(data.b, []uint32{0, data.len()}, root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid read length")
}

func TestBaseObject(t *testing.T) {
	root := NewBaseObject("TEvent", []Reader{
		NewTObject("TObject", false),
		NewInt32("fID"),
		NewTString("fTag"),
	})
	data := new(enc).nbytes(0).version(3).
		version(1).u32(0).u32(0). // TObject header
		i32(11).
		str("x")
	payload, err := ReadData(data.b, []uint32{0, data.len()}, root)
	require.NoError(t, err)
	rec := payload.(rbranch.Record)
	require.Len(t, rec, 3)
	assert.Nil(t, rec[0])
	assert.Equal(t, rbranch.Flat[int32]{11}, rec[1])
	assert.Equal(t, rbranch.Bytes{Offsets: []uint32{0, 1}, Data: []byte("x")}, rec[2])
}

func TestEmptyReader(t *testing.T) {
	payload, err := ReadData(nil, []uint32{0, 0}, NewEmpty("skip"))
	require.NoError(t, err)
	assert.Nil(t, payload)
}

func TestEventLengthMismatch(t *testing.T) {
	data := new(enc).i32(1).i32(2).i32(-1)
	_, err := ReadData(data.b, []uint32{0, 4, 7, 12}, NewInt32("val"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "val")
	assert.Contains(t, err.Error(), "entry 1")
	assert.Contains(t, err.Error(), "expected 3 bytes, got 4")
}

func TestBadByteCountIsFatal(t *testing.T) {
	data := new(enc).u32(6).version(1).u32(0) // marker bit missing
	_, err := ReadData(data.b, []uint32{0, data.len()}, NewSTLSeq("v", true, NewInt32("v")))
	require.Error(t, err)
	assert.ErrorIs(t, err, rbuf.ErrByteCountMarker)
}
