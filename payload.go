package rbranch

// A Payload is the columnar result of decoding one field across all events of
// a branch.  Readers accumulate column data while decoding and surrender it
// as a Payload when the run completes.  The concrete kinds mirror the three
// column shapes of the wire format: flat fixed-width columns, variable-length
// byte columns with an offsets vector, and nested columns whose offsets
// delimit sub-ranges of a child payload.
//
// A nil Payload means the reader kept nothing, as with discarded TObject
// headers (which consume bytes) and placeholder fields (which consume none).
type Payload interface {
	payload()
}

// Value enumerates the primitive column element types.
type Value interface {
	~bool | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 | ~float32 | ~float64
}

// Flat is a flat column of primitives, one element per read.
type Flat[T Value] []T

// Bytes is a variable-length byte column.  Offsets has one more entry than
// there are values; value i spans Data[Offsets[i]:Offsets[i+1]].
type Bytes struct {
	Offsets []uint32
	Data    []byte
}

// List is a nested column.  Offsets[i+1]-Offsets[i] gives the number of
// child elements belonging to value i; the child elements themselves live
// flattened in Values.
type List struct {
	Offsets []uint32
	Values  Payload
}

// Map is the result of a map reader: per-map element counts in Offsets and
// the flattened key and value columns.
type Map struct {
	Offsets []uint32
	Keys    Payload
	Values  Payload
}

// Record aggregates the payloads of a group's children in field order.
// Children that kept nothing contribute a nil entry so positions line up
// with the reader tree.
type Record []Payload

// Refs holds retained TObject headers: one unique id and bit field per
// object, and a process-id reference for each object whose kIsReferenced
// bit was set.  PIDOffsets steps by 0 or 1 per object, delimiting PID.
type Refs struct {
	UniqueID   []uint32
	Bits       []uint32
	PID        []uint16
	PIDOffsets []uint32
}

func (Flat[T]) payload() {}
func (Bytes) payload()   {}
func (List) payload()    {}
func (Map) payload()     {}
func (Record) payload()  {}
func (Refs) payload()    {}
