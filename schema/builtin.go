package schema

import (
	"fmt"

	"github.com/hepio/rbranch/reader"
)

// The built-in factories cover the layouts the producing framework streams:
// primitives, the STL containers, the TArray and TString classes, TObject
// bases, named class bodies, C-style arrays, and the object-header fallback
// for any registered class.  Matching order: drop placeholders (30),
// C-style arrays (20), everything else (10), object-header fallback (0).
func builtins() []Factory {
	return []Factory{
		emptyFactory{},
		cstyleArrayFactory{},
		primitiveFactory{},
		stlSeqFactory{},
		stlMapFactory{},
		stlStringFactory{},
		tarrayFactory{},
		tstringFactory{},
		tobjectFactory{},
		baseClassFactory{},
		objectHeaderFactory{},
	}
}

// primitiveTypes maps every alias the streamers use for a fixed-width type
// to its reader constructor.
var primitiveTypes = map[string]func(string) reader.Reader{
	"bool":               func(n string) reader.Reader { return reader.NewBool(n) },
	"char":               func(n string) reader.Reader { return reader.NewInt8(n) },
	"short":              func(n string) reader.Reader { return reader.NewInt16(n) },
	"int":                func(n string) reader.Reader { return reader.NewInt32(n) },
	"long":               func(n string) reader.Reader { return reader.NewInt64(n) },
	"long long":          func(n string) reader.Reader { return reader.NewInt64(n) },
	"unsigned char":      func(n string) reader.Reader { return reader.NewUint8(n) },
	"unsigned short":     func(n string) reader.Reader { return reader.NewUint16(n) },
	"unsigned int":       func(n string) reader.Reader { return reader.NewUint32(n) },
	"unsigned long":      func(n string) reader.Reader { return reader.NewUint64(n) },
	"unsigned long long": func(n string) reader.Reader { return reader.NewUint64(n) },
	"float":              func(n string) reader.Reader { return reader.NewFloat32(n) },
	"double":             func(n string) reader.Reader { return reader.NewFloat64(n) },
	"int8_t":             func(n string) reader.Reader { return reader.NewInt8(n) },
	"int16_t":            func(n string) reader.Reader { return reader.NewInt16(n) },
	"int32_t":            func(n string) reader.Reader { return reader.NewInt32(n) },
	"int64_t":            func(n string) reader.Reader { return reader.NewInt64(n) },
	"uint8_t":            func(n string) reader.Reader { return reader.NewUint8(n) },
	"uint16_t":           func(n string) reader.Reader { return reader.NewUint16(n) },
	"uint32_t":           func(n string) reader.Reader { return reader.NewUint32(n) },
	"uint64_t":           func(n string) reader.Reader { return reader.NewUint64(n) },
	"Bool_t":             func(n string) reader.Reader { return reader.NewBool(n) },
	"Char_t":             func(n string) reader.Reader { return reader.NewInt8(n) },
	"Short_t":            func(n string) reader.Reader { return reader.NewInt16(n) },
	"Int_t":              func(n string) reader.Reader { return reader.NewInt32(n) },
	"Long_t":             func(n string) reader.Reader { return reader.NewInt64(n) },
	"Long64_t":           func(n string) reader.Reader { return reader.NewInt64(n) },
	"UChar_t":            func(n string) reader.Reader { return reader.NewUint8(n) },
	"UShort_t":           func(n string) reader.Reader { return reader.NewUint16(n) },
	"UInt_t":             func(n string) reader.Reader { return reader.NewUint32(n) },
	"ULong_t":            func(n string) reader.Reader { return reader.NewUint64(n) },
	"ULong64_t":          func(n string) reader.Reader { return reader.NewUint64(n) },
	"Float_t":            func(n string) reader.Reader { return reader.NewFloat32(n) },
	"Double_t":           func(n string) reader.Reader { return reader.NewFloat64(n) },
}

var tarrayTypes = map[string]func(string) reader.Reader{
	"TArrayC": func(n string) reader.Reader { return reader.NewTArrayC(n) },
	"TArrayS": func(n string) reader.Reader { return reader.NewTArrayS(n) },
	"TArrayI": func(n string) reader.Reader { return reader.NewTArrayI(n) },
	"TArrayL": func(n string) reader.Reader { return reader.NewTArrayL(n) },
	"TArrayF": func(n string) reader.Reader { return reader.NewTArrayF(n) },
	"TArrayD": func(n string) reader.Reader { return reader.NewTArrayD(n) },
}

// stlTypes are the container names whose nested occurrences are streamed
// without their own byte-count headers.
var stlTypes = map[string]bool{
	"vector":        true,
	"array":         true,
	"list":          true,
	"set":           true,
	"unordered_set": true,
	"map":           true,
	"unordered_map": true,
	"multimap":      true,
	"string":        true,
}

var seqTypes = map[string]bool{
	"vector":        true,
	"array":         true,
	"list":          true,
	"set":           true,
	"unordered_set": true,
}

var mapTypes = map[string]bool{
	"map":           true,
	"unordered_map": true,
	"multimap":      true,
}

type primitiveFactory struct{}

func (primitiveFactory) Priority() int { return 10 }

func (primitiveFactory) NewReader(r *Registry, n *Node) (reader.Reader, error) {
	t, err := r.ParseTypeName(n.TypeName)
	if err != nil || len(t.Args) > 0 {
		return nil, nil
	}
	newReader, ok := primitiveTypes[t.Name]
	if !ok {
		return nil, nil
	}
	return newReader(n.Name), nil
}

type stlSeqFactory struct{}

func (stlSeqFactory) Priority() int { return 10 }

func (stlSeqFactory) NewReader(r *Registry, n *Node) (reader.Reader, error) {
	t, err := r.ParseTypeName(n.TypeName)
	if err != nil || !seqTypes[t.Name] || len(t.Args) == 0 {
		return nil, nil
	}
	elem := Node{
		Name:       n.Name,
		TypeName:   t.Args[0].String(),
		Memberwise: n.Memberwise,
		noHeader:   true,
		path:       n.path,
	}
	elemReader, err := r.NewReader(&elem)
	if err != nil {
		return nil, err
	}
	return reader.NewSTLSeq(n.Name, !n.noHeader, elemReader), nil
}

type stlMapFactory struct{}

func (stlMapFactory) Priority() int { return 10 }

func (stlMapFactory) NewReader(r *Registry, n *Node) (reader.Reader, error) {
	t, err := r.ParseTypeName(n.TypeName)
	if err != nil || !mapTypes[t.Name] || len(t.Args) < 2 {
		return nil, nil
	}
	key := Node{
		Name:       "key",
		TypeName:   t.Args[0].String(),
		Memberwise: n.Memberwise,
		noHeader:   true,
		path:       n.path + ".key",
	}
	keyReader, err := r.NewReader(&key)
	if err != nil {
		return nil, err
	}
	val := Node{
		Name:       "val",
		TypeName:   t.Args[1].String(),
		Memberwise: n.Memberwise,
		noHeader:   true,
		path:       n.path + ".val",
	}
	valReader, err := r.NewReader(&val)
	if err != nil {
		return nil, err
	}
	return reader.NewSTLMap(n.Name, !n.noHeader, n.Memberwise, keyReader, valReader), nil
}

type stlStringFactory struct{}

func (stlStringFactory) Priority() int { return 10 }

func (stlStringFactory) NewReader(r *Registry, n *Node) (reader.Reader, error) {
	t, err := r.ParseTypeName(n.TypeName)
	if err != nil || t.Name != "string" || len(t.Args) > 0 {
		return nil, nil
	}
	return reader.NewSTLString(n.Name, !n.top && !n.noHeader), nil
}

type tarrayFactory struct{}

func (tarrayFactory) Priority() int { return 10 }

func (tarrayFactory) NewReader(r *Registry, n *Node) (reader.Reader, error) {
	newReader, ok := tarrayTypes[n.TypeName]
	if !ok {
		return nil, nil
	}
	return newReader(n.Name), nil
}

type tstringFactory struct{}

func (tstringFactory) Priority() int { return 10 }

func (tstringFactory) NewReader(r *Registry, n *Node) (reader.Reader, error) {
	if n.TypeName != "TString" {
		return nil, nil
	}
	return reader.NewTString(n.Name), nil
}

type tobjectFactory struct{}

func (tobjectFactory) Priority() int { return 10 }

func (tobjectFactory) NewReader(r *Registry, n *Node) (reader.Reader, error) {
	if n.TypeName != "BASE" || n.Kind != KindTObject {
		return nil, nil
	}
	return reader.NewTObject(n.Name, r.retain[n.path]), nil
}

type baseClassFactory struct{}

func (baseClassFactory) Priority() int { return 10 }

func (baseClassFactory) NewReader(r *Registry, n *Node) (reader.Reader, error) {
	if n.TypeName != "BASE" || n.Kind != KindBase {
		return nil, nil
	}
	members, ok := r.Class(n.Name)
	if !ok {
		return nil, fmt.Errorf("base class %s at %s is not registered", n.Name, n.path)
	}
	readers, err := r.buildMembers(n.Name, n.path, members)
	if err != nil {
		return nil, err
	}
	return reader.NewBaseObject(n.Name, readers), nil
}

// cstyleArrayFactory matches before the type-driven factories so that array
// shape is peeled off ahead of element-type matching.
type cstyleArrayFactory struct{}

func (cstyleArrayFactory) Priority() int { return 20 }

func (cstyleArrayFactory) NewReader(r *Registry, n *Node) (reader.Reader, error) {
	elemTypeName, ranks := splitArraySuffix(n.TypeName)
	if ranks == 0 && n.ArrayDim == 0 {
		return nil, nil
	}
	flatSize := int64(-1)
	if ranks == 0 {
		flatSize = 1
		for _, dim := range n.MaxIndex[:n.ArrayDim] {
			flatSize *= dim
		}
		if flatSize <= 0 {
			return nil, fmt.Errorf("%s: array of %s has no extent", n.path, elemTypeName)
		}
	}
	elem := Node{
		Name:       n.Name,
		TypeName:   elemTypeName,
		Kind:       n.Kind,
		Memberwise: n.Memberwise,
		path:       n.path,
	}
	t, err := r.ParseTypeName(elemTypeName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", n.path, err)
	}

	// A C-style array consumes no header itself.  When the member is
	// streamed behind a byte-count and version pair, the header belongs to
	// the element run: STL elements consume it through their counted and
	// ranged entry points, while TString elements (which have no such entry
	// points) get an NBytesVersion wrapper around the whole array.
	var wrap bool
	switch {
	case len(t.Args) == 0 && (primitiveTypes[t.Name] != nil || tarrayTypes[t.Name] != nil):
		elem.noHeader = true
	case t.Name == "TString":
		wrap = true
	case stlTypes[t.Name]:
		headered := !n.top || n.Kind == KindSTLObject
		if flatSize < 0 {
			// Ragged container runs are delimited by their outer byte
			// count; without it the element boundary is lost.
			headered = true
		}
		elem.noHeader = !headered
	default:
		return nil, fmt.Errorf("%w: %q as C-style array element for %s",
			ErrUnknownType, elemTypeName, n.path)
	}

	elemReader, err := r.NewReader(&elem)
	if err != nil {
		return nil, err
	}
	arr := reader.NewCStyleArray(n.Name, flatSize, elemReader)
	if wrap {
		return reader.NewNBytesVersion(n.Name, arr), nil
	}
	return arr, nil
}

type emptyFactory struct{}

func (emptyFactory) Priority() int { return 30 }

func (emptyFactory) NewReader(r *Registry, n *Node) (reader.Reader, error) {
	if !n.Drop {
		return nil, nil
	}
	return reader.NewEmpty(n.Name), nil
}

// objectHeaderFactory is the fallback: any registered class not claimed by a
// higher-priority factory decodes as an object header wrapping the class's
// members.
type objectHeaderFactory struct{}

func (objectHeaderFactory) Priority() int { return 0 }

func (objectHeaderFactory) NewReader(r *Registry, n *Node) (reader.Reader, error) {
	t, err := r.ParseTypeName(n.TypeName)
	if err != nil {
		return nil, nil
	}
	members, ok := r.Class(t.Name)
	if !ok {
		return nil, nil
	}
	readers, err := r.buildMembers(t.Name, n.path, members)
	if err != nil {
		return nil, err
	}
	return reader.NewObjectHeader(t.Name, reader.NewGroup(t.Name, readers)), nil
}
