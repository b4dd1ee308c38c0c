// Package schema builds reader trees from streamer information.  A Registry
// holds an ordered set of factories; each streamer node is offered to the
// factories in descending priority order and the first one that recognizes
// it supplies the reader.  User factories register alongside the built-ins
// and can shadow them by priority.
package schema

import (
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hepio/rbranch/reader"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Streamer element kinds that alter factory matching.  The zero value is a
// plain base class; KindTObject marks the TObject base element and
// KindSTLObject marks an STL member streamed behind its own object header.
const (
	KindBase      = 0
	KindTObject   = 66
	KindSTLObject = 500
)

// A Node describes one streamed member: its field name, its declared C++
// type, and the array shape when the member is a C-style array.  Class
// definitions are lists of member Nodes registered with AddClass.
type Node struct {
	Name     string  `yaml:"name"`
	TypeName string  `yaml:"type"`
	Kind     int     `yaml:"kind,omitempty"`
	ArrayDim int     `yaml:"array_dim,omitempty"`
	MaxIndex []int64 `yaml:"max_index,omitempty"`
	// Memberwise selects column-oriented storage for map members whose
	// producer streamed them field by field.
	Memberwise bool `yaml:"memberwise,omitempty"`
	// Drop replaces the member's reader with a placeholder that decodes
	// nothing.  The bytes must still not exist on the wire; Drop is for
	// members the producer never streamed.
	Drop bool `yaml:"drop,omitempty"`

	// noHeader is set on container element nodes, whose headers the
	// enclosing container owns.  top marks the branch's root node.
	noHeader bool
	top      bool
	path     string
}

// Path returns the dotted location of the node in its branch, for error
// messages and retention opt-ins.
func (n *Node) Path() string { return n.path }

// A Factory recognizes streamer nodes and builds readers for them.
// NewReader returns (nil, nil) for nodes it does not recognize.
type Factory interface {
	Priority() int
	NewReader(r *Registry, n *Node) (reader.Reader, error)
}

// ErrUnknownType reports a streamer node no factory recognized.
var ErrUnknownType = errors.New("unknown type")

// parseCacheSize bounds the memoized type-name parses; streamer trees repeat
// the same handful of container types heavily.
const parseCacheSize = 512

// Registry is the process-visible extension surface: the factory order, the
// registered class definitions, and the TObject retention opt-ins.  A
// Registry only builds reader trees; the trees themselves are independent
// and may decode concurrently.
type Registry struct {
	factories []Factory
	classes   map[string][]Node
	retain    map[string]bool
	parses    *lru.Cache[string, *TypeExpr]
	logger    *zap.Logger
}

// NewRegistry returns a Registry with the built-in factories installed.
// logger may be nil.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	parses, err := lru.New[string, *TypeExpr](parseCacheSize)
	if err != nil {
		panic(err)
	}
	r := &Registry{
		classes: make(map[string][]Node),
		retain:  make(map[string]bool),
		parses:  parses,
		logger:  logger,
	}
	for _, f := range builtins() {
		r.Register(f)
	}
	return r
}

// Register installs a factory, keeping the factory list sorted by descending
// priority.  Registration order breaks ties, earlier first.
func (r *Registry) Register(f Factory) {
	i := len(r.factories)
	for i > 0 && r.factories[i-1].Priority() < f.Priority() {
		i--
	}
	r.factories = append(r.factories, nil)
	copy(r.factories[i+1:], r.factories[i:])
	r.factories[i] = f
}

// AddClass registers the member list of a streamed class.
func (r *Registry) AddClass(name string, members []Node) {
	r.classes[name] = members
}

// Class returns the member list of a registered class.
func (r *Registry) Class(name string) ([]Node, bool) {
	members, ok := r.classes[name]
	return members, ok
}

// RetainTObject opts the TObject header at the given item path into data
// retention; by default TObject headers are skipped without recording.
func (r *Registry) RetainTObject(path string) {
	r.retain[path] = true
}

// Build constructs the reader tree for a branch whose root member is
// described by node.
func (r *Registry) Build(node Node) (reader.Reader, error) {
	node.top = true
	node.path = node.Name
	return r.NewReader(&node)
}

// NewReader offers node to the factories in priority order and returns the
// first reader built.  Factories call back into NewReader for child nodes;
// user-supplied factories use it the same way.
func (r *Registry) NewReader(n *Node) (reader.Reader, error) {
	for _, f := range r.factories {
		rd, err := f.NewReader(r, n)
		if err != nil {
			return nil, err
		}
		if rd != nil {
			r.logger.Debug("factory matched",
				zap.String("path", n.path),
				zap.String("type", n.TypeName),
				zap.String("reader", rd.Name()))
			return rd, nil
		}
	}
	return nil, fmt.Errorf("%w: %q for %s", ErrUnknownType, n.TypeName, n.path)
}

// buildMembers builds the readers of a class body in member order.  An
// unsized C-style array consumes to the end of the event and therefore must
// be the final member; anything after one is unreachable and rejected here
// rather than at decode time.  Build failures across members are collected
// so one pass reports every bad member.
func (r *Registry) buildMembers(class, path string, members []Node) ([]reader.Reader, error) {
	var errs error
	readers := make([]reader.Reader, 0, len(members))
	for i, m := range members {
		m.path = path + "." + m.Name
		if unsized(&m) && i != len(members)-1 {
			errs = multierr.Append(errs, fmt.Errorf(
				"%s: unsized array %s must be the last member", class, m.path))
			continue
		}
		rd, err := r.NewReader(&m)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		readers = append(readers, rd)
	}
	if errs != nil {
		return nil, errs
	}
	return readers, nil
}

func unsized(n *Node) bool {
	_, ranks := splitArraySuffix(n.TypeName)
	return ranks > 0
}
