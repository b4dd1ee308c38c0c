package schema

import (
	"fmt"
	"strings"
)

// A TypeExpr is a parsed C++ type name: the outer template (or plain) name
// and its type arguments.  Allocator, comparator, and hash arguments beyond
// the container's element types are retained in Args; factories take the
// arguments they need from the front.
type TypeExpr struct {
	Name string
	Args []*TypeExpr
}

// ParseTypeName parses names like "map<int, vector<string>>".  Parses are
// memoized in the registry since streamer trees repeat type names heavily.
func (r *Registry) ParseTypeName(s string) (*TypeExpr, error) {
	if t, ok := r.parses.Get(s); ok {
		return t, nil
	}
	t, rest, err := parseTypeExpr(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	if rest != "" {
		return nil, fmt.Errorf("malformed type name %q: trailing %q", s, rest)
	}
	r.parses.Add(s, t)
	return t, nil
}

func parseTypeExpr(s string) (*TypeExpr, string, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "const "))
	i := strings.IndexAny(s, "<,>")
	if i < 0 {
		return &TypeExpr{Name: strings.TrimSpace(s)}, "", nil
	}
	if s[i] != '<' {
		return &TypeExpr{Name: strings.TrimSpace(s[:i])}, s[i:], nil
	}
	t := &TypeExpr{Name: strings.TrimSpace(s[:i])}
	rest := s[i+1:]
	for {
		arg, tail, err := parseTypeExpr(rest)
		if err != nil {
			return nil, "", err
		}
		t.Args = append(t.Args, arg)
		tail = strings.TrimSpace(tail)
		if tail == "" {
			return nil, "", fmt.Errorf("malformed type name %q: unterminated template", s)
		}
		switch tail[0] {
		case ',':
			rest = tail[1:]
		case '>':
			return t, strings.TrimSpace(tail[1:]), nil
		default:
			return nil, "", fmt.Errorf("malformed type name %q", s)
		}
	}
}

// splitArraySuffix strips trailing "[]" ranks from a type name, returning
// the element type name and the number of ranks stripped.
func splitArraySuffix(s string) (string, int) {
	var ranks int
	s = strings.TrimSpace(s)
	for strings.HasSuffix(s, "[]") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "[]"))
		ranks++
	}
	return s, ranks
}

// String reassembles the parsed form, normalizing whitespace.
func (t *TypeExpr) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.String()
	}
	return t.Name + "<" + strings.Join(args, ", ") + ">"
}
