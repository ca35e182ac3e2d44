// Package scope models the lexical nesting SQL introduces — a top-level
// query, a CTE body, a derived-table subquery — as a chain of frames, each
// an ordered mapping from alias/name to what it resolves to (§3 ScopeFrame).
package scope

// Kind distinguishes what a Frame binding ultimately resolves to.
type Kind int

const (
	KindTable Kind = iota
	KindSubquery
)

// Binding is one name/alias resolved within a Frame: either a policy table
// (Table holds its name as written in the policy) or a derived subquery/CTE
// exposing its own output columns. Names are compared case-insensitively.
type Binding struct {
	Kind    Kind
	Ref     string   // the alias/name this binding is addressed by in the query
	Table   string   // policy table name (KindTable only)
	Columns []string // visible column names (KindSubquery; also mirrors Table's allowed columns for KindTable)
}

// Frame is the set of bindings visible at one nesting level, plus a link to
// its parent so lookups can walk outward for correlated references.
type Frame struct {
	Parent   *Frame
	Bindings []Binding          // order preserved: "in source order" per §4.4
	ctes     map[string]Binding // CTE names bound by an enclosing WITH
}

// NewFrame returns an empty frame nested under parent (nil for a top-level
// query).
func NewFrame(parent *Frame) *Frame {
	return &Frame{Parent: parent}
}

// Bind adds a binding to this frame, in FROM-clause order.
func (f *Frame) Bind(b Binding) {
	f.Bindings = append(f.Bindings, b)
}

// BindCTE registers a CTE name, visible to this frame and everything nested
// inside it, per §4.3 ("CTE names bind in the With-body scope").
func (f *Frame) BindCTE(name string, b Binding) {
	if f.ctes == nil {
		f.ctes = map[string]Binding{}
	}
	f.ctes[name] = b
}

// LookupCTE resolves name against this frame's own CTE bindings, then its
// parent chain.
func (f *Frame) LookupCTE(name string) (Binding, bool) {
	for s := f; s != nil; s = s.Parent {
		if s.ctes != nil {
			if b, ok := s.ctes[name]; ok {
				return b, true
			}
		}
	}
	return Binding{}, false
}

// LookupRef resolves an alias/table name against this frame's own bindings
// only — table references do not see outer scopes, only CTEs do.
func (f *Frame) LookupRef(name string) (Binding, bool) {
	for _, b := range f.Bindings {
		if equalFold(b.Ref, name) {
			return b, true
		}
	}
	return Binding{}, false
}

// ResolveColumn finds every binding in this frame (walking outward on a miss,
// to support correlated subqueries) that exposes a column named name when
// table is empty, or the single binding addressed by table when it is not.
// ok is false when nothing matches; ambiguous is true when table is empty
// and more than one visible binding exposes the column.
func (f *Frame) ResolveColumn(table, name string) (b Binding, ok bool, ambiguous bool) {
	for s := f; s != nil; s = s.Parent {
		if table != "" {
			bind, found := s.LookupRef(table)
			if found {
				return bind, bind.hasColumn(name), false
			}
			continue
		}
		var match Binding
		count := 0
		for _, bind := range s.Bindings {
			if bind.hasColumn(name) {
				match = bind
				count++
			}
		}
		if count == 1 {
			return match, true, false
		}
		if count > 1 {
			return Binding{}, false, true
		}
	}
	return Binding{}, false, false
}

func (b Binding) hasColumn(name string) bool {
	for _, c := range b.Columns {
		if equalFold(c, name) {
			return true
		}
	}
	return false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
