// Package policy models the declarative allow-list a query is checked
// against: permitted tables, their allowed columns, and the row-level
// restrictions every query touching them must carry.
package policy

// Op is a restriction's comparison operator.
type Op string

const (
	OpEq      Op = "="
	OpLt      Op = "<"
	OpGt      Op = ">"
	OpLe      Op = "<="
	OpGe      Op = ">="
	OpBetween Op = "BETWEEN"
	OpIn      Op = "IN"
)

// Restriction is a tagged variant over the operation kind: scalar
// comparisons carry one Value, BETWEEN carries Low/High, IN carries Values.
// The validator is the only place that constructs one; the enforcer matches
// on Op exhaustively.
type Restriction struct {
	Column string
	Op     Op
	Value  any   // for Eq/Lt/Gt/Le/Ge
	Low    any   // for Between
	High   any   // for Between
	Values []any // for In
}

// Table is one policy entry: a table name, its ordered allowed columns, and
// the restrictions that must hold wherever the table is referenced.
type Table struct {
	Name         string
	Columns      []string
	Restrictions []Restriction
}

// Policy is the full allow-list: a validated, immutable set of tables.
// Construct one via Load or Validate; never mutate a Policy after that.
type Policy struct {
	Tables []Table
}

// RawPolicy and RawTable mirror the canonical JSON/YAML wire shape (§6 of
// the policy schema) before case-canonicalization and restriction typing.
// Validate consumes a RawPolicy; the loader is responsible for normalizing
// whatever shape it read (including the legacy map-of-tables form) into one.
type RawPolicy struct {
	Tables []RawTable `yaml:"tables" json:"tables"`
}

type RawTable struct {
	TableName    string           `yaml:"table_name" json:"table_name" mapstructure:"table_name"`
	Columns      []string         `yaml:"columns" json:"columns" mapstructure:"columns"`
	Restrictions []RawRestriction `yaml:"restrictions" json:"restrictions" mapstructure:"restrictions"`
}

type RawRestriction struct {
	Column    string `yaml:"column" json:"column" mapstructure:"column"`
	Operation string `yaml:"operation" json:"operation" mapstructure:"operation"`
	Value     any    `yaml:"value" json:"value" mapstructure:"value"`
	Values    []any  `yaml:"values" json:"values" mapstructure:"values"`
}

// Table looks up a table by case-insensitive name. ok is false when no such
// table is in the policy.
func (p *Policy) Table(name string) (Table, bool) {
	lower := lowerIdent(name)
	for _, t := range p.Tables {
		if lowerIdent(t.Name) == lower {
			return t, true
		}
	}
	return Table{}, false
}

// HasColumn reports whether name is in the table's allowed column list,
// case-insensitively.
func (t Table) HasColumn(name string) bool {
	lower := lowerIdent(name)
	for _, c := range t.Columns {
		if lowerIdent(c) == lower {
			return true
		}
	}
	return false
}

func lowerIdent(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
