// Package dialect names the SQL dialect a query is checked under. Coverage
// beyond the default is a configuration knob, not a distinct code path
// (spec §9 open question): every Dialect currently parses through the same
// ANSI-leaning grammar in pkg/sqlparse.
package dialect

// Dialect selects the surface a query is parsed/serialized against.
type Dialect int32

const (
	Unspecified Dialect = 0
	Trino       Dialect = 1
	Postgres    Dialect = 2
)

func (d Dialect) String() string {
	switch d {
	case Trino:
		return "trino"
	case Postgres:
		return "postgres"
	default:
		return "unspecified"
	}
}

// Parse maps a dialect name (case-insensitive) to a Dialect, defaulting to
// Trino for an empty string per the programmatic contract's default.
func Parse(name string) Dialect {
	switch lower(name) {
	case "", "trino", "presto":
		return Trino
	case "postgres", "postgresql":
		return Postgres
	default:
		return Unspecified
	}
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
