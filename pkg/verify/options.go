package verify

import "github.com/nsxbet/sqlguard/pkg/dialect"

type config struct {
	dialect dialect.Dialect
	risk    float64
	denied  map[string]bool
}

// Option customizes a VerifySQL call, mirroring the teacher's
// reviewer.ReviewOption functional-options shape.
type Option func(*config)

// WithDialect selects the SQL dialect a query is parsed/serialized under.
// Unrecognized names map to dialect.Unspecified; every dialect currently
// parses through the same grammar (see pkg/dialect).
func WithDialect(name string) Option {
	return func(c *config) {
		c.dialect = dialect.Parse(name)
	}
}

// WithRisk sets the verdict's risk field. The core itself always computes
// 0.0; this lets an external collaborator (e.g. an LLM-based scorer, §9)
// inject its own score without the core needing to know how it was derived.
func WithRisk(risk float64) Option {
	return func(c *config) {
		c.risk = risk
	}
}

// WithDeniedFunctions configures the function-call deny-list the column
// checker enforces (§4.4 point 4). Empty by default.
func WithDeniedFunctions(names ...string) Option {
	return func(c *config) {
		if c.denied == nil {
			c.denied = map[string]bool{}
		}
		for _, n := range names {
			c.denied[lower(n)] = true
		}
	}
}

func lower(s string) string {
	b := []byte(s)
	for i, ch := range b {
		if ch >= 'A' && ch <= 'Z' {
			b[i] = ch + ('a' - 'A')
		}
	}
	return string(b)
}
