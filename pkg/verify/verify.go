// Package verify is the top-level entry point (C8 verdict aggregation):
// it wires the parser adapter, analyzer, and rewriter together into the
// single `verify_sql` contract described in §6.
package verify

import (
	"log/slog"

	"github.com/nsxbet/sqlguard/pkg/analyzer"
	"github.com/nsxbet/sqlguard/pkg/policy"
	"github.com/nsxbet/sqlguard/pkg/rewrite"
	"github.com/nsxbet/sqlguard/pkg/sqlparse"
)

// VerifySQL parses sql, checks it against pol, and returns the resulting
// Verdict. A non-nil error means the call failed outright (unparseable SQL)
// — per §7, that never shows up inside Verdict.Errors.
func VerifySQL(sql string, pol *policy.Policy, opts ...Option) (*Verdict, error) {
	cfg := config{dialect: 0}
	for _, opt := range opts {
		opt(&cfg)
	}
	// cfg.dialect is accepted and threaded through the config, but every
	// Dialect value currently parses and serializes through the same
	// grammar in pkg/sqlparse; see pkg/dialect's package doc.

	parsed, err := sqlparse.Parse(sql)
	if err != nil {
		slog.Debug("verify: parse failed", "error", err)
		return nil, err
	}

	result := analyzer.Analyze(parsed.Statement, pol, parsed.IDs, analyzer.DeniedFuncs(cfg.denied))

	verdict := &Verdict{
		Allowed: len(result.Errors) == 0,
		Errors:  result.Errors,
		Risk:    cfg.risk,
	}

	if !result.Unfixable {
		serialized := rewrite.Serialize(result.Statement)
		if rewrite.NormalizeWhitespace(sql) != serialized {
			verdict.Fixed = &serialized
		}
	}

	return verdict, nil
}
