// Package sqlparse adapts a real SQL parser (libpg_query, via pg_query_go)
// into the stable AST the rest of the analyzer consumes. It owns the only
// dependency on a concrete grammar; everything downstream of Parse works
// exclusively in terms of pkg/ast.
package sqlparse

import (
	pgquery "github.com/pganalyze/pg_query_go/v6"

	"github.com/nsxbet/sqlguard/pkg/ast"
)

// Result is what Parse returns: the converted statement plus the ID
// generator the analyzer continues allocating synthetic node IDs from.
type Result struct {
	Statement ast.Statement
	IDs       *ast.IDGen
}

// Parse parses a single SQL statement into our AST. Multi-statement input,
// and anything libpg_query itself rejects, comes back as an *Error.
func Parse(sql string) (*Result, error) {
	if commentOnlySelectList(sql) {
		return parseCommentOnlyProjection(sql)
	}

	cleaned := stripComments(sql)
	parsed, err := pgquery.Parse(cleaned)
	if err != nil {
		return nil, wrapError(err, "failed to parse SQL")
	}
	if len(parsed.GetStmts()) == 0 {
		return nil, newError("no SQL statement found")
	}
	if len(parsed.GetStmts()) > 1 {
		return nil, wrapError(errMultiStatement, "failed to parse SQL")
	}

	conv := newConverter()
	stmt, err := conv.convertStatement(parsed.GetStmts()[0].GetStmt())
	if err != nil {
		return nil, wrapError(err, "failed to convert parsed SQL")
	}
	return &Result{Statement: stmt, IDs: conv.ids}, nil
}

// parseCommentOnlyProjection handles "SELECT /* ... */ FROM t" style input:
// real grammar has no production for an empty target list, so we substitute
// a harmless placeholder column to get a parseable statement, then discard
// it; checkProjections sees the resulting empty projection list and reports
// it through its own "no legal elements" path.
func parseCommentOnlyProjection(sql string) (*Result, error) {
	loc := selectKeyword.FindStringIndex(sql)
	if loc == nil {
		return nil, newError("failed to locate SELECT keyword")
	}

	substituted := sql[:loc[1]] + " 1 " + sql[loc[1]:]

	parsed, err := pgquery.Parse(stripComments(substituted))
	if err != nil {
		return nil, wrapError(err, "failed to parse SQL")
	}
	if len(parsed.GetStmts()) != 1 {
		return nil, wrapError(errMultiStatement, "failed to parse SQL")
	}

	conv := newConverter()
	stmt, err := conv.convertStatement(parsed.GetStmts()[0].GetStmt())
	if err != nil {
		return nil, wrapError(err, "failed to convert parsed SQL")
	}

	clearProjections(stmt)
	return &Result{Statement: stmt, IDs: conv.ids}, nil
}

// clearProjections empties the projection list of the innermost Select so
// the column checker sees exactly the "stripped to nothing" state it
// already knows how to report.
func clearProjections(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.Select:
		s.Projections = nil
	case *ast.With:
		clearProjections(s.Body)
	}
}
