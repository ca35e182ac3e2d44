// Package analyzer implements the combined scope-resolution,
// column-checking, restriction-enforcement, and anti-pattern-detection
// pass (C3-C6). The design note "Scope coupling" in the specification this
// carries forward calls for one visitor rather than four independent ones;
// Analyze (via analyzeStatement) is that visitor.
package analyzer

import (
	"fmt"

	"github.com/nsxbet/sqlguard/pkg/ast"
	"github.com/nsxbet/sqlguard/pkg/policy"
	"github.com/nsxbet/sqlguard/pkg/scope"
)

// DeniedFuncs is an optional configurable deny-list of function names
// (case-insensitive) the column checker rejects (§4.4 point 4).
type DeniedFuncs map[string]bool

// Result is everything the orchestrator (pkg/verify) needs to build a
// Verdict: the ordered violations found, whether the query is beyond
// automatic repair, and the (possibly mutated) statement to serialize.
type Result struct {
	Errors    []string
	Unfixable bool
	Statement ast.Statement
}

type analyzer struct {
	pol    *policy.Policy
	ids    *ast.IDGen
	denied DeniedFuncs
	errs   []string
	unfix  bool
}

// Analyze walks stmt against pol, mutating it in place, and returns the
// collected violations plus the mutated tree for pkg/rewrite to serialize.
func Analyze(stmt ast.Statement, pol *policy.Policy, ids *ast.IDGen, denied DeniedFuncs) *Result {
	a := &analyzer{pol: pol, ids: ids, denied: denied}
	a.analyzeStatement(stmt, nil)
	return &Result{Errors: a.errs, Unfixable: a.unfix, Statement: stmt}
}

func (a *analyzer) addError(msg string) {
	a.errs = append(a.errs, msg)
}

func (a *analyzer) nextID() int {
	return a.ids.Next()
}

// analyzeStatement dispatches on statement kind and returns the output
// column names a caller can use if this statement is itself the body of a
// subquery-as-source or CTE.
func (a *analyzer) analyzeStatement(stmt ast.Statement, parent *scope.Frame) []string {
	switch s := stmt.(type) {
	case *ast.OtherStatement:
		a.addError(fmt.Sprintf("%s is not allowed", s.Kind))
		a.unfix = true
		return nil

	case *ast.With:
		withFrame := scope.NewFrame(parent)
		for _, cte := range s.CTEs {
			cols := a.analyzeStatement(cte.Query, parent)
			withFrame.BindCTE(lower(cte.Name), scope.Binding{Kind: scope.KindSubquery, Ref: cte.Name, Columns: cols})
		}
		return a.analyzeStatement(s.Body, withFrame)

	case *ast.SetOp:
		left := a.analyzeStatement(s.Left, parent)
		a.analyzeStatement(s.Right, parent)
		return left

	case *ast.Select:
		return a.analyzeSelect(s, parent)

	default:
		return nil
	}
}

func (a *analyzer) analyzeSelect(sel *ast.Select, parent *scope.Frame) []string {
	frame := scope.NewFrame(parent)
	if sel.From != nil {
		a.resolveSource(sel.From, frame, false)
	}

	a.checkProjections(sel, frame)

	// GROUP BY / HAVING / ORDER BY may reference a projection's output
	// alias (or its bare column name) even though that name is never
	// bound into frame — only FROM sources are. WHERE and JOIN ON see no
	// such names; those stay frame-only.
	outputNames := outputColumnSet(sel)

	a.checkColumnsOnly(sel.Where, frame, nil)
	a.checkColumnsOnly(sel.Having, frame, outputNames)
	for _, g := range sel.GroupBy {
		a.checkColumnsOnly(g, frame, outputNames)
	}
	for _, o := range sel.OrderBy {
		a.checkColumnsOnly(o.Expr, frame, outputNames)
	}

	sel.Where = a.stripAlwaysTrue(sel.Where)
	a.enforceRestrictions(sel, frame)

	return projectionOutputColumns(sel)
}

// resolveSource walks a FROM-clause source tree, binding every table/
// subquery it finds into frame and recursing into nested statements.
// isJoinRight marks the right-hand branch of a Join; it is passed through
// to resolveTableRef but does not change the outcome, since an unknown
// table makes the query unfixable on either side of a join or on its own.
func (a *analyzer) resolveSource(src ast.Source, frame *scope.Frame, isJoinRight bool) {
	switch s := src.(type) {
	case *ast.TableRef:
		a.resolveTableRef(s, frame, isJoinRight)

	case *ast.SubquerySource:
		cols := a.analyzeStatement(s.Query, frame.Parent)
		alias := s.Alias
		if alias == "" {
			alias = fmt.Sprintf("$subquery%d", s.ID)
		}
		frame.Bind(scope.Binding{Kind: scope.KindSubquery, Ref: alias, Columns: cols})

	case *ast.Join:
		a.resolveSource(s.Left, frame, false)
		a.resolveSource(s.Right, frame, true)
		a.checkColumnsOnly(s.On, frame, nil)
	}
}

func (a *analyzer) resolveTableRef(t *ast.TableRef, frame *scope.Frame, isJoinRight bool) {
	if cte, ok := frame.LookupCTE(lower(t.Name)); ok {
		ref := t.Alias
		if ref == "" {
			ref = t.Name
		}
		frame.Bind(scope.Binding{Kind: scope.KindSubquery, Ref: ref, Columns: cte.Columns})
		return
	}

	tbl, ok := a.pol.Table(t.Name)
	if !ok {
		a.addError(fmt.Sprintf("Table %s is not allowed", t.Name))
		a.unfix = true
		_ = isJoinRight
		return
	}

	frame.Bind(scope.Binding{Kind: scope.KindTable, Ref: t.RefName(), Table: tbl.Name, Columns: tbl.Columns})
}

func projectionOutputColumns(sel *ast.Select) []string {
	var cols []string
	for _, p := range sel.Projections {
		if p.Star {
			continue
		}
		if p.Alias != "" {
			cols = append(cols, p.Alias)
			continue
		}
		if cr, ok := p.Expr.(*ast.ColumnRef); ok {
			cols = append(cols, cr.Name)
		}
	}
	return cols
}

// outputColumnSet builds a case-insensitive set of a select's output names —
// each projection's alias, or its bare column name when unaliased — so
// GROUP BY/HAVING/ORDER BY can resolve a reference to one even though
// projection aliases are never bound into a scope.Frame.
func outputColumnSet(sel *ast.Select) map[string]bool {
	set := map[string]bool{}
	for _, name := range projectionOutputColumns(sel) {
		set[lower(name)] = true
	}
	return set
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
