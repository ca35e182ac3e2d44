package analyzer

import (
	"fmt"

	"github.com/nsxbet/sqlguard/pkg/ast"
	"github.com/nsxbet/sqlguard/pkg/scope"
)

// checkProjections implements C4: star expansion, then stripping any
// projection that references a disallowed column, then the
// empty-projection-list check.
func (a *analyzer) checkProjections(sel *ast.Select, frame *scope.Frame) {
	var kept []*ast.Projection

	for _, p := range sel.Projections {
		if p.Star {
			a.addError("SELECT * is not allowed")
			kept = append(kept, a.expandStar(p, frame)...)
			continue
		}

		a.visitSubqueries(p.Expr, frame)
		if name, ambiguous, ok := firstDisallowedColumn(p.Expr, frame); ok {
			if ambiguous {
				a.addError(fmt.Sprintf("Column %s is ambiguous. Column removed from SELECT clause", name))
			} else {
				a.addError(fmt.Sprintf("Column %s is not allowed. Column removed from SELECT clause", name))
			}
			continue
		}
		if name, ok := a.firstDeniedFunc(p.Expr); ok {
			a.addError(fmt.Sprintf("Function %s is not allowed. Column removed from SELECT clause", name))
			continue
		}
		kept = append(kept, p)
	}

	sel.Projections = kept

	if len(sel.Projections) == 0 {
		a.addError("No legal elements in SELECT clause")
		a.unfix = true
	}
}

// expandStar replaces a `*` or `t.*` projection with one projection per
// allowed column, in source order (§4.4 point 1).
func (a *analyzer) expandStar(p *ast.Projection, frame *scope.Frame) []*ast.Projection {
	qualify := len(frame.Bindings) > 1

	expandBinding := func(b scope.Binding) []*ast.Projection {
		var out []*ast.Projection
		for _, col := range b.Columns {
			table := ""
			if qualify {
				table = b.Ref
			}
			out = append(out, &ast.Projection{
				ID:   a.nextID(),
				Expr: &ast.ColumnRef{ID: a.nextID(), Table: table, Name: col},
			})
		}
		return out
	}

	if p.StarTable != "" {
		b, ok := frame.LookupRef(p.StarTable)
		if !ok {
			return nil
		}
		return expandBinding(b)
	}

	var out []*ast.Projection
	for _, b := range frame.Bindings {
		out = append(out, expandBinding(b)...)
	}
	return out
}

// firstDisallowedColumn reports the name of the first column reference in
// expr that does not resolve against frame, if any, and whether it failed
// because more than one visible binding exposes it.
func firstDisallowedColumn(expr ast.Expr, frame *scope.Frame) (string, bool, bool) {
	var bad string
	found, ambiguous := false, false
	walkColumnRefs(expr, func(cr *ast.ColumnRef) {
		if found {
			return
		}
		if _, ok, amb := frame.ResolveColumn(cr.Table, cr.Name); !ok {
			bad = cr.Name
			found = true
			ambiguous = amb
		}
	})
	return bad, ambiguous, found
}

// firstDeniedFunc reports the name of the first function call in expr that
// appears on the configured deny-list, if any (§4.4 point 4; the deny-list
// itself is empty unless a caller supplies one).
func (a *analyzer) firstDeniedFunc(expr ast.Expr) (string, bool) {
	if len(a.denied) == 0 {
		return "", false
	}
	var bad string
	found := false
	var walk func(ast.Expr)
	walk = func(e ast.Expr) {
		if found {
			return
		}
		if f, ok := e.(*ast.FuncCall); ok && a.denied[lower(f.Name)] {
			bad, found = f.Name, true
			return
		}
		for _, child := range exprChildren(e) {
			walk(child)
		}
	}
	walk(expr)
	return bad, found
}

// checkColumnsOnly validates column legality in a non-projection position
// (WHERE/HAVING/GROUP BY/ORDER BY/JOIN ON): a disallowed column is reported
// but the expression is left exactly as-is (§4.4). outputNames, when
// non-nil, is the select's own projection output names (aliases or bare
// column names) — GROUP BY/HAVING/ORDER BY may reference one of those even
// though it is never bound into frame; WHERE and JOIN ON pass nil since
// neither position can see a projection alias.
func (a *analyzer) checkColumnsOnly(expr ast.Expr, frame *scope.Frame, outputNames map[string]bool) {
	if expr == nil {
		return
	}
	a.visitSubqueries(expr, frame)
	walkColumnRefs(expr, func(cr *ast.ColumnRef) {
		_, ok, ambiguous := frame.ResolveColumn(cr.Table, cr.Name)
		if ok {
			return
		}
		if ambiguous {
			a.addError(fmt.Sprintf("Column %s is ambiguous", cr.Name))
			return
		}
		if cr.Table == "" && outputNames[lower(cr.Name)] {
			return
		}
		a.addError(fmt.Sprintf("Column %s is not allowed", cr.Name))
	})
}

// visitSubqueries fully analyzes any scalar/EXISTS/IN subquery nested in
// expr, so restrictions and column checks still apply inside it, without
// walking into its body looking for bare column references (that's the
// nested analyzeStatement call's job).
func (a *analyzer) visitSubqueries(expr ast.Expr, frame *scope.Frame) {
	walkSubqueries(expr, func(s *ast.SubqueryExpr) {
		a.analyzeStatement(s.Query, frame)
	})
}

// walkColumnRefs visits every ColumnRef reachable from expr, not descending
// into nested subqueries (those are a separate scope, handled by
// visitSubqueries/analyzeStatement instead).
func walkColumnRefs(expr ast.Expr, fn func(*ast.ColumnRef)) {
	switch e := expr.(type) {
	case nil:
	case *ast.ColumnRef:
		fn(e)
	case *ast.Literal:
	case *ast.BinaryExpr:
		walkColumnRefs(e.Left, fn)
		walkColumnRefs(e.Right, fn)
	case *ast.UnaryExpr:
		walkColumnRefs(e.Operand, fn)
	case *ast.Paren:
		walkColumnRefs(e.Inner, fn)
	case *ast.Between:
		walkColumnRefs(e.Target, fn)
		walkColumnRefs(e.Low, fn)
		walkColumnRefs(e.High, fn)
	case *ast.InExpr:
		walkColumnRefs(e.Target, fn)
		for _, v := range e.List {
			walkColumnRefs(v, fn)
		}
	case *ast.IsNullExpr:
		walkColumnRefs(e.Target, fn)
	case *ast.FuncCall:
		for _, v := range e.Args {
			walkColumnRefs(v, fn)
		}
	case *ast.CaseExpr:
		walkColumnRefs(e.Operand, fn)
		for _, w := range e.Whens {
			walkColumnRefs(w.When, fn)
			walkColumnRefs(w.Then, fn)
		}
		walkColumnRefs(e.Else, fn)
	case *ast.SubqueryExpr:
		// handled separately by visitSubqueries
	}
}

// exprChildren returns expr's direct scalar-expression operands (not
// descending into subqueries), used by generic expression scans like the
// function deny-list check.
func exprChildren(expr ast.Expr) []ast.Expr {
	switch e := expr.(type) {
	case *ast.BinaryExpr:
		return []ast.Expr{e.Left, e.Right}
	case *ast.UnaryExpr:
		return []ast.Expr{e.Operand}
	case *ast.Paren:
		return []ast.Expr{e.Inner}
	case *ast.Between:
		return []ast.Expr{e.Target, e.Low, e.High}
	case *ast.InExpr:
		return append([]ast.Expr{e.Target}, e.List...)
	case *ast.IsNullExpr:
		return []ast.Expr{e.Target}
	case *ast.FuncCall:
		return e.Args
	case *ast.CaseExpr:
		children := []ast.Expr{e.Operand}
		for _, w := range e.Whens {
			children = append(children, w.When, w.Then)
		}
		return append(children, e.Else)
	default:
		return nil
	}
}

func walkSubqueries(expr ast.Expr, fn func(*ast.SubqueryExpr)) {
	switch e := expr.(type) {
	case nil:
	case *ast.SubqueryExpr:
		fn(e)
	case *ast.BinaryExpr:
		walkSubqueries(e.Left, fn)
		walkSubqueries(e.Right, fn)
	case *ast.UnaryExpr:
		walkSubqueries(e.Operand, fn)
	case *ast.Paren:
		walkSubqueries(e.Inner, fn)
	case *ast.Between:
		walkSubqueries(e.Target, fn)
		walkSubqueries(e.Low, fn)
		walkSubqueries(e.High, fn)
	case *ast.InExpr:
		walkSubqueries(e.Target, fn)
		for _, v := range e.List {
			walkSubqueries(v, fn)
		}
	case *ast.IsNullExpr:
		walkSubqueries(e.Target, fn)
	case *ast.FuncCall:
		for _, v := range e.Args {
			walkSubqueries(v, fn)
		}
	case *ast.CaseExpr:
		walkSubqueries(e.Operand, fn)
		for _, w := range e.Whens {
			walkSubqueries(w.When, fn)
			walkSubqueries(w.Then, fn)
		}
		walkSubqueries(e.Else, fn)
	}
}
