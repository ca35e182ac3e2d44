package analyzer

import (
	"fmt"
	"strings"

	"github.com/nsxbet/sqlguard/pkg/ast"
	"github.com/nsxbet/sqlguard/pkg/policy"
	"github.com/nsxbet/sqlguard/pkg/scope"
)

// enforceRestrictions implements C5 for one Select: every restriction on
// every table bound in this scope must be syntactically present in the
// WHERE clause, or it is reported and injected.
func (a *analyzer) enforceRestrictions(sel *ast.Select, frame *scope.Frame) {
	qualify := len(frame.Bindings) > 1

	for _, b := range frame.Bindings {
		if b.Kind != scope.KindTable {
			continue
		}
		tbl, ok := a.pol.Table(b.Table)
		if !ok {
			continue
		}
		for _, r := range tbl.Restrictions {
			conjuncts := splitConjuncts(sel.Where)
			if restrictionSatisfied(conjuncts, b, r) {
				continue
			}
			a.addError(fmt.Sprintf("Missing restriction for table: %s column: %s value: %s",
				tbl.Name, r.Column, restrictionValueString(r)))
			sel.Where = a.injectRestriction(sel.Where, b, r, qualify)
		}
	}
}

func restrictionSatisfied(conjuncts []ast.Expr, b scope.Binding, r policy.Restriction) bool {
	for _, c := range conjuncts {
		if or, ok := asOr(c); ok {
			allMatch := true
			for _, d := range splitDisjuncts(or) {
				if !clauseMatches(d, b, r) {
					allMatch = false
					break
				}
			}
			if allMatch {
				return true
			}
			continue
		}
		if clauseMatches(c, b, r) {
			return true
		}
	}
	return false
}

func clauseMatches(clause ast.Expr, b scope.Binding, r policy.Restriction) bool {
	switch r.Op {
	case policy.OpEq, policy.OpLt, policy.OpGt, policy.OpLe, policy.OpGe:
		be, ok := clause.(*ast.BinaryExpr)
		if !ok || be.Op != string(r.Op) {
			return false
		}
		if colMatches(be.Left, b, r.Column) && literalMatches(be.Right, r.Value) {
			return true
		}
		if colMatches(be.Right, b, r.Column) && literalMatches(be.Left, r.Value) {
			return true
		}
		return false

	case policy.OpBetween:
		bw, ok := clause.(*ast.Between)
		if !ok || bw.Not {
			return false
		}
		return colMatches(bw.Target, b, r.Column) && literalMatches(bw.Low, r.Low) && literalMatches(bw.High, r.High)

	case policy.OpIn:
		ie, ok := clause.(*ast.InExpr)
		if !ok || ie.Not {
			return false
		}
		if !colMatches(ie.Target, b, r.Column) || len(ie.List) != len(r.Values) {
			return false
		}
		for i, v := range r.Values {
			if !literalMatches(ie.List[i], v) {
				return false
			}
		}
		return true

	default:
		return false
	}
}

func colMatches(e ast.Expr, b scope.Binding, column string) bool {
	cr, ok := e.(*ast.ColumnRef)
	if !ok || !strings.EqualFold(cr.Name, column) {
		return false
	}
	return cr.Table == "" || strings.EqualFold(cr.Table, b.Ref)
}

func literalMatches(e ast.Expr, v any) bool {
	lit, ok := e.(*ast.Literal)
	if !ok {
		return false
	}
	switch val := v.(type) {
	case string:
		s, ok := lit.Value.(string)
		return ok && s == val
	default:
		if !isNumericValue(lit.Value) || !isNumericValue(v) {
			return false
		}
		return toFloat(lit.Value) == toFloat(v)
	}
}

func isNumericValue(v any) bool {
	switch v.(type) {
	case int, int32, int64, float32, float64:
		return true
	default:
		return false
	}
}

// injectRestriction conjoins the restriction predicate onto where via AND,
// creating a fresh WHERE if there wasn't one (§4.5). The prior WHERE is
// passed through unwrapped — the serializer adds parentheses only where
// precedence actually requires them.
func (a *analyzer) injectRestriction(where ast.Expr, b scope.Binding, r policy.Restriction, qualify bool) ast.Expr {
	predicate := a.buildRestrictionExpr(b, r, qualify)
	if where == nil {
		return predicate
	}
	return &ast.BinaryExpr{ID: a.nextID(), Op: "AND", Left: where, Right: predicate}
}

func (a *analyzer) buildRestrictionExpr(b scope.Binding, r policy.Restriction, qualify bool) ast.Expr {
	table := ""
	if qualify {
		table = b.Ref
	}
	col := &ast.ColumnRef{ID: a.nextID(), Table: table, Name: r.Column}

	switch r.Op {
	case policy.OpBetween:
		return &ast.Between{ID: a.nextID(), Target: col, Low: a.literalFor(r.Low), High: a.literalFor(r.High)}
	case policy.OpIn:
		list := make([]ast.Expr, 0, len(r.Values))
		for _, v := range r.Values {
			list = append(list, a.literalFor(v))
		}
		return &ast.InExpr{ID: a.nextID(), Target: col, List: list}
	default:
		return &ast.BinaryExpr{ID: a.nextID(), Op: string(r.Op), Left: col, Right: a.literalFor(r.Value)}
	}
}

func (a *analyzer) literalFor(v any) *ast.Literal {
	lit := &ast.Literal{ID: a.nextID(), Value: v}
	switch val := v.(type) {
	case string:
		lit.Kind = ast.LiteralString
		lit.Raw = "'" + val + "'"
	case bool:
		lit.Kind = ast.LiteralBool
		if val {
			lit.Raw = "TRUE"
		} else {
			lit.Raw = "FALSE"
		}
	default:
		lit.Kind = ast.LiteralNumber
		lit.Raw = fmt.Sprintf("%v", val)
	}
	return lit
}

func restrictionValueString(r policy.Restriction) string {
	switch r.Op {
	case policy.OpBetween:
		return fmt.Sprintf("%v AND %v", r.Low, r.High)
	case policy.OpIn:
		parts := make([]string, len(r.Values))
		for i, v := range r.Values {
			parts[i] = fmt.Sprintf("%v", v)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	default:
		return fmt.Sprintf("%v", r.Value)
	}
}
