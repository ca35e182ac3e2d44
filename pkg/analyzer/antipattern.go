package analyzer

import "github.com/nsxbet/sqlguard/pkg/ast"

const errAlwaysTrue = "Always-True expression is not allowed"

// stripAlwaysTrue implements the always-true half of C6: any top-level
// conjunct that is trivially true is dropped; a disjunct that is trivially
// true is dropped from its OR, collapsing the OR to its remaining disjunct
// (or deleting it entirely if every disjunct was trivially true).
func (a *analyzer) stripAlwaysTrue(where ast.Expr) ast.Expr {
	if where == nil {
		return nil
	}

	var kept []ast.Expr
	for _, c := range splitConjuncts(where) {
		if or, ok := asOr(c); ok {
			var survivors []ast.Expr
			for _, d := range splitDisjuncts(or) {
				if isAlwaysTrue(d) {
					a.addError(errAlwaysTrue)
					continue
				}
				survivors = append(survivors, d)
			}
			switch len(survivors) {
			case 0:
				// every disjunct was trivially true; the whole OR is.
			case 1:
				kept = append(kept, survivors[0])
			default:
				kept = append(kept, a.rebuildChain(survivors, "OR"))
			}
			continue
		}

		if isAlwaysTrue(c) {
			a.addError(errAlwaysTrue)
			continue
		}
		kept = append(kept, c)
	}

	return a.rebuildChain(kept, "AND")
}

// isAlwaysTrue is deliberately syntactic (§9 design note): a boolean literal
// true, an equality of two identical constants, or NULL IS NULL. It never
// reasons about columns (x = x is out of scope).
func isAlwaysTrue(e ast.Expr) bool {
	switch v := e.(type) {
	case *ast.Literal:
		return v.Kind == ast.LiteralBool && v.Value == true

	case *ast.BinaryExpr:
		if v.Op != "=" {
			return false
		}
		l, lok := v.Left.(*ast.Literal)
		r, rok := v.Right.(*ast.Literal)
		return lok && rok && literalsEqual(l, r)

	case *ast.IsNullExpr:
		if v.Not {
			return false
		}
		lit, ok := v.Target.(*ast.Literal)
		return ok && lit.Kind == ast.LiteralNull

	default:
		return false
	}
}

func literalsEqual(a, b *ast.Literal) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case ast.LiteralNumber:
		return toFloat(a.Value) == toFloat(b.Value)
	case ast.LiteralString, ast.LiteralBool:
		return a.Value == b.Value
	case ast.LiteralNull:
		return true
	default:
		return false
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	default:
		return 0
	}
}

// asOr reports whether e is a top-level OR expression.
func asOr(e ast.Expr) (*ast.BinaryExpr, bool) {
	be, ok := e.(*ast.BinaryExpr)
	if ok && be.Op == "OR" {
		return be, true
	}
	if p, ok := e.(*ast.Paren); ok {
		return asOr(p.Inner)
	}
	return nil, false
}

// splitConjuncts flattens a top-level AND tree into its leaves; anything
// else (including an OR, which stays opaque per §4.5/§4.6) is a single leaf.
func splitConjuncts(e ast.Expr) []ast.Expr {
	if p, ok := e.(*ast.Paren); ok {
		return splitConjuncts(p.Inner)
	}
	if be, ok := e.(*ast.BinaryExpr); ok && be.Op == "AND" {
		return append(splitConjuncts(be.Left), splitConjuncts(be.Right)...)
	}
	return []ast.Expr{e}
}

// splitDisjuncts flattens a top-level OR tree into its leaves.
func splitDisjuncts(e ast.Expr) []ast.Expr {
	if p, ok := e.(*ast.Paren); ok {
		return splitDisjuncts(p.Inner)
	}
	if be, ok := e.(*ast.BinaryExpr); ok && be.Op == "OR" {
		return append(splitDisjuncts(be.Left), splitDisjuncts(be.Right)...)
	}
	return []ast.Expr{e}
}

func (a *analyzer) rebuildChain(parts []ast.Expr, op string) ast.Expr {
	if len(parts) == 0 {
		return nil
	}
	result := parts[0]
	for _, next := range parts[1:] {
		result = &ast.BinaryExpr{ID: a.nextID(), Op: op, Left: result, Right: next}
	}
	return result
}
