// Package rewrite turns a (possibly mutated) AST back into canonical SQL:
// keywords uppercased, identifiers preserved, redundant parentheses elided
// except where precedence requires them, single space between tokens, no
// trailing whitespace (§4.7).
package rewrite

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nsxbet/sqlguard/pkg/ast"
)

// Serialize renders stmt as canonical SQL.
func Serialize(stmt ast.Statement) string {
	return serializeStatement(stmt)
}

// NormalizeWhitespace collapses runs of whitespace to a single space and
// trims the ends, for comparing an original query against a canonical
// serialization without being tripped up by incidental formatting (§4.7).
func NormalizeWhitespace(sql string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(sql, " "))
}

var whitespaceRun = regexp.MustCompile(`\s+`)

func serializeStatement(stmt ast.Statement) string {
	switch s := stmt.(type) {
	case *ast.With:
		parts := make([]string, 0, len(s.CTEs))
		for _, cte := range s.CTEs {
			parts = append(parts, fmt.Sprintf("%s AS (%s)", cte.Name, serializeStatement(cte.Query)))
		}
		return "WITH " + strings.Join(parts, ", ") + " " + serializeStatement(s.Body)

	case *ast.SetOp:
		kw := string(s.Op)
		if s.All {
			kw += " ALL"
		}
		return serializeStatement(s.Left) + " " + kw + " " + serializeStatement(s.Right)

	case *ast.Select:
		return serializeSelect(s)

	default:
		return ""
	}
}

func serializeSelect(s *ast.Select) string {
	var b strings.Builder
	b.WriteString("SELECT ")
	if s.Distinct {
		b.WriteString("DISTINCT ")
	}

	parts := make([]string, 0, len(s.Projections))
	for _, p := range s.Projections {
		parts = append(parts, serializeProjection(p))
	}
	b.WriteString(strings.Join(parts, ", "))

	if s.From != nil {
		b.WriteString(" FROM ")
		b.WriteString(serializeSource(s.From))
	}
	if s.Where != nil {
		b.WriteString(" WHERE ")
		b.WriteString(serializeExpr(s.Where, 0))
	}
	if len(s.GroupBy) > 0 {
		groupParts := make([]string, 0, len(s.GroupBy))
		for _, g := range s.GroupBy {
			groupParts = append(groupParts, serializeExpr(g, 0))
		}
		b.WriteString(" GROUP BY ")
		b.WriteString(strings.Join(groupParts, ", "))
	}
	if s.Having != nil {
		b.WriteString(" HAVING ")
		b.WriteString(serializeExpr(s.Having, 0))
	}
	if len(s.OrderBy) > 0 {
		orderParts := make([]string, 0, len(s.OrderBy))
		for _, o := range s.OrderBy {
			item := serializeExpr(o.Expr, 0)
			if o.Desc {
				item += " DESC"
			}
			orderParts = append(orderParts, item)
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(orderParts, ", "))
	}
	if s.Limit != nil {
		b.WriteString(" LIMIT ")
		b.WriteString(serializeExpr(s.Limit, 0))
	}
	if s.Offset != nil {
		b.WriteString(" OFFSET ")
		b.WriteString(serializeExpr(s.Offset, 0))
	}
	return b.String()
}

func serializeProjection(p *ast.Projection) string {
	if p.Star {
		if p.StarTable != "" {
			return p.StarTable + ".*"
		}
		return "*"
	}
	out := serializeExpr(p.Expr, 0)
	if p.Alias != "" {
		out += " AS " + p.Alias
	}
	return out
}

func serializeSource(src ast.Source) string {
	switch s := src.(type) {
	case *ast.TableRef:
		out := s.Name
		if s.Alias != "" {
			out += " AS " + s.Alias
		}
		return out

	case *ast.SubquerySource:
		out := "(" + serializeStatement(s.Query) + ")"
		if s.Alias != "" {
			out += " AS " + s.Alias
		}
		return out

	case *ast.Join:
		out := serializeSource(s.Left) + " " + string(s.Kind) + " " + serializeSource(s.Right)
		switch {
		case s.On != nil:
			out += " ON " + serializeExpr(s.On, 0)
		case len(s.Using) > 0:
			out += " USING (" + strings.Join(s.Using, ", ") + ")"
		}
		return out

	default:
		return ""
	}
}

// precedence orders operators so the expression serializer knows when a
// child needs parentheses: OR binds loosest, then AND, then NOT, then
// comparisons/BETWEEN/IN, then additive, then multiplicative operators.
func precedence(op string) int {
	switch strings.ToUpper(op) {
	case "OR":
		return 1
	case "AND":
		return 2
	case "+", "-":
		return 5
	case "*", "/", "%":
		return 6
	default: // comparisons, LIKE, etc.
		return 4
	}
}

func exprPrecedence(e ast.Expr) int {
	switch v := e.(type) {
	case *ast.Paren:
		return exprPrecedence(v.Inner)
	case *ast.BinaryExpr:
		return precedence(v.Op)
	case *ast.UnaryExpr:
		if strings.EqualFold(v.Op, "NOT") {
			return 3
		}
		return 7
	case *ast.Between, *ast.InExpr, *ast.IsNullExpr:
		return 4
	default:
		return 100 // atoms never need parens
	}
}

// serializeExpr renders e, adding parentheses only when e's own precedence
// is lower than minPrec — the precedence required by the context it sits
// in. An explicit ast.Paren is otherwise transparent: its necessity is
// re-derived here rather than assumed from the source.
func serializeExpr(e ast.Expr, minPrec int) string {
	if e == nil {
		return ""
	}

	if p, ok := e.(*ast.Paren); ok {
		return serializeExpr(p.Inner, minPrec)
	}

	rendered := renderExpr(e)
	if exprPrecedence(e) < minPrec {
		return "(" + rendered + ")"
	}
	return rendered
}

func renderExpr(e ast.Expr) string {
	switch v := e.(type) {
	case *ast.ColumnRef:
		if v.Table != "" {
			return v.Table + "." + v.Name
		}
		return v.Name

	case *ast.Literal:
		return v.Raw

	case *ast.FuncCall:
		if v.Star {
			return v.Name + "(*)"
		}
		args := make([]string, 0, len(v.Args))
		for _, a := range v.Args {
			args = append(args, serializeExpr(a, 0))
		}
		return v.Name + "(" + strings.Join(args, ", ") + ")"

	case *ast.BinaryExpr:
		prec := precedence(v.Op)
		return serializeExpr(v.Left, prec) + " " + v.Op + " " + serializeExpr(v.Right, prec+1)

	case *ast.UnaryExpr:
		if strings.EqualFold(v.Op, "NOT") {
			return "NOT " + serializeExpr(v.Operand, 3)
		}
		return v.Op + serializeExpr(v.Operand, 7)

	case *ast.Between:
		kw := "BETWEEN"
		if v.Not {
			kw = "NOT BETWEEN"
		}
		return fmt.Sprintf("%s %s %s AND %s",
			serializeExpr(v.Target, 4), kw, serializeExpr(v.Low, 5), serializeExpr(v.High, 5))

	case *ast.InExpr:
		kw := "IN"
		if v.Not {
			kw = "NOT IN"
		}
		items := make([]string, 0, len(v.List))
		for _, item := range v.List {
			items = append(items, serializeExpr(item, 0))
		}
		return fmt.Sprintf("%s %s (%s)", serializeExpr(v.Target, 4), kw, strings.Join(items, ", "))

	case *ast.IsNullExpr:
		if v.Not {
			return serializeExpr(v.Target, 4) + " IS NOT NULL"
		}
		return serializeExpr(v.Target, 4) + " IS NULL"

	case *ast.CaseExpr:
		var b strings.Builder
		b.WriteString("CASE")
		if v.Operand != nil {
			b.WriteString(" " + serializeExpr(v.Operand, 0))
		}
		for _, w := range v.Whens {
			b.WriteString(" WHEN " + serializeExpr(w.When, 0) + " THEN " + serializeExpr(w.Then, 0))
		}
		if v.Else != nil {
			b.WriteString(" ELSE " + serializeExpr(v.Else, 0))
		}
		b.WriteString(" END")
		return b.String()

	case *ast.SubqueryExpr:
		kw := ""
		if v.Exists {
			kw = "EXISTS "
			if v.Not {
				kw = "NOT EXISTS "
			}
		}
		return kw + "(" + serializeStatement(v.Query) + ")"

	default:
		return ""
	}
}
