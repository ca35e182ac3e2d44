package sqlparse

import (
	"fmt"
	"strconv"

	pgquery "github.com/pganalyze/pg_query_go/v6"

	"github.com/nsxbet/sqlguard/pkg/ast"
)

// converter turns a libpg_query protobuf tree into our own ast package. It
// owns the single IDGen for one parse, so every node it produces gets a
// stable, increasing identity.
type converter struct {
	ids *ast.IDGen
}

func newConverter() *converter {
	return &converter{ids: ast.NewIDGen()}
}

func (c *converter) id() int { return c.ids.Next() }

// forbiddenStatementKind returns the statement kind name (for the "X is not
// allowed" class of anti-pattern error) when n is a recognized but
// unsupported statement, or "" when n should be handled as a SELECT/WITH.
func forbiddenStatementKind(n *pgquery.Node) string {
	switch {
	case n.GetInsertStmt() != nil:
		return "INSERT"
	case n.GetUpdateStmt() != nil:
		return "UPDATE"
	case n.GetDeleteStmt() != nil:
		return "DELETE"
	case n.GetDropStmt() != nil:
		return "DROP"
	case n.GetAlterTableStmt() != nil:
		return "ALTER"
	case n.GetTruncateStmt() != nil:
		return "TRUNCATE"
	case n.GetCreateStmt() != nil:
		return "CREATE"
	case n.GetCreateTableAsStmt() != nil:
		return "CREATE"
	default:
		return ""
	}
}

func (c *converter) convertStatement(n *pgquery.Node) (ast.Statement, error) {
	if kind := forbiddenStatementKind(n); kind != "" {
		return &ast.OtherStatement{ID: c.id(), Kind: kind}, nil
	}

	sel := n.GetSelectStmt()
	if sel == nil {
		return nil, fmt.Errorf("unsupported statement node: %T", n.GetNode())
	}
	return c.convertSelectStmt(sel)
}

func (c *converter) convertSelectStmt(s *pgquery.SelectStmt) (ast.Statement, error) {
	if s.GetOp() != pgquery.SetOperation_SETOP_NONE {
		left, err := c.convertSelectStmt(s.GetLarg())
		if err != nil {
			return nil, err
		}
		right, err := c.convertSelectStmt(s.GetRarg())
		if err != nil {
			return nil, err
		}
		kind := ast.SetOpUnion
		switch s.GetOp() {
		case pgquery.SetOperation_SETOP_INTERSECT:
			kind = ast.SetOpIntersect
		case pgquery.SetOperation_SETOP_EXCEPT:
			kind = ast.SetOpExcept
		}
		return &ast.SetOp{ID: c.id(), Op: kind, All: s.GetAll(), Left: left, Right: right}, nil
	}

	sel := &ast.Select{ID: c.id(), Distinct: len(s.GetDistinctClause()) > 0}

	for _, t := range s.GetTargetList() {
		proj, err := c.convertResTarget(t.GetResTarget())
		if err != nil {
			return nil, err
		}
		sel.Projections = append(sel.Projections, proj)
	}

	if from := s.GetFromClause(); len(from) > 0 {
		src, err := c.convertFromList(from)
		if err != nil {
			return nil, err
		}
		sel.From = src
	}

	if w := s.GetWhereClause(); w != nil {
		expr, err := c.convertExpr(w)
		if err != nil {
			return nil, err
		}
		sel.Where = expr
	}

	for _, g := range s.GetGroupClause() {
		expr, err := c.convertExpr(g)
		if err != nil {
			return nil, err
		}
		sel.GroupBy = append(sel.GroupBy, expr)
	}

	if h := s.GetHavingClause(); h != nil {
		expr, err := c.convertExpr(h)
		if err != nil {
			return nil, err
		}
		sel.Having = expr
	}

	for _, o := range s.GetSortClause() {
		item, err := c.convertSortBy(o.GetSortBy())
		if err != nil {
			return nil, err
		}
		sel.OrderBy = append(sel.OrderBy, item)
	}

	if lc := s.GetLimitCount(); lc != nil {
		expr, err := c.convertExpr(lc)
		if err != nil {
			return nil, err
		}
		sel.Limit = expr
	}
	if lo := s.GetLimitOffset(); lo != nil {
		expr, err := c.convertExpr(lo)
		if err != nil {
			return nil, err
		}
		sel.Offset = expr
	}

	if wc := s.GetWithClause(); wc != nil {
		return c.convertWithClause(wc, sel)
	}

	return sel, nil
}

func (c *converter) convertWithClause(wc *pgquery.WithClause, body *ast.Select) (ast.Statement, error) {
	with := &ast.With{ID: c.id(), Body: body}
	for _, n := range wc.GetCtes() {
		cte := n.GetCommonTableExpr()
		if cte == nil {
			continue
		}
		query, err := c.convertStatement(cte.GetCtequery())
		if err != nil {
			return nil, err
		}
		with.CTEs = append(with.CTEs, &ast.CTE{ID: c.id(), Name: cte.GetCtename(), Query: query})
	}
	return with, nil
}

func (c *converter) convertResTarget(rt *pgquery.ResTarget) (*ast.Projection, error) {
	if rt == nil {
		return nil, fmt.Errorf("nil projection target")
	}
	if cr := rt.GetVal().GetColumnRef(); cr != nil && isStarRef(cr) {
		table := ""
		if len(cr.GetFields()) == 2 {
			table = cr.GetFields()[0].GetString_().GetSval()
		}
		return &ast.Projection{ID: c.id(), Star: true, StarTable: table}, nil
	}

	expr, err := c.convertExpr(rt.GetVal())
	if err != nil {
		return nil, err
	}
	return &ast.Projection{ID: c.id(), Expr: expr, Alias: rt.GetName()}, nil
}

func isStarRef(cr *pgquery.ColumnRef) bool {
	fields := cr.GetFields()
	if len(fields) == 0 {
		return false
	}
	return fields[len(fields)-1].GetAStar() != nil
}

func (c *converter) convertFromList(nodes []*pgquery.Node) (ast.Source, error) {
	var cur ast.Source
	for _, n := range nodes {
		src, err := c.convertSource(n)
		if err != nil {
			return nil, err
		}
		if cur == nil {
			cur = src
			continue
		}
		// An implicit (comma) join between successive FROM items is an
		// inner cross join with no ON/USING predicate.
		cur = &ast.Join{ID: c.id(), Kind: ast.JoinCross, Left: cur, Right: src}
	}
	return cur, nil
}

func (c *converter) convertSource(n *pgquery.Node) (ast.Source, error) {
	switch {
	case n.GetRangeVar() != nil:
		rv := n.GetRangeVar()
		return &ast.TableRef{ID: c.id(), Name: rv.GetRelname(), Alias: aliasName(rv.GetAlias())}, nil

	case n.GetRangeSubselect() != nil:
		rs := n.GetRangeSubselect()
		query, err := c.convertStatement(rs.GetSubquery())
		if err != nil {
			return nil, err
		}
		return &ast.SubquerySource{ID: c.id(), Query: query, Alias: aliasName(rs.GetAlias())}, nil

	case n.GetJoinExpr() != nil:
		return c.convertJoinExpr(n.GetJoinExpr())

	default:
		return nil, fmt.Errorf("unsupported FROM source node: %T", n.GetNode())
	}
}

func (c *converter) convertJoinExpr(j *pgquery.JoinExpr) (ast.Source, error) {
	left, err := c.convertSource(j.GetLarg())
	if err != nil {
		return nil, err
	}
	right, err := c.convertSource(j.GetRarg())
	if err != nil {
		return nil, err
	}

	kind := ast.JoinInner
	switch j.GetJointype() {
	case pgquery.JoinType_JOIN_LEFT:
		kind = ast.JoinLeft
	case pgquery.JoinType_JOIN_RIGHT:
		kind = ast.JoinRight
	case pgquery.JoinType_JOIN_FULL:
		kind = ast.JoinFull
	}

	join := &ast.Join{ID: c.id(), Kind: kind, Left: left, Right: right}

	if q := j.GetQuals(); q != nil {
		expr, err := c.convertExpr(q)
		if err != nil {
			return nil, err
		}
		join.On = expr
	}
	for _, u := range j.GetUsingClause() {
		if s := u.GetString_(); s != nil {
			join.Using = append(join.Using, s.GetSval())
		}
	}
	return join, nil
}

func (c *converter) convertSortBy(s *pgquery.SortBy) (*ast.OrderItem, error) {
	expr, err := c.convertExpr(s.GetNode())
	if err != nil {
		return nil, err
	}
	return &ast.OrderItem{ID: c.id(), Expr: expr, Desc: s.GetSortbyDir() == pgquery.SortByDir_SORTBY_DESC}, nil
}

func (c *converter) convertExpr(n *pgquery.Node) (ast.Expr, error) {
	if n == nil {
		return nil, nil
	}

	switch {
	case n.GetColumnRef() != nil:
		return c.convertColumnRef(n.GetColumnRef())

	case n.GetAConst() != nil:
		return c.convertAConst(n.GetAConst())

	case n.GetAExpr() != nil:
		return c.convertAExpr(n.GetAExpr())

	case n.GetBoolExpr() != nil:
		return c.convertBoolExpr(n.GetBoolExpr())

	case n.GetNullTest() != nil:
		return c.convertNullTest(n.GetNullTest())

	case n.GetFuncCall() != nil:
		return c.convertFuncCall(n.GetFuncCall())

	case n.GetCaseExpr() != nil:
		return c.convertCaseExpr(n.GetCaseExpr())

	case n.GetSubLink() != nil:
		return c.convertSubLink(n.GetSubLink())

	case n.GetTypeCast() != nil:
		return c.convertExpr(n.GetTypeCast().GetArg())

	case n.GetParamRef() != nil:
		return &ast.Literal{ID: c.id(), Kind: ast.LiteralNull, Raw: "?"}, nil

	default:
		return nil, fmt.Errorf("unsupported expression node: %T", n.GetNode())
	}
}

func (c *converter) convertColumnRef(cr *pgquery.ColumnRef) (ast.Expr, error) {
	fields := cr.GetFields()
	if len(fields) == 0 {
		return nil, fmt.Errorf("column reference with no fields")
	}
	var table, name string
	switch len(fields) {
	case 1:
		name = fields[0].GetString_().GetSval()
	default:
		table = fields[len(fields)-2].GetString_().GetSval()
		name = fields[len(fields)-1].GetString_().GetSval()
	}
	return &ast.ColumnRef{ID: c.id(), Table: table, Name: name}, nil
}

func (c *converter) convertAConst(a *pgquery.A_Const) (ast.Expr, error) {
	lit := &ast.Literal{ID: c.id()}
	switch {
	case a.GetIsnull():
		lit.Kind = ast.LiteralNull
		lit.Raw = "NULL"
	case a.GetIval() != nil:
		lit.Kind = ast.LiteralNumber
		lit.Value = int64(a.GetIval().GetIval())
		lit.Raw = fmt.Sprintf("%d", a.GetIval().GetIval())
	case a.GetFval() != nil:
		lit.Kind = ast.LiteralNumber
		raw := a.GetFval().GetFval()
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			lit.Value = f
		} else {
			lit.Value = raw
		}
		lit.Raw = raw
	case a.GetBoolval() != nil:
		lit.Kind = ast.LiteralBool
		lit.Value = a.GetBoolval().GetBoolval()
		if a.GetBoolval().GetBoolval() {
			lit.Raw = "TRUE"
		} else {
			lit.Raw = "FALSE"
		}
	case a.GetSval() != nil:
		lit.Kind = ast.LiteralString
		lit.Value = a.GetSval().GetSval()
		lit.Raw = "'" + a.GetSval().GetSval() + "'"
	default:
		lit.Kind = ast.LiteralNull
		lit.Raw = "NULL"
	}
	return lit, nil
}

func (c *converter) convertAExpr(a *pgquery.A_Expr) (ast.Expr, error) {
	opName := ""
	if names := a.GetName(); len(names) > 0 {
		opName = names[0].GetString_().GetSval()
	}

	switch a.GetKind() {
	case pgquery.A_Expr_Kind_AEXPR_BETWEEN, pgquery.A_Expr_Kind_AEXPR_NOT_BETWEEN:
		target, err := c.convertExpr(a.GetLexpr())
		if err != nil {
			return nil, err
		}
		bounds := a.GetRexpr().GetList().GetItems()
		if len(bounds) != 2 {
			return nil, fmt.Errorf("BETWEEN expects two bounds, got %d", len(bounds))
		}
		low, err := c.convertExpr(bounds[0])
		if err != nil {
			return nil, err
		}
		high, err := c.convertExpr(bounds[1])
		if err != nil {
			return nil, err
		}
		return &ast.Between{
			ID: c.id(), Target: target, Low: low, High: high,
			Not: a.GetKind() == pgquery.A_Expr_Kind_AEXPR_NOT_BETWEEN,
		}, nil

	case pgquery.A_Expr_Kind_AEXPR_IN:
		target, err := c.convertExpr(a.GetLexpr())
		if err != nil {
			return nil, err
		}
		var list []ast.Expr
		for _, item := range a.GetRexpr().GetList().GetItems() {
			v, err := c.convertExpr(item)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return &ast.InExpr{ID: c.id(), Target: target, List: list, Not: opName == "<>"}, nil

	default:
		left, err := c.convertExpr(a.GetLexpr())
		if err != nil {
			return nil, err
		}
		right, err := c.convertExpr(a.GetRexpr())
		if err != nil {
			return nil, err
		}
		if left == nil {
			return &ast.UnaryExpr{ID: c.id(), Op: opName, Operand: right}, nil
		}
		return &ast.BinaryExpr{ID: c.id(), Op: opName, Left: left, Right: right}, nil
	}
}

func (c *converter) convertBoolExpr(b *pgquery.BoolExpr) (ast.Expr, error) {
	args := b.GetArgs()
	converted := make([]ast.Expr, 0, len(args))
	for _, a := range args {
		expr, err := c.convertExpr(a)
		if err != nil {
			return nil, err
		}
		converted = append(converted, expr)
	}

	if b.GetBoolop() == pgquery.BoolExprType_NOT_EXPR {
		return &ast.UnaryExpr{ID: c.id(), Op: "NOT", Operand: converted[0]}, nil
	}

	op := "AND"
	if b.GetBoolop() == pgquery.BoolExprType_OR_EXPR {
		op = "OR"
	}
	// AND/OR are variadic in libpg_query; fold left-associatively into our
	// binary form.
	result := converted[0]
	for _, next := range converted[1:] {
		result = &ast.BinaryExpr{ID: c.id(), Op: op, Left: result, Right: next}
	}
	return result, nil
}

func (c *converter) convertNullTest(nt *pgquery.NullTest) (ast.Expr, error) {
	target, err := c.convertExpr(nt.GetArg())
	if err != nil {
		return nil, err
	}
	return &ast.IsNullExpr{ID: c.id(), Target: target, Not: nt.GetNulltesttype() == pgquery.NullTestType_IS_NOT_NULL}, nil
}

func (c *converter) convertFuncCall(f *pgquery.FuncCall) (ast.Expr, error) {
	name := ""
	if parts := f.GetFuncname(); len(parts) > 0 {
		name = parts[len(parts)-1].GetString_().GetSval()
	}
	call := &ast.FuncCall{ID: c.id(), Name: name, Star: f.GetAggStar()}
	for _, a := range f.GetArgs() {
		expr, err := c.convertExpr(a)
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, expr)
	}
	return call, nil
}

func (c *converter) convertCaseExpr(ce *pgquery.CaseExpr) (ast.Expr, error) {
	out := &ast.CaseExpr{ID: c.id()}
	if arg := ce.GetArg(); arg != nil {
		operand, err := c.convertExpr(arg)
		if err != nil {
			return nil, err
		}
		out.Operand = operand
	}
	for _, n := range ce.GetArgs() {
		cw := n.GetCaseWhen()
		if cw == nil {
			continue
		}
		when, err := c.convertExpr(cw.GetExpr())
		if err != nil {
			return nil, err
		}
		then, err := c.convertExpr(cw.GetResult())
		if err != nil {
			return nil, err
		}
		out.Whens = append(out.Whens, &ast.WhenClause{ID: c.id(), When: when, Then: then})
	}
	if d := ce.GetDefresult(); d != nil {
		elseExpr, err := c.convertExpr(d)
		if err != nil {
			return nil, err
		}
		out.Else = elseExpr
	}
	return out, nil
}

func (c *converter) convertSubLink(sl *pgquery.SubLink) (ast.Expr, error) {
	query, err := c.convertStatement(sl.GetSubselect())
	if err != nil {
		return nil, err
	}
	sub := &ast.SubqueryExpr{ID: c.id(), Query: query}
	if sl.GetSubLinkType() == pgquery.SubLinkType_EXISTS_SUBLINK {
		sub.Exists = true
	}
	return sub, nil
}

func aliasName(a *pgquery.Alias) string {
	if a == nil {
		return ""
	}
	return a.GetAliasname()
}
