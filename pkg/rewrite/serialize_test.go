package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nsxbet/sqlguard/pkg/ast"
)

func col(id int, name string) *ast.ColumnRef { return &ast.ColumnRef{ID: id, Name: name} }
func num(id int, raw string) *ast.Literal {
	return &ast.Literal{ID: id, Kind: ast.LiteralNumber, Raw: raw}
}

func TestSerialize_SimpleSelect(t *testing.T) {
	sel := &ast.Select{
		ID: 1,
		Projections: []*ast.Projection{
			{ID: 2, Expr: col(3, "id")},
		},
		From:  &ast.TableRef{ID: 4, Name: "orders"},
		Where: &ast.BinaryExpr{ID: 5, Op: "=", Left: col(6, "account_id"), Right: num(7, "123")},
	}
	assert.Equal(t, "SELECT id FROM orders WHERE account_id = 123", Serialize(sel))
}

func TestSerialize_NoParensForSamePrecedenceAnd(t *testing.T) {
	where := &ast.BinaryExpr{
		ID: 1, Op: "AND",
		Left:  &ast.BinaryExpr{ID: 2, Op: "=", Left: col(3, "account_id"), Right: num(4, "456")},
		Right: &ast.BinaryExpr{ID: 5, Op: "=", Left: col(6, "account_id"), Right: num(7, "123")},
	}
	sel := &ast.Select{
		ID:          8,
		Projections: []*ast.Projection{{ID: 9, Expr: col(10, "id")}},
		From:        &ast.TableRef{ID: 11, Name: "orders"},
		Where:       where,
	}
	assert.Equal(t, "SELECT id FROM orders WHERE account_id = 456 AND account_id = 123", Serialize(sel))
}

func TestSerialize_ParensWhenOrUnderAnd(t *testing.T) {
	or := &ast.BinaryExpr{
		ID: 1, Op: "OR",
		Left:  &ast.BinaryExpr{ID: 2, Op: "=", Left: col(3, "a"), Right: num(4, "1")},
		Right: &ast.BinaryExpr{ID: 5, Op: "=", Left: col(6, "b"), Right: num(7, "2")},
	}
	and := &ast.BinaryExpr{
		ID: 8, Op: "AND",
		Left:  or,
		Right: &ast.BinaryExpr{ID: 9, Op: "=", Left: col(10, "c"), Right: num(11, "3")},
	}
	sel := &ast.Select{
		ID:          12,
		Projections: []*ast.Projection{{ID: 13, Expr: col(14, "id")}},
		From:        &ast.TableRef{ID: 15, Name: "orders"},
		Where:       and,
	}
	assert.Equal(t, "SELECT id FROM orders WHERE (a = 1 OR b = 2) AND c = 3", Serialize(sel))
}

func TestSerialize_ExplicitParenIsTransparentWhenUnnecessary(t *testing.T) {
	where := &ast.Paren{ID: 1, Inner: &ast.BinaryExpr{ID: 2, Op: "=", Left: col(3, "a"), Right: num(4, "1")}}
	sel := &ast.Select{
		ID:          5,
		Projections: []*ast.Projection{{ID: 6, Expr: col(7, "id")}},
		From:        &ast.TableRef{ID: 8, Name: "orders"},
		Where:       where,
	}
	assert.Equal(t, "SELECT id FROM orders WHERE a = 1", Serialize(sel))
}

func TestSerialize_StarProjection(t *testing.T) {
	sel := &ast.Select{
		ID:          1,
		Projections: []*ast.Projection{{ID: 2, Star: true}},
		From:        &ast.TableRef{ID: 3, Name: "orders"},
	}
	assert.Equal(t, "SELECT * FROM orders", Serialize(sel))
}

func TestSerialize_QualifiedStar(t *testing.T) {
	sel := &ast.Select{
		ID:          1,
		Projections: []*ast.Projection{{ID: 2, Star: true, StarTable: "o"}},
		From:        &ast.TableRef{ID: 3, Name: "orders", Alias: "o"},
	}
	assert.Equal(t, "SELECT o.* FROM orders AS o", Serialize(sel))
}

func TestSerialize_Join(t *testing.T) {
	sel := &ast.Select{
		ID:          1,
		Projections: []*ast.Projection{{ID: 2, Expr: col(3, "id")}},
		From: &ast.Join{
			ID:   4,
			Kind: ast.JoinLeft,
			Left: &ast.TableRef{ID: 5, Name: "orders", Alias: "o"},
			Right: &ast.TableRef{ID: 6, Name: "accounts", Alias: "a"},
			On: &ast.BinaryExpr{
				ID: 7, Op: "=",
				Left:  &ast.ColumnRef{ID: 8, Table: "o", Name: "account_id"},
				Right: &ast.ColumnRef{ID: 9, Table: "a", Name: "id"},
			},
		},
	}
	assert.Equal(t,
		"SELECT id FROM orders AS o LEFT JOIN accounts AS a ON o.account_id = a.id",
		Serialize(sel))
}

func TestSerialize_Between(t *testing.T) {
	between := &ast.Between{ID: 1, Target: col(2, "total"), Low: num(3, "1"), High: num(4, "10")}
	sel := &ast.Select{
		ID:          5,
		Projections: []*ast.Projection{{ID: 6, Expr: col(7, "id")}},
		From:        &ast.TableRef{ID: 8, Name: "orders"},
		Where:       between,
	}
	assert.Equal(t, "SELECT id FROM orders WHERE total BETWEEN 1 AND 10", Serialize(sel))
}

func TestSerialize_With(t *testing.T) {
	inner := &ast.Select{
		ID:          1,
		Projections: []*ast.Projection{{ID: 2, Expr: col(3, "id")}},
		From:        &ast.TableRef{ID: 4, Name: "orders"},
	}
	with := &ast.With{
		ID:   5,
		CTEs: []*ast.CTE{{ID: 6, Name: "c", Query: inner}},
		Body: &ast.Select{
			ID:          7,
			Projections: []*ast.Projection{{ID: 8, Expr: col(9, "id")}},
			From:        &ast.TableRef{ID: 10, Name: "c"},
		},
	}
	assert.Equal(t, "WITH c AS (SELECT id FROM orders) SELECT id FROM c", Serialize(with))
}

func TestNormalizeWhitespace(t *testing.T) {
	assert.Equal(t, "SELECT id FROM orders", NormalizeWhitespace("  SELECT   id\nFROM\torders  "))
}
