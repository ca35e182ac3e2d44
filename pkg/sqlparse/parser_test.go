package sqlparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsxbet/sqlguard/pkg/ast"
)

func TestParse_SimpleSelect(t *testing.T) {
	res, err := Parse("SELECT id, name FROM orders WHERE account_id = 123")
	require.NoError(t, err)
	require.NotNil(t, res.Statement)

	sel, ok := res.Statement.(*ast.Select)
	require.True(t, ok)
	require.Len(t, sel.Projections, 2)
	assert.Equal(t, "id", sel.Projections[0].Expr.(*ast.ColumnRef).Name)
	require.NotNil(t, sel.Where)
}

func TestParse_Star(t *testing.T) {
	res, err := Parse("SELECT * FROM orders")
	require.NoError(t, err)
	sel := res.Statement.(*ast.Select)
	require.Len(t, sel.Projections, 1)
	assert.True(t, sel.Projections[0].Star)
}

func TestParse_Join(t *testing.T) {
	res, err := Parse("SELECT o.id FROM orders o JOIN accounts a ON o.account_id = a.id")
	require.NoError(t, err)
	sel := res.Statement.(*ast.Select)
	join, ok := sel.From.(*ast.Join)
	require.True(t, ok)
	assert.Equal(t, ast.JoinInner, join.Kind)
	require.NotNil(t, join.On)
}

func TestParse_CTE(t *testing.T) {
	res, err := Parse("WITH recent AS (SELECT id FROM orders) SELECT id FROM recent")
	require.NoError(t, err)
	with, ok := res.Statement.(*ast.With)
	require.True(t, ok)
	require.Len(t, with.CTEs, 1)
	assert.Equal(t, "recent", with.CTEs[0].Name)
}

func TestParse_CommentOnlyProjection(t *testing.T) {
	res, err := Parse("SELECT /* id */ FROM orders")
	require.NoError(t, err)
	sel := res.Statement.(*ast.Select)
	assert.Empty(t, sel.Projections)
}

func TestParse_ForbiddenStatementKind(t *testing.T) {
	res, err := Parse("DELETE FROM orders WHERE id = 1")
	require.NoError(t, err)
	other, ok := res.Statement.(*ast.OtherStatement)
	require.True(t, ok)
	assert.Equal(t, "DELETE", other.Kind)
}

func TestParse_MultipleStatements(t *testing.T) {
	_, err := Parse("SELECT 1; SELECT 2;")
	assert.Error(t, err)
}

func TestParse_SyntaxError(t *testing.T) {
	_, err := Parse("SELEKT * FROM orders")
	assert.Error(t, err)
}

func TestParse_StripsLineAndBlockComments(t *testing.T) {
	res, err := Parse("SELECT id -- trailing comment\nFROM orders /* block */ WHERE id = 1")
	require.NoError(t, err)
	sel := res.Statement.(*ast.Select)
	require.Len(t, sel.Projections, 1)
}

func TestParse_CommentLikeSequenceInsideStringLiteralSurvives(t *testing.T) {
	res, err := Parse("SELECT id FROM orders WHERE product_name = 'a -- b /* c */ d'")
	require.NoError(t, err)
	sel := res.Statement.(*ast.Select)
	bin, ok := sel.Where.(*ast.BinaryExpr)
	require.True(t, ok)
	lit, ok := bin.Right.(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, ast.LiteralString, lit.Kind)
	assert.Equal(t, "a -- b /* c */ d", lit.Value)
}

func TestParse_StableNodeIDsAreUnique(t *testing.T) {
	res, err := Parse("SELECT id, name FROM orders WHERE account_id = 123 AND total > 5")
	require.NoError(t, err)

	seen := map[int]bool{}
	var walk func(n ast.Node) bool
	walk = func(n ast.Node) bool {
		if n == nil {
			return true
		}
		id := n.NodeID()
		if seen[id] {
			return false
		}
		seen[id] = true
		return true
	}

	sel := res.Statement.(*ast.Select)
	assert.True(t, walk(sel))
	for _, p := range sel.Projections {
		assert.True(t, walk(p))
	}
	assert.True(t, walk(sel.Where))
}
