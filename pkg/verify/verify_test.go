package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsxbet/sqlguard/pkg/policy"
)

func ordersPolicy(t *testing.T) *policy.Policy {
	t.Helper()
	raw := policy.RawPolicy{Tables: []policy.RawTable{
		{
			TableName: "orders",
			Columns:   []string{"id", "product_name", "account_id"},
			Restrictions: []policy.RawRestriction{
				{Column: "account_id", Operation: "=", Value: 123},
			},
		},
	}}
	pol, err := policy.Validate(raw)
	require.NoError(t, err)
	return pol
}

func TestVerifySQL_Scenario1_ColumnAlwaysTrueAndMissingRestriction(t *testing.T) {
	pol := ordersPolicy(t)
	v, err := VerifySQL("SELECT id, name FROM orders WHERE 1 = 1", pol)
	require.NoError(t, err)

	assert.False(t, v.Allowed)
	assert.Equal(t, []string{
		"Column name is not allowed. Column removed from SELECT clause",
		"Always-True expression is not allowed",
		"Missing restriction for table: orders column: account_id value: 123",
	}, v.Errors)
	require.NotNil(t, v.Fixed)
	assert.Equal(t, "SELECT id FROM orders WHERE account_id = 123", *v.Fixed)
}

func TestVerifySQL_Scenario2_AlreadyCompliant(t *testing.T) {
	pol := ordersPolicy(t)
	v, err := VerifySQL("SELECT id, product_name FROM orders WHERE account_id = 123", pol)
	require.NoError(t, err)

	assert.True(t, v.Allowed)
	assert.Empty(t, v.Errors)
	assert.Nil(t, v.Fixed)
}

func TestVerifySQL_Scenario3_MissingRestrictionNoParens(t *testing.T) {
	pol := ordersPolicy(t)
	v, err := VerifySQL("SELECT id FROM orders WHERE account_id = 456", pol)
	require.NoError(t, err)

	assert.False(t, v.Allowed)
	assert.Equal(t, []string{"Missing restriction for table: orders column: account_id value: 123"}, v.Errors)
	require.NotNil(t, v.Fixed)
	assert.Equal(t, "SELECT id FROM orders WHERE account_id = 456 AND account_id = 123", *v.Fixed)
}

func TestVerifySQL_Scenario4_AlwaysTrueInOrCollapses(t *testing.T) {
	pol := ordersPolicy(t)
	v, err := VerifySQL("SELECT id FROM orders WHERE account_id = 123 OR 1 = 1", pol)
	require.NoError(t, err)

	assert.False(t, v.Allowed)
	assert.Equal(t, []string{"Always-True expression is not allowed"}, v.Errors)
	require.NotNil(t, v.Fixed)
	assert.Equal(t, "SELECT id FROM orders WHERE account_id = 123", *v.Fixed)
}

func TestVerifySQL_Scenario5_StarExpansion(t *testing.T) {
	pol := ordersPolicy(t)
	v, err := VerifySQL("SELECT * FROM orders", pol)
	require.NoError(t, err)

	assert.False(t, v.Allowed)
	require.Len(t, v.Errors, 2)
	assert.Equal(t, "SELECT * is not allowed", v.Errors[0])
	assert.Contains(t, v.Errors[1], "Missing restriction")
	require.NotNil(t, v.Fixed)
	assert.Equal(t, "SELECT id, product_name, account_id FROM orders WHERE account_id = 123", *v.Fixed)
}

func TestVerifySQL_Scenario6_ForbiddenJoinIsUnfixable(t *testing.T) {
	pol := ordersPolicy(t)
	v, err := VerifySQL("SELECT o.id, p.name FROM orders o JOIN products p ON o.pid = p.id", pol)
	require.NoError(t, err)

	assert.False(t, v.Allowed)
	found := false
	for _, e := range v.Errors {
		if e == "Table products is not allowed" {
			found = true
		}
	}
	assert.True(t, found)
	assert.Nil(t, v.Fixed)
}

func TestVerifySQL_Scenario7_CTEStarExpansionAndRestriction(t *testing.T) {
	pol := ordersPolicy(t)
	v, err := VerifySQL("WITH c AS (SELECT * FROM orders) SELECT id FROM c", pol)
	require.NoError(t, err)

	assert.False(t, v.Allowed)
	require.Len(t, v.Errors, 2)
	assert.Equal(t, "SELECT * is not allowed", v.Errors[0])
	assert.Contains(t, v.Errors[1], "Missing restriction")
	require.NotNil(t, v.Fixed)
	assert.Equal(t,
		"WITH c AS (SELECT id, product_name, account_id FROM orders WHERE account_id = 123) SELECT id FROM c",
		*v.Fixed)
}

func TestVerifySQL_ParseErrorNeverEntersVerdict(t *testing.T) {
	pol := ordersPolicy(t)
	_, err := VerifySQL("SELEKT * FROM orders", pol)
	assert.Error(t, err)
}

func TestVerifySQL_Idempotent(t *testing.T) {
	pol := ordersPolicy(t)
	first, err := VerifySQL("SELECT id FROM orders WHERE account_id = 456", pol)
	require.NoError(t, err)
	require.NotNil(t, first.Fixed)

	second, err := VerifySQL(*first.Fixed, pol)
	require.NoError(t, err)
	assert.True(t, second.Allowed)
	assert.Nil(t, second.Fixed)
}

func TestVerifySQL_CaseInsensitiveKeywords(t *testing.T) {
	pol := ordersPolicy(t)
	lower, err := VerifySQL("select id, product_name from orders where account_id = 123", pol)
	require.NoError(t, err)
	upper, err := VerifySQL("SELECT ID, PRODUCT_NAME FROM ORDERS WHERE ACCOUNT_ID = 123", pol)
	require.NoError(t, err)

	assert.Equal(t, lower.Allowed, upper.Allowed)
	assert.Equal(t, lower.Errors, upper.Errors)
}

func TestVerifySQL_WithDeniedFunctions(t *testing.T) {
	pol := ordersPolicy(t)
	v, err := VerifySQL(
		"SELECT SECRET_FN(id) FROM orders WHERE account_id = 123", pol,
		WithDeniedFunctions("secret_fn"),
	)
	require.NoError(t, err)
	assert.False(t, v.Allowed)
	assert.Contains(t, v.Errors[0], "Function secret_fn is not allowed")
}

func TestVerifySQL_RiskPassthrough(t *testing.T) {
	pol := ordersPolicy(t)
	v, err := VerifySQL("SELECT id, product_name FROM orders WHERE account_id = 123", pol, WithRisk(0.42))
	require.NoError(t, err)
	assert.Equal(t, 0.42, v.Risk)
}
