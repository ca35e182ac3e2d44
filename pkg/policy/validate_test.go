package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_SimplePolicy(t *testing.T) {
	raw := RawPolicy{Tables: []RawTable{
		{
			TableName: "orders",
			Columns:   []string{"id", "account_id", "total"},
			Restrictions: []RawRestriction{
				{Column: "account_id", Operation: "=", Value: 123},
			},
		},
	}}

	pol, err := Validate(raw)
	require.NoError(t, err)
	require.Len(t, pol.Tables, 1)

	table := pol.Tables[0]
	assert.Equal(t, "orders", table.Name)
	assert.True(t, table.HasColumn("total"))
	require.Len(t, table.Restrictions, 1)
	assert.Equal(t, OpEq, table.Restrictions[0].Op)
	assert.Equal(t, 123, table.Restrictions[0].Value)
}

func TestValidate_EmptyTableName(t *testing.T) {
	raw := RawPolicy{Tables: []RawTable{{TableName: "", Columns: []string{"id"}}}}
	_, err := Validate(raw)
	assert.Error(t, err)
}

func TestValidate_EmptyColumnList(t *testing.T) {
	raw := RawPolicy{Tables: []RawTable{{TableName: "orders"}}}
	_, err := Validate(raw)
	assert.Error(t, err)
}

func TestValidate_RestrictionColumnNotInAllowList(t *testing.T) {
	raw := RawPolicy{Tables: []RawTable{
		{
			TableName: "orders",
			Columns:   []string{"id"},
			Restrictions: []RawRestriction{
				{Column: "account_id", Operation: "=", Value: 123},
			},
		},
	}}
	_, err := Validate(raw)
	assert.Error(t, err)
}

func TestValidate_ComparisonRequiresNumericForNonEq(t *testing.T) {
	raw := RawPolicy{Tables: []RawTable{
		{
			TableName: "orders",
			Columns:   []string{"status"},
			Restrictions: []RawRestriction{
				{Column: "status", Operation: ">", Value: "shipped"},
			},
		},
	}}
	_, err := Validate(raw)
	assert.Error(t, err)
}

func TestValidate_EqAcceptsNonNumericValue(t *testing.T) {
	raw := RawPolicy{Tables: []RawTable{
		{
			TableName: "orders",
			Columns:   []string{"status"},
			Restrictions: []RawRestriction{
				{Column: "status", Operation: "=", Value: "shipped"},
			},
		},
	}}
	pol, err := Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, "shipped", pol.Tables[0].Restrictions[0].Value)
}

func TestValidate_Between(t *testing.T) {
	tests := []struct {
		name    string
		values  []any
		wantErr bool
	}{
		{name: "valid ascending range", values: []any{1, 10}, wantErr: false},
		{name: "wrong count", values: []any{1}, wantErr: true},
		{name: "non-numeric", values: []any{"a", "b"}, wantErr: true},
		{name: "descending range", values: []any{10, 1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := RawPolicy{Tables: []RawTable{
				{
					TableName: "orders",
					Columns:   []string{"total"},
					Restrictions: []RawRestriction{
						{Column: "total", Operation: "BETWEEN", Values: tt.values},
					},
				},
			}}
			_, err := Validate(raw)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_In(t *testing.T) {
	tests := []struct {
		name    string
		values  []any
		wantErr bool
	}{
		{name: "valid strings", values: []any{"a", "b"}, wantErr: false},
		{name: "empty list", values: nil, wantErr: true},
		{name: "mixed types", values: []any{"a", 1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := RawPolicy{Tables: []RawTable{
				{
					TableName: "orders",
					Columns:   []string{"status"},
					Restrictions: []RawRestriction{
						{Column: "status", Operation: "IN", Values: tt.values},
					},
				},
			}}
			_, err := Validate(raw)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_UnsupportedOperation(t *testing.T) {
	raw := RawPolicy{Tables: []RawTable{
		{
			TableName: "orders",
			Columns:   []string{"total"},
			Restrictions: []RawRestriction{
				{Column: "total", Operation: "LIKE", Value: "%x%"},
			},
		},
	}}
	_, err := Validate(raw)
	require.Error(t, err)
	var unsupported *UnsupportedRestrictionError
	assert.ErrorAs(t, err, &unsupported)
}
