package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBytes_ListOfTables_YAML(t *testing.T) {
	doc := []byte(`
tables:
  - table_name: orders
    columns: [id, account_id, total]
    restrictions:
      - column: account_id
        operation: "="
        value: 123
`)
	pol, err := LoadBytes(doc)
	require.NoError(t, err)
	require.Len(t, pol.Tables, 1)
	assert.Equal(t, "orders", pol.Tables[0].Name)
}

func TestLoadBytes_ListOfTables_JSON(t *testing.T) {
	doc := []byte(`{"tables": [{"table_name": "orders", "columns": ["id"], "restrictions": []}]}`)
	pol, err := LoadBytes(doc)
	require.NoError(t, err)
	require.Len(t, pol.Tables, 1)
	assert.Equal(t, "orders", pol.Tables[0].Name)
}

func TestLoadBytes_LegacyMapOfTables(t *testing.T) {
	doc := []byte(`
tables:
  orders:
    columns: [id, account_id]
    restrictions:
      - column: account_id
        operation: "="
        value: 123
`)
	pol, err := LoadBytes(doc)
	require.NoError(t, err)
	require.Len(t, pol.Tables, 1)
	assert.Equal(t, "orders", pol.Tables[0].Name)
	table, ok := pol.Table("ORDERS")
	require.True(t, ok)
	assert.True(t, table.HasColumn("ACCOUNT_ID"))
}

func TestLoadBytes_MissingTablesKey(t *testing.T) {
	_, err := LoadBytes([]byte(`{"foo": "bar"}`))
	assert.Error(t, err)
}

func TestLoadBytes_NeitherYAMLNorJSON(t *testing.T) {
	_, err := LoadBytes([]byte("not: [valid yaml or json"))
	assert.Error(t, err)
}
