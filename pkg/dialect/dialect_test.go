package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Dialect
	}{
		{name: "empty defaults to trino", input: "", want: Trino},
		{name: "trino", input: "Trino", want: Trino},
		{name: "presto aliases trino", input: "PRESTO", want: Trino},
		{name: "postgres", input: "postgres", want: Postgres},
		{name: "postgresql alias", input: "PostgreSQL", want: Postgres},
		{name: "unrecognized", input: "oracle", want: Unspecified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.input))
		})
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "trino", Trino.String())
	assert.Equal(t, "postgres", Postgres.String())
	assert.Equal(t, "unspecified", Unspecified.String())
}
