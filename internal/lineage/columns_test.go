package lineage

import (
	"testing"

	"github.com/leapstack-labs/leaplineage/pkg/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func objectName(parts ...string) *parser.ObjectName {
	return &parser.ObjectName{Parts: parts}
}

func TestCatalog_Lookup(t *testing.T) {
	c := NewCatalog(map[string][]string{
		"[dbo].[Orders]": {"id", "amount"},
		"Customers":      {"id", "name"},
	})
	assert.Equal(t, 2, c.Len())

	tests := []struct {
		name  string
		input *parser.ObjectName
		want  []string
		found bool
	}{
		{"qualified", objectName("dbo", "Orders"), []string{"id", "amount"}, true},
		{"case insensitive", objectName("DBO", "ORDERS"), []string{"id", "amount"}, true},
		{"unqualified falls back", objectName("Orders"), []string{"id", "amount"}, true},
		{"other schema falls back", objectName("sales", "Customers"), []string{"id", "name"}, true},
		{"missing", objectName("Nope"), nil, false},
		{"nil name", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.Lookup(tt.input)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCatalog_Nil(t *testing.T) {
	var c *Catalog
	_, ok := c.Lookup(objectName("T"))
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestPrescan(t *testing.T) {
	tests := []struct {
		name  string
		sql   string
		table string
		want  []string
	}{
		{
			name:  "single table attributes unqualified columns",
			sql:   "SELECT a, b FROM T WHERE c = 1",
			table: "T",
			want:  []string{"a", "b", "c"},
		},
		{
			name:  "aliases resolve qualified columns",
			sql:   "SELECT o.id, c.name FROM dbo.Orders o JOIN dbo.Customers c ON c.id = o.customer_id",
			table: "dbo.Orders",
			want:  []string{"id", "customer_id"},
		},
		{
			name:  "unqualified columns with several tables are not attributed",
			sql:   "SELECT x FROM A, B",
			table: "A",
			want:  nil,
		},
		{
			name:  "insert column lists",
			sql:   "INSERT INTO Target (x, y) VALUES (1, 2)",
			table: "Target",
			want:  []string{"x", "y"},
		},
		{
			name:  "update targets",
			sql:   "UPDATE T SET a = b",
			table: "T",
			want:  []string{"a", "b"},
		},
		{
			name:  "stars are ignored",
			sql:   "SELECT * FROM T",
			table: "T",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script, errs := parser.Parse(tt.sql)
			require.Empty(t, errs)

			known := newKnownColumns()
			prescan(known, script)
			assert.ElementsMatch(t, tt.want, known.columns(tt.table))
		})
	}
}

func TestPrescan_NestedQueriesHaveTheirOwnScope(t *testing.T) {
	script, errs := parser.Parse("SELECT a FROM T WHERE EXISTS (SELECT b FROM S)")
	require.Empty(t, errs)

	known := newKnownColumns()
	prescan(known, script)
	assert.Equal(t, []string{"a"}, known.columns("T"))
	assert.Equal(t, []string{"b"}, known.columns("S"))
}
