package definition

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/leaplineage/internal/lineage"
	"github.com/leapstack-labs/leaplineage/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func sampleProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "Views/CustomerOrders.sql", `CREATE VIEW dbo.CustomerOrders AS
SELECT o.id, c.name
FROM dbo.Orders o
JOIN dbo.Customers c ON c.id = o.customer_id
GO
`)
	writeFile(t, root, "Procedures/GetOrders.sql", `CREATE PROCEDURE dbo.GetOrders AS
BEGIN
	SELECT id, amount FROM dbo.Orders
END
GO
CREATE VIEW dbo.Second AS SELECT 1 AS one
GO
`)
	writeFile(t, root, "broken.sql", "\n\nSELEC x\n")
	writeFile(t, root, ".hidden/Skip.sql", "CREATE VIEW dbo.Hidden AS SELECT 1 AS one")
	writeFile(t, root, "notes.txt", "CREATE VIEW dbo.Text AS SELECT 1 AS one")
	return root
}

func TestSplitBatches(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Batch
	}{
		{
			name:  "single batch",
			input: "SELECT 1",
			want:  []Batch{{Text: "SELECT 1", Line: 1}},
		},
		{
			name:  "separators with counts and case",
			input: "a\nGO\nb\ngo 2\n\nc",
			want:  []Batch{{Text: "a", Line: 1}, {Text: "b", Line: 3}, {Text: "c", Line: 6}},
		},
		{
			name:  "trailing separator and blank batches",
			input: "a\r\nGO\r\n\r\nGO\r\n",
			want:  []Batch{{Text: "a", Line: 1}},
		},
		{
			name:  "go inside a line is not a separator",
			input: "SELECT 1 AS go_count\nSELECT 'GO'",
			want:  []Batch{{Text: "SELECT 1 AS go_count\nSELECT 'GO'", Line: 1}},
		},
		{
			name:  "empty",
			input: "  \n",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitBatches(tt.input))
		})
	}
}

func TestLoadDir(t *testing.T) {
	root := sampleProject(t)

	idx, result, err := LoadDir(context.Background(), root, LoadOptions{
		Concurrency: 2,
		Logger:      testutil.NewTestLogger(t),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Files)
	assert.Equal(t, 3, result.Objects)
	assert.Equal(t, 3, idx.Len())

	view, ok := idx.Lookup("CustomerOrders")
	require.True(t, ok)
	assert.Equal(t, KindView, view.Kind)
	assert.Equal(t, filepath.Join(root, "Views", "CustomerOrders.sql"), view.Path)

	proc, ok := idx.Lookup("dbo.GetOrders")
	require.True(t, ok)
	assert.Equal(t, KindProcedure, proc.Kind)
	assert.True(t, strings.HasPrefix(proc.Text, "CREATE PROCEDURE dbo.GetOrders"))
	assert.NotContains(t, proc.Text, "dbo.Second")

	_, ok = idx.Lookup("dbo.Hidden")
	assert.False(t, ok)

	require.True(t, result.HasErrors())
	require.Len(t, result.Errors, 1)
	assert.Equal(t, filepath.Join(root, "broken.sql"), result.Errors[0].Path)
	assert.Equal(t, 3, result.Errors[0].Line)
	assert.Equal(t, 1, result.Errors[0].Column)
}

func TestLoadDir_MissingRoot(t *testing.T) {
	_, _, err := LoadDir(context.Background(), filepath.Join(t.TempDir(), "missing"), LoadOptions{})
	assert.Error(t, err)
}

func TestLoadDir_Cancelled(t *testing.T) {
	root := sampleProject(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := LoadDir(ctx, root, LoadOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDirProvider_Reload(t *testing.T) {
	root := sampleProject(t)
	ctx := context.Background()

	p, _, err := NewDirProvider(ctx, root, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, root, p.Root())

	_, ok := p.TryGetDefinition("dbo.Added")
	assert.False(t, ok)

	writeFile(t, root, "Views/Added.sql", "CREATE VIEW dbo.Added AS SELECT id FROM dbo.Orders")
	result, err := p.Reload(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Objects)

	text, ok := p.TryGetDefinition("Added")
	assert.True(t, ok)
	assert.Contains(t, text, "CREATE VIEW dbo.Added")
}

func TestDirProvider_FeedsAnalyzer(t *testing.T) {
	p, _, err := NewDirProvider(context.Background(), sampleProject(t), LoadOptions{})
	require.NoError(t, err)

	analyzer := lineage.NewAnalyzer(lineage.WithDefinitionProvider(p))
	result, err := analyzer.Analyze("INSERT INTO #o (order_id) EXEC dbo.GetOrders; SELECT name FROM dbo.CustomerOrders")
	require.NoError(t, err)

	var edges []string
	for _, e := range result.Edges {
		edges = append(edges, e.SourceNodeID+" -> "+e.TargetNodeID)
	}
	assert.Contains(t, edges, "dbo.Orders.id -> dbo.GetOrders.id")
	assert.Contains(t, edges, "dbo.GetOrders.id -> #o.order_id")
	assert.Contains(t, edges, "dbo.Customers.name -> dbo.CustomerOrders.name")
	assert.Contains(t, edges, "dbo.CustomerOrders.name -> name")
}
