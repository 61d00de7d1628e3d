// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
)

// Files written by SetupTestProject, relative to the project root.
const (
	DefinitionsDir = "Database"
	ReportScript   = "etl/report.sql"
	SchemaFile     = "schema.yaml"
)

// SetupTestProject creates a temporary project with a view definition,
// a script reading the view and a schema file.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	files := map[string]string{
		filepath.Join(DefinitionsDir, "Views", "CustomerOrders.sql"): `CREATE VIEW dbo.CustomerOrders AS
SELECT c.id AS customer_id, o.amount
FROM dbo.Customers c
JOIN dbo.Orders o ON o.customer_id = c.id
GO
`,
		ReportScript: `SELECT customer_id, amount AS total
FROM dbo.CustomerOrders
`,
		SchemaFile: `tables:
  dbo.Customers: [id, name]
  dbo.Orders: [id, customer_id, amount]
`,
	}

	for name, content := range files {
		path := filepath.Join(tmpDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create directory for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}

	return tmpDir
}

// ReportEdges are the edges analyze reports for ReportScript with the
// project definitions loaded.
var ReportEdges = []string{
	"dbo.Customers.id -> dbo.CustomerOrders.customer_id",
	"dbo.Orders.amount -> dbo.CustomerOrders.amount",
	"dbo.CustomerOrders.customer_id -> customer_id",
	"dbo.CustomerOrders.amount -> total",
}

// SafeBuffer is a bytes.Buffer safe for concurrent use.
type SafeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertContains checks that the string contains the expected substring.
func AssertContains(t *testing.T, s, expected string) {
	t.Helper()
	if !strings.Contains(s, expected) {
		t.Errorf("string %q does not contain expected %q", s, expected)
	}
}
