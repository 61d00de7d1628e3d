package definition

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/leapstack-labs/leaplineage/internal/lineage"
	"gopkg.in/yaml.v3"
)

// SchemaFile is the on-disk form of a column catalog:
//
//	tables:
//	  dbo.Orders: [id, customer_id, amount]
//	  dbo.Customers: [id, name]
type SchemaFile struct {
	Tables map[string][]string `yaml:"tables"`
}

// LoadSchemaFile reads a YAML schema file into a catalog.
func LoadSchemaFile(path string) (*lineage.Catalog, error) {
	content, err := os.ReadFile(path) //nolint:gosec // G304: path is user-provided config
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	catalog, err := ParseSchema(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema file %s: %w", path, err)
	}
	return catalog, nil
}

// ParseSchema parses YAML schema content. Unknown fields are an error.
func ParseSchema(content []byte) (*lineage.Catalog, error) {
	var file SchemaFile
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	for name, cols := range file.Tables {
		if len(cols) == 0 {
			return nil, fmt.Errorf("table %s has no columns", name)
		}
	}
	return lineage.NewCatalog(file.Tables), nil
}
