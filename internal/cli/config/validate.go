package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !slices.Contains([]string{OutputAuto, OutputJSON, OutputTable}, c.OutputFormat) {
		return fmt.Errorf("invalid output format %q (expected auto, json or table)", c.OutputFormat)
	}
	if !slices.Contains([]string{LogFormatText, LogFormatJSON}, c.LogFormat) {
		return fmt.Errorf("invalid log_format %q (expected text or json)", c.LogFormat)
	}
	if c.MaxDepth <= 0 {
		return fmt.Errorf("max_depth must be positive, got %d", c.MaxDepth)
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency)
	}
	if c.WatchDebounce < 0 {
		return fmt.Errorf("watch_debounce must not be negative, got %s", c.WatchDebounce)
	}
	for _, ext := range c.WatchExtensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("watch extension %q must start with a dot", ext)
		}
	}
	return nil
}

// ValidateDirectories checks if configured paths exist.
func (c *Config) ValidateDirectories() error {
	if c.DefinitionsDir != "" {
		if _, err := os.Stat(c.DefinitionsDir); os.IsNotExist(err) {
			return fmt.Errorf("definitions directory does not exist: %s\nHint: Create the directory or use --definitions-dir to specify a different path", c.DefinitionsDir)
		}
	}
	if c.SchemaFile != "" {
		if _, err := os.Stat(c.SchemaFile); os.IsNotExist(err) {
			return fmt.Errorf("schema file does not exist: %s", c.SchemaFile)
		}
	}
	return nil
}
