// Package config provides configuration management for the LeapLineage CLI.
//
// Settings are layered from defaults, a leaplineage.yaml file, LEAPLINEAGE_*
// environment variables and command-line flags, in increasing priority.
package config

import "time"

// Default configuration values.
const (
	DefaultDefinitionsDir = ""
	DefaultStateFile      = ".leaplineage/state.db"
	DefaultMaxDepth       = 256
	DefaultOutput         = OutputAuto
	DefaultLogFormat      = LogFormatText
	DefaultWatchDebounce  = 100 * time.Millisecond
)

// Output formats accepted by --output.
const (
	OutputAuto  = "auto"
	OutputJSON  = "json"
	OutputTable = "table"
)

// Log formats accepted by log_format.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// DefaultWatchExtensions lists the file extensions watched by default.
var DefaultWatchExtensions = []string{".sql"}

// Config holds all CLI configuration options.
type Config struct {
	// DefinitionsDir holds .sql files with view and procedure definitions.
	DefinitionsDir string `koanf:"definitions_dir"`
	// SchemaFile is a YAML file that lists table columns.
	SchemaFile string `koanf:"schema_file"`
	// MSSQLDSN connects to a SQL Server for definitions and columns.
	MSSQLDSN  string `koanf:"mssql_dsn"`
	StatePath string `koanf:"state_path"`

	MaxDepth    int `koanf:"max_depth"`
	Concurrency int `koanf:"concurrency"`

	Verbose      bool   `koanf:"verbose"`
	OutputFormat string `koanf:"output"`
	LogFormat    string `koanf:"log_format"`

	WatchDebounce   time.Duration `koanf:"watch_debounce"`
	WatchExtensions []string      `koanf:"watch_extensions"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		DefinitionsDir:  DefaultDefinitionsDir,
		StatePath:       DefaultStateFile,
		MaxDepth:        DefaultMaxDepth,
		OutputFormat:    DefaultOutput,
		LogFormat:       DefaultLogFormat,
		WatchDebounce:   DefaultWatchDebounce,
		WatchExtensions: append([]string(nil), DefaultWatchExtensions...),
	}
}
