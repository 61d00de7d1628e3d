package commands

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leaplineage/internal/cli/config"
	"github.com/leapstack-labs/leaplineage/internal/state"
)

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

// versionOutput is the JSON shape of the version command.
type versionOutput struct {
	Version     string `json:"Version"`
	Commit      string `json:"Commit"`
	BuildDate   string `json:"BuildDate"`
	GoVersion   string `json:"GoVersion"`
	StateSchema int64  `json:"StateSchema"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display LeapLineage version and build information, including the
schema version of the run history database this binary writes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schema, err := stateSchemaVersion()
			if err != nil {
				return err
			}
			format := config.OutputTable
			if getConfig().OutputFormat == config.OutputJSON {
				format = config.OutputJSON
			}
			return writeVersion(cmd.OutOrStdout(), format, info, schema)
		},
	}
}

// stateSchemaVersion migrates a scratch store to find the newest schema.
func stateSchemaVersion() (int64, error) {
	store := state.NewSQLiteStore(nil)
	if err := store.Open(":memory:"); err != nil {
		return 0, err
	}
	defer func() { _ = store.Close() }()

	if err := store.Migrate(); err != nil {
		return 0, err
	}
	version, err := store.MigrationVersion()
	if err != nil {
		return 0, fmt.Errorf("failed to read state schema version: %w", err)
	}
	return version, nil
}

func writeVersion(w io.Writer, format string, info BuildInfo, schema int64) error {
	out := versionOutput{
		Version:     info.Version,
		Commit:      info.Commit,
		BuildDate:   info.BuildDate,
		GoVersion:   runtime.Version(),
		StateSchema: schema,
	}
	if format == config.OutputJSON {
		return writeJSON(w, out)
	}

	_, _ = fmt.Fprintf(w, "LeapLineage v%s\n", out.Version)
	_, _ = fmt.Fprintln(w, "Column-level lineage for T-SQL scripts")
	_, _ = fmt.Fprintf(w, "  commit:       %s\n", out.Commit)
	_, _ = fmt.Fprintf(w, "  built:        %s\n", out.BuildDate)
	_, _ = fmt.Fprintf(w, "  go:           %s\n", out.GoVersion)
	_, _ = fmt.Fprintf(w, "  state schema: %d\n", out.StateSchema)
	return nil
}
