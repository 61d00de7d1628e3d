package commands

import (
	"bytes"
	"encoding/json"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leaplineage/internal/cli/config"
)

func TestVersionCommand(t *testing.T) {
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	cmd := NewVersionCommand(BuildInfo{Version: "1.2.3", Commit: "abc1234", BuildDate: "2026-01-02"})
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)

	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "LeapLineage v1.2.3")
	assert.Contains(t, out, "commit:       abc1234")
	assert.Contains(t, out, "built:        2026-01-02")
	assert.Contains(t, out, "go:           "+runtime.Version())
	assert.Contains(t, out, "state schema: 1")
}

func TestStateSchemaVersion(t *testing.T) {
	version, err := stateSchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
}

func TestWriteVersion_JSON(t *testing.T) {
	buf := new(bytes.Buffer)
	info := BuildInfo{Version: "dev", Commit: "unknown", BuildDate: "unknown"}
	require.NoError(t, writeVersion(buf, config.OutputJSON, info, 1))

	var got versionOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, versionOutput{
		Version:     "dev",
		Commit:      "unknown",
		BuildDate:   "unknown",
		GoVersion:   runtime.Version(),
		StateSchema: 1,
	}, got)
}
