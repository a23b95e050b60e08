package batch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/takeshy/ddsbatch/internal/texconv"
)

func TestJobYAMLKeysMatchJSON(t *testing.T) {
	j := &Job{
		Source:        "/tex/rock_N.png",
		Dest:          "/tex/DDS/rock_N.dds",
		RuleSuffix:    "_N",
		SourceModTime: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Status:        StatusPending,
		Result:        &texconv.Result{Command: "texconv", ExitCode: 3},
	}

	data, err := yaml.Marshal(Batch{Profile: "Default", SourceDir: "/tex", Jobs: []*Job{j}})
	require.NoError(t, err)

	var doc struct {
		SourceDir string           `yaml:"source_dir"`
		Jobs      []map[string]any `yaml:"jobs"`
	}
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, "/tex", doc.SourceDir)
	require.Len(t, doc.Jobs, 1)

	got := doc.Jobs[0]
	assert.Equal(t, "_N", got["rule_suffix"])
	assert.Contains(t, got, "source_mod_time")
	assert.NotContains(t, got, "rulesuffix")
	assert.NotContains(t, got, "sourcemodtime")

	result, ok := got["result"].(map[string]any)
	require.True(t, ok, "result should encode as a mapping")
	assert.Equal(t, 3, result["exit_code"])
	assert.NotContains(t, result, "exitcode")
}
