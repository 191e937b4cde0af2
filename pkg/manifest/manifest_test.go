package manifest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
version: "1.0"
batch:
  count: 5
  workers: 2
design:
  material: gold
  jewelry_type: chain
  chain_style: cuban
generation:
  formats: [glb, obj]
  timeout: 30m
output:
  destination: results.jsonl
  progress: false
`

func writeManifest(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	m, err := Load(writeManifest(t, "batch.yaml", validYAML))
	require.NoError(t, err)

	assert.Equal(t, "1.0", m.Version)
	assert.Equal(t, 5, m.Batch.Count)
	assert.Equal(t, 2, m.Batch.Workers)
	assert.Equal(t, "gold", m.Design.Material)
	assert.Equal(t, "chain", m.Design.JewelryType)
	assert.Equal(t, "cuban", m.Design.ChainStyle)
	assert.Equal(t, []string{"glb", "obj"}, m.Generation.Formats)
	assert.Equal(t, 30*time.Minute, m.Generation.Timeout.Std())
	assert.Equal(t, "results.jsonl", m.Output.Destination)
	require.NotNil(t, m.Output.Progress)
	assert.False(t, *m.Output.Progress)
}

func TestLoad_JSON(t *testing.T) {
	content := `{
  "version": "1.0",
  "batch": {"count": 3},
  "generation": {"timeout": "90s"}
}`
	m, err := Load(writeManifest(t, "batch.json", content))
	require.NoError(t, err)

	assert.Equal(t, 3, m.Batch.Count)
	assert.Equal(t, 90*time.Second, m.Generation.Timeout.Std())
}

func TestLoad_Defaults(t *testing.T) {
	content := `
version: "1.0"
batch:
  count: 2
`
	m, err := Load(writeManifest(t, "batch.yaml", content))
	require.NoError(t, err)

	assert.Equal(t, 3, m.Batch.Workers)
	assert.Equal(t, []string{"glb", "fbx"}, m.Generation.Formats)
	assert.Equal(t, "stdout", m.Output.Destination)
	require.NotNil(t, m.Output.Progress)
	assert.True(t, *m.Output.Progress)
	assert.Zero(t, m.Generation.Timeout.Std())
	assert.False(t, m.Generation.Mock)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLoadFromBytes_Empty(t *testing.T) {
	_, err := LoadFromBytes(nil, "batch.yaml")
	assert.Error(t, err)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing version",
			content: "batch:\n  count: 1\n",
			wantErr: "unsupported manifest version",
		},
		{
			name:    "zero count",
			content: "version: \"1.0\"\nbatch:\n  count: 0\n",
			wantErr: "batch.count",
		},
		{
			name:    "negative workers",
			content: "version: \"1.0\"\nbatch:\n  count: 1\n  workers: -2\n",
			wantErr: "batch.workers",
		},
		{
			name:    "bad material",
			content: "version: \"1.0\"\nbatch:\n  count: 1\ndesign:\n  material: adamantium\n",
			wantErr: "design.material",
		},
		{
			name:    "bad jewelry type",
			content: "version: \"1.0\"\nbatch:\n  count: 1\ndesign:\n  jewelry_type: tiara\n",
			wantErr: "design.jewelry_type",
		},
		{
			name:    "bad chain style",
			content: "version: \"1.0\"\nbatch:\n  count: 1\ndesign:\n  chain_style: moebius\n",
			wantErr: "design.chain_style",
		},
		{
			name:    "bad format",
			content: "version: \"1.0\"\nbatch:\n  count: 1\ngeneration:\n  formats: [stl]\n",
			wantErr: "unsupported format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.content), "batch.yaml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDuration_Forms(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    time.Duration
	}{
		{"go duration string", "version: \"1.0\"\nbatch:\n  count: 1\ngeneration:\n  timeout: 1h30m\n", 90 * time.Minute},
		{"bare seconds", "version: \"1.0\"\nbatch:\n  count: 1\ngeneration:\n  timeout: 45\n", 45 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := LoadFromBytes([]byte(tt.content), "batch.yaml")
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Generation.Timeout.Std())
		})
	}

	t.Run("garbage rejected", func(t *testing.T) {
		_, err := LoadFromBytes([]byte("version: \"1.0\"\nbatch:\n  count: 1\ngeneration:\n  timeout: soonish\n"), "batch.yaml")
		assert.Error(t, err)
	})
}
