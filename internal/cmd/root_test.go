package cmd

import (
	"errors"
	"testing"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetVersionInfo(t *testing.T) {
	origVersion := versionInfo.Version
	origCommit := versionInfo.Commit
	origBuildDate := versionInfo.BuildDate
	defer func() {
		versionInfo.Version = origVersion
		versionInfo.Commit = origCommit
		versionInfo.BuildDate = origBuildDate
	}()

	tests := []struct {
		name      string
		version   string
		commit    string
		buildDate string
	}{
		{
			name:      "set all values",
			version:   "1.0.0",
			commit:    "abc123",
			buildDate: "2026-08-28",
		},
		{
			name:      "set dev version",
			version:   "dev",
			commit:    "HEAD",
			buildDate: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetVersionInfo(tt.version, tt.commit, tt.buildDate)

			assert.Equal(t, tt.version, versionInfo.Version)
			assert.Equal(t, tt.commit, versionInfo.Commit)
			assert.Equal(t, tt.buildDate, versionInfo.BuildDate)
			assert.Equal(t, tt.version, rootCmd.Version)
		})
	}
}

func TestExitError(t *testing.T) {
	err := exitError(foundry.ExitInvalidArgument, "Invalid design parameters", errors.New("unknown material"))
	assert.Contains(t, err.Error(), "Invalid design parameters")
	assert.Contains(t, err.Error(), "unknown material")
	assert.Equal(t, int(foundry.ExitInvalidArgument), exitCodeFor(err))

	// Without a cause, only the message shows.
	bare := exitError(foundry.ExitFileNotFound, "No such design", nil)
	assert.Equal(t, "No such design", bare.Error())
}

func TestExitCodeFor_PlainError(t *testing.T) {
	assert.Equal(t, 1, exitCodeFor(errors.New("boom")))
}

func TestParseDesignFlags(t *testing.T) {
	material, jewelryType, chainStyle, err := parseDesignFlags("silver", "ring", "")
	require.NoError(t, err)
	assert.Equal(t, "silver", string(material))
	assert.Equal(t, "ring", string(jewelryType))
	assert.Empty(t, string(chainStyle))

	// Empty flags stay empty so configured defaults can fill them.
	material, jewelryType, chainStyle, err = parseDesignFlags("", "", "")
	require.NoError(t, err)
	assert.Empty(t, string(material))
	assert.Empty(t, string(jewelryType))
	assert.Empty(t, string(chainStyle))

	_, _, _, err = parseDesignFlags("adamantium", "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "adamantium")
	assert.Contains(t, err.Error(), "valid:")

	_, _, _, err = parseDesignFlags("", "tiara", "")
	require.Error(t, err)

	_, _, _, err = parseDesignFlags("", "", "moebius")
	require.Error(t, err)
}

func TestCreateWriter_Stdout(t *testing.T) {
	for _, dest := range []string{"", "stdout"} {
		w, cleanup, err := createWriter(dest, "batch_x")
		require.NoError(t, err)
		require.NotNil(t, w)
		cleanup()
	}
}

func TestCreateWriter_File(t *testing.T) {
	path := t.TempDir() + "/results.jsonl"

	w, cleanup, err := createWriter(path, "")
	require.NoError(t, err)
	require.NotNil(t, w)
	cleanup()

	assert.FileExists(t, path)

	// file: prefix points at the same path form.
	w, cleanup, err = createWriter("file:"+path, "")
	require.NoError(t, err)
	require.NotNil(t, w)
	cleanup()
}

func TestCreateWriter_BadPath(t *testing.T) {
	_, _, err := createWriter(t.TempDir()+"/no/such/dir/out.jsonl", "")
	require.Error(t, err)
}
