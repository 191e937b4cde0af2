package meshy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assetServer serves fake asset bytes for any path and 404s paths listed
// in missing.
func assetServer(t *testing.T, missing ...string) *httptest.Server {
	t.Helper()
	gone := make(map[string]bool, len(missing))
	for _, m := range missing {
		gone[m] = true
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gone[r.URL.Path] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("bytes:" + r.URL.Path))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDownloadAssets_FormatsAndThumbnail(t *testing.T) {
	srv := assetServer(t)
	client := NewClient(Options{APIKey: "k"})
	outDir := filepath.Join(t.TempDir(), "out")

	task := &Task{
		ID:     "t1",
		Status: StatusSucceeded,
		ModelURLs: map[string]string{
			"glb":  srv.URL + "/m.glb",
			"fbx":  srv.URL + "/m.fbx",
			"usdz": srv.URL + "/m.usdz",
		},
		ThumbnailURL: srv.URL + "/thumb.png",
	}

	files, err := client.DownloadAssets(context.Background(), task, outDir, []string{"glb", "fbx"}, false)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(outDir, "model.glb"), files["glb"])
	assert.Equal(t, filepath.Join(outDir, "model.fbx"), files["fbx"])
	assert.Equal(t, filepath.Join(outDir, "thumbnail.png"), files["thumbnail"])
	// usdz was present in the payload but not requested.
	assert.NotContains(t, files, "usdz")

	data, err := os.ReadFile(files["glb"])
	require.NoError(t, err)
	assert.Equal(t, "bytes:/m.glb", string(data))
}

func TestDownloadAssets_RequestedFormatAbsentFromPayload(t *testing.T) {
	srv := assetServer(t)
	client := NewClient(Options{APIKey: "k"})

	task := &Task{ModelURLs: map[string]string{"glb": srv.URL + "/m.glb"}}
	files, err := client.DownloadAssets(context.Background(), task, t.TempDir(), []string{"glb", "obj"}, false)
	require.NoError(t, err)

	assert.Contains(t, files, "glb")
	assert.NotContains(t, files, "obj")
}

func TestDownloadAssets_ObjPullsCompanionMtl(t *testing.T) {
	srv := assetServer(t)
	client := NewClient(Options{APIKey: "k"})
	outDir := t.TempDir()

	task := &Task{ModelURLs: map[string]string{
		"obj": srv.URL + "/m.obj",
		"mtl": srv.URL + "/m.mtl",
	}}

	files, err := client.DownloadAssets(context.Background(), task, outDir, []string{"obj"}, false)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(outDir, "model.obj"), files["obj"])
	assert.Equal(t, filepath.Join(outDir, "model.mtl"), files["mtl"])
}

func TestDownloadAssets_TextureNaming(t *testing.T) {
	srv := assetServer(t)
	client := NewClient(Options{APIKey: "k"})
	outDir := t.TempDir()

	task := &Task{
		ModelURLs: map[string]string{"glb": srv.URL + "/m.glb"},
		TextureURLs: []map[string]string{
			{"base_color": srv.URL + "/t0c.png", "normal": srv.URL + "/t0n.png"},
			{"base_color": srv.URL + "/t1c.png", "roughness": srv.URL + "/t1r.png"},
		},
	}

	files, err := client.DownloadAssets(context.Background(), task, outDir, []string{"glb"}, true)
	require.NoError(t, err)

	texDir := filepath.Join(outDir, "textures")
	assert.Equal(t, filepath.Join(texDir, "texture_0.png"), files["texture_0_base_color"])
	assert.Equal(t, filepath.Join(texDir, "texture_0_normal.png"), files["texture_0_normal"])
	assert.Equal(t, filepath.Join(texDir, "texture_1.png"), files["texture_1_base_color"])
	assert.Equal(t, filepath.Join(texDir, "texture_1_roughness.png"), files["texture_1_roughness"])

	for _, p := range files {
		_, err := os.Stat(p)
		assert.NoError(t, err)
	}
}

func TestDownloadAssets_TexturesSkippedWhenDisabled(t *testing.T) {
	srv := assetServer(t)
	client := NewClient(Options{APIKey: "k"})
	outDir := t.TempDir()

	task := &Task{
		ModelURLs:   map[string]string{"glb": srv.URL + "/m.glb"},
		TextureURLs: []map[string]string{{"base_color": srv.URL + "/t0.png"}},
	}

	files, err := client.DownloadAssets(context.Background(), task, outDir, []string{"glb"}, false)
	require.NoError(t, err)
	assert.NotContains(t, files, "texture_0_base_color")

	_, err = os.Stat(filepath.Join(outDir, "textures"))
	assert.True(t, os.IsNotExist(err))
}

func TestDownloadAssets_FailureKeepsEarlierFiles(t *testing.T) {
	srv := assetServer(t, "/m.fbx")
	client := NewClient(Options{APIKey: "k"})
	outDir := t.TempDir()

	task := &Task{ModelURLs: map[string]string{
		"glb": srv.URL + "/m.glb",
		"fbx": srv.URL + "/m.fbx",
	}}

	_, err := client.DownloadAssets(context.Background(), task, outDir, []string{"glb", "fbx"}, false)
	require.Error(t, err)
	assert.True(t, IsAPIError(err))

	// Partial downloads are not rolled back.
	_, statErr := os.Stat(filepath.Join(outDir, "model.glb"))
	assert.NoError(t, statErr)
}
