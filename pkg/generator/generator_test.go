package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeleaf/jewelgen/pkg/design"
	"github.com/forgeleaf/jewelgen/pkg/meshy"
	"github.com/forgeleaf/jewelgen/pkg/metadata"
)

// taskState is one scripted poll response.
type taskState struct {
	Status    string            `json:"status"`
	Progress  int               `json:"progress"`
	ModelURLs map[string]string `json:"model_urls,omitempty"`
	TaskError map[string]string `json:"task_error,omitempty"`
}

// fakeAPI is a scriptable stand-in for the remote generation service.
// Created tasks get ids "preview-<n>" / "refine-<n>"; poll responses come
// from per-prefix scripts, falling back to an immediate SUCCEEDED snapshot
// whose model_urls point at the fake's own asset endpoint.
type fakeAPI struct {
	srv *httptest.Server

	mu             sync.Mutex
	previewCreates int
	refineCreates  int
	failPreviewAt  int
	pollCalls      map[string]int
	scripts        map[string][]taskState
	lastPrompt     string
	lastRefineBody map[string]any
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{
		pollCalls: make(map[string]int),
		scripts:   make(map[string][]taskState),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/assets/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("binary-model-data"))
	})
	mux.HandleFunc("/openapi/v2/text-to-3d", f.handleCreate)
	mux.HandleFunc("/openapi/v2/text-to-3d/", f.handlePoll)

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	defer f.mu.Unlock()

	var id string
	switch body["mode"] {
	case "preview":
		f.previewCreates++
		f.lastPrompt, _ = body["prompt"].(string)
		if f.failPreviewAt == f.previewCreates {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message":"quota exhausted"}`))
			return
		}
		id = fmt.Sprintf("preview-%d", f.previewCreates)
	case "refine":
		f.refineCreates++
		f.lastRefineBody = body
		id = fmt.Sprintf("refine-%d", f.refineCreates)
	default:
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"result": id})
}

func (f *fakeAPI) handlePoll(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/openapi/v2/text-to-3d/")
	prefix, _, _ := strings.Cut(id, "-")

	f.mu.Lock()
	idx := f.pollCalls[id]
	f.pollCalls[id]++
	script := f.scripts[prefix]
	f.mu.Unlock()

	var state taskState
	if idx < len(script) {
		state = script[idx]
	} else {
		state = taskState{
			Status:   "SUCCEEDED",
			Progress: 100,
			ModelURLs: map[string]string{
				"glb": f.srv.URL + "/assets/" + id + ".glb",
			},
		}
	}

	resp := map[string]any{
		"id":       id,
		"status":   state.Status,
		"progress": state.Progress,
	}
	if state.ModelURLs != nil {
		resp["model_urls"] = state.ModelURLs
	}
	if state.TaskError != nil {
		resp["task_error"] = state.TaskError
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func (f *fakeAPI) polled() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.pollCalls {
		n += c
	}
	return n
}

func newTestGenerator(t *testing.T, baseURL string, mutate func(*Options)) (*Generator, *metadata.Store, string) {
	t.Helper()
	root := t.TempDir()
	modelsDir := filepath.Join(root, "models")
	store := metadata.NewStore(filepath.Join(root, "metadata"))

	opts := Options{
		ModelsDir:    modelsDir,
		Formats:      []string{"glb"},
		PollInterval: 5 * time.Millisecond,
	}
	if mutate != nil {
		mutate(&opts)
	}

	client := meshy.NewClient(meshy.Options{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Timeout: 2 * time.Second,
	})
	return New(client, store, opts), store, modelsDir
}

func TestGenerate_MockMode(t *testing.T) {
	// The unreachable base URL proves the mock path never touches the
	// network.
	gen, store, modelsDir := newTestGenerator(t, "http://127.0.0.1:1", func(o *Options) {
		o.Mock = true
	})

	var progress []int
	var statuses []string
	rec, err := gen.Generate(context.Background(), Request{
		Material:    design.MaterialSilver,
		JewelryType: design.TypeRing,
		Formats:     []string{"glb", "fbx"},
		OnProgress: func(p int, s string) {
			progress = append(progress, p)
			statuses = append(statuses, s)
		},
	})
	require.NoError(t, err)

	assert.Len(t, rec.ModelURLs, 2)
	assert.Contains(t, rec.ModelURLs, "glb")
	assert.Contains(t, rec.ModelURLs, "fbx")
	assert.NotEmpty(t, rec.ThumbnailURL)
	require.Len(t, rec.TextureURLs, 1)
	assert.Contains(t, rec.TextureURLs[0], "base_color")

	assert.Equal(t, []int{100}, progress)
	assert.Equal(t, []string{StatusMockCompleted}, statuses)

	// The design's asset directory and metadata file both exist.
	assert.DirExists(t, filepath.Join(modelsDir, rec.ID))
	doc, err := store.Load(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, design.MaterialSilver, doc.Material)
	assert.Equal(t, design.TypeRing, doc.JewelryType)
}

func TestGenerate_LiveLifecycle(t *testing.T) {
	api := newFakeAPI(t)
	api.scripts["preview"] = []taskState{
		{Status: "IN_PROGRESS", Progress: 40},
		{Status: "SUCCEEDED", Progress: 100},
	}
	api.scripts["refine"] = []taskState{
		{Status: "IN_PROGRESS", Progress: 60},
	}

	gen, store, modelsDir := newTestGenerator(t, api.srv.URL, func(o *Options) {
		o.EnablePBR = true
	})

	var progress []int
	rec, err := gen.Generate(context.Background(), Request{
		Wait: true,
		OnProgress: func(p int, s string) {
			progress = append(progress, p)
		},
	})
	require.NoError(t, err)

	// Preview progress maps onto 0-50, refine onto 50-100, with a final
	// 100/SUCCEEDED report after persistence.
	assert.Equal(t, []int{20, 50, 80, 100, 100}, progress)

	// Defaults: a gold cuban chain.
	assert.Equal(t, design.TypeChain, rec.JewelryType)
	assert.Equal(t, design.StyleCuban, rec.ChainStyle)
	assert.Contains(t, strings.ToLower(api.lastPrompt), "gold chain")
	assert.Contains(t, strings.ToLower(api.lastPrompt), "cuban")

	assert.Equal(t, "preview-1", api.lastRefineBody["preview_task_id"])
	assert.Equal(t, true, api.lastRefineBody["enable_pbr"])
	assert.Contains(t, api.lastRefineBody["texture_prompt"], "gold")

	assert.NotEmpty(t, rec.ModelURLs["glb"])
	data, err := os.ReadFile(filepath.Join(modelsDir, rec.ID, "model.glb"))
	require.NoError(t, err)
	assert.Equal(t, "binary-model-data", string(data))

	doc, err := store.Load(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "meshy-4", doc.ModelName)
	assert.NotEmpty(t, doc.ModelURLs["glb"])
}

func TestGenerate_NoWait(t *testing.T) {
	api := newFakeAPI(t)
	gen, store, _ := newTestGenerator(t, api.srv.URL, nil)

	rec, err := gen.Generate(context.Background(), Request{Wait: false})
	require.NoError(t, err)

	assert.Contains(t, rec.Description, "preview-1")
	assert.Empty(t, rec.ModelURLs)
	assert.Zero(t, api.polled())

	// The submitted-but-unretrieved design is still persisted.
	doc, err := store.Load(rec.ID)
	require.NoError(t, err)
	assert.Contains(t, doc.Description, "preview-1")
}

func TestGenerate_CreateFailure(t *testing.T) {
	api := newFakeAPI(t)
	api.failPreviewAt = 1
	gen, store, _ := newTestGenerator(t, api.srv.URL, nil)

	_, err := gen.Generate(context.Background(), Request{Wait: true})
	require.Error(t, err)

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, StageCreated, genErr.Stage)
	assert.NotEmpty(t, genErr.DesignID)

	var apiErr *meshy.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)

	// Nothing was persisted for the failed design.
	_, statErr := os.Stat(store.Path(genErr.DesignID))
	assert.True(t, os.IsNotExist(statErr))
}

func TestGenerate_RefineTaskFailed(t *testing.T) {
	api := newFakeAPI(t)
	api.scripts["refine"] = []taskState{
		{Status: "FAILED", Progress: 10, TaskError: map[string]string{"message": "texture bake exploded"}},
	}
	gen, _, _ := newTestGenerator(t, api.srv.URL, nil)

	_, err := gen.Generate(context.Background(), Request{Wait: true})
	require.Error(t, err)

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, StageRefinePending, genErr.Stage)
	assert.Contains(t, err.Error(), "FAILED")
	assert.Contains(t, err.Error(), "texture bake exploded")
}

func TestGenerate_CustomPromptOverride(t *testing.T) {
	api := newFakeAPI(t)
	gen, _, _ := newTestGenerator(t, api.srv.URL, nil)

	_, err := gen.Generate(context.Background(), Request{
		Wait:   true,
		Prompt: "a bespoke gold signet ring with engraved crest",
	})
	require.NoError(t, err)
	assert.Equal(t, "a bespoke gold signet ring with engraved crest", api.lastPrompt)
}

func TestGenerateBatch_PartialFailure(t *testing.T) {
	api := newFakeAPI(t)
	api.failPreviewAt = 3

	gen, _, _ := newTestGenerator(t, api.srv.URL, nil)

	var mu sync.Mutex
	seen := make(map[string][]string)
	completed, summary, err := gen.GenerateBatch(context.Background(), BatchRequest{
		Count:      5,
		MaxWorkers: 2,
		OnProgress: func(p int, status string, rec *design.Record) {
			mu.Lock()
			seen[rec.ID] = append(seen[rec.ID], status)
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	assert.Len(t, completed, 4)
	assert.Equal(t, 5, summary.Requested)
	assert.Equal(t, 4, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.FailedIDs, 1)

	// Progress callbacks covered all five designs, the failed one
	// included, and the failed one reported FAILED.
	assert.Len(t, seen, 5)
	assert.Contains(t, seen[summary.FailedIDs[0]], "FAILED")

	// All records share one batch id and got the configured defaults.
	for _, rec := range completed {
		assert.Equal(t, summary.BatchID, rec.BatchID)
		assert.Equal(t, design.MaterialGold, rec.Material)
		assert.Equal(t, design.TypeChain, rec.JewelryType)
		assert.Equal(t, design.StyleCuban, rec.ChainStyle)
	}
	assert.True(t, strings.HasPrefix(summary.BatchID, "batch_"))

	// The failed design id never made it into the returned records.
	for _, rec := range completed {
		assert.NotEqual(t, summary.FailedIDs[0], rec.ID)
	}
}

func TestGenerateBatch_InvalidCount(t *testing.T) {
	gen, _, _ := newTestGenerator(t, "http://127.0.0.1:1", nil)

	_, _, err := gen.GenerateBatch(context.Background(), BatchRequest{Count: 0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count must be positive")
}

func TestGenerateBatch_MockMode(t *testing.T) {
	gen, store, _ := newTestGenerator(t, "http://127.0.0.1:1", func(o *Options) {
		o.Mock = true
	})

	completed, summary, err := gen.GenerateBatch(context.Background(), BatchRequest{
		Count:      3,
		Material:   design.MaterialPlatinum,
		MaxWorkers: 2,
		BatchID:    "batch_test",
	})
	require.NoError(t, err)
	assert.Len(t, completed, 3)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, "batch_test", summary.BatchID)

	docs, err := store.List("*")
	require.NoError(t, err)
	assert.Len(t, docs, 3)
	for _, doc := range docs {
		assert.Equal(t, "batch_test", doc.BatchID)
		assert.Equal(t, design.MaterialPlatinum, doc.Material)
	}
}

func TestGenerate_ContextCanceled(t *testing.T) {
	api := newFakeAPI(t)
	// A preview that never finishes within the test window.
	for i := 0; i < 100; i++ {
		api.scripts["preview"] = append(api.scripts["preview"], taskState{Status: "IN_PROGRESS", Progress: 5})
	}
	gen, _, _ := newTestGenerator(t, api.srv.URL, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := gen.Generate(ctx, Request{Wait: true})
	require.Error(t, err)

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
