// Package meshy is a client for the Meshy.ai text-to-3D generation API.
//
// The client covers the three remote operations the pipeline needs (create
// preview task, create refine task, fetch task status) plus a polling
// helper and a bulk asset downloader. It performs no retries of its own;
// callers decide whether a failed operation is worth repeating.
package meshy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the production Meshy API endpoint.
const DefaultBaseURL = "https://api.meshy.ai"

const textTo3DPath = "/openapi/v2/text-to-3d"

// Status is the remote task lifecycle state. The task state machine is
// owned by the service; this client only observes it.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusSucceeded  Status = "SUCCEEDED"
	StatusFailed     Status = "FAILED"
	StatusCanceled   Status = "CANCELED"
)

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCanceled
}

// Task is a snapshot of a remote text-to-3D task.
type Task struct {
	ID           string              `json:"id"`
	Status       Status              `json:"status"`
	Progress     int                 `json:"progress"`
	ModelURLs    map[string]string   `json:"model_urls,omitempty"`
	ThumbnailURL string              `json:"thumbnail_url,omitempty"`
	TextureURLs  []map[string]string `json:"texture_urls,omitempty"`
	TaskError    *TaskError          `json:"task_error,omitempty"`
}

// TaskError is the error payload attached to failed tasks.
type TaskError struct {
	Message string `json:"message"`
}

// StyleOptions are the generation knobs for a preview task.
type StyleOptions struct {
	ArtStyle        string `json:"art_style"`
	ShouldRemesh    bool   `json:"should_remesh"`
	Topology        string `json:"topology"`
	TargetPolycount int    `json:"target_polycount"`
	SymmetryMode    string `json:"symmetry_mode"`
	AIModel         string `json:"ai_model"`

	// Seed pins the generation to a fixed random seed. Nil omits it.
	Seed *int `json:"seed,omitempty"`
}

// DefaultStyleOptions returns the service defaults used when no
// configuration overrides them.
func DefaultStyleOptions() StyleOptions {
	return StyleOptions{
		ArtStyle:        "realistic",
		ShouldRemesh:    true,
		Topology:        "quad",
		TargetPolycount: 100000,
		SymmetryMode:    "on",
		AIModel:         "meshy-4",
	}
}

// Options configures a Client.
type Options struct {
	// APIKey is the bearer credential. Required for live use.
	APIKey string

	// BaseURL overrides DefaultBaseURL (useful for tests and proxies).
	BaseURL string

	// HTTPClient overrides the default client. When nil, a client with
	// Timeout (default 60s) is used.
	HTTPClient *http.Client

	// Timeout applies to the default HTTP client only.
	Timeout time.Duration

	// RateLimit caps API requests per second. Zero means unlimited.
	// Asset downloads are not rate limited; they fetch from the CDN.
	RateLimit float64

	// Logger defaults to zap.NewNop().
	Logger *zap.Logger
}

// Client calls the Meshy API. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewClient creates a Client from Options.
func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    base,
		apiKey:     strings.TrimSpace(opts.APIKey),
		limiter:    limiter,
		logger:     logger,
	}
}

type previewRequest struct {
	Mode            string `json:"mode"`
	Prompt          string `json:"prompt"`
	ArtStyle        string `json:"art_style"`
	ShouldRemesh    bool   `json:"should_remesh"`
	Topology        string `json:"topology"`
	TargetPolycount int    `json:"target_polycount"`
	SymmetryMode    string `json:"symmetry_mode"`
	AIModel         string `json:"ai_model"`
	Seed            *int   `json:"seed,omitempty"`
}

type refineRequest struct {
	Mode          string `json:"mode"`
	PreviewTaskID string `json:"preview_task_id"`
	EnablePBR     bool   `json:"enable_pbr"`
	TexturePrompt string `json:"texture_prompt,omitempty"`
}

type createResponse struct {
	Result string `json:"result"`
}

// CreatePreviewTask submits a preview-phase generation task and returns
// its task id.
func (c *Client) CreatePreviewTask(ctx context.Context, prompt string, style StyleOptions) (string, error) {
	const op = "CreatePreviewTask"
	payload := previewRequest{
		Mode:            "preview",
		Prompt:          prompt,
		ArtStyle:        style.ArtStyle,
		ShouldRemesh:    style.ShouldRemesh,
		Topology:        style.Topology,
		TargetPolycount: style.TargetPolycount,
		SymmetryMode:    style.SymmetryMode,
		AIModel:         style.AIModel,
		Seed:            style.Seed,
	}
	return c.createTask(ctx, op, payload)
}

// CreateRefineTask submits a refine-phase task for a completed preview
// task and returns its task id.
func (c *Client) CreateRefineTask(ctx context.Context, previewTaskID string, enablePBR bool, texturePrompt string) (string, error) {
	const op = "CreateRefineTask"
	payload := refineRequest{
		Mode:          "refine",
		PreviewTaskID: previewTaskID,
		EnablePBR:     enablePBR,
		TexturePrompt: texturePrompt,
	}
	return c.createTask(ctx, op, payload)
}

func (c *Client) createTask(ctx context.Context, op string, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", &APIError{Op: op, Message: "encode request", Err: err}
	}

	var result createResponse
	if err := c.doJSON(ctx, op, http.MethodPost, c.baseURL+textTo3DPath, bytes.NewReader(body), &result); err != nil {
		return "", err
	}
	if result.Result == "" {
		return "", &APIError{Op: op, Message: "no task id in response"}
	}

	c.logger.Debug("task created", zap.String("op", op), zap.String("task_id", result.Result))
	return result.Result, nil
}

// GetTask fetches a single task snapshot.
func (c *Client) GetTask(ctx context.Context, taskID string) (*Task, error) {
	const op = "GetTask"
	if taskID == "" {
		return nil, &APIError{Op: op, Message: "task id is required"}
	}

	var task Task
	url := fmt.Sprintf("%s%s/%s", c.baseURL, textTo3DPath, taskID)
	if err := c.doJSON(ctx, op, http.MethodGet, url, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// doJSON performs one API request and decodes the JSON response into out.
// Non-2xx responses become an *APIError carrying the status and the parsed
// error body.
func (c *Client) doJSON(ctx context.Context, op, method, url string, body io.Reader, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &APIError{Op: op, Message: "rate limiter wait", Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return &APIError{Op: op, Message: "build request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Op: op, Message: "request failed", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return &APIError{
			Op:         op,
			Message:    "unexpected response",
			StatusCode: resp.StatusCode,
			Body:       normalizeErrorBody(raw),
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &APIError{Op: op, Message: "decode response", StatusCode: resp.StatusCode, Err: err}
		}
	}
	return nil
}

// normalizeErrorBody keeps JSON bodies as-is and wraps anything else so the
// caller always gets valid JSON in APIError.Body.
func normalizeErrorBody(raw []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	wrapped, err := json.Marshal(map[string]string{"raw": string(trimmed)})
	if err != nil {
		return nil
	}
	return json.RawMessage(wrapped)
}
