package meshy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// texture slot holding the primary color map; it gets the short filename.
const baseColorSlot = "base_color"

// DownloadAssets fetches the generated files of a completed task into
// outputDir and returns a map from asset name to local path.
//
// For each requested format present in the task payload the model file is
// written as model.<format>; the obj format additionally pulls the
// companion model.mtl when the payload has one. A thumbnail, when exposed,
// is written as thumbnail.png. With downloadTextures, every slot of every
// texture set lands in a textures/ subdirectory: texture_<i>.png for the
// base color slot, texture_<i>_<slot>.png for the rest.
//
// outputDir (and textures/) are created as needed. Files already written
// before a failure are not rolled back.
func (c *Client) DownloadAssets(ctx context.Context, task *Task, outputDir string, formats []string, downloadTextures bool) (map[string]string, error) {
	const op = "DownloadAssets"

	if task == nil {
		return nil, &APIError{Op: op, Message: "task is nil"}
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, &APIError{Op: op, Message: "create output dir", Err: err}
	}

	downloaded := make(map[string]string)

	for _, format := range formats {
		url, ok := task.ModelURLs[format]
		if !ok {
			continue
		}

		if format == "obj" {
			if mtlURL, ok := task.ModelURLs["mtl"]; ok {
				mtlPath := filepath.Join(outputDir, "model.mtl")
				if err := c.downloadFile(ctx, mtlURL, mtlPath); err != nil {
					return downloaded, &APIError{Op: op, Message: "download mtl", Err: err}
				}
				downloaded["mtl"] = mtlPath
			}
		}

		path := filepath.Join(outputDir, "model."+format)
		if err := c.downloadFile(ctx, url, path); err != nil {
			return downloaded, &APIError{Op: op, Message: "download " + format, Err: err}
		}
		downloaded[format] = path
	}

	if task.ThumbnailURL != "" {
		path := filepath.Join(outputDir, "thumbnail.png")
		if err := c.downloadFile(ctx, task.ThumbnailURL, path); err != nil {
			return downloaded, &APIError{Op: op, Message: "download thumbnail", Err: err}
		}
		downloaded["thumbnail"] = path
	}

	if downloadTextures && len(task.TextureURLs) > 0 {
		texturesDir := filepath.Join(outputDir, "textures")
		if err := os.MkdirAll(texturesDir, 0755); err != nil {
			return downloaded, &APIError{Op: op, Message: "create textures dir", Err: err}
		}

		for i, textureSet := range task.TextureURLs {
			for slot, url := range textureSet {
				filename := fmt.Sprintf("texture_%d_%s.png", i, slot)
				if slot == baseColorSlot {
					filename = fmt.Sprintf("texture_%d.png", i)
				}
				path := filepath.Join(texturesDir, filename)
				if err := c.downloadFile(ctx, url, path); err != nil {
					return downloaded, &APIError{Op: op, Message: "download texture " + slot, Err: err}
				}
				downloaded[fmt.Sprintf("texture_%d_%s", i, slot)] = path
			}
		}
	}

	c.logger.Debug("assets downloaded",
		zap.String("task_id", task.ID),
		zap.Int("files", len(downloaded)),
		zap.String("dir", outputDir))

	return downloaded, nil
}

// downloadFile streams one URL to a local path. Asset URLs are presigned,
// so no auth header is attached.
func (c *Client) downloadFile(ctx context.Context, url, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return out.Close()
}
