package generator

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/forgeleaf/jewelgen/pkg/design"
)

// mockBaseURL is the placeholder host used for synthesized asset URLs.
const mockBaseURL = "https://mock.example.com"

// generateMock synthesizes deterministic placeholder assets for rec and
// persists its metadata. No network I/O happens on this path; the only
// side effects are the design's asset directory and the metadata file.
func (g *Generator) generateMock(rec *design.Record, formats []string) error {
	assetDir := filepath.Join(g.opts.ModelsDir, rec.ID)
	if err := os.MkdirAll(assetDir, 0755); err != nil {
		return fmt.Errorf("create mock asset dir: %w", err)
	}

	urls := make(map[string]string, len(formats))
	for _, format := range formats {
		urls[format] = fmt.Sprintf("%s/%s.%s", mockBaseURL, rec.ID, format)
	}
	rec.ModelURLs = urls
	rec.ThumbnailURL = fmt.Sprintf("%s/%s_thumbnail.png", mockBaseURL, rec.ID)
	rec.TextureURLs = []map[string]string{{
		"base_color": fmt.Sprintf("%s/%s_texture_0.png", mockBaseURL, rec.ID),
		"normal":     fmt.Sprintf("%s/%s_texture_0_normal.png", mockBaseURL, rec.ID),
	}}

	prov := g.provenance()
	if _, err := g.store.Save(rec, &prov); err != nil {
		return err
	}
	return nil
}
