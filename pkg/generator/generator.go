// Package generator drives jewelry designs through the two-phase
// (preview then refine) remote generation lifecycle.
//
// A Generator owns the policy around the raw API client: parameter
// defaulting, prompt construction, progress remapping onto a single 0-100
// scale, asset download layout, and metadata persistence. GenerateBatch
// adds bounded-parallelism fan-out on top of Generate.
package generator

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/forgeleaf/jewelgen/pkg/design"
	"github.com/forgeleaf/jewelgen/pkg/meshy"
	"github.com/forgeleaf/jewelgen/pkg/metadata"
)

// StatusMockCompleted is the status string reported by mock-mode progress
// callbacks in place of a real terminal task status.
const StatusMockCompleted = "MOCK_COMPLETED"

// ProgressFunc receives overall progress for one design on a unified 0-100
// scale. The preview phase maps onto 0-50, the refine phase onto 50-100.
type ProgressFunc func(progress int, status string)

// Options configures a Generator. Zero fields get working defaults.
type Options struct {
	// ModelsDir is the root under which each design gets its own
	// <design-id>/ asset directory.
	ModelsDir string

	// Material, JewelryType and ChainStyle fill request fields left
	// empty. ChainStyle applies only to chain designs.
	Material    design.Material
	JewelryType design.JewelryType
	ChainStyle  design.ChainStyle

	// Formats are the model formats downloaded when a request names none.
	Formats []string

	// Style holds the preview-phase generation knobs.
	Style meshy.StyleOptions

	// EnablePBR requests physically-based-rendering textures in the
	// refine phase.
	EnablePBR bool

	// PollInterval is the delay between task status checks.
	PollInterval time.Duration

	// Mock short-circuits all network calls and synthesizes deterministic
	// placeholder assets instead.
	Mock bool

	// Logger defaults to zap.NewNop().
	Logger *zap.Logger
}

// Generator runs design generations. It is safe for concurrent use; each
// design is driven by exactly one goroutine.
type Generator struct {
	client *meshy.Client
	store  *metadata.Store
	opts   Options
	logger *zap.Logger
}

// New creates a Generator backed by the given API client and metadata
// store.
func New(client *meshy.Client, store *metadata.Store, opts Options) *Generator {
	if opts.Material == "" {
		opts.Material = design.MaterialGold
	}
	if opts.JewelryType == "" {
		opts.JewelryType = design.TypeChain
	}
	if opts.ChainStyle == "" {
		opts.ChainStyle = design.StyleCuban
	}
	if len(opts.Formats) == 0 {
		opts.Formats = []string{"glb", "fbx"}
	}
	if opts.Style == (meshy.StyleOptions{}) {
		opts.Style = meshy.DefaultStyleOptions()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = meshy.DefaultPollInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{client: client, store: store, opts: opts, logger: logger}
}

// Request describes one generation.
type Request struct {
	// Design, when non-nil, is the record to generate for. Otherwise a
	// fresh record is built from the parameter fields below.
	Design *design.Record

	Material    design.Material
	JewelryType design.JewelryType
	ChainStyle  design.ChainStyle
	Name        string
	BatchID     string

	// Prompt overrides the computed generation prompt.
	Prompt string

	// TexturePrompt overrides the computed refine-phase texture prompt.
	TexturePrompt string

	// Formats overrides the configured download formats.
	Formats []string

	// Wait, when false, stops after submitting the preview task: the
	// task id is recorded on the design for later inspection and no
	// polling or download happens.
	Wait bool

	// Timeout bounds each polling phase. Zero means no timeout.
	Timeout time.Duration

	OnProgress ProgressFunc
}

// Generate drives one design to completion and returns its record.
//
// Any failure, remote or local, comes back as a *GenerationError chaining
// the cause. Nothing is retried; files and metadata written before the
// failure are left in place.
func (g *Generator) Generate(ctx context.Context, req Request) (*design.Record, error) {
	rec := g.resolveRecord(req)
	lc := newLifecycle(rec.ID)

	formats := req.Formats
	if len(formats) == 0 {
		formats = g.opts.Formats
	}
	report := func(progress int, status string) {
		if req.OnProgress != nil {
			req.OnProgress(progress, status)
		}
	}

	if g.opts.Mock {
		if err := g.generateMock(rec, formats); err != nil {
			return nil, g.fail(lc, rec, err)
		}
		report(100, StatusMockCompleted)
		g.logger.Info("mock design generated", zap.String("design_id", rec.ID))
		return rec, nil
	}

	prompt := req.Prompt
	if prompt == "" {
		prompt = rec.Prompt()
	}

	previewID, err := g.client.CreatePreviewTask(ctx, prompt, g.opts.Style)
	if err != nil {
		return nil, g.fail(lc, rec, err)
	}
	lc.advance(StagePreviewPending)
	g.logger.Debug("preview task created",
		zap.String("design_id", rec.ID), zap.String("task_id", previewID))

	if !req.Wait {
		rec.Description = fmt.Sprintf("preview task %s submitted, awaiting retrieval", previewID)
		if _, err := g.store.Save(rec, nil); err != nil {
			return nil, g.fail(lc, rec, err)
		}
		return rec, nil
	}

	_, err = g.client.AwaitCompletion(ctx, previewID, meshy.PollOptions{
		Interval: g.opts.PollInterval,
		Timeout:  req.Timeout,
		OnProgress: func(progress int, status meshy.Status) {
			report(progress/2, string(status))
		},
	})
	if err != nil {
		return nil, g.fail(lc, rec, err)
	}
	lc.advance(StagePreviewDone)

	texturePrompt := req.TexturePrompt
	if texturePrompt == "" {
		texturePrompt = rec.TexturePrompt()
	}
	refineID, err := g.client.CreateRefineTask(ctx, previewID, g.opts.EnablePBR, texturePrompt)
	if err != nil {
		return nil, g.fail(lc, rec, err)
	}
	lc.advance(StageRefinePending)
	g.logger.Debug("refine task created",
		zap.String("design_id", rec.ID), zap.String("task_id", refineID))

	task, err := g.client.AwaitCompletion(ctx, refineID, meshy.PollOptions{
		Interval: g.opts.PollInterval,
		Timeout:  req.Timeout,
		OnProgress: func(progress int, status meshy.Status) {
			report(50+progress/2, string(status))
		},
	})
	if err != nil {
		return nil, g.fail(lc, rec, err)
	}
	lc.advance(StageRefineDone)

	assetDir := filepath.Join(g.opts.ModelsDir, rec.ID)
	if _, err := g.client.DownloadAssets(ctx, task, assetDir, formats, true); err != nil {
		return nil, g.fail(lc, rec, err)
	}
	lc.advance(StageDownloaded)

	rec.ModelURLs = task.ModelURLs
	rec.ThumbnailURL = task.ThumbnailURL
	rec.TextureURLs = task.TextureURLs

	prov := g.provenance()
	if _, err := g.store.Save(rec, &prov); err != nil {
		return nil, g.fail(lc, rec, err)
	}
	lc.advance(StagePersisted)

	report(100, string(meshy.StatusSucceeded))
	g.logger.Info("design generated",
		zap.String("design_id", rec.ID),
		zap.String("name", rec.DisplayName()),
		zap.String("assets_dir", assetDir))
	return rec, nil
}

// resolveRecord returns the request's record, or builds one with
// configured defaults filled in for omitted parameters.
func (g *Generator) resolveRecord(req Request) *design.Record {
	if req.Design != nil {
		return req.Design
	}

	material := req.Material
	if material == "" {
		material = g.opts.Material
	}
	jewelryType := req.JewelryType
	if jewelryType == "" {
		jewelryType = g.opts.JewelryType
	}
	chainStyle := req.ChainStyle
	if chainStyle == "" && jewelryType == design.TypeChain {
		chainStyle = g.opts.ChainStyle
	}

	return design.New(design.Params{
		Material:    material,
		JewelryType: jewelryType,
		ChainStyle:  chainStyle,
		BatchID:     req.BatchID,
		Name:        req.Name,
	})
}

// provenance builds the persisted generation bookkeeping from the
// configured style knobs.
func (g *Generator) provenance() metadata.Provenance {
	p := metadata.DefaultProvenance()
	if g.opts.Style.AIModel != "" {
		p.ModelName = g.opts.Style.AIModel
	}
	p.Seed = g.opts.Style.Seed
	return p
}

// fail marks the lifecycle failed and wraps err with the stage the design
// had reached.
func (g *Generator) fail(lc *lifecycle, rec *design.Record, err error) error {
	at := lc.current
	lc.advance(StageFailed)
	g.logger.Warn("design generation failed",
		zap.String("design_id", rec.ID),
		zap.String("stage", at.String()),
		zap.Error(err))
	return &GenerationError{DesignID: rec.ID, Stage: at, Err: err}
}
