package generator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/forgeleaf/jewelgen/pkg/design"
)

// BatchProgressFunc receives overall progress for one design within a
// batch. It may be called concurrently from multiple workers; aggregation
// state behind it must be synchronized (see ProgressTracker).
type BatchProgressFunc func(progress int, status string, rec *design.Record)

// BatchRequest describes a batch of identically parameterized designs.
type BatchRequest struct {
	// Count is the number of designs to generate. Required.
	Count int

	Material    design.Material
	JewelryType design.JewelryType
	ChainStyle  design.ChainStyle

	// Formats overrides the configured download formats.
	Formats []string

	// MaxWorkers bounds concurrent in-flight generations. Zero or
	// negative uses 3. Excess designs queue.
	MaxWorkers int

	// Timeout bounds each polling phase of each design.
	Timeout time.Duration

	// BatchID overrides the generated batch correlation id.
	BatchID string

	OnProgress BatchProgressFunc
}

// BatchSummary reports the outcome of a batch.
type BatchSummary struct {
	BatchID   string   `json:"batch_id"`
	Requested int      `json:"requested"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	FailedIDs []string `json:"failed_ids,omitempty"`
}

// NewBatchID returns a timestamp-based batch correlation id.
func NewBatchID() string {
	return "batch_" + time.Now().Format("20060102_150405")
}

// GenerateBatch fans req.Count generations out over a fixed-size worker
// pool and collects results as they complete.
//
// All records share one batch id and are built eagerly before any work is
// dispatched. A failing design is logged and counted in the summary; it
// never aborts its siblings, and no per-design error escapes this method.
// The returned records are the successfully completed designs in
// completion order; the summary is the structured partial-failure signal.
func (g *Generator) GenerateBatch(ctx context.Context, req BatchRequest) ([]*design.Record, *BatchSummary, error) {
	if req.Count <= 0 {
		return nil, nil, fmt.Errorf("batch count must be positive, got %d", req.Count)
	}

	workers := req.MaxWorkers
	if workers <= 0 {
		workers = 3
	}
	if workers > req.Count {
		workers = req.Count
	}

	batchID := req.BatchID
	if batchID == "" {
		batchID = NewBatchID()
	}

	records := make([]*design.Record, req.Count)
	for i := range records {
		records[i] = g.resolveRecord(Request{
			Material:    req.Material,
			JewelryType: req.JewelryType,
			ChainStyle:  req.ChainStyle,
			BatchID:     batchID,
		})
	}

	g.logger.Info("batch started",
		zap.String("batch_id", batchID),
		zap.Int("count", req.Count),
		zap.Int("workers", workers))

	type unitResult struct {
		rec *design.Record
		err error
	}

	jobs := make(chan *design.Record)
	results := make(chan unitResult, req.Count)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				results <- unitResult{rec: rec, err: g.generateUnit(ctx, req, rec)}
			}
		}()
	}

	go func() {
		for _, rec := range records {
			jobs <- rec
		}
		close(jobs)
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	summary := &BatchSummary{BatchID: batchID, Requested: req.Count}
	var completed []*design.Record
	for res := range results {
		if res.err != nil {
			summary.Failed++
			summary.FailedIDs = append(summary.FailedIDs, res.rec.ID)
			continue
		}
		summary.Succeeded++
		completed = append(completed, res.rec)
	}

	g.logger.Info("batch finished",
		zap.String("batch_id", batchID),
		zap.Int("requested", summary.Requested),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed))
	return completed, summary, nil
}

// generateUnit runs one design of a batch, tagging progress callbacks with
// the design's record. Every design reports at least once (0, PENDING), so
// aggregators see the full batch even when a unit fails immediately.
func (g *Generator) generateUnit(ctx context.Context, req BatchRequest, rec *design.Record) error {
	report := func(progress int, status string) {
		if req.OnProgress != nil {
			req.OnProgress(progress, status, rec)
		}
	}
	report(0, "PENDING")

	lastProgress := 0
	_, err := g.Generate(ctx, Request{
		Design:  rec,
		Formats: req.Formats,
		Wait:    true,
		Timeout: req.Timeout,
		OnProgress: func(progress int, status string) {
			lastProgress = progress
			report(progress, status)
		},
	})
	if err != nil {
		report(lastProgress, "FAILED")
		g.logger.Warn("batch unit failed",
			zap.String("batch_id", rec.BatchID),
			zap.String("design_id", rec.ID),
			zap.Error(err))
		return err
	}
	return nil
}
