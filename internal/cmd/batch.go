package cmd

import (
	"fmt"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/forgeleaf/jewelgen/internal/observability"
	"github.com/forgeleaf/jewelgen/pkg/design"
	"github.com/forgeleaf/jewelgen/pkg/generator"
	"github.com/forgeleaf/jewelgen/pkg/manifest"
	"github.com/forgeleaf/jewelgen/pkg/output"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Generate a batch of jewelry designs",
	Long: `Generate multiple jewelry designs concurrently over a bounded worker
pool. All designs in a batch share one batch id and identical parameters.

A batch can be described by flags or by a YAML/JSON job manifest; flags
override the manifest where both are given. Failed designs are reported in
the summary record and never abort their siblings.

Example:
  jewelgen batch --count 5 --material gold --type chain
  jewelgen batch --job batch.yaml
  jewelgen batch --job batch.yaml --output results.jsonl --quiet
  jewelgen batch --count 3 --mock`,
	RunE: runBatch,
}

var (
	batchJobPath    string
	batchCount      int
	batchWorkers    int
	batchMaterial   string
	batchType       string
	batchChainStyle string
	batchFormats    []string
	batchTimeout    time.Duration
	batchOutput     string
	batchQuiet      bool
)

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVarP(&batchJobPath, "job", "j", "", "Path to batch job manifest")
	batchCmd.Flags().IntVarP(&batchCount, "count", "n", 0, "Number of designs to generate")
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 0, "Max concurrent generations")
	batchCmd.Flags().StringVarP(&batchMaterial, "material", "m", "", "Material for all designs")
	batchCmd.Flags().StringVarP(&batchType, "type", "t", "", "Jewelry type for all designs")
	batchCmd.Flags().StringVarP(&batchChainStyle, "chain-style", "s", "", "Chain style for chain designs")
	batchCmd.Flags().StringSliceVarP(&batchFormats, "formats", "f", nil, "Model formats to download")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 0, "Timeout per polling phase of each design")
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "Override output destination")
	batchCmd.Flags().BoolVarP(&batchQuiet, "quiet", "q", false, "Suppress progress records")
}

// batchPlan is the merged manifest+flags description of one batch run.
type batchPlan struct {
	req         generator.BatchRequest
	destination string
	modelsDir   string
	progress    bool
	mock        bool
}

func runBatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	plan, err := resolveBatchPlan()
	if err != nil {
		return err
	}
	if plan.modelsDir != "" {
		cfg.Paths.ModelsDir = plan.modelsDir
	}

	gen, store, err := buildGenerator(plan.mock)
	if err != nil {
		return err
	}

	batchID := generator.NewBatchID()
	plan.req.BatchID = batchID

	writer, cleanup, err := createWriter(plan.destination, batchID)
	if err != nil {
		return exitError(foundry.ExitFileWriteError, "Failed to create output", err)
	}
	defer cleanup()

	tracker := generator.NewProgressTracker(plan.req.Count)
	plan.req.OnProgress = func(progress int, status string, rec *design.Record) {
		tracker.Update(rec.ID, progress)
		if !plan.progress {
			return
		}
		if err := writer.WriteProgress(ctx, &output.ProgressRecord{
			DesignID: rec.ID,
			Percent:  progress,
			Status:   status,
		}); err != nil {
			observability.CLILogger.Warn("Failed to write progress record", zap.Error(err))
		}
	}

	observability.CLILogger.Info("Starting batch",
		zap.String("batch_id", batchID),
		zap.Int("count", plan.req.Count),
		zap.Int("workers", plan.req.MaxWorkers),
		zap.Bool("mock", plan.mock))

	start := time.Now()
	completed, summary, err := gen.GenerateBatch(ctx, plan.req)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid batch request", err)
	}

	for _, rec := range completed {
		if err := writer.WriteDesign(ctx, &output.DesignRecord{
			DesignID:     rec.ID,
			Name:         rec.DisplayName(),
			Material:     string(rec.Material),
			JewelryType:  string(rec.JewelryType),
			ChainStyle:   string(rec.ChainStyle),
			ModelURLs:    rec.ModelURLs,
			MetadataPath: store.Path(rec.ID),
		}); err != nil {
			observability.CLILogger.Warn("Failed to write design record", zap.Error(err))
		}
	}
	if err := writer.WriteSummary(ctx, &output.SummaryRecord{
		Requested:  summary.Requested,
		Succeeded:  summary.Succeeded,
		Failed:     summary.Failed,
		DurationMS: time.Since(start).Milliseconds(),
	}); err != nil {
		observability.CLILogger.Warn("Failed to write summary record", zap.Error(err))
	}

	observability.CLILogger.Info("Batch completed",
		zap.String("batch_id", batchID),
		zap.Int("requested", summary.Requested),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("overall_progress", tracker.Overall()))

	if ctx.Err() != nil {
		return exitError(foundry.ExitSignalInt, "Batch cancelled", ctx.Err())
	}
	if summary.Failed > 0 {
		return exitError(foundry.ExitExternalServiceUnavailable, "Batch completed with failures",
			fmt.Errorf("succeeded=%d failed=%d of %d requested", summary.Succeeded, summary.Failed, summary.Requested))
	}
	return nil
}

// resolveBatchPlan merges the optional job manifest with command flags;
// flags win, and configured defaults fill whatever remains.
func resolveBatchPlan() (*batchPlan, error) {
	plan := &batchPlan{
		destination: "stdout",
		progress:    true,
		mock:        mockFlag,
	}

	if batchJobPath != "" {
		m, err := manifest.Load(batchJobPath)
		if err != nil {
			observability.CLILogger.Error("Failed to load manifest",
				zap.String("path", batchJobPath), zap.Error(err))
			return nil, exitError(foundry.ExitInvalidArgument, "Invalid manifest", err)
		}
		plan.req.Count = m.Batch.Count
		plan.req.MaxWorkers = m.Batch.Workers
		material, jewelryType, chainStyle, err := parseDesignFlags(m.Design.Material, m.Design.JewelryType, m.Design.ChainStyle)
		if err != nil {
			return nil, exitError(foundry.ExitInvalidArgument, "Invalid design parameters in manifest", err)
		}
		plan.req.Material = material
		plan.req.JewelryType = jewelryType
		plan.req.ChainStyle = chainStyle
		plan.req.Formats = m.Generation.Formats
		plan.req.Timeout = m.Generation.Timeout.Std()
		plan.destination = m.Output.Destination
		plan.modelsDir = m.Output.ModelsDir
		plan.progress = m.Output.ProgressEnabled()
		plan.mock = plan.mock || m.Generation.Mock
	}

	material, jewelryType, chainStyle, err := parseDesignFlags(batchMaterial, batchType, batchChainStyle)
	if err != nil {
		return nil, exitError(foundry.ExitInvalidArgument, "Invalid design parameters", err)
	}
	if material != "" {
		plan.req.Material = material
	}
	if jewelryType != "" {
		plan.req.JewelryType = jewelryType
	}
	if chainStyle != "" {
		plan.req.ChainStyle = chainStyle
	}
	if batchCount > 0 {
		plan.req.Count = batchCount
	}
	if batchWorkers > 0 {
		plan.req.MaxWorkers = batchWorkers
	}
	if len(batchFormats) > 0 {
		plan.req.Formats = batchFormats
	}
	if batchTimeout > 0 {
		plan.req.Timeout = batchTimeout
	}
	if batchOutput != "" {
		plan.destination = batchOutput
	}
	if batchQuiet {
		plan.progress = false
	}

	if plan.req.Count <= 0 {
		plan.req.Count = cfg.Defaults.BatchSize
	}
	if plan.req.MaxWorkers <= 0 {
		plan.req.MaxWorkers = cfg.Defaults.MaxWorkers
	}
	return plan, nil
}
