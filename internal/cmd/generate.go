package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/forgeleaf/jewelgen/internal/observability"
	"github.com/forgeleaf/jewelgen/pkg/browser"
	"github.com/forgeleaf/jewelgen/pkg/generator"
	"github.com/forgeleaf/jewelgen/pkg/output"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one jewelry design",
	Long: `Generate a single jewelry design as a 3D model.

The design is described by material, jewelry type, and (for chains) a
chain style; omitted parameters fall back to the configured defaults. The
command emits JSONL records on stdout: progress updates while the remote
tasks run, then the completed design.

Example:
  jewelgen generate --material gold --type chain --chain-style cuban
  jewelgen generate --material silver --type ring --formats glb,obj
  jewelgen generate --prompt "an art deco emerald ring" --output result.jsonl
  jewelgen generate --mock --type pendant`,
	RunE: runGenerate,
}

var (
	generateMaterial      string
	generateType          string
	generateChainStyle    string
	generateName          string
	generatePrompt        string
	generateTexturePrompt string
	generateFormats       []string
	generateOutput        string
	generateNoWait        bool
	generateTimeout       time.Duration
	generateQuiet         bool
	generateOpen          bool
)

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&generateMaterial, "material", "m", "", "Material (e.g. gold, silver, platinum)")
	generateCmd.Flags().StringVarP(&generateType, "type", "t", "", "Jewelry type (chain, ring, bracelet, necklace, earring, pendant)")
	generateCmd.Flags().StringVarP(&generateChainStyle, "chain-style", "s", "", "Chain style for chain designs (cuban, figaro, rope, ...)")
	generateCmd.Flags().StringVar(&generateName, "name", "", "Display name for the design")
	generateCmd.Flags().StringVar(&generatePrompt, "prompt", "", "Override the computed generation prompt")
	generateCmd.Flags().StringVar(&generateTexturePrompt, "texture-prompt", "", "Override the computed texture prompt")
	generateCmd.Flags().StringSliceVarP(&generateFormats, "formats", "f", nil, "Model formats to download (glb, fbx, obj, usdz)")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "Output destination (stdout or file path)")
	generateCmd.Flags().BoolVar(&generateNoWait, "no-wait", false, "Submit the preview task and return without polling")
	generateCmd.Flags().DurationVar(&generateTimeout, "timeout", 0, "Timeout per polling phase (e.g. 30m)")
	generateCmd.Flags().BoolVarP(&generateQuiet, "quiet", "q", false, "Suppress progress records")
	generateCmd.Flags().BoolVar(&generateOpen, "open", false, "Open the generated thumbnail when done")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	material, jewelryType, chainStyle, err := parseDesignFlags(generateMaterial, generateType, generateChainStyle)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid design parameters", err)
	}

	gen, store, err := buildGenerator(mockFlag)
	if err != nil {
		return err
	}

	writer, cleanup, err := createWriter(generateOutput, "")
	if err != nil {
		return exitError(foundry.ExitFileWriteError, "Failed to create output", err)
	}
	defer cleanup()

	req := generator.Request{
		Material:      material,
		JewelryType:   jewelryType,
		ChainStyle:    chainStyle,
		Name:          generateName,
		Prompt:        generatePrompt,
		TexturePrompt: generateTexturePrompt,
		Formats:       generateFormats,
		Wait:          !generateNoWait,
		Timeout:       generateTimeout,
	}
	if !generateQuiet {
		req.OnProgress = func(progress int, status string) {
			if err := writer.WriteProgress(ctx, &output.ProgressRecord{
				Percent: progress,
				Status:  status,
			}); err != nil {
				observability.CLILogger.Warn("Failed to write progress record", zap.Error(err))
			}
		}
	}

	rec, err := gen.Generate(ctx, req)
	if err != nil {
		var genErr *generator.GenerationError
		if errors.As(err, &genErr) {
			if werr := writer.WriteError(ctx, &output.ErrorRecord{
				DesignID: genErr.DesignID,
				Message:  genErr.Error(),
			}); werr != nil {
				observability.CLILogger.Warn("Failed to write error record", zap.Error(werr))
			}
		}
		if ctx.Err() != nil {
			return exitError(foundry.ExitSignalInt, "Generation cancelled", err)
		}
		return exitError(foundry.ExitExternalServiceUnavailable, "Generation failed", err)
	}

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

	if generateOpen {
		if err := openDesignThumbnail(rec.ID, rec.ThumbnailURL); err != nil {
			observability.CLILogger.Warn("Failed to open thumbnail", zap.Error(err))
		}
	}
	return nil
}

// openDesignThumbnail opens the downloaded thumbnail when present, falling
// back to the remote URL.
func openDesignThumbnail(designID, thumbnailURL string) error {
	local := filepath.Join(cfg.Paths.ModelsDir, designID, "thumbnail.png")
	if _, err := os.Stat(local); err == nil {
		return browser.OpenFile(local)
	}
	if thumbnailURL != "" {
		return browser.Open(thumbnailURL)
	}
	return errors.New("design has no thumbnail")
}
