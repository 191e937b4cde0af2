// Package cmd implements the jewelgen command line interface.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/forgeleaf/jewelgen/internal/config"
	"github.com/forgeleaf/jewelgen/internal/observability"
	"github.com/forgeleaf/jewelgen/pkg/design"
	"github.com/forgeleaf/jewelgen/pkg/generator"
	"github.com/forgeleaf/jewelgen/pkg/meshy"
	"github.com/forgeleaf/jewelgen/pkg/metadata"
	"github.com/forgeleaf/jewelgen/pkg/output"
)

var (
	cfgFile  string
	logLevel string
	logJSON  bool
	mockFlag bool
)

// cfg is the resolved configuration, loaded by the persistent pre-run.
var cfg *config.Config

var versionInfo = struct {
	Version   string
	Commit    string
	BuildDate string
}{
	Version:   "dev",
	Commit:    "HEAD",
	BuildDate: "unknown",
}

// SetVersionInfo records build-time version metadata.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
	rootCmd.Version = version
}

var rootCmd = &cobra.Command{
	Use:   "jewelgen",
	Short: "Generate jewelry designs as 3D models",
	Long: `jewelgen turns jewelry design parameters (material, type, chain style)
into text prompts, drives them through a two-phase text-to-3D generation
service, downloads the resulting assets, and persists JSON metadata per
design.

Configuration is layered: flags, then JEWELGEN_* environment variables
(with .env.local/.env support), then config.yaml, then defaults. The API
key comes from JEWELGEN_API_KEY (or the legacy MESHY_API_KEY).`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initRuntime,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file (default: ./config.{yaml,json})")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Emit structured JSON logs")
	rootCmd.PersistentFlags().BoolVar(&mockFlag, "mock", false, "Mock mode: no network calls, deterministic placeholder assets")
}

// initRuntime loads configuration and wires the CLI logger before any
// command runs.
func initRuntime(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(cfgFile)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid configuration", err)
	}
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if cmd.Flags().Changed("log-json") {
		c.Logging.Structured = logJSON
	}
	cfg = c
	observability.InitCLILogger(c.Logging.Level, c.Logging.Structured)
	return nil
}

// Execute runs the CLI and exits the process with the command's code.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	observability.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}

// cliExitError carries a process exit code alongside the message.
type cliExitError struct {
	code    int
	message string
	err     error
}

func (e *cliExitError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}
	return e.message
}

func (e *cliExitError) Unwrap() error { return e.err }

// exitError creates an error that will cause the CLI to exit with the given code.
func exitError(code int, message string, err error) error {
	return &cliExitError{code: code, message: message, err: err}
}

func exitCodeFor(err error) int {
	var ee *cliExitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}

// buildGenerator assembles the generator stack from the loaded config.
// mock bypasses the API-key requirement since no network calls happen.
func buildGenerator(mock bool) (*generator.Generator, *metadata.Store, error) {
	if !mock && cfg.API.Key == "" {
		return nil, nil, exitError(foundry.ExitInvalidArgument, "Missing API key",
			errors.New("set JEWELGEN_API_KEY (or api.key in config), or use --mock"))
	}

	material, err := design.ParseMaterial(cfg.Defaults.Material)
	if err != nil {
		return nil, nil, exitError(foundry.ExitInvalidArgument, "Invalid defaults.material in config", err)
	}
	jewelryType, err := design.ParseJewelryType(cfg.Defaults.JewelryType)
	if err != nil {
		return nil, nil, exitError(foundry.ExitInvalidArgument, "Invalid defaults.jewelry_type in config", err)
	}
	chainStyle, err := design.ParseChainStyle(cfg.Defaults.ChainStyle)
	if err != nil {
		return nil, nil, exitError(foundry.ExitInvalidArgument, "Invalid defaults.chain_style in config", err)
	}

	client := meshy.NewClient(meshy.Options{
		APIKey:    cfg.API.Key,
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		RateLimit: cfg.API.RateLimit,
		Logger:    observability.CLILogger,
	})
	store := metadata.NewStore(cfg.Paths.MetadataDir)

	gen := generator.New(client, store, generator.Options{
		ModelsDir:   cfg.Paths.ModelsDir,
		Material:    material,
		JewelryType: jewelryType,
		ChainStyle:  chainStyle,
		Formats:     cfg.Generation.Formats,
		Style: meshy.StyleOptions{
			ArtStyle:        cfg.Generation.ArtStyle,
			ShouldRemesh:    cfg.Generation.ShouldRemesh,
			Topology:        cfg.Generation.Topology,
			TargetPolycount: cfg.Generation.TargetPolycount,
			SymmetryMode:    cfg.Generation.SymmetryMode,
			AIModel:         cfg.Generation.AIModel,
		},
		EnablePBR:    cfg.Generation.EnablePBR,
		PollInterval: cfg.API.PollInterval,
		Mock:         mock,
		Logger:       observability.CLILogger,
	})
	return gen, store, nil
}

// createWriter creates a JSONL output writer for a destination: "stdout"
// (or empty) for standard output, otherwise a file path, with an optional
// "file:" prefix. Returns the writer and a cleanup function.
func createWriter(dest, batchID string) (output.Writer, func(), error) {
	if dest == "" || dest == "stdout" {
		w := output.NewJSONLWriter(os.Stdout, batchID)
		return w, func() { _ = w.Close() }, nil
	}

	path := strings.TrimPrefix(dest, "file:")
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file %s: %w", path, err)
	}

	w := output.NewJSONLWriter(f, batchID)
	cleanup := func() {
		_ = w.Close()
		_ = f.Close()
	}
	return w, cleanup, nil
}

// parseDesignFlags converts optional flag strings into design enums.
// Empty strings stay empty; the generator applies configured defaults.
func parseDesignFlags(materialFlag, typeFlag, styleFlag string) (design.Material, design.JewelryType, design.ChainStyle, error) {
	var (
		material    design.Material
		jewelryType design.JewelryType
		chainStyle  design.ChainStyle
		err         error
	)
	if materialFlag != "" {
		if material, err = design.ParseMaterial(materialFlag); err != nil {
			return "", "", "", fmt.Errorf("%w (valid: %s)", err, joinMaterials())
		}
	}
	if typeFlag != "" {
		if jewelryType, err = design.ParseJewelryType(typeFlag); err != nil {
			return "", "", "", fmt.Errorf("%w (valid: %s)", err, joinJewelryTypes())
		}
	}
	if styleFlag != "" {
		if chainStyle, err = design.ParseChainStyle(styleFlag); err != nil {
			return "", "", "", fmt.Errorf("%w (valid: %s)", err, joinChainStyles())
		}
	}
	return material, jewelryType, chainStyle, nil
}

func joinMaterials() string {
	vals := design.Materials()
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

func joinJewelryTypes() string {
	vals := design.JewelryTypes()
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

func joinChainStyles() string {
	vals := design.ChainStyles()
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
