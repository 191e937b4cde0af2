// Package manifest provides loading and validation of jewelgen batch
// manifests.
//
// A batch manifest is a YAML or JSON file that configures one batch run:
// how many designs, the design parameters, generation options, and output.
//
// Example manifest (YAML):
//
//	version: "1.0"
//	batch:
//	  count: 5
//	  workers: 3
//	design:
//	  material: gold
//	  jewelry_type: chain
//	  chain_style: cuban
//	generation:
//	  formats: [glb, fbx]
//	  timeout: 30m
//	output:
//	  destination: results.jsonl
//	  progress: true
package manifest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/forgeleaf/jewelgen/pkg/design"
)

// Duration is a time.Duration that unmarshals from "30m"-style strings in
// both YAML and JSON, or from a plain number of seconds.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d *Duration) set(s string) error {
	if n, err := strconv.Atoi(s); err == nil {
		*d = Duration(time.Duration(n) * time.Second)
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.set(value.Value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		// Bare number: seconds.
		s = string(b)
	}
	return d.set(s)
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Version is the manifest schema version this build understands.
const Version = "1.0"

// Manifest represents a validated batch manifest.
//
// Required fields are Version and Batch.Count. Everything else is optional
// with defaults applied by ApplyDefaults.
type Manifest struct {
	// Version is the manifest schema version. Must be "1.0".
	Version string `json:"version" yaml:"version"`

	// Batch configures batch size and parallelism.
	Batch BatchConfig `json:"batch" yaml:"batch"`

	// Design configures the shared design parameters for every record
	// in the batch (optional; configuration defaults fill the gaps).
	Design DesignConfig `json:"design,omitempty" yaml:"design,omitempty"`

	// Generation configures formats and polling (optional).
	Generation GenerationConfig `json:"generation,omitempty" yaml:"generation,omitempty"`

	// Output configures output destination and progress records (optional).
	Output OutputConfig `json:"output,omitempty" yaml:"output,omitempty"`
}

// BatchConfig configures batch size and parallelism.
type BatchConfig struct {
	// Count is the number of designs to generate. Required.
	Count int `json:"count" yaml:"count"`

	// Workers is the maximum number of concurrent generations.
	// Default: 3.
	Workers int `json:"workers,omitempty" yaml:"workers,omitempty"`
}

// DesignConfig configures the design parameters shared by the batch.
type DesignConfig struct {
	// Material is one of the material enumeration values. Optional.
	Material string `json:"material,omitempty" yaml:"material,omitempty"`

	// JewelryType is one of the jewelry type enumeration values. Optional.
	JewelryType string `json:"jewelry_type,omitempty" yaml:"jewelry_type,omitempty"`

	// ChainStyle is one of the chain style enumeration values. Optional.
	ChainStyle string `json:"chain_style,omitempty" yaml:"chain_style,omitempty"`
}

// GenerationConfig configures output formats and polling behavior.
type GenerationConfig struct {
	// Formats lists the model formats to download.
	// Default: ["glb", "fbx"].
	Formats []string `json:"formats,omitempty" yaml:"formats,omitempty"`

	// Timeout bounds each polling wait (e.g. "30m"). Zero means none.
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// Mock skips all remote calls and synthesizes placeholder assets.
	Mock bool `json:"mock,omitempty" yaml:"mock,omitempty"`
}

// OutputConfig configures where results and progress go.
type OutputConfig struct {
	// ModelsDir overrides the configured models directory. Optional.
	ModelsDir string `json:"models_dir,omitempty" yaml:"models_dir,omitempty"`

	// Destination is where JSONL records are written: "stdout", "stderr",
	// or a file path. Default: "stdout".
	Destination string `json:"destination,omitempty" yaml:"destination,omitempty"`

	// Progress controls whether per-design progress records are emitted.
	// Default: true.
	Progress *bool `json:"progress,omitempty" yaml:"progress,omitempty"`
}

// ProgressEnabled reports whether progress records should be emitted.
func (o OutputConfig) ProgressEnabled() bool {
	return o.Progress == nil || *o.Progress
}

// validFormats are the model formats the remote service can produce.
var validFormats = map[string]bool{
	"glb":  true,
	"fbx":  true,
	"obj":  true,
	"usdz": true,
}

// ApplyDefaults fills optional fields with their defaults.
func (m *Manifest) ApplyDefaults() {
	if m.Batch.Workers == 0 {
		m.Batch.Workers = 3
	}
	if len(m.Generation.Formats) == 0 {
		m.Generation.Formats = []string{"glb", "fbx"}
	}
	if m.Output.Destination == "" {
		m.Output.Destination = "stdout"
	}
	if m.Output.Progress == nil {
		enabled := true
		m.Output.Progress = &enabled
	}
}

// Validate checks the manifest for structural errors. Call after
// ApplyDefaults.
func (m *Manifest) Validate() error {
	if m.Version != Version {
		return fmt.Errorf("unsupported manifest version: %q (want %q)", m.Version, Version)
	}
	if m.Batch.Count <= 0 {
		return fmt.Errorf("batch.count must be >= 1, got %d", m.Batch.Count)
	}
	if m.Batch.Workers <= 0 {
		return fmt.Errorf("batch.workers must be >= 1, got %d", m.Batch.Workers)
	}
	if m.Design.Material != "" {
		if _, err := design.ParseMaterial(m.Design.Material); err != nil {
			return fmt.Errorf("design.material: %w", err)
		}
	}
	if m.Design.JewelryType != "" {
		if _, err := design.ParseJewelryType(m.Design.JewelryType); err != nil {
			return fmt.Errorf("design.jewelry_type: %w", err)
		}
	}
	if m.Design.ChainStyle != "" {
		if _, err := design.ParseChainStyle(m.Design.ChainStyle); err != nil {
			return fmt.Errorf("design.chain_style: %w", err)
		}
	}
	for _, f := range m.Generation.Formats {
		if !validFormats[f] {
			return fmt.Errorf("generation.formats: unsupported format %q", f)
		}
	}
	if m.Generation.Timeout < 0 {
		return fmt.Errorf("generation.timeout must not be negative")
	}
	return nil
}
