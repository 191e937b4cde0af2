// Package output provides JSONL output for generation runs.
//
// Output is structured as typed record envelopes containing per-design
// results, progress updates, errors, and a final summary. Each line is a
// self-contained JSON object that can be parsed independently, which keeps
// batch runs scriptable.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Record type constants define the envelope types for JSONL output.
// These follow the pattern: jewelgen.<type>.v<version>
const (
	// TypeDesign identifies completed design records.
	TypeDesign = "jewelgen.design.v1"

	// TypeProgress identifies progress update records.
	TypeProgress = "jewelgen.progress.v1"

	// TypeError identifies error records.
	TypeError = "jewelgen.error.v1"

	// TypeSummary identifies final summary records.
	TypeSummary = "jewelgen.summary.v1"
)

// ErrWriterClosed is returned by write methods after Close.
var ErrWriterClosed = errors.New("output writer is closed")

// WriteError wraps failures from the underlying writer.
type WriteError struct {
	// Op is the write stage that failed (marshal_data, marshal_record, write).
	Op string

	// Err is the underlying error.
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("output %s: %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Record is the envelope for all JSONL output.
type Record struct {
	// Type identifies the record type (e.g., "jewelgen.progress.v1").
	Type string `json:"type"`

	// TS is the timestamp when the record was created (RFC3339Nano).
	TS time.Time `json:"ts"`

	// BatchID correlates records from one batch run. Empty for single
	// generations.
	BatchID string `json:"batch_id,omitempty"`

	// Data contains the type-specific payload as raw JSON.
	Data json.RawMessage `json:"data"`
}

// DesignRecord is the data payload for a completed design.
type DesignRecord struct {
	// DesignID is the design's unique id.
	DesignID string `json:"design_id"`

	// Name is the design's display name.
	Name string `json:"name"`

	// Material, JewelryType, and ChainStyle echo the design parameters.
	Material    string `json:"material"`
	JewelryType string `json:"jewelry_type"`
	ChainStyle  string `json:"chain_style,omitempty"`

	// ModelURLs maps format to asset URL or local path.
	ModelURLs map[string]string `json:"model_urls,omitempty"`

	// MetadataPath is where the JSON metadata document was written.
	MetadataPath string `json:"metadata_path,omitempty"`
}

// ProgressRecord is the data payload for progress updates.
type ProgressRecord struct {
	// DesignID identifies which design the update belongs to.
	DesignID string `json:"design_id"`

	// Percent is the unified 0-100 progress value.
	Percent int `json:"percent"`

	// Status is the remote (or mock) status string at this point.
	Status string `json:"status"`

	// Stage names the lifecycle stage (e.g. "preview_pending").
	Stage string `json:"stage,omitempty"`
}

// ErrorRecord is the data payload for per-design failures.
type ErrorRecord struct {
	// DesignID identifies the failed design.
	DesignID string `json:"design_id"`

	// Message is the error text.
	Message string `json:"message"`
}

// SummaryRecord is the data payload for the final run summary.
type SummaryRecord struct {
	// Requested is how many designs the run asked for.
	Requested int `json:"requested"`

	// Succeeded is how many completed.
	Succeeded int `json:"succeeded"`

	// Failed is how many failed.
	Failed int `json:"failed"`

	// DurationMS is the wall-clock run time in milliseconds.
	DurationMS int64 `json:"duration_ms"`
}
