// Package match filters stored design records by attribute criteria.
//
// Filters operate on fields available from a metadata listing (material,
// jewelry type, batch id, creation time, name) and compose with AND
// semantics. They back the listing surfaces: the info command and the
// HTTP design list endpoint.
package match

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/forgeleaf/jewelgen/pkg/design"
)

// Filter evaluates whether a design record passes filter criteria.
type Filter interface {
	// Match returns true if the record passes the filter.
	Match(rec *design.Record) bool

	// String returns a human-readable description of the filter.
	String() string
}

// FilterConfig holds filter criteria from CLI flags or query parameters.
// Empty fields mean no constraint.
type FilterConfig struct {
	// Material restricts to a single material.
	Material string `json:"material,omitempty" yaml:"material,omitempty"`

	// JewelryType restricts to a single jewelry type.
	JewelryType string `json:"jewelry_type,omitempty" yaml:"jewelry_type,omitempty"`

	// Batch restricts to records from one batch id.
	Batch string `json:"batch,omitempty" yaml:"batch,omitempty"`

	// Created specifies a creation-time range.
	Created *DateFilterConfig `json:"created,omitempty" yaml:"created,omitempty"`

	// NameRegex is a regex pattern applied to the record name.
	NameRegex string `json:"name_regex,omitempty" yaml:"name_regex,omitempty"`
}

// DateFilterConfig specifies date range constraints.
type DateFilterConfig struct {
	// After filters to records created at or after this time (inclusive).
	// Supports ISO 8601: "2026-08-28" or "2026-08-28T10:30:00Z".
	After string `json:"after,omitempty" yaml:"after,omitempty"`

	// Before filters to records created before this time (exclusive end).
	Before string `json:"before,omitempty" yaml:"before,omitempty"`
}

// Filter errors.
var (
	ErrInvalidDate   = errors.New("invalid date value")
	ErrInvalidRegex  = errors.New("invalid regex pattern")
	ErrInvalidFilter = errors.New("invalid filter")
)

// AttributeFilter filters records by design attributes.
type AttributeFilter struct {
	material    design.Material
	jewelryType design.JewelryType
	batch       string
}

// NewAttributeFilter creates an attribute filter from config values.
// Returns nil if no attribute constraints are specified. Material and
// jewelry type values are validated against the supported enums.
func NewAttributeFilter(cfg *FilterConfig) (*AttributeFilter, error) {
	if cfg == nil {
		return nil, nil
	}
	if cfg.Material == "" && cfg.JewelryType == "" && cfg.Batch == "" {
		return nil, nil
	}

	f := &AttributeFilter{batch: strings.TrimSpace(cfg.Batch)}

	if cfg.Material != "" {
		m, err := design.ParseMaterial(cfg.Material)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
		}
		f.material = m
	}

	if cfg.JewelryType != "" {
		jt, err := design.ParseJewelryType(cfg.JewelryType)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
		}
		f.jewelryType = jt
	}

	return f, nil
}

// Match returns true if the record matches all set attributes.
func (f *AttributeFilter) Match(rec *design.Record) bool {
	if f.material != "" && rec.Material != f.material {
		return false
	}
	if f.jewelryType != "" && rec.JewelryType != f.jewelryType {
		return false
	}
	if f.batch != "" && rec.BatchID != f.batch {
		return false
	}
	return true
}

// String returns a human-readable description.
func (f *AttributeFilter) String() string {
	var parts []string
	if f.material != "" {
		parts = append(parts, fmt.Sprintf("material: %s", f.material))
	}
	if f.jewelryType != "" {
		parts = append(parts, fmt.Sprintf("type: %s", f.jewelryType))
	}
	if f.batch != "" {
		parts = append(parts, fmt.Sprintf("batch: %s", f.batch))
	}
	if len(parts) == 0 {
		return "attributes: any"
	}
	return strings.Join(parts, ", ")
}

// DateFilter filters records by creation time range.
type DateFilter struct {
	after  time.Time // zero means no after constraint
	before time.Time // zero means no before constraint
}

// NewDateFilter creates a date filter from config.
// Returns nil if no date constraints are specified.
func NewDateFilter(cfg *DateFilterConfig) (*DateFilter, error) {
	if cfg == nil {
		return nil, nil
	}

	f := &DateFilter{}

	if cfg.After != "" {
		t, err := ParseDate(cfg.After)
		if err != nil {
			return nil, fmt.Errorf("after date: %w", err)
		}
		f.after = t
	}

	if cfg.Before != "" {
		t, err := ParseDate(cfg.Before)
		if err != nil {
			return nil, fmt.Errorf("before date: %w", err)
		}
		f.before = t
	}

	if f.after.IsZero() && f.before.IsZero() {
		return nil, nil
	}

	// Validate after < before if both specified
	if !f.after.IsZero() && !f.before.IsZero() && !f.after.Before(f.before) {
		return nil, fmt.Errorf("%w: after (%s) >= before (%s)", ErrInvalidDate, f.after, f.before)
	}

	return f, nil
}

// Match returns true if the record creation time is within range.
func (f *DateFilter) Match(rec *design.Record) bool {
	created := rec.CreatedAt.UTC()
	if !f.after.IsZero() && created.Before(f.after) {
		return false
	}
	if !f.before.IsZero() && !created.Before(f.before) {
		return false
	}
	return true
}

// String returns a human-readable description.
func (f *DateFilter) String() string {
	switch {
	case !f.after.IsZero() && !f.before.IsZero():
		return fmt.Sprintf("created: %s to %s", f.after.Format("2006-01-02"), f.before.Format("2006-01-02"))
	case !f.after.IsZero():
		return fmt.Sprintf("created: on/after %s", f.after.Format("2006-01-02"))
	case !f.before.IsZero():
		return fmt.Sprintf("created: before %s", f.before.Format("2006-01-02"))
	default:
		return "created: any"
	}
}

// RegexFilter filters records by name pattern.
type RegexFilter struct {
	pattern *regexp.Regexp
	raw     string
}

// NewRegexFilter creates a regex filter from pattern string.
// Returns nil if pattern is empty.
func NewRegexFilter(pattern string) (*RegexFilter, error) {
	if pattern == "" {
		return nil, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRegex, err)
	}

	return &RegexFilter{pattern: re, raw: pattern}, nil
}

// Match returns true if the record name matches the regex. Records
// without an explicit name are matched against their id.
func (f *RegexFilter) Match(rec *design.Record) bool {
	name := rec.Name
	if name == "" {
		name = rec.ID
	}
	return f.pattern.MatchString(name)
}

// String returns a human-readable description.
func (f *RegexFilter) String() string {
	return fmt.Sprintf("name_regex: %s", f.raw)
}

// CompositeFilter combines multiple filters with AND semantics.
// All filters must pass for the record to match.
type CompositeFilter struct {
	filters []Filter
}

// NewCompositeFilter creates a composite filter from the given filters.
// Nil filters are ignored. Returns nil if no non-nil filters provided.
func NewCompositeFilter(filters ...Filter) *CompositeFilter {
	var nonNil []Filter
	for _, f := range filters {
		if f != nil {
			nonNil = append(nonNil, f)
		}
	}
	if len(nonNil) == 0 {
		return nil
	}
	return &CompositeFilter{filters: nonNil}
}

// NewFilterFromConfig creates a CompositeFilter from FilterConfig.
// Returns nil if no filters are configured.
func NewFilterFromConfig(cfg *FilterConfig) (*CompositeFilter, error) {
	if cfg == nil {
		return nil, nil
	}

	var filters []Filter

	attrFilter, err := NewAttributeFilter(cfg)
	if err != nil {
		return nil, err
	}
	if attrFilter != nil {
		filters = append(filters, attrFilter)
	}

	dateFilter, err := NewDateFilter(cfg.Created)
	if err != nil {
		return nil, err
	}
	if dateFilter != nil {
		filters = append(filters, dateFilter)
	}

	regexFilter, err := NewRegexFilter(cfg.NameRegex)
	if err != nil {
		return nil, err
	}
	if regexFilter != nil {
		filters = append(filters, regexFilter)
	}

	if len(filters) == 0 {
		return nil, nil
	}

	return &CompositeFilter{filters: filters}, nil
}

// Match returns true if all filters pass. A nil composite matches
// everything.
func (f *CompositeFilter) Match(rec *design.Record) bool {
	if f == nil {
		return true
	}
	for _, filter := range f.filters {
		if !filter.Match(rec) {
			return false
		}
	}
	return true
}

// String returns a human-readable description.
func (f *CompositeFilter) String() string {
	if f == nil || len(f.filters) == 0 {
		return "no filters"
	}
	parts := make([]string, len(f.filters))
	for i, filter := range f.filters {
		parts[i] = filter.String()
	}
	return strings.Join(parts, ", ")
}

// Filters returns the underlying filters.
func (f *CompositeFilter) Filters() []Filter {
	if f == nil {
		return nil
	}
	return f.filters
}

// ParseDate parses an ISO 8601 date or datetime string.
//
// Supported formats:
//   - Date only: "2026-08-28" (interpreted as start of day UTC)
//   - Datetime: "2026-08-28T10:30:00Z"
//   - Datetime with offset: "2026-08-28T10:30:00+05:00"
//
// All times are normalized to UTC for comparison.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}

	// Try RFC3339 first (full datetime)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}

	// Try date-only format
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}

	// Try RFC3339Nano
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}
