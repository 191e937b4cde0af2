// Package metadata persists design records as JSON files.
//
// Each design gets one file, <id>.json, in the store directory. The file
// is the durable copy of the record plus a small set of generation
// provenance fields. Writes go through a temp file and rename so a crash
// never leaves a truncated document behind.
package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/forgeleaf/jewelgen/pkg/design"
)

// Provenance carries generation bookkeeping that is not part of the
// design itself. Fields are filled with defaults when not otherwise known.
type Provenance struct {
	NegativePrompt    string  `json:"negative_prompt"`
	Seed              *int    `json:"seed"`
	ModelName         string  `json:"model_name"`
	NumInferenceSteps int     `json:"num_inference_steps"`
	GuidanceScale     float64 `json:"guidance_scale"`
	DesignType        string  `json:"design_type"`
}

// DefaultProvenance returns the provenance defaults used when the caller
// has nothing better.
func DefaultProvenance() Provenance {
	return Provenance{
		ModelName:         "default",
		NumInferenceSteps: 50,
		GuidanceScale:     7.5,
		DesignType:        "jewelry",
	}
}

// Document is the persisted form of a design: the record plus provenance,
// flattened into one JSON object.
type Document struct {
	design.Record
	Provenance
}

// Store reads and writes design metadata documents in one directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir. The directory is created lazily
// on first write.
func NewStore(dir string) *Store {
	return &Store{dir: strings.TrimSpace(dir)}
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the metadata file path for a design id.
func (s *Store) Path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Save writes the document for rec. A nil prov gets DefaultProvenance.
// Returns the file path written.
func (s *Store) Save(rec *design.Record, prov *Provenance) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("design record is nil")
	}
	if rec.ID == "" {
		return "", fmt.Errorf("design id is required")
	}
	if s.dir == "" {
		return "", fmt.Errorf("metadata dir is empty")
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("create metadata dir: %w", err)
	}

	p := DefaultProvenance()
	if prov != nil {
		p = *prov
	}
	doc := Document{Record: *rec, Provenance: p}

	b, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	b = append(b, '\n')

	tmp, err := os.CreateTemp(s.dir, rec.ID+".json.tmp.*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write temp metadata file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp metadata file: %w", err)
	}

	finalPath := s.Path(rec.ID)
	if err := os.Rename(tmpName, finalPath); err != nil {
		return "", fmt.Errorf("rename metadata file: %w", err)
	}
	return finalPath, nil
}

// Load reads the document for a design id.
func (s *Store) Load(id string) (*Document, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("design id is required")
	}

	b, err := os.ReadFile(s.Path(id))
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse %s.json: %w", id, err)
	}
	return &doc, nil
}

// List returns all stored documents whose design id matches the glob
// pattern ("*" for everything), sorted by creation time then id.
func (s *Store) List(pattern string) ([]*Document, error) {
	if pattern == "" {
		pattern = "*"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid match pattern: %q", pattern)
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read metadata dir: %w", err)
	}

	var docs []*Document
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")

		ok, err := doublestar.Match(pattern, id)
		if err != nil || !ok {
			continue
		}

		doc, err := s.Load(id)
		if err != nil {
			// Unreadable documents are skipped, not fatal: the store
			// directory may hold partial writes from other tools.
			continue
		}
		docs = append(docs, doc)
	}

	sort.Slice(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].ID < docs[j].ID
		}
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})
	return docs, nil
}
