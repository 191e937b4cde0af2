// Package design defines the jewelry design record and its enumerations.
//
// A Record is the value object that flows through the whole pipeline: it is
// created from a material/type/style selection, submitted to the remote
// generation service, and finally persisted as JSON with the generated
// asset references attached.
package design

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Material is the metal a design is rendered in.
type Material string

const (
	MaterialGold           Material = "gold"
	MaterialSilver         Material = "silver"
	MaterialStainlessSteel Material = "stainless_steel"
	MaterialGoldPlated     Material = "gold_plated"
	MaterialSilverPlated   Material = "silver_plated"
	MaterialRoseGold       Material = "rose_gold"
	MaterialWhiteGold      Material = "white_gold"
	MaterialPlatinum       Material = "platinum"
	MaterialBrass          Material = "brass"
)

// Materials lists all valid materials in display order.
func Materials() []Material {
	return []Material{
		MaterialGold, MaterialSilver, MaterialStainlessSteel,
		MaterialGoldPlated, MaterialSilverPlated, MaterialRoseGold,
		MaterialWhiteGold, MaterialPlatinum, MaterialBrass,
	}
}

// ParseMaterial converts a string to a Material.
func ParseMaterial(s string) (Material, error) {
	for _, m := range Materials() {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown material: %q", s)
}

func (m Material) String() string { return string(m) }

// JewelryType is the kind of piece a design describes.
type JewelryType string

const (
	TypeChain    JewelryType = "chain"
	TypeRing     JewelryType = "ring"
	TypeBracelet JewelryType = "bracelet"
	TypeNecklace JewelryType = "necklace"
	TypeEarring  JewelryType = "earring"
	TypePendant  JewelryType = "pendant"
)

// JewelryTypes lists all valid jewelry types in display order.
func JewelryTypes() []JewelryType {
	return []JewelryType{
		TypeChain, TypeRing, TypeBracelet,
		TypeNecklace, TypeEarring, TypePendant,
	}
}

// ParseJewelryType converts a string to a JewelryType.
func ParseJewelryType(s string) (JewelryType, error) {
	for _, t := range JewelryTypes() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown jewelry type: %q", s)
}

func (t JewelryType) String() string { return string(t) }

// ChainFamily reports whether the type is built from chain links, which is
// what decides whether a chain style is meaningful for it.
func (t JewelryType) ChainFamily() bool {
	return t == TypeChain || t == TypeNecklace || t == TypeBracelet
}

// ChainStyle is the link pattern for chain-family jewelry.
//
// The zero value means "no style set".
type ChainStyle string

const (
	StyleCuban       ChainStyle = "cuban"
	StyleFigaro      ChainStyle = "figaro"
	StyleRope        ChainStyle = "rope"
	StyleCable       ChainStyle = "cable"
	StyleSnake       ChainStyle = "snake"
	StyleBox         ChainStyle = "box"
	StyleHerringbone ChainStyle = "herringbone"
	StyleWheat       ChainStyle = "wheat"
	StyleBall        ChainStyle = "ball"
)

// ChainStyles lists all valid chain styles in display order.
func ChainStyles() []ChainStyle {
	return []ChainStyle{
		StyleCuban, StyleFigaro, StyleRope, StyleCable, StyleSnake,
		StyleBox, StyleHerringbone, StyleWheat, StyleBall,
	}
}

// ParseChainStyle converts a string to a ChainStyle.
func ParseChainStyle(s string) (ChainStyle, error) {
	for _, cs := range ChainStyles() {
		if string(cs) == s {
			return cs, nil
		}
	}
	return "", fmt.Errorf("unknown chain style: %q", s)
}

func (cs ChainStyle) String() string { return string(cs) }

// Record describes one jewelry design.
//
// ID and CreatedAt are fixed at construction. The generated asset fields
// (ModelURLs, ThumbnailURL, TextureURLs) are attached exactly once, when a
// generation completes. Records are never deleted in-process; the JSON
// metadata file keyed by ID is the durable copy.
type Record struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`

	JewelryType JewelryType        `json:"jewelry_type"`
	Material    Material           `json:"material"`
	ChainStyle  ChainStyle         `json:"chain_style,omitempty"`
	Dimensions  map[string]float64 `json:"dimensions,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	BatchID   string    `json:"batch_id,omitempty"`
	Tags      []string  `json:"tags,omitempty"`

	// ModelURLs maps output format (glb, fbx, obj, usdz, mtl) to a
	// resolvable URL or local path. Empty until generation completes.
	ModelURLs    map[string]string   `json:"model_urls,omitempty"`
	ThumbnailURL string              `json:"thumbnail_url,omitempty"`
	TextureURLs  []map[string]string `json:"texture_urls,omitempty"`

	Weight             *float64 `json:"weight,omitempty"`
	MaterialCost       *float64 `json:"material_cost,omitempty"`
	ManufacturingNotes string   `json:"manufacturing_notes,omitempty"`
}

// Params configures a new Record. Zero fields are allowed; defaulting of
// material and type from configuration happens at the generator layer.
type Params struct {
	Material    Material
	JewelryType JewelryType
	ChainStyle  ChainStyle
	BatchID     string
	Name        string
}

// New creates a Record with a fresh id and creation timestamp.
//
// Invariant: a chain with no explicit style gets StyleCuban here, once.
// The field is not re-checked later.
func New(p Params) *Record {
	rec := &Record{
		ID:          uuid.New().String(),
		Name:        p.Name,
		JewelryType: p.JewelryType,
		Material:    p.Material,
		ChainStyle:  p.ChainStyle,
		BatchID:     p.BatchID,
		CreatedAt:   time.Now().UTC(),
	}
	if rec.JewelryType == TypeChain && rec.ChainStyle == "" {
		rec.ChainStyle = StyleCuban
	}
	return rec
}

// DisplayName returns the explicit name, or one derived from the design
// parameters ("Cuban Gold Chain").
func (r *Record) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	parts := make([]string, 0, 3)
	if r.ChainStyle != "" {
		parts = append(parts, string(r.ChainStyle))
	}
	parts = append(parts, string(r.Material), string(r.JewelryType))
	return titleWords(strings.Join(parts, " "))
}

// titleWords capitalizes each space- or underscore-separated word.
// Enum values are plain ASCII, so no Unicode casing is needed.
func titleWords(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '_'
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Validate checks that the enum fields hold known values.
func (r *Record) Validate() error {
	if _, err := ParseMaterial(string(r.Material)); err != nil {
		return err
	}
	if _, err := ParseJewelryType(string(r.JewelryType)); err != nil {
		return err
	}
	if r.ChainStyle != "" {
		if _, err := ParseChainStyle(string(r.ChainStyle)); err != nil {
			return err
		}
	}
	return nil
}
