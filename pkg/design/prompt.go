package design

import (
	"fmt"
	"strings"
)

// Prompt builds the text-to-3D generation prompt for the design.
//
// The prompt is assembled from fixed clauses: photography framing, the
// material and type, chain-style link details for chain-family pieces,
// type-specific technical constraints, craftsmanship, a material finish
// description, presentation/lighting, and manufacturability requirements.
// The result is deterministic for a given Record.
func (r *Record) Prompt() string {
	var b strings.Builder

	b.WriteString("Professional jewelry studio photography of ")
	fmt.Fprintf(&b, "a high-quality %s %s", r.Material, r.JewelryType)

	if r.ChainStyle != "" && r.JewelryType.ChainFamily() {
		fmt.Fprintf(&b, " with properly connected %s style links", r.ChainStyle)
	}

	if spec := technicalSpec(r.JewelryType); spec != "" {
		b.WriteString(spec)
	}

	b.WriteString(", professionally hand-polished to a mirror finish, " +
		"showcasing refined craftsmanship with attention to detail")
	b.WriteString(", " + materialFinish(r.Material))
	b.WriteString(", displayed on neutral background with studio lighting " +
		"highlighting fine details, proper depth of field, realistic reflections")
	b.WriteString(", no floating disconnected elements, all components " +
		"properly attached, physically accurate for manufacturing")

	return b.String()
}

// TexturePrompt builds the default prompt for the refine (texturing) phase.
func (r *Record) TexturePrompt() string {
	return fmt.Sprintf("%s material, jewelry quality, detailed surface finish", r.Material)
}

// technicalSpec returns the fixed per-type construction constraints clause.
// Unrecognized types get none.
func technicalSpec(t JewelryType) string {
	switch t {
	case TypeRing:
		return ", precisely crafted round band with comfortable beveled " +
			"inner edges, proper sizing proportions"
	case TypePendant:
		return ", with securely attached bail for chain threading, " +
			"balanced weight distribution for proper hanging"
	case TypeEarring:
		return ", with secure ear wire mechanism, properly balanced " +
			"for comfortable wear"
	case TypeNecklace:
		return ", featuring secure lobster clasp with jump ring, " +
			"properly graduated links for comfortable draping"
	case TypeBracelet:
		return ", with secure box clasp and safety chain, ergonomically " +
			"designed for wrist comfort"
	case TypeChain:
		return ", uniform link pattern throughout, featuring secure " +
			"spring ring clasp"
	default:
		return ""
	}
}

// materialFinish returns the fixed per-material surface description, with a
// generic fallback for values outside the enumeration.
func materialFinish(m Material) string {
	switch m {
	case MaterialGold:
		return "warm yellow gold with accurate metallic luster and reflective properties"
	case MaterialSilver:
		return "bright sterling silver with proper white metal sheen and subtle reflection"
	case MaterialStainlessSteel:
		return "durable stainless steel with cool gray tone and subtle brushed texture"
	case MaterialGoldPlated:
		return "precision gold-plated surface with consistent coverage and warm golden hue"
	case MaterialSilverPlated:
		return "precisely silver-plated with consistent layering and bright white metal appearance"
	case MaterialRoseGold:
		return "warm rose gold with distinctive pinkish hue and refined metallic shine"
	case MaterialWhiteGold:
		return "bright white gold with rhodium-plated finish for brilliant white appearance"
	case MaterialPlatinum:
		return "premium platinum with distinctive weight and cool white-gray metallic appearance"
	case MaterialBrass:
		return "polished brass with warm golden-yellow tone and subtle antiqued detailing"
	default:
		return "with accurate metallic appearance and proper reflective properties"
	}
}
