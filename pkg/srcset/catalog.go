package srcset

import (
	"math"
	"net/url"
	"sort"
	"strings"
)

// Variant types registered in the default catalog.
const (
	VariantHorizontal = "horizontal"
	VariantExtra      = "extra"
	VariantSquare     = "square"
	VariantVertical   = "vertical"
	VariantOriginal   = "original"

	// VariantAuto picks horizontal, vertical or square from the viewport
	// aspect ratio.
	VariantAuto = "auto"
)

// autoRatio is the aspect ratio beyond which a viewport counts as
// horizontal or vertical rather than square.
const autoRatio = 1.3

// DefaultURLPattern is the URL pattern used when none is configured.
const DefaultURLPattern = "http://d298edkwyoodbw.cloudfront.net/[id]/[type]/[size].jpg"

// Size is one named size bucket. A zero dimension means unconstrained.
type Size struct {
	Label  string
	Width  int
	Height int
}

// SizeCatalog maps a variant type to its size buckets in emission order.
type SizeCatalog map[string][]Size

// Sizes returns the buckets registered for variantType.
func (sc SizeCatalog) Sizes(variantType string) ([]Size, bool) {
	sizes, ok := sc[variantType]
	return sizes, ok
}

// Has reports whether variantType is registered.
func (sc SizeCatalog) Has(variantType string) bool {
	_, ok := sc[variantType]
	return ok
}

// VariantTypes returns the registered variant types, sorted.
func (sc SizeCatalog) VariantTypes() []string {
	types := make([]string, 0, len(sc))
	for t := range sc {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// DefaultCatalog returns a fresh copy of the built-in size table.
func DefaultCatalog() SizeCatalog {
	return SizeCatalog{
		VariantHorizontal: {
			{"thumb", 240, 135},
			{"thumb2x", 480, 270},
			{"small", 720, 405},
			{"medium", 960, 540},
			{"big", 1200, 675},
			{"small2x", 1440, 810},
			{"medium2x", 1920, 1080},
			{"big2x", 2400, 1350},
		},
		VariantExtra: {
			{"thumb", 240, 120},
			{"thumb2x", 480, 240},
			{"small", 720, 360},
			{"medium", 960, 480},
			{"big", 1200, 600},
			{"small2x", 1440, 720},
			{"medium2x", 1920, 960},
			{"big2x", 2400, 1200},
		},
		VariantSquare: {
			{"thumb", 60, 60},
			{"small", 90, 90},
			{"thumb2x", 120, 120},
			{"medium", 150, 150},
			{"small2x", 180, 180},
			{"big", 450, 450},
			{"medium2x", 720, 720},
			{"big2x", 960, 960},
		},
		VariantVertical: {
			{"thumb", 75, 105},
			{"thumb2x", 150, 210},
			{"small", 225, 315},
			{"medium", 300, 420},
			{"small2x", 450, 630},
			{"medium2x", 600, 840},
			{"big", 750, 1050},
			{"big2x", 1500, 2100},
		},
		VariantOriginal: {
			{"thumb", 240, 0},
			{"thumb2x", 480, 0},
			{"small", 720, 0},
			{"medium", 960, 0},
			{"big", 1200, 0},
			{"small2x", 1440, 0},
			{"medium2x", 1920, 0},
			{"big2x", 2400, 0},
		},
	}
}

// URLTemplate renders the URL of one size bucket.
type URLTemplate func(id, variantType, sizeLabel string) string

// PlaceholderTemplate returns a URLTemplate that substitutes the first
// "[id]", "[type]" and "[size]" in pattern, in that order. Values are
// path-escaped so a rendered URL never contains whitespace or commas.
func PlaceholderTemplate(pattern string) URLTemplate {
	return func(id, variantType, sizeLabel string) string {
		out := strings.Replace(pattern, "[id]", url.PathEscape(id), 1)
		out = strings.Replace(out, "[type]", url.PathEscape(variantType), 1)
		return strings.Replace(out, "[size]", url.PathEscape(sizeLabel), 1)
	}
}

// Builder materializes candidate sets from a size catalog.
type Builder struct {
	Catalog  SizeCatalog
	Template URLTemplate
}

// NewBuilder returns a Builder over catalog rendering URLs with template.
// A nil template renders DefaultURLPattern.
func NewBuilder(catalog SizeCatalog, template URLTemplate) *Builder {
	if template == nil {
		template = PlaceholderTemplate(DefaultURLPattern)
	}
	return &Builder{Catalog: catalog, Template: template}
}

// Build returns one candidate per size registered under variantType, in
// catalog order. An empty variantType means VariantOriginal; an unregistered
// one yields an empty set.
func (b *Builder) Build(id, variantType string) CandidateSet {
	if variantType == "" {
		variantType = VariantOriginal
	}

	sizes, ok := b.Catalog.Sizes(variantType)
	if !ok {
		return CandidateSet{}
	}

	cs := make(CandidateSet, 0, len(sizes))
	for _, s := range sizes {
		cs = append(cs, Candidate{
			URL:     b.Template(id, variantType, s.Label),
			Width:   dimension(s.Width),
			Height:  dimension(s.Height),
			Density: DefaultDensity,
		})
	}
	return cs
}

// dimension maps a catalog dimension to a candidate one; zero means
// unconstrained.
func dimension(n int) float64 {
	if n == 0 {
		return math.Inf(1)
	}
	return float64(n)
}

// ResolveVariantType maps a requested variant type to a concrete one.
// VariantAuto resolves from the viewport aspect ratio; empty and
// unrecognized types resolve to VariantOriginal.
func (b *Builder) ResolveVariantType(requested string, vp Viewport) string {
	switch {
	case requested == VariantAuto:
		return AutoVariantType(vp)
	case requested != "" && b.Catalog.Has(requested):
		return requested
	default:
		return VariantOriginal
	}
}

// AutoVariantType classifies a viewport as horizontal, vertical or square.
func AutoVariantType(vp Viewport) string {
	switch {
	case vp.Width/vp.Height > autoRatio:
		return VariantHorizontal
	case vp.Height/vp.Width > autoRatio:
		return VariantVertical
	default:
		return VariantSquare
	}
}
