package strategy

import (
	"github.com/anime-shed/image-srcset-go/pkg/srcset"
)

// VariantStrategy decides which variant type a request is served from
type VariantStrategy interface {
	Resolve(requested string, catalog srcset.SizeCatalog, vp srcset.Viewport) string
	GetStrategyName() string
}

// ExplicitVariantStrategy honours the requested type when it is registered
// and falls back to original otherwise
type ExplicitVariantStrategy struct{}

// NewExplicitVariantStrategy creates a new explicit strategy
func NewExplicitVariantStrategy() VariantStrategy {
	return &ExplicitVariantStrategy{}
}

// Resolve returns requested if registered, else original
func (s *ExplicitVariantStrategy) Resolve(requested string, catalog srcset.SizeCatalog, vp srcset.Viewport) string {
	if requested != "" && catalog.Has(requested) {
		return requested
	}
	return srcset.VariantOriginal
}

// GetStrategyName returns the strategy name
func (s *ExplicitVariantStrategy) GetStrategyName() string {
	return "explicit_variant"
}

// AutoVariantStrategy picks horizontal, vertical or square from the
// viewport aspect ratio, ignoring the requested type
type AutoVariantStrategy struct{}

// NewAutoVariantStrategy creates a new auto strategy
func NewAutoVariantStrategy() VariantStrategy {
	return &AutoVariantStrategy{}
}

// Resolve classifies vp
func (s *AutoVariantStrategy) Resolve(requested string, catalog srcset.SizeCatalog, vp srcset.Viewport) string {
	return srcset.AutoVariantType(vp)
}

// GetStrategyName returns the strategy name
func (s *AutoVariantStrategy) GetStrategyName() string {
	return "auto_variant"
}

// VariantContext routes each request to the matching strategy
type VariantContext struct {
	explicit VariantStrategy
	auto     VariantStrategy
}

// NewVariantContext creates a new variant context
func NewVariantContext() *VariantContext {
	return &VariantContext{
		explicit: NewExplicitVariantStrategy(),
		auto:     NewAutoVariantStrategy(),
	}
}

// StrategyFor returns the strategy handling requested
func (c *VariantContext) StrategyFor(requested string) VariantStrategy {
	if requested == srcset.VariantAuto {
		return c.auto
	}
	return c.explicit
}

// Resolve resolves requested with the strategy that handles it
func (c *VariantContext) Resolve(requested string, catalog srcset.SizeCatalog, vp srcset.Viewport) string {
	return c.StrategyFor(requested).Resolve(requested, catalog, vp)
}
