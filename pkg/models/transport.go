package models

import (
	"math"

	"github.com/anime-shed/image-srcset-go/pkg/srcset"
)

// Candidate is the wire form of srcset.Candidate. A null width or height
// means the candidate is unconstrained on that axis. Dimensions and density
// must be positive when present.
type Candidate struct {
	URL     string   `json:"url" binding:"required"`
	Width   *float64 `json:"width" binding:"omitempty,gt=0"`
	Height  *float64 `json:"height" binding:"omitempty,gt=0"`
	Density float64  `json:"density,omitempty" binding:"omitempty,gt=0"`
}

// FromCandidate converts a srcset.Candidate to its wire form
func FromCandidate(c srcset.Candidate) Candidate {
	return Candidate{
		URL:     c.URL,
		Width:   finite(c.Width),
		Height:  finite(c.Height),
		Density: c.Density,
	}
}

// FromCandidateSet converts every candidate of cs, keeping order
func FromCandidateSet(cs srcset.CandidateSet) []Candidate {
	out := make([]Candidate, 0, len(cs))
	for _, c := range cs {
		out = append(out, FromCandidate(c))
	}
	return out
}

// ToCandidate converts back to a srcset.Candidate. Missing dimensions are
// unconstrained and a missing density is srcset.DefaultDensity.
func (c Candidate) ToCandidate() srcset.Candidate {
	out := srcset.NewCandidate(c.URL)
	if c.Width != nil {
		out.Width = *c.Width
	}
	if c.Height != nil {
		out.Height = *c.Height
	}
	if c.Density != 0 {
		out.Density = c.Density
	}
	return out
}

// ToCandidateSet converts a slice of wire candidates, keeping order
func ToCandidateSet(in []Candidate) srcset.CandidateSet {
	cs := make(srcset.CandidateSet, 0, len(in))
	for _, c := range in {
		cs = append(cs, c.ToCandidate())
	}
	return cs
}

func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}

// SrcsetResponse describes the candidate set of one image
type SrcsetResponse struct {
	ID          string      `json:"id"`
	VariantType string      `json:"variant_type"`
	Srcset      string      `json:"srcset"`
	Candidates  []Candidate `json:"candidates"`
}

// ParseRequest carries a srcset attribute value
type ParseRequest struct {
	Srcset string `json:"srcset"`
}

// Diagnostic is the wire form of srcset.Diagnostic
type Diagnostic struct {
	Entry  int    `json:"entry"`
	Token  string `json:"token"`
	Reason string `json:"reason"`
}

// ParseResponse lists parsed candidates and any ignored tokens
type ParseResponse struct {
	Candidates  []Candidate  `json:"candidates"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// SelectRequest asks for the best of an explicit candidate list or of a
// srcset attribute value. Candidates take precedence when both are set.
type SelectRequest struct {
	Srcset     string           `json:"srcset,omitempty"`
	Candidates []Candidate      `json:"candidates,omitempty" binding:"omitempty,dive"`
	Viewport   *srcset.Viewport `json:"viewport,omitempty"`
}

// SelectResponse carries the chosen candidate, if any
type SelectResponse struct {
	Found    bool            `json:"found"`
	Selected *Candidate      `json:"selected,omitempty"`
	Viewport srcset.Viewport `json:"viewport"`
}

// BestImageRequest identifies one image in a batch
type BestImageRequest struct {
	ID   string `json:"id" binding:"required"`
	Type string `json:"type,omitempty"`
}

// BestImageResponse is the best candidate for one image and viewport
type BestImageResponse struct {
	ID            string          `json:"id"`
	RequestedType string          `json:"requested_type,omitempty"`
	VariantType   string          `json:"variant_type"`
	Viewport      srcset.Viewport `json:"viewport"`
	Found         bool            `json:"found"`
	Selected      *Candidate      `json:"selected,omitempty"`
	Srcset        string          `json:"srcset"`
}

// BatchRequest resolves several images against one viewport
type BatchRequest struct {
	Images   []BestImageRequest `json:"images" binding:"required,min=1,dive"`
	Viewport *srcset.Viewport   `json:"viewport,omitempty"`
}

// BatchResult is one entry of a BatchResponse, in request order
type BatchResult struct {
	BestImageResponse
	Error string `json:"error,omitempty"`
}

// BatchResponse carries one result per requested image
type BatchResponse struct {
	Results []BatchResult `json:"results"`
}

// Size is the wire form of srcset.Size; zero means unconstrained
type Size struct {
	Label  string `json:"label"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Variant lists the sizes registered under one variant type
type Variant struct {
	Type  string `json:"type"`
	Sizes []Size `json:"sizes"`
}

// VariantsResponse describes the loaded size catalog
type VariantsResponse struct {
	Source   string    `json:"source"`
	LoadedAt string    `json:"loaded_at,omitempty"`
	Variants []Variant `json:"variants"`
}

// RewriteRequest carries an HTML fragment to rewrite
type RewriteRequest struct {
	HTML     string           `json:"html" binding:"required"`
	Viewport *srcset.Viewport `json:"viewport,omitempty"`
}

// RewriteResponse carries the rewritten fragment
type RewriteResponse struct {
	HTML      string `json:"html"`
	Rewritten int    `json:"rewritten"`
}
