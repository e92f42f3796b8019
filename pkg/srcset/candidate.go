package srcset

import "math"

// DefaultDensity is the pixel density assumed when a candidate does not
// declare one.
const DefaultDensity = 1.0

// Candidate is one image option.
type Candidate struct {
	// URL locates the resource. It is never checked for reachability.
	URL string

	// Width and Height are the intrinsic dimensions in device-independent
	// pixels, +Inf when unconstrained.
	Width  float64
	Height float64

	// Density is the pixel-density descriptor.
	Density float64
}

// NewCandidate returns a candidate for url with unconstrained dimensions and
// the default density.
func NewCandidate(url string) Candidate {
	return Candidate{
		URL:     url,
		Width:   math.Inf(1),
		Height:  math.Inf(1),
		Density: DefaultDensity,
	}
}

// CandidateSet is an ordered list of candidates. Order matters: it breaks
// ties during selection.
type CandidateSet []Candidate

// URLs returns the candidate URLs in order.
func (cs CandidateSet) URLs() []string {
	urls := make([]string, len(cs))
	for i, c := range cs {
		urls[i] = c.URL
	}
	return urls
}

// Viewport is a snapshot of the display context at selection time.
// Capture a new one for every selection; the display can change between
// calls.
type Viewport struct {
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Density float64 `json:"density"`
}

// Ratio returns Width/Height.
func (v Viewport) Ratio() float64 {
	return v.Width / v.Height
}
