package srcset

// field reads one ranking axis of a candidate.
type field func(Candidate) float64

func byWidth(c Candidate) float64   { return c.Width }
func byHeight(c Candidate) float64  { return c.Height }
func byDensity(c Candidate) float64 { return c.Density }

// SelectBest returns the candidate best suited to vp and true, or false when
// cs is empty. The result is always an element of cs.
func SelectBest(cs CandidateSet, vp Viewport) (Candidate, bool) {
	if len(cs) == 0 {
		return Candidate{}, false
	}

	images := []Candidate(cs)

	// Drop candidates that are too small, never below the largest available.
	images = keepAtLeast(images, byWidth, vp.Width)
	images = keepAtLeast(images, byHeight, vp.Height)
	images = keepAtLeast(images, byDensity, vp.Density)

	// Drop candidates that are larger than needed.
	images = keepSmallest(images, byWidth)
	images = keepSmallest(images, byHeight)
	images = keepSmallest(images, byDensity)

	return images[0], true
}

// keepAtLeast returns the candidates whose f value is not below min. When
// none qualify it returns the candidate with the largest f value instead.
func keepAtLeast(images []Candidate, f field, min float64) []Candidate {
	largest := track(images, f, func(a, b float64) bool { return a > b })
	kept := filter(images, func(c Candidate) bool { return f(c) < min })
	if len(kept) == 0 {
		return []Candidate{largest}
	}
	return kept
}

// keepSmallest returns the candidates sharing the smallest f value.
func keepSmallest(images []Candidate, f field) []Candidate {
	smallest := track(images, f, func(a, b float64) bool { return a < b })
	limit := f(smallest)
	kept := filter(images, func(c Candidate) bool { return f(c) > limit })
	if len(kept) == 0 {
		// Only reachable with NaN values.
		return []Candidate{smallest}
	}
	return kept
}

// track returns the first candidate that no later candidate beats under
// better. images must not be empty.
func track(images []Candidate, f field, better func(a, b float64) bool) Candidate {
	best := images[0]
	for _, c := range images[1:] {
		if better(f(c), f(best)) {
			best = c
		}
	}
	return best
}

// filter returns a new slice without the candidates matching remove.
func filter(images []Candidate, remove func(Candidate) bool) []Candidate {
	kept := make([]Candidate, 0, len(images))
	for _, c := range images {
		if !remove(c) {
			kept = append(kept, c)
		}
	}
	return kept
}
