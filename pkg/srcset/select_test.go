package srcset

import (
	"math"
	"testing"
)

var inf = math.Inf(1)

func twoSquares() CandidateSet {
	return CandidateSet{
		{URL: "a", Width: 100, Height: 100, Density: 1},
		{URL: "b", Width: 500, Height: 500, Density: 1},
	}
}

func TestSelectBest_Scenarios(t *testing.T) {
	tests := []struct {
		name       string
		candidates CandidateSet
		viewport   Viewport
		wantURL    string
	}{
		{
			name:       "smallest sufficient candidate",
			candidates: twoSquares(),
			viewport:   Viewport{Width: 300, Height: 300, Density: 1},
			wantURL:    "b",
		},
		{
			name:       "viewport larger than every candidate falls back to widest",
			candidates: twoSquares(),
			viewport:   Viewport{Width: 1000, Height: 1000, Density: 1},
			wantURL:    "b",
		},
		{
			name:       "small viewport picks smallest",
			candidates: twoSquares(),
			viewport:   Viewport{Width: 50, Height: 50, Density: 1},
			wantURL:    "a",
		},
		{
			name:       "boundary equal width is kept",
			candidates: twoSquares(),
			viewport:   Viewport{Width: 100, Height: 100, Density: 1},
			wantURL:    "a",
		},
		{
			name: "density prefers matching descriptor",
			candidates: CandidateSet{
				{URL: "1x", Width: 400, Height: inf, Density: 1},
				{URL: "2x", Width: 400, Height: inf, Density: 2},
				{URL: "3x", Width: 400, Height: inf, Density: 3},
			},
			viewport: Viewport{Width: 300, Height: 600, Density: 2},
			wantURL:  "2x",
		},
		{
			name: "density above all candidates falls back to densest",
			candidates: CandidateSet{
				{URL: "1x", Width: 400, Height: inf, Density: 1},
				{URL: "2x", Width: 400, Height: inf, Density: 2},
			},
			viewport: Viewport{Width: 300, Height: 600, Density: 4},
			wantURL:  "2x",
		},
		{
			name: "width dominates height",
			candidates: CandidateSet{
				{URL: "wide", Width: 1200, Height: 300, Density: 1},
				{URL: "tall", Width: 400, Height: 2000, Density: 1},
			},
			viewport: Viewport{Width: 800, Height: 600, Density: 1},
			wantURL:  "wide",
		},
		{
			name: "unconstrained height satisfies any viewport",
			candidates: CandidateSet{
				{URL: "thumb", Width: 240, Height: inf, Density: 1},
				{URL: "medium", Width: 960, Height: inf, Density: 1},
				{URL: "big", Width: 1200, Height: inf, Density: 1},
			},
			viewport: Viewport{Width: 800, Height: 5000, Density: 1},
			wantURL:  "medium",
		},
		{
			name:       "zero viewport keeps everything then picks smallest",
			candidates: twoSquares(),
			viewport:   Viewport{},
			wantURL:    "a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectBest(tt.candidates, tt.viewport)
			if !ok {
				t.Fatal("Expected a selection, got none")
			}
			if got.URL != tt.wantURL {
				t.Errorf("Expected %q, got %q", tt.wantURL, got.URL)
			}
		})
	}
}

func TestSelectBest_Empty(t *testing.T) {
	for _, cs := range []CandidateSet{nil, {}} {
		if got, ok := SelectBest(cs, Viewport{Width: 300, Height: 300, Density: 1}); ok {
			t.Errorf("Expected no selection for empty set, got %+v", got)
		}
	}
}

func TestSelectBest_TieBreakIsPositional(t *testing.T) {
	cs := CandidateSet{
		{URL: "first", Width: 500, Height: 500, Density: 1},
		{URL: "second", Width: 500, Height: 500, Density: 1},
	}
	viewports := []Viewport{
		{Width: 100, Height: 100, Density: 1},
		{Width: 1000, Height: 1000, Density: 3},
		{},
	}
	for _, vp := range viewports {
		got, _ := SelectBest(cs, vp)
		if got.URL != "first" {
			t.Errorf("Viewport %+v: expected first, got %q", vp, got.URL)
		}
	}
}

func TestSelectBest_FallbackPicksFirstLargest(t *testing.T) {
	cs := CandidateSet{
		{URL: "small", Width: 100, Height: 100, Density: 1},
		{URL: "big-a", Width: 200, Height: 100, Density: 1},
		{URL: "big-b", Width: 200, Height: 100, Density: 1},
	}
	got, _ := SelectBest(cs, Viewport{Width: 900, Height: 50, Density: 1})
	if got.URL != "big-a" {
		t.Errorf("Expected big-a, got %q", got.URL)
	}
}

func TestSelectBest_MembershipAndIdempotence(t *testing.T) {
	b := NewBuilder(DefaultCatalog(), nil)
	viewports := []Viewport{
		{Width: 320, Height: 568, Density: 2},
		{Width: 1920, Height: 1080, Density: 1},
		{Width: 5000, Height: 5000, Density: 3},
		{Width: 1, Height: 1, Density: 0.5},
	}

	for _, vt := range DefaultCatalog().VariantTypes() {
		cs := b.Build("abc123", vt)
		for _, vp := range viewports {
			first, ok := SelectBest(cs, vp)
			if !ok {
				t.Fatalf("%s: expected a selection", vt)
			}
			second, _ := SelectBest(cs, vp)
			if first != second {
				t.Errorf("%s: selection not idempotent: %+v vs %+v", vt, first, second)
			}

			member := false
			for _, c := range cs {
				if c == first {
					member = true
					break
				}
			}
			if !member {
				t.Errorf("%s: selected %+v is not in the input set", vt, first)
			}
		}
	}
}

func TestSelectBest_DoesNotMutateInput(t *testing.T) {
	cs := twoSquares()
	SelectBest(cs, Viewport{Width: 300, Height: 300, Density: 1})
	if len(cs) != 2 || cs[0].URL != "a" || cs[1].URL != "b" {
		t.Errorf("Input set was modified: %+v", cs)
	}
}

func TestSelectBest_DefaultCatalogOriginal(t *testing.T) {
	cs := NewBuilder(DefaultCatalog(), nil).Build("abc123", VariantOriginal)

	tests := []struct {
		vp        Viewport
		wantLabel string
	}{
		// Density 2 is unavailable, so the first surviving candidate wins.
		{Viewport{Width: 375, Height: 667, Density: 2}, "thumb2x"},
		{Viewport{Width: 1000, Height: 800, Density: 1}, "big"},
		{Viewport{Width: 3000, Height: 1600, Density: 1}, "big2x"},
	}

	for _, tt := range tests {
		got, _ := SelectBest(cs, tt.vp)
		want := PlaceholderTemplate(DefaultURLPattern)("abc123", VariantOriginal, tt.wantLabel)
		if got.URL != want {
			t.Errorf("Viewport %+v: expected %s, got %s", tt.vp, want, got.URL)
		}
	}
}
