// Package srcset models responsive image candidates and picks the one best
// suited to a display context, following the semantics of the browser srcset
// selection algorithm.
//
// # Candidates
//
// A Candidate is one image variant: a URL plus its intrinsic width, height
// and pixel density. Width and height are +Inf when unknown. Candidates are
// produced either by a Builder, from a SizeCatalog and a URLTemplate, or by
// Parse, from a descriptor string such as
//
//	img1.jpg 200w, img2.jpg 400w 2x
//
// Format is the inverse of Parse for every candidate a Builder produces.
//
// # Selection
//
// SelectBest narrows a CandidateSet in six passes:
//
//  1. keep candidates at least as wide as the viewport (else the widest)
//  2. keep candidates at least as tall as the viewport (else the tallest)
//  3. keep candidates with at least the viewport density (else the densest)
//  4. keep only the narrowest survivors
//  5. keep only the shortest survivors
//  6. keep only the lowest-density survivors
//
// The first survivor wins, so ties are always broken by input order.
//
// # Thread Safety
//
// Every function in this package is pure. Builders, catalogs and candidate
// sets are never mutated after construction and may be shared between
// goroutines.
package srcset
