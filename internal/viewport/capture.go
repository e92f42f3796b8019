// Package viewport reads the requesting client's layout viewport from an
// HTTP request.
package viewport

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/anime-shed/image-srcset-go/pkg/srcset"
)

// Client hint headers, most specific first.
var (
	widthHeaders   = []string{"Sec-CH-Viewport-Width", "Viewport-Width"}
	heightHeaders  = []string{"Sec-CH-Viewport-Height"}
	densityHeaders = []string{"Sec-CH-DPR", "DPR"}
)

// Capture returns the viewport described by r. Query parameters w, h and
// dpr take precedence over client hints; each field missing or invalid in
// both falls back to the matching field of fallback.
func Capture(r *http.Request, fallback srcset.Viewport) srcset.Viewport {
	q := r.URL.Query()

	return srcset.Viewport{
		Width:   field(q.Get("w"), r.Header, widthHeaders, fallback.Width),
		Height:  field(q.Get("h"), r.Header, heightHeaders, fallback.Height),
		Density: field(q.Get("dpr"), r.Header, densityHeaders, fallback.Density),
	}
}

func field(query string, h http.Header, headers []string, fallback float64) float64 {
	if v, ok := parse(query); ok {
		return v
	}
	for _, name := range headers {
		if v, ok := parse(h.Get(name)); ok {
			return v
		}
	}
	return fallback
}

// parse accepts finite, strictly positive numbers. Client hints may be
// sent as quoted sf-decimal values.
func parse(raw string) (float64, bool) {
	raw = strings.Trim(strings.TrimSpace(raw), `"`)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return v, true
}
