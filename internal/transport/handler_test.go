package transport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anime-shed/image-srcset-go/internal/config"
	"github.com/anime-shed/image-srcset-go/internal/markup"
	"github.com/anime-shed/image-srcset-go/internal/observer"
	"github.com/anime-shed/image-srcset-go/internal/repository"
	"github.com/anime-shed/image-srcset-go/internal/service"
	"github.com/anime-shed/image-srcset-go/internal/strategy"
	"github.com/anime-shed/image-srcset-go/internal/worker"
	"github.com/anime-shed/image-srcset-go/pkg/models"
	"github.com/anime-shed/image-srcset-go/pkg/srcset"

	"github.com/gin-gonic/gin"
)

const cdn = "http://d298edkwyoodbw.cloudfront.net/"

func newTestHandler(t *testing.T, maxBody int64) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		RequestTimeout:     5 * time.Second,
		MaxRequestBodySize: maxBody,
		DefaultViewport:    srcset.Viewport{Width: 1024, Height: 768, Density: 1},
	}

	publisher := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	publisher.Subscribe(metrics)

	pool := worker.NewPool(2)
	pool.Start()
	t.Cleanup(pool.Close)

	repo := repository.NewStaticCatalogRepository("builtin", srcset.DefaultCatalog())
	svc := service.NewSrcsetService(repo, nil, strategy.NewVariantContext(), publisher, pool)

	return NewHandler(svc, markup.NewRewriter(svc), metrics, pool, cfg)
}

func serve(h http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode %s: %v", w.Body.String(), err)
	}
}

func TestHealthCheck(t *testing.T) {
	w := serve(newTestHandler(t, 1<<20), "GET", "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var body map[string]string
	decode(t, w, &body)
	if body["status"] != "available" {
		t.Errorf("Unexpected body %v", body)
	}
}

func TestDescribeSrcset(t *testing.T) {
	h := newTestHandler(t, 1<<20)

	w := serve(h, "GET", "/srcset/abc?type=square", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp models.SrcsetResponse
	decode(t, w, &resp)
	if resp.VariantType != "square" || !strings.HasPrefix(resp.Srcset, cdn+"abc/square/thumb.jpg 60w") {
		t.Errorf("Unexpected response %+v", resp)
	}

	w = serve(h, "GET", "/srcset/abc?type=sqare", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", w.Code)
	}
	var errResp models.ErrorResponse
	decode(t, w, &errResp)
	if !strings.Contains(errResp.Details, "square") {
		t.Errorf("Expected a suggestion, got %+v", errResp)
	}
}

func TestBestImage(t *testing.T) {
	h := newTestHandler(t, 1<<20)

	tests := []struct {
		name    string
		target  string
		headers map[string]string
		url     string
	}{
		{"query viewport", "/images/abc/best?w=375&h=667&dpr=2", nil, cdn + "abc/original/thumb2x.jpg"},
		{"default viewport", "/images/abc/best", nil, cdn + "abc/original/big.jpg"},
		{
			"client hints auto",
			"/images/abc/best?type=auto",
			map[string]string{"Sec-CH-Viewport-Width": "390", "Sec-CH-Viewport-Height": "844", "Sec-CH-DPR": "3"},
			cdn + "abc/vertical/big.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(h, "GET", tt.target, "", tt.headers)
			if w.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
			}
			var resp models.BestImageResponse
			decode(t, w, &resp)
			if resp.Selected == nil || resp.Selected.URL != tt.url {
				t.Errorf("Expected %s, got %+v", tt.url, resp.Selected)
			}
			if !strings.Contains(w.Header().Get("Vary"), "Sec-CH-DPR") {
				t.Errorf("Expected Vary on client hints, got %q", w.Header().Get("Vary"))
			}
		})
	}
}

func TestBestImage_Redirect(t *testing.T) {
	w := serve(newTestHandler(t, 1<<20), "GET", "/images/abc/best?w=1000&h=800&redirect=1", "", nil)
	if w.Code != http.StatusFound {
		t.Fatalf("Expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != cdn+"abc/original/big.jpg" {
		t.Errorf("Unexpected Location %q", loc)
	}
}

func TestSelectCandidate(t *testing.T) {
	h := newTestHandler(t, 1<<20)

	w := serve(h, "POST", "/srcset/select", `{"srcset":"a.jpg 400w, b.jpg 800w, c.jpg","viewport":{"width":500,"height":500,"density":1}}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp models.SelectResponse
	decode(t, w, &resp)
	if !resp.Found || resp.Selected.URL != "b.jpg" {
		t.Errorf("Expected b.jpg, got %+v", resp)
	}

	w = serve(h, "POST", "/srcset/select", `{"candidates":[{"url":"x.jpg","width":null,"density":1},{"url":"y.jpg","width":300}]}`, map[string]string{"Sec-CH-Viewport-Width": "200"})
	decode(t, w, &resp)
	if !resp.Found || resp.Selected.URL != "y.jpg" || resp.Viewport.Width != 200 {
		t.Errorf("Expected y.jpg for a 200px viewport, got %+v", resp)
	}

	if w := serve(h, "POST", "/srcset/select", `{}`, nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for an empty request, got %d", w.Code)
	}
}

func TestSelectCandidate_RejectsNonPositiveDescriptors(t *testing.T) {
	h := newTestHandler(t, 1<<20)

	tests := []struct {
		name string
		body string
	}{
		{"negative density", `{"candidates":[{"url":"a.jpg","width":500,"density":-3},{"url":"b.jpg","width":800}]}`},
		{"zero width", `{"candidates":[{"url":"a.jpg","width":0}]}`},
		{"negative height", `{"candidates":[{"url":"a.jpg","width":400,"height":-10}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(h, "POST", "/srcset/select", tt.body, nil)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}

	w := serve(h, "POST", "/srcset/select", `{"candidates":[{"url":"a.jpg","width":null,"height":null},{"url":"b.jpg","width":800,"density":2}]}`, nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for null dimensions and positive density, got %d: %s", w.Code, w.Body.String())
	}
}

func TestParseSrcset(t *testing.T) {
	w := serve(newTestHandler(t, 1<<20), "POST", "/srcset/parse", `{"srcset":"a.jpg 100w 50h, b.jpg 2x, c.jpg 12z"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp models.ParseResponse
	decode(t, w, &resp)
	if len(resp.Candidates) != 3 || len(resp.Diagnostics) != 1 {
		t.Fatalf("Unexpected response %+v", resp)
	}
	if *resp.Candidates[0].Height != 50 || resp.Candidates[1].Width != nil || resp.Candidates[1].Density != 2 {
		t.Errorf("Unexpected candidates %+v", resp.Candidates)
	}
}

func TestBestImages(t *testing.T) {
	h := newTestHandler(t, 1<<20)

	w := serve(h, "POST", "/images/best", `{"images":[{"id":"a","type":"square"},{"id":"b"}],"viewport":{"width":100,"height":100,"density":1}}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp models.BatchResponse
	decode(t, w, &resp)
	if len(resp.Results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(resp.Results))
	}
	if resp.Results[0].Selected.URL != cdn+"a/square/thumb2x.jpg" || resp.Results[1].Selected.URL != cdn+"b/original/thumb.jpg" {
		t.Errorf("Unexpected results %+v", resp.Results)
	}

	if w := serve(h, "POST", "/images/best", `{"images":[]}`, nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for an empty batch, got %d", w.Code)
	}
}

func TestRewriteMarkup(t *testing.T) {
	body := `{"html":"<img data-srcset-id=\"abc\" data-srcset-type=\"square\">","viewport":{"width":800,"height":800,"density":1}}`
	w := serve(newTestHandler(t, 1<<20), "POST", "/markup/rewrite", body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp models.RewriteResponse
	decode(t, w, &resp)
	if resp.Rewritten != 1 || !strings.Contains(resp.HTML, `src="`+cdn+`abc/square/big2x.jpg"`) {
		t.Errorf("Unexpected response %+v", resp)
	}
}

func TestReloadCatalogAndMetrics(t *testing.T) {
	h := newTestHandler(t, 1<<20)

	w := serve(h, "POST", "/catalog/reload", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var meta repository.CatalogMetadata
	decode(t, w, &meta)
	if meta.Source != "builtin" || len(meta.VariantTypes) != 5 {
		t.Errorf("Unexpected metadata %+v", meta)
	}

	w = serve(h, "GET", "/metrics", "", nil)
	var body map[string]json.RawMessage
	decode(t, w, &body)
	if _, ok := body["events"]; !ok {
		t.Errorf("Expected events in %s", w.Body.String())
	}
	var stats worker.Stats
	if err := json.Unmarshal(body["workers"], &stats); err != nil || stats.Workers != 2 {
		t.Errorf("Unexpected worker stats %s", body["workers"])
	}
}

func TestRequestSizeLimit(t *testing.T) {
	h := newTestHandler(t, 16)

	w := serve(h, "POST", "/srcset/parse", `{"srcset":"a.jpg 100w, b.jpg 200w"}`, nil)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected 413, got %d", w.Code)
	}
}
