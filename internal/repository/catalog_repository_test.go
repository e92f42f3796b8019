package repository

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/anime-shed/image-srcset-go/pkg/srcset"
)

const squareYAML = `
square:
  thumb: [60, 60]
  small: [90, 90]
  thumb2x: [120, 120]
original:
  thumb: [240, 0]
`

type stubFetcher struct {
	mu    sync.Mutex
	data  []string
	err   error
	calls int
}

func (s *stubFetcher) FetchCatalog(ctx context.Context, location string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	doc := s.data[0]
	if len(s.data) > 1 {
		s.data = s.data[1:]
	}
	return []byte(doc), nil
}

func TestDecodeCatalog_PreservesOrder(t *testing.T) {
	catalog, err := DecodeCatalog([]byte(squareYAML))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	square, ok := catalog.Sizes("square")
	if !ok {
		t.Fatal("Expected square variant type")
	}
	want := []srcset.Size{{Label: "thumb", Width: 60, Height: 60}, {Label: "small", Width: 90, Height: 90}, {Label: "thumb2x", Width: 120, Height: 120}}
	if len(square) != len(want) {
		t.Fatalf("Expected %d sizes, got %d", len(want), len(square))
	}
	for i := range want {
		if square[i] != want[i] {
			t.Errorf("Size %d: expected %+v, got %+v", i, want[i], square[i])
		}
	}

	original, _ := catalog.Sizes("original")
	if len(original) != 1 || original[0].Height != 0 {
		t.Errorf("Unexpected original sizes %+v", original)
	}
}

func TestDecodeCatalog_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"empty", "", "empty document"},
		{"not a mapping", "- square", "mapping of variant types"},
		{"sizes not a mapping", "square: [1, 2]", "mapping of size labels"},
		{"three dimensions", "square:\n  thumb: [1, 2, 3]", "[width, height]"},
		{"text dimension", "square:\n  thumb: [wide, 2]", "[width, height]"},
		{"negative", "square:\n  thumb: [-1, 2]", "negative"},
		{"duplicate label", "square:\n  thumb: [1, 1]\n  thumb: [2, 2]", "duplicate size label"},
		{"duplicate variant", "square:\n  a: [1, 1]\nsquare:\n  b: [2, 2]", "duplicate variant type"},
		{"syntax", "square: [", "invalid size catalog"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCatalog([]byte(tt.doc))
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !errors.Is(err, ErrInvalidCatalog) {
				t.Errorf("Expected ErrInvalidCatalog, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestEncodeCatalog_RoundTrip(t *testing.T) {
	data, err := EncodeCatalog(srcset.DefaultCatalog())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	decoded, err := DecodeCatalog(data)
	if err != nil {
		t.Fatalf("Unexpected decode error: %v\n%s", err, data)
	}

	want := srcset.DefaultCatalog()
	for _, vt := range want.VariantTypes() {
		got, _ := decoded.Sizes(vt)
		if len(got) != len(want[vt]) {
			t.Fatalf("%s: expected %d sizes, got %d", vt, len(want[vt]), len(got))
		}
		for i := range got {
			if got[i] != want[vt][i] {
				t.Errorf("%s[%d]: expected %+v, got %+v", vt, i, want[vt][i], got[i])
			}
		}
	}
}

func TestFetchedCatalogRepository_CachesUntilReload(t *testing.T) {
	fetcher := &stubFetcher{data: []string{squareYAML, "vertical:\n  thumb: [75, 105]\n"}}
	repo := NewFetchedCatalogRepository(fetcher, "http", "https://config.example.com/sizes.yaml")

	if repo.Metadata() != nil {
		t.Error("Expected no metadata before the first load")
	}

	for i := 0; i < 3; i++ {
		catalog, err := repo.Catalog(context.Background())
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !catalog.Has("square") {
			t.Errorf("Expected square in cached catalog")
		}
	}
	if fetcher.calls != 1 {
		t.Errorf("Expected 1 fetch, got %d", fetcher.calls)
	}

	meta, err := repo.Reload(context.Background())
	if err != nil {
		t.Fatalf("Unexpected reload error: %v", err)
	}
	if len(meta.VariantTypes) != 1 || meta.VariantTypes[0] != "vertical" || meta.Sizes != 1 {
		t.Errorf("Unexpected metadata %+v", meta)
	}

	catalog, _ := repo.Catalog(context.Background())
	if !catalog.Has("vertical") || catalog.Has("square") {
		t.Errorf("Expected reloaded catalog, got %v", catalog.VariantTypes())
	}
}

func TestFetchedCatalogRepository_FailedReloadKeepsCatalog(t *testing.T) {
	fetcher := &stubFetcher{data: []string{squareYAML}}
	repo := NewFetchedCatalogRepository(fetcher, "local", "/etc/sizes.yaml")

	if _, err := repo.Catalog(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	fetcher.err = errors.New("connection refused")
	if _, err := repo.Reload(context.Background()); !errors.Is(err, ErrRepositoryUnavailable) {
		t.Errorf("Expected ErrRepositoryUnavailable, got %v", err)
	}

	catalog, err := repo.Catalog(context.Background())
	if err != nil || !catalog.Has("square") {
		t.Errorf("Expected previous catalog to survive, got %v, %v", catalog, err)
	}
}

func TestFetchedCatalogRepository_EmptyCatalog(t *testing.T) {
	repo := NewFetchedCatalogRepository(&stubFetcher{data: []string{"{}"}}, "local", "sizes.yaml")
	if _, err := repo.Catalog(context.Background()); !errors.Is(err, ErrEmptyCatalog) {
		t.Errorf("Expected ErrEmptyCatalog, got %v", err)
	}
}

func TestStaticCatalogRepository(t *testing.T) {
	repo := NewStaticCatalogRepository("builtin", srcset.DefaultCatalog())

	catalog, err := repo.Catalog(context.Background())
	if err != nil || len(catalog) != 5 {
		t.Errorf("Expected 5 variant types, got %d (%v)", len(catalog), err)
	}
	meta, _ := repo.Reload(context.Background())
	if meta.Source != "builtin" || meta.Sizes != 40 {
		t.Errorf("Unexpected metadata %+v", meta)
	}
}
