package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	apperrors "github.com/anime-shed/image-srcset-go/internal/errors"
	"github.com/anime-shed/image-srcset-go/internal/logger"
	"github.com/anime-shed/image-srcset-go/internal/observer"
	"github.com/anime-shed/image-srcset-go/internal/repository"
	"github.com/anime-shed/image-srcset-go/internal/strategy"
	"github.com/anime-shed/image-srcset-go/internal/worker"
	"github.com/anime-shed/image-srcset-go/pkg/models"
	"github.com/anime-shed/image-srcset-go/pkg/srcset"

	"github.com/sirupsen/logrus"
)

// SrcsetService builds candidate sets from the size catalog and picks the
// best candidate for a viewport
type SrcsetService interface {
	// Build resolves requested against vp and returns the resolved variant
	// type with its candidates. Unknown explicit types are not_found errors.
	Build(ctx context.Context, id, requested string, vp srcset.Viewport) (string, srcset.CandidateSet, error)
	// Descriptor is Build rendered as an img srcset attribute
	Descriptor(ctx context.Context, id, requested string, vp srcset.Viewport) (*models.SrcsetResponse, error)

	Parse(ctx context.Context, descriptor string) *models.ParseResponse
	Select(ctx context.Context, cs srcset.CandidateSet, vp srcset.Viewport) (srcset.Candidate, bool)

	// Resolve picks the best candidate of an image. Unknown types fall back
	// to original.
	Resolve(ctx context.Context, id, requested string, vp srcset.Viewport) (*models.BestImageResponse, error)
	// ResolveBatch resolves every image concurrently, keeping request order
	ResolveBatch(ctx context.Context, images []models.BestImageRequest, vp srcset.Viewport) (*models.BatchResponse, error)

	VariantTypes(ctx context.Context) (*models.VariantsResponse, error)
	ReloadCatalog(ctx context.Context) (*repository.CatalogMetadata, error)
}

type srcsetService struct {
	catalogRepo repository.CatalogRepository
	template    srcset.URLTemplate
	variants    *strategy.VariantContext
	events      observer.Subject
	pool        *worker.Pool
}

// NewSrcsetService creates a new srcset service
func NewSrcsetService(
	catalogRepository repository.CatalogRepository,
	template srcset.URLTemplate,
	variants *strategy.VariantContext,
	events observer.Subject,
	pool *worker.Pool,
) SrcsetService {
	return &srcsetService{
		catalogRepo: catalogRepository,
		template:    template,
		variants:    variants,
		events:      events,
		pool:        pool,
	}
}

func (s *srcsetService) catalog(ctx context.Context) (srcset.SizeCatalog, error) {
	catalog, err := s.catalogRepo.Catalog(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewTimeoutError("size catalog load timed out", err)
		}
		if errors.Is(err, repository.ErrRepositoryUnavailable) {
			return nil, apperrors.NewNetworkError("size catalog source unreachable", err)
		}
		return nil, apperrors.NewCatalogError("size catalog unavailable", err)
	}
	return catalog, nil
}

func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.NewValidationError("image id is required", nil)
	}
	return nil
}

func (s *srcsetService) Build(ctx context.Context, id, requested string, vp srcset.Viewport) (string, srcset.CandidateSet, error) {
	if err := validateID(id); err != nil {
		return "", nil, err
	}

	catalog, err := s.catalog(ctx)
	if err != nil {
		return "", nil, err
	}

	if requested != "" && requested != srcset.VariantAuto && !catalog.Has(requested) {
		notFound := apperrors.NewNotFoundError(fmt.Sprintf("unknown variant type %q", requested), nil)
		if suggestion := catalog.Suggest(requested); suggestion != "" {
			notFound = notFound.WithDetails(fmt.Sprintf("did you mean %q?", suggestion))
		}
		return "", nil, notFound
	}

	variantType := s.variants.Resolve(requested, catalog, vp)
	return variantType, srcset.NewBuilder(catalog, s.template).Build(id, variantType), nil
}

func (s *srcsetService) Descriptor(ctx context.Context, id, requested string, vp srcset.Viewport) (*models.SrcsetResponse, error) {
	variantType, cs, err := s.Build(ctx, id, requested, vp)
	if err != nil {
		return nil, err
	}

	return &models.SrcsetResponse{
		ID:          id,
		VariantType: variantType,
		Srcset:      srcset.WidthDescriptor(cs),
		Candidates:  models.FromCandidateSet(cs),
	}, nil
}

func (s *srcsetService) Parse(ctx context.Context, descriptor string) *models.ParseResponse {
	sink := logger.DiagnosticSink(logger.WithField("component", "srcset_parser"))

	var diagnostics []models.Diagnostic
	cs := srcset.ParseWithDiagnostics(descriptor, func(d srcset.Diagnostic) {
		sink(d)
		diagnostics = append(diagnostics, models.Diagnostic{Entry: d.Entry, Token: d.Token, Reason: d.Reason})
	})

	if len(diagnostics) > 0 {
		s.events.NotifyObservers(ctx, observer.SelectionEvent{
			EventType:  observer.DescriptorInvalid,
			Candidates: len(cs),
			Metadata:   map[string]interface{}{"diagnostics": len(diagnostics)},
		})
	}

	return &models.ParseResponse{
		Candidates:  models.FromCandidateSet(cs),
		Diagnostics: diagnostics,
	}
}

func (s *srcsetService) Select(ctx context.Context, cs srcset.CandidateSet, vp srcset.Viewport) (srcset.Candidate, bool) {
	return s.selectBest(ctx, "", "", cs, vp)
}

func (s *srcsetService) selectBest(ctx context.Context, id, variantType string, cs srcset.CandidateSet, vp srcset.Viewport) (srcset.Candidate, bool) {
	start := time.Now()
	best, ok := srcset.SelectBest(cs, vp)

	event := observer.SelectionEvent{
		ImageID:        id,
		VariantType:    variantType,
		Candidates:     len(cs),
		ProcessingTime: time.Since(start),
	}
	if ok {
		event.EventType = observer.SelectionCompleted
		event.SelectedURL = best.URL
	} else {
		event.EventType = observer.SelectionEmpty
	}
	s.events.NotifyObservers(ctx, event)

	return best, ok
}

func (s *srcsetService) Resolve(ctx context.Context, id, requested string, vp srcset.Viewport) (*models.BestImageResponse, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	catalog, err := s.catalog(ctx)
	if err != nil {
		return nil, err
	}

	return s.resolve(ctx, catalog, id, requested, vp)
}

func (s *srcsetService) resolve(ctx context.Context, catalog srcset.SizeCatalog, id, requested string, vp srcset.Viewport) (*models.BestImageResponse, error) {
	variantType := s.variants.Resolve(requested, catalog, vp)
	cs := srcset.NewBuilder(catalog, s.template).Build(id, variantType)

	response := &models.BestImageResponse{
		ID:            id,
		RequestedType: requested,
		VariantType:   variantType,
		Viewport:      vp,
		Srcset:        srcset.WidthDescriptor(cs),
	}

	best, ok := s.selectBest(ctx, id, variantType, cs, vp)
	if !ok {
		return response, apperrors.NewNotFoundError(fmt.Sprintf("no candidates registered for variant type %q", variantType), nil)
	}

	selected := models.FromCandidate(best)
	response.Found = true
	response.Selected = &selected
	return response, nil
}

func (s *srcsetService) ResolveBatch(ctx context.Context, images []models.BestImageRequest, vp srcset.Viewport) (*models.BatchResponse, error) {
	catalog, err := s.catalog(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]models.BatchResult, len(images))
	var wg sync.WaitGroup

	for i, img := range images {
		i, img := i, img
		job := func() {
			defer wg.Done()
			results[i] = s.batchResult(ctx, catalog, img, vp)
		}

		wg.Add(1)
		if !s.pool.Submit(job) {
			job()
		}
	}
	wg.Wait()

	logger.WithFields(logrus.Fields{
		"images":   len(images),
		"viewport": vp,
	}).Debug("Batch resolved")

	return &models.BatchResponse{Results: results}, nil
}

func (s *srcsetService) batchResult(ctx context.Context, catalog srcset.SizeCatalog, img models.BestImageRequest, vp srcset.Viewport) models.BatchResult {
	if err := validateID(img.ID); err != nil {
		return models.BatchResult{BestImageResponse: models.BestImageResponse{ID: img.ID, RequestedType: img.Type, Viewport: vp}, Error: err.Error()}
	}

	response, err := s.resolve(ctx, catalog, img.ID, img.Type, vp)
	result := models.BatchResult{BestImageResponse: *response}
	if err != nil {
		result.Error = err.Error()
	}
	return result
}

func (s *srcsetService) VariantTypes(ctx context.Context) (*models.VariantsResponse, error) {
	catalog, err := s.catalog(ctx)
	if err != nil {
		return nil, err
	}

	response := &models.VariantsResponse{Variants: make([]models.Variant, 0, len(catalog))}
	if meta := s.catalogRepo.Metadata(); meta != nil {
		response.Source = meta.Source
		response.LoadedAt = meta.LoadedAt
	}

	for _, t := range catalog.VariantTypes() {
		sizes, _ := catalog.Sizes(t)
		variant := models.Variant{Type: t, Sizes: make([]models.Size, 0, len(sizes))}
		for _, size := range sizes {
			variant.Sizes = append(variant.Sizes, models.Size{Label: size.Label, Width: size.Width, Height: size.Height})
		}
		response.Variants = append(response.Variants, variant)
	}
	return response, nil
}

func (s *srcsetService) ReloadCatalog(ctx context.Context) (*repository.CatalogMetadata, error) {
	start := time.Now()
	meta, err := s.catalogRepo.Reload(ctx)
	if err != nil {
		s.events.NotifyObservers(ctx, observer.SelectionEvent{
			EventType:      observer.CatalogReloadFailed,
			ProcessingTime: time.Since(start),
			ErrorMessage:   err.Error(),
		})
		if errors.Is(err, repository.ErrInvalidCatalog) || errors.Is(err, repository.ErrEmptyCatalog) {
			return nil, apperrors.NewCatalogError("size catalog rejected", err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewTimeoutError("size catalog reload timed out", err)
		}
		if errors.Is(err, repository.ErrRepositoryUnavailable) {
			return nil, apperrors.NewNetworkError("size catalog source unreachable", err)
		}
		return nil, apperrors.NewCatalogError("size catalog reload failed", err)
	}

	s.events.NotifyObservers(ctx, observer.SelectionEvent{
		EventType:      observer.CatalogReloaded,
		ProcessingTime: time.Since(start),
		Metadata: map[string]interface{}{
			"source":        meta.Source,
			"variant_types": len(meta.VariantTypes),
			"sizes":         meta.Sizes,
		},
	})
	return meta, nil
}
