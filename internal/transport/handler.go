package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/anime-shed/image-srcset-go/internal/config"
	apperrors "github.com/anime-shed/image-srcset-go/internal/errors"
	"github.com/anime-shed/image-srcset-go/internal/logger"
	"github.com/anime-shed/image-srcset-go/internal/markup"
	"github.com/anime-shed/image-srcset-go/internal/observer"
	"github.com/anime-shed/image-srcset-go/internal/service"
	"github.com/anime-shed/image-srcset-go/internal/viewport"
	"github.com/anime-shed/image-srcset-go/internal/worker"
	"github.com/anime-shed/image-srcset-go/pkg/models"
	"github.com/anime-shed/image-srcset-go/pkg/srcset"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const version = "1.0.0"

// NewHandler wires the HTTP routes
func NewHandler(
	svc service.SrcsetService,
	rewriter *markup.Rewriter,
	metrics *observer.MetricsObserver,
	pool *worker.Pool,
	cfg *config.Config,
) http.Handler {
	r := gin.Default()

	// Add middleware
	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		requestTimeout(cfg.RequestTimeout),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck)
	r.GET("/metrics", metricsReport(metrics, pool))
	r.GET("/variants", listVariants(svc))

	r.GET("/srcset/:id", describeSrcset(svc, cfg))
	r.POST("/srcset/parse", parseSrcset(svc))
	r.POST("/srcset/select", selectCandidate(svc, cfg))

	r.GET("/images/:id/best", bestImage(svc, cfg))
	r.POST("/images/best", bestImages(svc, cfg))

	r.POST("/markup/rewrite", rewriteMarkup(rewriter, cfg))
	r.POST("/catalog/reload", reloadCatalog(svc))

	return r
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func metricsReport(metrics *observer.MetricsObserver, pool *worker.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"events":  metrics.GetMetrics(),
			"workers": pool.GetStats(),
		})
	}
}

func listVariants(svc service.SrcsetService) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := svc.VariantTypes(c.Request.Context())
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "failed to list variant types", err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func describeSrcset(svc service.SrcsetService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		vp := viewport.Capture(c.Request, cfg.DefaultViewport)

		resp, err := svc.Descriptor(c.Request.Context(), c.Param("id"), c.Query("type"), vp)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "failed to build srcset", err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func parseSrcset(svc service.SrcsetService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ParseRequest
		if !bindJSON(c, &req) {
			return
		}
		c.JSON(http.StatusOK, svc.Parse(c.Request.Context(), req.Srcset))
	}
}

func selectCandidate(svc service.SrcsetService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SelectRequest
		if !bindJSON(c, &req) {
			return
		}
		if len(req.Candidates) == 0 && req.Srcset == "" {
			err := apperrors.NewValidationError("either candidates or srcset is required", nil)
			respondError(c, err.StatusCode, "invalid request format", err)
			return
		}

		ctx := c.Request.Context()
		cs := models.ToCandidateSet(req.Candidates)
		if len(cs) == 0 {
			cs = models.ToCandidateSet(svc.Parse(ctx, req.Srcset).Candidates)
		}

		vp := requestViewport(c, req.Viewport, cfg)
		resp := models.SelectResponse{Viewport: vp}
		if best, ok := svc.Select(ctx, cs, vp); ok {
			selected := models.FromCandidate(best)
			resp.Found = true
			resp.Selected = &selected
		}
		c.JSON(http.StatusOK, resp)
	}
}

func bestImage(svc service.SrcsetService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		vp := viewport.Capture(c.Request, cfg.DefaultViewport)
		id := c.Param("id")

		logger.WithFields(logrus.Fields{
			"id":       id,
			"type":     c.Query("type"),
			"viewport": vp,
			"ip":       c.ClientIP(),
		}).Debug("Resolving best image")

		resp, err := svc.Resolve(c.Request.Context(), id, c.Query("type"), vp)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "failed to resolve image", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"id":                 id,
			"variant_type":       resp.VariantType,
			"selected_url":       resp.Selected.URL,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Best image resolved")

		// Responses depend on the viewport client hints
		c.Header("Vary", "Sec-CH-Viewport-Width, Viewport-Width, Sec-CH-Viewport-Height, Sec-CH-DPR, DPR")

		if c.Query("redirect") == "1" || c.Query("redirect") == "true" {
			c.Redirect(http.StatusFound, resp.Selected.URL)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func bestImages(svc service.SrcsetService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.BatchRequest
		if !bindJSON(c, &req) {
			return
		}

		resp, err := svc.ResolveBatch(c.Request.Context(), req.Images, requestViewport(c, req.Viewport, cfg))
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "failed to resolve images", err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func rewriteMarkup(rewriter *markup.Rewriter, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RewriteRequest
		if !bindJSON(c, &req) {
			return
		}

		out, n, err := rewriter.Rewrite(c.Request.Context(), req.HTML, requestViewport(c, req.Viewport, cfg))
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "failed to rewrite markup", err)
			return
		}
		c.JSON(http.StatusOK, models.RewriteResponse{HTML: out, Rewritten: n})
	}
}

func reloadCatalog(svc service.SrcsetService) gin.HandlerFunc {
	return func(c *gin.Context) {
		meta, err := svc.ReloadCatalog(c.Request.Context())
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "failed to reload size catalog", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"source":        meta.Source,
			"variant_types": meta.VariantTypes,
			"ip":            c.ClientIP(),
		}).Info("Size catalog reloaded")

		c.JSON(http.StatusOK, meta)
	}
}

// requestViewport prefers a viewport sent in the body over the one
// captured from the query and client hints
func requestViewport(c *gin.Context, body *srcset.Viewport, cfg *config.Config) srcset.Viewport {
	if body != nil {
		return *body
	}
	return viewport.Capture(c.Request, cfg.DefaultViewport)
}

func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"ip": c.ClientIP(),
		}).Error("Invalid request format")

		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondError(c, http.StatusRequestEntityTooLarge, "request body too large", err)
			return false
		}
		respondError(c, http.StatusBadRequest, "invalid request format", err)
		return false
	}
	return true
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func requestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last().Err
			respondError(c, determineStatusCode(err), "request processing failed", err)
		}
	}
}

func determineStatusCode(err error) int {
	// Check if it's a custom app error first
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	// Fallback to context-based errors
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	// Log the error with context
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	resp := models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		resp.Details = appErr.Details
	}

	c.AbortWithStatusJSON(code, resp)
}
