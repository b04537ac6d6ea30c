// Package api exposes the editor over a JSON HTTP API. It is the surface the
// browser front end renders from.
package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pevans/newsdesk/article"
	"github.com/pevans/newsdesk/gateway"
	"github.com/pevans/newsdesk/media"
	"github.com/pevans/newsdesk/preview"
	"github.com/pevans/newsdesk/search"
	"github.com/pevans/newsdesk/store"
)

// maxUploadSize caps a single uploaded file.
const maxUploadSize = 32 << 20

// Server serves the editor API.
type Server struct {
	store    *store.Store
	gateway  *gateway.Gateway
	uploader media.Uploader
	logger   *slog.Logger

	// UploadsDir, when set, is served under /uploads so images stored by a
	// DirUploader are reachable.
	UploadsDir string

	// Now is the clock used for preview ages.
	Now func() time.Time
}

// NewServer creates an API server. uploader may be nil, in which case
// uploads are refused.
func NewServer(s *store.Store, g *gateway.Gateway, uploader media.Uploader, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:    s,
		gateway:  g,
		uploader: uploader,
		logger:   logger,
		Now:      time.Now,
	}
}

// SetupRouter configures the Gin router with all editor routes.
func (s *Server) SetupRouter() *gin.Engine {
	router := gin.New()
	// Image ids are URLs; clients escape their slashes in media paths.
	router.UseRawPath = true
	router.Use(gin.Recovery())
	router.Use(s.requestLogger())

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	if s.UploadsDir != "" {
		router.Static("/uploads", s.UploadsDir)
	}

	api := router.Group("/api/v1")
	api.GET("/taxonomy", s.HandleTaxonomy)
	api.GET("/articles", s.HandleListArticles)
	api.POST("/articles", s.HandleCreateArticle)
	api.GET("/articles/:id", s.HandleGetArticle)
	api.GET("/articles/:id/events", s.HandleArticleEvents)
	api.PATCH("/articles/:id", s.HandleUpdateArticle)
	api.POST("/articles/:id/media", s.HandleAttachMedia)
	api.POST("/articles/:id/uploads", s.HandleUpload)
	api.DELETE("/articles/:id/media/:kind/:mid", s.HandleDetachMedia)
	api.POST("/articles/:id/publish", s.HandlePublish)
	api.POST("/articles/:id/remove", s.HandleRemove)

	return router
}

// requestLogger tags each request with an id and logs its outcome.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)

		c.Next()

		s.logger.Info("request",
			"id", requestID,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// ArticleResponse is an article with its resolved media.
type ArticleResponse struct {
	Article article.Snapshot   `json:"article"`
	Media   []media.Attachment `json:"media"`
}

// ListArticlesResponse represents the response for GET /api/v1/articles.
type ListArticlesResponse struct {
	Articles []preview.Preview `json:"articles"`
	Total    int               `json:"total"`
	Warnings []string          `json:"warnings,omitempty"`
}

// UpdateArticleRequest represents the request for PATCH
// /api/v1/articles/{id}.
type UpdateArticleRequest struct {
	Field string `json:"field" binding:"required"`
	Value any    `json:"value"`
}

// AttachMediaRequest represents the request for POST
// /api/v1/articles/{id}/media.
type AttachMediaRequest struct {
	URL string `json:"url" binding:"required"`
}

// AttachMediaResponse represents the response for POST
// /api/v1/articles/{id}/media.
type AttachMediaResponse struct {
	Attachment media.Attachment `json:"attachment"`
	Article    article.Snapshot `json:"article"`
}

// SkippedUpload names a file that was not attached.
type SkippedUpload struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// UploadResponse represents the response for POST
// /api/v1/articles/{id}/uploads.
type UploadResponse struct {
	Attached []media.Attachment `json:"attached"`
	Skipped  []SkippedUpload    `json:"skipped,omitempty"`
	Article  article.Snapshot   `json:"article"`
}

// SyncResponse represents the response for publish and remove.
type SyncResponse struct {
	Path      string           `json:"path"`
	Applied   bool             `json:"applied"`
	Drift     bool             `json:"drift"`
	StalePath string           `json:"stale_path,omitempty"`
	Article   article.Snapshot `json:"article"`
}

// errorResponse creates a standardized error response.
func errorResponse(code, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

// handleError maps domain errors to HTTP responses.
func (s *Server) handleError(c *gin.Context, err error) {
	var (
		validationErr *article.ValidationError
		categoryErr   *article.AmbiguousCategoryError
		syncErr       *gateway.SyncError
		uploadErr     *media.UploadError
	)

	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse("not_found", err.Error()))
	case errors.As(err, &validationErr), errors.As(err, &categoryErr):
		c.JSON(http.StatusBadRequest, errorResponse("validation_error", err.Error()))
	case errors.Is(err, gateway.ErrSyncInProgress):
		c.JSON(http.StatusConflict, errorResponse("conflict", err.Error()))
	case errors.As(err, &syncErr):
		s.logger.Error("sync failed", "op", syncErr.Op, "path", syncErr.Path.String(), "error", syncErr.Err)
		c.JSON(http.StatusBadGateway, errorResponse("sync_error", err.Error()))
	case errors.As(err, &uploadErr):
		s.logger.Error("upload failed", "name", uploadErr.Name, "error", err)
		c.JSON(http.StatusBadGateway, errorResponse("upload_error", err.Error()))
	default:
		s.logger.Error("request failed", "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to process request"))
	}
}

func (s *Server) articleResponse(a *article.Article) ArticleResponse {
	return ArticleResponse{Article: a.Snapshot(), Media: a.Media()}
}

// HandleTaxonomy handles GET /api/v1/taxonomy.
func (s *Server) HandleTaxonomy(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"taxonomy": s.store.Config().Taxonomy})
}

// HandleListArticles handles GET /api/v1/articles.
func (s *Server) HandleListArticles(c *gin.Context) {
	q := search.Parse(c.Query("q"))

	var warnings []string
	for _, err := range q.Validate(append(article.Fields(), article.FieldPublished)) {
		warnings = append(warnings, err.Error())
	}

	previews := preview.BuildAll(s.store.Filter(q), s.Now())
	c.JSON(http.StatusOK, ListArticlesResponse{
		Articles: previews,
		Total:    len(previews),
		Warnings: warnings,
	})
}

// HandleCreateArticle handles POST /api/v1/articles.
func (s *Server) HandleCreateArticle(c *gin.Context) {
	a, err := s.store.Create()
	if err != nil {
		s.handleError(c, err)
		return
	}
	a.RefreshDate()

	c.JSON(http.StatusCreated, s.articleResponse(a))
}

// HandleGetArticle handles GET /api/v1/articles/{id}. Opening an article
// refreshes its display date.
func (s *Server) HandleGetArticle(c *gin.Context) {
	a, err := s.store.Get(c.Param("id"))
	if err != nil {
		s.handleError(c, err)
		return
	}
	a.RefreshDate()

	c.JSON(http.StatusOK, s.articleResponse(a))
}

// HandleUpdateArticle handles PATCH /api/v1/articles/{id}.
func (s *Server) HandleUpdateArticle(c *gin.Context) {
	a, err := s.store.Get(c.Param("id"))
	if err != nil {
		s.handleError(c, err)
		return
	}

	var req UpdateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("validation_error", err.Error()))
		return
	}

	if err := a.SetField(req.Field, req.Value); err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, s.articleResponse(a))
}

// HandleAttachMedia handles POST /api/v1/articles/{id}/media.
func (s *Server) HandleAttachMedia(c *gin.Context) {
	a, err := s.store.Get(c.Param("id"))
	if err != nil {
		s.handleError(c, err)
		return
	}

	var req AttachMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("validation_error", err.Error()))
		return
	}

	att, err := a.AttachMedia(req.URL, true)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, AttachMediaResponse{Attachment: att, Article: a.Snapshot()})
}

// HandleUpload handles POST /api/v1/articles/{id}/uploads. Every file in the
// "image" field is uploaded, then all are attached in order; files that are
// not images are skipped and reported. If any upload fails nothing is
// attached.
func (s *Server) HandleUpload(c *gin.Context) {
	if s.uploader == nil {
		c.JSON(http.StatusNotImplemented, errorResponse("not_implemented", "No upload service configured"))
		return
	}

	a, err := s.store.Get(c.Param("id"))
	if err != nil {
		s.handleError(c, err)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("validation_error", "Expected multipart form with image files"))
		return
	}
	files := form.File["image"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, errorResponse("validation_error", "No image files in request"))
		return
	}

	resp := UploadResponse{Attached: []media.Attachment{}}
	var urls []string
	for _, fh := range files {
		if fh.Size > maxUploadSize {
			resp.Skipped = append(resp.Skipped, SkippedUpload{Name: fh.Filename, Reason: "file too large"})
			continue
		}

		f, err := fh.Open()
		if err != nil {
			resp.Skipped = append(resp.Skipped, SkippedUpload{Name: fh.Filename, Reason: err.Error()})
			continue
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			resp.Skipped = append(resp.Skipped, SkippedUpload{Name: fh.Filename, Reason: err.Error()})
			continue
		}

		var rejected *media.UploadError
		if _, err := media.CheckImage(fh.Filename, data); errors.As(err, &rejected) {
			resp.Skipped = append(resp.Skipped, SkippedUpload{Name: fh.Filename, Reason: rejected.Reason})
			continue
		}

		hosted, err := s.uploader.Upload(c.Request.Context(), fh.Filename, data)
		if err != nil {
			s.handleError(c, err)
			return
		}
		urls = append(urls, hosted)
	}

	// Attach only once every upload has succeeded, so a failed request
	// leaves the article untouched.
	for _, hosted := range urls {
		att, err := a.AttachMedia(hosted, true)
		if err != nil {
			s.handleError(c, err)
			return
		}
		resp.Attached = append(resp.Attached, att)
	}

	resp.Article = a.Snapshot()
	c.JSON(http.StatusOK, resp)
}

// HandleDetachMedia handles DELETE /api/v1/articles/{id}/media/{kind}/{mid}.
// For image URLs the id must be path-escaped by the client.
func (s *Server) HandleDetachMedia(c *gin.Context) {
	a, err := s.store.Get(c.Param("id"))
	if err != nil {
		s.handleError(c, err)
		return
	}

	kind, err := media.ParseKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("validation_error", err.Error()))
		return
	}

	removed, err := a.DetachMedia(kind, c.Param("mid"))
	if err != nil {
		s.handleError(c, err)
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, errorResponse("not_found", "Media not attached to article"))
		return
	}

	c.JSON(http.StatusOK, s.articleResponse(a))
}

// HandlePublish handles POST /api/v1/articles/{id}/publish.
func (s *Server) HandlePublish(c *gin.Context) {
	a, err := s.store.Get(c.Param("id"))
	if err != nil {
		s.handleError(c, err)
		return
	}

	res, err := s.gateway.Publish(c.Request.Context(), a)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, syncResponse(res, a))
}

// HandleRemove handles POST /api/v1/articles/{id}/remove.
func (s *Server) HandleRemove(c *gin.Context) {
	a, err := s.store.Get(c.Param("id"))
	if err != nil {
		s.handleError(c, err)
		return
	}

	res, err := s.gateway.Remove(c.Request.Context(), a)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, syncResponse(res, a))
}

func syncResponse(res gateway.Result, a *article.Article) SyncResponse {
	resp := SyncResponse{
		Path:    res.Path.String(),
		Applied: res.Applied,
		Drift:   res.Drift,
		Article: a.Snapshot(),
	}
	if res.Drift {
		resp.StalePath = res.StalePath.String()
	}
	return resp
}
