package v1

import (
	"net/http"

	"github.com/clinicdesk/clinicdesk/internal/domain"
	"github.com/clinicdesk/clinicdesk/internal/domain/content"
	"github.com/clinicdesk/clinicdesk/internal/middleware"
	"github.com/clinicdesk/clinicdesk/internal/service"
	"github.com/gin-gonic/gin"
)

type ContentHandler struct {
	svc *service.ContentService
}

func NewContentHandler(svc *service.ContentService) *ContentHandler {
	return &ContentHandler{svc: svc}
}

type createArticleRequest struct {
	Kind      string `json:"kind" binding:"required,oneof=news disease invention"`
	Title     string `json:"title" binding:"required,max=200"`
	Slug      string `json:"slug"`
	Summary   string `json:"summary"`
	Body      string `json:"body" binding:"required"`
	ImagePath string `json:"image_path"`
	Published bool   `json:"published"`
}

func (h *ContentHandler) Create(c *gin.Context) {
	claims, ok := callerClaims(c)
	if !ok {
		return
	}

	var req createArticleRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.svc.CreateArticle(c.Request.Context(), &content.CreateArticleCommand{
		Kind:      content.Kind(req.Kind),
		Title:     req.Title,
		Slug:      req.Slug,
		Summary:   req.Summary,
		Body:      req.Body,
		ImagePath: req.ImagePath,
		Published: req.Published,
		AuthorID:  claims.UserID,
	}, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, a)
}

func (h *ContentHandler) GetBySlug(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "slug is required"})
		return
	}

	a, err := h.svc.GetArticleBySlug(c.Request.Context(), slug)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, a)
}

type updateArticleRequest struct {
	Title     *string `json:"title" binding:"omitempty,max=200"`
	Summary   *string `json:"summary"`
	Body      *string `json:"body"`
	ImagePath *string `json:"image_path"`
	Published *bool   `json:"published"`
}

func (h *ContentHandler) Update(c *gin.Context) {
	claims, ok := callerClaims(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updateArticleRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.svc.UpdateArticle(c.Request.Context(), id, &content.UpdateArticleCommand{
		Title:     req.Title,
		Summary:   req.Summary,
		Body:      req.Body,
		ImagePath: req.ImagePath,
		Published: req.Published,
		UpdatedBy: claims.UserID,
	}, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, a)
}

func (h *ContentHandler) Delete(c *gin.Context) {
	claims, ok := callerClaims(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteArticle(c.Request.Context(), id, claims.UserID, string(claims.Role), c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"deleted": true})
}

// List serves the public feed. Unauthenticated callers only ever see
// published articles.
func (h *ContentHandler) List(c *gin.Context) {
	q := &content.ListArticlesQuery{
		PublishedOnly: true,
		Page:          parseQueryInt(c, "page", 1),
		PageSize:      parseQueryInt(c, "page_size", 20),
	}
	if raw := c.Query("kind"); raw != "" {
		k := content.Kind(raw)
		if !k.IsValid() {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid kind filter"})
			return
		}
		q.Kind = &k
	}
	if claims, ok := middleware.ClaimsFromContext(c); ok && claims.Role == domain.RoleAdmin && c.Query("include_drafts") == "true" {
		q.PublishedOnly = false
	}

	paged, err := h.svc.ListArticles(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{
		"articles":    paged.Articles,
		"total_count": paged.TotalCount,
		"page":        paged.Page,
		"page_size":   paged.PageSize,
		"total_pages": paged.TotalPages,
	})
}
