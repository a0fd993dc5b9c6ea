package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/paywallsvc/domain"
)

// ContentHandlers handles public content catalog HTTP requests
type ContentHandlers struct {
	contentRepo domain.ContentRepository
}

// NewContentHandlers creates new content handlers
func NewContentHandlers(contentRepo domain.ContentRepository) *ContentHandlers {
	return &ContentHandlers{contentRepo: contentRepo}
}

// Get handles GET /content/:id. It returns the public summary used for
// checkout display; the object key never leaves the server.
func (h *ContentHandlers) Get(c *gin.Context) {
	content, err := h.contentRepo.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if err == domain.ErrContentNotFound {
			respondError(c, http.StatusNotFound, KindNotFound, "Content not found")
			return
		}
		respondError(c, http.StatusInternalServerError, KindInternal, "Failed to load content")
		return
	}
	if !content.Published {
		respondError(c, http.StatusNotFound, KindNotFound, "Content not found")
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"id":          content.ID,
		"title":       content.Title,
		"description": content.Description,
		"price_cents": content.PriceCents,
		"currency":    content.Currency,
	})
}
