package website

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/liliang-cn/webchat/internal/domain"
	"github.com/liliang-cn/webchat/internal/service"
)

// Handler serves the /api/websites endpoints
type Handler struct {
	websiteService *service.WebsiteService
}

// NewHandler creates a new website handler
func NewHandler(websiteService *service.WebsiteService) *Handler {
	return &Handler{websiteService: websiteService}
}

// RegisterRoutes registers website routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/", h.List)
	r.GET("/system_info/", h.SystemInfo)
	r.POST("/scrape/", h.Scrape)
	r.POST("/chat/", h.Chat)
	r.POST("/delete_vectorized_data/", h.Delete)
	r.POST("/cleanup_databases/", h.Cleanup)
}

type vectorRequest struct {
	VectorDBID domain.ID `json:"vector_db_id"`
	Query      string    `json:"query"`
}

// List returns every stored website
func (h *Handler) List(c *gin.Context) {
	sites, err := h.websiteService.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, sites)
}

// SystemInfo reports LLM availability and the vectorized databases
func (h *Handler) SystemInfo(c *gin.Context) {
	info, err := h.websiteService.SystemInfo(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, info)
}

// Scrape records a website and assigns its vector database
func (h *Handler) Scrape(c *gin.Context) {
	var req domain.ScrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL is required"})
		return
	}

	result, err := h.websiteService.Scrape(c.Request.Context(), req.URL)
	if err != nil {
		writeError(c, err, "An error occurred during the scraping process: ")
		return
	}

	c.JSON(http.StatusOK, result)
}

// Chat answers a question about a vectorized website
func (h *Handler) Chat(c *gin.Context) {
	var req vectorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vector_db_id and query are required"})
		return
	}

	answer, err := h.websiteService.Chat(c.Request.Context(), req.VectorDBID.String(), req.Query)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Vector database not found. Please check if the website was properly vectorized."})
			return
		}
		writeError(c, err, "An error occurred: ")
		return
	}

	c.JSON(http.StatusOK, answer)
}

// Delete removes a website and its vectorized data
func (h *Handler) Delete(c *gin.Context) {
	var req vectorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vector_db_id is required"})
		return
	}

	result, err := h.websiteService.Delete(c.Request.Context(), req.VectorDBID.String())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Website not found in database"})
			return
		}
		writeError(c, err, "An error occurred while deleting: ")
		return
	}

	c.JSON(http.StatusOK, result)
}

// Cleanup clears vector database ids with no stored content
func (h *Handler) Cleanup(c *gin.Context) {
	result, err := h.websiteService.Cleanup(c.Request.Context())
	if err != nil {
		writeError(c, err, "An error occurred during cleanup: ")
		return
	}

	c.JSON(http.StatusOK, result)
}

// writeError maps service errors to HTTP status codes
func writeError(c *gin.Context, err error, prefix string) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrLLMUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": prefix + err.Error()})
	}
}
