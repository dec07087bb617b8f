package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/alphaxx001/bookloop-connect-campus/internal/services"
	"github.com/alphaxx001/bookloop-connect-campus/internal/utils"
)

// RestBookGroupHandler serves the book groups the sell form picks sets from.
type RestBookGroupHandler struct {
	bookGroupService services.IBookGroupService
}

func NewRestBookGroupHandler(bookGroupService services.IBookGroupService) *RestBookGroupHandler {
	return &RestBookGroupHandler{bookGroupService: bookGroupService}
}

// ListBookGroups handles GET /v1/book-groups
func (h *RestBookGroupHandler) ListBookGroups(c *gin.Context) {
	groups, err := h.bookGroupService.ListBookGroups(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load book groups"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": groups})
}

// GetBookGroupByID handles GET /v1/book-groups/:id
func (h *RestBookGroupHandler) GetBookGroupByID(c *gin.Context) {
	id, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid book group ID format"})
		return
	}

	group, err := h.bookGroupService.FindBookGroupByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Book group not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve book group"})
		}
		return
	}
	c.JSON(http.StatusOK, group)
}
