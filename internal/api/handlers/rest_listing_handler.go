package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/alphaxx001/bookloop-connect-campus/internal/catalog"
	"github.com/alphaxx001/bookloop-connect-campus/internal/config"
	"github.com/alphaxx001/bookloop-connect-campus/internal/models"
	"github.com/alphaxx001/bookloop-connect-campus/internal/services"
	"github.com/alphaxx001/bookloop-connect-campus/internal/storage"
	"github.com/alphaxx001/bookloop-connect-campus/internal/tasks"
	"github.com/alphaxx001/bookloop-connect-campus/internal/validation"
)

const defaultFeaturedCount = 3

// RestListingHandler handles REST requests for listings.
type RestListingHandler struct {
	cfg            *config.Config
	listingService services.IListingService
	storageService storage.IS3Storage
	taskClient     IAsynqClient
}

// NewRestListingHandler creates a new RestListingHandler. storageService and taskClient are only
// needed by the image upload endpoints.
func NewRestListingHandler(cfg *config.Config, listingService services.IListingService, storageService storage.IS3Storage, taskClient IAsynqClient) *RestListingHandler {
	return &RestListingHandler{
		cfg:            cfg,
		listingService: listingService,
		storageService: storageService,
		taskClient:     taskClient,
	}
}

// listingSummary is a listing as shown on a browse card.
type listingSummary struct {
	*models.Listing
	PriceDisplay         string `json:"price_display"`
	Thumbnail            string `json:"thumbnail"`
	ThumbnailPlaceholder bool   `json:"thumbnail_placeholder"`
}

// listingDetail is a listing as shown on the details page.
type listingDetail struct {
	listingSummary
	Carousel catalog.CarouselView `json:"carousel"`
	BookSet  *catalog.BookSet     `json:"book_set,omitempty"`
}

func summarize(l *models.Listing) listingSummary {
	thumb, placeholder := catalog.Thumbnail(l)
	return listingSummary{
		Listing:              l,
		PriceDisplay:         catalog.FormatPrice(l.Price),
		Thumbnail:            thumb,
		ThumbnailPlaceholder: placeholder,
	}
}

func summarizeAll(ls []models.Listing) []listingSummary {
	out := make([]listingSummary, 0, len(ls))
	for i := range ls {
		out = append(out, summarize(&ls[i]))
	}
	return out
}

// parseFilters reads the browse facets from the query string.
func parseFilters(c *gin.Context) (models.Filters, error) {
	f := models.DefaultFilters()
	if v := c.Query("min_price"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, fmt.Errorf("invalid min_price")
		}
		f.PriceRange[0] = p
	}
	if v := c.Query("max_price"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, fmt.Errorf("invalid max_price")
		}
		f.PriceRange[1] = p
	}
	if v := c.Query("quality"); v != "" {
		for _, raw := range strings.Split(v, ",") {
			cond := models.Condition(strings.TrimSpace(raw))
			if cond == "" {
				continue
			}
			if !cond.Valid() {
				return f, fmt.Errorf("invalid quality %q", cond)
			}
			f.Quality = append(f.Quality, cond)
		}
	}
	setType, err := models.ParseSetType(c.Query("set_type"))
	if err != nil {
		return f, err
	}
	f.SetType = setType
	return f, nil
}

// ListListings handles GET /v1/listings
func (h *RestListingHandler) ListListings(c *gin.Context) {
	filters, err := parseFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	listings, err := h.listingService.FetchActiveListings(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load listings"})
		return
	}

	result := catalog.FilterAndSort(listings, c.Query("q"), filters, models.ParseSortKey(c.Query("sort")))
	c.JSON(http.StatusOK, gin.H{
		"data":  summarizeAll(result),
		"count": len(result),
	})
}

// FeaturedListings handles GET /v1/listings/featured
func (h *RestListingHandler) FeaturedListings(c *gin.Context) {
	n, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultFeaturedCount)))
	if err != nil || n <= 0 || n > 50 {
		n = defaultFeaturedCount
	}

	listings, err := h.listingService.FeaturedListings(c.Request.Context(), n)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load listings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summarizeAll(listings)})
}

// GetListingByID handles GET /v1/listings/:id
func (h *RestListingHandler) GetListingByID(c *gin.Context) {
	listingID, ok := parseListingID(c)
	if !ok {
		return
	}

	listing, err := h.listingService.FindListingByID(c.Request.Context(), listingID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve listing"})
		}
		return
	}

	c.JSON(http.StatusOK, listingDetail{
		listingSummary: summarize(listing),
		Carousel:       catalog.NewCarousel(listing).View(),
		BookSet:        catalog.BookSetSummary(listing),
	})
}

// ValidateListing handles POST /v1/listings/validate. It never creates anything.
func (h *RestListingHandler) ValidateListing(c *gin.Context) {
	var draft models.ListingDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	c.JSON(http.StatusOK, validation.ValidateListing(draft))
}

// SuggestedPrice handles GET /v1/listings/suggested-price
func (h *RestListingHandler) SuggestedPrice(c *gin.Context) {
	listingType := models.ListingType(c.DefaultQuery("listing_type", string(models.ListingTypeSingle)))
	condition := models.Condition(c.Query("condition"))
	price := validation.SuggestedPrice(listingType, condition)
	c.JSON(http.StatusOK, gin.H{
		"price":         price,
		"price_display": catalog.FormatPrice(float64(price)),
	})
}

// CreateListing handles POST /v1/listings
func (h *RestListingHandler) CreateListing(c *gin.Context) {
	sellerID, ok := requireUser(c)
	if !ok {
		return
	}

	var draft models.ListingDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	listing, err := h.listingService.CreateListing(c.Request.Context(), sellerID, draft)
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Please fix the highlighted fields", "fields": verr.Fields})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create listing"})
		}
		return
	}

	// Image descriptors in the draft are validated here so the client knows which to upload.
	_, rejected := h.imageLimits().Validate(0, draft.Images)
	c.JSON(http.StatusCreated, gin.H{
		"data":     summarize(listing),
		"rejected": rejected,
	})
}

func (h *RestListingHandler) imageLimits() validation.ImageLimits {
	if h.cfg == nil {
		return validation.ImageLimits{}
	}
	return validation.ImageLimits{MaxSize: h.cfg.ImageMaxSizeBytes(), MaxImages: h.cfg.MaxImagesPerListing}
}

// ownedListing loads the listing and checks that userID sells it.
func (h *RestListingHandler) ownedListing(c *gin.Context, userID string) (*models.Listing, bool) {
	listingID, ok := parseListingID(c)
	if !ok {
		return nil, false
	}
	listing, err := h.listingService.FindListingByID(c.Request.Context(), listingID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve listing"})
		}
		return nil, false
	}
	if listing.Seller.ID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the seller can change this listing"})
		return nil, false
	}
	return listing, true
}

type imageUploadRequest struct {
	Files []models.ImageFile `json:"files"`
}

type imageUpload struct {
	Name      string `json:"name"`
	UploadURL string `json:"upload_url"`
	ObjectKey string `json:"object_key"`
}

// RequestImageUploads handles POST /v1/listings/:id/images.
// Each file is checked on its own; accepted files get a presigned upload URL.
func (h *RestListingHandler) RequestImageUploads(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	listing, ok := h.ownedListing(c, userID)
	if !ok {
		return
	}

	var req imageUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required argument: files"})
		return
	}

	accepted, rejected := h.imageLimits().Validate(len(listing.Images), req.Files)
	uploads := make([]imageUpload, 0, len(accepted))
	for _, f := range accepted {
		url, key, err := h.storageService.GeneratePresignedPutURL(c.Request.Context(), userID, listing.ID, f.Name, f.ContentType)
		if err != nil {
			log.Printf("Error generating presigned URL for user %s, listing %d: %v", userID, listing.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate upload URL"})
			return
		}
		uploads = append(uploads, imageUpload{Name: f.Name, UploadURL: url, ObjectKey: key})
	}

	c.JSON(http.StatusOK, gin.H{
		"uploads":  uploads,
		"rejected": rejected,
	})
}

type completeUploadsRequest struct {
	ObjectKeys []string `json:"object_keys"`
}

// CompleteImageUploads handles POST /v1/listings/:id/images/complete
func (h *RestListingHandler) CompleteImageUploads(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	listing, ok := h.ownedListing(c, userID)
	if !ok {
		return
	}

	var req completeUploadsRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.ObjectKeys) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required argument: object_keys"})
		return
	}

	prefix := storage.ListingPrefix(userID, listing.ID)
	for _, key := range req.ObjectKeys {
		if !strings.HasPrefix(key, prefix) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Object key %s does not belong to this listing", key)})
			return
		}
	}

	taskIDs := make([]string, 0, len(req.ObjectKeys))
	for _, key := range req.ObjectKeys {
		task, err := tasks.NewImageProcessTask(key, listing.ID)
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to schedule image processing"})
			return
		}
		info, err := h.taskClient.EnqueueContext(c.Request.Context(), task)
		if err != nil {
			log.Printf("ERROR enqueuing image processing task for key %s, listing %d: %v", key, listing.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to schedule image processing"})
			return
		}
		taskIDs = append(taskIDs, info.ID)
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message":  "Image upload confirmed, processing scheduled.",
		"task_ids": taskIDs,
	})
}
