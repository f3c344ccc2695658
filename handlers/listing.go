package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"tradepost/models"
	"tradepost/services/listing"
	"tradepost/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ListingHandler exposes the listing lifecycle over HTTP.
type ListingHandler struct {
	Service listing.ListingService
}

// NewListingHandler creates a ListingHandler.
func NewListingHandler(svc listing.ListingService) *ListingHandler {
	return &ListingHandler{Service: svc}
}

// CreateListingHandler handles POST /api/listings.
func (h *ListingHandler) CreateListingHandler(c *gin.Context) {
	userID, _ := currentUser(c)

	var req listing.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	created, err := h.Service.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondListingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Listing submitted for review",
		"data":    created,
	})
}

// GetListingsHandler handles GET /api/listings: the public feed of active
// listings, served from the redis cache when warm.
func (h *ListingHandler) GetListingsHandler(c *gin.Context) {
	ctx := c.Request.Context()

	if cache := utils.CacheClient; cache != nil {
		if payload, err := cache.Get(ctx, utils.FeedCacheKey).Result(); err == nil {
			c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(payload))
			return
		}
	}

	listings, err := h.Service.PublicFeed(ctx)
	if err != nil {
		respondListingError(c, err)
		return
	}
	if listings == nil {
		listings = []models.Listing{}
	}

	body, err := json.Marshal(gin.H{"success": true, "data": listings})
	if err != nil {
		respondListingError(c, err)
		return
	}
	if cache := utils.CacheClient; cache != nil {
		if err := cache.Set(ctx, utils.FeedCacheKey, body, utils.FeedCacheTTL).Err(); err != nil {
			utils.GetLogger().Warn("failed to cache listing feed", zap.Error(err))
		}
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// GetMyListingsHandler handles GET /api/listings/my-listings.
func (h *ListingHandler) GetMyListingsHandler(c *gin.Context) {
	userID, _ := currentUser(c)

	listings, err := h.Service.OwnListings(c.Request.Context(), userID)
	if err != nil {
		respondListingError(c, err)
		return
	}
	if listings == nil {
		listings = []models.Listing{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": listings})
}

// GetPendingListingsHandler handles GET /api/listings/pending (moderators).
func (h *ListingHandler) GetPendingListingsHandler(c *gin.Context) {
	listings, err := h.Service.PendingQueue(c.Request.Context())
	if err != nil {
		respondListingError(c, err)
		return
	}
	if listings == nil {
		listings = []models.Listing{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": listings})
}

// GetListingByIDHandler handles GET /api/listings/:id.
func (h *ListingHandler) GetListingByIDHandler(c *gin.Context) {
	userID, role := currentUser(c)

	l, err := h.Service.GetVisible(c.Request.Context(), userID, role, c.Param("id"))
	if err != nil {
		respondListingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": l})
}

// UpdateListingHandler handles PUT /api/listings/:id. A concurrent-
// modification conflict is retried once before surfacing.
func (h *ListingHandler) UpdateListingHandler(c *gin.Context) {
	userID, _ := currentUser(c)

	var req listing.UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	ctx := c.Request.Context()
	updated, err := h.Service.Edit(ctx, userID, c.Param("id"), req)
	if errors.Is(err, listing.ErrConflict) {
		updated, err = h.Service.Edit(ctx, userID, c.Param("id"), req)
	}
	if err != nil {
		respondListingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Listing updated",
		"data":    updated,
	})
}

// DeleteListingHandler handles DELETE /api/listings/:id.
func (h *ListingHandler) DeleteListingHandler(c *gin.Context) {
	userID, role := currentUser(c)

	if err := h.Service.Delete(c.Request.Context(), userID, role, c.Param("id")); err != nil {
		respondListingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Listing deleted"})
}

// ApproveListingHandler handles PUT /api/listings/:id/approve (moderators).
// The body selects the verdict: {"status": "active"} or {"status": "rejected"}.
func (h *ListingHandler) ApproveListingHandler(c *gin.Context) {
	var req struct {
		Status models.ListingStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if !models.ValidStatus(req.Status) {
		utils.JSONError(c, http.StatusBadRequest, "unknown listing status", "")
		return
	}

	ctx := c.Request.Context()
	var (
		l   *models.Listing
		err error
	)
	switch req.Status {
	case models.StatusActive:
		l, err = h.Service.Approve(ctx, c.Param("id"))
	case models.StatusRejected:
		l, err = h.Service.Reject(ctx, c.Param("id"))
	default:
		utils.JSONError(c, http.StatusBadRequest, "status must be \"active\" or \"rejected\"", "")
		return
	}
	if err != nil {
		respondListingError(c, err)
		return
	}

	message := "Listing approved"
	if l.Status == models.StatusRejected {
		message = "Listing rejected"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message, "data": l})
}

// GetArchivedListingHandler handles GET /api/listings/:id/archive (moderators):
// the immutable snapshot kept after a listing was deleted or expired.
func (h *ListingHandler) GetArchivedListingHandler(c *gin.Context) {
	rec, err := h.Service.ArchivedSnapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondListingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": rec})
}

// MarkSoldHandler handles PUT /api/listings/:id/sold.
func (h *ListingHandler) MarkSoldHandler(c *gin.Context) {
	userID, role := currentUser(c)

	ctx := c.Request.Context()
	l, err := h.Service.MarkSold(ctx, userID, role, c.Param("id"))
	if errors.Is(err, listing.ErrConflict) {
		l, err = h.Service.MarkSold(ctx, userID, role, c.Param("id"))
	}
	if err != nil {
		respondListingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Listing marked as sold", "data": l})
}

// CancelListingHandler handles PUT /api/listings/:id/cancel.
func (h *ListingHandler) CancelListingHandler(c *gin.Context) {
	userID, _ := currentUser(c)

	ctx := c.Request.Context()
	l, err := h.Service.Cancel(ctx, userID, c.Param("id"))
	if errors.Is(err, listing.ErrConflict) {
		l, err = h.Service.Cancel(ctx, userID, c.Param("id"))
	}
	if err != nil {
		respondListingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Listing cancelled", "data": l})
}
