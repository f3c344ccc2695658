package handlers

import (
	"errors"
	"net/http"

	"tradepost/services/listing"
	"tradepost/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondListingError maps the lifecycle error taxonomy onto HTTP statuses.
// Only unexpected failures surface as a generic 500 with no internal detail.
func respondListingError(c *gin.Context, err error) {
	var validationErr listing.ValidationError
	var quotaErr listing.QuotaExceededError
	var stateErr listing.InvalidStateError

	switch {
	case errors.As(err, &validationErr):
		utils.JSONError(c, http.StatusBadRequest, validationErr.Message, "")
	case errors.As(err, &quotaErr):
		utils.JSONError(c, http.StatusForbidden, quotaErr.Error(), "")
	case errors.As(err, &stateErr):
		utils.JSONError(c, http.StatusConflict, stateErr.Error(), "")
	case errors.Is(err, listing.ErrNotFound):
		utils.JSONError(c, http.StatusNotFound, "Listing not found", "")
	case errors.Is(err, listing.ErrForbidden):
		utils.JSONError(c, http.StatusForbidden, "You are not allowed to perform this operation", "")
	case errors.Is(err, listing.ErrConflict):
		utils.JSONError(c, http.StatusConflict, "Listing was modified concurrently, please retry", "")
	default:
		utils.GetLogger().Error("listing operation failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Internal server error", "")
	}
}

// currentUser reads the identity stored by the auth middleware.
func currentUser(c *gin.Context) (userID, role string) {
	if v, ok := c.Get("userID"); ok {
		userID, _ = v.(string)
	}
	if v, ok := c.Get("role"); ok {
		role, _ = v.(string)
	}
	return userID, role
}
