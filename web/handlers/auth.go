package handlers

import (
	"net/http"

	"geoscan/database"
	"geoscan/web/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	store  *database.PostgresStore
	logger *zap.Logger
}

func NewAuthHandler(store *database.PostgresStore, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{store: store, logger: logger}
}

// ClaimSession transfers the current session's anonymous scans and discoveries
// to the authenticated account. Safe to call repeatedly: already-claimed rows
// are skipped by the conditional update.
func (h *AuthHandler) ClaimSession(c *gin.Context) {
	identity := middleware.ResolveIdentity(c)
	if identity.Anonymous() {
		respondWithClientError(c, http.StatusUnauthorized, "Sign in to claim session results")
		return
	}

	sessionToken := middleware.SessionToken(c)
	result, err := h.store.ClaimSession(c.Request.Context(), identity.AccountID, sessionToken)
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, err, "Could not claim session results", h.logger,
			zap.String("account_id", identity.AccountID))
		return
	}

	if result.Total() > 0 {
		h.logger.Info("Session claimed",
			zap.String("account_id", identity.AccountID),
			zap.Int64("scans", result.Scans),
			zap.Int64("discoveries", result.Discoveries))
	}
	c.JSON(http.StatusOK, gin.H{"claimedCount": result.Total()})
}
