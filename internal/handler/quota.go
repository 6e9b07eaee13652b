package handler

import (
	"net/http"

	"crm-gateway/internal/middleware"

	"github.com/gin-gonic/gin"
)

type quotaResponse struct {
	Remaining       int   `json:"remaining"`
	Limit           int   `json:"limit"`
	GlobalRemaining int   `json:"globalRemaining"`
	GlobalLimit     int   `json:"globalLimit"`
	WindowMillis    int64 `json:"windowMs"`
}

// Quota reports the caller's remaining AI generation budget without
// consuming any of it.
func (h *Handler) Quota(c *gin.Context) {
	key := middleware.LimitKey(c.Request)
	cfg := h.limiter.Config()

	c.JSON(http.StatusOK, quotaResponse{
		Remaining:       h.limiter.RemainingQuota(key),
		Limit:           cfg.UserLimit,
		GlobalRemaining: h.limiter.GlobalRemainingQuota(),
		GlobalLimit:     cfg.GlobalLimit,
		WindowMillis:    cfg.Window.Milliseconds(),
	})
}

func (h *Handler) ResetQuota(c *gin.Context) {
	h.limiter.Reset(middleware.LimitKey(c.Request))
	c.Status(http.StatusNoContent)
}
