package handler

import (
	"errors"
	"net/http"
	"time"

	"crm-gateway/internal/credentials"
	"crm-gateway/internal/identity"
	"crm-gateway/internal/logger"
	"crm-gateway/internal/middleware"
	"crm-gateway/internal/session"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, middleware.ErrorBody{Message: "invalid request"})
		return
	}

	ctx := c.Request.Context()

	userID, err := h.credentials.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, credentials.ErrInvalidCredentials) {
			logger.Error("credential check failed", map[string]any{
				"error": err.Error(),
			})
		}
		c.JSON(http.StatusUnauthorized, middleware.ErrorBody{Message: "invalid username or password"})
		return
	}

	principal, err := h.principals.Principal(ctx, userID)
	if err != nil {
		logger.Error("login principal load failed", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		c.JSON(http.StatusUnauthorized, middleware.ErrorBody{Message: "invalid username or password"})
		return
	}

	token, err := session.GenerateID()
	if err != nil {
		c.JSON(http.StatusInternalServerError, middleware.ErrorBody{Message: "session error"})
		return
	}

	now := time.Now()
	expiresAt := now.Add(h.sessionTTL)

	if err := h.sessionStore.Put(ctx, token, session.Record{
		Principal: principal,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}); err != nil {
		logger.Error("session persist failed", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		c.JSON(http.StatusServiceUnavailable, middleware.ErrorBody{Message: "session error"})
		return
	}

	session.SetCookie(c.Writer, token, expiresAt, h.cookie)
	session.SetTokenHeader(c.Writer, token)

	logger.Info("login succeeded", map[string]any{
		"user_id": userID,
		"session": logger.MaskToken(token),
		"ip":      c.ClientIP(),
	})

	c.JSON(http.StatusOK, principal.WithSession(token))
}

func (h *Handler) Logout(c *gin.Context) {
	token, ok := session.TokenFromCookie(c.Request)
	if !ok {
		token, ok = session.TokenFromHeaders(c.Request.Header)
	}

	if ok {
		// best effort: an unreachable store must not keep the client logged in
		if err := h.sessionStore.Delete(c.Request.Context(), token); err != nil {
			logger.Warn("session delete failed", map[string]any{
				"session": logger.MaskToken(token),
				"error":   err.Error(),
			})
		}
	}

	session.ClearCookie(c.Writer, h.cookie)
	session.ExpireTokenHeader(c.Writer)

	c.Status(http.StatusNoContent)
}

// IsLogin reports the caller's principal, or null when anonymous.
func (h *Handler) IsLogin(c *gin.Context) {
	p, ok := identity.PrincipalFromContext(c.Request.Context())
	if !ok || !p.Valid() {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, p)
}
