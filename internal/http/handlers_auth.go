package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"finanzas/internal/core"
	"finanzas/internal/services"
)

type authHandlers struct {
	users *services.UserService
}

func (h *authHandlers) Signup(c *gin.Context) {
	var payload services.SignupPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, core.ErrValidation("request body is not valid JSON"))
		return
	}

	user, taken, err := h.users.Signup(c.Request.Context(), payload)
	if err != nil {
		writeError(c, err)
		return
	}
	if taken {
		// An existing username is acknowledged, not treated as a failure.
		c.JSON(http.StatusAccepted, gin.H{"message": "username already registered"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":          user.ID,
		"username":    user.Username,
		"is_verified": user.IsVerified,
	})
}

func (h *authHandlers) Login(c *gin.Context) {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, core.ErrValidation("request body is not valid JSON"))
		return
	}

	tokens, err := h.users.Login(c.Request.Context(), payload.Username, payload.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

func (h *authHandlers) Refresh(c *gin.Context) {
	var payload struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, core.ErrValidation("request body is not valid JSON"))
		return
	}

	access, err := h.users.Refresh(payload.RefreshToken)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": access})
}
