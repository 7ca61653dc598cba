package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"finanzas/internal/core"
	"finanzas/internal/services"
)

type userHandlers struct {
	users *services.UserService
}

func (h *userHandlers) Whoami(c *gin.Context) {
	record, err := h.users.Whoami(c.Request.Context(), actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *userHandlers) Balance(c *gin.Context) {
	balance, err := h.users.Balance(c.Request.Context(), actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

func (h *userHandlers) List(c *gin.Context) {
	result, err := h.users.List(c.Request.Context(), c.Request.URL.Query(), actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *userHandlers) Update(c *gin.Context) {
	var payload services.UpdateProfilePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, core.ErrValidation("request body is not valid JSON"))
		return
	}

	record, err := h.users.UpdateProfile(c.Request.Context(), payload, actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *userHandlers) Delete(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), actorFrom(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "account deleted"})
}
