package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"finanzas/internal/core"
	"finanzas/internal/services"
)

type feedbackHandlers struct {
	feedback *services.FeedbackService
}

func (h *feedbackHandlers) Add(c *gin.Context) {
	var payload services.FeedbackPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, core.ErrValidation("request body is not valid JSON"))
		return
	}

	record, err := h.feedback.Add(c.Request.Context(), payload, actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (h *feedbackHandlers) GetAll(c *gin.Context) {
	result, err := h.feedback.List(c.Request.Context(), c.Request.URL.Query(), actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *feedbackHandlers) Types(c *gin.Context) {
	types, err := h.feedback.DistinctTypes(c.Request.Context(), actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"types": types})
}
