package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"finanzas/internal/core"
	"finanzas/internal/services"
)

// elementHandlers serves one element kind; the same set is registered for
// both /incomes and /expenses.
type elementHandlers struct {
	elements *services.ElementService
	kind     core.ElementKind
}

func (h *elementHandlers) GetAll(c *gin.Context) {
	result, err := h.elements.List(c.Request.Context(), c.Request.URL.Query(), actorFrom(c), h.kind)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *elementHandlers) GetOne(c *gin.Context) {
	result, err := h.elements.GetOne(c.Request.Context(), c.Request.URL.Query(), actorFrom(c), h.kind)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *elementHandlers) Average(c *gin.Context) {
	h.aggregate(c, services.AggregateAverage)
}

func (h *elementHandlers) Total(c *gin.Context) {
	h.aggregate(c, services.AggregateTotal)
}

func (h *elementHandlers) Count(c *gin.Context) {
	h.aggregate(c, services.AggregateCount)
}

func (h *elementHandlers) aggregate(c *gin.Context, agg services.AggregateKind) {
	result, err := h.elements.Aggregate(c.Request.Context(), agg, c.Request.URL.Query(), actorFrom(c), h.kind)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *elementHandlers) Types(c *gin.Context) {
	types, err := h.elements.DistinctTypes(c.Request.Context(), actorFrom(c), h.kind)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"types": types})
}

func (h *elementHandlers) Add(c *gin.Context) {
	payload, ok := decodeElementPayload(c)
	if !ok {
		return
	}
	record, err := h.elements.Add(c.Request.Context(), payload, actorFrom(c), h.kind)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (h *elementHandlers) Update(c *gin.Context) {
	payload, ok := decodeElementPayload(c)
	if !ok {
		return
	}
	record, err := h.elements.Update(c.Request.Context(), payload, actorFrom(c), h.kind)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *elementHandlers) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Query("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, core.ErrValidation("'id' must be a positive integer"))
		return
	}
	if err := h.elements.Delete(c.Request.Context(), id, actorFrom(c), h.kind); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// decodeElementPayload decodes the body without gin's binding so that the
// amount field can carry either a JSON number or a numeric string.
func decodeElementPayload(c *gin.Context) (services.ElementPayload, bool) {
	var payload services.ElementPayload
	if err := json.NewDecoder(c.Request.Body).Decode(&payload); err != nil {
		writeError(c, core.ErrValidation("request body is not valid JSON"))
		return payload, false
	}
	return payload, true
}
