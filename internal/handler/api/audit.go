package api

import (
	"net/http"

	resdto "circulation-core/internal/handler/dto/response"
	"circulation-core/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuditHandler struct {
	auditQueries queries.AuditQueries
}

func NewAuditHandler(auditQueries queries.AuditQueries) *AuditHandler {
	return &AuditHandler{
		auditQueries: auditQueries,
	}
}

// @Summary Get audit trail
// @Description Get the ordered transition history for a copy or loan
// @Tags audit
// @Produce json
// @Security BearerAuth
// @Param entity_id query string true "Copy or loan ID"
// @Success 200 {array} resdto.AuditEventResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /audit [get]
func (h *AuditHandler) GetEntityTrail(c *gin.Context) {
	entityID, err := uuid.Parse(c.Query("entity_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid entity_id format",
		})
		return
	}

	events, err := h.auditQueries.ListEntityTrail(c.Request.Context(), entityID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	response := make([]*resdto.AuditEventResponse, len(events))
	for i, ev := range events {
		response[i] = resdto.FromAuditEventView(ev)
	}

	c.JSON(http.StatusOK, response)
}
