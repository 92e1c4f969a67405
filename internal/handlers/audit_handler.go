package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dealflow/internal/services"
)

type AuditHandler struct {
	Service *services.AuditService
}

func NewAuditHandler(service *services.AuditService) *AuditHandler {
	return &AuditHandler{Service: service}
}

// @Summary      List audit entries
// @Tags         Audit
// @Produce      json
// @Param        entity  query  string  false  "Filter by entity type"
// @Param        action  query  string  false  "Filter by action"
// @Success      200  {array}  models.AuditEntry
// @Router       /audit [get]
func (h *AuditHandler) List(c *gin.Context) {
	_, orgID, _ := getIdentity(c)
	limit, offset := pageParams(c)
	entries, err := h.Service.List(orgID, c.Query("entity"), c.Query("action"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve audit log"})
		return
	}
	c.JSON(http.StatusOK, entries)
}
