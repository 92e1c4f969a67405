package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dealflow/internal/models"
	"dealflow/internal/services"
)

type LifecycleHandler struct {
	Service *services.LifecycleService
}

func NewLifecycleHandler(service *services.LifecycleService) *LifecycleHandler {
	return &LifecycleHandler{Service: service}
}

func (h *LifecycleHandler) List(c *gin.Context) {
	_, orgID, _ := getIdentity(c)
	stages, err := h.Service.List(orgID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve lifecycle stages"})
		return
	}
	c.JSON(http.StatusOK, stages)
}

func (h *LifecycleHandler) Create(c *gin.Context) {
	var stage models.LifecycleStage
	if err := c.ShouldBindJSON(&stage); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, orgID, _ := getIdentity(c)
	stage.OrgID = orgID
	if err := h.Service.Create(userID, &stage); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, stage)
}

func (h *LifecycleHandler) Update(c *gin.Context) {
	var stage models.LifecycleStage
	if err := c.ShouldBindJSON(&stage); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, orgID, _ := getIdentity(c)
	stage.ID = c.Param("id")
	stage.OrgID = orgID
	if err := h.Service.Update(userID, &stage); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stage)
}

// @Summary      Delete a lifecycle stage
// @Description  Refused while any kanban stage still links to it.
// @Tags         Lifecycle
// @Param        id  path  string  true  "Stage id"
// @Success      204
// @Failure      409  {object}  map[string]string
// @Router       /lifecycle-stages/{id} [delete]
func (h *LifecycleHandler) Delete(c *gin.Context) {
	userID, orgID, _ := getIdentity(c)
	if err := h.Service.Delete(orgID, userID, c.Param("id")); err != nil {
		if errors.Is(err, services.ErrLifecycleStageInUse) {
			c.JSON(http.StatusConflict, gin.H{"error": "lifecycle stage is referenced by board stages"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
