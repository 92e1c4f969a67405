package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dealflow/internal/models"
	"dealflow/internal/services"
)

type ActivityHandler struct {
	Service *services.ActivityService
}

func NewActivityHandler(service *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{Service: service}
}

func (h *ActivityHandler) Create(c *gin.Context) {
	var activity models.Activity
	if err := c.ShouldBindJSON(&activity); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, orgID, _ := getIdentity(c)
	activity.OrgID = orgID
	if activity.OwnerID == 0 {
		activity.OwnerID = userID
	}
	if err := h.Service.Create(userID, &activity); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, activity)
}

func (h *ActivityHandler) GetByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	_, orgID, _ := getIdentity(c)
	activity, err := h.Service.GetByID(orgID, id)
	if err != nil || activity == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "activity not found"})
		return
	}
	c.JSON(http.StatusOK, activity)
}

func (h *ActivityHandler) Update(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var activity models.Activity
	if err := c.ShouldBindJSON(&activity); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, orgID, _ := getIdentity(c)
	activity.ID = id
	activity.OrgID = orgID
	if err := h.Service.Update(userID, &activity); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, activity)
}

func (h *ActivityHandler) Delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	userID, orgID, _ := getIdentity(c)
	if err := h.Service.Delete(orgID, userID, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ActivityHandler) List(c *gin.Context) {
	_, orgID, _ := getIdentity(c)
	if dealParam := c.Query("deal_id"); dealParam != "" {
		dealID, err := strconv.Atoi(dealParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid deal_id"})
			return
		}
		activities, err := h.Service.ListByDeal(orgID, dealID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve activities"})
			return
		}
		c.JSON(http.StatusOK, activities)
		return
	}

	limit, offset := pageParams(c)
	activities, err := h.Service.List(orgID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve activities"})
		return
	}
	c.JSON(http.StatusOK, activities)
}

func (h *ActivityHandler) ListOverdue(c *gin.Context) {
	_, orgID, _ := getIdentity(c)
	activities, err := h.Service.ListOverdue(orgID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve activities"})
		return
	}
	c.JSON(http.StatusOK, activities)
}

type setDoneRequest struct {
	Done bool `json:"done"`
}

func (h *ActivityHandler) SetDone(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req setDoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, orgID, _ := getIdentity(c)
	if err := h.Service.SetDone(orgID, userID, id, req.Done); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "activity updated"})
}
