package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dealflow/internal/models"
	"dealflow/internal/services"
)

type ContactHandler struct {
	Service *services.ContactService
}

func NewContactHandler(service *services.ContactService) *ContactHandler {
	return &ContactHandler{Service: service}
}

func (h *ContactHandler) Create(c *gin.Context) {
	var contact models.Contact
	if err := c.ShouldBindJSON(&contact); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, orgID, _ := getIdentity(c)
	contact.OrgID = orgID
	if contact.OwnerID == 0 {
		contact.OwnerID = userID
	}
	if err := h.Service.Create(userID, &contact); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, contact)
}

func (h *ContactHandler) GetByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	_, orgID, _ := getIdentity(c)
	contact, err := h.Service.GetByID(orgID, id)
	if err != nil || contact == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "contact not found"})
		return
	}
	c.JSON(http.StatusOK, contact)
}

func (h *ContactHandler) Update(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var contact models.Contact
	if err := c.ShouldBindJSON(&contact); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, orgID, _ := getIdentity(c)
	contact.ID = id
	contact.OrgID = orgID
	if err := h.Service.Update(userID, &contact); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, contact)
}

func (h *ContactHandler) Delete(c *gin.Context) {
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

func (h *ContactHandler) List(c *gin.Context) {
	_, orgID, _ := getIdentity(c)
	limit, offset := pageParams(c)
	contacts, err := h.Service.List(orgID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve contacts"})
		return
	}
	c.JSON(http.StatusOK, contacts)
}
