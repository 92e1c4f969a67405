package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dealflow/internal/ai"
	"dealflow/internal/services"
)

type AIHandler struct {
	Service     *ai.Service
	UserService services.UserService
}

func NewAIHandler(service *ai.Service, userService services.UserService) *AIHandler {
	return &AIHandler{Service: service, UserService: userService}
}

// @Summary      Run an AI assist action
// @Description  Proxies one assist request (draft_message, summarize_deal, suggest_next_step) to the model. draft_message needs prior consent.
// @Tags         AI
// @Accept       json
// @Produce      json
// @Param        action  path      string      true  "Assist action"
// @Param        body    body      ai.Request  true  "Assist request"
// @Success      200     {object}  ai.Result
// @Failure      403     {object}  map[string]string
// @Failure      429     {object}  map[string]string
// @Router       /ai/{action} [post]
func (h *AIHandler) Assist(c *gin.Context) {
	var req ai.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// the path names the action; the body field is a fallback
	if action := c.Param("action"); action != "" {
		req.Action = action
	}
	userID, orgID, _ := getIdentity(c)

	result, err := h.Service.Handle(c.Request.Context(), orgID, userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ai.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate_limited"})
		case errors.Is(err, ai.ErrConsentRequired):
			c.JSON(http.StatusForbidden, gin.H{"error": "consent_required"})
		case errors.Is(err, ai.ErrUnknownAction):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

type consentRequest struct {
	Granted bool `json:"granted"`
}

// Consent stores or clears the caller's permission to send their CRM
// data to the model provider.
func (h *AIHandler) Consent(c *gin.Context) {
	var req consentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, _, _ := getIdentity(c)
	if err := h.UserService.SetAIConsent(userID, req.Granted); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"granted": req.Granted})
}
