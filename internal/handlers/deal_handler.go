package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"dealflow/internal/authz"
	"dealflow/internal/models"
	"dealflow/internal/repositories"
	"dealflow/internal/services"
)

type DealHandler struct {
	Service     *services.DealService
	UserService services.UserService
}

func NewDealHandler(service *services.DealService, userService services.UserService) *DealHandler {
	return &DealHandler{Service: service, UserService: userService}
}

func (h *DealHandler) Create(c *gin.Context) {
	var deal models.Deal
	if err := c.ShouldBindJSON(&deal); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, orgID, roleID := getIdentity(c)
	if authz.IsReadOnly(roleID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "read-only role"})
		return
	}
	deal.OrgID = orgID
	deal.OwnerID = userID

	if err := h.Service.Create(&deal); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, services.ErrStageNotFound) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, deal)
}

func (h *DealHandler) GetByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	userID, orgID, roleID := getIdentity(c)
	deal, err := h.Service.GetByID(orgID, id)
	if err != nil || deal == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "deal not found"})
		return
	}
	if deal.OwnerID != userID && !authz.IsElevated(roleID) && roleID != authz.RoleAudit {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	c.JSON(http.StatusOK, deal)
}

func (h *DealHandler) Update(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	userID, orgID, roleID := getIdentity(c)
	if authz.IsReadOnly(roleID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "read-only role"})
		return
	}

	current, err := h.Service.GetByID(orgID, id)
	if err != nil || current == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "deal not found"})
		return
	}
	if current.OwnerID != userID && !authz.IsElevated(roleID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	var body models.Deal
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	body.ID = id
	body.OrgID = orgID
	if !authz.IsElevated(roleID) {
		body.OwnerID = current.OwnerID
	}
	if body.OwnerID == 0 {
		body.OwnerID = current.OwnerID
	}

	if err := h.Service.Update(userID, &body); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	updated, _ := h.Service.GetByID(orgID, id)
	c.JSON(http.StatusOK, updated)
}

func (h *DealHandler) Delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	userID, orgID, roleID := getIdentity(c)
	if authz.IsReadOnly(roleID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "read-only role"})
		return
	}
	deal, err := h.Service.GetByID(orgID, id)
	if err != nil || deal == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "deal not found"})
		return
	}
	if deal.OwnerID != userID && !authz.IsElevated(roleID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	if err := h.Service.Delete(orgID, userID, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

type moveDealRequest struct {
	To         string `json:"to" binding:"required"`
	LossReason string `json:"loss_reason"`
	Version    int    `json:"version"`
}

// @Summary      Move a deal to another stage
// @Description  Commits a stage change. A move into a lost stage requires loss_reason; supplying the version read by the client enables the stale-write check.
// @Tags         Deals
// @Accept       json
// @Produce      json
// @Param        id    path      int              true  "Deal id"
// @Param        body  body      moveDealRequest  true  "Move"
// @Success      200   {object}  models.Deal
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /deals/{id}/move [post]
func (h *DealHandler) Move(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req moveDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, orgID, roleID := getIdentity(c)
	if authz.IsReadOnly(roleID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "read-only role"})
		return
	}
	current, err := h.Service.GetByID(orgID, id)
	if err != nil || current == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "deal not found"})
		return
	}
	if current.OwnerID != userID && !authz.IsElevated(roleID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	updated, err := h.Service.Move(orgID, userID, id, req.To, req.LossReason, req.Version)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrLossReasonRequired):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "loss_reason_required"})
		case errors.Is(err, repositories.ErrVersionConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "conflict", "detail": "deal changed since it was read"})
		case errors.Is(err, services.ErrStageNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrDealNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "deal not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, updated)
}

// @Summary      List deals
// @Description  Server-side filtered listing. Plain sales roles see their own deals only.
// @Tags         Deals
// @Produce      json
// @Param        board_id  query  int     false  "Board"
// @Param        owner_id  query  int     false  "Owner (elevated roles only)"
// @Param        status    query  string  false  "open | won | lost"
// @Param        from      query  string  false  "Created from (YYYY-MM-DD)"
// @Param        to        query  string  false  "Created to (YYYY-MM-DD)"
// @Param        sort_by   query  string  false  "created_at | value | title"
// @Param        order     query  string  false  "asc | desc"
// @Success      200  {array}  models.Deal
// @Router       /deals [get]
func (h *DealHandler) List(c *gin.Context) {
	userID, orgID, roleID := getIdentity(c)
	limit, offset := pageParams(c)

	query := repositories.DealQuery{
		Status: c.Query("status"),
		SortBy: c.Query("sort_by"),
		Order:  c.Query("order"),
		Limit:  limit,
		Offset: offset,
	}
	query.BoardID, _ = strconv.Atoi(c.Query("board_id"))
	if from := c.Query("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			query.From = &t
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			end := endOfDay(t)
			query.To = &end
		}
	}
	if authz.IsElevated(roleID) || roleID == authz.RoleAudit {
		query.OwnerID, _ = strconv.Atoi(c.Query("owner_id"))
	} else {
		query.OwnerID = userID
	}

	deals, err := h.Service.Filter(orgID, query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve deals"})
		return
	}
	c.JSON(http.StatusOK, deals)
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 999_000_000, t.Location())
}

// BoardView returns the projected deal list for one board, with the
// kanban filters applied server-side.
func (h *DealHandler) BoardView(c *gin.Context) {
	boardID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid board id"})
		return
	}
	userID, orgID, _ := getIdentity(c)

	filters := services.DealFilters{
		Search: c.Query("search"),
		Owner:  c.DefaultQuery("owner", services.OwnerAll),
		Status: c.DefaultQuery("status", services.StatusAll),
	}
	if from := c.Query("created_from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			filters.CreatedFrom = &t
		}
	}
	if to := c.Query("created_to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			filters.CreatedTo = &t
		}
	}

	viewer := services.Viewer{UserID: userID}
	if profile, err := h.UserService.GetUserByID(orgID, userID); err == nil && profile != nil {
		viewer.Name = profile.Name
		viewer.AvatarURL = profile.AvatarURL
	}

	deals, err := h.Service.BoardView(orgID, boardID, filters, viewer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve deals"})
		return
	}
	c.JSON(http.StatusOK, deals)
}

func (h *DealHandler) AddItem(c *gin.Context) {
	dealID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	userID, orgID, roleID := getIdentity(c)
	if authz.IsReadOnly(roleID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "read-only role"})
		return
	}
	var item models.DealItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item.DealID = dealID
	if err := h.Service.AddItem(orgID, userID, &item); err != nil {
		if errors.Is(err, services.ErrDealNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "deal not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *DealHandler) DeleteItem(c *gin.Context) {
	dealID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	itemID, err := strconv.Atoi(c.Param("item_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}
	userID, orgID, roleID := getIdentity(c)
	if authz.IsReadOnly(roleID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "read-only role"})
		return
	}
	if err := h.Service.DeleteItem(orgID, userID, dealID, itemID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
