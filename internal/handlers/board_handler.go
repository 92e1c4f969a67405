package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dealflow/internal/models"
	"dealflow/internal/services"
)

type BoardHandler struct {
	Service *services.BoardService
}

func NewBoardHandler(service *services.BoardService) *BoardHandler {
	return &BoardHandler{Service: service}
}

// @Summary      Create a board
// @Tags         Boards
// @Accept       json
// @Produce      json
// @Param        body  body      models.Board  true  "Board"
// @Success      201   {object}  models.Board
// @Failure      400   {object}  map[string]string
// @Router       /boards [post]
func (h *BoardHandler) Create(c *gin.Context) {
	var board models.Board
	if err := c.ShouldBindJSON(&board); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, orgID, _ := getIdentity(c)
	board.OrgID = orgID
	if err := h.Service.Create(userID, &board); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, board)
}

func (h *BoardHandler) GetByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	_, orgID, _ := getIdentity(c)
	board, err := h.Service.GetByID(orgID, id)
	if err != nil || board == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "board not found"})
		return
	}
	c.JSON(http.StatusOK, board)
}

func (h *BoardHandler) List(c *gin.Context) {
	_, orgID, _ := getIdentity(c)
	boards, err := h.Service.List(orgID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve boards"})
		return
	}
	c.JSON(http.StatusOK, boards)
}

func (h *BoardHandler) Update(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var board models.Board
	if err := c.ShouldBindJSON(&board); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, orgID, _ := getIdentity(c)
	board.ID = id
	board.OrgID = orgID
	if err := h.Service.Update(userID, &board); err != nil {
		if errors.Is(err, services.ErrBoardNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "board not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, board)
}

func (h *BoardHandler) SetDefault(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	userID, orgID, _ := getIdentity(c)
	if err := h.Service.SetDefault(orgID, userID, id); err != nil {
		if errors.Is(err, services.ErrBoardNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "board not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "default board updated"})
}

// CanDelete reports how many deals a board still holds, so the client
// can decide between re-homing and cascading before calling Delete.
func (h *BoardHandler) CanDelete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	_, orgID, _ := getIdentity(c)
	count, err := h.Service.CanDelete(orgID, id)
	if err != nil {
		if errors.Is(err, services.ErrBoardNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "board not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deal_count": count, "can_delete": count == 0})
}

// @Summary      Delete a board
// @Description  A non-empty board is only deleted when move_to names another board to re-home its deals, or cascade=true drops them.
// @Tags         Boards
// @Param        id       path   int     true   "Board id"
// @Param        move_to  query  int     false  "Board to receive the deals"
// @Param        cascade  query  bool    false  "Delete the deals too"
// @Success      204
// @Failure      409  {object}  map[string]string
// @Router       /boards/{id} [delete]
func (h *BoardHandler) Delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	userID, orgID, _ := getIdentity(c)
	moveTo, _ := strconv.Atoi(c.Query("move_to"))
	cascade := c.Query("cascade") == "true"

	if err := h.Service.Delete(orgID, userID, id, moveTo, cascade); err != nil {
		switch {
		case errors.Is(err, services.ErrBoardNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "board not found"})
		case errors.Is(err, services.ErrBoardNotEmpty):
			c.JSON(http.StatusConflict, gin.H{"error": "board still has deals"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BoardHandler) AddStage(c *gin.Context) {
	boardID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var stage models.Stage
	if err := c.ShouldBindJSON(&stage); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, orgID, _ := getIdentity(c)
	stage.BoardID = boardID
	if err := h.Service.AddStage(orgID, userID, &stage); err != nil {
		if errors.Is(err, services.ErrBoardNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "board not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, stage)
}

func (h *BoardHandler) UpdateStage(c *gin.Context) {
	boardID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var stage models.Stage
	if err := c.ShouldBindJSON(&stage); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, orgID, _ := getIdentity(c)
	stage.BoardID = boardID
	stage.ID = c.Param("stage_id")
	if err := h.Service.UpdateStage(orgID, userID, &stage); err != nil {
		if errors.Is(err, services.ErrStageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "stage not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stage)
}

func (h *BoardHandler) DeleteStage(c *gin.Context) {
	boardID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	userID, orgID, _ := getIdentity(c)
	if err := h.Service.DeleteStage(orgID, userID, boardID, c.Param("stage_id")); err != nil {
		switch {
		case errors.Is(err, services.ErrStageNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "stage not found"})
		case errors.Is(err, services.ErrStageNotEmpty):
			c.JSON(http.StatusConflict, gin.H{"error": "stage still has deals"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.Status(http.StatusNoContent)
}
