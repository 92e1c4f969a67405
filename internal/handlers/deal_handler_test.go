package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealflow/internal/models"
	"dealflow/internal/repositories"
	"dealflow/internal/services"
)

type moveDealRepo struct {
	repositories.DealRepository

	deals    map[int]*models.Deal
	applyErr error
}

func (f *moveDealRepo) GetByID(orgID, id int) (*models.Deal, error) {
	d, ok := f.deals[id]
	if !ok || d.OrgID != orgID {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (f *moveDealRepo) ApplyMove(ch *repositories.MoveChange) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	if d, ok := f.deals[ch.DealID]; ok {
		d.Status = ch.TargetStage
		d.IsWon = ch.IsWon
		d.IsLost = ch.IsLost
		d.LossReason = ch.LossReason
	}
	return nil
}

type moveBoardRepo struct {
	repositories.BoardRepository

	board *models.Board
}

func (f *moveBoardRepo) GetByID(orgID, id int) (*models.Board, error) {
	if f.board != nil && f.board.ID == id {
		return f.board, nil
	}
	return nil, nil
}

type moveUserRepo struct {
	repositories.UserRepository
}

func (f *moveUserRepo) GetByID(orgID, id int) (*models.User, error) { return nil, nil }

func lostPtr(s string) *string { return &s }

func newMoveRouter(t *testing.T, repo *moveDealRepo) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	board := &models.Board{
		ID: 1, OrgID: 1, Name: "Sales",
		Stages: []models.Stage{
			{BoardID: 1, ID: "new", Position: 0, Outcome: models.OutcomeOpen},
			{BoardID: 1, ID: "closed-won", Position: 1, Outcome: models.OutcomeWon},
			{BoardID: 1, ID: "closed-lost", Position: 2, Outcome: models.OutcomeLost},
		},
		WonStageID:  lostPtr("closed-won"),
		LostStageID: lostPtr("closed-lost"),
	}

	svc := services.NewDealService(repo, &moveBoardRepo{board: board}, nil, nil,
		&moveUserRepo{}, nil, nil, nil)
	h := NewDealHandler(svc, nil)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", 7)
		c.Set("org_id", 1)
		c.Set("role_id", 10)
	})
	r.POST("/deals/:id/move", h.Move)
	return r
}

func doMove(r *gin.Engine, dealID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/deals/"+dealID+"/move", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func freshMoveRepo() *moveDealRepo {
	return &moveDealRepo{deals: map[int]*models.Deal{
		10: {ID: 10, OrgID: 1, BoardID: 1, Title: "Acme", Status: "new", OwnerID: 7, Version: 2},
	}}
}

func TestMoveEndpointOK(t *testing.T) {
	r := newMoveRouter(t, freshMoveRepo())

	w := doMove(r, "10", `{"to":"closed-won"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_won":true`)
}

func TestMoveEndpointLossReasonRequired(t *testing.T) {
	r := newMoveRouter(t, freshMoveRepo())

	w := doMove(r, "10", `{"to":"closed-lost"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "loss_reason_required")

	w = doMove(r, "10", `{"to":"closed-lost","loss_reason":"budget cut"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMoveEndpointVersionConflict(t *testing.T) {
	repo := freshMoveRepo()
	repo.applyErr = repositories.ErrVersionConflict
	r := newMoveRouter(t, repo)

	w := doMove(r, "10", `{"to":"closed-won","version":1}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "conflict")
}

func TestMoveEndpointUnknownStage(t *testing.T) {
	r := newMoveRouter(t, freshMoveRepo())
	w := doMove(r, "10", `{"to":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMoveEndpointUnknownDeal(t *testing.T) {
	r := newMoveRouter(t, freshMoveRepo())
	w := doMove(r, "404", `{"to":"closed-won"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMoveEndpointBadRequest(t *testing.T) {
	r := newMoveRouter(t, freshMoveRepo())

	w := doMove(r, "10", `{}`) // "to" is required
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doMove(r, "abc", `{"to":"closed-won"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMoveEndpointForeignDealForbidden(t *testing.T) {
	repo := freshMoveRepo()
	repo.deals[10].OwnerID = 8 // someone else's deal, caller is plain sales
	r := newMoveRouter(t, repo)

	w := doMove(r, "10", `{"to":"closed-won"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
