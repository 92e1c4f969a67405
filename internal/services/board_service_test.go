package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealflow/internal/models"
	"dealflow/internal/repositories"
)

type boardRepoCalls struct {
	deleted         []int
	deletedCascade  []int
	moved           [][3]interface{} // from, to, stage
	addedStages     []*models.Stage
	deletedStageIDs []string
}

type stubBoardRepo struct {
	repositories.BoardRepository

	boards       map[int]*models.Board
	dealCount    map[int]int
	stageCount   map[string]int
	calls        boardRepoCalls
}

func (f *stubBoardRepo) GetByID(orgID, id int) (*models.Board, error) {
	b, ok := f.boards[id]
	if !ok || b.OrgID != orgID {
		return nil, nil
	}
	return b, nil
}

func (f *stubBoardRepo) CountDeals(orgID, boardID int) (int, error) {
	return f.dealCount[boardID], nil
}

func (f *stubBoardRepo) CountDealsInStage(orgID, boardID int, stageID string) (int, error) {
	return f.stageCount[stageID], nil
}

func (f *stubBoardRepo) Delete(orgID, id int) error {
	f.calls.deleted = append(f.calls.deleted, id)
	return nil
}

func (f *stubBoardRepo) DeleteWithDeals(orgID, boardID int) error {
	f.calls.deletedCascade = append(f.calls.deletedCascade, boardID)
	return nil
}

func (f *stubBoardRepo) MoveDeals(orgID, fromBoardID, toBoardID int, toStageID string) error {
	f.calls.moved = append(f.calls.moved, [3]interface{}{fromBoardID, toBoardID, toStageID})
	return nil
}

func (f *stubBoardRepo) AddStage(stage *models.Stage) error {
	f.calls.addedStages = append(f.calls.addedStages, stage)
	return nil
}

func (f *stubBoardRepo) DeleteStage(orgID, boardID int, stageID string) error {
	f.calls.deletedStageIDs = append(f.calls.deletedStageIDs, stageID)
	return nil
}

func (f *stubBoardRepo) Create(board *models.Board) error { return nil }

func newBoardFixture() (*BoardService, *stubBoardRepo) {
	repo := &stubBoardRepo{
		boards: map[int]*models.Board{
			1: testBoard(),
			2: {ID: 2, OrgID: 1, Name: "Onboarding", Stages: []models.Stage{
				{BoardID: 2, ID: "kickoff", Position: 0},
			}},
		},
		dealCount:  map[int]int{},
		stageCount: map[string]int{},
	}
	return NewBoardService(repo, &fakeHub{}, &fakeAudit{}), repo
}

func TestBoardCreateRejectsDuplicateStageIDs(t *testing.T) {
	svc, _ := newBoardFixture()
	err := svc.Create(7, &models.Board{OrgID: 1, Name: "B", Stages: []models.Stage{
		{ID: "a"}, {ID: "a"},
	}})
	assert.Error(t, err)
}

func TestBoardDeleteEmpty(t *testing.T) {
	svc, repo := newBoardFixture()
	require.NoError(t, svc.Delete(1, 7, 1, 0, false))
	assert.Equal(t, []int{1}, repo.calls.deleted)
}

func TestBoardDeleteNonEmptyRefused(t *testing.T) {
	svc, repo := newBoardFixture()
	repo.dealCount[1] = 4

	err := svc.Delete(1, 7, 1, 0, false)
	assert.ErrorIs(t, err, ErrBoardNotEmpty)
	assert.Empty(t, repo.calls.deleted)
	assert.Empty(t, repo.calls.deletedCascade)
}

func TestBoardDeleteCascade(t *testing.T) {
	svc, repo := newBoardFixture()
	repo.dealCount[1] = 4

	require.NoError(t, svc.Delete(1, 7, 1, 0, true))
	assert.Equal(t, []int{1}, repo.calls.deletedCascade)
}

func TestBoardDeleteMovesDeals(t *testing.T) {
	svc, repo := newBoardFixture()
	repo.dealCount[1] = 4

	require.NoError(t, svc.Delete(1, 7, 1, 2, false))
	require.Len(t, repo.calls.moved, 1)
	assert.Equal(t, [3]interface{}{1, 2, "kickoff"}, repo.calls.moved[0],
		"deals land on the destination's first stage")
}

func TestBoardDeleteMoveToUnknownBoard(t *testing.T) {
	svc, repo := newBoardFixture()
	repo.dealCount[1] = 4

	err := svc.Delete(1, 7, 1, 99, false)
	assert.ErrorIs(t, err, ErrBoardNotFound)
}

func TestAddStageRejectsDuplicate(t *testing.T) {
	svc, _ := newBoardFixture()
	err := svc.AddStage(1, 7, &models.Stage{BoardID: 1, ID: "qualified"})
	assert.Error(t, err)
}

func TestDeleteStageRefusedWhileOccupied(t *testing.T) {
	svc, repo := newBoardFixture()
	repo.stageCount["qualified"] = 2

	err := svc.DeleteStage(1, 7, 1, "qualified")
	assert.ErrorIs(t, err, ErrStageNotEmpty)
	assert.Empty(t, repo.calls.deletedStageIDs)

	require.NoError(t, svc.DeleteStage(1, 7, 1, "new"))
	assert.Equal(t, []string{"new"}, repo.calls.deletedStageIDs)
}
