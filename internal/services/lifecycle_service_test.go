package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealflow/internal/models"
	"dealflow/internal/repositories"
)

type stubLifecycleRepo struct {
	repositories.LifecycleRepository

	created  []*models.LifecycleStage
	deleted  []string
	boardRef map[string]int
}

func (f *stubLifecycleRepo) Create(stage *models.LifecycleStage) error {
	f.created = append(f.created, stage)
	return nil
}

func (f *stubLifecycleRepo) Delete(orgID int, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *stubLifecycleRepo) CountBoardStageRefs(orgID int, id string) (int, error) {
	return f.boardRef[id], nil
}

type stubContactCounter struct {
	repositories.ContactRepository

	byStage map[string]int
}

func (f *stubContactCounter) CountByLifecycleStage(orgID int, stageID string) (int, error) {
	return f.byStage[stageID], nil
}

func newLifecycleFixture() (*LifecycleService, *stubLifecycleRepo, *stubContactCounter) {
	repo := &stubLifecycleRepo{boardRef: map[string]int{}}
	contacts := &stubContactCounter{byStage: map[string]int{}}
	return NewLifecycleService(repo, contacts, &fakeAudit{}), repo, contacts
}

func TestLifecycleCreateReservesOther(t *testing.T) {
	svc, repo, _ := newLifecycleFixture()

	err := svc.Create(7, &models.LifecycleStage{ID: models.LifecycleOther, OrgID: 1})
	assert.Error(t, err)
	assert.Empty(t, repo.created)

	require.NoError(t, svc.Create(7, &models.LifecycleStage{ID: "mql", OrgID: 1, Label: "MQL"}))
	require.Len(t, repo.created, 1)
}

func TestLifecycleDeleteBlockedByBoardRefs(t *testing.T) {
	svc, repo, _ := newLifecycleFixture()
	repo.boardRef["mql"] = 3

	err := svc.Delete(1, 7, "mql")
	assert.ErrorIs(t, err, ErrLifecycleStageInUse)
	assert.Empty(t, repo.deleted)
}

func TestLifecycleDeleteBlockedByContacts(t *testing.T) {
	svc, repo, contacts := newLifecycleFixture()
	contacts.byStage["mql"] = 12

	err := svc.Delete(1, 7, "mql")
	assert.ErrorIs(t, err, ErrLifecycleStageInUse)
	assert.Empty(t, repo.deleted)
}

func TestLifecycleDeleteUnreferenced(t *testing.T) {
	svc, repo, _ := newLifecycleFixture()
	require.NoError(t, svc.Delete(1, 7, "stale"))
	assert.Equal(t, []string{"stale"}, repo.deleted)
}
