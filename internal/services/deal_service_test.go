package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealflow/internal/models"
	"dealflow/internal/repositories"
)

func intPtr(i int) *int { return &i }

// --- fakes -----------------------------------------------------------

type fakeDealRepo struct {
	repositories.DealRepository

	deals    map[int]*models.Deal
	applied  []*repositories.MoveChange
	applyErr error
}

func (f *fakeDealRepo) GetByID(orgID, id int) (*models.Deal, error) {
	d, ok := f.deals[id]
	if !ok || d.OrgID != orgID {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDealRepo) ApplyMove(ch *repositories.MoveChange) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.applied = append(f.applied, ch)
	if d, ok := f.deals[ch.DealID]; ok {
		d.Status = ch.TargetStage
		d.IsWon = ch.IsWon
		d.IsLost = ch.IsLost
		d.LossReason = ch.LossReason
		d.ClosedAt = ch.ClosedAt
		d.LastStageChangeAt = ch.MovedAt
		d.Version++
	}
	return nil
}

type fakeBoardRepo struct {
	repositories.BoardRepository

	boards map[int]*models.Board
}

func (f *fakeBoardRepo) GetByID(orgID, id int) (*models.Board, error) {
	b, ok := f.boards[id]
	if !ok || b.OrgID != orgID {
		return nil, nil
	}
	return b, nil
}

type fakeContactRepo struct {
	repositories.ContactRepository

	contacts map[int]*models.Contact
}

func (f *fakeContactRepo) GetByID(orgID, id int) (*models.Contact, error) {
	c, ok := f.contacts[id]
	if !ok || c.OrgID != orgID {
		return nil, nil
	}
	return c, nil
}

type fakeLifecycleRepo struct {
	repositories.LifecycleRepository

	taxonomy []*models.LifecycleStage
}

func (f *fakeLifecycleRepo) List(orgID int) ([]*models.LifecycleStage, error) {
	return f.taxonomy, nil
}

type fakeUserRepo struct {
	repositories.UserRepository

	users map[int]*models.User
}

func (f *fakeUserRepo) GetByID(orgID, id int) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	return u, nil
}

type fakeHub struct {
	invalidated [][]string
}

func (f *fakeHub) Invalidate(collections ...string) {
	f.invalidated = append(f.invalidated, collections)
}

type auditCall struct {
	action, entity, entityID, detail string
}

type fakeAudit struct {
	calls []auditCall
}

func (f *fakeAudit) Record(orgID, actorID int, action, entity, entityID, detail string) {
	f.calls = append(f.calls, auditCall{action, entity, entityID, detail})
}

type outcomeCall struct {
	chatID int64
	title  string
	won    bool
	reason string
}

type fakeNotifier struct {
	calls []outcomeCall
	err   error
}

func (f *fakeNotifier) DealOutcome(chatID int64, title string, value float64, won bool, reason string) error {
	f.calls = append(f.calls, outcomeCall{chatID, title, won, reason})
	return f.err
}

// --- fixture ---------------------------------------------------------

type moveFixture struct {
	svc      *DealService
	deals    *fakeDealRepo
	boards   *fakeBoardRepo
	contacts *fakeContactRepo
	users    *fakeUserRepo
	hub      *fakeHub
	audit    *fakeAudit
	notifier *fakeNotifier
}

func newMoveFixture(t *testing.T) *moveFixture {
	t.Helper()

	salesBoard := testBoard() // id 1, stages new/qualified/closed-won/closed-lost
	salesBoard.NextBoardID = intPtr(2)
	onboarding := &models.Board{
		ID: 2, OrgID: 1, Name: "Onboarding",
		Stages: []models.Stage{
			{BoardID: 2, ID: "kickoff", Label: "Kickoff", Position: 0, Outcome: models.OutcomeOpen},
			{BoardID: 2, ID: "live", Label: "Live", Position: 1, Outcome: models.OutcomeWon},
		},
	}

	f := &moveFixture{
		deals: &fakeDealRepo{deals: map[int]*models.Deal{
			10: {ID: 10, OrgID: 1, BoardID: 1, Title: "Acme renewal", Value: 5000,
				Status: "new", OwnerID: 7, ContactID: intPtr(30), Version: 3},
		}},
		boards:   &fakeBoardRepo{boards: map[int]*models.Board{1: salesBoard, 2: onboarding}},
		contacts: &fakeContactRepo{contacts: map[int]*models.Contact{
			30: {ID: 30, OrgID: 1, Name: "Jane", Stage: "lead"},
		}},
		users: &fakeUserRepo{users: map[int]*models.User{
			7: {ID: 7, OrgID: 1, Name: "Alice"},
		}},
		hub:      &fakeHub{},
		audit:    &fakeAudit{},
		notifier: &fakeNotifier{},
	}
	f.svc = NewDealService(f.deals, f.boards, f.contacts,
		&fakeLifecycleRepo{taxonomy: []*models.LifecycleStage{
			{ID: "lead", Position: 0},
			{ID: "mql", Position: 1},
			{ID: "customer", Position: 2},
		}},
		f.users, f.hub, f.audit, f.notifier)
	f.svc.Now = func() time.Time { return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

// --- tests -----------------------------------------------------------

func TestMoveNormalStage(t *testing.T) {
	f := newMoveFixture(t)

	deal, err := f.svc.Move(1, 7, 10, "qualified", "", 0)
	require.NoError(t, err)
	assert.Equal(t, "qualified", deal.Status)
	assert.True(t, deal.Open())

	require.Len(t, f.deals.applied, 1)
	ch := f.deals.applied[0]
	assert.False(t, ch.IsWon)
	assert.False(t, ch.IsLost)
	assert.Nil(t, ch.ClosedAt)
	assert.Nil(t, ch.Handoff)
	assert.Empty(t, f.notifier.calls, "normal moves do not notify")
}

func TestMoveLostRequiresReason(t *testing.T) {
	f := newMoveFixture(t)

	for _, reason := range []string{"", "   "} {
		_, err := f.svc.Move(1, 7, 10, "closed-lost", reason, 0)
		assert.ErrorIs(t, err, ErrLossReasonRequired)
	}

	// nothing was written, broadcast or audited
	assert.Empty(t, f.deals.applied)
	assert.Empty(t, f.hub.invalidated)
	assert.Empty(t, f.audit.calls)

	deal, _ := f.deals.GetByID(1, 10)
	assert.Equal(t, "new", deal.Status)
}

func TestMoveLostWithReason(t *testing.T) {
	f := newMoveFixture(t)

	deal, err := f.svc.Move(1, 7, 10, "closed-lost", "  chose competitor  ", 0)
	require.NoError(t, err)
	assert.True(t, deal.IsLost)
	require.NotNil(t, deal.LossReason)
	assert.Equal(t, "chose competitor", *deal.LossReason, "reason is trimmed")
	require.NotNil(t, deal.ClosedAt)

	require.Len(t, f.deals.applied, 1)
	assert.Nil(t, f.deals.applied[0].Handoff, "lost moves never hand off")
}

func TestMoveWonCreatesHandoff(t *testing.T) {
	f := newMoveFixture(t)

	deal, err := f.svc.Move(1, 7, 10, "closed-won", "", 0)
	require.NoError(t, err)
	assert.True(t, deal.IsWon)
	require.NotNil(t, deal.ClosedAt)

	require.Len(t, f.deals.applied, 1)
	handoff := f.deals.applied[0].Handoff
	require.NotNil(t, handoff, "won move on a board with next_board creates exactly one handoff")
	assert.Equal(t, 2, handoff.BoardID)
	assert.Equal(t, "kickoff", handoff.Status, "handoff lands on the first stage")
	assert.Equal(t, "Acme renewal", handoff.Title)
	assert.Equal(t, 5000.0, handoff.Value)
	assert.Equal(t, 7, handoff.OwnerID)
}

func TestMoveWonWithoutNextBoard(t *testing.T) {
	f := newMoveFixture(t)
	f.boards.boards[1].NextBoardID = nil

	_, err := f.svc.Move(1, 7, 10, "closed-won", "", 0)
	require.NoError(t, err)
	require.Len(t, f.deals.applied, 1)
	assert.Nil(t, f.deals.applied[0].Handoff)
}

func TestMoveWonBrokenNextBoardFailsMove(t *testing.T) {
	f := newMoveFixture(t)
	f.boards.boards[1].NextBoardID = intPtr(99)

	_, err := f.svc.Move(1, 7, 10, "closed-won", "", 0)
	require.Error(t, err)
	assert.Empty(t, f.deals.applied, "move is not half-applied")
}

func TestMoveReservedStageIDs(t *testing.T) {
	f := newMoveFixture(t)

	deal, err := f.svc.Move(1, 7, 10, "won", "", 0)
	require.NoError(t, err)
	assert.True(t, deal.IsWon)
	assert.Equal(t, "closed-won", deal.Status, "reserved id resolves to the configured stage")

	f = newMoveFixture(t)
	_, err = f.svc.Move(1, 7, 10, "lost", "", 0)
	assert.ErrorIs(t, err, ErrLossReasonRequired)
}

func TestMoveUnknownStage(t *testing.T) {
	f := newMoveFixture(t)
	_, err := f.svc.Move(1, 7, 10, "no-such-stage", "", 0)
	assert.ErrorIs(t, err, ErrStageNotFound)
	assert.Empty(t, f.deals.applied)
}

func TestMoveUnknownDeal(t *testing.T) {
	f := newMoveFixture(t)
	_, err := f.svc.Move(1, 7, 404, "qualified", "", 0)
	assert.ErrorIs(t, err, ErrDealNotFound)
}

func TestMoveWrongOrg(t *testing.T) {
	f := newMoveFixture(t)
	_, err := f.svc.Move(2, 7, 10, "qualified", "", 0)
	assert.ErrorIs(t, err, ErrDealNotFound)
}

func TestMoveVersionConflictSurfaces(t *testing.T) {
	f := newMoveFixture(t)
	f.deals.applyErr = repositories.ErrVersionConflict

	_, err := f.svc.Move(1, 7, 10, "qualified", "", 3)
	assert.ErrorIs(t, err, repositories.ErrVersionConflict)
	assert.Empty(t, f.hub.invalidated, "no invalidation on a rejected move")
}

func TestMoveCarriesExpectedVersion(t *testing.T) {
	f := newMoveFixture(t)

	_, err := f.svc.Move(1, 7, 10, "qualified", "", 3)
	require.NoError(t, err)
	require.Len(t, f.deals.applied, 1)
	assert.Equal(t, 3, f.deals.applied[0].ExpectedVersion)

	// 0 keeps last-write-wins
	_, err = f.svc.Move(1, 7, 10, "new", "", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, f.deals.applied[1].ExpectedVersion)
}

func TestMovePromotesContact(t *testing.T) {
	f := newMoveFixture(t)
	mql := "mql"
	f.boards.boards[1].Stages[1].LinkedLifecycleStage = &mql

	_, err := f.svc.Move(1, 7, 10, "qualified", "", 0)
	require.NoError(t, err)

	require.Len(t, f.deals.applied, 1)
	ch := f.deals.applied[0]
	require.NotNil(t, ch.PromoteContactID)
	assert.Equal(t, 30, *ch.PromoteContactID)
	assert.Equal(t, "mql", ch.PromoteToStage)
}

func TestMoveNeverDemotesContact(t *testing.T) {
	f := newMoveFixture(t)
	mql := "mql"
	f.boards.boards[1].Stages[1].LinkedLifecycleStage = &mql
	f.contacts.contacts[30].Stage = "customer"

	_, err := f.svc.Move(1, 7, 10, "qualified", "", 0)
	require.NoError(t, err)
	assert.Nil(t, f.deals.applied[0].PromoteContactID)
}

func TestMoveMissingContactIsNoOp(t *testing.T) {
	f := newMoveFixture(t)
	mql := "mql"
	f.boards.boards[1].Stages[1].LinkedLifecycleStage = &mql
	delete(f.contacts.contacts, 30)

	_, err := f.svc.Move(1, 7, 10, "qualified", "", 0)
	require.NoError(t, err)
	assert.Nil(t, f.deals.applied[0].PromoteContactID)
}

func TestMoveInvalidatesAndAudits(t *testing.T) {
	f := newMoveFixture(t)

	_, err := f.svc.Move(1, 7, 10, "qualified", "", 0)
	require.NoError(t, err)

	require.Len(t, f.hub.invalidated, 1)
	assert.ElementsMatch(t,
		[]string{"deals.all", "boards.all", "dashboard.stats"},
		f.hub.invalidated[0])

	require.Len(t, f.audit.calls, 1)
	call := f.audit.calls[0]
	assert.Equal(t, "deal.move.normal", call.action)
	assert.Equal(t, "deal", call.entity)
	assert.Equal(t, "10", call.entityID)
	assert.Equal(t, "new -> qualified", call.detail)
}

func TestMoveNotifiesLinkedOwner(t *testing.T) {
	f := newMoveFixture(t)
	chat := int64(555)
	f.users.users[7].TelegramChatID = &chat
	f.users.users[7].NotifyDeals = true

	_, err := f.svc.Move(1, 7, 10, "closed-won", "", 0)
	require.NoError(t, err)

	require.Len(t, f.notifier.calls, 1)
	call := f.notifier.calls[0]
	assert.Equal(t, int64(555), call.chatID)
	assert.True(t, call.won)
}

func TestMoveNotifierFailureDoesNotFailMove(t *testing.T) {
	f := newMoveFixture(t)
	chat := int64(555)
	f.users.users[7].TelegramChatID = &chat
	f.users.users[7].NotifyDeals = true
	f.notifier.err = assert.AnError

	deal, err := f.svc.Move(1, 7, 10, "closed-won", "", 0)
	require.NoError(t, err)
	assert.True(t, deal.IsWon)
}

func TestMoveNoNotificationWithoutLink(t *testing.T) {
	f := newMoveFixture(t)

	_, err := f.svc.Move(1, 7, 10, "closed-won", "", 0)
	require.NoError(t, err)
	assert.Empty(t, f.notifier.calls)
}
