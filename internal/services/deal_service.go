package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"dealflow/internal/models"
	"dealflow/internal/realtime"
	"dealflow/internal/repositories"
)

var (
	ErrDealNotFound       = errors.New("deal not found")
	ErrStageNotFound      = errors.New("target stage not on the deal's board")
	ErrLossReasonRequired = errors.New("loss reason required")
)

// Invalidator marks read collections stale after a committed mutation.
type Invalidator interface {
	Invalidate(collections ...string)
}

// Recorder appends an audit entry. Implementations must never fail the
// calling mutation.
type Recorder interface {
	Record(orgID, actorID int, action, entity, entityID, detail string)
}

// OutcomeNotifier delivers best-effort terminal-move notifications.
type OutcomeNotifier interface {
	DealOutcome(chatID int64, title string, value float64, won bool, reason string) error
}

type DealService struct {
	Repo          repositories.DealRepository
	BoardRepo     repositories.BoardRepository
	ContactRepo   repositories.ContactRepository
	LifecycleRepo repositories.LifecycleRepository
	UserRepo      repositories.UserRepository

	Hub      Invalidator
	Audit    Recorder
	Notifier OutcomeNotifier

	// test seam
	Now func() time.Time
}

func NewDealService(
	repo repositories.DealRepository,
	boardRepo repositories.BoardRepository,
	contactRepo repositories.ContactRepository,
	lifecycleRepo repositories.LifecycleRepository,
	userRepo repositories.UserRepository,
	hub Invalidator,
	audit Recorder,
	notifier OutcomeNotifier,
) *DealService {
	return &DealService{
		Repo:          repo,
		BoardRepo:     boardRepo,
		ContactRepo:   contactRepo,
		LifecycleRepo: lifecycleRepo,
		UserRepo:      userRepo,
		Hub:           hub,
		Audit:         audit,
		Notifier:      notifier,
		Now:           time.Now,
	}
}

func (s *DealService) Create(deal *models.Deal) error {
	if strings.TrimSpace(deal.Title) == "" {
		return errors.New("title is required")
	}
	board, err := s.BoardRepo.GetByID(deal.OrgID, deal.BoardID)
	if err != nil {
		return err
	}
	if board == nil {
		return errors.New("board not found")
	}
	if deal.Status == "" {
		first := board.FirstStage()
		if first == nil {
			return errors.New("board has no stages")
		}
		deal.Status = first.ID
	} else if board.StageByID(deal.Status) == nil {
		return ErrStageNotFound
	}
	if err := s.Repo.Create(deal); err != nil {
		return err
	}
	s.afterWrite(deal.OrgID, deal.OwnerID, "deal.create", fmt.Sprint(deal.ID), deal.Title)
	return nil
}

func (s *DealService) GetByID(orgID, id int) (*models.Deal, error) {
	return s.Repo.GetByID(orgID, id)
}

func (s *DealService) Update(actorID int, deal *models.Deal) error {
	if err := s.Repo.Update(deal); err != nil {
		return err
	}
	s.afterWrite(deal.OrgID, actorID, "deal.update", fmt.Sprint(deal.ID), deal.Title)
	return nil
}

func (s *DealService) Delete(orgID, actorID, id int) error {
	if err := s.Repo.Delete(orgID, id); err != nil {
		return err
	}
	s.afterWrite(orgID, actorID, "deal.delete", fmt.Sprint(id), "")
	return nil
}

func (s *DealService) Filter(orgID int, q repositories.DealQuery) ([]*models.Deal, error) {
	return s.Repo.Filter(orgID, q)
}

// BoardView fetches a board's deals and applies the view projection.
func (s *DealService) BoardView(orgID, boardID int, filters DealFilters, viewer Viewer) ([]*models.Deal, error) {
	raw, err := s.Repo.ListByBoard(orgID, boardID)
	if err != nil {
		return nil, err
	}
	return ProjectDeals(raw, filters, viewer), nil
}

func (s *DealService) AddItem(orgID, actorID int, item *models.DealItem) error {
	deal, err := s.Repo.GetByID(orgID, item.DealID)
	if err != nil {
		return err
	}
	if deal == nil {
		return ErrDealNotFound
	}
	if err := s.Repo.AddItem(item); err != nil {
		return err
	}
	s.afterWrite(orgID, actorID, "deal.item.add", fmt.Sprint(item.DealID), item.Name)
	return nil
}

func (s *DealService) DeleteItem(orgID, actorID, dealID, itemID int) error {
	if err := s.Repo.DeleteItem(orgID, dealID, itemID); err != nil {
		return err
	}
	s.afterWrite(orgID, actorID, "deal.item.delete", fmt.Sprint(dealID), "")
	return nil
}

// Move commits a stage change for the deal. Classification of the
// target stage decides the rest: a lost move is gated on a non-blank
// reason before anything is written, a won move closes the deal and
// creates the handoff deal when the board names a next board, and a
// stage with a lifecycle link promotes the linked contact. All writes
// land in one transaction; invalidation, audit and notifications run
// after commit and never fail the move.
//
// expectedVersion > 0 enables the optimistic check; 0 keeps the legacy
// last-write-wins behavior.
func (s *DealService) Move(orgID, actorID, dealID int, targetStageID, lossReason string, expectedVersion int) (*models.Deal, error) {
	deal, err := s.Repo.GetByID(orgID, dealID)
	if err != nil {
		return nil, err
	}
	if deal == nil {
		return nil, ErrDealNotFound
	}
	board, err := s.BoardRepo.GetByID(orgID, deal.BoardID)
	if err != nil {
		return nil, err
	}
	if board == nil {
		return nil, fmt.Errorf("board %d not found for deal %d", deal.BoardID, dealID)
	}

	target := ResolveTargetStage(board, targetStageID)
	if target == nil {
		return nil, ErrStageNotFound
	}
	kind := Classify(target, board)

	reason := strings.TrimSpace(lossReason)
	if kind == MoveLost && reason == "" {
		// the reason dialog was cancelled or never answered; nothing
		// has been written, the deal stays where it was
		return nil, ErrLossReasonRequired
	}

	now := s.Now()
	ch := &repositories.MoveChange{
		OrgID:           orgID,
		DealID:          dealID,
		TargetStage:     target.ID,
		MovedAt:         now,
		ExpectedVersion: expectedVersion,
	}

	switch kind {
	case MoveWon:
		ch.IsWon = true
		ch.ClosedAt = &now
		if board.NextBoardID != nil {
			handoff, err := s.buildHandoff(orgID, *board.NextBoardID, deal, now)
			if err != nil {
				return nil, err
			}
			ch.Handoff = handoff
		}
	case MoveLost:
		ch.IsLost = true
		ch.ClosedAt = &now
		ch.LossReason = &reason
	}

	if deal.ContactID != nil {
		promote, err := s.promotionFor(orgID, *deal.ContactID, target)
		if err != nil {
			return nil, err
		}
		if promote != "" {
			ch.PromoteContactID = deal.ContactID
			ch.PromoteToStage = promote
		}
	}

	if err := s.Repo.ApplyMove(ch); err != nil {
		return nil, err
	}

	s.afterWrite(orgID, actorID, "deal.move."+string(kind), fmt.Sprint(dealID),
		fmt.Sprintf("%s -> %s", deal.Status, target.ID))
	s.notifyOutcome(orgID, deal, kind, reason)

	return s.Repo.GetByID(orgID, dealID)
}

// buildHandoff prepares the follow-up deal on the next board. A broken
// next-board config fails the move rather than dropping the handoff.
func (s *DealService) buildHandoff(orgID, nextBoardID int, deal *models.Deal, now time.Time) (*models.Deal, error) {
	next, err := s.BoardRepo.GetByID(orgID, nextBoardID)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return nil, fmt.Errorf("next board %d not found", nextBoardID)
	}
	first := next.FirstStage()
	if first == nil {
		return nil, fmt.Errorf("next board %d has no stages", nextBoardID)
	}
	return &models.Deal{
		OrgID:     orgID,
		BoardID:   next.ID,
		Title:     deal.Title,
		Value:     deal.Value,
		Status:    first.ID,
		ContactID: deal.ContactID,
		CompanyID: deal.CompanyID,
		OwnerID:   deal.OwnerID,
		CreatedAt: now,
	}, nil
}

func (s *DealService) promotionFor(orgID, contactID int, target *models.Stage) (string, error) {
	if target.LinkedLifecycleStage == nil || *target.LinkedLifecycleStage == models.LifecycleOther {
		return "", nil
	}
	contact, err := s.ContactRepo.GetByID(orgID, contactID)
	if err != nil {
		return "", err
	}
	if contact == nil {
		// deal points at a removed contact; promotion is a no-op
		return "", nil
	}
	taxonomy, err := s.LifecycleRepo.List(orgID)
	if err != nil {
		return "", err
	}
	return PromotionTarget(target, contact.Stage, taxonomy), nil
}

// afterWrite broadcasts staleness and records the audit trail. Both are
// post-commit and best-effort.
func (s *DealService) afterWrite(orgID, actorID int, action, entityID, detail string) {
	if s.Hub != nil {
		s.Hub.Invalidate(realtime.CollectionDeals, realtime.CollectionBoards, realtime.CollectionDashboard)
	}
	if s.Audit != nil {
		s.Audit.Record(orgID, actorID, action, "deal", entityID, detail)
	}
}

func (s *DealService) notifyOutcome(orgID int, deal *models.Deal, kind OutcomeKind, reason string) {
	if s.Notifier == nil || (kind != MoveWon && kind != MoveLost) {
		return
	}
	owner, err := s.UserRepo.GetByID(orgID, deal.OwnerID)
	if err != nil || owner == nil || owner.TelegramChatID == nil || !owner.NotifyDeals {
		return
	}
	if err := s.Notifier.DealOutcome(*owner.TelegramChatID, deal.Title, deal.Value, kind == MoveWon, reason); err != nil {
		log.Printf("[deal][notify] telegram send failed for deal=%d: %v", deal.ID, err)
	}
}
