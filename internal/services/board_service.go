package services

import (
	"errors"
	"fmt"
	"strings"

	"dealflow/internal/models"
	"dealflow/internal/realtime"
	"dealflow/internal/repositories"
)

var (
	ErrBoardNotFound = errors.New("board not found")
	ErrStageNotEmpty = errors.New("stage still holds deals")
	ErrBoardNotEmpty = errors.New("board still holds deals")
)

type BoardService struct {
	Repo  repositories.BoardRepository
	Hub   Invalidator
	Audit Recorder
}

func NewBoardService(repo repositories.BoardRepository, hub Invalidator, audit Recorder) *BoardService {
	return &BoardService{Repo: repo, Hub: hub, Audit: audit}
}

func (s *BoardService) Create(actorID int, board *models.Board) error {
	if strings.TrimSpace(board.Name) == "" {
		return errors.New("name is required")
	}
	seen := map[string]bool{}
	for _, st := range board.Stages {
		if st.ID == "" {
			return errors.New("stage id is required")
		}
		if seen[st.ID] {
			return fmt.Errorf("duplicate stage id %q", st.ID)
		}
		seen[st.ID] = true
	}
	if err := s.Repo.Create(board); err != nil {
		return err
	}
	s.afterWrite(board.OrgID, actorID, "board.create", fmt.Sprint(board.ID), board.Name)
	return nil
}

func (s *BoardService) GetByID(orgID, id int) (*models.Board, error) {
	return s.Repo.GetByID(orgID, id)
}

func (s *BoardService) List(orgID int) ([]*models.Board, error) {
	return s.Repo.List(orgID)
}

func (s *BoardService) Update(actorID int, board *models.Board) error {
	current, err := s.Repo.GetByID(board.OrgID, board.ID)
	if err != nil {
		return err
	}
	if current == nil {
		return ErrBoardNotFound
	}
	if err := s.Repo.Update(board); err != nil {
		return err
	}
	s.afterWrite(board.OrgID, actorID, "board.update", fmt.Sprint(board.ID), board.Name)
	return nil
}

func (s *BoardService) SetDefault(orgID, actorID, id int) error {
	if err := s.Repo.SetDefault(orgID, id); err != nil {
		return err
	}
	s.afterWrite(orgID, actorID, "board.set_default", fmt.Sprint(id), "")
	return nil
}

// CanDelete returns the number of deals that block a plain delete.
func (s *BoardService) CanDelete(orgID, id int) (int, error) {
	return s.Repo.CountDeals(orgID, id)
}

// Delete removes a board. Dependent deals must be resolved first:
// moveTo re-homes them onto another board's first stage, cascade drops
// them together with their activities, and with neither set a non-empty
// board refuses to go.
func (s *BoardService) Delete(orgID, actorID, id int, moveTo int, cascade bool) error {
	count, err := s.Repo.CountDeals(orgID, id)
	if err != nil {
		return err
	}
	switch {
	case count == 0:
		if err := s.Repo.Delete(orgID, id); err != nil {
			return err
		}
	case cascade:
		if err := s.Repo.DeleteWithDeals(orgID, id); err != nil {
			return err
		}
	case moveTo > 0:
		dst, err := s.Repo.GetByID(orgID, moveTo)
		if err != nil {
			return err
		}
		if dst == nil {
			return ErrBoardNotFound
		}
		first := dst.FirstStage()
		if first == nil {
			return fmt.Errorf("board %d has no stages", moveTo)
		}
		if err := s.Repo.MoveDeals(orgID, id, moveTo, first.ID); err != nil {
			return err
		}
	default:
		return ErrBoardNotEmpty
	}
	s.afterWrite(orgID, actorID, "board.delete", fmt.Sprint(id), "")
	return nil
}

func (s *BoardService) AddStage(orgID, actorID int, stage *models.Stage) error {
	board, err := s.Repo.GetByID(orgID, stage.BoardID)
	if err != nil {
		return err
	}
	if board == nil {
		return ErrBoardNotFound
	}
	if board.StageByID(stage.ID) != nil {
		return fmt.Errorf("duplicate stage id %q", stage.ID)
	}
	if err := s.Repo.AddStage(stage); err != nil {
		return err
	}
	s.afterWrite(orgID, actorID, "board.stage.add", fmt.Sprint(stage.BoardID), stage.ID)
	return nil
}

func (s *BoardService) UpdateStage(orgID, actorID int, stage *models.Stage) error {
	board, err := s.Repo.GetByID(orgID, stage.BoardID)
	if err != nil {
		return err
	}
	if board == nil || board.StageByID(stage.ID) == nil {
		return ErrStageNotFound
	}
	if err := s.Repo.UpdateStage(stage); err != nil {
		return err
	}
	s.afterWrite(orgID, actorID, "board.stage.update", fmt.Sprint(stage.BoardID), stage.ID)
	return nil
}

func (s *BoardService) DeleteStage(orgID, actorID, boardID int, stageID string) error {
	count, err := s.Repo.CountDealsInStage(orgID, boardID, stageID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrStageNotEmpty
	}
	if err := s.Repo.DeleteStage(orgID, boardID, stageID); err != nil {
		return err
	}
	s.afterWrite(orgID, actorID, "board.stage.delete", fmt.Sprint(boardID), stageID)
	return nil
}

func (s *BoardService) afterWrite(orgID, actorID int, action, entityID, detail string) {
	if s.Hub != nil {
		s.Hub.Invalidate(realtime.CollectionBoards, realtime.CollectionDeals, realtime.CollectionDashboard)
	}
	if s.Audit != nil {
		s.Audit.Record(orgID, actorID, action, "board", entityID, detail)
	}
}
