package services

import (
	"errors"
	"strings"

	"dealflow/internal/models"
	"dealflow/internal/repositories"
)

// ErrLifecycleStageInUse is returned when deleting a taxonomy entry
// still referenced by board stages or contacts.
var ErrLifecycleStageInUse = errors.New("lifecycle stage is still referenced")

type LifecycleService struct {
	Repo        repositories.LifecycleRepository
	ContactRepo repositories.ContactRepository
	Audit       Recorder
}

func NewLifecycleService(repo repositories.LifecycleRepository, contactRepo repositories.ContactRepository, audit Recorder) *LifecycleService {
	return &LifecycleService{Repo: repo, ContactRepo: contactRepo, Audit: audit}
}

func (s *LifecycleService) Create(actorID int, stage *models.LifecycleStage) error {
	if strings.TrimSpace(stage.ID) == "" {
		return errors.New("id is required")
	}
	if stage.ID == models.LifecycleOther {
		return errors.New("\"OTHER\" is reserved")
	}
	if err := s.Repo.Create(stage); err != nil {
		return err
	}
	if s.Audit != nil {
		s.Audit.Record(stage.OrgID, actorID, "lifecycle.create", "lifecycle_stage", stage.ID, stage.Label)
	}
	return nil
}

func (s *LifecycleService) Update(actorID int, stage *models.LifecycleStage) error {
	if err := s.Repo.Update(stage); err != nil {
		return err
	}
	if s.Audit != nil {
		s.Audit.Record(stage.OrgID, actorID, "lifecycle.update", "lifecycle_stage", stage.ID, stage.Label)
	}
	return nil
}

func (s *LifecycleService) Delete(orgID, actorID int, id string) error {
	refs, err := s.Repo.CountBoardStageRefs(orgID, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return ErrLifecycleStageInUse
	}
	contacts, err := s.ContactRepo.CountByLifecycleStage(orgID, id)
	if err != nil {
		return err
	}
	if contacts > 0 {
		return ErrLifecycleStageInUse
	}
	if err := s.Repo.Delete(orgID, id); err != nil {
		return err
	}
	if s.Audit != nil {
		s.Audit.Record(orgID, actorID, "lifecycle.delete", "lifecycle_stage", id, "")
	}
	return nil
}

func (s *LifecycleService) List(orgID int) ([]*models.LifecycleStage, error) {
	return s.Repo.List(orgID)
}
