package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"dealflow/internal/models"
	"dealflow/internal/repositories"
)

var ErrActivityNotFound = errors.New("activity not found")

type ActivityService struct {
	Repo     repositories.ActivityRepository
	UserRepo repositories.UserRepository
	Email    EmailService
	Audit    Recorder

	Now func() time.Time
}

func NewActivityService(repo repositories.ActivityRepository, userRepo repositories.UserRepository, email EmailService, audit Recorder) *ActivityService {
	return &ActivityService{Repo: repo, UserRepo: userRepo, Email: email, Audit: audit, Now: time.Now}
}

func (s *ActivityService) Create(actorID int, activity *models.Activity) error {
	if strings.TrimSpace(activity.Title) == "" {
		return errors.New("title is required")
	}
	switch activity.Type {
	case models.ActivityCall, models.ActivityMeeting, models.ActivityEmail, models.ActivityTask:
	default:
		return fmt.Errorf("unknown activity type %q", activity.Type)
	}
	if activity.DueAt.IsZero() {
		return errors.New("due_at is required")
	}
	if err := s.Repo.Create(activity); err != nil {
		return err
	}
	if s.Audit != nil {
		s.Audit.Record(activity.OrgID, actorID, "activity.create", "activity", fmt.Sprint(activity.ID), activity.Title)
	}
	return nil
}

func (s *ActivityService) GetByID(orgID, id int) (*models.Activity, error) {
	return s.Repo.GetByID(orgID, id)
}

func (s *ActivityService) Update(actorID int, activity *models.Activity) error {
	current, err := s.Repo.GetByID(activity.OrgID, activity.ID)
	if err != nil {
		return err
	}
	if current == nil {
		return ErrActivityNotFound
	}
	if err := s.Repo.Update(activity); err != nil {
		return err
	}
	if s.Audit != nil {
		s.Audit.Record(activity.OrgID, actorID, "activity.update", "activity", fmt.Sprint(activity.ID), activity.Title)
	}
	return nil
}

func (s *ActivityService) Delete(orgID, actorID, id int) error {
	if err := s.Repo.Delete(orgID, id); err != nil {
		return err
	}
	if s.Audit != nil {
		s.Audit.Record(orgID, actorID, "activity.delete", "activity", fmt.Sprint(id), "")
	}
	return nil
}

func (s *ActivityService) List(orgID, limit, offset int) ([]*models.Activity, error) {
	return s.Repo.List(orgID, limit, offset)
}

func (s *ActivityService) ListByDeal(orgID, dealID int) ([]*models.Activity, error) {
	return s.Repo.ListByDeal(orgID, dealID)
}

func (s *ActivityService) ListOverdue(orgID int) ([]*models.Activity, error) {
	return s.Repo.ListOverdue(orgID, s.Now())
}

func (s *ActivityService) SetDone(orgID, actorID, id int, done bool) error {
	if err := s.Repo.SetDone(orgID, id, done, s.Now()); err != nil {
		return err
	}
	action := "activity.done"
	if !done {
		action = "activity.reopen"
	}
	if s.Audit != nil {
		s.Audit.Record(orgID, actorID, action, "activity", fmt.Sprint(id), "")
	}
	return nil
}

// SendDueReminders mails owners of activities that came due. Meant to
// run periodically; each activity is reminded at most once. Returns how
// many reminders went out.
func (s *ActivityService) SendDueReminders() (int, error) {
	if s.Email == nil {
		return 0, nil
	}
	now := s.Now()
	due, err := s.Repo.DueForReminder(now)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, a := range due {
		owner, err := s.UserRepo.GetByID(a.OrgID, a.OwnerID)
		if err != nil || owner == nil {
			log.Printf("[activity][remind] owner lookup failed for activity=%d: %v", a.ID, err)
			continue
		}
		if err := s.Email.SendActivityReminder(owner.Email, a.Title, a.Type, a.DueAt); err != nil {
			log.Printf("[activity][remind] send failed for activity=%d: %v", a.ID, err)
			continue
		}
		if err := s.Repo.MarkReminded(a.ID, now); err != nil {
			log.Printf("[activity][remind] mark failed for activity=%d: %v", a.ID, err)
			continue
		}
		sent++
	}
	return sent, nil
}
