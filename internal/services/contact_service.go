package services

import (
	"errors"
	"fmt"
	"strings"

	"dealflow/internal/models"
	"dealflow/internal/realtime"
	"dealflow/internal/repositories"
)

var ErrContactNotFound = errors.New("contact not found")

type ContactService struct {
	Repo  repositories.ContactRepository
	Hub   Invalidator
	Audit Recorder
}

func NewContactService(repo repositories.ContactRepository, hub Invalidator, audit Recorder) *ContactService {
	return &ContactService{Repo: repo, Hub: hub, Audit: audit}
}

func (s *ContactService) Create(actorID int, contact *models.Contact) error {
	if strings.TrimSpace(contact.Name) == "" {
		return errors.New("name is required")
	}
	if err := s.Repo.Create(contact); err != nil {
		return err
	}
	s.afterWrite(contact.OrgID, actorID, "contact.create", fmt.Sprint(contact.ID), contact.Name)
	return nil
}

func (s *ContactService) GetByID(orgID, id int) (*models.Contact, error) {
	return s.Repo.GetByID(orgID, id)
}

func (s *ContactService) Update(actorID int, contact *models.Contact) error {
	current, err := s.Repo.GetByID(contact.OrgID, contact.ID)
	if err != nil {
		return err
	}
	if current == nil {
		return ErrContactNotFound
	}
	if err := s.Repo.Update(contact); err != nil {
		return err
	}
	s.afterWrite(contact.OrgID, actorID, "contact.update", fmt.Sprint(contact.ID), contact.Name)
	return nil
}

func (s *ContactService) Delete(orgID, actorID, id int) error {
	if err := s.Repo.Delete(orgID, id); err != nil {
		return err
	}
	s.afterWrite(orgID, actorID, "contact.delete", fmt.Sprint(id), "")
	return nil
}

func (s *ContactService) List(orgID, limit, offset int) ([]*models.Contact, error) {
	return s.Repo.List(orgID, limit, offset)
}

func (s *ContactService) afterWrite(orgID, actorID int, action, entityID, detail string) {
	if s.Hub != nil {
		s.Hub.Invalidate(realtime.CollectionContacts)
	}
	if s.Audit != nil {
		s.Audit.Record(orgID, actorID, action, "contact", entityID, detail)
	}
}

type CompanyService struct {
	Repo  repositories.CompanyRepository
	Audit Recorder
}

func NewCompanyService(repo repositories.CompanyRepository, audit Recorder) *CompanyService {
	return &CompanyService{Repo: repo, Audit: audit}
}

func (s *CompanyService) Create(actorID int, company *models.Company) error {
	if strings.TrimSpace(company.Name) == "" {
		return errors.New("name is required")
	}
	if err := s.Repo.Create(company); err != nil {
		return err
	}
	if s.Audit != nil {
		s.Audit.Record(company.OrgID, actorID, "company.create", "company", fmt.Sprint(company.ID), company.Name)
	}
	return nil
}

func (s *CompanyService) GetByID(orgID, id int) (*models.Company, error) {
	return s.Repo.GetByID(orgID, id)
}

func (s *CompanyService) Update(actorID int, company *models.Company) error {
	if err := s.Repo.Update(company); err != nil {
		return err
	}
	if s.Audit != nil {
		s.Audit.Record(company.OrgID, actorID, "company.update", "company", fmt.Sprint(company.ID), company.Name)
	}
	return nil
}

func (s *CompanyService) Delete(orgID, actorID, id int) error {
	if err := s.Repo.Delete(orgID, id); err != nil {
		return err
	}
	if s.Audit != nil {
		s.Audit.Record(orgID, actorID, "company.delete", "company", fmt.Sprint(id), "")
	}
	return nil
}

func (s *CompanyService) List(orgID, limit, offset int) ([]*models.Company, error) {
	return s.Repo.List(orgID, limit, offset)
}
