package services

import (
	"log"
	"time"

	"github.com/google/uuid"

	"dealflow/internal/models"
	"dealflow/internal/repositories"
)

type AuditService struct {
	Repo repositories.AuditRepository
}

func NewAuditService(repo repositories.AuditRepository) *AuditService {
	return &AuditService{Repo: repo}
}

// Record appends an audit entry. Best effort: a failed append is logged
// and never fails the mutation that produced it.
func (s *AuditService) Record(orgID, actorID int, action, entity, entityID, detail string) {
	entry := &models.AuditEntry{
		ID:        uuid.NewString(),
		OrgID:     orgID,
		ActorID:   actorID,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Detail:    detail,
		CreatedAt: time.Now(),
	}
	if err := s.Repo.Append(entry); err != nil {
		log.Printf("[audit][record] append failed action=%s entity=%s/%s: %v", action, entity, entityID, err)
	}
}

func (s *AuditService) List(orgID int, entity, action string, limit, offset int) ([]*models.AuditEntry, error) {
	return s.Repo.List(orgID, entity, action, limit, offset)
}
