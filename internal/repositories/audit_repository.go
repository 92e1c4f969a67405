package repositories

import (
	"database/sql"
	"fmt"

	"dealflow/internal/models"
)

type AuditRepository interface {
	Append(entry *models.AuditEntry) error
	List(orgID int, entity, action string, limit, offset int) ([]*models.AuditEntry, error)
}

type auditRepository struct {
	DB *sql.DB
}

func NewAuditRepository(db *sql.DB) AuditRepository {
	return &auditRepository{DB: db}
}

func (r *auditRepository) Append(entry *models.AuditEntry) error {
	const q = `
		INSERT INTO audit_log (id, org_id, actor_id, action, entity, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`
	_, err := r.DB.Exec(q, entry.ID, entry.OrgID, entry.ActorID, entry.Action,
		entry.Entity, entry.EntityID, entry.Detail, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (r *auditRepository) List(orgID int, entity, action string, limit, offset int) ([]*models.AuditEntry, error) {
	q := `SELECT id, org_id, actor_id, action, entity, entity_id, detail, created_at
		FROM audit_log WHERE org_id=$1`
	args := []interface{}{orgID}
	i := 2
	if entity != "" {
		q += fmt.Sprintf(" AND entity=$%d", i)
		args = append(args, entity)
		i++
	}
	if action != "" {
		q += fmt.Sprintf(" AND action=$%d", i)
		args = append(args, action)
		i++
	}
	q += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", i, i+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.AuditEntry
	for rows.Next() {
		e := &models.AuditEntry{}
		if err := rows.Scan(&e.ID, &e.OrgID, &e.ActorID, &e.Action,
			&e.Entity, &e.EntityID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("list audit entries: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
