package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"dealflow/internal/models"
)

type ContactRepository interface {
	Create(contact *models.Contact) error
	GetByID(orgID, id int) (*models.Contact, error)
	Update(contact *models.Contact) error
	UpdateStage(orgID, id int, stage string) error
	Delete(orgID, id int) error
	List(orgID, limit, offset int) ([]*models.Contact, error)
	CountByLifecycleStage(orgID int, stageID string) (int, error)
}

type contactRepository struct {
	DB *sql.DB
}

func NewContactRepository(db *sql.DB) ContactRepository {
	return &contactRepository{DB: db}
}

func (r *contactRepository) Create(contact *models.Contact) error {
	if contact.CreatedAt.IsZero() {
		contact.CreatedAt = time.Now()
	}
	const q = `
		INSERT INTO contacts (org_id, name, email, phone, company_id, stage, owner_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id
	`
	err := r.DB.QueryRow(q, contact.OrgID, contact.Name, contact.Email, contact.Phone,
		contact.CompanyID, contact.Stage, contact.OwnerID, contact.CreatedAt).Scan(&contact.ID)
	if err != nil {
		return fmt.Errorf("create contact: %w", err)
	}
	return nil
}

func (r *contactRepository) GetByID(orgID, id int) (*models.Contact, error) {
	const q = `
		SELECT id, org_id, name, email, phone, company_id, stage, owner_id, created_at
		FROM contacts WHERE org_id=$1 AND id=$2
	`
	c := &models.Contact{}
	err := r.DB.QueryRow(q, orgID, id).Scan(
		&c.ID, &c.OrgID, &c.Name, &c.Email, &c.Phone, &c.CompanyID, &c.Stage, &c.OwnerID, &c.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get contact: %w", err)
	}
	return c, nil
}

func (r *contactRepository) Update(contact *models.Contact) error {
	const q = `
		UPDATE contacts
		SET name=$1, email=$2, phone=$3, company_id=$4, stage=$5, owner_id=$6
		WHERE org_id=$7 AND id=$8
	`
	_, err := r.DB.Exec(q, contact.Name, contact.Email, contact.Phone, contact.CompanyID,
		contact.Stage, contact.OwnerID, contact.OrgID, contact.ID)
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	return nil
}

func (r *contactRepository) UpdateStage(orgID, id int, stage string) error {
	_, err := r.DB.Exec(`UPDATE contacts SET stage=$1 WHERE org_id=$2 AND id=$3`, stage, orgID, id)
	if err != nil {
		return fmt.Errorf("update contact stage: %w", err)
	}
	return nil
}

func (r *contactRepository) Delete(orgID, id int) error {
	result, err := r.DB.Exec(`DELETE FROM contacts WHERE org_id=$1 AND id=$2`, orgID, id)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("contact with id=%d not found", id)
	}
	return nil
}

func (r *contactRepository) List(orgID, limit, offset int) ([]*models.Contact, error) {
	const q = `
		SELECT id, org_id, name, email, phone, company_id, stage, owner_id, created_at
		FROM contacts WHERE org_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`
	rows, err := r.DB.Query(q, orgID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []*models.Contact
	for rows.Next() {
		c := &models.Contact{}
		if err := rows.Scan(&c.ID, &c.OrgID, &c.Name, &c.Email, &c.Phone,
			&c.CompanyID, &c.Stage, &c.OwnerID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("list contacts: %w", err)
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

func (r *contactRepository) CountByLifecycleStage(orgID int, stageID string) (int, error) {
	var count int
	err := r.DB.QueryRow(
		`SELECT COUNT(*) FROM contacts WHERE org_id=$1 AND stage=$2`, orgID, stageID,
	).Scan(&count)
	return count, err
}
