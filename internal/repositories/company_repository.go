package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"dealflow/internal/models"
)

type CompanyRepository interface {
	Create(company *models.Company) error
	GetByID(orgID, id int) (*models.Company, error)
	Update(company *models.Company) error
	Delete(orgID, id int) error
	List(orgID, limit, offset int) ([]*models.Company, error)
}

type companyRepository struct {
	DB *sql.DB
}

func NewCompanyRepository(db *sql.DB) CompanyRepository {
	return &companyRepository{DB: db}
}

func (r *companyRepository) Create(company *models.Company) error {
	if company.CreatedAt.IsZero() {
		company.CreatedAt = time.Now()
	}
	const q = `INSERT INTO companies (org_id, name, domain, created_at) VALUES ($1,$2,$3,$4) RETURNING id`
	err := r.DB.QueryRow(q, company.OrgID, company.Name, company.Domain, company.CreatedAt).Scan(&company.ID)
	if err != nil {
		return fmt.Errorf("create company: %w", err)
	}
	return nil
}

func (r *companyRepository) GetByID(orgID, id int) (*models.Company, error) {
	const q = `SELECT id, org_id, name, domain, created_at FROM companies WHERE org_id=$1 AND id=$2`
	c := &models.Company{}
	err := r.DB.QueryRow(q, orgID, id).Scan(&c.ID, &c.OrgID, &c.Name, &c.Domain, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get company: %w", err)
	}
	return c, nil
}

func (r *companyRepository) Update(company *models.Company) error {
	const q = `UPDATE companies SET name=$1, domain=$2 WHERE org_id=$3 AND id=$4`
	if _, err := r.DB.Exec(q, company.Name, company.Domain, company.OrgID, company.ID); err != nil {
		return fmt.Errorf("update company: %w", err)
	}
	return nil
}

func (r *companyRepository) Delete(orgID, id int) error {
	result, err := r.DB.Exec(`DELETE FROM companies WHERE org_id=$1 AND id=$2`, orgID, id)
	if err != nil {
		return fmt.Errorf("delete company: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("company with id=%d not found", id)
	}
	return nil
}

func (r *companyRepository) List(orgID, limit, offset int) ([]*models.Company, error) {
	const q = `SELECT id, org_id, name, domain, created_at FROM companies
		WHERE org_id=$1 ORDER BY name LIMIT $2 OFFSET $3`
	rows, err := r.DB.Query(q, orgID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var companies []*models.Company
	for rows.Next() {
		c := &models.Company{}
		if err := rows.Scan(&c.ID, &c.OrgID, &c.Name, &c.Domain, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("list companies: %w", err)
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}
