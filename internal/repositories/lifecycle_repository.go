package repositories

import (
	"database/sql"
	"fmt"

	"dealflow/internal/models"
)

type LifecycleRepository interface {
	Create(stage *models.LifecycleStage) error
	Update(stage *models.LifecycleStage) error
	Delete(orgID int, id string) error
	List(orgID int) ([]*models.LifecycleStage, error)
	CountBoardStageRefs(orgID int, id string) (int, error)
}

type lifecycleRepository struct {
	DB *sql.DB
}

func NewLifecycleRepository(db *sql.DB) LifecycleRepository {
	return &lifecycleRepository{DB: db}
}

func (r *lifecycleRepository) Create(stage *models.LifecycleStage) error {
	const q = `INSERT INTO lifecycle_stages (id, org_id, label, position) VALUES ($1,$2,$3,$4)`
	if _, err := r.DB.Exec(q, stage.ID, stage.OrgID, stage.Label, stage.Position); err != nil {
		return fmt.Errorf("create lifecycle stage: %w", err)
	}
	return nil
}

func (r *lifecycleRepository) Update(stage *models.LifecycleStage) error {
	const q = `UPDATE lifecycle_stages SET label=$1, position=$2 WHERE org_id=$3 AND id=$4`
	if _, err := r.DB.Exec(q, stage.Label, stage.Position, stage.OrgID, stage.ID); err != nil {
		return fmt.Errorf("update lifecycle stage: %w", err)
	}
	return nil
}

func (r *lifecycleRepository) Delete(orgID int, id string) error {
	result, err := r.DB.Exec(`DELETE FROM lifecycle_stages WHERE org_id=$1 AND id=$2`, orgID, id)
	if err != nil {
		return fmt.Errorf("delete lifecycle stage: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("lifecycle stage %q not found", id)
	}
	return nil
}

func (r *lifecycleRepository) List(orgID int) ([]*models.LifecycleStage, error) {
	const q = `SELECT id, org_id, label, position FROM lifecycle_stages WHERE org_id=$1 ORDER BY position`
	rows, err := r.DB.Query(q, orgID)
	if err != nil {
		return nil, fmt.Errorf("list lifecycle stages: %w", err)
	}
	defer rows.Close()

	var stages []*models.LifecycleStage
	for rows.Next() {
		s := &models.LifecycleStage{}
		if err := rows.Scan(&s.ID, &s.OrgID, &s.Label, &s.Position); err != nil {
			return nil, fmt.Errorf("list lifecycle stages: %w", err)
		}
		stages = append(stages, s)
	}
	return stages, rows.Err()
}

// CountBoardStageRefs counts board stages linked to the lifecycle stage;
// deletion is refused while any exist.
func (r *lifecycleRepository) CountBoardStageRefs(orgID int, id string) (int, error) {
	const q = `
		SELECT COUNT(*)
		FROM board_stages s
		JOIN boards b ON b.id = s.board_id
		WHERE b.org_id=$1 AND s.linked_lifecycle_stage=$2
	`
	var count int
	err := r.DB.QueryRow(q, orgID, id).Scan(&count)
	return count, err
}
