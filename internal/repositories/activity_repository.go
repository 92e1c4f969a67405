package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"dealflow/internal/models"
)

type ActivityRepository interface {
	Create(activity *models.Activity) error
	GetByID(orgID, id int) (*models.Activity, error)
	Update(activity *models.Activity) error
	Delete(orgID, id int) error
	List(orgID, limit, offset int) ([]*models.Activity, error)
	ListByDeal(orgID, dealID int) ([]*models.Activity, error)
	ListOverdue(orgID int, now time.Time) ([]*models.Activity, error)
	SetDone(orgID, id int, done bool, at time.Time) error

	// DueForReminder returns not-done activities due before the cutoff
	// that have not been reminded yet.
	DueForReminder(cutoff time.Time) ([]*models.Activity, error)
	MarkReminded(id int, at time.Time) error
}

type activityRepository struct {
	DB *sql.DB
}

func NewActivityRepository(db *sql.DB) ActivityRepository {
	return &activityRepository{DB: db}
}

const activityColumns = `id, org_id, type, title, note, deal_id, contact_id, owner_id,
	due_at, done, done_at, reminded_at, created_at`

func scanActivity(row dealScanner) (*models.Activity, error) {
	a := &models.Activity{}
	err := row.Scan(
		&a.ID, &a.OrgID, &a.Type, &a.Title, &a.Note, &a.DealID, &a.ContactID, &a.OwnerID,
		&a.DueAt, &a.Done, &a.DoneAt, &a.RemindedAt, &a.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan activity: %w", err)
	}
	return a, nil
}

func (r *activityRepository) Create(activity *models.Activity) error {
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now()
	}
	const q = `
		INSERT INTO activities (org_id, type, title, note, deal_id, contact_id, owner_id,
			due_at, done, done_at, reminded_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,FALSE,NULL,NULL,$9)
		RETURNING id
	`
	err := r.DB.QueryRow(q, activity.OrgID, activity.Type, activity.Title, activity.Note,
		activity.DealID, activity.ContactID, activity.OwnerID, activity.DueAt, activity.CreatedAt,
	).Scan(&activity.ID)
	if err != nil {
		return fmt.Errorf("create activity: %w", err)
	}
	return nil
}

func (r *activityRepository) GetByID(orgID, id int) (*models.Activity, error) {
	q := `SELECT ` + activityColumns + ` FROM activities WHERE org_id=$1 AND id=$2`
	return scanActivity(r.DB.QueryRow(q, orgID, id))
}

func (r *activityRepository) Update(activity *models.Activity) error {
	const q = `
		UPDATE activities
		SET type=$1, title=$2, note=$3, deal_id=$4, contact_id=$5, due_at=$6
		WHERE org_id=$7 AND id=$8
	`
	_, err := r.DB.Exec(q, activity.Type, activity.Title, activity.Note,
		activity.DealID, activity.ContactID, activity.DueAt, activity.OrgID, activity.ID)
	if err != nil {
		return fmt.Errorf("update activity: %w", err)
	}
	return nil
}

func (r *activityRepository) Delete(orgID, id int) error {
	result, err := r.DB.Exec(`DELETE FROM activities WHERE org_id=$1 AND id=$2`, orgID, id)
	if err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("activity with id=%d not found", id)
	}
	return nil
}

func (r *activityRepository) queryActivities(q string, args ...interface{}) ([]*models.Activity, error) {
	rows, err := r.DB.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	var activities []*models.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

func (r *activityRepository) List(orgID, limit, offset int) ([]*models.Activity, error) {
	q := `SELECT ` + activityColumns + ` FROM activities
		WHERE org_id=$1 ORDER BY due_at LIMIT $2 OFFSET $3`
	return r.queryActivities(q, orgID, limit, offset)
}

func (r *activityRepository) ListByDeal(orgID, dealID int) ([]*models.Activity, error) {
	q := `SELECT ` + activityColumns + ` FROM activities
		WHERE org_id=$1 AND deal_id=$2 ORDER BY due_at`
	return r.queryActivities(q, orgID, dealID)
}

func (r *activityRepository) ListOverdue(orgID int, now time.Time) ([]*models.Activity, error) {
	q := `SELECT ` + activityColumns + ` FROM activities
		WHERE org_id=$1 AND NOT done AND due_at < $2 ORDER BY due_at`
	return r.queryActivities(q, orgID, now)
}

func (r *activityRepository) SetDone(orgID, id int, done bool, at time.Time) error {
	var doneAt interface{}
	if done {
		doneAt = at
	}
	result, err := r.DB.Exec(
		`UPDATE activities SET done=$1, done_at=$2 WHERE org_id=$3 AND id=$4`,
		done, doneAt, orgID, id,
	)
	if err != nil {
		return fmt.Errorf("set activity done: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("activity with id=%d not found", id)
	}
	return nil
}

func (r *activityRepository) DueForReminder(cutoff time.Time) ([]*models.Activity, error) {
	q := `SELECT ` + activityColumns + ` FROM activities
		WHERE NOT done AND reminded_at IS NULL AND due_at <= $1 ORDER BY due_at`
	return r.queryActivities(q, cutoff)
}

func (r *activityRepository) MarkReminded(id int, at time.Time) error {
	_, err := r.DB.Exec(`UPDATE activities SET reminded_at=$1 WHERE id=$2`, at, id)
	return err
}
