package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"dealflow/internal/models"
)

// MoveChange is the full set of writes one stage move produces. The
// repository applies it in a single transaction.
type MoveChange struct {
	OrgID  int
	DealID int

	TargetStage string
	MovedAt     time.Time

	// won/lost bookkeeping; nil ClosedAt means the move is not terminal
	IsWon      bool
	IsLost     bool
	LossReason *string
	ClosedAt   *time.Time

	// contact promotion, applied when PromoteContactID is set
	PromoteContactID *int
	PromoteToStage   string

	// handoff deal created on the next board for won moves
	Handoff *models.Deal

	// 0 skips the optimistic check (legacy last-write-wins)
	ExpectedVersion int
}

// DealQuery is the server-side filter for deal listings. Zero values
// mean "no constraint".
type DealQuery struct {
	BoardID  int
	OwnerID  int
	Status   string // open | won | lost
	From, To *time.Time
	SortBy   string // created_at | value | title
	Order    string // asc | desc
	Limit    int
	Offset   int
}

type DealRepository interface {
	Create(deal *models.Deal) error
	GetByID(orgID, id int) (*models.Deal, error)
	Update(deal *models.Deal) error
	Delete(orgID, id int) error
	ListByBoard(orgID, boardID int) ([]*models.Deal, error)
	Filter(orgID int, q DealQuery) ([]*models.Deal, error)

	ApplyMove(ch *MoveChange) error

	AddItem(item *models.DealItem) error
	DeleteItem(orgID, dealID, itemID int) error

	// dashboard aggregates
	CountByOutcome(orgID int) (open, won, lost int, err error)
	PipelineValueByBoard(orgID int) (map[int]float64, error)
	WonValueSince(orgID int, since time.Time) (float64, error)
	CountStagnant(orgID int, olderThan time.Time) (int, error)
}

type dealRepository struct {
	DB *sql.DB
}

func NewDealRepository(db *sql.DB) DealRepository {
	return &dealRepository{DB: db}
}

const dealColumns = `d.id, d.org_id, d.board_id, d.title, d.value, d.status,
	d.is_won, d.is_lost, d.loss_reason, d.closed_at,
	d.contact_id, d.company_id, d.owner_id,
	COALESCE(u.name, ''), COALESCE(u.avatar_url, ''), COALESCE(c.name, ''),
	d.version, d.created_at, d.updated_at, d.last_stage_change_at`

const dealJoins = `
	FROM deals d
	LEFT JOIN users u ON u.id = d.owner_id
	LEFT JOIN companies c ON c.id = d.company_id`

type dealScanner interface {
	Scan(dest ...interface{}) error
}

func scanDeal(row dealScanner) (*models.Deal, error) {
	d := &models.Deal{}
	err := row.Scan(
		&d.ID, &d.OrgID, &d.BoardID, &d.Title, &d.Value, &d.Status,
		&d.IsWon, &d.IsLost, &d.LossReason, &d.ClosedAt,
		&d.ContactID, &d.CompanyID, &d.OwnerID,
		&d.OwnerName, &d.OwnerAvatar, &d.CompanyName,
		&d.Version, &d.CreatedAt, &d.UpdatedAt, &d.LastStageChangeAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan deal: %w", err)
	}
	return d, nil
}

func (r *dealRepository) Create(deal *models.Deal) error {
	now := time.Now()
	if deal.CreatedAt.IsZero() {
		deal.CreatedAt = now
	}
	deal.UpdatedAt = deal.CreatedAt
	if deal.LastStageChangeAt.IsZero() {
		deal.LastStageChangeAt = deal.CreatedAt
	}
	const q = `
		INSERT INTO deals (org_id, board_id, title, value, status,
			is_won, is_lost, loss_reason, closed_at,
			contact_id, company_id, owner_id, version,
			created_at, updated_at, last_stage_change_at)
		VALUES ($1,$2,$3,$4,$5,FALSE,FALSE,NULL,NULL,$6,$7,$8,1,$9,$10,$11)
		RETURNING id
	`
	err := r.DB.QueryRow(q,
		deal.OrgID, deal.BoardID, deal.Title, deal.Value, deal.Status,
		deal.ContactID, deal.CompanyID, deal.OwnerID,
		deal.CreatedAt, deal.UpdatedAt, deal.LastStageChangeAt,
	).Scan(&deal.ID)
	if err != nil {
		return fmt.Errorf("create deal: %w", err)
	}
	deal.Version = 1
	return nil
}

func (r *dealRepository) GetByID(orgID, id int) (*models.Deal, error) {
	q := `SELECT ` + dealColumns + dealJoins + ` WHERE d.org_id=$1 AND d.id=$2`
	deal, err := scanDeal(r.DB.QueryRow(q, orgID, id))
	if err != nil || deal == nil {
		return deal, err
	}
	if deal.Items, err = r.loadItems(deal.ID); err != nil {
		return nil, err
	}
	return deal, nil
}

func (r *dealRepository) loadItems(dealID int) ([]models.DealItem, error) {
	rows, err := r.DB.Query(
		`SELECT id, deal_id, name, price, quantity FROM deal_items WHERE deal_id=$1 ORDER BY id`,
		dealID,
	)
	if err != nil {
		return nil, fmt.Errorf("load deal items: %w", err)
	}
	defer rows.Close()

	var items []models.DealItem
	for rows.Next() {
		var it models.DealItem
		if err := rows.Scan(&it.ID, &it.DealID, &it.Name, &it.Price, &it.Quantity); err != nil {
			return nil, fmt.Errorf("load deal items: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *dealRepository) Update(deal *models.Deal) error {
	const q = `
		UPDATE deals
		SET title=$1, value=$2, contact_id=$3, company_id=$4, owner_id=$5,
			updated_at=NOW(), version=version+1
		WHERE org_id=$6 AND id=$7
	`
	_, err := r.DB.Exec(q, deal.Title, deal.Value, deal.ContactID, deal.CompanyID,
		deal.OwnerID, deal.OrgID, deal.ID)
	if err != nil {
		return fmt.Errorf("update deal: %w", err)
	}
	return nil
}

// Delete cascades to the deal's activities and line items.
func (r *dealRepository) Delete(orgID, id int) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("delete deal: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM activities WHERE org_id=$1 AND deal_id=$2`, orgID, id); err != nil {
		return fmt.Errorf("delete deal activities: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM deal_items WHERE deal_id=$1`, id); err != nil {
		return fmt.Errorf("delete deal items: %w", err)
	}
	result, err := tx.Exec(`DELETE FROM deals WHERE org_id=$1 AND id=$2`, orgID, id)
	if err != nil {
		return fmt.Errorf("delete deal: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("deal with id=%d not found", id)
	}
	return tx.Commit()
}

func (r *dealRepository) queryDeals(q string, args ...interface{}) ([]*models.Deal, error) {
	rows, err := r.DB.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query deals: %w", err)
	}
	defer rows.Close()

	var deals []*models.Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		deals = append(deals, d)
	}
	return deals, rows.Err()
}

func (r *dealRepository) ListByBoard(orgID, boardID int) ([]*models.Deal, error) {
	q := `SELECT ` + dealColumns + dealJoins + `
		WHERE d.org_id=$1 AND d.board_id=$2 ORDER BY d.created_at DESC`
	return r.queryDeals(q, orgID, boardID)
}

// Filter builds the listing query dynamically from the non-zero fields
// of q. Sort field and order are whitelisted.
func (r *dealRepository) Filter(orgID int, q DealQuery) ([]*models.Deal, error) {
	sortBy := map[string]string{
		"created_at": "d.created_at",
		"value":      "d.value",
		"title":      "d.title",
	}[q.SortBy]
	if sortBy == "" {
		sortBy = "d.created_at"
	}
	order := "DESC"
	if q.Order == "asc" {
		order = "ASC"
	}

	query := `SELECT ` + dealColumns + dealJoins + ` WHERE d.org_id=$1`
	args := []interface{}{orgID}
	i := 2

	if q.BoardID > 0 {
		query += fmt.Sprintf(" AND d.board_id=$%d", i)
		args = append(args, q.BoardID)
		i++
	}
	if q.OwnerID > 0 {
		query += fmt.Sprintf(" AND d.owner_id=$%d", i)
		args = append(args, q.OwnerID)
		i++
	}
	switch q.Status {
	case "open":
		query += " AND NOT d.is_won AND NOT d.is_lost"
	case "won":
		query += " AND d.is_won"
	case "lost":
		query += " AND d.is_lost"
	}
	if q.From != nil {
		query += fmt.Sprintf(" AND d.created_at >= $%d", i)
		args = append(args, *q.From)
		i++
	}
	if q.To != nil {
		query += fmt.Sprintf(" AND d.created_at <= $%d", i)
		args = append(args, *q.To)
		i++
	}

	query += fmt.Sprintf(" ORDER BY %s %s", sortBy, order)
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", i, i+1)
		args = append(args, q.Limit, q.Offset)
	}
	return r.queryDeals(query, args...)
}

// ApplyMove commits one stage move as a unit: stage/flag update, handoff
// creation and contact promotion either all land or none do.
func (r *dealRepository) ApplyMove(ch *MoveChange) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("apply move: %w", err)
	}
	defer tx.Rollback()

	q := `
		UPDATE deals
		SET status=$1, last_stage_change_at=$2, updated_at=$2,
			is_won=$3, is_lost=$4, loss_reason=$5, closed_at=$6,
			version=version+1
		WHERE org_id=$7 AND id=$8
	`
	args := []interface{}{
		ch.TargetStage, ch.MovedAt,
		ch.IsWon, ch.IsLost, ch.LossReason, ch.ClosedAt,
		ch.OrgID, ch.DealID,
	}
	if ch.ExpectedVersion > 0 {
		q += ` AND version=$9`
		args = append(args, ch.ExpectedVersion)
	}
	result, err := tx.Exec(q, args...)
	if err != nil {
		return fmt.Errorf("apply move: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("apply move: %w", err)
	}
	if affected == 0 {
		if ch.ExpectedVersion > 0 {
			return ErrVersionConflict
		}
		return fmt.Errorf("deal with id=%d not found", ch.DealID)
	}

	if ch.Handoff != nil {
		h := ch.Handoff
		now := ch.MovedAt
		const hq = `
			INSERT INTO deals (org_id, board_id, title, value, status,
				is_won, is_lost, loss_reason, closed_at,
				contact_id, company_id, owner_id, version,
				created_at, updated_at, last_stage_change_at)
			VALUES ($1,$2,$3,$4,$5,FALSE,FALSE,NULL,NULL,$6,$7,$8,1,$9,$9,$9)
			RETURNING id
		`
		if err := tx.QueryRow(hq,
			h.OrgID, h.BoardID, h.Title, h.Value, h.Status,
			h.ContactID, h.CompanyID, h.OwnerID, now,
		).Scan(&h.ID); err != nil {
			return fmt.Errorf("create handoff deal: %w", err)
		}
	}

	if ch.PromoteContactID != nil {
		const cq = `UPDATE contacts SET stage=$1 WHERE org_id=$2 AND id=$3`
		if _, err := tx.Exec(cq, ch.PromoteToStage, ch.OrgID, *ch.PromoteContactID); err != nil {
			return fmt.Errorf("promote contact: %w", err)
		}
	}

	return tx.Commit()
}

func (r *dealRepository) AddItem(item *models.DealItem) error {
	const q = `INSERT INTO deal_items (deal_id, name, price, quantity) VALUES ($1,$2,$3,$4) RETURNING id`
	if err := r.DB.QueryRow(q, item.DealID, item.Name, item.Price, item.Quantity).Scan(&item.ID); err != nil {
		return fmt.Errorf("add deal item: %w", err)
	}
	return nil
}

func (r *dealRepository) DeleteItem(orgID, dealID, itemID int) error {
	const q = `
		DELETE FROM deal_items i
		USING deals d
		WHERE i.deal_id=d.id AND d.org_id=$1 AND i.deal_id=$2 AND i.id=$3
	`
	result, err := r.DB.Exec(q, orgID, dealID, itemID)
	if err != nil {
		return fmt.Errorf("delete deal item: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("item with id=%d not found on deal %d", itemID, dealID)
	}
	return nil
}

func (r *dealRepository) CountByOutcome(orgID int) (open, won, lost int, err error) {
	const q = `
		SELECT
			COUNT(*) FILTER (WHERE NOT is_won AND NOT is_lost),
			COUNT(*) FILTER (WHERE is_won),
			COUNT(*) FILTER (WHERE is_lost)
		FROM deals WHERE org_id=$1
	`
	err = r.DB.QueryRow(q, orgID).Scan(&open, &won, &lost)
	return
}

func (r *dealRepository) PipelineValueByBoard(orgID int) (map[int]float64, error) {
	const q = `
		SELECT board_id, COALESCE(SUM(value), 0)
		FROM deals
		WHERE org_id=$1 AND NOT is_won AND NOT is_lost
		GROUP BY board_id
	`
	rows, err := r.DB.Query(q, orgID)
	if err != nil {
		return nil, fmt.Errorf("pipeline value: %w", err)
	}
	defer rows.Close()

	out := map[int]float64{}
	for rows.Next() {
		var boardID int
		var value float64
		if err := rows.Scan(&boardID, &value); err != nil {
			return nil, fmt.Errorf("pipeline value: %w", err)
		}
		out[boardID] = value
	}
	return out, rows.Err()
}

func (r *dealRepository) WonValueSince(orgID int, since time.Time) (float64, error) {
	var value float64
	err := r.DB.QueryRow(
		`SELECT COALESCE(SUM(value), 0) FROM deals WHERE org_id=$1 AND is_won AND closed_at >= $2`,
		orgID, since,
	).Scan(&value)
	return value, err
}

func (r *dealRepository) CountStagnant(orgID int, olderThan time.Time) (int, error) {
	var count int
	err := r.DB.QueryRow(
		`SELECT COUNT(*) FROM deals
		 WHERE org_id=$1 AND NOT is_won AND NOT is_lost AND last_stage_change_at < $2`,
		orgID, olderThan,
	).Scan(&count)
	return count, err
}
