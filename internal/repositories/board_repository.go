package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"dealflow/internal/models"
)

type BoardRepository interface {
	Create(board *models.Board) error
	GetByID(orgID, id int) (*models.Board, error)
	Update(board *models.Board) error
	Delete(orgID, id int) error
	List(orgID int) ([]*models.Board, error)
	SetDefault(orgID, id int) error

	AddStage(stage *models.Stage) error
	UpdateStage(stage *models.Stage) error
	DeleteStage(orgID, boardID int, stageID string) error
	CountDealsInStage(orgID, boardID int, stageID string) (int, error)

	// CountDeals is the canDelete check: dependent deals on the board.
	CountDeals(orgID, boardID int) (int, error)
	// MoveDeals re-homes every deal of the board to a stage on another
	// board, in one transaction with the board delete when requested.
	MoveDeals(orgID, fromBoardID, toBoardID int, toStageID string) error
	DeleteWithDeals(orgID, boardID int) error
}

type boardRepository struct {
	DB *sql.DB
}

func NewBoardRepository(db *sql.DB) BoardRepository {
	return &boardRepository{DB: db}
}

func (r *boardRepository) Create(board *models.Board) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("create board: %w", err)
	}
	defer tx.Rollback()

	if board.CreatedAt.IsZero() {
		board.CreatedAt = time.Now()
	}
	var goalType interface{}
	var goalTarget, goalCurrent interface{}
	if board.Goal != nil {
		goalType, goalTarget, goalCurrent = board.Goal.Type, board.Goal.Target, board.Goal.Current
	}
	const q = `
		INSERT INTO boards (org_id, name, next_board_id, won_stage_id, lost_stage_id,
			is_default, goal_type, goal_target, goal_current, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id
	`
	if err := tx.QueryRow(q,
		board.OrgID, board.Name, board.NextBoardID, board.WonStageID, board.LostStageID,
		board.IsDefault, goalType, goalTarget, goalCurrent, board.CreatedAt,
	).Scan(&board.ID); err != nil {
		return fmt.Errorf("create board: %w", err)
	}

	for i := range board.Stages {
		s := &board.Stages[i]
		s.BoardID = board.ID
		if err := insertStage(tx, s); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertStage(tx *sql.Tx, s *models.Stage) error {
	const q = `
		INSERT INTO board_stages (board_id, id, label, color, position, outcome,
			linked_lifecycle_stage, estimated_days)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`
	if s.Outcome == "" {
		s.Outcome = models.OutcomeOpen
	}
	if _, err := tx.Exec(q, s.BoardID, s.ID, s.Label, s.Color, s.Position,
		string(s.Outcome), s.LinkedLifecycleStage, s.EstimatedDays); err != nil {
		return fmt.Errorf("insert stage %q: %w", s.ID, err)
	}
	return nil
}

func (r *boardRepository) GetByID(orgID, id int) (*models.Board, error) {
	const q = `
		SELECT id, org_id, name, next_board_id, won_stage_id, lost_stage_id,
			is_default, goal_type, goal_target, goal_current, created_at
		FROM boards WHERE org_id=$1 AND id=$2
	`
	b := &models.Board{}
	var goalType sql.NullString
	var goalTarget, goalCurrent sql.NullFloat64
	err := r.DB.QueryRow(q, orgID, id).Scan(
		&b.ID, &b.OrgID, &b.Name, &b.NextBoardID, &b.WonStageID, &b.LostStageID,
		&b.IsDefault, &goalType, &goalTarget, &goalCurrent, &b.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get board: %w", err)
	}
	if goalType.Valid {
		b.Goal = &models.BoardGoal{Type: goalType.String, Target: goalTarget.Float64, Current: goalCurrent.Float64}
	}
	if b.Stages, err = r.loadStages(b.ID); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *boardRepository) loadStages(boardID int) ([]models.Stage, error) {
	const q = `
		SELECT board_id, id, label, color, position, outcome, linked_lifecycle_stage, estimated_days
		FROM board_stages WHERE board_id=$1 ORDER BY position
	`
	rows, err := r.DB.Query(q, boardID)
	if err != nil {
		return nil, fmt.Errorf("load stages: %w", err)
	}
	defer rows.Close()

	var stages []models.Stage
	for rows.Next() {
		var s models.Stage
		var outcome string
		if err := rows.Scan(&s.BoardID, &s.ID, &s.Label, &s.Color, &s.Position,
			&outcome, &s.LinkedLifecycleStage, &s.EstimatedDays); err != nil {
			return nil, fmt.Errorf("load stages: %w", err)
		}
		s.Outcome = models.StageOutcome(outcome)
		stages = append(stages, s)
	}
	return stages, rows.Err()
}

func (r *boardRepository) Update(board *models.Board) error {
	var goalType interface{}
	var goalTarget, goalCurrent interface{}
	if board.Goal != nil {
		goalType, goalTarget, goalCurrent = board.Goal.Type, board.Goal.Target, board.Goal.Current
	}
	const q = `
		UPDATE boards
		SET name=$1, next_board_id=$2, won_stage_id=$3, lost_stage_id=$4,
			goal_type=$5, goal_target=$6, goal_current=$7
		WHERE org_id=$8 AND id=$9
	`
	_, err := r.DB.Exec(q, board.Name, board.NextBoardID, board.WonStageID, board.LostStageID,
		goalType, goalTarget, goalCurrent, board.OrgID, board.ID)
	if err != nil {
		return fmt.Errorf("update board: %w", err)
	}
	return nil
}

func (r *boardRepository) Delete(orgID, id int) error {
	result, err := r.DB.Exec(`DELETE FROM boards WHERE org_id=$1 AND id=$2`, orgID, id)
	if err != nil {
		return fmt.Errorf("delete board: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("board with id=%d not found", id)
	}
	return nil
}

func (r *boardRepository) List(orgID int) ([]*models.Board, error) {
	const q = `
		SELECT id, org_id, name, next_board_id, won_stage_id, lost_stage_id,
			is_default, goal_type, goal_target, goal_current, created_at
		FROM boards WHERE org_id=$1 ORDER BY id
	`
	rows, err := r.DB.Query(q, orgID)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	defer rows.Close()

	var boards []*models.Board
	for rows.Next() {
		b := &models.Board{}
		var goalType sql.NullString
		var goalTarget, goalCurrent sql.NullFloat64
		if err := rows.Scan(
			&b.ID, &b.OrgID, &b.Name, &b.NextBoardID, &b.WonStageID, &b.LostStageID,
			&b.IsDefault, &goalType, &goalTarget, &goalCurrent, &b.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("list boards: %w", err)
		}
		if goalType.Valid {
			b.Goal = &models.BoardGoal{Type: goalType.String, Target: goalTarget.Float64, Current: goalCurrent.Float64}
		}
		boards = append(boards, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, b := range boards {
		if b.Stages, err = r.loadStages(b.ID); err != nil {
			return nil, err
		}
	}
	return boards, nil
}

// SetDefault clears the previous default in the same transaction, so
// exactly one board per org carries the flag.
func (r *boardRepository) SetDefault(orgID, id int) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("set default board: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE boards SET is_default=FALSE WHERE org_id=$1 AND is_default`, orgID); err != nil {
		return fmt.Errorf("set default board: %w", err)
	}
	result, err := tx.Exec(`UPDATE boards SET is_default=TRUE WHERE org_id=$1 AND id=$2`, orgID, id)
	if err != nil {
		return fmt.Errorf("set default board: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("board with id=%d not found", id)
	}
	return tx.Commit()
}

func (r *boardRepository) AddStage(stage *models.Stage) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("add stage: %w", err)
	}
	defer tx.Rollback()
	if err := insertStage(tx, stage); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *boardRepository) UpdateStage(stage *models.Stage) error {
	const q = `
		UPDATE board_stages
		SET label=$1, color=$2, position=$3, outcome=$4, linked_lifecycle_stage=$5, estimated_days=$6
		WHERE board_id=$7 AND id=$8
	`
	_, err := r.DB.Exec(q, stage.Label, stage.Color, stage.Position, string(stage.Outcome),
		stage.LinkedLifecycleStage, stage.EstimatedDays, stage.BoardID, stage.ID)
	if err != nil {
		return fmt.Errorf("update stage: %w", err)
	}
	return nil
}

func (r *boardRepository) DeleteStage(orgID, boardID int, stageID string) error {
	const q = `
		DELETE FROM board_stages s
		USING boards b
		WHERE s.board_id=b.id AND b.org_id=$1 AND s.board_id=$2 AND s.id=$3
	`
	result, err := r.DB.Exec(q, orgID, boardID, stageID)
	if err != nil {
		return fmt.Errorf("delete stage: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("stage %q not found on board %d", stageID, boardID)
	}
	return nil
}

func (r *boardRepository) CountDealsInStage(orgID, boardID int, stageID string) (int, error) {
	var count int
	err := r.DB.QueryRow(
		`SELECT COUNT(*) FROM deals WHERE org_id=$1 AND board_id=$2 AND status=$3`,
		orgID, boardID, stageID,
	).Scan(&count)
	return count, err
}

func (r *boardRepository) CountDeals(orgID, boardID int) (int, error) {
	var count int
	err := r.DB.QueryRow(
		`SELECT COUNT(*) FROM deals WHERE org_id=$1 AND board_id=$2`,
		orgID, boardID,
	).Scan(&count)
	return count, err
}

func (r *boardRepository) MoveDeals(orgID, fromBoardID, toBoardID int, toStageID string) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("move deals: %w", err)
	}
	defer tx.Rollback()

	const q = `
		UPDATE deals
		SET board_id=$1, status=$2, last_stage_change_at=NOW(), updated_at=NOW(), version=version+1
		WHERE org_id=$3 AND board_id=$4
	`
	if _, err := tx.Exec(q, toBoardID, toStageID, orgID, fromBoardID); err != nil {
		return fmt.Errorf("move deals: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM boards WHERE org_id=$1 AND id=$2`, orgID, fromBoardID); err != nil {
		return fmt.Errorf("move deals: %w", err)
	}
	return tx.Commit()
}

// DeleteWithDeals removes the board, its deals and their activities.
func (r *boardRepository) DeleteWithDeals(orgID, boardID int) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("delete board cascade: %w", err)
	}
	defer tx.Rollback()

	const delActivities = `
		DELETE FROM activities a
		USING deals d
		WHERE a.deal_id=d.id AND d.org_id=$1 AND d.board_id=$2
	`
	if _, err := tx.Exec(delActivities, orgID, boardID); err != nil {
		return fmt.Errorf("delete board cascade: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM deals WHERE org_id=$1 AND board_id=$2`, orgID, boardID); err != nil {
		return fmt.Errorf("delete board cascade: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM boards WHERE org_id=$1 AND id=$2`, orgID, boardID); err != nil {
		return fmt.Errorf("delete board cascade: %w", err)
	}
	return tx.Commit()
}
