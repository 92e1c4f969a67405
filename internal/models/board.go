package models

import "time"

// StageOutcome marks what landing in a stage means for the deal.
type StageOutcome string

const (
	OutcomeOpen StageOutcome = "open"
	OutcomeWon  StageOutcome = "won"
	OutcomeLost StageOutcome = "lost"
)

// LifecycleOther is the legacy sentinel: a stage linked to lifecycle
// stage "OTHER" represents a lost/disqualified outcome. Kept so board
// configs imported from older installs classify the same way.
const LifecycleOther = "OTHER"

type Stage struct {
	BoardID              int          `json:"board_id"`
	ID                   string       `json:"id"`
	Label                string       `json:"label"`
	Color                string       `json:"color,omitempty"`
	Position             int          `json:"position"`
	Outcome              StageOutcome `json:"outcome"`
	LinkedLifecycleStage *string      `json:"linked_lifecycle_stage,omitempty"`
	EstimatedDays        *int         `json:"estimated_days,omitempty"`
}

type BoardGoal struct {
	Type    string  `json:"type"`
	Target  float64 `json:"target"`
	Current float64 `json:"current"`
}

type Board struct {
	ID          int        `json:"id"`
	OrgID       int        `json:"org_id"`
	Name        string     `json:"name"`
	NextBoardID *int       `json:"next_board_id,omitempty"`
	WonStageID  *string    `json:"won_stage_id,omitempty"`
	LostStageID *string    `json:"lost_stage_id,omitempty"`
	IsDefault   bool       `json:"is_default"`
	Goal        *BoardGoal `json:"goal,omitempty"`
	Stages      []Stage    `json:"stages"`
	CreatedAt   time.Time  `json:"created_at"`
}

// StageByID looks a stage up on the board. Returns nil when absent.
func (b *Board) StageByID(id string) *Stage {
	for i := range b.Stages {
		if b.Stages[i].ID == id {
			return &b.Stages[i]
		}
	}
	return nil
}

// FirstStage returns the lowest-position stage, where new deals land.
func (b *Board) FirstStage() *Stage {
	if len(b.Stages) == 0 {
		return nil
	}
	first := &b.Stages[0]
	for i := range b.Stages {
		if b.Stages[i].Position < first.Position {
			first = &b.Stages[i]
		}
	}
	return first
}
