package services

import (
	"dealflow/internal/models"
)

// OutcomeKind is what a stage move means for the deal.
type OutcomeKind string

const (
	MoveNormal OutcomeKind = "normal"
	MoveWon    OutcomeKind = "won"
	MoveLost   OutcomeKind = "lost"
)

// Reserved stage ids accepted as move targets on any board.
const (
	ReservedWonStage  = "won"
	ReservedLostStage = "lost"
)

// Classify decides what landing in target means on the given board.
// Lost wins over won when a misconfigured stage signals both. Pure
// function: all downstream branching of a move hangs off this result.
func Classify(target *models.Stage, board *models.Board) OutcomeKind {
	if target.Outcome == models.OutcomeLost {
		return MoveLost
	}
	// legacy sentinel: lifecycle link "OTHER" marks a lost stage
	if target.LinkedLifecycleStage != nil && *target.LinkedLifecycleStage == models.LifecycleOther {
		return MoveLost
	}
	if target.Outcome == models.OutcomeWon {
		return MoveWon
	}
	if board.WonStageID != nil && target.ID == *board.WonStageID {
		return MoveWon
	}
	return MoveNormal
}

// ResolveTargetStage finds the move target on the board. The reserved
// "won"/"lost" ids resolve on every board, mapping to the configured
// terminal stage when one exists and to a synthetic stage otherwise.
// Returns nil when the id names no stage of this board.
func ResolveTargetStage(board *models.Board, stageID string) *models.Stage {
	if s := board.StageByID(stageID); s != nil {
		return s
	}
	switch stageID {
	case ReservedWonStage:
		if board.WonStageID != nil {
			if s := board.StageByID(*board.WonStageID); s != nil {
				return s
			}
		}
		return &models.Stage{BoardID: board.ID, ID: ReservedWonStage, Label: "Won", Outcome: models.OutcomeWon}
	case ReservedLostStage:
		if board.LostStageID != nil {
			if s := board.StageByID(*board.LostStageID); s != nil {
				return s
			}
		}
		return &models.Stage{BoardID: board.ID, ID: ReservedLostStage, Label: "Lost", Outcome: models.OutcomeLost}
	}
	return nil
}

// PromotionTarget returns the lifecycle stage id a move should promote
// the linked contact to, or "" when the move promotes nothing. The
// "OTHER" sentinel is an outcome marker, never a promotion target, and
// promotion only moves contacts up the taxonomy.
func PromotionTarget(target *models.Stage, contactStage string, taxonomy []*models.LifecycleStage) string {
	if target.LinkedLifecycleStage == nil || *target.LinkedLifecycleStage == models.LifecycleOther {
		return ""
	}
	to := *target.LinkedLifecycleStage

	toPos, toKnown := lifecyclePosition(taxonomy, to)
	if !toKnown {
		return ""
	}
	curPos, curKnown := lifecyclePosition(taxonomy, contactStage)
	if curKnown && curPos >= toPos {
		return "" // never demote
	}
	return to
}

func lifecyclePosition(taxonomy []*models.LifecycleStage, id string) (int, bool) {
	for _, s := range taxonomy {
		if s.ID == id {
			return s.Position, true
		}
	}
	return 0, false
}
