package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealflow/internal/models"
)

func strPtr(s string) *string { return &s }

func testBoard() *models.Board {
	return &models.Board{
		ID:    1,
		OrgID: 1,
		Name:  "Sales",
		Stages: []models.Stage{
			{BoardID: 1, ID: "new", Label: "New", Position: 0, Outcome: models.OutcomeOpen},
			{BoardID: 1, ID: "qualified", Label: "Qualified", Position: 1, Outcome: models.OutcomeOpen,
				LinkedLifecycleStage: strPtr("mql")},
			{BoardID: 1, ID: "closed-won", Label: "Won", Position: 2, Outcome: models.OutcomeWon},
			{BoardID: 1, ID: "closed-lost", Label: "Lost", Position: 3, Outcome: models.OutcomeLost},
		},
		WonStageID:  strPtr("closed-won"),
		LostStageID: strPtr("closed-lost"),
	}
}

func TestClassify(t *testing.T) {
	board := testBoard()

	tests := []struct {
		name  string
		stage models.Stage
		want  OutcomeKind
	}{
		{"open stage", models.Stage{ID: "new", Outcome: models.OutcomeOpen}, MoveNormal},
		{"won by outcome", models.Stage{ID: "closed-won", Outcome: models.OutcomeWon}, MoveWon},
		{"lost by outcome", models.Stage{ID: "closed-lost", Outcome: models.OutcomeLost}, MoveLost},
		{"won by board config", models.Stage{ID: "closed-won", Outcome: models.OutcomeOpen}, MoveWon},
		{"lost by legacy OTHER link", models.Stage{ID: "dead", Outcome: models.OutcomeOpen,
			LinkedLifecycleStage: strPtr(models.LifecycleOther)}, MoveLost},
		{"lifecycle link alone stays normal", models.Stage{ID: "qualified", Outcome: models.OutcomeOpen,
			LinkedLifecycleStage: strPtr("mql")}, MoveNormal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(&tt.stage, board))
		})
	}
}

func TestClassifyLostWinsOverWon(t *testing.T) {
	board := testBoard()
	// a stage that is both the configured won stage and carries the
	// OTHER sentinel classifies as lost
	stage := models.Stage{ID: "closed-won", Outcome: models.OutcomeOpen,
		LinkedLifecycleStage: strPtr(models.LifecycleOther)}
	assert.Equal(t, MoveLost, Classify(&stage, board))

	stage = models.Stage{ID: "x", Outcome: models.OutcomeLost}
	assert.Equal(t, MoveLost, Classify(&stage, board))
}

func TestClassifyIsPure(t *testing.T) {
	board := testBoard()
	stage := board.StageByID("qualified")
	before := *stage
	Classify(stage, board)
	Classify(stage, board)
	assert.Equal(t, before, *stage)
}

func TestResolveTargetStage(t *testing.T) {
	board := testBoard()

	t.Run("board stage id", func(t *testing.T) {
		s := ResolveTargetStage(board, "qualified")
		require.NotNil(t, s)
		assert.Equal(t, "qualified", s.ID)
	})

	t.Run("unknown id", func(t *testing.T) {
		assert.Nil(t, ResolveTargetStage(board, "nope"))
	})

	t.Run("reserved won maps to configured stage", func(t *testing.T) {
		s := ResolveTargetStage(board, ReservedWonStage)
		require.NotNil(t, s)
		assert.Equal(t, "closed-won", s.ID)
	})

	t.Run("reserved lost maps to configured stage", func(t *testing.T) {
		s := ResolveTargetStage(board, ReservedLostStage)
		require.NotNil(t, s)
		assert.Equal(t, "closed-lost", s.ID)
	})

	t.Run("reserved ids resolve without config", func(t *testing.T) {
		bare := &models.Board{ID: 2, Stages: []models.Stage{
			{BoardID: 2, ID: "only", Position: 0, Outcome: models.OutcomeOpen},
		}}
		s := ResolveTargetStage(bare, ReservedWonStage)
		require.NotNil(t, s)
		assert.Equal(t, models.OutcomeWon, s.Outcome)

		s = ResolveTargetStage(bare, ReservedLostStage)
		require.NotNil(t, s)
		assert.Equal(t, models.OutcomeLost, s.Outcome)
	})
}

func TestPromotionTarget(t *testing.T) {
	taxonomy := []*models.LifecycleStage{
		{ID: "lead", Position: 0},
		{ID: "mql", Position: 1},
		{ID: "sql", Position: 2},
		{ID: "customer", Position: 3},
	}

	tests := []struct {
		name         string
		link         *string
		contactStage string
		want         string
	}{
		{"no link no promotion", nil, "lead", ""},
		{"OTHER is not a promotion target", strPtr(models.LifecycleOther), "lead", ""},
		{"promotes upward", strPtr("sql"), "lead", "sql"},
		{"same stage is a no-op", strPtr("mql"), "mql", ""},
		{"never demotes", strPtr("mql"), "customer", ""},
		{"unknown target stage ignored", strPtr("vip"), "lead", ""},
		{"unknown contact stage still promotes", strPtr("mql"), "imported-weird", "mql"},
		{"blank contact stage promotes", strPtr("lead"), "", "lead"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := &models.Stage{ID: "s", LinkedLifecycleStage: tt.link}
			assert.Equal(t, tt.want, PromotionTarget(target, tt.contactStage, taxonomy))
		})
	}
}
