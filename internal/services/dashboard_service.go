package services

import (
	"time"

	"dealflow/internal/repositories"
)

// stagnantAfter is how long a deal may sit in one stage before it
// counts as stagnant.
const stagnantAfter = 10 * 24 * time.Hour

type DashboardStats struct {
	OpenDeals     int             `json:"open_deals"`
	WonDeals      int             `json:"won_deals"`
	LostDeals     int             `json:"lost_deals"`
	PipelineValue map[int]float64 `json:"pipeline_value_by_board"`
	WonValue30d   float64         `json:"won_value_30d"`
	StagnantDeals int             `json:"stagnant_deals"`
}

type DashboardService struct {
	DealRepo repositories.DealRepository

	Now func() time.Time
}

func NewDashboardService(dealRepo repositories.DealRepository) *DashboardService {
	return &DashboardService{DealRepo: dealRepo, Now: time.Now}
}

// Stats reads committed state only; a move that invalidated
// dashboard.stats is fully visible to the re-fetch it triggers.
func (s *DashboardService) Stats(orgID int) (*DashboardStats, error) {
	open, won, lost, err := s.DealRepo.CountByOutcome(orgID)
	if err != nil {
		return nil, err
	}
	pipeline, err := s.DealRepo.PipelineValueByBoard(orgID)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	wonValue, err := s.DealRepo.WonValueSince(orgID, now.AddDate(0, 0, -30))
	if err != nil {
		return nil, err
	}
	stagnant, err := s.DealRepo.CountStagnant(orgID, now.Add(-stagnantAfter))
	if err != nil {
		return nil, err
	}
	return &DashboardStats{
		OpenDeals:     open,
		WonDeals:      won,
		LostDeals:     lost,
		PipelineValue: pipeline,
		WonValue30d:   wonValue,
		StagnantDeals: stagnant,
	}, nil
}
