package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealflow/internal/repositories"
)

type stubAggregateRepo struct {
	repositories.DealRepository

	wonSince     time.Time
	stagnantThan time.Time
}

func (f *stubAggregateRepo) CountByOutcome(orgID int) (int, int, int, error) {
	return 12, 4, 3, nil
}

func (f *stubAggregateRepo) PipelineValueByBoard(orgID int) (map[int]float64, error) {
	return map[int]float64{1: 52000, 2: 8000}, nil
}

func (f *stubAggregateRepo) WonValueSince(orgID int, since time.Time) (float64, error) {
	f.wonSince = since
	return 31000, nil
}

func (f *stubAggregateRepo) CountStagnant(orgID int, olderThan time.Time) (int, error) {
	f.stagnantThan = olderThan
	return 2, nil
}

func TestDashboardStats(t *testing.T) {
	repo := &stubAggregateRepo{}
	svc := NewDashboardService(repo)
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return now }

	stats, err := svc.Stats(1)
	require.NoError(t, err)

	assert.Equal(t, 12, stats.OpenDeals)
	assert.Equal(t, 4, stats.WonDeals)
	assert.Equal(t, 3, stats.LostDeals)
	assert.Equal(t, 31000.0, stats.WonValue30d)
	assert.Equal(t, 2, stats.StagnantDeals)
	assert.Equal(t, map[int]float64{1: 52000, 2: 8000}, stats.PipelineValue)

	assert.Equal(t, now.AddDate(0, 0, -30), repo.wonSince)
	assert.Equal(t, now.Add(-10*24*time.Hour), repo.stagnantThan)
}
