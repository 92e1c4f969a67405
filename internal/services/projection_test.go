package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealflow/internal/models"
)

func ids(deals []*models.Deal) []int {
	out := make([]int, 0, len(deals))
	for _, d := range deals {
		out = append(out, d.ID)
	}
	return out
}

func projectionFixture() []*models.Deal {
	now := time.Now()
	lossReason := "price"
	return []*models.Deal{
		{ID: 1, Title: "Acme renewal", CompanyName: "Acme Corp", OwnerID: 7,
			CreatedAt: now.Add(-48 * time.Hour), UpdatedAt: now},
		{ID: 2, Title: "Globex rollout", CompanyName: "Globex", OwnerID: 8,
			CreatedAt: now.Add(-24 * time.Hour), UpdatedAt: now},
		{ID: 3, Title: "Initech pilot", CompanyName: "Initech", OwnerID: 7, IsWon: true,
			CreatedAt: now.Add(-10 * 24 * time.Hour), UpdatedAt: now.Add(-5 * 24 * time.Hour)},
		{ID: 4, Title: "Umbrella audit", CompanyName: "Umbrella", OwnerID: 8, IsLost: true,
			LossReason: &lossReason,
			CreatedAt:  now.Add(-60 * 24 * time.Hour), UpdatedAt: now.Add(-40 * 24 * time.Hour)},
	}
}

func TestProjectDealsNoFilters(t *testing.T) {
	deals := projectionFixture()
	got := ProjectDeals(deals, DealFilters{Status: StatusAll}, Viewer{UserID: 99})
	// deal 4 closed 40 days ago ages out of the default view
	assert.Equal(t, []int{1, 2, 3}, ids(got))
}

func TestProjectDealsStatus(t *testing.T) {
	deals := projectionFixture()

	t.Run("open", func(t *testing.T) {
		got := ProjectDeals(deals, DealFilters{Status: StatusOpen}, Viewer{})
		assert.Equal(t, []int{1, 2}, ids(got))
	})
	t.Run("won", func(t *testing.T) {
		got := ProjectDeals(deals, DealFilters{Status: StatusWon}, Viewer{})
		assert.Equal(t, []int{3}, ids(got))
	})
	t.Run("lost keeps aged-out deals", func(t *testing.T) {
		got := ProjectDeals(deals, DealFilters{Status: StatusLost}, Viewer{})
		assert.Equal(t, []int{4}, ids(got))
	})
	t.Run("blank means all", func(t *testing.T) {
		got := ProjectDeals(deals, DealFilters{}, Viewer{})
		assert.Equal(t, []int{1, 2, 3}, ids(got))
	})
}

func TestProjectDealsRecencyBoundary(t *testing.T) {
	now := time.Now()
	deals := []*models.Deal{
		{ID: 1, Title: "fresh", IsWon: true, UpdatedAt: now.Add(-29 * 24 * time.Hour)},
		{ID: 2, Title: "stale", IsWon: true, UpdatedAt: now.Add(-31 * 24 * time.Hour)},
	}
	got := ProjectDeals(deals, DealFilters{Status: StatusAll}, Viewer{})
	assert.Equal(t, []int{1}, ids(got))

	// aging applies under "all" and "open" only
	got = ProjectDeals(deals, DealFilters{Status: StatusWon}, Viewer{})
	assert.Equal(t, []int{1, 2}, ids(got))
}

func TestProjectDealsSearch(t *testing.T) {
	deals := projectionFixture()

	t.Run("case-insensitive title match", func(t *testing.T) {
		got := ProjectDeals(deals, DealFilters{Search: "ACME"}, Viewer{})
		assert.Equal(t, []int{1}, ids(got))
	})
	t.Run("matches company name", func(t *testing.T) {
		got := ProjectDeals(deals, DealFilters{Search: "globex"}, Viewer{})
		assert.Equal(t, []int{2}, ids(got))
	})
	t.Run("no match", func(t *testing.T) {
		got := ProjectDeals(deals, DealFilters{Search: "zzz"}, Viewer{})
		assert.Empty(t, got)
	})
	t.Run("surrounding whitespace trimmed", func(t *testing.T) {
		got := ProjectDeals(deals, DealFilters{Search: "  acme  "}, Viewer{})
		assert.Equal(t, []int{1}, ids(got))
	})
}

func TestProjectDealsOwnerMine(t *testing.T) {
	deals := projectionFixture()
	got := ProjectDeals(deals, DealFilters{Owner: OwnerMine}, Viewer{UserID: 7})
	assert.Equal(t, []int{1, 3}, ids(got))
}

func TestProjectDealsDateRange(t *testing.T) {
	now := time.Now()
	deals := projectionFixture()

	t.Run("created_from excludes older", func(t *testing.T) {
		from := now.Add(-36 * time.Hour)
		got := ProjectDeals(deals, DealFilters{CreatedFrom: &from}, Viewer{})
		assert.Equal(t, []int{2}, ids(got))
	})

	t.Run("created_to is inclusive through end of day", func(t *testing.T) {
		created := time.Date(2026, 3, 10, 18, 30, 0, 0, time.UTC)
		deal := []*models.Deal{{ID: 1, Title: "x", CreatedAt: created, UpdatedAt: time.Now()}}

		to := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
		got := ProjectDeals(deal, DealFilters{CreatedTo: &to}, Viewer{})
		assert.Equal(t, []int{1}, ids(got), "deal created later the same day stays in")

		to = time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
		got = ProjectDeals(deal, DealFilters{CreatedTo: &to}, Viewer{})
		assert.Empty(t, got)
	})
}

func TestProjectDealsFiltersCombine(t *testing.T) {
	deals := projectionFixture()
	got := ProjectDeals(deals, DealFilters{Search: "initech", Owner: OwnerMine, Status: StatusWon},
		Viewer{UserID: 7})
	assert.Equal(t, []int{3}, ids(got))

	got = ProjectDeals(deals, DealFilters{Search: "initech", Owner: OwnerMine, Status: StatusWon},
		Viewer{UserID: 8})
	assert.Empty(t, got)
}

func TestProjectDealsSelfViewEnrichment(t *testing.T) {
	deals := []*models.Deal{
		{ID: 1, Title: "mine", OwnerID: 7, OwnerName: "Stale Name", OwnerAvatar: "old.png", UpdatedAt: time.Now()},
		{ID: 2, Title: "theirs", OwnerID: 8, OwnerName: "Bob", UpdatedAt: time.Now()},
	}
	viewer := Viewer{UserID: 7, Name: "Alice", AvatarURL: "alice.png"}
	got := ProjectDeals(deals, DealFilters{}, viewer)
	require.Len(t, got, 2)

	assert.Equal(t, "Alice", got[0].OwnerName)
	assert.Equal(t, "alice.png", got[0].OwnerAvatar)
	assert.Equal(t, "Bob", got[1].OwnerName)

	// the input slice is untouched
	assert.Equal(t, "Stale Name", deals[0].OwnerName)
}
