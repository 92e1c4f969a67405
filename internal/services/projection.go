package services

import (
	"strings"
	"time"

	"dealflow/internal/models"
)

// Owner scope and status scope values for DealFilters.
const (
	OwnerAll  = "all"
	OwnerMine = "mine"

	StatusOpen = "open"
	StatusWon  = "won"
	StatusLost = "lost"
	StatusAll  = "all"
)

// closedDealMaxAge is how long won/lost deals stay in default views
// before they age out. A UX rule, not retention: the rows remain.
const closedDealMaxAge = 30 * 24 * time.Hour

type DealFilters struct {
	Search      string
	Owner       string // all | mine
	CreatedFrom *time.Time
	CreatedTo   *time.Time // inclusive, widened to end of day
	Status      string     // open | won | lost | all
}

// Viewer is the current session's profile, used for the "mine" filter
// and for self-view owner enrichment.
type Viewer struct {
	UserID    int
	Name      string
	AvatarURL string
}

// ProjectDeals derives the visible deal list from raw deals. All filter
// conditions are AND-combined; order of application does not matter.
// Deals owned by the viewer get the session's current name/avatar
// instead of whatever was denormalized at write time.
func ProjectDeals(raw []*models.Deal, filters DealFilters, viewer Viewer) []*models.Deal {
	now := time.Now()
	status := filters.Status
	if status == "" {
		status = StatusAll
	}
	search := strings.ToLower(strings.TrimSpace(filters.Search))

	var out []*models.Deal
	for _, d := range raw {
		if search != "" &&
			!strings.Contains(strings.ToLower(d.Title), search) &&
			!strings.Contains(strings.ToLower(d.CompanyName), search) {
			continue
		}
		if filters.Owner == OwnerMine && d.OwnerID != viewer.UserID {
			continue
		}
		if filters.CreatedFrom != nil && d.CreatedAt.Before(*filters.CreatedFrom) {
			continue
		}
		if filters.CreatedTo != nil && d.CreatedAt.After(endOfDay(*filters.CreatedTo)) {
			continue
		}
		switch status {
		case StatusOpen:
			if d.IsWon || d.IsLost {
				continue
			}
		case StatusWon:
			if !d.IsWon {
				continue
			}
		case StatusLost:
			if !d.IsLost {
				continue
			}
		}
		// closed deals age out of open/all views after 30 days
		if (status == StatusOpen || status == StatusAll) &&
			(d.IsWon || d.IsLost) &&
			now.Sub(d.UpdatedAt) > closedDealMaxAge {
			continue
		}

		if d.OwnerID == viewer.UserID && viewer.Name != "" {
			enriched := *d
			enriched.OwnerName = viewer.Name
			enriched.OwnerAvatar = viewer.AvatarURL
			out = append(out, &enriched)
			continue
		}
		out = append(out, d)
	}
	return out
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 999_000_000, t.Location())
}
