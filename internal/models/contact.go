package models

import "time"

type Contact struct {
	ID        int    `json:"id"`
	OrgID     int    `json:"org_id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	CompanyID *int   `json:"company_id,omitempty"`

	// Stage is the lifecycle maturity id (e.g. "lead", "customer").
	Stage string `json:"stage,omitempty"`

	OwnerID   int       `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Company struct {
	ID        int       `json:"id"`
	OrgID     int       `json:"org_id"`
	Name      string    `json:"name"`
	Domain    string    `json:"domain,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// LifecycleStage is one entry of the per-org contact maturity taxonomy.
// Position orders the taxonomy; promotion only ever moves upward.
type LifecycleStage struct {
	ID       string `json:"id"`
	OrgID    int    `json:"org_id"`
	Label    string `json:"label"`
	Position int    `json:"position"`
}
