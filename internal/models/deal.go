package models

import "time"

type DealItem struct {
	ID       int     `json:"id"`
	DealID   int     `json:"deal_id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type Deal struct {
	ID      int     `json:"id"`
	OrgID   int     `json:"org_id"`
	BoardID int     `json:"board_id"`
	Title   string  `json:"title"`
	Value   float64 `json:"value"`

	// Status is the id of the current stage on the owning board.
	Status string `json:"status"`

	IsWon      bool       `json:"is_won"`
	IsLost     bool       `json:"is_lost"`
	LossReason *string    `json:"loss_reason,omitempty"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`

	ContactID *int `json:"contact_id,omitempty"`
	CompanyID *int `json:"company_id,omitempty"`

	OwnerID     int    `json:"owner_id"`
	OwnerName   string `json:"owner_name,omitempty"`
	OwnerAvatar string `json:"owner_avatar,omitempty"`
	CompanyName string `json:"company_name,omitempty"`

	// Version increments on every write; a move carrying the version it
	// read is rejected when the row changed underneath.
	Version int `json:"version"`

	Items []DealItem `json:"items,omitempty"`

	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	LastStageChangeAt time.Time `json:"last_stage_change_at"`
}

// Open reports whether the deal has no terminal outcome yet.
func (d *Deal) Open() bool {
	return !d.IsWon && !d.IsLost
}
