package models

import "time"

const (
	ActivityCall    = "call"
	ActivityMeeting = "meeting"
	ActivityEmail   = "email"
	ActivityTask    = "task"
)

type Activity struct {
	ID        int        `json:"id"`
	OrgID     int        `json:"org_id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Note      string     `json:"note,omitempty"`
	DealID    *int       `json:"deal_id,omitempty"`
	ContactID *int       `json:"contact_id,omitempty"`
	OwnerID   int        `json:"owner_id"`
	DueAt     time.Time  `json:"due_at"`
	Done      bool       `json:"done"`
	DoneAt    *time.Time `json:"done_at,omitempty"`

	// RemindedAt is set once the reminder email went out, so the
	// reminder sweep never mails twice for the same activity.
	RemindedAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}
