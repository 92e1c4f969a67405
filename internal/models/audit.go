package models

import "time"

type AuditEntry struct {
	ID        string    `json:"id"`
	OrgID     int       `json:"org_id"`
	ActorID   int       `json:"actor_id"`
	Action    string    `json:"action"`
	Entity    string    `json:"entity"`
	EntityID  string    `json:"entity_id"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
