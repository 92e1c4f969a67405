package models

import "time"

type User struct {
	ID           int    `json:"id"`
	OrgID        int    `json:"org_id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	AvatarURL    string `json:"avatar_url,omitempty"`
	PasswordHash string `json:"-"`
	RoleID       int    `json:"role_id"`

	// refresh token storage, opaque hex string
	RefreshToken     *string    `json:"-"`
	RefreshExpiresAt *time.Time `json:"-"`
	RefreshRevoked   bool       `json:"-"`

	// telegram notification link
	TelegramChatID *int64 `json:"-"`
	NotifyDeals    bool   `json:"notify_deals"`

	// consent for AI actions that send data outside the org
	AIConsentAt *time.Time `json:"ai_consent_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	OrgID    int    `json:"org_id"`
	Email    string `json:"email" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}
