package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"dealflow/internal/models"
)

type UserRepository interface {
	Create(user *models.User) error
	GetByID(orgID, id int) (*models.User, error)
	Update(user *models.User) error
	Delete(orgID, id int) error
	List(orgID, limit, offset int) ([]*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetCount(orgID int) (int, error)

	// refresh helpers
	UpdateRefresh(userID int, token string, expiresAt time.Time) error
	RotateRefresh(oldToken, newToken string, newExpiresAt time.Time) (*models.User, error)
	ClearRefresh(userID int) error

	// telegram link
	UpdateTelegramLink(userID int, chatID int64, enable bool) error

	// AI consent
	SetAIConsent(userID int, at *time.Time) error
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

const userColumns = `id, org_id, email, name, avatar_url, password_hash, role_id,
	refresh_token, refresh_expires_at, refresh_revoked,
	telegram_chat_id, notify_deals, ai_consent_at, created_at`

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.OrgID, &u.Email, &u.Name, &u.AvatarURL, &u.PasswordHash, &u.RoleID,
		&u.RefreshToken, &u.RefreshExpiresAt, &u.RefreshRevoked,
		&u.TelegramChatID, &u.NotifyDeals, &u.AIConsentAt, &u.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

func (r *userRepository) Create(user *models.User) error {
	const q = `
		INSERT INTO users (org_id, email, name, avatar_url, password_hash, role_id,
			refresh_token, refresh_expires_at, refresh_revoked,
			telegram_chat_id, notify_deals, ai_consent_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,NULL,NULL,FALSE,NULL,$7,NULL,$8)
		RETURNING id
	`
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	err := r.DB.QueryRow(q,
		user.OrgID, user.Email, user.Name, user.AvatarURL,
		user.PasswordHash, user.RoleID, user.NotifyDeals, user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(orgID, id int) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE org_id=$1 AND id=$2`
	return scanUser(r.DB.QueryRow(q, orgID, id))
}

func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	return scanUser(r.DB.QueryRow(q, email))
}

func (r *userRepository) Update(user *models.User) error {
	const q = `
		UPDATE users
		SET email=$1, name=$2, avatar_url=$3, role_id=$4, notify_deals=$5
		WHERE org_id=$6 AND id=$7
	`
	_, err := r.DB.Exec(q, user.Email, user.Name, user.AvatarURL,
		user.RoleID, user.NotifyDeals, user.OrgID, user.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (r *userRepository) Delete(orgID, id int) error {
	result, err := r.DB.Exec(`DELETE FROM users WHERE org_id=$1 AND id=$2`, orgID, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user with id=%d not found", id)
	}
	return nil
}

func (r *userRepository) List(orgID, limit, offset int) ([]*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE org_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.DB.Query(q, orgID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(
			&u.ID, &u.OrgID, &u.Email, &u.Name, &u.AvatarURL, &u.PasswordHash, &u.RoleID,
			&u.RefreshToken, &u.RefreshExpiresAt, &u.RefreshRevoked,
			&u.TelegramChatID, &u.NotifyDeals, &u.AIConsentAt, &u.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *userRepository) GetCount(orgID int) (int, error) {
	var count int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM users WHERE org_id=$1`, orgID).Scan(&count)
	return count, err
}

func (r *userRepository) UpdateRefresh(userID int, token string, expiresAt time.Time) error {
	const q = `UPDATE users SET refresh_token=$1, refresh_expires_at=$2, refresh_revoked=FALSE WHERE id=$3`
	_, err := r.DB.Exec(q, token, expiresAt, userID)
	return err
}

// RotateRefresh swaps the stored refresh token in one statement so a
// token can be used at most once.
func (r *userRepository) RotateRefresh(oldToken, newToken string, newExpiresAt time.Time) (*models.User, error) {
	q := `
		UPDATE users
		SET refresh_token=$1, refresh_expires_at=$2
		WHERE refresh_token=$3 AND NOT refresh_revoked AND refresh_expires_at > NOW()
		RETURNING ` + userColumns
	return scanUser(r.DB.QueryRow(q, newToken, newExpiresAt, oldToken))
}

func (r *userRepository) ClearRefresh(userID int) error {
	_, err := r.DB.Exec(`UPDATE users SET refresh_token=NULL, refresh_expires_at=NULL, refresh_revoked=TRUE WHERE id=$1`, userID)
	return err
}

func (r *userRepository) UpdateTelegramLink(userID int, chatID int64, enable bool) error {
	const q = `UPDATE users SET telegram_chat_id=$1, notify_deals=$2 WHERE id=$3`
	var chat interface{}
	if chatID != 0 {
		chat = chatID
	}
	_, err := r.DB.Exec(q, chat, enable, userID)
	return err
}

func (r *userRepository) SetAIConsent(userID int, at *time.Time) error {
	_, err := r.DB.Exec(`UPDATE users SET ai_consent_at=$1 WHERE id=$2`, at, userID)
	return err
}
