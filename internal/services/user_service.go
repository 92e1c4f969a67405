package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"dealflow/internal/models"
	"dealflow/internal/repositories"
)

type UserService interface {
	CreateUserWithPassword(user *models.User, plainPassword string) error
	GetUserByID(orgID, id int) (*models.User, error)
	UpdateUser(user *models.User) error
	DeleteUser(orgID, id int) error
	ListUsers(orgID, limit, offset int) ([]*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserCount(orgID int) (int, error)

	SetAIConsent(userID int, granted bool) error
	LinkTelegram(userID int, chatID int64, enable bool) error
}

type userService struct {
	repo         repositories.UserRepository
	emailService EmailService
	authService  AuthService
}

func NewUserService(repo repositories.UserRepository, emailService EmailService, authService AuthService) UserService {
	return &userService{
		repo:         repo,
		emailService: emailService,
		authService:  authService,
	}
}

func (s *userService) CreateUserWithPassword(user *models.User, plainPassword string) error {
	if strings.TrimSpace(plainPassword) == "" {
		return fmt.Errorf("password is required")
	}

	hashedPassword, err := s.authService.HashPassword(plainPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hashedPassword

	if err := s.repo.Create(user); err != nil {
		return err
	}

	if s.emailService != nil {
		if err := s.emailService.SendWelcomeEmail(user.Email, user.Name); err != nil {
			// warn but do not fail creation
			log.Printf("[user][create] warning: failed to send welcome email to %s: %v", user.Email, err)
		}
	}
	return nil
}

func (s *userService) GetUserByID(orgID, id int) (*models.User, error) {
	return s.repo.GetByID(orgID, id)
}

func (s *userService) UpdateUser(user *models.User) error {
	return s.repo.Update(user)
}

func (s *userService) DeleteUser(orgID, id int) error {
	return s.repo.Delete(orgID, id)
}

func (s *userService) ListUsers(orgID, limit, offset int) ([]*models.User, error) {
	return s.repo.List(orgID, limit, offset)
}

func (s *userService) GetUserByEmail(email string) (*models.User, error) {
	return s.repo.GetByEmail(email)
}

func (s *userService) GetUserCount(orgID int) (int, error) {
	return s.repo.GetCount(orgID)
}

func (s *userService) SetAIConsent(userID int, granted bool) error {
	if !granted {
		return s.repo.SetAIConsent(userID, nil)
	}
	now := time.Now()
	return s.repo.SetAIConsent(userID, &now)
}

func (s *userService) LinkTelegram(userID int, chatID int64, enable bool) error {
	return s.repo.UpdateTelegramLink(userID, chatID, enable)
}
