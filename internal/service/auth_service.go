package service

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/auth"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/models"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/oxidb"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/repository"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/sanitize"
)

const minPasswordLen = 8

type AuthService struct {
	users     *repository.UserRepo
	profiles  *ProfileService
	jwtSecret string
	ttl       time.Duration
}

func NewAuthService(users *repository.UserRepo, profiles *ProfileService, jwtSecret string, ttl time.Duration) *AuthService {
	return &AuthService{users: users, profiles: profiles, jwtSecret: jwtSecret, ttl: ttl}
}

type AuthResult struct {
	Token string              `json:"token"`
	User  models.UserResponse `json:"user"`
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalidf("invalid email address")
	}
	return email, nil
}

func (s *AuthService) Register(email, password, name string) (*AuthResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	name = sanitize.Text(name)
	if name == "" {
		return nil, invalidf("name is required")
	}
	if len(password) < minPasswordLen {
		return nil, invalidf("password must be at least %d characters", minPasswordLen)
	}

	existing, err := s.users.FindByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &userError{kind: ErrConflict, msg: "email already registered"}
	}
	user, err := s.createUser(email, password, name, models.RoleUser)
	if err != nil {
		return nil, err
	}
	if _, err := s.profiles.Get(user.ID); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return s.issue(user)
}

func (s *AuthService) Login(email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.FindByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil || !auth.CheckPassword(password, user.PasswordHash) {
		return nil, &userError{kind: ErrUnauthorized, msg: "invalid credentials"}
	}
	return s.issue(user)
}

func (s *AuthService) Me(userID string) (*models.UserResponse, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, notFound("user")
	}
	resp := user.ToResponse()
	return &resp, nil
}

func (s *AuthService) ChangePassword(userID, current, next string) error {
	user, err := s.users.FindByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return notFound("user")
	}
	if !auth.CheckPassword(current, user.PasswordHash) {
		return &userError{kind: ErrUnauthorized, msg: "current password is incorrect"}
	}
	if len(next) < minPasswordLen {
		return invalidf("password must be at least %d characters", minPasswordLen)
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(userID, hash)
}

// SeedAdmin creates the admin account unless the email is already taken.
func (s *AuthService) SeedAdmin(email, password string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	existing, err := s.users.FindByEmail(email)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	if len(password) < minPasswordLen {
		return invalidf("password must be at least %d characters", minPasswordLen)
	}
	user, err := s.createUser(email, password, "Admin", models.RoleAdmin)
	if err != nil {
		return err
	}
	_, err = s.profiles.Get(user.ID)
	return err
}

// Outcomes of CreateAdmin.
const (
	AdminCreated  = "created"
	AdminExisting = "existing"
	AdminPromoted = "promoted"
)

// CreateAdmin makes sure email belongs to an admin account. Unlike
// SeedAdmin it never silently accepts a regular user: that account is
// promoted when promote is set and reported as a conflict otherwise.
func (s *AuthService) CreateAdmin(email, password string, promote bool) (string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return "", err
	}
	existing, err := s.users.FindByEmail(email)
	if err != nil {
		return "", err
	}
	switch {
	case existing == nil:
		if err := s.SeedAdmin(email, password); err != nil {
			return "", err
		}
		return AdminCreated, nil
	case existing.Role == models.RoleAdmin:
		return AdminExisting, nil
	case !promote:
		return "", &userError{kind: ErrConflict, msg: fmt.Sprintf("%s belongs to a non-admin account; use --promote to grant admin", email)}
	}
	if err := s.users.SetRole(existing.ID, models.RoleAdmin); err != nil {
		return "", err
	}
	return AdminPromoted, nil
}

func (s *AuthService) createUser(email, password, name, role string) (*models.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         role,
		CreatedAt:    models.Timestamp(time.Now()),
	}
	id, err := s.users.Create(user)
	if err != nil {
		if oxidb.IsUniqueViolation(err) {
			return nil, &userError{kind: ErrConflict, msg: "email already registered"}
		}
		return nil, err
	}
	user.ID = id
	return user, nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := auth.GenerateToken(s.jwtSecret, user.ID, user.Email, user.Role, s.ttl)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user.ToResponse()}, nil
}
