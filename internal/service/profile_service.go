package service

import (
	"net/url"
	"strings"
	"time"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/models"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/oxidb"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/repository"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/sanitize"
)

type ProfileService struct {
	profiles *repository.ProfileRepo
}

func NewProfileService(profiles *repository.ProfileRepo) *ProfileService {
	return &ProfileService{profiles: profiles}
}

// ProfilePatch carries the account settings a user may change. Nil fields
// are left untouched.
type ProfilePatch struct {
	BusinessName   *string `json:"businessName"`
	FullName       *string `json:"fullName"`
	ReviewURL      *string `json:"reviewUrl"`
	NotifyCritical *bool   `json:"notifyCritical"`
}

// Get returns the profile of userID, creating an empty one on first access.
func (s *ProfileService) Get(userID string) (*models.Profile, error) {
	p, err := s.profiles.FindByUserID(userID)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}
	now := models.Timestamp(time.Now())
	p = &models.Profile{UserID: userID, CreatedAt: now, UpdatedAt: now}
	id, err := s.profiles.Create(p)
	if oxidb.IsUniqueViolation(err) {
		// A concurrent first request created it.
		return s.profiles.FindByUserID(userID)
	}
	if err != nil {
		return nil, err
	}
	p.ID = id
	return p, nil
}

func (s *ProfileService) Update(userID string, patch ProfilePatch) (*models.Profile, error) {
	p, err := s.Get(userID)
	if err != nil {
		return nil, err
	}
	if patch.BusinessName != nil {
		p.BusinessName = sanitize.Text(*patch.BusinessName)
	}
	if patch.FullName != nil {
		p.FullName = sanitize.Text(*patch.FullName)
	}
	if patch.ReviewURL != nil {
		u, err := validateReviewURL(*patch.ReviewURL)
		if err != nil {
			return nil, err
		}
		p.ReviewURL = u
	}
	if patch.NotifyCritical != nil {
		p.NotifyCritical = *patch.NotifyCritical
	}
	p.UpdatedAt = models.Timestamp(time.Now())
	if err := s.profiles.Update(p); err != nil {
		return nil, err
	}
	return p, nil
}

// validateReviewURL accepts an empty string or an absolute http(s) URL.
func validateReviewURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", invalidf("review URL must be an absolute http(s) URL")
	}
	return u.String(), nil
}
