package service

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/config"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/models"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/repository"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/sanitize"
)

const maxTitleLen = 200

type FormService struct {
	forms     *repository.FormRepo
	questions *repository.QuestionRepo
	subs      *repository.SubmissionRepo
	routing   config.RoutingConfig
	log       *zap.Logger
}

func NewFormService(forms *repository.FormRepo, questions *repository.QuestionRepo, subs *repository.SubmissionRepo, routing config.RoutingConfig, logger *zap.Logger) *FormService {
	return &FormService{forms: forms, questions: questions, subs: subs, routing: routing, log: logger}
}

// FormInput describes a new form.
type FormInput struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Settings    *models.FormSettings `json:"settings"`
}

// FormPatch is a partial update; nil fields are left untouched.
type FormPatch struct {
	Title           *string  `json:"title"`
	Description     *string  `json:"description"`
	Active          *bool    `json:"active"`
	ReviewRedirect  *bool    `json:"reviewRedirect"`
	ReviewURL       *string  `json:"reviewUrl"`
	Threshold       *float64 `json:"threshold"`
	ThankYouMessage *string  `json:"thankYouMessage"`
}

func (s *FormService) Create(actor Actor, in FormInput) (*models.Form, error) {
	title, err := cleanTitle(in.Title)
	if err != nil {
		return nil, err
	}
	settings := models.FormSettings{ReviewRedirect: true, Threshold: s.routing.Threshold}
	if in.Settings != nil {
		settings = *in.Settings
		if settings.Threshold == 0 {
			settings.Threshold = s.routing.Threshold
		}
	}
	if err := s.checkSettings(&settings); err != nil {
		return nil, err
	}

	now := models.Timestamp(time.Now())
	form := &models.Form{
		OwnerID:     actor.UserID,
		Title:       title,
		Description: sanitize.Text(in.Description),
		Slug:        newSlug(title),
		Active:      true,
		Settings:    settings,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	id, err := s.forms.Create(form)
	if err != nil {
		return nil, err
	}
	form.ID = id
	s.log.Info("form created", zap.String("form", id), zap.String("owner", actor.UserID))
	return form, nil
}

// List returns the actor's forms, newest first. Admins see every form.
func (s *FormService) List(actor Actor) ([]models.Form, error) {
	owner := actor.UserID
	if actor.Admin {
		owner = ""
	}
	return s.forms.FindByOwner(owner)
}

// Get returns a form the actor owns. Forms owned by someone else are
// reported as missing.
func (s *FormService) Get(actor Actor, id string) (*models.Form, error) {
	form, err := s.forms.FindByID(id)
	if err != nil {
		return nil, err
	}
	if form == nil || !actor.owns(form.OwnerID) {
		return nil, notFound("form")
	}
	return form, nil
}

// GetActiveBySlug resolves a public survey link.
func (s *FormService) GetActiveBySlug(slug string) (*models.Form, error) {
	form, err := s.forms.FindBySlug(slug)
	if err != nil {
		return nil, err
	}
	if form == nil || !form.Active {
		return nil, notFound("survey")
	}
	return form, nil
}

func (s *FormService) Update(actor Actor, id string, patch FormPatch) (*models.Form, error) {
	form, err := s.Get(actor, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		title, err := cleanTitle(*patch.Title)
		if err != nil {
			return nil, err
		}
		form.Title = title
	}
	if patch.Description != nil {
		form.Description = sanitize.Text(*patch.Description)
	}
	if patch.Active != nil {
		form.Active = *patch.Active
	}
	settings := form.Settings
	if patch.ReviewRedirect != nil {
		settings.ReviewRedirect = *patch.ReviewRedirect
	}
	if patch.ReviewURL != nil {
		settings.ReviewURL = *patch.ReviewURL
	}
	if patch.Threshold != nil {
		settings.Threshold = *patch.Threshold
	}
	if patch.ThankYouMessage != nil {
		settings.ThankYouMessage = *patch.ThankYouMessage
	}
	if err := s.checkSettings(&settings); err != nil {
		return nil, err
	}
	form.Settings = settings
	form.UpdatedAt = models.Timestamp(time.Now())

	if err := s.forms.Update(form); err != nil {
		return nil, err
	}
	return form, nil
}

func (s *FormService) SetActive(actor Actor, id string, active bool) (*models.Form, error) {
	return s.Update(actor, id, FormPatch{Active: &active})
}

// Delete removes a form with its questions and submissions.
func (s *FormService) Delete(actor Actor, id string) error {
	form, err := s.Get(actor, id)
	if err != nil {
		return err
	}
	if err := s.subs.DeleteByForm(form.ID); err != nil {
		return fmt.Errorf("delete submissions: %w", err)
	}
	if err := s.questions.DeleteByForm(form.ID); err != nil {
		return fmt.Errorf("delete questions: %w", err)
	}
	if err := s.forms.Delete(form.ID); err != nil {
		return err
	}
	s.log.Info("form deleted", zap.String("form", id), zap.String("owner", form.OwnerID))
	return nil
}

// Duplicate copies a form and its questions under a fresh slug. Submissions
// are not copied.
func (s *FormService) Duplicate(actor Actor, id string) (*models.Form, error) {
	src, err := s.Get(actor, id)
	if err != nil {
		return nil, err
	}
	qs, err := s.questions.FindByForm(src.ID)
	if err != nil {
		return nil, err
	}
	title := src.Title + " (copy)"
	if utf8.RuneCountInString(title) > maxTitleLen {
		title = src.Title
	}
	settings := src.Settings
	copyForm, err := s.Create(Actor{UserID: src.OwnerID}, FormInput{
		Title:       title,
		Description: src.Description,
		Settings:    &settings,
	})
	if err != nil {
		return nil, err
	}
	for i, q := range qs {
		q.ID = ""
		q.FormID = copyForm.ID
		q.Position = i
		if _, err := s.questions.Create(&q); err != nil {
			return nil, fmt.Errorf("copy question %d: %w", i, err)
		}
	}
	return copyForm, nil
}

func (s *FormService) checkSettings(st *models.FormSettings) error {
	if st.Threshold < 1 || st.Threshold > 5 {
		return invalidf("threshold must be between 1 and 5")
	}
	u, err := validateReviewURL(st.ReviewURL)
	if err != nil {
		return err
	}
	st.ReviewURL = u
	st.ThankYouMessage = sanitize.RichText(st.ThankYouMessage)
	return nil
}

func cleanTitle(raw string) (string, error) {
	title := sanitize.Text(raw)
	if title == "" {
		return "", invalidf("title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "", invalidf("title must be at most %d characters", maxTitleLen)
	}
	return title, nil
}

var nonAlphaNum = regexp.MustCompile(`[^a-z0-9]+`)

func generateSlug(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = nonAlphaNum.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 48 {
		slug = strings.TrimRight(slug[:48], "-")
	}
	if slug == "" {
		slug = "survey"
	}
	return slug
}

// newSlug appends a random suffix so two surveys with the same title get
// distinct public links.
func newSlug(title string) string {
	return generateSlug(title) + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
