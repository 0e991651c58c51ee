package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/catalog"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/models"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/oxidb"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/repository"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/sanitize"
)

// templateTypes maps template question types onto form question types.
var templateTypes = map[string]string{
	"star_rating":     models.QuestionRating,
	"rating":          models.QuestionRating,
	"nps":             models.QuestionNPS,
	"single_choice":   models.QuestionMultipleChoice,
	"multiple_choice": models.QuestionMultipleChoice,
	"yes_no":          models.QuestionYesNo,
	"short_text":      models.QuestionText,
	"long_text":       models.QuestionText,
	"text":            models.QuestionText,
}

type TemplateService struct {
	templates *repository.TemplateRepo
	forms     *FormService
	questions *repository.QuestionRepo
	log       *zap.Logger
}

func NewTemplateService(templates *repository.TemplateRepo, forms *FormService, questions *repository.QuestionRepo, logger *zap.Logger) *TemplateService {
	return &TemplateService{templates: templates, forms: forms, questions: questions, log: logger}
}

// Seed stores every built-in template whose key is not present yet and
// reports how many were added.
func (s *TemplateService) Seed() (int, error) {
	builtIn, err := catalog.BuiltIn()
	if err != nil {
		return 0, err
	}
	added := 0
	for i := range builtIn {
		t := &builtIn[i]
		existing, err := s.templates.FindByKey(t.Key)
		if err != nil {
			return added, err
		}
		if existing != nil {
			continue
		}
		if _, err := ConvertTemplateQuestions(t.Questions); err != nil {
			return added, fmt.Errorf("template %s: %w", t.Key, err)
		}
		t.CreatedAt = models.Timestamp(time.Now())
		if _, err := s.templates.Create(t); err != nil {
			return added, fmt.Errorf("seed template %s: %w", t.Key, err)
		}
		added++
	}
	if added > 0 {
		s.log.Info("templates seeded", zap.Int("added", added))
	}
	return added, nil
}

func (s *TemplateService) List(category string) ([]models.Template, error) {
	tpls, err := s.templates.FindAll(strings.TrimSpace(category))
	if err != nil {
		return nil, err
	}
	if tpls == nil {
		tpls = []models.Template{}
	}
	return tpls, nil
}

func (s *TemplateService) Get(id string) (*models.Template, error) {
	t, err := s.templates.FindByID(id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, notFound("template")
	}
	return t, nil
}

// CreateFromTemplate creates a new form for actor populated with the
// template's questions. title overrides the template title when set.
func (s *TemplateService) CreateFromTemplate(actor Actor, templateID, title string) (*models.Form, error) {
	t, err := s.Get(templateID)
	if err != nil {
		return nil, err
	}
	qs, err := ConvertTemplateQuestions(t.Questions)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(title) == "" {
		title = t.Title
	}

	form, err := s.forms.Create(actor, FormInput{Title: title, Description: t.Description})
	if err != nil {
		return nil, err
	}
	for i := range qs {
		qs[i].FormID = form.ID
		if _, err := s.questions.Create(&qs[i]); err != nil {
			if derr := s.forms.Delete(actor, form.ID); derr != nil {
				s.log.Error("rollback of template form failed", zap.String("form", form.ID), zap.Error(derr))
			}
			return nil, fmt.Errorf("create question %d: %w", i, err)
		}
	}
	s.log.Info("form created from template",
		zap.String("form", form.ID),
		zap.String("template", t.Key),
		zap.Int("questions", len(qs)),
	)
	return form, nil
}

// ConvertTemplateQuestions maps template questions onto form questions in
// template position order, renumbered from 0. Any unknown type or invalid
// question fails the whole conversion.
func ConvertTemplateQuestions(tqs []models.TemplateQuestion) ([]models.Question, error) {
	sorted := make([]models.TemplateQuestion, len(tqs))
	copy(sorted, tqs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	out := make([]models.Question, 0, len(sorted))
	for i, tq := range sorted {
		typ, ok := templateTypes[tq.Type]
		if !ok {
			return nil, invalidf("unsupported template question type %q", tq.Type)
		}
		q := models.Question{
			Type:     typ,
			Text:     tq.Text,
			Required: tq.Required,
			Options:  append([]string(nil), tq.Options...),
			Scale:    tq.Scale,
			Position: i,
		}
		if err := normalizeQuestion(&q); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

// SaveTemplateInput names the template made from a form.
type SaveTemplateInput struct {
	Key      string `json:"key"`
	Title    string `json:"title"`
	Category string `json:"category"`
}

// SaveAsTemplate stores a form's questions as a new template. Admin only.
func (s *TemplateService) SaveAsTemplate(actor Actor, formID string, in SaveTemplateInput) (*models.Template, error) {
	if !actor.Admin {
		return nil, ErrForbidden
	}
	form, err := s.forms.Get(actor, formID)
	if err != nil {
		return nil, err
	}
	qs, err := s.questions.FindByForm(form.ID)
	if err != nil {
		return nil, err
	}
	if len(qs) == 0 {
		return nil, invalidf("form has no questions")
	}

	title := form.Title
	if strings.TrimSpace(in.Title) != "" {
		if title, err = cleanTitle(in.Title); err != nil {
			return nil, err
		}
	}
	key := generateSlug(in.Key)
	if strings.TrimSpace(in.Key) == "" {
		key = newSlug(title)
	}
	category := sanitize.Text(in.Category)
	if category == "" {
		category = "custom"
	}

	t := &models.Template{
		Key:         key,
		Title:       title,
		Description: form.Description,
		Category:    category,
		CreatedAt:   models.Timestamp(time.Now()),
	}
	for _, q := range qs {
		t.Questions = append(t.Questions, models.TemplateQuestion{
			Type:     q.Type,
			Text:     q.Text,
			Required: q.Required,
			Options:  q.Options,
			Scale:    q.Scale,
			Position: q.Position,
		})
	}
	id, err := s.templates.Create(t)
	if err != nil {
		if oxidb.IsUniqueViolation(err) {
			return nil, &userError{kind: ErrConflict, msg: fmt.Sprintf("template key %q is taken", key)}
		}
		return nil, err
	}
	t.ID = id
	return t, nil
}
