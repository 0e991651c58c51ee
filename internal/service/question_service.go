package service

import (
	"fmt"
	"unicode/utf8"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/models"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/repository"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/sanitize"
)

const (
	maxQuestionLen = 500
	maxOptions     = 20
)

type QuestionService struct {
	forms     *FormService
	questions *repository.QuestionRepo
}

func NewQuestionService(forms *FormService, questions *repository.QuestionRepo) *QuestionService {
	return &QuestionService{forms: forms, questions: questions}
}

// QuestionInput describes a new question.
type QuestionInput struct {
	Type     string   `json:"type"`
	Text     string   `json:"text"`
	Required bool     `json:"required"`
	Options  []string `json:"options"`
	Scale    int      `json:"scale"`
}

// QuestionPatch is a partial update; nil fields are left untouched.
type QuestionPatch struct {
	Type     *string   `json:"type"`
	Text     *string   `json:"text"`
	Required *bool     `json:"required"`
	Options  *[]string `json:"options"`
	Scale    *int      `json:"scale"`
}

func (s *QuestionService) List(actor Actor, formID string) ([]models.Question, error) {
	if _, err := s.forms.Get(actor, formID); err != nil {
		return nil, err
	}
	return s.questions.FindByForm(formID)
}

// Add appends a question at the end of the form.
func (s *QuestionService) Add(actor Actor, formID string, in QuestionInput) (*models.Question, error) {
	if _, err := s.forms.Get(actor, formID); err != nil {
		return nil, err
	}
	existing, err := s.questions.FindByForm(formID)
	if err != nil {
		return nil, err
	}
	q := &models.Question{
		FormID:   formID,
		Type:     in.Type,
		Text:     in.Text,
		Required: in.Required,
		Options:  in.Options,
		Scale:    in.Scale,
		Position: len(existing),
	}
	if err := normalizeQuestion(q); err != nil {
		return nil, err
	}
	id, err := s.questions.Create(q)
	if err != nil {
		return nil, err
	}
	q.ID = id
	return q, nil
}

func (s *QuestionService) Update(actor Actor, formID, questionID string, patch QuestionPatch) (*models.Question, error) {
	q, err := s.owned(actor, formID, questionID)
	if err != nil {
		return nil, err
	}
	if patch.Type != nil {
		q.Type = *patch.Type
	}
	if patch.Text != nil {
		q.Text = *patch.Text
	}
	if patch.Required != nil {
		q.Required = *patch.Required
	}
	if patch.Options != nil {
		q.Options = *patch.Options
	}
	if patch.Scale != nil {
		q.Scale = *patch.Scale
	}
	if err := normalizeQuestion(q); err != nil {
		return nil, err
	}
	if err := s.questions.Update(q); err != nil {
		return nil, err
	}
	return q, nil
}

// Delete removes a question and closes the gap in positions.
func (s *QuestionService) Delete(actor Actor, formID, questionID string) error {
	if _, err := s.owned(actor, formID, questionID); err != nil {
		return err
	}
	if err := s.questions.Delete(questionID); err != nil {
		return err
	}
	qs, err := s.questions.FindByForm(formID)
	if err != nil {
		return err
	}
	return s.persistOrder(qs)
}

// Move takes the question at index from out of the list and inserts it at
// index to. Both indices are clamped to the list.
func (s *QuestionService) Move(actor Actor, formID string, from, to int) ([]models.Question, error) {
	qs, err := s.List(actor, formID)
	if err != nil {
		return nil, err
	}
	if len(qs) == 0 {
		return qs, nil
	}
	qs = moveItem(qs, from, to)
	if err := s.persistOrder(qs); err != nil {
		return nil, err
	}
	return qs, nil
}

// Reorder applies a full ordering. ids must be a permutation of the form's
// question ids.
func (s *QuestionService) Reorder(actor Actor, formID string, ids []string) ([]models.Question, error) {
	qs, err := s.List(actor, formID)
	if err != nil {
		return nil, err
	}
	if len(ids) != len(qs) {
		return nil, invalidf("order must list all %d questions", len(qs))
	}
	byID := make(map[string]models.Question, len(qs))
	for _, q := range qs {
		byID[q.ID] = q
	}
	ordered := make([]models.Question, 0, len(ids))
	for _, id := range ids {
		q, ok := byID[id]
		if !ok {
			return nil, invalidf("unknown or repeated question %q", id)
		}
		delete(byID, id)
		ordered = append(ordered, q)
	}
	if err := s.persistOrder(ordered); err != nil {
		return nil, err
	}
	return ordered, nil
}

func (s *QuestionService) owned(actor Actor, formID, questionID string) (*models.Question, error) {
	if _, err := s.forms.Get(actor, formID); err != nil {
		return nil, err
	}
	q, err := s.questions.FindByID(questionID)
	if err != nil {
		return nil, err
	}
	if q == nil || q.FormID != formID {
		return nil, notFound("question")
	}
	return q, nil
}

// persistOrder renumbers qs 0..n-1 in slice order and writes positions that
// changed.
func (s *QuestionService) persistOrder(qs []models.Question) error {
	for i := range qs {
		if qs[i].Position == i {
			continue
		}
		if err := s.questions.SetPosition(qs[i].ID, i); err != nil {
			return fmt.Errorf("set position of %s: %w", qs[i].ID, err)
		}
		qs[i].Position = i
	}
	return nil
}

// moveItem splices items[from] out and inserts it at to. The input slice is
// not modified.
func moveItem[T any](items []T, from, to int) []T {
	n := len(items)
	out := make([]T, n)
	copy(out, items)
	if n < 2 {
		return out
	}
	from = clamp(from, 0, n-1)
	to = clamp(to, 0, n-1)
	if from == to {
		return out
	}
	item := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]T{item}, out[to:]...)...)
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// normalizeQuestion validates q and rewrites it into canonical form:
// sanitized text, default rating scale, options only where they apply.
func normalizeQuestion(q *models.Question) error {
	if !models.IsQuestionType(q.Type) {
		return invalidf("unknown question type %q", q.Type)
	}
	q.Text = sanitize.Text(q.Text)
	if q.Text == "" {
		return invalidf("question text is required")
	}
	if utf8.RuneCountInString(q.Text) > maxQuestionLen {
		return invalidf("question text must be at most %d characters", maxQuestionLen)
	}

	switch q.Type {
	case models.QuestionRating:
		if q.Scale == 0 {
			q.Scale = models.DefaultRatingScale
		}
		if q.Scale < 2 || q.Scale > models.MaxRatingScale {
			return invalidf("rating scale must be between 2 and %d", models.MaxRatingScale)
		}
	case models.QuestionNPS:
		q.Scale = models.NPSMax
	default:
		q.Scale = 0
	}

	if q.Type != models.QuestionMultipleChoice {
		q.Options = nil
		return nil
	}
	seen := map[string]bool{}
	opts := make([]string, 0, len(q.Options))
	for _, o := range q.Options {
		o = sanitize.Text(o)
		if o == "" {
			continue
		}
		if seen[o] {
			return invalidf("duplicate option %q", o)
		}
		seen[o] = true
		opts = append(opts, o)
	}
	if len(opts) < 2 {
		return invalidf("multiple choice questions need at least 2 options")
	}
	if len(opts) > maxOptions {
		return invalidf("multiple choice questions allow at most %d options", maxOptions)
	}
	q.Options = opts
	return nil
}
