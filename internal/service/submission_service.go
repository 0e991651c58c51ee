package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/config"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/mail"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/models"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/repository"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/sanitize"
)

const (
	maxAnswerLen     = 5000
	maxUserAgentLen  = 512
	defaultPageLimit = 20
	maxPageLimit     = 200
	searchScanLimit  = 500
	alertTimeout     = 15 * time.Second
	defaultThankYou  = "Thank you for your feedback!"
)

type SubmissionService struct {
	forms     *FormService
	questions *repository.QuestionRepo
	subs      *repository.SubmissionRepo
	users     *repository.UserRepo
	profiles  *ProfileService
	mailer    mail.Sender
	routing   config.RoutingConfig
	baseURL   string
	log       *zap.Logger

	alerts sync.WaitGroup
}

func NewSubmissionService(
	forms *FormService,
	questions *repository.QuestionRepo,
	subs *repository.SubmissionRepo,
	users *repository.UserRepo,
	profiles *ProfileService,
	mailer mail.Sender,
	routing config.RoutingConfig,
	baseURL string,
	logger *zap.Logger,
) *SubmissionService {
	return &SubmissionService{
		forms:     forms,
		questions: questions,
		subs:      subs,
		users:     users,
		profiles:  profiles,
		mailer:    mailer,
		routing:   routing,
		baseURL:   baseURL,
		log:       logger,
	}
}

// PublicSurvey is what a respondent sees before answering.
type PublicSurvey struct {
	Slug            string            `json:"slug"`
	Title           string            `json:"title"`
	Description     string            `json:"description,omitempty"`
	ThankYouMessage string            `json:"thankYouMessage,omitempty"`
	Questions       []models.Question `json:"questions"`
}

// SubmitResult tells the respondent's browser what to show next.
type SubmitResult struct {
	SubmissionID string `json:"submissionId"`
	Outcome      string `json:"outcome"`
	RedirectURL  string `json:"redirectUrl,omitempty"`
	Message      string `json:"message"`
}

func (s *SubmissionService) PublicSurvey(slug string) (*PublicSurvey, error) {
	form, err := s.forms.GetActiveBySlug(slug)
	if err != nil {
		return nil, err
	}
	qs, err := s.questions.FindByForm(form.ID)
	if err != nil {
		return nil, err
	}
	return &PublicSurvey{
		Slug:            form.Slug,
		Title:           form.Title,
		Description:     form.Description,
		ThankYouMessage: form.Settings.ThankYouMessage,
		Questions:       qs,
	}, nil
}

// Submit validates a response to the survey at slug, routes it and stores it.
func (s *SubmissionService) Submit(slug string, answers []models.Answer, userAgent string) (*SubmitResult, error) {
	form, err := s.forms.GetActiveBySlug(slug)
	if err != nil {
		return nil, err
	}
	qs, err := s.questions.FindByForm(form.ID)
	if err != nil {
		return nil, err
	}
	if len(qs) == 0 {
		return nil, invalidf("this survey has no questions yet")
	}

	clean, comment, err := validateAnswers(qs, answers)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.Question, len(qs))
	for _, q := range qs {
		byID[q.ID] = q
	}
	owner, err := s.profiles.Get(form.OwnerID)
	if err != nil {
		return nil, err
	}
	verdict := Route(form.Settings, owner.ReviewURL, Score(byID, clean), s.routing.CriticalThreshold)

	if len(userAgent) > maxUserAgentLen {
		userAgent = userAgent[:maxUserAgentLen]
	}
	sub := &models.Submission{
		FormID:    form.ID,
		Answers:   clean,
		Score:     verdict.Score,
		Outcome:   verdict.Outcome,
		Critical:  verdict.Critical,
		Comment:   comment,
		UserAgent: userAgent,
		CreatedAt: models.Timestamp(time.Now()),
	}
	id, err := s.subs.Create(sub)
	if err != nil {
		return nil, err
	}
	sub.ID = id

	if sub.Critical {
		s.log.Warn("critical response",
			zap.String("form", form.ID),
			zap.String("submission", id),
			zap.Float64p("score", sub.Score),
		)
		if owner.NotifyCritical && s.mailer != nil {
			s.alerts.Add(1)
			go func() {
				defer s.alerts.Done()
				s.sendAlert(form, sub)
			}()
		}
	}

	msg := form.Settings.ThankYouMessage
	if msg == "" {
		msg = defaultThankYou
	}
	return &SubmitResult{
		SubmissionID: id,
		Outcome:      verdict.Outcome,
		RedirectURL:  verdict.RedirectURL,
		Message:      msg,
	}, nil
}

// Wait blocks until pending alert emails have been handed to the mailer.
func (s *SubmissionService) Wait() {
	s.alerts.Wait()
}

func (s *SubmissionService) sendAlert(form *models.Form, sub *models.Submission) {
	user, err := s.users.FindByID(form.OwnerID)
	if err != nil || user == nil {
		s.log.Error("critical alert: owner lookup failed", zap.String("form", form.ID), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), alertTimeout)
	defer cancel()

	score := "n/a"
	if sub.Score != nil {
		score = fmt.Sprintf("%.2f", *sub.Score)
	}
	link := fmt.Sprintf("%s/forms/%s/submissions/%s", s.baseURL, form.ID, sub.ID)
	text := fmt.Sprintf("A critical response (score %s) was submitted to %q.\n\n%s\n\nOpen it: %s\n",
		score, form.Title, sub.Comment, link)
	body := fmt.Sprintf("<p>A critical response (score <strong>%s</strong>) was submitted to <strong>%s</strong>.</p><p>%s</p><p><a href=\"%s\">Open the response</a></p>",
		score, html.EscapeString(form.Title), html.EscapeString(sub.Comment), html.EscapeString(link))

	err = s.mailer.Send(ctx, mail.Message{
		To:      []string{user.Email},
		Subject: "Critical feedback on " + form.Title,
		Text:    text,
		HTML:    body,
	})
	if err != nil {
		s.log.Error("critical alert: send failed",
			zap.String("form", form.ID),
			zap.String("submission", sub.ID),
			zap.Error(err),
		)
	}
}

// SubmissionPage is one page of a form's responses.
type SubmissionPage struct {
	Submissions []models.Submission `json:"submissions"`
	Total       int                 `json:"total"`
	Skip        int                 `json:"skip"`
	Limit       int                 `json:"limit"`
}

func (s *SubmissionService) List(actor Actor, formID string, skip, limit int) (*SubmissionPage, error) {
	if _, err := s.forms.Get(actor, formID); err != nil {
		return nil, err
	}
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	subs, total, err := s.subs.FindByFormID(formID, skip, limit)
	if err != nil {
		return nil, err
	}
	if subs == nil {
		subs = []models.Submission{}
	}
	return &SubmissionPage{Submissions: subs, Total: total, Skip: skip, Limit: limit}, nil
}

func (s *SubmissionService) Get(actor Actor, formID, id string) (*models.Submission, error) {
	if _, err := s.forms.Get(actor, formID); err != nil {
		return nil, err
	}
	sub, err := s.subs.FindByID(id)
	if err != nil {
		return nil, err
	}
	if sub == nil || sub.FormID != formID {
		return nil, notFound("submission")
	}
	return sub, nil
}

func (s *SubmissionService) Delete(actor Actor, formID, id string) error {
	if _, err := s.Get(actor, formID, id); err != nil {
		return err
	}
	return s.subs.Delete(id)
}

// SearchRequest combines an optional full-text query with structured
// filters. At least one of them is required.
type SearchRequest struct {
	Text     string   `json:"q"`
	Outcome  string   `json:"outcome"`
	Critical *bool    `json:"critical"`
	MinScore *float64 `json:"minScore"`
	MaxScore *float64 `json:"maxScore"`
	Skip     int      `json:"skip"`
	Limit    int      `json:"limit"`
}

type SearchResult struct {
	Submissions []models.Submission `json:"submissions"`
	Total       int                 `json:"total"`
	Mode        string              `json:"mode"`
}

const (
	searchStructured = "structured"
	searchText       = "text"
	searchScan       = "scan"
)

// Search finds submissions of one form. Structured-only requests are served
// by a filtered find. Text requests use the shared text index and keep the
// hits that pass the form filter; when the index returns a full page of hits
// the form's own matches may have been crowded out, so the form is scanned
// directly instead.
func (s *SubmissionService) Search(actor Actor, formID string, req SearchRequest) (*SearchResult, error) {
	if _, err := s.forms.Get(actor, formID); err != nil {
		return nil, err
	}
	filter, err := searchFilter(formID, req)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(req.Text)
	if text == "" && filter == (repository.SubmissionFilter{FormID: formID}) {
		return nil, invalidf("search query or filter is required")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	skip := req.Skip
	if skip < 0 {
		skip = 0
	}

	if text == "" {
		subs, total, err := s.subs.Find(filter, skip, limit)
		if err != nil {
			return nil, err
		}
		return &SearchResult{Submissions: subs, Total: total, Mode: searchStructured}, nil
	}

	hits, err := s.subs.TextSearch(text, searchScanLimit)
	if err != nil {
		return nil, err
	}
	mode := searchText
	var found []models.Submission
	if len(hits) < searchScanLimit {
		for i := range hits {
			if filter.Matches(&hits[i]) {
				found = append(found, hits[i])
			}
		}
	} else {
		mode = searchScan
		if found, err = s.scanForText(filter, text, skip+limit); err != nil {
			return nil, err
		}
	}
	return &SearchResult{Submissions: pageOf(found, skip, limit), Total: len(found), Mode: mode}, nil
}

// scanForText walks the filtered submissions newest first and keeps those
// whose comment contains any query term, stopping once want are found.
func (s *SubmissionService) scanForText(filter repository.SubmissionFilter, text string, want int) ([]models.Submission, error) {
	terms := strings.Fields(strings.ToLower(text))
	var found []models.Submission
	for skip := 0; len(found) < want; skip += searchScanLimit {
		batch, _, err := s.subs.Find(filter, skip, searchScanLimit)
		if err != nil {
			return nil, err
		}
		for _, sub := range batch {
			if containsAny(strings.ToLower(sub.Comment), terms) {
				found = append(found, sub)
			}
		}
		if len(batch) < searchScanLimit {
			break
		}
	}
	return found, nil
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func pageOf(subs []models.Submission, skip, limit int) []models.Submission {
	if skip >= len(subs) {
		return []models.Submission{}
	}
	end := skip + limit
	if end > len(subs) {
		end = len(subs)
	}
	return subs[skip:end]
}

func searchFilter(formID string, req SearchRequest) (repository.SubmissionFilter, error) {
	f := repository.SubmissionFilter{FormID: formID, Critical: req.Critical}
	switch req.Outcome {
	case "", models.OutcomePrivate, models.OutcomeReviewRedirect:
		f.Outcome = req.Outcome
	default:
		return f, invalidf("unknown outcome %q", req.Outcome)
	}
	for _, v := range []*float64{req.MinScore, req.MaxScore} {
		if v != nil && (*v < 0 || *v > 5) {
			return f, invalidf("score filters must be within 0-5")
		}
	}
	if req.MinScore != nil && req.MaxScore != nil && *req.MinScore > *req.MaxScore {
		return f, invalidf("minScore is above maxScore")
	}
	f.MinScore, f.MaxScore = req.MinScore, req.MaxScore
	return f, nil
}

// validateAnswers checks answers against qs and returns them in question
// order with values normalized, plus the joined text answers.
func validateAnswers(qs []models.Question, answers []models.Answer) ([]models.Answer, string, error) {
	byID := make(map[string]*models.Question, len(qs))
	for i := range qs {
		byID[qs[i].ID] = &qs[i]
	}
	given := make(map[string]any, len(answers))
	for _, a := range answers {
		if _, ok := byID[a.QuestionID]; !ok {
			return nil, "", invalidf("unknown question %q", a.QuestionID)
		}
		if _, dup := given[a.QuestionID]; dup {
			return nil, "", invalidf("question %q answered twice", a.QuestionID)
		}
		given[a.QuestionID] = a.Value
	}

	var out []models.Answer
	var texts []string
	for i := range qs {
		q := &qs[i]
		v, answered, err := normalizeAnswer(q, given[q.ID])
		if err != nil {
			return nil, "", err
		}
		if !answered {
			if q.Required {
				return nil, "", invalidf("%q is required", q.Text)
			}
			continue
		}
		if q.Type == models.QuestionText {
			texts = append(texts, v.(string))
		}
		out = append(out, models.Answer{QuestionID: q.ID, Value: v})
	}
	return out, strings.Join(texts, "\n"), nil
}

// normalizeAnswer validates one value. Missing and blank values are reported
// as unanswered rather than as errors.
func normalizeAnswer(q *models.Question, v any) (any, bool, error) {
	if v == nil {
		return nil, false, nil
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return nil, false, nil
	}

	switch q.Type {
	case models.QuestionRating:
		n, ok := intValue(v)
		if !ok || n < 1 || n > q.RatingScale() {
			return nil, false, invalidf("%q needs a whole number from 1 to %d", q.Text, q.RatingScale())
		}
		return n, true, nil

	case models.QuestionNPS:
		n, ok := intValue(v)
		if !ok || n < 0 || n > models.NPSMax {
			return nil, false, invalidf("%q needs a whole number from 0 to %d", q.Text, models.NPSMax)
		}
		return n, true, nil

	case models.QuestionMultipleChoice:
		return choiceValue(q, v)

	case models.QuestionYesNo:
		b, ok := v.(bool)
		if !ok {
			return nil, false, invalidf("%q needs yes or no", q.Text)
		}
		return b, true, nil

	case models.QuestionText:
		s, ok := v.(string)
		if !ok {
			return nil, false, invalidf("%q needs text", q.Text)
		}
		s = sanitize.Text(s)
		if s == "" {
			return nil, false, nil
		}
		if utf8.RuneCountInString(s) > maxAnswerLen {
			return nil, false, invalidf("%q must be at most %d characters", q.Text, maxAnswerLen)
		}
		return s, true, nil
	}
	return nil, false, invalidf("question %q has unknown type %q", q.ID, q.Type)
}

// choiceValue accepts one option or a list of options.
func choiceValue(q *models.Question, v any) (any, bool, error) {
	valid := func(s string) bool {
		for _, o := range q.Options {
			if o == s {
				return true
			}
		}
		return false
	}
	switch c := v.(type) {
	case string:
		if !valid(c) {
			return nil, false, invalidf("%q is not an option of %q", c, q.Text)
		}
		return c, true, nil
	case []any:
		seen := map[string]bool{}
		picked := make([]string, 0, len(c))
		for _, item := range c {
			s, ok := item.(string)
			if !ok || !valid(s) {
				return nil, false, invalidf("%v is not an option of %q", item, q.Text)
			}
			if !seen[s] {
				seen[s] = true
				picked = append(picked, s)
			}
		}
		if len(picked) == 0 {
			return nil, false, nil
		}
		return picked, true, nil
	}
	return nil, false, invalidf("%q needs one of its options", q.Text)
}
