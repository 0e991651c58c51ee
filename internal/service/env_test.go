package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/config"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/db"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/mail"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/models"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/oxidb/oxidbtest"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/repository"
)

var testRouting = config.RoutingConfig{Threshold: 4, CriticalThreshold: 2}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}

type env struct {
	pool      *db.Pool
	users     *repository.UserRepo
	questionR *repository.QuestionRepo
	subR      *repository.SubmissionRepo
	templateR *repository.TemplateRepo

	mailer    *recordingMailer
	auth      *AuthService
	profiles  *ProfileService
	forms     *FormService
	questions *QuestionService
	subs      *SubmissionService
	analytics *AnalyticsService
	templates *TemplateService
	share     *ShareService
	exports   *ExportService
	dashboard *DashboardService
	demo      *DemoService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	srv := oxidbtest.New(t)
	pool, err := db.NewPool(srv.Host(), srv.Port(), 2)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	log := zap.NewNop()
	e := &env{
		pool:      pool,
		users:     repository.NewUserRepo(pool),
		questionR: repository.NewQuestionRepo(pool),
		subR:      repository.NewSubmissionRepo(pool),
		templateR: repository.NewTemplateRepo(pool),
		mailer:    &recordingMailer{},
	}
	formR := repository.NewFormRepo(pool)
	require.NoError(t, e.users.EnsureIndexes())
	require.NoError(t, formR.EnsureIndexes())
	require.NoError(t, e.templateR.EnsureIndexes())
	require.NoError(t, e.subR.EnsureTextIndex())

	e.profiles = NewProfileService(repository.NewProfileRepo(pool))
	e.auth = NewAuthService(e.users, e.profiles, "test-secret", time.Hour)
	e.forms = NewFormService(formR, e.questionR, e.subR, testRouting, log)
	e.questions = NewQuestionService(e.forms, e.questionR)
	e.subs = NewSubmissionService(e.forms, e.questionR, e.subR, e.users, e.profiles, e.mailer, testRouting, "https://grove.test", log)
	e.analytics = NewAnalyticsService(e.forms, e.questionR, e.subR)
	e.templates = NewTemplateService(e.templateR, e.forms, e.questionR, log)
	e.share = NewShareService(e.forms, "https://grove.test")
	e.exports = NewExportService(e.forms, e.questionR, e.subR, "", log)
	e.dashboard = NewDashboardService(e.forms, e.subR)
	e.demo = NewDemoService(e.forms, e.questionR, e.subR, e.profiles, testRouting, log)
	return e
}

// owner registers a user and returns it as an Actor.
func (e *env) owner(t *testing.T, email string) Actor {
	t.Helper()
	res, err := e.auth.Register(email, "password123", "Owner")
	require.NoError(t, err)
	return Actor{UserID: res.User.ID}
}

// survey creates a form with one question of each type, in this order:
// rating, nps, multiple_choice, yes_no, text.
func (e *env) survey(t *testing.T, actor Actor, settings *models.FormSettings) (*models.Form, []models.Question) {
	t.Helper()
	form, err := e.forms.Create(actor, FormInput{Title: "Dinner feedback", Settings: settings})
	require.NoError(t, err)
	inputs := []QuestionInput{
		{Type: models.QuestionRating, Text: "How was the food?", Required: true},
		{Type: models.QuestionNPS, Text: "Would you recommend us?"},
		{Type: models.QuestionMultipleChoice, Text: "Which meal?", Options: []string{"Lunch", "Dinner"}},
		{Type: models.QuestionYesNo, Text: "Will you return?"},
		{Type: models.QuestionText, Text: "Anything else?"},
	}
	var qs []models.Question
	for _, in := range inputs {
		q, err := e.questions.Add(actor, form.ID, in)
		require.NoError(t, err)
		qs = append(qs, *q)
	}
	return form, qs
}
