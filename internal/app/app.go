// Package app wires repositories, services and handlers into a runnable
// server.
package app

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/config"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/db"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/handler"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/mail"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/repository"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/router"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/service"
)

type App struct {
	cfg  *config.Config
	pool *db.Pool
	log  *zap.Logger

	Auth        *service.AuthService
	Profiles    *service.ProfileService
	Forms       *service.FormService
	Questions   *service.QuestionService
	Submissions *service.SubmissionService
	Analytics   *service.AnalyticsService
	Templates   *service.TemplateService
	Share       *service.ShareService
	Exports     *service.ExportService
	Dashboard   *service.DashboardService
	Contact     *service.ContactService
	Admin       *service.AdminService
	Demo        *service.DemoService
}

// New builds the service graph on pool. mailer may be nil, in which case
// one is built from cfg.Mail.
func New(cfg *config.Config, pool *db.Pool, logger *zap.Logger, mailer mail.Sender) *App {
	if mailer == nil {
		mailer = mail.New(cfg.Mail, logger.Named("mail"))
	}

	// Repositories
	userRepo := repository.NewUserRepo(pool)
	profileRepo := repository.NewProfileRepo(pool)
	formRepo := repository.NewFormRepo(pool)
	questionRepo := repository.NewQuestionRepo(pool)
	subRepo := repository.NewSubmissionRepo(pool)
	templateRepo := repository.NewTemplateRepo(pool)
	adminRepo := repository.NewAdminRepo(pool)

	// Services
	a := &App{cfg: cfg, pool: pool, log: logger}
	a.Profiles = service.NewProfileService(profileRepo)
	a.Auth = service.NewAuthService(userRepo, a.Profiles, cfg.JWTSecret, cfg.JWTTTL)
	a.Forms = service.NewFormService(formRepo, questionRepo, subRepo, cfg.Routing, logger.Named("forms"))
	a.Questions = service.NewQuestionService(a.Forms, questionRepo)
	a.Submissions = service.NewSubmissionService(a.Forms, questionRepo, subRepo, userRepo, a.Profiles, mailer, cfg.Routing, cfg.PublicBaseURL, logger.Named("submissions"))
	a.Analytics = service.NewAnalyticsService(a.Forms, questionRepo, subRepo)
	a.Templates = service.NewTemplateService(templateRepo, a.Forms, questionRepo, logger.Named("templates"))
	a.Share = service.NewShareService(a.Forms, cfg.PublicBaseURL)
	a.Exports = service.NewExportService(a.Forms, questionRepo, subRepo, cfg.Sheets.CredentialsFile, logger.Named("export"))
	a.Dashboard = service.NewDashboardService(a.Forms, subRepo)
	a.Contact = service.NewContactService(mailer, cfg.Mail.SupportTo, logger.Named("contact"))
	a.Admin = service.NewAdminService(adminRepo)
	a.Demo = service.NewDemoService(a.Forms, questionRepo, subRepo, a.Profiles, cfg.Routing, logger.Named("demo"))
	return a
}

// Handler returns the HTTP API.
func (a *App) Handler() http.Handler {
	return router.New(a.cfg.JWTSecret, a.log, router.Handlers{
		Auth:       handler.NewAuthHandler(a.Auth, a.log),
		Profile:    handler.NewProfileHandler(a.Profiles, a.log),
		Form:       handler.NewFormHandler(a.Forms, a.log),
		Question:   handler.NewQuestionHandler(a.Questions, a.log),
		Submission: handler.NewSubmissionHandler(a.Submissions, a.log),
		Public:     handler.NewPublicHandler(a.Submissions, a.log),
		Results:    handler.NewResultsHandler(a.Analytics, a.Share, a.Exports, a.log),
		Template:   handler.NewTemplateHandler(a.Templates, a.log),
		Dashboard:  handler.NewDashboardHandler(a.Dashboard, a.log),
		Contact:    handler.NewContactHandler(a.Contact, a.log),
		Admin:      handler.NewAdminHandler(a.Admin, a.pool, a.log),
	})
}

// Bootstrap creates indexes, seeds the admin account and the built-in
// templates. It runs on pool, which may be a dedicated connection so long
// index builds do not hold up request handling. Small collections go first;
// the submission indexes can take minutes on large datasets.
func (a *App) Bootstrap(pool *db.Pool) error {
	if pool == nil {
		pool = a.pool
	}
	log := a.log.Named("bootstrap")
	log.Info("starting")

	userRepo := repository.NewUserRepo(pool)
	small := []struct {
		name string
		fn   func() error
	}{
		{"users", userRepo.EnsureIndexes},
		{"profiles", repository.NewProfileRepo(pool).EnsureIndexes},
		{"forms", repository.NewFormRepo(pool).EnsureIndexes},
		{"questions", repository.NewQuestionRepo(pool).EnsureIndexes},
		{"templates", repository.NewTemplateRepo(pool).EnsureIndexes},
	}
	for _, s := range small {
		if err := s.fn(); err != nil {
			return err
		}
		log.Debug("indexes ready", zap.String("collection", s.name))
	}

	profiles := service.NewProfileService(repository.NewProfileRepo(pool))
	auth := service.NewAuthService(userRepo, profiles, a.cfg.JWTSecret, a.cfg.JWTTTL)
	if err := auth.SeedAdmin(a.cfg.AdminEmail, a.cfg.AdminPass); err != nil {
		log.Warn("failed to seed admin", zap.Error(err))
	}
	templates := service.NewTemplateService(repository.NewTemplateRepo(pool), nil, nil, a.log.Named("templates"))
	if _, err := templates.Seed(); err != nil {
		log.Warn("failed to seed templates", zap.Error(err))
	}
	log.Info("admin and templates seeded, small indexes ready")

	subRepo := repository.NewSubmissionRepo(pool)
	start := time.Now()
	if err := subRepo.EnsureIndexes(); err != nil {
		return err
	}
	log.Info("submission indexes ready", zap.Duration("took", time.Since(start).Round(time.Second)))
	start = time.Now()
	if err := subRepo.EnsureTextIndex(); err != nil {
		return err
	}
	log.Info("text index ready", zap.Duration("took", time.Since(start).Round(time.Second)))
	return nil
}

// Close waits for in-flight background work such as alert emails.
func (a *App) Close() {
	a.Submissions.Wait()
}
