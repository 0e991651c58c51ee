package router

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/auth"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/handler"
	mw "github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/middleware"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/models"
)

type Handlers struct {
	Auth       *handler.AuthHandler
	Profile    *handler.ProfileHandler
	Form       *handler.FormHandler
	Question   *handler.QuestionHandler
	Submission *handler.SubmissionHandler
	Public     *handler.PublicHandler
	Results    *handler.ResultsHandler
	Template   *handler.TemplateHandler
	Dashboard  *handler.DashboardHandler
	Contact    *handler.ContactHandler
	Admin      *handler.AdminHandler
}

func New(jwtSecret string, logger *zap.Logger, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Recovery(logger))
	r.Use(mw.Logger(logger))
	r.Use(mw.CORS)

	r.Get("/healthz", h.Admin.Health)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/login", h.Auth.Login)
		r.Post("/auth/register", h.Auth.Register)
		r.Post("/contact", h.Contact.Send)
		r.Get("/public/surveys/{slug}", h.Public.Survey)
		r.Post("/public/surveys/{slug}/responses", h.Public.Submit)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(jwtSecret))

			// Account
			r.Get("/auth/me", h.Auth.Me)
			r.Put("/auth/password", h.Auth.ChangePassword)
			r.Get("/profile", h.Profile.Get)
			r.Put("/profile", h.Profile.Update)

			r.Get("/dashboard", h.Dashboard.Dashboard)

			// Forms
			r.Get("/forms", h.Form.List)
			r.Post("/forms", h.Form.Create)
			r.Get("/forms/{formId}", h.Form.Get)
			r.Put("/forms/{formId}", h.Form.Update)
			r.Delete("/forms/{formId}", h.Form.Delete)
			r.Post("/forms/{formId}/duplicate", h.Form.Duplicate)
			r.Put("/forms/{formId}/active", h.Form.SetActive)

			// Questions
			r.Get("/forms/{formId}/questions", h.Question.List)
			r.Post("/forms/{formId}/questions", h.Question.Create)
			r.Post("/forms/{formId}/questions/move", h.Question.Move)
			r.Put("/forms/{formId}/questions/order", h.Question.Reorder)
			r.Put("/forms/{formId}/questions/{questionId}", h.Question.Update)
			r.Delete("/forms/{formId}/questions/{questionId}", h.Question.Delete)

			// Submissions
			r.Get("/forms/{formId}/submissions", h.Submission.List)
			r.Get("/forms/{formId}/submissions/{subId}", h.Submission.Get)
			r.Delete("/forms/{formId}/submissions/{subId}", h.Submission.Delete)
			r.Get("/forms/{formId}/search", h.Submission.Search)

			// Results
			r.Get("/forms/{formId}/analytics", h.Results.Analytics)
			r.Get("/forms/{formId}/share", h.Results.ShareLink)
			r.Get("/forms/{formId}/qr.png", h.Results.QRCode)
			r.Get("/forms/{formId}/export.xlsx", h.Results.ExportXLSX)
			r.Post("/forms/{formId}/export/sheets", h.Results.ExportSheets)

			// Templates
			r.Get("/templates", h.Template.List)
			r.Get("/templates/{templateId}", h.Template.Get)
			r.Post("/templates/{templateId}/use", h.Template.Use)

			// Admin
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(models.RoleAdmin))
				r.Post("/forms/{formId}/template", h.Template.SaveFromForm)
				r.Get("/admin/indexes", h.Admin.ListIndexes)
				r.Post("/admin/compact", h.Admin.Compact)
			})
		})
	})

	return r
}
