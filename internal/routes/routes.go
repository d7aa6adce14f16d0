package routes

import (
	"github.com/flipline/flipline/internal/auth"
	"github.com/flipline/flipline/internal/handlers"
	"github.com/flipline/flipline/internal/middleware"
	"github.com/flipline/flipline/internal/models"
	"github.com/go-chi/chi/v5"
)

// Handlers bundles the HTTP handlers wired into the API router
type Handlers struct {
	Auth        *handlers.AuthHandler
	Leads       *handlers.LeadHandler
	Commissions *handlers.CommissionHandler
	VAs         *handlers.VAHandler
	Users       *handlers.UserHandler
	Invites     *handlers.InviteHandler
	Settings    *handlers.SettingHandler
	Audit       *handlers.AuditHandler
}

// RegisterRoutes registers all application routes under /api
func RegisterRoutes(router chi.Router, h Handlers, sessionStore auth.SessionStore) {
	authRateLimit := middleware.RateLimitByIP(middleware.DefaultAuthRateLimit())

	router.Route("/api", func(r chi.Router) {
		r.Use(auth.SessionMiddleware(sessionStore))

		// Public routes - login endpoints carry the strict rate limit
		r.With(authRateLimit).Post("/login-password", h.Auth.LoginPassword)
		r.With(authRateLimit).Post("/login-magic-request", h.Auth.RequestMagicLink)
		r.With(authRateLimit).Post("/login-magic-consume", h.Auth.ConsumeMagicLink)
		r.Post("/logout", h.Auth.Logout)

		// Invite redemption is public: the token is the credential
		r.Get("/invites/{token}", h.Invites.GetInvite)
		r.Post("/invites/accept", h.Invites.AcceptInvite)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth)

			r.Get("/user", h.Auth.CurrentUser)

			// Any authenticated role; the lead service scopes VAs to
			// their own records
			r.Get("/leads", h.Leads.ListLeads)
			r.Post("/leads", h.Leads.CreateLead)
			r.Get("/leads/{id}", h.Leads.GetLead)
			r.Get("/leads/{id}/events", h.Leads.GetLeadEvents)

			// Admin routes
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(models.RoleSuperadmin, models.RoleManager))

				r.Patch("/leads/{id}", h.Leads.UpdateLead)
				r.Patch("/leads/{id}/status", h.Leads.ChangeStatus)

				r.Get("/vas", h.VAs.ListVAs)
				r.Get("/vas/{id}", h.VAs.GetVA)

				r.Get("/settings", h.Settings.ListSettings)
				r.Get("/settings/{key}", h.Settings.GetSetting)
			})

			// Superadmin-only routes
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(models.RoleSuperadmin))

				r.Delete("/leads/{id}", h.Leads.DeleteLead)
				r.Delete("/leads", h.Leads.BulkDeleteLeads)

				r.Get("/commissions", h.Commissions.ListCommissions)
				r.Post("/commissions/mark-paid/{id}", h.Commissions.MarkPaid)
				r.Post("/commissions/recalculate/{leadId}", h.Commissions.Recalculate)
				r.Get("/commissions/export.csv", h.Commissions.ExportCSV)

				r.Post("/vas", h.VAs.CreateVA)
				r.Post("/vas/create-account", h.VAs.CreateAccount)
				r.Patch("/vas/{id}", h.VAs.UpdateVA)
				r.Patch("/vas/{id}/commission", h.VAs.UpdateCommission)
				r.Delete("/vas/{id}", h.VAs.DeleteVA)

				r.Get("/users", h.Users.ListUsers)
				r.Patch("/users/{id}", h.Users.UpdateUser)
				r.Post("/users/{id}/reset-password", h.Users.ResetPassword)

				r.Post("/invites", h.Invites.CreateInvite)
				r.Get("/invites", h.Invites.ListInvites)

				r.Put("/settings/{key}", h.Settings.UpdateSetting)

				r.Get("/audit-logs", h.Audit.ListAuditLogs)
			})
		})
	})
}
