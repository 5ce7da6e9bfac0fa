// Package routes defines the API routing configuration.
// It mounts every handler and applies the student and admin auth
// middleware to the groups that need them.
package routes

import (
	"time"

	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/handlers"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers bundles the HTTP handlers the router mounts.
type Handlers struct {
	Auth        *handlers.AuthHandler
	Application *handlers.ApplicationHandler
	Payment     *handlers.PaymentHandler
	Admin       *handlers.AdminHandler
	Contact     *handlers.ContactHandler
	Health      *handlers.HealthHandler
}

// loginLimiter allows five attempts per minute per client IP.
func loginLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        5,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"message": "Too many requests. Please try again later.",
			})
		},
	})
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, h Handlers, authMiddleware *middleware.AuthMiddleware) {
	app.Get("/health", h.Health.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	// Public routes
	api.Post("/contact", h.Contact.Submit)
	api.Get("/applications/:applicationId/success", h.Application.Success)

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", loginLimiter(), h.Auth.Register)
	authRoutes.Post("/login", loginLimiter(), h.Auth.Login)
	api.Post("/admin/login", loginLimiter(), h.Auth.AdminLogin)

	// Student routes
	student := authMiddleware.StudentAuth
	authRoutes.Get("/me", student, h.Auth.Me)
	authRoutes.Post("/logout", student, h.Auth.Logout)

	application := api.Group("/application", student)
	application.Get("/check-status", h.Application.CheckStatus)
	application.Get("/load-draft", h.Application.LoadDraft)
	application.Post("/save-draft", h.Application.SaveDraft)
	application.Delete("/draft", h.Application.ClearDraft)
	application.Post("/submit", h.Application.Submit)
	application.Get("/status", h.Application.Status)

	payments := api.Group("/payments", student)
	payments.Post("/order", h.Payment.CreateOrder)
	payments.Post("/verify", h.Payment.Verify)
	payments.Post("/utr", h.Payment.SubmitTransfer)
	payments.Get("/history", h.Payment.History)

	setupAdminRoutes(api, h, authMiddleware)
}

func setupAdminRoutes(api fiber.Router, h Handlers, authMiddleware *middleware.AuthMiddleware) {
	admin := api.Group("/admin", authMiddleware.AdminAuth)

	admin.Get("/me", h.Auth.AdminMe)
	admin.Post("/logout", h.Auth.AdminLogout)
	admin.Get("/dashboard", h.Admin.Dashboard)

	applicants := admin.Group("/applicants")
	applicants.Get("/", h.Admin.ListApplicants)
	applicants.Get("/export", h.Admin.ExportApplicants)
	applicants.Get("/:id", h.Admin.GetApplicant)
	applicants.Patch("/:id/status", h.Admin.UpdateStatus)
	applicants.Delete("/:id", h.Admin.DeleteApplicant)

	payments := admin.Group("/payments")
	payments.Get("/pending", h.Admin.PendingPayments)
	payments.Patch("/:id/verify", h.Admin.VerifyPayment)

	contacts := admin.Group("/contacts")
	contacts.Get("/", h.Admin.ListContacts)
	contacts.Patch("/:id", h.Admin.UpdateContact)
	contacts.Delete("/:id", middleware.RequireSuperadmin, h.Admin.DeleteContact)

	settings := admin.Group("/settings")
	settings.Put("/profile", h.Admin.UpdateProfile)
	settings.Put("/password", h.Admin.ChangePassword)
}
