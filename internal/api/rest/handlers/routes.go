package handlers

import (
	"github.com/degreepass/verification_service/internal/api/rest/middleware"
	"github.com/degreepass/verification_service/internal/helper"
	"github.com/degreepass/verification_service/internal/services"
	"github.com/gofiber/fiber/v2"
)

func SetupRoutes(
	app *fiber.App,
	auth helper.Auth,
	accountSvc services.AccountService,
	authHandler *AuthHandler,
	verificationHandler *VerificationHandler,
	uploadHandler *UploadHandler,
) {
	api := app.Group("/api")

	authed := middleware.AuthMiddleware(auth)
	adminOnly := middleware.AdminOnly(accountSvc)

	// =========================
	// AUTH / ACCOUNTS
	// =========================
	authGroup := api.Group("/auth")

	// public
	authGroup.Post("/signup", authHandler.Signup)
	authGroup.Post("/login", authHandler.Login)

	// authenticated
	authGroup.Get("/me", authed, authHandler.Me)

	// admin: approval gate
	authGroup.Get("/pending-users", authed, adminOnly, authHandler.ListPendingUsers)
	authGroup.Get("/all-users", authed, adminOnly, authHandler.ListAllUsers)
	authGroup.Put("/approve/:userID", authed, adminOnly, authHandler.ApproveUser)
	authGroup.Delete("/user/:userID", authed, adminOnly, authHandler.DeleteUser)

	// =========================
	// VERIFICATION REQUESTS
	// =========================
	verification := api.Group("/verification")

	// public lookup by access code, no auth on purpose
	verification.Get("/verify/:code", verificationHandler.VerifyByCode)

	// student
	verification.Post("/submit", authed, verificationHandler.Submit)

	// admin
	verification.Get("/admin/all", authed, adminOnly, verificationHandler.ListAll)
	verification.Post("/admin/:requestID/report", authed, adminOnly, verificationHandler.AttachReport)

	// =========================
	// UPLOADS
	// =========================
	uploads := api.Group("/uploads")
	uploads.Post("/document", authed, uploadHandler.UploadDocument)
}
