package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/mshawy/bookhive-auth/internal/handler"    // import the handlers that implement business logic
	"github.com/mshawy/bookhive-auth/internal/middleware" // import middleware for JWT authentication and role enforcement
	"github.com/mshawy/bookhive-auth/internal/model"
)

// RegisterRoutes registers routes that do not require authentication
// on the provided Echo instance. Currently it exposes only a health
// check used by load balancers and monitoring systems.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication‑related routes and applies
// the necessary middleware. Unauthenticated operations live under
// /v1/auth, while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret, jwtIssuer, jwtAudience string) {
	// Operations that do not require an existing session: registration,
	// email confirmation, login and the whole password-reset flow.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	// Confirmation is a GET because the token arrives as a link in the
	// verification email.
	g.GET("/confirm-email", a.ConfirmEmail)
	g.POST("/login", a.Login)
	g.POST("/forgot-password", a.ForgotPassword)
	g.POST("/verify-otp", a.VerifyOtp)
	g.POST("/reset-password", a.ResetPassword)
	// Google sign-in: /google/login redirects to the provider consent
	// page; the provider redirects back to /google/callback.
	g.GET("/google/login", a.GoogleLogin)
	g.GET("/google/callback", a.GoogleCallback)

	// Routes that require a valid access token. All handlers registered
	// on this group run the JWTAuth middleware first.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret, jwtIssuer, jwtAudience))
	auth.GET("/me", a.Me, middleware.RequireRole(model.RoleUser, model.RoleAdmin))
	// Account listing is an administrative surface.
	auth.GET("/users", a.ListUsers, middleware.RequireRole(model.RoleAdmin))
}
