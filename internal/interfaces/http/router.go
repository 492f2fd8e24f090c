package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appauth "atrium/internal/application/auth"
	"atrium/internal/interfaces/http/handlers"
	"atrium/internal/interfaces/http/middleware"
	"atrium/internal/shared/logger"
)

// Router assembles the gin engine with all routes and middleware.
type Router struct {
	engine *gin.Engine
	facade *appauth.Facade
	logger logger.Interface
}

func NewRouter(facade *appauth.Facade, allowedOrigins []string, log logger.Interface) *Router {
	engine := gin.New()
	engine.Use(middleware.Recovery(log))
	engine.Use(middleware.RequestLogging(log))
	engine.Use(middleware.CORS(allowedOrigins))
	engine.Use(middleware.SecurityHeaders())

	r := &Router{
		engine: engine,
		facade: facade,
		logger: log,
	}
	r.registerRoutes()
	return r
}

func (r *Router) registerRoutes() {
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authHandler := handlers.NewAuthHandler(r.facade, r.logger)
	userHandler := handlers.NewUserHandler(r.facade, r.logger)

	api := r.engine.Group("/api/v1")

	auth := api.Group("/auth")
	{
		auth.POST("/signup", authHandler.SignUp)
		auth.POST("/signin", authHandler.SignIn)
		auth.POST("/signout", authHandler.SignOut)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/password/reset-request", authHandler.ResetPasswordRequest)
		auth.POST("/password/reset", authHandler.ResetPassword)
		auth.POST("/verify-email", authHandler.VerifyEmail)
		auth.GET("/verify-email", authHandler.VerifyEmail)
		auth.POST("/verify-email/resend", authHandler.ResendVerification)
		auth.GET("/oauth/:provider", authHandler.GetOAuthURL)
		auth.POST("/oauth/:provider/callback", authHandler.OAuthCallback)
		auth.GET("/oauth/:provider/callback", authHandler.OAuthCallback)
	}

	authenticated := api.Group("")
	authenticated.Use(middleware.RequireAuth(r.facade, r.logger))
	{
		authenticated.GET("/users/me", userHandler.GetMe)
		authenticated.PUT("/users/me", userHandler.UpdateMe)
		authenticated.DELETE("/users/me", userHandler.DeleteMe)
		authenticated.POST("/auth/password/change", authHandler.ChangePassword)
	}
}

// Handler returns the router as an http.Handler for the server.
func (r *Router) Handler() http.Handler {
	return r.engine
}
