// Package http exposes the JSON API: authentication, user account queries,
// the income and expense operations, and feedback.
package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"finanzas/internal/auth"
	"finanzas/internal/core"
	"finanzas/internal/middleware/ratelimit"
	"finanzas/internal/services"
	"finanzas/internal/storage"
)

const appVersion = "1.0.0"

// Deps carries everything the router needs.
type Deps struct {
	Users    *services.UserService
	Elements *services.ElementService
	Feedback *services.FeedbackService
	Tokens   *auth.TokenManager
	Repo     *storage.Repository
	Limiter  *ratelimit.Limiter

	CORSOrigins []string
}

// NewServer builds the configured HTTP server. Timeouts match the rest of
// the stack: short reads and writes, a longer idle window.
func NewServer(addr string, deps Deps) *http.Server {
	return &http.Server{
		Addr:           addr,
		Handler:        NewRouter(deps),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}
}

// NewRouter registers all routes on a fresh engine.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "x-access-token"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))

	r.GET("/health", handleHealth)
	r.GET("/about", handleAbout)

	authH := &authHandlers{users: deps.Users}
	authGroup := r.Group("/auth")
	authGroup.Use(rateLimited(deps.Limiter))
	authGroup.POST("/signup", authH.Signup)
	authGroup.POST("/login", authH.Login)
	authGroup.POST("/refresh", authH.Refresh)

	authed := r.Group("/")
	authed.Use(authRequired(deps.Tokens, deps.Repo))

	userH := &userHandlers{users: deps.Users}
	users := authed.Group("/users")
	users.GET("/whoami", userH.Whoami)
	users.GET("/balance", userH.Balance)
	users.GET("/list", userH.List)
	users.PUT("/update", rateLimited(deps.Limiter), userH.Update)
	users.DELETE("/delete", rateLimited(deps.Limiter), userH.Delete)

	registerElementRoutes(authed.Group("/incomes"), deps, core.KindIncome)
	registerElementRoutes(authed.Group("/expenses"), deps, core.KindExpense)

	feedbackH := &feedbackHandlers{feedback: deps.Feedback}
	feedback := authed.Group("/feedback")
	feedback.GET("/get_all", feedbackH.GetAll)
	feedback.GET("/types", feedbackH.Types)
	feedback.POST("/add", rateLimited(deps.Limiter), feedbackH.Add)

	return r
}

func registerElementRoutes(g *gin.RouterGroup, deps Deps, kind core.ElementKind) {
	h := &elementHandlers{elements: deps.Elements, kind: kind}
	g.GET("/get_all", h.GetAll)
	g.GET("/get", h.GetOne)
	g.GET("/average", h.Average)
	g.GET("/total", h.Total)
	g.GET("/count", h.Count)
	g.GET("/types", h.Types)
	g.POST("/add", rateLimited(deps.Limiter), h.Add)
	g.PUT("/update", rateLimited(deps.Limiter), h.Update)
	g.DELETE("/delete", rateLimited(deps.Limiter), h.Delete)
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func handleAbout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "finanzas",
		"version": appVersion,
	})
}
