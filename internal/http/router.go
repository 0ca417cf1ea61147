package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/you/accountsvc/internal/http/handlers"
	"github.com/you/accountsvc/internal/http/middleware"
	"github.com/you/accountsvc/internal/observability"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth     *handlers.AuthHandlers
	Password *handlers.PasswordHandlers
	Admin    *handlers.AdminHandlers
	Policy   *handlers.PolicyHandlers
}

func BuildRouter(h Handlers, authMW *middleware.AuthMW, cb *middleware.CasbinMW, metrics *observability.Metrics, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestContext(log), metrics.GinMiddleware())

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	auth := r.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/verify/status", h.Auth.VerifyStatus)
	auth.POST("/verify", h.Auth.Verify)
	auth.POST("/login", h.Auth.Login)
	auth.GET("/session", h.Auth.Session)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/password/forgot", h.Password.Forgot)
	auth.POST("/password/verify", h.Password.VerifyCode)
	auth.POST("/password/reset", h.Password.Reset)

	v := r.Group("/auth").Use(authMW.RequireSession(), cb.Enforce())
	v.GET("/me", h.Auth.Me)
	v.POST("/logout", h.Auth.Logout)

	adm := r.Group("/admin").Use(authMW.RequireSession(), cb.Enforce())
	adm.GET("/policies", h.Policy.List)
	adm.POST("/policies", h.Policy.Add)
	adm.DELETE("/policies", h.Policy.Remove)
	adm.GET("/users/:id", h.Admin.GetUser)
	adm.POST("/users/:id/ban", h.Admin.Ban)
	adm.DELETE("/users/:id/ban", h.Admin.Unban)

	return r
}
