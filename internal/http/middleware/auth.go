package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/you/accountsvc/domain"
	"github.com/you/accountsvc/internal/http/response"
)

// AuthMW resolves bearer tokens into a domain.Principal
type AuthMW struct {
	authSvc domain.AuthService
}

// NewAuthMW creates new auth middleware wrapper
func NewAuthMW(authSvc domain.AuthService) *AuthMW {
	return &AuthMW{authSvc: authSvc}
}

// RequireSession rejects requests without an active session and stores the
// principal on the request context.
func (mw *AuthMW) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := mw.authSvc.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			response.Error(c, err)
			return
		}

		c.Request = c.Request.WithContext(domain.ContextWithPrincipal(c.Request.Context(), principal))
		c.Next()
	}
}

// Principal returns the caller stored by RequireSession.
func Principal(c *gin.Context) (*domain.Principal, bool) {
	return domain.PrincipalFromContext(c.Request.Context())
}
