package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/you/accountsvc/domain"
	"github.com/you/accountsvc/internal/http/response"
)

const emailWarning = "We could not send the email. Please try again later."

func userView(u *domain.User) gin.H {
	view := gin.H{
		"id":         u.ID,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"email":      u.Email,
		"role":       u.Role,
		"banned":     u.Banned,
		"created_at": u.CreatedAt,
	}
	if u.LastLogin != nil {
		view["last_login"] = u.LastLogin.UTC().Format(time.RFC3339)
	}
	return view
}

func tokenPairView(s *domain.Session) gin.H {
	return gin.H{
		"access_token":  s.AccessToken.Value,
		"refresh_token": s.RefreshToken.Value,
		"token_type":    "Bearer",
		"expires_at":    s.AccessToken.ExpiresAt.UTC().Format(time.RFC3339),
		"expires_in":    int64(s.AccessToken.ExpiresAt.Sub(s.AccessToken.CreatedAt).Seconds()),
	}
}

func deliveryWarning(d domain.Delivery) string {
	if d.Failed() {
		return emailWarning
	}
	return ""
}

// principal returns the caller resolved by the session middleware.
func principal(c *gin.Context) (*domain.Principal, bool) {
	p, ok := domain.PrincipalFromContext(c.Request.Context())
	if !ok {
		response.Error(c, domain.ErrMissingHeader)
	}
	return p, ok
}
