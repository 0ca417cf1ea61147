package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/you/accountsvc/domain"
	"github.com/you/accountsvc/internal/http/response"
)

// CasbinMW authorizes the principal's role against the policy store
type CasbinMW struct {
	policies domain.PolicyService
	audit    domain.AuditLogger
}

// NewCasbinMW creates new casbin middleware wrapper. audit may be nil.
func NewCasbinMW(policies domain.PolicyService, audit domain.AuditLogger) *CasbinMW {
	return &CasbinMW{policies: policies, audit: audit}
}

// Enforce returns the casbin authorization middleware. It must run after
// AuthMW.RequireSession.
func (mw *CasbinMW) Enforce() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		principal, ok := Principal(c)
		if !ok {
			response.Error(c, domain.ErrMissingHeader)
			return
		}

		subject := principal.User.Role.PolicySubject()
		path := c.Request.URL.Path
		method := c.Request.Method

		allowed, err := mw.policies.CheckPermission(subject, path, method)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("subject", subject).Msg("authorization check failed")
			response.Error(c, domain.ErrAuthorizationFailure)
			return
		}
		if !allowed {
			mw.recordDenied(c, principal, subject)
			response.Error(c, domain.ErrInsufficientRole)
			return
		}

		c.Next()
	}
}

func (mw *CasbinMW) recordDenied(c *gin.Context, principal *domain.Principal, subject string) {
	ctx := c.Request.Context()
	zerolog.Ctx(ctx).Info().
		Uint("user_id", principal.User.ID).
		Str("subject", subject).
		Str("path", c.Request.URL.Path).
		Str("method", c.Request.Method).
		Msg("access denied")

	if mw.audit == nil {
		return
	}
	event := domain.NewAuditEvent(domain.AccessDeniedEvent, principal.User.ID, time.Now()).
		WithSession(principal.Session.ID).
		WithClientContext(domain.ClientFromContext(ctx)).
		WithMetadata("path", c.Request.URL.Path).
		WithMetadata("method", c.Request.Method).
		WithError(domain.ErrInsufficientRole)
	if err := mw.audit.LogEvent(ctx, event); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("audit event dropped")
	}
}
