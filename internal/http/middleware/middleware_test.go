package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/accountsvc/domain"
	"github.com/you/accountsvc/internal/mocks"
	"github.com/you/accountsvc/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func principalFor(role domain.Role) *domain.Principal {
	return &domain.Principal{
		User:    &domain.User{ID: 7, Email: "jane@x.com", Role: role},
		Session: &domain.Session{ID: 3, UserID: 7, Active: true},
	}
}

func authServiceFor(p *domain.Principal) *mocks.MockAuthService {
	return &mocks.MockAuthService{
		AuthenticateFunc: func(ctx context.Context, header string) (*domain.Principal, error) {
			switch header {
			case "":
				return nil, domain.ErrMissingHeader
			case "Bearer good":
				return p, nil
			case "Bearer stale":
				return nil, domain.ErrAccessTokenExpired
			default:
				return nil, domain.ErrInvalidAccessToken
			}
		},
	}
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Error.Code
}

func TestAuthMW_RequireSession(t *testing.T) {
	p := principalFor(domain.RoleCustomer)
	r := gin.New()
	r.GET("/auth/me", NewAuthMW(authServiceFor(p)).RequireSession(), func(c *gin.Context) {
		got, ok := Principal(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": got.User.ID})
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCode   string
	}{
		{name: "active session", header: "Bearer good", wantStatus: http.StatusOK},
		{name: "no header", wantStatus: http.StatusUnauthorized, wantCode: "MISSING_HEADER"},
		{name: "unknown token", header: "Bearer nope", wantStatus: http.StatusUnauthorized, wantCode: "INVALID_TOKEN"},
		{name: "expired token", header: "Bearer stale", wantStatus: http.StatusGone, wantCode: "TOKEN_EXPIRED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, errorCode(t, w))
			}
		})
	}
}

func newEnforcedRouter(p *domain.Principal, policies domain.PolicyService, audit domain.AuditLogger) *gin.Engine {
	r := gin.New()
	authMW := NewAuthMW(authServiceFor(p))
	cb := NewCasbinMW(policies, audit)
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }

	g := r.Group("/", authMW.RequireSession(), cb.Enforce())
	g.GET("/auth/me", ok)
	g.GET("/admin/policies", ok)
	g.POST("/admin/users/:id/ban", ok)
	return r
}

func serve(r http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCasbinMW_Enforce(t *testing.T) {
	policies := services.NewPolicyServiceWithEnforcer(mocks.NewMockCasbinEnforcer())

	tests := []struct {
		name       string
		role       domain.Role
		method     string
		path       string
		wantStatus int
	}{
		{name: "admin lists policies", role: domain.RoleAdmin, method: http.MethodGet, path: "/admin/policies", wantStatus: http.StatusOK},
		{name: "admin bans", role: domain.RoleAdmin, method: http.MethodPost, path: "/admin/users/9/ban", wantStatus: http.StatusOK},
		{name: "customer reads self", role: domain.RoleCustomer, method: http.MethodGet, path: "/auth/me", wantStatus: http.StatusOK},
		{name: "customer denied admin", role: domain.RoleCustomer, method: http.MethodGet, path: "/admin/policies", wantStatus: http.StatusForbidden},
		{name: "customer cannot ban", role: domain.RoleCustomer, method: http.MethodPost, path: "/admin/users/9/ban", wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			audit := &mocks.MockAuditLogger{}
			w := serve(newEnforcedRouter(principalFor(tt.role), policies, audit), tt.method, tt.path)
			assert.Equal(t, tt.wantStatus, w.Code)

			if tt.wantStatus == http.StatusForbidden {
				assert.Equal(t, "ACCESS_DENIED", errorCode(t, w))
				require.Len(t, audit.Events(), 1)
				event := audit.Events()[0]
				assert.Equal(t, domain.AccessDeniedEvent, event.EventType)
				assert.Equal(t, uint(7), event.UserID)
				assert.False(t, event.Success)
				assert.Equal(t, tt.path, event.Metadata["path"])
			} else {
				assert.Empty(t, audit.Events())
			}
		})
	}
}

func TestCasbinMW_EnforcerFailure(t *testing.T) {
	policies := &mocks.MockPolicyService{
		CheckPermissionFunc: func(subject, resource, action string) (bool, error) {
			return false, errors.New("adapter offline")
		},
	}
	w := serve(newEnforcedRouter(principalFor(domain.RoleAdmin), policies, nil), http.MethodGet, "/admin/policies")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "adapter offline")
}

func TestCasbinMW_WithoutPrincipal(t *testing.T) {
	r := gin.New()
	r.GET("/admin/policies", NewCasbinMW(mocks.NewMockPolicyService(), nil).Enforce(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/policies", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestContext(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	var client *domain.ClientContext
	r := gin.New()
	r.Use(RequestContext(log))
	r.GET("/auth/session", func(c *gin.Context) {
		client = domain.ClientFromContext(c.Request.Context())
		zerolog.Ctx(c.Request.Context()).Info().Msg("inside")
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.Header.Set("User-Agent", "curl/8.0")
	req.Header.Set(RequestIDHeader, "req-123")
	req.RemoteAddr = "203.0.113.9:5555"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
	require.NotNil(t, client)
	assert.Equal(t, "203.0.113.9", client.IPAddress)
	assert.Equal(t, "curl/8.0", client.UserAgent)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	for _, line := range lines {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(line, &entry))
		assert.Equal(t, "req-123", entry["request_id"])
	}

	var access map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[1], &access))
	assert.Equal(t, "/auth/session", access["route"])
	assert.Equal(t, float64(http.StatusNoContent), access["status"])
}

func TestRequestContext_GeneratesID(t *testing.T) {
	r := gin.New()
	r.Use(RequestContext(zerolog.Nop()))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}
