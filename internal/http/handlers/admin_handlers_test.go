package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/accountsvc/domain"
	"github.com/you/accountsvc/internal/mocks"
)

func newAdminRouter(adminSvc domain.AccountAdminService, policies domain.PolicyService) *gin.Engine {
	ah := NewAdminHandlers(adminSvc)
	ph := NewPolicyHandlers(policies)
	r := gin.New()
	r.GET("/admin/users/:id", ah.GetUser)
	r.POST("/admin/users/:id/ban", ah.Ban)
	r.DELETE("/admin/users/:id/ban", ah.Unban)
	r.GET("/admin/policies", ph.List)
	r.POST("/admin/policies", ph.Add)
	r.DELETE("/admin/policies", ph.Remove)
	return r
}

func TestAdminHandlers_Ban(t *testing.T) {
	var calls []bool
	adminSvc := &mocks.MockAccountAdminService{
		SetBannedFunc: func(ctx context.Context, userID uint, banned bool) (*domain.User, error) {
			if userID != 7 {
				return nil, domain.ErrUserNotFound
			}
			calls = append(calls, banned)
			u := testUser()
			u.Banned = banned
			return u, nil
		},
	}
	r := newAdminRouter(adminSvc, mocks.NewMockPolicyService())

	w, body := perform(t, r, http.MethodPost, "/admin/users/7/ban", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, dataOf(t, body)["banned"])

	w, body = perform(t, r, http.MethodDelete, "/admin/users/7/ban", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, dataOf(t, body)["banned"])
	assert.Equal(t, []bool{true, false}, calls)

	w, _ = perform(t, r, http.MethodPost, "/admin/users/99/ban", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminHandlers_BadUserID(t *testing.T) {
	r := newAdminRouter(&mocks.MockAccountAdminService{}, mocks.NewMockPolicyService())

	for _, path := range []string{"/admin/users/abc", "/admin/users/0", "/admin/users/-1"} {
		w, body := perform(t, r, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.Equal(t, "INVALID_INPUT", errorCode(t, body), path)
	}
}

func TestAdminHandlers_GetUser(t *testing.T) {
	adminSvc := &mocks.MockAccountAdminService{
		GetUserFunc: func(ctx context.Context, userID uint) (*domain.User, error) {
			u := testUser()
			u.LastLogin = &testNow
			return u, nil
		},
	}
	w, body := perform(t, newAdminRouter(adminSvc, mocks.NewMockPolicyService()), http.MethodGet, "/admin/users/7", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := dataOf(t, body)
	assert.Equal(t, float64(7), data["id"])
	assert.Equal(t, "2024-05-01T12:00:00Z", data["last_login"])
}

func TestPolicyHandlers(t *testing.T) {
	var added, removed []string
	policies := &mocks.MockPolicyService{
		AddPolicyFunc: func(subject, resource, action string) error {
			added = []string{subject, resource, action}
			return nil
		},
		RemovePolicyFunc: func(subject, resource, action string) error {
			removed = []string{subject, resource, action}
			return errors.New("adapter offline")
		},
	}
	r := newAdminRouter(&mocks.MockAccountAdminService{}, policies)

	w, body := perform(t, r, http.MethodGet, "/admin/policies", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	rules, ok := body["data"].([]interface{})
	require.True(t, ok)
	require.Len(t, rules, 2)
	assert.Equal(t, "role_admin", rules[0].(map[string]interface{})["sub"])

	rule := map[string]string{"sub": "role_customer", "obj": "/auth/session", "act": "GET"}
	w, _ = perform(t, r, http.MethodPost, "/admin/policies", rule, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"role_customer", "/auth/session", "GET"}, added)

	w, body = perform(t, r, http.MethodDelete, "/admin/policies", rule, nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL", errorCode(t, body))
	assert.NotEmpty(t, removed)

	w, _ = perform(t, r, http.MethodPost, "/admin/policies", map[string]string{"sub": "role_customer"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
