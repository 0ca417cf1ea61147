package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/you/accountsvc/domain"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

func testUser() *domain.User {
	return &domain.User{
		ID:        7,
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@x.com",
		Role:      domain.RoleCustomer,
		CreatedAt: testNow,
	}
}

func testSession() *domain.Session {
	return &domain.Session{
		ID:     3,
		UserID: 7,
		AccessToken: domain.Token{
			Value: "access-1", Type: domain.TokenAccess,
			CreatedAt: testNow, ExpiresAt: testNow.Add(time.Hour),
		},
		RefreshToken: domain.Token{
			Value: "refresh-1", Type: domain.TokenRefresh,
			CreatedAt: testNow, ExpiresAt: testNow.Add(720 * time.Hour),
		},
		Active: true,
	}
}

// withPrincipal stands in for the session middleware.
func withPrincipal(p *domain.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(domain.ContextWithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}

func perform(t *testing.T, r http.Handler, method, path string, body interface{}, header http.Header) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), w.Body.String())
	}
	return w, decoded
}

func dataOf(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "missing data envelope: %v", body)
	return data
}

func errorCode(t *testing.T, body map[string]interface{}) string {
	t.Helper()
	e, ok := body["error"].(map[string]interface{})
	require.True(t, ok, "missing error envelope: %v", body)
	code, _ := e["code"].(string)
	return code
}
