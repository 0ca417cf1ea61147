package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/accountsvc/domain"
	"github.com/you/accountsvc/internal/http/response"
)

// AuthHandlers handles registration, login and session HTTP requests
type AuthHandlers struct {
	authSvc domain.AuthService
	regSvc  domain.RegistrationService
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authSvc domain.AuthService, regSvc domain.RegistrationService) *AuthHandlers {
	return &AuthHandlers{
		authSvc: authSvc,
		regSvc:  regSvc,
	}
}

// RegisterRequest represents registration request
type RegisterRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	Role      string `json:"role" binding:"required"`
}

// TokenRequest carries a verification token
type TokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// EmailRequest carries a bare email address
type EmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// LoginRequest represents login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest represents token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Register handles user registration
func (h *AuthHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.regSvc.Register(c.Request.Context(), domain.RegisterRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      role,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.DataWithWarning(c, http.StatusCreated, gin.H{
		"message": result.Message(),
		"status":  result.Outcome,
		"email":   result.Pending.Email,
	}, deliveryWarning(result.Delivery))
}

// VerifyStatus reports whether a verification token is pending, expired or consumed
func (h *AuthHandlers) VerifyStatus(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	status, err := h.regSvc.CheckStatus(c.Request.Context(), req.Token)
	if err != nil {
		response.Error(c, err)
		return
	}

	data := gin.H{
		"status":  status.State,
		"message": status.State.Message(),
	}
	if status.State != domain.VerificationVerified {
		data["email"] = status.Email
		data["name"] = status.Name
	}
	response.Data(c, http.StatusOK, data)
}

// Verify promotes a pending registration to an account
func (h *AuthHandlers) Verify(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	user, err := h.regSvc.Complete(c.Request.Context(), req.Email)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Data(c, http.StatusOK, gin.H{
		"message": "Account verified successfully.",
		"user":    userView(user),
	})
}

// Login handles user login
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	data := tokenPairView(result.Session)
	data["user"] = userView(result.User)
	response.Data(c, http.StatusOK, data)
}

// Session confirms that the bearer token belongs to an active session
func (h *AuthHandlers) Session(c *gin.Context) {
	if _, err := h.authSvc.ValidateSession(c.Request.Context(), c.GetHeader("Authorization")); err != nil {
		response.Error(c, err)
		return
	}
	response.Data(c, http.StatusOK, gin.H{"message": "Session is valid"})
}

// Refresh handles token refresh
func (h *AuthHandlers) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	session, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Data(c, http.StatusOK, tokenPairView(session))
}

// Me returns current user information
func (h *AuthHandlers) Me(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	user, err := h.authSvc.CurrentUser(c.Request.Context(), p.User.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Data(c, http.StatusOK, userView(user))
}

// Logout handles user logout
func (h *AuthHandlers) Logout(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	if err := h.authSvc.Logout(c.Request.Context(), p.Session); err != nil {
		response.Error(c, err)
		return
	}
	response.Data(c, http.StatusOK, gin.H{"message": "Logged out successfully"})
}
