package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/accountsvc/domain"
	"github.com/you/accountsvc/internal/http/response"
)

const forgotMessage = "If an account exists for this email, a verification code has been sent."

// PasswordHandlers handles the password reset flow
type PasswordHandlers struct {
	resetSvc domain.PasswordResetService
}

// NewPasswordHandlers creates new password reset handlers
func NewPasswordHandlers(resetSvc domain.PasswordResetService) *PasswordHandlers {
	return &PasswordHandlers{resetSvc: resetSvc}
}

// CodeRequest carries a reset code
type CodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// ResetRequest carries the reset token and the new password
type ResetRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Forgot sends a reset code. Unknown emails get the same answer as known ones,
// and delivery failures are not reported for the same reason.
func (h *PasswordHandlers) Forgot(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	_, err := h.resetSvc.RequestReset(c.Request.Context(), req.Email)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		response.Error(c, err)
		return
	}
	response.Data(c, http.StatusOK, gin.H{"message": forgotMessage})
}

// VerifyCode exchanges a reset code for a short-lived reset token
func (h *PasswordHandlers) VerifyCode(c *gin.Context) {
	var req CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	token, err := h.resetSvc.VerifyCode(c.Request.Context(), req.Code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Data(c, http.StatusOK, gin.H{
		"message":     "Code verified.",
		"reset_token": token,
	})
}

// Reset sets a new password using a reset token
func (h *PasswordHandlers) Reset(c *gin.Context) {
	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	if err := h.resetSvc.Reset(c.Request.Context(), req.Token, req.Password); err != nil {
		response.Error(c, err)
		return
	}
	response.Data(c, http.StatusOK, gin.H{"message": "Password reset successfully."})
}
