package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/you/accountsvc/domain"
	"github.com/you/accountsvc/internal/http/response"
)

// AdminHandlers exposes account administration
type AdminHandlers struct {
	adminSvc domain.AccountAdminService
}

// NewAdminHandlers creates new admin handlers
func NewAdminHandlers(adminSvc domain.AccountAdminService) *AdminHandlers {
	return &AdminHandlers{adminSvc: adminSvc}
}

func (h *AdminHandlers) GetUser(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	user, err := h.adminSvc.GetUser(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Data(c, http.StatusOK, userView(user))
}

func (h *AdminHandlers) Ban(c *gin.Context) {
	h.setBanned(c, true)
}

func (h *AdminHandlers) Unban(c *gin.Context) {
	h.setBanned(c, false)
}

func (h *AdminHandlers) setBanned(c *gin.Context, banned bool) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	user, err := h.adminSvc.SetBanned(c.Request.Context(), id, banned)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Data(c, http.StatusOK, userView(user))
}

func userIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id == 0 {
		response.Error(c, domain.ErrInvalidInput)
		return 0, false
	}
	return uint(id), true
}
