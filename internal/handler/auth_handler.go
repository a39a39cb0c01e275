package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/openedu/registrar-api/pkg/response"
)

// AuthHandler redirects browser sessions to the external identity provider.
// Token issuance and session state live there; this service only validates
// the resulting JWTs.
type AuthHandler struct {
	loginURL  string
	logoutURL string
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(loginURL, logoutURL string) *AuthHandler {
	return &AuthHandler{loginURL: loginURL, logoutURL: logoutURL}
}

// Login godoc
// @Summary Redirect to the identity provider login
// @Tags Auth
// @Success 302
// @Router /login [get]
func (h *AuthHandler) Login(c *gin.Context) {
	response.Redirect(c, h.loginURL)
}

// Logout godoc
// @Summary Redirect to the identity provider logout
// @Tags Auth
// @Success 302
// @Router /logout [get]
func (h *AuthHandler) Logout(c *gin.Context) {
	response.Redirect(c, h.logoutURL)
}
