package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/paresh-singh/Vehicle-parking/internal/api/middleware"
	"github.com/paresh-singh/Vehicle-parking/internal/domain"
	"github.com/paresh-singh/Vehicle-parking/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(as *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var dto domain.RegisterUserDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authService.Register(c.Request.Context(), dto)
	if err != nil {
		respondError(c, err, "Could not register user")
		return
	}
	c.JSON(http.StatusCreated, user)
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var dto domain.LoginUserDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	authResponse, err := h.authService.Login(c.Request.Context(), dto)
	if err != nil {
		respondError(c, err, "Login failed")
		return
	}
	c.JSON(http.StatusOK, authResponse)
}

// POST /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var dto domain.RefreshTokenDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	authResponse, err := h.authService.Refresh(c.Request.Context(), dto.RefreshToken)
	if err != nil {
		respondError(c, err, "Could not refresh token")
		return
	}
	c.JSON(http.StatusOK, authResponse)
}

// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	// The refresh token is optional.
	var dto struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = c.ShouldBindJSON(&dto)

	if err := h.authService.Logout(c.Request.Context(), claims, dto.RefreshToken); err != nil {
		respondError(c, err, "Could not log out")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// GET /api/admin/users
func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.authService.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err, "Could not list users")
		return
	}
	c.JSON(http.StatusOK, users)
}
