package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/paresh-singh/Vehicle-parking/internal/logging"
	"github.com/paresh-singh/Vehicle-parking/internal/service"
)

const (
	AuthorizationHeaderKey  = "Authorization"
	AuthorizationTypeBearer = "Bearer"
	UserIDKey               = "userID"
	UserRoleKey             = "userRole"
	UsernameKey             = "username"
	ClaimsKey               = "claims"
)

type AuthMiddleware struct {
	authService *service.AuthService
}

func NewAuthMiddleware(authService *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// Authenticate verifies the bearer access token and stores the caller's
// identity in the gin context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthorizationHeaderKey)
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing authorization header"})
			return
		}

		fields := strings.Fields(authHeader)
		if len(fields) < 2 || !strings.EqualFold(fields[0], AuthorizationTypeBearer) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			return
		}

		claims, err := m.authService.ValidateToken(c.Request.Context(), fields[1], service.TokenTypeAccess)
		if err != nil {
			if errors.Is(err, service.ErrTokenRevoked) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token has been revoked"})
				return
			}
			if errors.Is(err, service.ErrTokenInvalid) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "details": err.Error()})
				return
			}
			logging.Errorf(c.Request.Context(), "Authenticate: validating token: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Could not validate token"})
			return
		}

		userID, err := claims.UserID()
		if err != nil || claims.Role == "" || claims.Username == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid user information in token"})
			return
		}

		c.Set(UserIDKey, userID)
		c.Set(UserRoleKey, claims.Role)
		c.Set(UsernameKey, claims.Username)
		c.Set(ClaimsKey, claims)

		c.Next()
	}
}

// AuthorizeRole allows the request through only for the given roles.
// It must run after Authenticate.
func (m *AuthMiddleware) AuthorizeRole(requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := c.GetString(UserRoleKey)
		if userRole == "" {
			logging.Warnf(c.Request.Context(), "AuthorizeRole: no user role in context, Authenticate must run first")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied (missing role)"})
			return
		}

		if !slices.Contains(requiredRoles, userRole) {
			logging.Warnf(c.Request.Context(), "AuthorizeRole: role '%s' denied (requires %v)", userRole, requiredRoles)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied (role not allowed)"})
			return
		}
		c.Next()
	}
}

// CurrentUserID returns the authenticated user's ID.
func CurrentUserID(c *gin.Context) (int, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int)
	return id, ok
}

// CurrentClaims returns the verified access token claims.
func CurrentClaims(c *gin.Context) (*service.Claims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*service.Claims)
	return claims, ok
}
