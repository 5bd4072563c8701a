package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/secdesk/backend/internal/apperr"
)

const (
	userIDKey    = "user_id"
	userEmailKey = "user_email"
	userRoleKey  = "user_role"
)

// Claims is the JWT payload. Subject holds the account id in decimal.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Authorization header required",
			})
			return
		}

		// Check if the header starts with "Bearer "
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Invalid authorization header format",
			})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Invalid token",
			})
			return
		}

		userID, err := strconv.ParseUint(claims.Subject, 10, 64)
		if err != nil || userID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Invalid token subject",
			})
			return
		}

		c.Set(userIDKey, uint(userID))
		c.Set(userEmailKey, claims.Email)
		c.Set(userRoleKey, claims.Role)

		c.Next()
	}
}

// CurrentUserID returns the authenticated account id set by AuthMiddleware.
func CurrentUserID(c *gin.Context) (uint, error) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, apperr.ErrUnauthenticated
	}
	id, ok := v.(uint)
	if !ok || id == 0 {
		return 0, apperr.ErrUnauthenticated
	}
	return id, nil
}
