package middleware

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"bloom-planner/api/logger"
	"bloom-planner/api/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const UserKey = "user"

// AuthMiddleware verifies JWT tokens in requests
func AuthMiddleware(c *gin.Context) {
	tokenString := extractToken(c.Request)
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		c.Abort()
		return
	}

	claims, err := parseClaims(tokenString)
	if err != nil {
		logger.Get().Warn("rejected token", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		c.Abort()
		return
	}

	c.Set(UserKey, claims)
	c.Next()
}

// OptionalAuthMiddleware parses the token when one is present but lets
// anonymous requests through. Operations that treat authentication as
// optional context (chat submission) mount behind this instead.
func OptionalAuthMiddleware(c *gin.Context) {
	tokenString := extractToken(c.Request)
	if tokenString == "" {
		c.Next()
		return
	}

	claims, err := parseClaims(tokenString)
	if err != nil {
		// A presented-but-invalid token is still rejected.
		logger.Get().Warn("rejected token", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		c.Abort()
		return
	}

	c.Set(UserKey, claims)
	c.Next()
}

func parseClaims(tokenString string) (*models.SupabaseClaims, error) {
	claims := &models.SupabaseClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		secret := os.Getenv("SUPABASE_JWT_SECRET")
		if secret == "" {
			return nil, fmt.Errorf("SUPABASE_JWT_SECRET environment variable not set")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Issuer != os.Getenv("SUPABASE_URL")+"/auth/v1" {
		return nil, fmt.Errorf("invalid token issuer")
	}
	return claims, nil
}

// ClaimsFrom pulls the authenticated claims out of the gin context, if any.
func ClaimsFrom(c *gin.Context) (*models.SupabaseClaims, bool) {
	value, exists := c.Get(UserKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*models.SupabaseClaims)
	return claims, ok
}

func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}

	return parts[1]
}
