package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
)

// DefaultTokenTTL is how long an admin token stays valid.
const DefaultTokenTTL = 12 * time.Hour

const currentAdminKey = "currentAdmin"

// Admin is the authenticated caller of an admin endpoint.
type Admin struct {
	Subject   string
	ExpiresAt time.Time
}

// signs a token embedding subject in the “sub” claim.
func GenerateJWT(subject, secret string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(ttl).Unix(),
	})
	return token.SignedString([]byte(secret))
}

// verifies the JWT (signature and expiry) and returns its admin.
func parseToken(tokenString, secret string) (*Admin, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, errors.New("invalid sub claim")
	}
	admin := &Admin{Subject: sub}
	if exp, ok := claims["exp"].(float64); ok {
		admin.ExpiresAt = time.Unix(int64(exp), 0)
	}
	return admin, nil
}

// checks “Authorization: Bearer <token>”, verifies it and sets “currentAdmin” in context.
func JWTMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing auth header"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid auth header"})
			return
		}

		admin, err := parseToken(parts[1], secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(currentAdminKey, admin)
		c.Next()
	}
}

// retrieves *Admin from Gin context (after JWTMiddleware has run).
func GetCurrentAdmin(c *gin.Context) (*Admin, bool) {
	a, exists := c.Get(currentAdminKey)
	if !exists {
		return nil, false
	}
	admin, ok := a.(*Admin)
	return admin, ok
}
