package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
)

const issuerKey = "currentIssuer"

// GenerateJWT signs a token embedding the operator identity in the "sub"
// claim. Token minting itself belongs to the external auth service; this
// exists for tooling and tests.
func GenerateJWT(issuer, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": issuer,
		"exp": time.Now().Add(72 * time.Hour).Unix(),
	})
	return token.SignedString([]byte(secret))
}

// parseToken verifies the JWT and returns the operator identity.
func parseToken(tokenString, secret string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("invalid sub claim")
	}
	return sub, nil
}

// JWTMiddleware checks "Authorization: Bearer <token>", verifies it, and
// sets the operator identity in the context. That identity is recorded as
// the issuer on every command created through the request.
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

		issuer, err := parseToken(parts[1], secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(issuerKey, issuer)
		c.Next()
	}
}

// GetCurrentIssuer returns the operator identity the middleware stored.
func GetCurrentIssuer(c *gin.Context) (string, bool) {
	v, ok := c.Get(issuerKey)
	if !ok {
		return "", false
	}
	issuer, ok := v.(string)
	return issuer, ok && issuer != ""
}
