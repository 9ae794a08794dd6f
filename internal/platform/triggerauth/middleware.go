// Package triggerauth authenticates job trigger requests against the shared trigger secret.
package triggerauth

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// TokenSubject is the subject claim of minted trigger tokens.
const TokenSubject = "sync-trigger"

// Required returns a Gin middleware that accepts "Authorization: Bearer <credential>" where the
// credential is either the secret itself or an unexpired HS256 token signed with it.
// Rejected requests are aborted before any handler runs.
func Required(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// サーバー設定不備（secret 未設定）
		if secret == "" {
			slog.Error("trigger secret is not configured")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "server misconfigured"})
			return
		}

		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		credential := strings.TrimPrefix(auth, "Bearer ")

		if !Verify(secret, credential) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// Verify reports whether credential is the secret or a valid trigger token signed with it.
func Verify(secret, credential string) bool {
	if credential == "" {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(credential), []byte(secret)) == 1 {
		return true
	}
	token, err := jwt.Parse(credential, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(TokenSubject),
		jwt.WithExpirationRequired(),
	)
	return err == nil && token.Valid
}
