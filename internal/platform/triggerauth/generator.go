package triggerauth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Generator mints short-lived trigger tokens so schedulers need not hold the raw secret.
type Generator struct {
	secret     []byte
	expiration time.Duration
	now        func() time.Time
}

// NewGenerator creates a Generator signing with secret.
func NewGenerator(secret string, expiration time.Duration) *Generator {
	return &Generator{
		secret:     []byte(secret),
		expiration: expiration,
		now:        time.Now,
	}
}

// GenerateToken creates a signed HS256 token. issuer identifies the caller (e.g. the scheduler name).
func (g *Generator) GenerateToken(issuer string) (string, error) {
	if len(g.secret) == 0 {
		return "", fmt.Errorf("trigger secret is empty")
	}
	now := g.now()
	claims := jwt.RegisteredClaims{
		Subject:   TokenSubject,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(g.expiration)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
