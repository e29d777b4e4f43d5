package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/atinyakov/herbcatalog/internal/models"
)

// AdminRole is the role claim value of privileged users.
const AdminRole = "admin"

// DefaultTokenTTL is used when a codec is created with a zero lifetime.
const DefaultTokenTTL = 24 * time.Hour

// Claims is the payload of a session token.
type Claims struct {
	// Role is AdminRole for privileged users and empty otherwise.
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Privileged reports whether the claims carry the admin role.
func (c *Claims) Privileged() bool {
	return c != nil && c.Role == AdminRole
}

// TokenCodec issues and validates HS256 signed session tokens.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	log    *zap.Logger
	now    func() time.Time
}

// NewTokenCodec creates a codec signing with secret. A zero ttl means DefaultTokenTTL.
func NewTokenCodec(secret string, ttl time.Duration, log *zap.Logger) *TokenCodec {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &TokenCodec{secret: []byte(secret), ttl: ttl, log: log, now: time.Now}
}

// Issue returns a signed token for subject. The role claim is set only when privileged.
func (c *TokenCodec) Issue(subject string, privileged bool) (string, error) {
	now := c.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	if privileged {
		claims.Role = AdminRole
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Validate parses token and checks its signature and expiry.
// Every failure is reported as models.ErrInvalidToken.
func (c *TokenCodec) Validate(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	if err != nil || !parsed.Valid {
		c.log.Debug("token rejected", zap.Error(err))
		return nil, models.ErrInvalidToken
	}

	// Expiry is mandatory; jwt's own check accepts tokens without exp.
	if claims.ExpiresAt == nil || !c.now().Before(claims.ExpiresAt.Time) {
		c.log.Debug("token rejected", zap.String("reason", "expired"), zap.String("sub", claims.Subject))
		return nil, models.ErrInvalidToken
	}
	return claims, nil
}

// RequirePrivileged returns models.ErrForbidden unless claims carry the admin role.
func RequirePrivileged(claims *Claims) error {
	if !claims.Privileged() {
		return models.ErrForbidden
	}
	return nil
}
