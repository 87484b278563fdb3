package security

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"github.com/georgemunganga/shopcart-backend/internal/apperr"
)

const (
	tokenTypeAccess = "access"
	tokenTypeReset  = "reset"

	// AccessTokenTTL is how long issued bearer tokens stay valid.
	AccessTokenTTL = 8 * 24 * time.Hour
	resetTokenTTL  = time.Hour
)

// Manager issues and verifies JWT tokens and hashes passwords.
type Manager struct {
	secret []byte
}

func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret)}
}

type claims struct {
	TokenType string `json:"type"`
	jwt.StandardClaims
}

// CreateAccessToken signs a bearer token for the given user id.
func (m *Manager) CreateAccessToken(userID string) (string, error) {
	return m.sign(userID, tokenTypeAccess, AccessTokenTTL)
}

// CreateResetToken signs a short-lived password reset token for an email.
func (m *Manager) CreateResetToken(email string) (string, error) {
	return m.sign(email, tokenTypeReset, resetTokenTTL)
}

func (m *Manager) sign(subject, tokenType string, ttl time.Duration) (string, error) {
	c := claims{
		TokenType: tokenType,
		StandardClaims: jwt.StandardClaims{
			Subject:   subject,
			ExpiresAt: time.Now().Add(ttl).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(m.secret)
}

// VerifyAccessToken returns the user id carried by a bearer token.
func (m *Manager) VerifyAccessToken(tokenString string) (string, error) {
	return m.verify(tokenString, tokenTypeAccess)
}

// VerifyResetToken returns the email carried by a reset token.
func (m *Manager) VerifyResetToken(tokenString string) (string, error) {
	return m.verify(tokenString, tokenTypeReset)
}

func (m *Manager) verify(tokenString, wantType string) (string, error) {
	c := &claims{}
	token, err := jwt.ParseWithClaims(tokenString, c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.Unauthorized("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return "", apperr.Unauthorized("invalid token")
	}
	if c.TokenType != wantType || c.Subject == "" {
		return "", apperr.Unauthorized("invalid token")
	}
	return c.Subject, nil
}

// HashPassword hashes a plain password with bcrypt.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword reports whether the plain password matches the hash.
func VerifyPassword(plain, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

// ValidatePasswordStrength enforces the minimum password policy: at least
// eight characters with an upper, a lower, a digit and a special character.
func ValidatePasswordStrength(password string) bool {
	if len(password) < 8 {
		return false
	}
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, c := range password {
		switch {
		case c >= 'A' && c <= 'Z':
			hasUpper = true
		case c >= 'a' && c <= 'z':
			hasLower = true
		case c >= '0' && c <= '9':
			hasDigit = true
		default:
			hasSpecial = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSpecial
}
