package stub

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost balances hashing strength against dev-loop latency.
const bcryptCost = 10

// HashPassword generates a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// ComparePassword compares a bcrypt hashed password with its plaintext version.
func ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// JWTConfig holds token signing parameters.
type JWTConfig struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

// Claims are the claims the stub puts in its tokens. The client mines the
// same names for identity hints.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// GenerateToken signs a token for the given user.
func GenerateToken(cfg *JWTConfig, userID int64, username string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies a token's signature and returns its claims.
func ValidateToken(cfg *JWTConfig, tokenString string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return cfg.Secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return &claims, nil
}

// csrfRegistry issues and consumes single-use anti-forgery tokens. A token
// is valid for exactly one mutating request.
type csrfRegistry struct {
	mu     sync.Mutex
	tokens map[string]time.Time
	ttl    time.Duration
}

func newCSRFRegistry(ttl time.Duration) *csrfRegistry {
	return &csrfRegistry{tokens: map[string]time.Time{}, ttl: ttl}
}

// Issue mints a fresh token.
func (r *csrfRegistry) Issue() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand should not fail; fall back to a timestamp token
		return fmt.Sprintf("csrf-%d", time.Now().UnixNano())
	}
	token := hex.EncodeToString(buf)

	r.mu.Lock()
	r.tokens[token] = time.Now().Add(r.ttl)
	r.mu.Unlock()
	return token
}

// Consume validates and burns a token. A second use of the same token fails.
func (r *csrfRegistry) Consume(token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	expiry, ok := r.tokens[token]
	if !ok {
		return false
	}
	delete(r.tokens, token)
	return time.Now().Before(expiry)
}
