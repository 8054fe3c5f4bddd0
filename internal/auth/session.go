// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the cookie that carries the session JWT.
const CookieName = "auth_token"

var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// tokenTTL is how long an issued session stays valid (0 => no exp claim).
	tokenTTL time.Duration
)

// ErrNoKeys is returned when tokens are issued or checked before Init.
var ErrNoKeys = errors.New("session keys not initialised")

// ParseTokenTTL reads a TOKEN_EXPIRE_TIME value. "", "0" and "never" disable expiry.
func ParseTokenTTL(value string) (time.Duration, error) {
	switch strings.TrimSpace(value) {
	case "", "0", "never":
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse token expire time %q: %w", value, err)
	}
	return d, nil
}

// Init generates a fresh ed25519 key pair and reads TOKEN_EXPIRE_TIME. Sessions do not
// survive a restart.
func Init() error {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return fmt.Errorf("generate ed25519 key pair: %w", err)
	}
	ttl, err := ParseTokenTTL(os.Getenv("TOKEN_EXPIRE_TIME"))
	if err != nil {
		return err
	}
	privateKey, publicKey, tokenTTL = priv, pub, ttl
	return nil
}

// InitFromPath reads raw ed25519 keys from disk so sessions stay valid across restarts.
func InitFromPath(privatePath, publicPath string) error {
	privData, err := os.ReadFile(privatePath)
	if err != nil {
		return fmt.Errorf("read private key file: %w", err)
	}
	pubData, err := os.ReadFile(publicPath)
	if err != nil {
		return fmt.Errorf("read public key file: %w", err)
	}
	if len(privData) != ed25519.PrivateKeySize || len(pubData) != ed25519.PublicKeySize {
		return fmt.Errorf("unexpected ed25519 key sizes %d/%d", len(privData), len(pubData))
	}
	ttl, err := ParseTokenTTL(os.Getenv("TOKEN_EXPIRE_TIME"))
	if err != nil {
		return err
	}
	privateKey, publicKey, tokenTTL = privData, pubData, ttl
	return nil
}

// CreateJWT signs a session token whose subject is the wallet address.
func CreateJWT(address string) (string, error) {
	if privateKey == nil {
		return "", ErrNoKeys
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": NormalizeAddress(address),
		"iat": now.Unix(),
	}
	if tokenTTL > 0 {
		claims["exp"] = now.Add(tokenTTL).Unix()
	}
	return jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(privateKey)
}

// AuthenticateJWT verifies a session token and returns the wallet address it was issued to.
func AuthenticateJWT(tokenString string) (string, error) {
	if publicKey == nil {
		return "", ErrNoKeys
	}
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid jwt claims")
	}
	address, ok := claims["sub"].(string)
	if !ok || address == "" {
		return "", fmt.Errorf("missing sub in jwt")
	}
	return address, nil
}

// TTL reports the configured session lifetime.
func TTL() time.Duration {
	return tokenTTL
}
