// internal/auth/wallet.go
package auth

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
)

const (
	// ed25519Flag is the signature scheme byte Sui prefixes to serialized signatures.
	ed25519Flag byte = 0x00

	// SessionPrefix starts every login message a wallet signs.
	SessionPrefix = "ttt-session:"

	// SessionWindow bounds how far a login message timestamp may drift from now.
	SessionWindow = 5 * time.Minute
)

var (
	ErrBadSignature   = errors.New("invalid wallet signature")
	ErrUnsupportedKey = errors.New("unsupported signature scheme")
	ErrBadMessage     = errors.New("invalid session message")
	ErrStaleMessage   = errors.New("session message expired")
)

// personalMessageIntent is the intent prefix (scope PersonalMessage, version 0, app Sui).
var personalMessageIntent = []byte{3, 0, 0}

// VerifyPersonalMessage checks a wallet's signPersonalMessage output and returns the signer's
// address. signature is base64(flag || sig[64] || pubkey[32]); only ed25519 is accepted.
func VerifyPersonalMessage(message []byte, signature string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	if len(raw) != 1+ed25519.SignatureSize+ed25519.PublicKeySize {
		return "", fmt.Errorf("%w: length %d", ErrBadSignature, len(raw))
	}
	if raw[0] != ed25519Flag {
		return "", fmt.Errorf("%w: flag 0x%02x", ErrUnsupportedKey, raw[0])
	}
	sig := raw[1 : 1+ed25519.SignatureSize]
	pub := ed25519.PublicKey(raw[1+ed25519.SignatureSize:])

	digest := PersonalMessageDigest(message)
	if !ed25519.Verify(pub, digest[:], sig) {
		return "", ErrBadSignature
	}
	return AddressFromPublicKey(pub), nil
}

// PersonalMessageDigest is blake2b-256 over intent || uleb128(len) || message.
func PersonalMessageDigest(message []byte) [32]byte {
	buf := make([]byte, 0, len(personalMessageIntent)+binary.MaxVarintLen64+len(message))
	buf = append(buf, personalMessageIntent...)
	// uvarint is the same byte layout as ULEB128
	buf = binary.AppendUvarint(buf, uint64(len(message)))
	buf = append(buf, message...)
	return blake2b.Sum256(buf)
}

// AddressFromPublicKey derives the Sui address of an ed25519 key.
func AddressFromPublicKey(pub ed25519.PublicKey) string {
	buf := make([]byte, 0, 1+len(pub))
	buf = append(buf, ed25519Flag)
	buf = append(buf, pub...)
	sum := blake2b.Sum256(buf)
	return "0x" + hex.EncodeToString(sum[:])
}

// NormalizeAddress lowercases and trims an address for comparison and storage.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// SessionMessage builds the login message for t.
func SessionMessage(t time.Time) string {
	return SessionPrefix + strconv.FormatInt(t.Unix(), 10)
}

// CheckSessionMessage accepts "ttt-session:<unix seconds>" within SessionWindow of now.
func CheckSessionMessage(message string, now time.Time) error {
	rest, ok := strings.CutPrefix(message, SessionPrefix)
	if !ok {
		return ErrBadMessage
	}
	ts, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadMessage, err)
	}
	skew := now.Sub(time.Unix(ts, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > SessionWindow {
		return ErrStaleMessage
	}
	return nil
}
