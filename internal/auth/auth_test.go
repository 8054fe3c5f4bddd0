package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signPersonal(t *testing.T, priv ed25519.PrivateKey, msg string) string {
	t.Helper()
	digest := PersonalMessageDigest([]byte(msg))
	sig := ed25519.Sign(priv, digest[:])
	raw := append([]byte{ed25519Flag}, sig...)
	raw = append(raw, priv.Public().(ed25519.PublicKey)...)
	return base64.StdEncoding.EncodeToString(raw)
}

func TestVerifyPersonalMessage(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	msg := SessionMessage(time.Now())
	sig := signPersonal(t, priv, msg)

	addr, err := VerifyPersonalMessage([]byte(msg), sig)
	require.NoError(t, err)
	assert.Equal(t, AddressFromPublicKey(pub), addr)
	assert.True(t, strings.HasPrefix(addr, "0x"))
	assert.Len(t, addr, 66)

	_, err = VerifyPersonalMessage([]byte(msg+"x"), sig)
	assert.ErrorIs(t, err, ErrBadSignature)

	_, err = VerifyPersonalMessage([]byte(msg), "not base64!")
	assert.ErrorIs(t, err, ErrBadSignature)

	raw, _ := base64.StdEncoding.DecodeString(sig)
	raw[0] = 0x01
	_, err = VerifyPersonalMessage([]byte(msg), base64.StdEncoding.EncodeToString(raw))
	assert.ErrorIs(t, err, ErrUnsupportedKey)
}

func TestPersonalMessageDigestLengthPrefix(t *testing.T) {
	short := PersonalMessageDigest([]byte("a"))
	long := PersonalMessageDigest([]byte(strings.Repeat("a", 200)))
	assert.NotEqual(t, short, long)
	// 200 needs two length bytes; make sure a one-byte prefix of the same payload differs
	assert.NotEqual(t, long, PersonalMessageDigest([]byte(strings.Repeat("a", 199))))
}

func TestCheckSessionMessage(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	assert.NoError(t, CheckSessionMessage(SessionMessage(now), now))
	assert.NoError(t, CheckSessionMessage(SessionMessage(now.Add(-4*time.Minute)), now))
	assert.ErrorIs(t, CheckSessionMessage(SessionMessage(now.Add(-6*time.Minute)), now), ErrStaleMessage)
	assert.ErrorIs(t, CheckSessionMessage(SessionMessage(now.Add(6*time.Minute)), now), ErrStaleMessage)
	assert.ErrorIs(t, CheckSessionMessage("hello", now), ErrBadMessage)
	assert.ErrorIs(t, CheckSessionMessage("ttt-session:abc", now), ErrBadMessage)
}

func TestJWTRoundTrip(t *testing.T) {
	t.Setenv("TOKEN_EXPIRE_TIME", "1h")
	require.NoError(t, Init())
	assert.Equal(t, time.Hour, TTL())

	token, err := CreateJWT("0xABCDEF")
	require.NoError(t, err)
	addr, err := AuthenticateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "0xabcdef", addr)

	_, err = AuthenticateJWT(token + "x")
	assert.Error(t, err)

	// a token signed by another key pair is rejected
	require.NoError(t, Init())
	_, err = AuthenticateJWT(token)
	assert.Error(t, err)
}

func TestParseTokenTTL(t *testing.T) {
	for _, v := range []string{"", "0", "never"} {
		d, err := ParseTokenTTL(v)
		assert.NoError(t, err)
		assert.Zero(t, d)
	}
	d, err := ParseTokenTTL("72h")
	require.NoError(t, err)
	assert.Equal(t, 72*time.Hour, d)
	_, err = ParseTokenTTL("soon")
	assert.Error(t, err)
}
