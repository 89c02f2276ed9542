package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestDecodeJWT(t *testing.T) {
	secret := []byte("secret")
	token, err := SignJWT(jwt.MapClaims{"sub": "uid-1", "exp": time.Now().Add(time.Hour).Unix()}, secret)
	require.NoError(t, err)

	claims, err := DecodeJWT(token, secret)
	require.NoError(t, err)
	require.Equal(t, "uid-1", claims["sub"])

	_, err = DecodeJWT(token, []byte("other"))
	require.Error(t, err)

	expired, err := SignJWT(jwt.MapClaims{"sub": "uid-1", "exp": time.Now().Add(-time.Hour).Unix()}, secret)
	require.NoError(t, err)
	_, err = DecodeJWT(expired, secret)
	require.Error(t, err)
}

func TestDecodeJWT_RejectsNone(t *testing.T) {
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "x"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = DecodeJWT(unsigned, []byte("secret"))
	require.Error(t, err)
}
