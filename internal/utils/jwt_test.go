package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestJWTRoundTrip(t *testing.T) {
	userID := uuid.New()

	token, issued, err := GenerateJWT(secret, userID, "erin@example.com", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, issued.ID)

	claims, err := ValidateJWT(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "erin@example.com", claims.Email)
	assert.Equal(t, issued.ID, claims.ID)

	parsed, err := ParseUserID(claims)
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)

	remaining := claims.Remaining(time.Now())
	assert.Greater(t, remaining, 59*time.Minute)
	assert.LessOrEqual(t, remaining, time.Hour)
}

func TestSessionIDsAreUnique(t *testing.T) {
	userID := uuid.New()
	_, a, err := GenerateJWT(secret, userID, "", time.Hour)
	require.NoError(t, err)
	_, b, err := GenerateJWT(secret, userID, "", time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestValidateJWTRejects(t *testing.T) {
	userID := uuid.New()

	token, _, err := GenerateJWT(secret, userID, "", time.Hour)
	require.NoError(t, err)
	_, err = ValidateJWT([]byte("other-secret"), token)
	assert.Error(t, err)

	expired, _, err := GenerateJWT(secret, userID, "", -time.Minute)
	require.NoError(t, err)
	_, err = ValidateJWT(secret, expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: userID.String()}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ValidateJWT(secret, none)
	assert.Error(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, &Claims{UserID: userID.String()}).SignedString(secret)
	require.NoError(t, err)
	_, err = ValidateJWT(secret, hs512)
	assert.Error(t, err)
}

func TestParseUserIDRejectsGarbage(t *testing.T) {
	_, err := ParseUserID(&Claims{UserID: "not-a-uuid"})
	assert.Error(t, err)
}

func TestRemainingWithoutExpiry(t *testing.T) {
	assert.Zero(t, (&Claims{}).Remaining(time.Now()))
}
