package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourismhub/api/models"
)

func TestJWTIssuer_RoundTrip(t *testing.T) {
	issuer := NewJWTIssuer([]byte("test-secret"), time.Hour)
	user := &models.User{ID: "u1", Email: "ana@example.com", Role: models.RoleTourist}

	token, err := issuer.GenerateJWT(user)
	require.NoError(t, err)

	claims, err := issuer.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, models.RoleTourist, claims.Role)
	assert.Equal(t, "u1", claims.Subject)
}

func TestJWTIssuer_RejectsWrongSecret(t *testing.T) {
	token, err := NewJWTIssuer([]byte("one"), time.Hour).GenerateJWT(&models.User{ID: "u1"})
	require.NoError(t, err)

	_, err = NewJWTIssuer([]byte("two"), time.Hour).ValidateJWT(token)
	assert.Error(t, err)
}

func TestJWTIssuer_RejectsExpired(t *testing.T) {
	issuer := NewJWTIssuer([]byte("s"), time.Minute)
	issued := time.Now().Add(-time.Hour)
	issuer.now = func() time.Time { return issued }

	token, err := issuer.GenerateJWT(&models.User{ID: "u1"})
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.ValidateJWT(token)
	assert.Error(t, err)
}

func TestJWTIssuer_RejectsNoneAlgorithm(t *testing.T) {
	claims := &Claims{UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{Issuer: jwtIssuer}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewJWTIssuer([]byte("s"), time.Hour).ValidateJWT(token)
	assert.Error(t, err)
}
