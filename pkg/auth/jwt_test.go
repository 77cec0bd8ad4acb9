package auth

import (
	"testing"
	"time"

	"github.com/clinicdesk/clinicdesk/internal/config"
	"github.com/clinicdesk/clinicdesk/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(accessTTL time.Duration) *JWTManager {
	return NewJWTManager(config.JWTConfig{
		Secret:          "test-secret-at-least-32-characters!!",
		AccessTokenTTL:  accessTTL,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "clinicdesk-test",
	})
}

func testClaims() *domain.Claims {
	patientID := uuid.New()
	return &domain.Claims{
		UserID:    uuid.New(),
		Email:     "jon@example.com",
		Role:      domain.RolePatient,
		PatientID: &patientID,
	}
}

func TestTokenRoundTrip(t *testing.T) {
	m := newTestManager(15 * time.Minute)
	claims := testClaims()

	pair, err := m.GenerateTokenPair(claims)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)

	got, err := m.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, claims.UserID, got.UserID)
	assert.Equal(t, claims.Email, got.Email)
	assert.Equal(t, domain.RolePatient, got.Role)
	require.NotNil(t, got.PatientID)
	assert.Equal(t, *claims.PatientID, *got.PatientID)
	assert.Nil(t, got.DoctorID)
}

func TestTokenTypeMismatch(t *testing.T) {
	m := newTestManager(15 * time.Minute)

	pair, err := m.GenerateTokenPair(testClaims())
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenTypeMismatch)

	_, err = m.ValidateRefreshToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenTypeMismatch)
}

func TestExpiredToken(t *testing.T) {
	m := newTestManager(-time.Minute)

	pair, err := m.GenerateTokenPair(testClaims())
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTamperedToken(t *testing.T) {
	m := newTestManager(15 * time.Minute)

	pair, err := m.GenerateTokenPair(testClaims())
	require.NoError(t, err)

	other := NewJWTManager(config.JWTConfig{
		Secret:          "a-different-secret-32-characters!!!!",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "clinicdesk-test",
	})
	_, err = other.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = m.ValidateAccessToken(pair.AccessToken + "x")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
