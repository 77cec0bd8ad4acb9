package service

import (
	"context"
	"testing"
	"time"

	"github.com/clinicdesk/clinicdesk/internal/config"
	"github.com/clinicdesk/clinicdesk/internal/domain"
	"github.com/clinicdesk/clinicdesk/internal/domain/patient"
	"github.com/clinicdesk/clinicdesk/internal/repository"
	"github.com/clinicdesk/clinicdesk/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newAuthTestEnv(t *testing.T) (*testEnv, *AuthService) {
	t.Helper()

	env := newTestEnv(t)
	jwtManager := auth.NewJWTManager(config.JWTConfig{
		Secret:          "test-secret-at-least-32-characters!!",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "clinicdesk-test",
	})
	svc := NewAuthService(
		repository.NewUserRepository(env.db),
		repository.NewPatientRepository(env.db),
		jwtManager,
		zap.NewNop(),
	)
	return env, svc
}

func seedUser(t *testing.T, env *testEnv, email, password string) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	u := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    "Jon",
		LastName:     "Doe",
		Role:         domain.RolePatient,
		IsActive:     true,
	}
	require.NoError(t, env.db.Create(u).Error)
	return u
}

func TestLogin(t *testing.T) {
	env, svc := newAuthTestEnv(t)
	ctx := context.Background()
	seedUser(t, env, "jon@example.com", "correct horse battery staple")

	pair, err := svc.Login(ctx, "jon@example.com", "correct horse battery staple", "127.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	_, err = svc.Login(ctx, "jon@example.com", "wrong", "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "whatever", "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginLockout(t *testing.T) {
	env, svc := newAuthTestEnv(t)
	ctx := context.Background()
	seedUser(t, env, "jon@example.com", "correct horse battery staple")

	for i := 0; i < 5; i++ {
		_, err := svc.Login(ctx, "jon@example.com", "wrong", "127.0.0.1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	// Even the right password bounces while locked.
	_, err := svc.Login(ctx, "jon@example.com", "correct horse battery staple", "127.0.0.1")
	assert.ErrorIs(t, err, ErrAccountLocked)
}

func TestLoginInactiveAccount(t *testing.T) {
	env, svc := newAuthTestEnv(t)
	ctx := context.Background()
	u := seedUser(t, env, "jon@example.com", "correct horse battery staple")
	require.NoError(t, env.db.Model(u).Update("is_active", false).Error)

	_, err := svc.Login(ctx, "jon@example.com", "correct horse battery staple", "127.0.0.1")
	assert.ErrorIs(t, err, ErrAccountInactive)
}

func TestRegisterPatient(t *testing.T) {
	env, svc := newAuthTestEnv(t)
	ctx := context.Background()

	cmd := &patient.CreatePatientCommand{
		FirstName:   "Jon",
		LastName:    "Doe",
		DateOfBirth: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Gender:      patient.GenderMale,
	}

	u, err := svc.RegisterPatient(ctx, "Jon@Example.com", "a-long-enough-password", cmd)
	require.NoError(t, err)
	assert.Equal(t, "jon@example.com", u.Email)
	assert.Equal(t, domain.RolePatient, u.Role)
	require.NotNil(t, u.PatientID)

	// The linked patient record exists.
	var p patient.Patient
	require.NoError(t, env.db.First(&p, "id = ?", *u.PatientID).Error)
	assert.Equal(t, "Jon", p.FirstName)

	// The new account can log in.
	_, err = svc.Login(ctx, "jon@example.com", "a-long-enough-password", "127.0.0.1")
	assert.NoError(t, err)

	_, err = svc.RegisterPatient(ctx, "jon@example.com", "a-long-enough-password", cmd)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterPatientWeakPassword(t *testing.T) {
	_, svc := newAuthTestEnv(t)

	_, err := svc.RegisterPatient(context.Background(), "jon@example.com", "short", &patient.CreatePatientCommand{
		FirstName:   "Jon",
		LastName:    "Doe",
		DateOfBirth: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	var validErr *ValidationError
	assert.ErrorAs(t, err, &validErr)
}

func TestChangePassword(t *testing.T) {
	env, svc := newAuthTestEnv(t)
	ctx := context.Background()
	u := seedUser(t, env, "jon@example.com", "correct horse battery staple")

	err := svc.ChangePassword(ctx, u.ID, "wrong", "a-new-long-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(ctx, u.ID, "correct horse battery staple", "a-new-long-password"))

	_, err = svc.Login(ctx, "jon@example.com", "correct horse battery staple", "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "jon@example.com", "a-new-long-password", "127.0.0.1")
	assert.NoError(t, err)
}
