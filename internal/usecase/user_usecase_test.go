package usecase

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/swyde/swyde-backend/internal/infra/adapters/postgres/repository"
)

var testJWTSecret = []byte("test-secret")

func newTestUserUsecase() (UserUsecase, *fakeUserRepo) {
	userRepo := newFakeUserRepo()
	return NewUserUsecase(testJWTSecret, userRepo), userRepo
}

func TestCreateUser_HashesPassword(t *testing.T) {
	uc, userRepo := newTestUserUsecase()

	user, err := uc.CreateUser(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Empty(t, user.Password, "returned user must not carry the hash")

	stored, err := userRepo.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("s3cret")))
}

func TestValidateCredentials(t *testing.T) {
	uc, _ := newTestUserUsecase()

	created, err := uc.CreateUser(context.Background(), "alice", "s3cret")
	require.NoError(t, err)

	user, err := uc.ValidateCredentials(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.Empty(t, user.Password)

	_, err = uc.ValidateCredentials(context.Background(), "alice", "wrong")
	assert.Error(t, err)

	_, err = uc.ValidateCredentials(context.Background(), "nobody", "s3cret")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGenerateJWT_RoundTrip(t *testing.T) {
	uc, _ := newTestUserUsecase()

	user, err := uc.CreateUser(context.Background(), "alice", "s3cret")
	require.NoError(t, err)

	signed, err := uc.GenerateJWT(user)
	require.NoError(t, err)

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(signed, claims, func(token *jwt.Token) (any, error) {
		return testJWTSecret, nil
	})
	require.NoError(t, err)
	assert.True(t, token.Valid)
	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.NotNil(t, claims.ExpiresAt)
}
