package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

type fakeAuth struct {
	registerErr error
	loginErr    error
	requestErr  error
	confirmErr  error
	changeErr   error
	validateErr error

	claims *auth.Claims

	gotUserID string
	gotCode   string
	gotOld    string
	gotNew    string
}

func (f *fakeAuth) Register(ctx context.Context, username, password string) (*models.User, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &models.User{ID: "u-1", UserName: username}, nil
}

func (f *fakeAuth) Login(ctx context.Context, username, password string) (string, error) {
	if f.loginErr != nil {
		return "", f.loginErr
	}
	return "token-for-" + username, nil
}

func (f *fakeAuth) RequestEmailVerification(ctx context.Context, userID string) error {
	f.gotUserID = userID
	return f.requestErr
}

func (f *fakeAuth) ConfirmEmailVerification(ctx context.Context, userID, code string) error {
	f.gotUserID = userID
	f.gotCode = code
	return f.confirmErr
}

func (f *fakeAuth) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	if f.validateErr != nil {
		return nil, f.validateErr
	}
	if f.claims != nil {
		return f.claims, nil
	}
	return testClaims("u-1"), nil
}

func (f *fakeAuth) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	f.gotUserID = userID
	f.gotOld = oldPassword
	f.gotNew = newPassword
	return f.changeErr
}

func testClaims(userID string) *auth.Claims {
	return &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)),
		},
		Username: "alice",
		Role:     "user",
	}
}
