package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/api"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) Register(ctx context.Context, req *api.RegisterRequest) (*api.RegisterResponse, error) {

	s.logger.Info(ctx, "Registration request")

	user, err := s.auth.Register(ctx, req.Username, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}

	return &api.RegisterResponse{UserID: user.ID}, nil

}

func (s *GRPCServer) Login(ctx context.Context, req *api.LoginRequest) (*api.LoginResponse, error) {

	token, err := s.auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}

	return &api.LoginResponse{Token: token}, nil

}

func (s *GRPCServer) RequestEmailVerification(ctx context.Context, req *api.RequestEmailVerificationRequest) (*api.RequestEmailVerificationResponse, error) {

	claims, ok := claimsFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	if err := s.auth.RequestEmailVerification(ctx, claims.UserID()); err != nil {
		return nil, toStatus(err)
	}

	return &api.RequestEmailVerificationResponse{Status: api.StatusAccepted}, nil

}

func (s *GRPCServer) ConfirmEmailVerification(ctx context.Context, req *api.ConfirmEmailVerificationRequest) (*api.ConfirmEmailVerificationResponse, error) {

	claims, ok := claimsFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	if err := s.auth.ConfirmEmailVerification(ctx, claims.UserID(), req.Code); err != nil {
		return nil, toStatus(err)
	}

	return &api.ConfirmEmailVerificationResponse{Status: api.StatusVerified}, nil

}

func (s *GRPCServer) ValidateToken(ctx context.Context, req *api.ValidateTokenRequest) (*api.ValidateTokenResponse, error) {

	claims, err := s.auth.ValidateToken(ctx, req.Token)
	if err != nil {
		return nil, toStatus(err)
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	return &api.ValidateTokenResponse{
		UserID:    claims.UserID(),
		Username:  claims.Username,
		Role:      claims.Role,
		ExpiresAt: expiresAt,
	}, nil

}

func (s *GRPCServer) ChangePassword(ctx context.Context, req *api.ChangePasswordRequest) (*api.ChangePasswordResponse, error) {

	claims, ok := claimsFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	if err := s.auth.ChangePassword(ctx, claims.UserID(), req.OldPassword, req.NewPassword); err != nil {
		return nil, toStatus(err)
	}

	return &api.ChangePasswordResponse{}, nil

}

func (s *GRPCServer) Ping(ctx context.Context, req *api.PingRequest) (*api.PingResponse, error) {

	return &api.PingResponse{Status: api.StatusOK}, nil

}
