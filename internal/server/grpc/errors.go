package grpc

import (
	"errors"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps service errors to gRPC statuses. Internal details never
// leave the server.
func toStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorAlreadyExists):
		return status.Error(codes.AlreadyExists, "user already exists")
	case errors.Is(err, common.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, "invalid credentials")
	case errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrWrongAudience):
		return tokenStatus(err)
	case errors.Is(err, common.ErrChallengeNotFound):
		return status.Error(codes.NotFound, "no verification challenge")
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, common.ErrCodeAlreadyUsed):
		return status.Error(codes.FailedPrecondition, "verification code already used")
	case errors.Is(err, common.ErrCodeExpired):
		return status.Error(codes.FailedPrecondition, "verification code expired")
	case errors.Is(err, common.ErrAttemptsExhausted):
		return status.Error(codes.FailedPrecondition, "verification attempts exhausted")
	case errors.Is(err, common.ErrCodeMismatch):
		return status.Error(codes.PermissionDenied, "verification code mismatch")
	case errors.Is(err, common.ErrUnavailable):
		return status.Error(codes.Unavailable, "store unavailable")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
