package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/authkeeper/internal/api"
	"github.com/dmitrijs2005/authkeeper/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      api.AuthServiceClient

	mu          sync.RWMutex
	accessToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, common.BearerPrefix+token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	if token := s.AccessToken(); token != "" {
		ctx = withAccessToken(ctx, token)
	}

	return invoker(ctx, method, req, reply, cc, opts...)
}

func NewAuthKeeperClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	if err := c.InitGRPCClient(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = api.NewAuthServiceClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// SetAccessToken makes later calls authenticate as the token's user.
func (s *GRPCClient) SetAccessToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = token
}

func (s *GRPCClient) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *GRPCClient) Register(ctx context.Context, username, password string) (string, error) {

	resp, err := s.client.Register(ctx, &api.RegisterRequest{Username: username, Password: password})
	if err != nil {
		return "", s.mapError(err)
	}

	return resp.UserID, nil

}

// Login stores the returned token for subsequent calls and returns it.
func (s *GRPCClient) Login(ctx context.Context, username, password string) (string, error) {

	resp, err := s.client.Login(ctx, &api.LoginRequest{Username: username, Password: password})
	if err != nil {
		return "", s.mapError(err)
	}

	s.SetAccessToken(resp.Token)
	return resp.Token, nil

}

func (s *GRPCClient) RequestEmailVerification(ctx context.Context) error {

	if _, err := s.client.RequestEmailVerification(ctx, &api.RequestEmailVerificationRequest{}); err != nil {
		return s.mapError(err)
	}
	return nil

}

func (s *GRPCClient) ConfirmEmailVerification(ctx context.Context, code string) error {

	if _, err := s.client.ConfirmEmailVerification(ctx, &api.ConfirmEmailVerificationRequest{Code: code}); err != nil {
		return s.mapError(err)
	}
	return nil

}

func (s *GRPCClient) ValidateToken(ctx context.Context, token string) (*api.ValidateTokenResponse, error) {

	resp, err := s.client.ValidateToken(ctx, &api.ValidateTokenRequest{Token: token})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil

}

func (s *GRPCClient) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {

	req := &api.ChangePasswordRequest{OldPassword: oldPassword, NewPassword: newPassword}
	if _, err := s.client.ChangePassword(ctx, req); err != nil {
		return s.mapError(err)
	}
	return nil

}

func (s *GRPCClient) Ping(ctx context.Context) error {

	if _, err := s.client.Ping(ctx, &api.PingRequest{}); err != nil {
		return s.mapError(err)
	}
	return nil

}

// mapError keeps the server message, so "token expired" and "wrong token
// audience" stay distinguishable behind ErrUnauthorized.
func (s *GRPCClient) mapError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	var sentinel error
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded:
		sentinel = ErrUnavailable
	case codes.Unauthenticated:
		sentinel = ErrUnauthorized
	case codes.AlreadyExists:
		sentinel = ErrAlreadyExists
	case codes.InvalidArgument:
		sentinel = ErrInvalidArgument
	case codes.NotFound:
		sentinel = ErrNotFound
	case codes.FailedPrecondition:
		sentinel = ErrRejected
	case codes.PermissionDenied:
		sentinel = ErrWrongCode
	default:
		return fmt.Errorf("server error: %s", st.Message())
	}

	return fmt.Errorf("%w: %s", sentinel, st.Message())
}
