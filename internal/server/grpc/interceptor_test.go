package grpc

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/authkeeper/internal/api"
	"github.com/dmitrijs2005/authkeeper/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func incoming(value string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs(common.AccessTokenHeaderName, value))
}

func TestInterceptor_Public_AllowsWithoutToken(t *testing.T) {
	s := newServer(&fakeAuth{})

	info := &grpc.UnaryServerInfo{FullMethod: api.AuthService_Login_FullMethodName}
	handlerCalled := false

	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		handlerCalled = true
		return "ok", nil
	}

	resp, err := s.accessTokenInterceptor(context.Background(), nil, info, h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handlerCalled {
		t.Fatal("handler was not called")
	}
	if resp != "ok" {
		t.Fatalf("unexpected handler resp: %v", resp)
	}
}

func TestInterceptor_Protected_MissingToken(t *testing.T) {
	s := newServer(&fakeAuth{})

	info := &grpc.UnaryServerInfo{FullMethod: api.AuthService_ConfirmEmailVerification_FullMethodName}

	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		t.Fatal("handler should not be called when token missing")
		return nil, nil
	}

	for _, ctx := range []context.Context{
		context.Background(),
		incoming(""),
		incoming("Basic abc"),
		incoming("Bearer "),
	} {
		_, err := s.accessTokenInterceptor(ctx, nil, info, h)
		if status.Code(err) != codes.Unauthenticated {
			t.Fatalf("want Unauthenticated, got %v", err)
		}
	}
}

func TestInterceptor_Protected_InvalidToken(t *testing.T) {
	s := newServer(&fakeAuth{validateErr: common.ErrTokenExpired})

	info := &grpc.UnaryServerInfo{FullMethod: api.AuthService_ChangePassword_FullMethodName}

	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		t.Fatal("handler should not be called with a bad token")
		return nil, nil
	}

	_, err := s.accessTokenInterceptor(incoming("Bearer abc"), nil, info, h)
	st, _ := status.FromError(err)
	if st.Code() != codes.Unauthenticated || st.Message() != "token expired" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestInterceptor_Protected_ValidToken_SetsClaims(t *testing.T) {
	s := newServer(&fakeAuth{claims: testClaims("u-9")})

	info := &grpc.UnaryServerInfo{FullMethod: api.AuthService_RequestEmailVerification_FullMethodName}

	var gotUserID string
	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		c, ok := claimsFromContext(ctx)
		if !ok {
			t.Fatal("claims missing from context")
		}
		gotUserID = c.UserID()
		return "ok", nil
	}

	// the scheme is case-insensitive
	if _, err := s.accessTokenInterceptor(incoming("bearer  abc "), nil, info, h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotUserID != "u-9" {
		t.Fatalf("unexpected user id: %q", gotUserID)
	}
}

func TestLoggingInterceptor_PassesThrough(t *testing.T) {
	s := newServer(&fakeAuth{})
	info := &grpc.UnaryServerInfo{FullMethod: api.AuthService_Ping_FullMethodName}

	want := status.Error(codes.Unavailable, "down")
	_, err := s.loggingInterceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, want
	})
	if err != want {
		t.Fatalf("error not passed through: %v", err)
	}
}
