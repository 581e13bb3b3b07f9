package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/api"
	"github.com/dmitrijs2005/authkeeper/internal/client/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	token  string
	closed bool

	regUser, regPass string
	loginUser        string
	loginPass        string
	code             string
	oldPass, newPass string
	validated        string
	requested        bool

	err error
}

func (f *fakeClient) Register(ctx context.Context, username, password string) (string, error) {
	f.regUser, f.regPass = username, password
	return "u-1", f.err
}

func (f *fakeClient) Login(ctx context.Context, username, password string) (string, error) {
	f.loginUser, f.loginPass = username, password
	if f.err != nil {
		return "", f.err
	}
	return "tok-1", nil
}

func (f *fakeClient) RequestEmailVerification(ctx context.Context) error {
	f.requested = true
	return f.err
}

func (f *fakeClient) ConfirmEmailVerification(ctx context.Context, code string) error {
	f.code = code
	return f.err
}

func (f *fakeClient) ValidateToken(ctx context.Context, token string) (*api.ValidateTokenResponse, error) {
	f.validated = token
	if f.err != nil {
		return nil, f.err
	}
	return &api.ValidateTokenResponse{
		UserID:    "u-1",
		Username:  "alice",
		Role:      "user",
		ExpiresAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}, nil
}

func (f *fakeClient) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	f.oldPass, f.newPass = oldPassword, newPassword
	return f.err
}

func (f *fakeClient) Ping(ctx context.Context) error { return f.err }

func (f *fakeClient) SetAccessToken(token string) { f.token = token }

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

// stubPasswords makes readPassword return the given values in order.
func stubPasswords(t *testing.T, pws ...string) {
	t.Helper()
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })
	i := 0
	readPassword = func(int) ([]byte, error) {
		if i >= len(pws) {
			return nil, errors.New("no more passwords")
		}
		pw := []byte(pws[i])
		i++
		return pw, nil
	}
}

func newTestApp(token, input string) (*App, *fakeClient, *bytes.Buffer) {
	fc := &fakeClient{}
	out := &bytes.Buffer{}
	cfg := &config.Config{RequestTimeout: time.Second, Token: token}
	return newApp(cfg, fc, strings.NewReader(input), out), fc, out
}

func TestRun_Register(t *testing.T) {
	stubPasswords(t, "P@ssw0rd", "P@ssw0rd")
	app, fc, out := newTestApp("", "")

	require.NoError(t, app.Run(context.Background(), []string{"register", "alice"}))
	assert.Equal(t, "alice", fc.regUser)
	assert.Equal(t, "P@ssw0rd", fc.regPass)
	assert.Contains(t, out.String(), "Registered alice (id u-1)")
	assert.True(t, fc.closed)
}

func TestRun_Register_PromptsUsername(t *testing.T) {
	stubPasswords(t, "pw", "pw")
	app, fc, _ := newTestApp("", "bob\n")

	require.NoError(t, app.Run(context.Background(), []string{"register"}))
	assert.Equal(t, "bob", fc.regUser)
}

func TestRun_Register_PasswordsDiffer(t *testing.T) {
	stubPasswords(t, "one", "two")
	app, fc, _ := newTestApp("", "")

	err := app.Run(context.Background(), []string{"register", "alice"})
	require.ErrorIs(t, err, ErrUsage)
	assert.Empty(t, fc.regUser)
}

func TestRun_LoginPrintsToken(t *testing.T) {
	stubPasswords(t, "P@ssw0rd")
	app, fc, out := newTestApp("", "")

	require.NoError(t, app.Run(context.Background(), []string{"-a", "host:1", "login", "alice"}))
	assert.Equal(t, "alice", fc.loginUser)
	assert.Equal(t, "P@ssw0rd", fc.loginPass)
	assert.True(t, strings.HasSuffix(out.String(), "tok-1\n"), out.String())
}

func TestRun_ProtectedCommandsNeedToken(t *testing.T) {
	for _, cmd := range []string{"request-verification", "confirm-verification", "change-password"} {
		app, _, _ := newTestApp("", "")
		err := app.Run(context.Background(), []string{cmd, "123456"})
		require.ErrorIs(t, err, ErrUsage, cmd)
	}
}

func TestRun_TokenIsPassedToClient(t *testing.T) {
	app, fc, out := newTestApp("tok-9", "")
	assert.Equal(t, "tok-9", fc.token)

	require.NoError(t, app.Run(context.Background(), []string{"request-verification"}))
	assert.True(t, fc.requested)
	assert.Contains(t, out.String(), "Verification code sent")
}

func TestRun_ConfirmVerification(t *testing.T) {
	app, fc, out := newTestApp("tok-9", "")

	require.NoError(t, app.Run(context.Background(), []string{"-t", "tok-9", "confirm-verification", "123456"}))
	assert.Equal(t, "123456", fc.code)
	assert.Contains(t, out.String(), "Email verified")

	app, fc, _ = newTestApp("tok-9", "654321\n")
	require.NoError(t, app.Run(context.Background(), []string{"confirm-verification"}))
	assert.Equal(t, "654321", fc.code)
}

func TestRun_Validate(t *testing.T) {
	app, fc, out := newTestApp("tok-9", "")

	require.NoError(t, app.Run(context.Background(), []string{"validate"}))
	assert.Equal(t, "tok-9", fc.validated)
	assert.Contains(t, out.String(), "username: alice")
	assert.Contains(t, out.String(), "2030-01-01T00:00:00Z")

	app, fc, _ = newTestApp("", "")
	require.NoError(t, app.Run(context.Background(), []string{"validate", "other"}))
	assert.Equal(t, "other", fc.validated)

	app, _, _ = newTestApp("", "")
	require.ErrorIs(t, app.Run(context.Background(), []string{"validate"}), ErrUsage)
}

func TestRun_ChangePassword(t *testing.T) {
	stubPasswords(t, "old", "new")
	app, fc, _ := newTestApp("tok-9", "")

	require.NoError(t, app.Run(context.Background(), []string{"change-password"}))
	assert.Equal(t, "old", fc.oldPass)
	assert.Equal(t, "new", fc.newPass)
}

func TestRun_PingAndErrors(t *testing.T) {
	app, _, out := newTestApp("", "")
	require.NoError(t, app.Run(context.Background(), []string{"ping"}))
	assert.Equal(t, "OK\n", out.String())

	app, fc, _ := newTestApp("", "")
	fc.err = errors.New("server unavailable")
	require.EqualError(t, app.Run(context.Background(), []string{"ping"}), "server unavailable")
}

func TestRun_UnknownAndMissingCommand(t *testing.T) {
	app, _, out := newTestApp("", "")
	require.ErrorIs(t, app.Run(context.Background(), []string{"frobnicate"}), ErrUsage)
	assert.Contains(t, out.String(), "Usage:")

	app, _, _ = newTestApp("", "")
	require.ErrorIs(t, app.Run(context.Background(), nil), ErrUsage)

	app, _, _ = newTestApp("", "")
	require.NoError(t, app.Run(context.Background(), []string{"help"}))
}
