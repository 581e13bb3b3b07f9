package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/authkeeper/internal/api"
	"github.com/dmitrijs2005/authkeeper/internal/client/client"
	"github.com/dmitrijs2005/authkeeper/internal/client/config"
	"github.com/dmitrijs2005/authkeeper/internal/flagx"
)

// ErrUsage is returned for unknown subcommands or missing arguments.
var ErrUsage = errors.New("usage error")

type authClient interface {
	Register(ctx context.Context, username, password string) (string, error)
	Login(ctx context.Context, username, password string) (string, error)
	RequestEmailVerification(ctx context.Context) error
	ConfirmEmailVerification(ctx context.Context, code string) error
	ValidateToken(ctx context.Context, token string) (*api.ValidateTokenResponse, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
	Ping(ctx context.Context) error
	SetAccessToken(token string)
	Close() error
}

type App struct {
	config *config.Config
	client authClient
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(c *config.Config) (*App, error) {

	apiClient, err := client.NewAuthKeeperClient(c.ServerEndpointAddr)
	if err != nil {
		return nil, err
	}

	return newApp(c, apiClient, os.Stdin, os.Stdout), nil
}

func newApp(c *config.Config, ac authClient, in io.Reader, out io.Writer) *App {
	if c.Token != "" {
		ac.SetAccessToken(c.Token)
	}
	return &App{config: c, client: ac, reader: bufio.NewReader(in), out: out}
}

// Run executes the subcommand found in args and closes the connection.
func (a *App) Run(ctx context.Context, args []string) error {
	defer a.client.Close()

	cmd, rest := flagx.SplitCommand(args)
	arg, _ := flagx.SplitCommand(rest)

	switch cmd {
	case "register":
		return a.register(ctx, arg)
	case "login":
		return a.login(ctx, arg)
	case "request-verification":
		return a.requestVerification(ctx)
	case "confirm-verification":
		return a.confirmVerification(ctx, arg)
	case "validate":
		return a.validate(ctx, arg)
	case "change-password":
		return a.changePassword(ctx)
	case "ping":
		return a.ping(ctx)
	case "help", "":
		a.help()
		if cmd == "" {
			return fmt.Errorf("%w: no command given", ErrUsage)
		}
		return nil
	default:
		a.help()
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}

func (a *App) help() {
	fmt.Fprintln(a.out, "Usage: authkeeper-client [-a addr] [-t token] [-w seconds] <command> [arg]")
	fmt.Fprintln(a.out, "Commands: register, login, request-verification, confirm-verification, validate, change-password, ping")
}

func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

func (a *App) requireToken() error {
	if a.config.Token == "" {
		return fmt.Errorf("%w: log in first and pass the token with -t or AUTHKEEPER_TOKEN", ErrUsage)
	}
	return nil
}
