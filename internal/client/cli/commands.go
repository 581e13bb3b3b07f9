package cli

import (
	"context"
	"fmt"
	"time"
)

func (a *App) askUsername(username string) (string, error) {
	if username != "" {
		return username, nil
	}
	return GetSimpleText(a.reader, "Username (email)", a.out)
}

func (a *App) register(ctx context.Context, username string) error {
	username, err := a.askUsername(username)
	if err != nil {
		return err
	}

	password, err := GetPassword(a.out, "Password")
	if err != nil {
		return err
	}
	defer wipe(password)

	confirm, err := GetPassword(a.out, "Repeat password")
	if err != nil {
		return err
	}
	defer wipe(confirm)

	if string(password) != string(confirm) {
		return fmt.Errorf("%w: passwords do not match", ErrUsage)
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	id, err := a.client.Register(ctx, username, string(password))
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Registered %s (id %s)\n", username, id)
	return nil
}

func (a *App) login(ctx context.Context, username string) error {
	username, err := a.askUsername(username)
	if err != nil {
		return err
	}

	password, err := GetPassword(a.out, "Password")
	if err != nil {
		return err
	}
	defer wipe(password)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	token, err := a.client.Login(ctx, username, string(password))
	if err != nil {
		return err
	}

	a.config.Token = token
	fmt.Fprintln(a.out, token)
	return nil
}

func (a *App) requestVerification(ctx context.Context) error {
	if err := a.requireToken(); err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.client.RequestEmailVerification(ctx); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Verification code sent")
	return nil
}

func (a *App) confirmVerification(ctx context.Context, code string) error {
	if err := a.requireToken(); err != nil {
		return err
	}

	if code == "" {
		var err error
		code, err = GetSimpleText(a.reader, "Verification code", a.out)
		if err != nil {
			return err
		}
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.client.ConfirmEmailVerification(ctx, code); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Email verified")
	return nil
}

func (a *App) validate(ctx context.Context, token string) error {
	if token == "" {
		token = a.config.Token
	}
	if token == "" {
		return fmt.Errorf("%w: no token to validate", ErrUsage)
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	claims, err := a.client.ValidateToken(ctx, token)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "user id:  %s\nusername: %s\nrole:     %s\nexpires:  %s\n",
		claims.UserID, claims.Username, claims.Role, claims.ExpiresAt.Format(time.RFC3339))
	return nil
}

func (a *App) changePassword(ctx context.Context) error {
	if err := a.requireToken(); err != nil {
		return err
	}

	oldPassword, err := GetPassword(a.out, "Current password")
	if err != nil {
		return err
	}
	defer wipe(oldPassword)

	newPassword, err := GetPassword(a.out, "New password")
	if err != nil {
		return err
	}
	defer wipe(newPassword)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.client.ChangePassword(ctx, string(oldPassword), string(newPassword)); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Password changed")
	return nil
}

func (a *App) ping(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.client.Ping(ctx); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "OK")
	return nil
}
