package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"
)

// DefaultSMTPTimeout bounds a submission when ctx carries no deadline.
const DefaultSMTPTimeout = 30 * time.Second

// dialContext is a seam for tests.
var dialContext = (&net.Dialer{}).DialContext

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
}

// SMTPSender submits each message over its own connection, STARTTLS when
// offered and PLAIN auth when a user is configured. The whole exchange is
// bound to the ctx deadline.
type SMTPSender struct {
	config   SMTPConfig
	template Template
}

func NewSMTPSender(config SMTPConfig, template Template) *SMTPSender {
	return &SMTPSender{config: config, template: template}
}

func (s *SMTPSender) Send(ctx context.Context, destination, code string) error {
	if err := validDestination(destination); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))

	conn, err := dialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp dial %s: %w", addr, err)
	}
	defer conn.Close()

	deadline, bounded := ctx.Deadline()
	if !bounded {
		deadline = time.Now().Add(DefaultSMTPTimeout)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("smtp deadline: %w", err)
	}

	// cancellation without a deadline still unblocks pending reads
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	msg := s.template.Render(destination, code)
	if err := s.submit(conn, destination, msg); err != nil {
		ctxErr := ctx.Err()
		// the conn deadline can fire before the ctx timer does
		if ctxErr == nil && bounded && !time.Now().Before(deadline) {
			ctxErr = context.DeadlineExceeded
		}
		if ctxErr != nil {
			return fmt.Errorf("smtp send: %w", errors.Join(ctxErr, err))
		}
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) submit(conn net.Conn, destination string, msg []byte) error {
	c, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.config.Host}); err != nil {
			return err
		}
	}

	if s.config.User != "" {
		if ok, _ := c.Extension("AUTH"); !ok {
			return errors.New("server doesn't support AUTH")
		}
		if err := c.Auth(smtp.PlainAuth("", s.config.User, s.config.Password, s.config.Host)); err != nil {
			return err
		}
	}

	if err := c.Mail(s.template.From); err != nil {
		return err
	}
	if err := c.Rcpt(destination); err != nil {
		return err
	}

	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return c.Quit()
}
