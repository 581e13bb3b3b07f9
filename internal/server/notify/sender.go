// Package notify delivers verification codes out of band. Senders render a
// short plain-text email and hand it to a transport: SMTP, an S3 outbox
// bucket drained by a mail relay, or a local writer for development.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Sender delivers a plaintext code to destination. Callers treat delivery
// as fire-and-forget: an error is logged, never turned into a
// verification failure.
type Sender interface {
	Send(ctx context.Context, destination, code string) error
}

// Template holds the fixed parts of the rendered email.
type Template struct {
	AppName  string
	From     string
	Lifetime time.Duration
}

func (t Template) subject() string {
	return fmt.Sprintf("%s - Your Email Verification Code", t.AppName)
}

func (t Template) body(code string) string {
	return fmt.Sprintf(
		"Hello,\n\n"+
			"Use the code below to confirm your email address for %s:\n\n"+
			"Verification Code: %s\n\n"+
			"This code will expire in %d minutes. If you did not request it, you can ignore this message.\n\n"+
			"Best regards,\nThe %s Team",
		t.AppName, code, int(t.Lifetime.Minutes()), t.AppName)
}

// Render builds an RFC 5322 message with CRLF line endings.
func (t Template) Render(to, code string) []byte {
	headers := []string{
		fmt.Sprintf("From: %s", t.From),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", t.subject()),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		strings.ReplaceAll(t.body(code), "\n", "\r\n"),
	}

	return []byte(strings.Join(headers, "\r\n"))
}

// validDestination rejects addresses that could inject extra headers.
func validDestination(destination string) error {
	if strings.TrimSpace(destination) == "" {
		return fmt.Errorf("empty destination")
	}
	if strings.ContainsAny(destination, "\r\n") {
		return fmt.Errorf("destination contains line breaks")
	}
	return nil
}
