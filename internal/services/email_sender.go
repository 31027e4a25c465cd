package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"venuemap/internal/logger"
)

type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogEmailSender writes mail to the log instead of delivering it. It is used
// when no SMTP host is configured.
type LogEmailSender struct {
	Log *zap.Logger
}

func (s *LogEmailSender) Send(_ context.Context, to, subject, body string) error {
	logger.OrNop(s.Log).Info("email not delivered, smtp disabled",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(body)))
	return nil
}

const passwordResetSubject = "Reset your password"

// PasswordResetEmail renders the reset instructions for a raw token.
func PasswordResetEmail(firstName, rawToken string, ttl time.Duration) (subject, body string) {
	greeting := "Hello"
	if firstName != "" {
		greeting = "Hello " + firstName
	}
	body = fmt.Sprintf("%s,\n\nSomeone asked to reset the password for your account. "+
		"Use this token to choose a new one:\n\n%s\n\nThe token expires in %d minutes. "+
		"If you did not ask for this you can ignore this email.\n",
		greeting, rawToken, int(ttl.Minutes()))
	return passwordResetSubject, body
}
