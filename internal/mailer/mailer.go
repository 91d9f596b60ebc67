// Package mailer is the outbound email boundary. The service only ever
// talks to the Sender interface; actual delivery (Postmark, SES, SMTP)
// is an external collaborator plugged in at wiring time.
package mailer

import (
	"context"
	"log"
)

// Sender delivers one HTML message to one address.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// LogSender writes messages to the process log instead of delivering
// them. Used in development and tests so the verification flow can be
// exercised without a mail provider.
type LogSender struct{}

func (LogSender) Send(_ context.Context, to, subject, htmlBody string) error {
	log.Printf("mailer: to=%s subject=%q body=%d bytes", to, subject, len(htmlBody))
	return nil
}
