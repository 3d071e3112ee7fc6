package channels

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// EmailSender delivers one email through an external provider
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSSender delivers one SMS through an external provider
type SMSSender interface {
	SendSMS(ctx context.Context, phone, body string) error
}

// SendTimeout bounds every external channel attempt. A provider that
// does not answer in time is treated as failed; the dispatcher swallows
// the failure either way.
const SendTimeout = 5 * time.Second

// LogEmailSender is the default email sink. It records the attempt in
// the structured log instead of talking to a provider, which is what
// development and test environments run with.
type LogEmailSender struct{}

// SendEmail logs the outbound email
func (LogEmailSender) SendEmail(ctx context.Context, to, subject, body string) error {
	log.Info().
		Str("channel", "email").
		Str("to", to).
		Str("subject", subject).
		Msg("Outbound email")
	return nil
}

// LogSMSSender is the default SMS sink, mirroring LogEmailSender
type LogSMSSender struct{}

// SendSMS logs the outbound SMS
func (LogSMSSender) SendSMS(ctx context.Context, phone, body string) error {
	log.Info().
		Str("channel", "sms").
		Str("to", phone).
		Msg("Outbound SMS")
	return nil
}
