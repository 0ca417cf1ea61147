package notifications

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/samber/oops"
	"github.com/wneessen/go-mail"

	"github.com/you/accountsvc/domain"
)

// SMTPConfig describes the outbound mail relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	StartTLS bool
}

// EmailServiceImpl implements domain.NotificationService over SMTP
type EmailServiceImpl struct {
	cfg SMTPConfig
	log zerolog.Logger
}

// NewEmailService creates a new SMTP notification service.
// Without a host, messages are logged at debug level instead of sent.
func NewEmailService(cfg SMTPConfig, log zerolog.Logger) domain.NotificationService {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &EmailServiceImpl{cfg: cfg, log: log.With().Str("component", "email").Logger()}
}

// SendEmail implements domain.NotificationService
func (s *EmailServiceImpl) SendEmail(ctx context.Context, to, subject, body string) error {
	if s.cfg.Host == "" {
		s.log.Debug().Ctx(ctx).Str("to", to).Str("subject", subject).Str("body", body).Msg("smtp disabled, email not sent")
		return nil
	}

	msg, err := s.buildMessage(to, subject, body)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return oops.Code("EMAIL_CLIENT_FAILED").With("host", s.cfg.Host).Wrap(err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return oops.Code("EMAIL_SEND_FAILED").With("host", s.cfg.Host).With("subject", subject).Wrap(err)
	}
	return nil
}

func (s *EmailServiceImpl) buildMessage(to, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return nil, oops.Code("EMAIL_INVALID_SENDER").With("from", s.cfg.From).Wrap(err)
	}
	if err := msg.To(to); err != nil {
		return nil, oops.Code("EMAIL_INVALID_RECIPIENT").Wrap(err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

func (s *EmailServiceImpl) clientOptions() []mail.Option {
	opts := []mail.Option{mail.WithPort(s.cfg.Port)}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	if s.cfg.StartTLS {
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	return opts
}
