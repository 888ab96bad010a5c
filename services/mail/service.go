package mail

import (
	"fmt"

	"github.com/quilldesk/quilldesk/config"
	"github.com/quilldesk/quilldesk/services/logging"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

type Service struct {
	config *config.MailConfig
	client *mail.Client
	logger *logging.Service
}

func NewService(cfg *config.MailConfig, logger *logging.Service) (*Service, error) {
	if cfg.FromAddress == "" {
		return nil, fmt.Errorf("QD_MAIL_FROM_ADDRESS is required")
	}

	clientOpts := []mail.Option{
		mail.WithPort(cfg.Port),
	}

	if cfg.Username != "" {
		clientOpts = append(clientOpts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password))
	}

	switch cfg.Encryption {
	case "ssl":
		clientOpts = append(clientOpts, mail.WithSSL())
	case "none":
		clientOpts = append(clientOpts, mail.WithTLSPortPolicy(mail.NoTLS))
	default:
		clientOpts = append(clientOpts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}

	client, err := mail.NewClient(cfg.Host, clientOpts...)
	if err != nil {
		if logger != nil {
			logger.Error("failed to create mail client", zap.Error(err))
		}
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}

	if logger != nil {
		logger.Info("mail service initialized",
			zap.String("host", cfg.Host),
			zap.Int("port", cfg.Port),
			zap.String("encryption", cfg.Encryption))
	}

	return &Service{
		config: cfg,
		client: client,
		logger: logger,
	}, nil
}

func (s *Service) SendPlain(to []string, subject, body string) error {
	message := mail.NewMsg()

	if err := message.FromFormat(s.config.FromName, s.config.FromAddress); err != nil {
		return fmt.Errorf("failed to set FROM address: %w", err)
	}
	if err := message.To(to...); err != nil {
		return fmt.Errorf("failed to set TO addresses: %w", err)
	}

	message.Subject(subject)
	message.SetBodyString(mail.TypeTextPlain, body)

	if err := s.client.DialAndSend(message); err != nil {
		if s.logger != nil {
			s.logger.Error("failed to send email",
				zap.Error(err),
				zap.Strings("recipients", to),
				zap.String("subject", subject))
		}
		return fmt.Errorf("failed to send email: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("email sent",
			zap.Strings("recipients", to),
			zap.String("subject", subject))
	}

	return nil
}
