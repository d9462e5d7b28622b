// Package email delivers the welcome message sent to newly registered
// customers through SendGrid or SMTP. With no usable credentials the service
// runs simulated: the message is rendered and logged but never sent.
package email

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/solutiontech/gic/internal/domain"
	"github.com/solutiontech/gic/internal/ports"
	"github.com/solutiontech/gic/pkg/apperrors"
	"github.com/solutiontech/gic/pkg/config"
)

// Message is a rendered email with both a plain-text and an HTML body.
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Sender hands a message to a mail provider.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type Service struct {
	provider string
	sender   Sender
	company  string
	tmpl     *templates
	log      *zap.Logger
}

var _ ports.WelcomeNotifier = (*Service)(nil)

// NewService picks the sender from cfg.Provider. A provider whose
// credentials are missing degrades to simulated mode with a warning.
func NewService(cfg config.EmailConfig, log *zap.Logger) (*Service, error) {
	var sender Sender
	switch cfg.Provider {
	case "", "log":
	case "sendgrid":
		if cfg.APIKey == "" {
			log.Warn("SendGrid API key missing, welcome emails are simulated")
			break
		}
		sender = newSendGridSender(cfg.APIKey, cfg.From, cfg.FromName)
	case "smtp":
		if cfg.SMTP.Host == "" || cfg.SMTP.User == "" {
			log.Warn("SMTP host or user missing, welcome emails are simulated")
			break
		}
		sender = newSMTPSender(cfg.SMTP, cfg.From, cfg.FromName)
	default:
		return nil, fmt.Errorf("unknown email provider: %s", cfg.Provider)
	}
	return newService(cfg.Provider, sender, cfg.FromName, log), nil
}

func newService(provider string, sender Sender, company string, log *zap.Logger) *Service {
	if company == "" {
		company = "SolutionTech"
	}
	return &Service{
		provider: provider,
		sender:   sender,
		company:  company,
		tmpl:     parseTemplates(),
		log:      log,
	}
}

// Simulated reports whether messages are only logged.
func (s *Service) Simulated() bool { return s.sender == nil }

// SendWelcome greets a newly registered customer. A provider failure comes
// back as an ExternalServiceError next to a report saying nothing was sent.
func (s *Service) SendWelcome(ctx context.Context, recipient, name string, variant domain.Variant) (*domain.DeliveryReport, error) {
	msg, err := s.tmpl.welcome(recipient, name, variant, s.company)
	if err != nil {
		return &domain.DeliveryReport{Message: err.Error()}, err
	}

	if s.Simulated() {
		s.log.Info("Simulated welcome email",
			zap.String("to", recipient),
			zap.String("variant", string(variant)),
			zap.String("subject", msg.Subject),
		)
		return &domain.DeliveryReport{
			Sent:      true,
			Simulated: true,
			Message:   fmt.Sprintf("[SIMULATED] welcome email sent to %s", recipient),
		}, nil
	}

	if err := s.sender.Send(ctx, msg); err != nil {
		s.log.Error("Failed to send welcome email",
			zap.String("to", recipient),
			zap.String("provider", s.provider),
			zap.Error(err),
		)
		return &domain.DeliveryReport{Message: err.Error()},
			&apperrors.ExternalServiceError{Service: "email/" + s.provider, Message: err.Error()}
	}

	s.log.Info("Welcome email sent", zap.String("to", recipient), zap.String("provider", s.provider))
	return &domain.DeliveryReport{
		Sent:    true,
		Message: fmt.Sprintf("welcome email sent to %s", recipient),
	}, nil
}
