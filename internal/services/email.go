package services

import (
	"context"
	"fmt"
	"log"

	"communityhub/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer}
}

// SendWelcomeMessage sends a welcome email using the "welcome" template and the given data.
func (s *emailService) SendWelcomeMessage(ctx context.Context, data *domain.WelcomeMessageEmailData) error {
	if data == nil {
		return fmt.Errorf("welcome message data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("welcome", data)
	if err != nil {
		return fmt.Errorf("failed to render welcome template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}
	log.Printf("[EMAIL] Welcome email sent to %s", data.Email)
	return nil
}

// SendSeriesReport sends the recurring-series creation report using the
// "series_report" template. It is the channel that tells the organizer about
// partially failed instance generation.
func (s *emailService) SendSeriesReport(ctx context.Context, data *domain.SeriesReportEmailData) error {
	if data == nil {
		return fmt.Errorf("series report data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("series_report", data)
	if err != nil {
		return fmt.Errorf("failed to render series_report template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send series report email: %w", err)
	}
	log.Printf("[EMAIL] Series report sent to %s", data.Email)
	return nil
}
