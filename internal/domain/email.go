package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// WelcomeMessageEmailData holds data for the welcome email.
type WelcomeMessageEmailData struct {
	Email     string
	FirstName string
}

// SeriesReportEmailData holds data for the recurring-series creation report.
// It tells the organizer whether every instance was generated; a partial
// failure is a warning, never a rollback of the committed template.
type SeriesReportEmailData struct {
	Email            string
	EventTitle       string
	InstancesCreated int
	InstancesFailed  int
	Warnings         []string
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendWelcomeMessage(ctx context.Context, data *WelcomeMessageEmailData) error
	SendSeriesReport(ctx context.Context, data *SeriesReportEmailData) error
}
