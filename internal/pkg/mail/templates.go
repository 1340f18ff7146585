package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

var feedbackTemplate = template.Must(template.New("feedback").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
<h1 style="color: #2563eb;">New feedback received</h1>
<p><strong>Business:</strong> {{.BusinessName}}</p>
<p><strong>Rating:</strong> {{.Rating}} stars</p>
<p><strong>Feedback:</strong></p>
<blockquote style="background: #f9f9f9; padding: 10px; border-left: 5px solid #ccc;">{{.Comment}}</blockquote>
{{if .Contact}}<p><strong>Contact:</strong> {{.Contact}}</p>{{end}}
<p><a href="{{.DashboardURL}}">View in dashboard</a></p>
</body>
</html>`))

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
<h1 style="color: #2563eb; text-align: center;">Welcome to Review Boost!</h1>
<p>Thanks for signing up. To get started:</p>
<ol style="padding-left: 20px;">
<li>Create your first business in the dashboard</li>
<li>Add your Google Maps or Trustpilot link</li>
<li>Print the QR code for your counter</li>
<li>Start collecting feedback from your customers</li>
</ol>
<p style="text-align: center; margin: 40px 0;">
<a href="{{.DashboardURL}}" style="background-color: #2563eb; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px;">Open the dashboard</a>
</p>
<p>Upgrade to <strong>Pro</strong> for analytics, both review platforms and AI written review suggestions.</p>
<hr style="border: none; border-top: 1px solid #e5e7eb; margin: 40px 0;">
<p style="font-size: 12px; color: #6b7280; text-align: center;"><a href="{{.UnsubscribeURL}}" style="color: #6b7280;">Unsubscribe</a></p>
</body>
</html>`))

var marketingTemplate = template.Must(template.New("marketing").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
<h2 style="color: #2563eb;">{{.Subject}}</h2>
{{range .Paragraphs}}<p>{{.}}</p>
{{end}}
<hr style="border: none; border-top: 1px solid #e5e7eb; margin: 40px 0;">
<p style="font-size: 12px; color: #6b7280; text-align: center;"><a href="{{.UnsubscribeURL}}" style="color: #6b7280;">Unsubscribe</a></p>
</body>
</html>`))

// FeedbackData holds template data for the owner notification about new feedback.
type FeedbackData struct {
	BusinessName string
	Rating       int
	Comment      string
	Contact      string
	DashboardURL string
}

func RenderFeedbackEmail(to string, data FeedbackData) (Message, error) {
	var buf bytes.Buffer
	if err := feedbackTemplate.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("render feedback template: %w", err)
	}
	text := fmt.Sprintf("New %d-star feedback for %s\n\n%s\n\nContact: %s\n\n%s",
		data.Rating, data.BusinessName, data.Comment, data.Contact, data.DashboardURL)
	return Message{
		To:      to,
		Subject: fmt.Sprintf("New %d-star feedback for %s", data.Rating, data.BusinessName),
		HTML:    buf.String(),
		Text:    text,
	}, nil
}

type WelcomeData struct {
	DashboardURL   string
	UnsubscribeURL string
}

func RenderWelcomeEmail(to string, data WelcomeData) (Message, error) {
	var buf bytes.Buffer
	if err := welcomeTemplate.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("render welcome template: %w", err)
	}
	return Message{
		To:      to,
		Subject: "Welcome to Review Boost",
		HTML:    buf.String(),
		Text:    fmt.Sprintf("Welcome to Review Boost!\n\nOpen your dashboard: %s\n\nUnsubscribe: %s", data.DashboardURL, data.UnsubscribeURL),
	}, nil
}

type MarketingData struct {
	Subject        string
	Body           string
	UnsubscribeURL string
}

func RenderMarketingEmail(to string, data MarketingData) (Message, error) {
	var buf bytes.Buffer
	err := marketingTemplate.Execute(&buf, struct {
		Subject        string
		Paragraphs     []string
		UnsubscribeURL string
	}{
		Subject:        data.Subject,
		Paragraphs:     strings.Split(strings.TrimSpace(data.Body), "\n"),
		UnsubscribeURL: data.UnsubscribeURL,
	})
	if err != nil {
		return Message{}, fmt.Errorf("render marketing template: %w", err)
	}
	return Message{
		To:      to,
		Subject: data.Subject,
		HTML:    buf.String(),
		Text:    fmt.Sprintf("%s\n\nUnsubscribe: %s", data.Body, data.UnsubscribeURL),
	}, nil
}
