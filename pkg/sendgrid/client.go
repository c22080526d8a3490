package sendgrid

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/sendgrid/rest"
	sg "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/angelmondragon/wedplan-backend/pkg/config"
	"github.com/angelmondragon/wedplan-backend/pkg/logger"
)

var (
	errAPIKeyRequired    = errors.New("sendgrid api key is required")
	errFromRequired      = errors.New("sendgrid from address is required")
	errRecipientRequired = errors.New("email recipient is required")
)

type sender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// Attachment is a file delivered with a message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is a single transactional email.
type Message struct {
	ToEmail     string
	ToName      string
	Subject     string
	PlainText   string
	HTML        string
	Categories  []string
	Attachments []Attachment
}

// Client sends transactional mail through the SendGrid v3 API.
type Client struct {
	api  sender
	from *mail.Email
	logg *logger.Logger
}

// NewClient builds a SendGrid client from config.
func NewClient(cfg config.SendgridConfig, logg *logger.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	from := strings.TrimSpace(cfg.DefaultFrom)
	if from == "" {
		return nil, errFromRequired
	}
	return newClient(sg.NewSendClient(apiKey), mail.NewEmail(cfg.FromName, from), logg), nil
}

func newClient(api sender, from *mail.Email, logg *logger.Logger) *Client {
	return &Client{api: api, from: from, logg: logg}
}

// Send delivers msg. Non-2xx responses are returned as *StatusError.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if c == nil || c.api == nil {
		return errors.New("sendgrid client not initialized")
	}
	email, err := c.build(msg)
	if err != nil {
		return err
	}
	resp, err := c.api.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp == nil {
		return errors.New("sendgrid send: empty response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Body: resp.Body}
	}
	if c.logg != nil {
		logCtx := c.logg.WithFields(ctx, map[string]any{
			"subject":     msg.Subject,
			"status_code": resp.StatusCode,
			"attachments": len(msg.Attachments),
		})
		c.logg.Debug(logCtx, "email sent")
	}
	return nil
}

func (c *Client) build(msg Message) (*mail.SGMailV3, error) {
	to := strings.TrimSpace(msg.ToEmail)
	if to == "" {
		return nil, errRecipientRequired
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return nil, errors.New("email subject is required")
	}
	if msg.PlainText == "" && msg.HTML == "" {
		return nil, errors.New("email body is required")
	}

	email := mail.NewV3Mail()
	email.SetFrom(c.from)
	email.Subject = msg.Subject

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail(msg.ToName, to))
	email.AddPersonalizations(p)

	if msg.PlainText != "" {
		email.AddContent(mail.NewContent("text/plain", msg.PlainText))
	}
	if msg.HTML != "" {
		email.AddContent(mail.NewContent("text/html", msg.HTML))
	}
	if len(msg.Categories) > 0 {
		email.AddCategories(msg.Categories...)
	}
	for _, att := range msg.Attachments {
		a := mail.NewAttachment()
		a.SetFilename(att.Filename)
		a.SetType(att.ContentType)
		a.SetDisposition("attachment")
		a.SetContent(base64.StdEncoding.EncodeToString(att.Content))
		email.AddAttachment(a)
	}
	return email, nil
}

// StatusError reports a SendGrid API rejection.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sendgrid returned status %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Retryable reports whether the request may succeed if repeated.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
