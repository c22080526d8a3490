package notifications

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"go.uber.org/multierr"

	"github.com/angelmondragon/wedplan-backend/pkg/calendar"
	pkgerrors "github.com/angelmondragon/wedplan-backend/pkg/errors"
	"github.com/angelmondragon/wedplan-backend/pkg/logger"
	"github.com/angelmondragon/wedplan-backend/pkg/money"
	"github.com/angelmondragon/wedplan-backend/pkg/sendgrid"
)

const (
	categoryCustomer = "booking-confirmation"
	categoryOperator = "booking-operator"
)

type mailer interface {
	Send(ctx context.Context, msg sendgrid.Message) error
}

// Service dispatches booking confirmation emails.
type Service struct {
	mail          mailer
	operatorEmail string
	logg          *logger.Logger
}

// NewService wires the notifier. operatorEmail may be empty to skip the
// operator copy.
func NewService(mail mailer, operatorEmail string, logg *logger.Logger) (*Service, error) {
	if mail == nil {
		return nil, errors.New("mailer required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &Service{
		mail:          mail,
		operatorEmail: strings.TrimSpace(operatorEmail),
		logg:          logg,
	}, nil
}

// Notify sends the payer confirmation and the operator copy. Both sends are
// attempted; failures are combined.
func (s *Service) Notify(ctx context.Context, req Request) error {
	if strings.TrimSpace(req.CustomerEmail) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer email is required")
	}
	ctx = s.logg.WithField(ctx, "booking_id", req.BookingID.String())

	var errs error
	if err := s.mail.Send(ctx, customerMessage(req)); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("customer email: %w", err))
	}
	if s.operatorEmail != "" {
		if err := s.mail.Send(ctx, operatorMessage(s.operatorEmail, req)); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("operator email: %w", err))
		}
	}
	if errs != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "send booking notification")
	}

	s.logg.Info(ctx, "booking notification sent")
	return nil
}

func finalDueText(req Request) string {
	if req.RemainingBalance == 0 {
		return "Nothing further is due."
	}
	if req.FinalDueDate == nil {
		return "Your remaining balance will be scheduled once your wedding date is set."
	}
	return fmt.Sprintf("Your remaining balance is due by %s.", calendar.FormatLong(*req.FinalDueDate))
}

func summaryLines(req Request) []string {
	lines := []string{
		fmt.Sprintf("Booked: %s", req.ProductLabel),
		fmt.Sprintf("Charged today: %s", money.Format(req.AmountChargedToday)),
		fmt.Sprintf("Remaining balance: %s", money.Format(req.RemainingBalance)),
		finalDueText(req),
	}
	if req.PlanDescription != "" {
		lines = append(lines, req.PlanDescription)
	}
	return lines
}

func customerMessage(req Request) sendgrid.Message {
	greeting := "Thank you for your booking!"
	if name := strings.TrimSpace(req.CustomerName); name != "" {
		greeting = fmt.Sprintf("Hi %s, thank you for your booking!", name)
	}
	lines := append([]string{greeting, ""}, summaryLines(req)...)
	return sendgrid.Message{
		ToEmail:    req.CustomerEmail,
		ToName:     req.CustomerName,
		Subject:    fmt.Sprintf("Your %s booking is confirmed", req.ProductLabel),
		PlainText:  strings.Join(lines, "\n"),
		HTML:       htmlBody(lines),
		Categories: []string{categoryCustomer},
	}
}

func operatorMessage(to string, req Request) sendgrid.Message {
	lines := append([]string{
		fmt.Sprintf("Booking %s was finalized for %s <%s>.", req.BookingID, req.CustomerName, req.CustomerEmail),
		fmt.Sprintf("Snapshot: %s", req.SnapshotID),
		"",
	}, summaryLines(req)...)
	return sendgrid.Message{
		ToEmail:    to,
		Subject:    fmt.Sprintf("New booking: %s", req.ProductLabel),
		PlainText:  strings.Join(lines, "\n"),
		HTML:       htmlBody(lines),
		Categories: []string{categoryOperator},
	}
}

func htmlBody(lines []string) string {
	var b strings.Builder
	for _, line := range lines {
		if line == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(line))
		b.WriteString("</p>")
	}
	return b.String()
}
