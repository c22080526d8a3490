package notifications

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/wedplan-backend/pkg/errors"
	"github.com/angelmondragon/wedplan-backend/pkg/logger"
	"github.com/angelmondragon/wedplan-backend/pkg/money"
	"github.com/angelmondragon/wedplan-backend/pkg/sendgrid"
)

type recordingMailer struct {
	sent []sendgrid.Message
	fail map[string]error
}

func (m *recordingMailer) Send(ctx context.Context, msg sendgrid.Message) error {
	m.sent = append(m.sent, msg)
	if err, ok := m.fail[msg.ToEmail]; ok {
		return err
	}
	return nil
}

func depositRequest() Request {
	due := time.Date(2025, 9, 5, 0, 0, 0, 0, time.UTC)
	return Request{
		BookingID:          uuid.New(),
		SnapshotID:         uuid.New(),
		CustomerName:       "Jamie",
		CustomerEmail:      "jamie@example.com",
		ProductLabel:       "The Grand Hall",
		AmountChargedToday: money.Cents(25000),
		RemainingBalance:   money.Cents(75000),
		FinalDueDate:       &due,
	}
}

func TestNotifySendsCustomerAndOperator(t *testing.T) {
	m := &recordingMailer{}
	svc, err := NewService(m, "ops@example.com", logger.Nop())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := svc.Notify(context.Background(), depositRequest()); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(m.sent) != 2 {
		t.Fatalf("expected 2 emails, got %d", len(m.sent))
	}

	customer := m.sent[0]
	if customer.ToEmail != "jamie@example.com" {
		t.Fatalf("unexpected recipient %q", customer.ToEmail)
	}
	for _, want := range []string{"$250.00", "$750.00", "September 5, 2025", "The Grand Hall"} {
		if !strings.Contains(customer.PlainText, want) {
			t.Fatalf("customer body missing %q:\n%s", want, customer.PlainText)
		}
	}
	if m.sent[1].ToEmail != "ops@example.com" {
		t.Fatalf("unexpected operator recipient %q", m.sent[1].ToEmail)
	}
}

func TestNotifySkipsOperatorWhenUnset(t *testing.T) {
	m := &recordingMailer{}
	svc, _ := NewService(m, " ", logger.Nop())

	if err := svc.Notify(context.Background(), depositRequest()); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(m.sent) != 1 {
		t.Fatalf("expected only the customer email, got %d", len(m.sent))
	}
}

func TestNotifyUnresolvedBalanceWording(t *testing.T) {
	m := &recordingMailer{}
	svc, _ := NewService(m, "", logger.Nop())

	req := depositRequest()
	req.FinalDueDate = nil
	if err := svc.Notify(context.Background(), req); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if !strings.Contains(m.sent[0].PlainText, "once your wedding date is set") {
		t.Fatalf("expected unresolved wording, got:\n%s", m.sent[0].PlainText)
	}
}

func TestNotifyAttemptsBothOnFailure(t *testing.T) {
	m := &recordingMailer{fail: map[string]error{"jamie@example.com": errors.New("429 too many requests")}}
	svc, _ := NewService(m, "ops@example.com", logger.Nop())

	err := svc.Notify(context.Background(), depositRequest())
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if len(m.sent) != 2 {
		t.Fatalf("operator email should still be attempted, got %d sends", len(m.sent))
	}
}

func TestNotifyRequiresCustomerEmail(t *testing.T) {
	svc, _ := NewService(&recordingMailer{}, "", logger.Nop())
	req := depositRequest()
	req.CustomerEmail = ""
	if err := svc.Notify(context.Background(), req); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
