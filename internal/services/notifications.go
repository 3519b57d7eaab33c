package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// NotificationService delivers a digest of a completed run to the manager.
type NotificationService interface {
	SendGameweekSummary(result *RecommendationResult) error
	SendMessage(phoneNumber, message string) error
}

// MockNotificationService logs instead of sending. Used in development and
// whenever Twilio credentials are absent.
type MockNotificationService struct{}

func NewMockNotificationService() *MockNotificationService {
	return &MockNotificationService{}
}

func (s *MockNotificationService) SendGameweekSummary(result *RecommendationResult) error {
	logrus.Infof("MOCK SMS: gameweek %d summary:\n%s", result.Gameweek, FormatGameweekSummary(result))
	return nil
}

func (s *MockNotificationService) SendMessage(phoneNumber, message string) error {
	logrus.Infof("MOCK SMS: send to %s: %s", phoneNumber, message)
	return nil
}

// TwilioNotificationService sends run summaries over SMS via Twilio.
type TwilioNotificationService struct {
	client     *twilio.RestClient
	fromNumber string
	toNumber   string
}

func NewTwilioNotificationService(accountSID, authToken, fromNumber, toNumber string) *TwilioNotificationService {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioNotificationService{
		client:     client,
		fromNumber: fromNumber,
		toNumber:   toNumber,
	}
}

func (s *TwilioNotificationService) SendGameweekSummary(result *RecommendationResult) error {
	return s.SendMessage(s.toNumber, FormatGameweekSummary(result))
}

func (s *TwilioNotificationService) SendMessage(phoneNumber, message string) error {
	normalized, err := normalizePhoneNumber(phoneNumber)
	if err != nil {
		return fmt.Errorf("invalid phone number format: %w", err)
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(normalized)
	params.SetFrom(s.fromNumber)
	params.SetBody(message)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}

	if resp.Sid != nil {
		logrus.WithField("sid", *resp.Sid).Debug("SMS sent")
	}
	return nil
}

// FormatGameweekSummary renders a compact text digest of a run, suitable
// for a single SMS segment chain.
func FormatGameweekSummary(result *RecommendationResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "GW%d recommendations\n", result.Gameweek)

	if len(result.Captains) > 0 {
		top := result.Captains[0]
		fmt.Fprintf(&b, "Captain: %s (%.1f)\n", top.Name, top.CaptainScore)
	}
	if result.Vice != nil {
		fmt.Fprintf(&b, "Vice: %s\n", result.Vice.Name)
	}

	for i, t := range result.Transfers {
		if i >= 3 {
			break
		}
		fmt.Fprintf(&b, "OUT %s IN %s (+%.1f)\n", t.OutName, t.InName, t.Improvement)
	}
	if len(result.Transfers) == 0 {
		b.WriteString("No transfers worth making\n")
	}

	fmt.Fprintf(&b, "Sources: %s", strings.Join(result.Sources, ", "))
	return b.String()
}

var (
	phoneCleaner = regexp.MustCompile(`[^\d+]`)
	e164Pattern  = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)
	ukLocal      = regexp.MustCompile(`^0\d{10}$`)
)

// normalizePhoneNumber coerces input into E.164, assuming a UK number when
// given the local 0-prefixed form.
func normalizePhoneNumber(phone string) (string, error) {
	cleaned := phoneCleaner.ReplaceAllString(phone, "")

	if !strings.HasPrefix(cleaned, "+") {
		if ukLocal.MatchString(cleaned) {
			cleaned = "+44" + cleaned[1:]
		} else {
			return "", fmt.Errorf("missing country code")
		}
	}

	if !e164Pattern.MatchString(cleaned) {
		return "", fmt.Errorf("not a valid E.164 number")
	}
	return cleaned, nil
}
