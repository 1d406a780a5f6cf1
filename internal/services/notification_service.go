package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"text/template"
	"time"

	"visitdesk/internal/models"
	"visitdesk/internal/repositories"

	"github.com/google/uuid"
)

// NotificationService dispatches visitor lifecycle notifications. Delivery is
// best-effort: callers invoke it fire-and-forget and a failure never unwinds
// the transition that triggered it.
type NotificationService interface {
	NotifyHost(ctx context.Context, tenantID uuid.UUID, host *models.User, visitor *models.Visitor, event string) error
	NotifyVisitor(ctx context.Context, tenantID uuid.UUID, visitor *models.Visitor, event string) error
	SendWebhook(ctx context.Context, url string, payload map[string]interface{}) error
}

type notificationService struct {
	httpClient *http.Client
	webhookURL string // optional tenant-independent sink, e.g. a gateway relay
	notifyRepo repositories.NotificationRepository
	templates  map[string]*template.Template
}

// NewNotificationService creates a notification service. webhookURL may be
// empty, in which case deliveries are logged only; every attempt is still
// recorded in the notification ledger. The event set is fixed, so all
// templates are parsed up front; render then only reads the map and stays
// safe under concurrent deliveries.
func NewNotificationService(webhookURL string, notifyRepo repositories.NotificationRepository) NotificationService {
	templates := make(map[string]*template.Template, len(messageTemplates))
	for event, raw := range messageTemplates {
		templates[event] = template.Must(template.New(event).Parse(raw))
	}
	return &notificationService{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		webhookURL: webhookURL,
		notifyRepo: notifyRepo,
		templates:  templates,
	}
}

var messageTemplates = map[string]string{
	models.EventVisitorCreated:    "{{.VisitorName}} has requested to visit {{.HostName}}: {{.Purpose}}",
	models.EventVisitorApproved:   "Your visit has been approved. Welcome, {{.VisitorName}}!",
	models.EventVisitorRejected:   "Your visit request could not be approved.",
	models.EventVisitorCheckedOut: "Thank you for your visit, {{.VisitorName}}.",
}

func (s *notificationService) render(event string, data map[string]interface{}) (string, error) {
	tmpl, ok := s.templates[event]
	if !ok {
		return "", fmt.Errorf("no template for event %q", event)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *notificationService) NotifyHost(ctx context.Context, tenantID uuid.UUID, host *models.User, visitor *models.Visitor, event string) error {
	body, err := s.render(event, map[string]interface{}{
		"VisitorName": visitor.Name,
		"HostName":    host.Name,
		"Purpose":     visitor.Purpose,
	})
	if err != nil {
		return err
	}
	return s.deliver(ctx, tenantID, host.Email, event, visitor.ID, body)
}

func (s *notificationService) NotifyVisitor(ctx context.Context, tenantID uuid.UUID, visitor *models.Visitor, event string) error {
	body, err := s.render(event, map[string]interface{}{
		"VisitorName": visitor.Name,
		"Purpose":     visitor.Purpose,
	})
	if err != nil {
		return err
	}
	recipient := visitor.Email
	if recipient == "" {
		recipient = visitor.Phone
	}
	return s.deliver(ctx, tenantID, recipient, event, visitor.ID, body)
}

// channelFor picks the delivery channel for a recipient. With a webhook sink
// configured everything goes through it; otherwise the recipient shape decides
// between email and SMS for the log-only path.
func channelFor(recipient string, webhookConfigured bool) models.NotificationType {
	if webhookConfigured {
		return models.NotificationTypeWebhook
	}
	if strings.Contains(recipient, "@") {
		return models.NotificationTypeEmail
	}
	return models.NotificationTypeSMS
}

func (s *notificationService) deliver(ctx context.Context, tenantID uuid.UUID, recipient, event string, visitorID uuid.UUID, body string) error {
	record := &models.Notification{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Type:      channelFor(recipient, s.webhookURL != ""),
		EventType: event,
		VisitorID: &visitorID,
		Recipient: recipient,
		Body:      body,
		Status:    "pending",
		CreatedAt: time.Now().UTC(),
	}

	var err error
	if s.webhookURL == "" {
		// No provider configured; log-only delivery so development and tests
		// exercise the full path.
		log.Printf("notification [%s] tenant=%s to=%s: %s", event, tenantID, recipient, body)
	} else {
		err = s.SendWebhook(ctx, s.webhookURL, map[string]interface{}{
			"tenant_id":  tenantID.String(),
			"visitor_id": visitorID.String(),
			"event":      event,
			"recipient":  recipient,
			"body":       body,
			"sent_at":    time.Now().UTC().Format(time.RFC3339),
		})
	}

	if err != nil {
		msg := err.Error()
		record.Status = "failed"
		record.Error = &msg
	} else {
		sentAt := time.Now().UTC()
		record.Status = "sent"
		record.SentAt = &sentAt
	}

	// The delivery attempt already happened; a ledger write failure is logged
	// and does not change the outcome.
	if repoErr := s.notifyRepo.Create(ctx, record); repoErr != nil {
		log.Printf("Failed to record notification %s [%s]: %v", record.ID, record.EventType, repoErr)
	}
	return err
}

func (s *notificationService) SendWebhook(ctx context.Context, url string, payload map[string]interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
