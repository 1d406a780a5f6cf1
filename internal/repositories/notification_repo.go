package repositories

import (
	"context"
	"time"

	"visitdesk/internal/models"

	"github.com/google/uuid"
)

// NotificationRepository is a delivery ledger: every attempted notification is
// recorded with its outcome. Rows are never updated after insert.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
}

type notificationRepo struct {
	db Database
}

func NewNotificationRepo(db Database) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO notifications (id, tenant_id, type, event_type, visitor_id, recipient,
			subject, body, status, error, sent_at, retry_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.Exec(ctx, query, n.ID, n.TenantID, n.Type, n.EventType, n.VisitorID, n.Recipient,
		n.Subject, n.Body, n.Status, n.Error, n.SentAt, n.RetryCount, n.CreatedAt)
	return err
}
