package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Satyam0004/leave/internal/events"
	"github.com/Satyam0004/leave/internal/notification"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ConsumeLeaveNotifications reads queued leave notification events and
// persists one notification row per event. The event's notification id is
// the row's primary key, so redelivered messages hit the unique constraint
// and are skipped instead of duplicated.
func ConsumeLeaveNotifications(
	ctx context.Context,
	reader *kafkago.Reader,
	repo notification.Repository,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.leave_notifications")
	log.Info("leave notification consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("leave notification consumer stopped")
				return
			}
			log.Error("fetch leave notification message failed", zap.Error(err))
			continue
		}

		var event events.LeaveNotificationEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode leave notification event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		row, err := notificationFromEvent(event)
		if err != nil {
			log.Error("invalid leave notification event, skipping",
				zap.String("notification_id", event.NotificationID),
				zap.Error(err),
			)
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if err := repo.Create(ctx, row); err != nil {
			if isDuplicateNotification(err) {
				log.Warn("notification already persisted for event, skipping",
					zap.String("notification_id", event.NotificationID),
					zap.String("recipient_id", event.RecipientID),
				)
				_ = reader.CommitMessages(ctx, msg)
				continue
			}

			log.Error("persist leave notification failed",
				zap.String("notification_id", event.NotificationID),
				zap.String("recipient_id", event.RecipientID),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit leave notification message failed", zap.Error(err))
			continue
		}

		log.Info("leave notification persisted",
			zap.String("notification_id", event.NotificationID),
			zap.String("recipient_id", event.RecipientID),
		)
	}
}

func notificationFromEvent(event events.LeaveNotificationEvent) (*notification.Notification, error) {
	id, err := uuid.Parse(event.NotificationID)
	if err != nil {
		return nil, err
	}
	recipientID, err := uuid.Parse(event.RecipientID)
	if err != nil {
		return nil, err
	}

	row := &notification.Notification{
		ID:          id,
		RecipientID: recipientID,
		Message:     event.Message,
		CreatedAt:   event.OccurredAt,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if leaveID, err := uuid.Parse(event.LeaveID); err == nil {
		row.LeaveID = &leaveID
	}
	return row, nil
}

func isDuplicateNotification(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, "notifications")
	}

	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate key value") && strings.Contains(errMsg, "notifications")
}
