package notification

import (
	"context"
	"errors"

	notificationerrors "github.com/Satyam0004/leave/internal/notification/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=notification_service.go -destination=mock/notification_service_mock.go -package=mock
type Service interface {
	List(ctx context.Context, recipientID string) ([]Notification, error)
	MarkRead(ctx context.Context, notificationID, recipientID string) (*Notification, error)
	ClearAll(ctx context.Context, recipientID string) error
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("notification.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notification.service")
	}
	return &service{repo: repo, logger: l}
}

func (s *service) List(ctx context.Context, recipientID string) ([]Notification, error) {
	if _, err := uuid.Parse(recipientID); err != nil {
		return nil, notificationerrors.ErrInvalidRecipientID
	}
	return s.repo.FindByRecipient(ctx, recipientID)
}

func (s *service) MarkRead(ctx context.Context, notificationID, recipientID string) (*Notification, error) {
	if _, err := uuid.Parse(notificationID); err != nil {
		return nil, notificationerrors.ErrInvalidNotificationID
	}
	recipientUUID, err := uuid.Parse(recipientID)
	if err != nil {
		return nil, notificationerrors.ErrInvalidRecipientID
	}

	n, err := s.repo.FindByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notificationerrors.ErrNotificationNotFound
		}
		return nil, err
	}
	if n.RecipientID != recipientUUID {
		return nil, notificationerrors.ErrNotRecipient
	}

	if n.IsRead {
		return n, nil
	}

	n.IsRead = true
	if err := s.repo.Update(ctx, n); err != nil {
		s.logger.Error("mark notification read failed",
			zap.String("notification_id", notificationID),
			zap.Error(err),
		)
		return nil, err
	}
	return n, nil
}

func (s *service) ClearAll(ctx context.Context, recipientID string) error {
	if _, err := uuid.Parse(recipientID); err != nil {
		return notificationerrors.ErrInvalidRecipientID
	}
	if err := s.repo.DeleteByRecipient(ctx, recipientID); err != nil {
		s.logger.Error("clear notifications failed",
			zap.String("recipient_id", recipientID),
			zap.Error(err),
		)
		return err
	}
	return nil
}
