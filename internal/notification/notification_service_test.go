package notification_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/Satyam0004/leave/internal/notification"
	notificationerrors "github.com/Satyam0004/leave/internal/notification/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeNotificationRepository struct {
	createFn            func(ctx context.Context, n *notification.Notification) error
	findByIDFn          func(ctx context.Context, id string) (*notification.Notification, error)
	findByRecipientFn   func(ctx context.Context, recipientID string) ([]notification.Notification, error)
	updateFn            func(ctx context.Context, n *notification.Notification) error
	deleteByRecipientFn func(ctx context.Context, recipientID string) error
}

func (f *fakeNotificationRepository) WithTx(tx *sql.Tx) notification.Repository { return f }

func (f *fakeNotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	if f.createFn != nil {
		return f.createFn(ctx, n)
	}
	return nil
}

func (f *fakeNotificationRepository) FindByID(ctx context.Context, id string) (*notification.Notification, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeNotificationRepository) FindByRecipient(ctx context.Context, recipientID string) ([]notification.Notification, error) {
	if f.findByRecipientFn != nil {
		return f.findByRecipientFn(ctx, recipientID)
	}
	return nil, nil
}

func (f *fakeNotificationRepository) Update(ctx context.Context, n *notification.Notification) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, n)
	}
	return nil
}

func (f *fakeNotificationRepository) DeleteByRecipient(ctx context.Context, recipientID string) error {
	if f.deleteByRecipientFn != nil {
		return f.deleteByRecipientFn(ctx, recipientID)
	}
	return nil
}

func TestNotificationService_List(t *testing.T) {
	ctx := context.Background()
	recipientID := uuid.New()

	t.Run("success", func(t *testing.T) {
		repo := &fakeNotificationRepository{
			findByRecipientFn: func(ctx context.Context, rid string) ([]notification.Notification, error) {
				assert.Equal(t, recipientID.String(), rid)
				return []notification.Notification{
					{ID: uuid.New(), RecipientID: recipientID, Message: "newer", CreatedAt: time.Now()},
					{ID: uuid.New(), RecipientID: recipientID, Message: "older", CreatedAt: time.Now().Add(-time.Hour)},
				}, nil
			},
		}

		svc := notification.NewService(repo)
		resp, err := svc.List(ctx, recipientID.String())

		assert.NoError(t, err)
		assert.Len(t, resp, 2)
		assert.Equal(t, "newer", resp[0].Message)
	})

	t.Run("negative malformed recipient id", func(t *testing.T) {
		svc := notification.NewService(&fakeNotificationRepository{})
		_, err := svc.List(ctx, "nope")

		assert.ErrorIs(t, err, notificationerrors.ErrInvalidRecipientID)
	})
}

func TestNotificationService_MarkRead(t *testing.T) {
	ctx := context.Background()
	recipientID := uuid.New()
	notificationID := uuid.New()

	t.Run("success", func(t *testing.T) {
		var updated *notification.Notification
		repo := &fakeNotificationRepository{
			findByIDFn: func(ctx context.Context, id string) (*notification.Notification, error) {
				return &notification.Notification{ID: notificationID, RecipientID: recipientID}, nil
			},
			updateFn: func(ctx context.Context, n *notification.Notification) error {
				updated = n
				return nil
			},
		}

		svc := notification.NewService(repo)
		resp, err := svc.MarkRead(ctx, notificationID.String(), recipientID.String())

		assert.NoError(t, err)
		assert.True(t, resp.IsRead)
		assert.NotNil(t, updated)
	})

	t.Run("already read skips the update", func(t *testing.T) {
		repo := &fakeNotificationRepository{
			findByIDFn: func(ctx context.Context, id string) (*notification.Notification, error) {
				return &notification.Notification{ID: notificationID, RecipientID: recipientID, IsRead: true}, nil
			},
			updateFn: func(ctx context.Context, n *notification.Notification) error {
				t.Fatal("update must not be called")
				return nil
			},
		}

		svc := notification.NewService(repo)
		resp, err := svc.MarkRead(ctx, notificationID.String(), recipientID.String())

		assert.NoError(t, err)
		assert.True(t, resp.IsRead)
	})

	t.Run("negative belongs to another user", func(t *testing.T) {
		repo := &fakeNotificationRepository{
			findByIDFn: func(ctx context.Context, id string) (*notification.Notification, error) {
				return &notification.Notification{ID: notificationID, RecipientID: uuid.New()}, nil
			},
		}

		svc := notification.NewService(repo)
		_, err := svc.MarkRead(ctx, notificationID.String(), recipientID.String())

		assert.ErrorIs(t, err, notificationerrors.ErrNotRecipient)
	})

	t.Run("negative unknown notification", func(t *testing.T) {
		svc := notification.NewService(&fakeNotificationRepository{})
		_, err := svc.MarkRead(ctx, notificationID.String(), recipientID.String())

		assert.ErrorIs(t, err, notificationerrors.ErrNotificationNotFound)
	})
}

func TestNotificationService_ClearAll(t *testing.T) {
	ctx := context.Background()
	recipientID := uuid.New()

	t.Run("success", func(t *testing.T) {
		called := false
		repo := &fakeNotificationRepository{
			deleteByRecipientFn: func(ctx context.Context, rid string) error {
				called = true
				assert.Equal(t, recipientID.String(), rid)
				return nil
			},
		}

		svc := notification.NewService(repo)
		err := svc.ClearAll(ctx, recipientID.String())

		assert.NoError(t, err)
		assert.True(t, called)
	})
}
