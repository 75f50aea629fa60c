package service

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"akademiku_backend/internals/features/notifications/dto"
	helper "akademiku_backend/internals/helpers"
	"akademiku_backend/internals/repository"
)

// Inbox: baca & tandai notifikasi milik user yang login.
type Inbox struct {
	Store repository.Store
	Now   func() time.Time
}

func NewInbox(store repository.Store) *Inbox {
	return &Inbox{Store: store, Now: time.Now}
}

func (i *Inbox) List(ctx context.Context, userID uuid.UUID, pg helper.Paging) ([]dto.NotificationResponse, int64, error) {
	rows, total, err := i.Store.ListNotificationsByUser(ctx, userID, pg.Limit, pg.Offset)
	if err != nil {
		return nil, 0, err
	}
	return dto.FromNotificationModels(rows), total, nil
}

// MarkRead idempotent; notifikasi milik user lain dianggap tidak ada.
func (i *Inbox) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	now := time.Now()
	if i.Now != nil {
		now = i.Now()
	}
	if err := i.Store.MarkNotificationRead(ctx, id, userID, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Notifikasi tidak ditemukan")
		}
		return err
	}
	return nil
}
