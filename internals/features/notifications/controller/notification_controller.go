package controller

import (
	"github.com/gofiber/fiber/v2"

	"akademiku_backend/internals/features/notifications/service"
	helper "akademiku_backend/internals/helpers"
)

type NotificationController struct {
	Inbox *service.Inbox
}

func NewNotificationController(inbox *service.Inbox) *NotificationController {
	return &NotificationController{Inbox: inbox}
}

// GET /api/u/notifications
func (ctl *NotificationController) ListMine(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	pg := helper.ResolvePaging(c, 20, 100)
	rows, total, err := ctl.Inbox.List(c.UserContext(), userID, pg)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	pagination := helper.BuildPagination(total, pg)
	return helper.JsonList(c, "ok", rows, &pagination)
}

// PATCH /api/u/notifications/:id/read
func (ctl *NotificationController) MarkRead(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	if err := ctl.Inbox.MarkRead(c.UserContext(), userID, id); err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "Notifikasi ditandai sudah dibaca", fiber.Map{"notification_id": id})
}
