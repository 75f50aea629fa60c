package route

import (
	"github.com/gofiber/fiber/v2"

	"akademiku_backend/internals/features/notifications/controller"
	"akademiku_backend/internals/features/notifications/service"
	"akademiku_backend/internals/features/notifications/socket"
	authMiddleware "akademiku_backend/internals/middlewares/auth"
)

// NotificationUserRoutes: /api/u/notifications (semua role)
func NotificationUserRoutes(r fiber.Router, inbox *service.Inbox) {
	ctl := controller.NewNotificationController(inbox)

	g := r.Group("/notifications")
	g.Get("/", ctl.ListMine)
	g.Patch("/:id/read", ctl.MarkRead)
}

// SocketRoutes: /ws?token=... (token lewat query karena browser tidak bisa set header)
func SocketRoutes(app *fiber.App, hub *socket.Hub, opts authMiddleware.AuthJWTOpts) {
	opts.AllowQueryToken = true
	app.Get("/ws",
		authMiddleware.AuthJWT(opts),
		socket.RequireUpgrade(),
		socket.Handler(hub),
	)
}
