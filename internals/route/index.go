// file: internals/route/index.go
package routes

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	notifRoute "akademiku_backend/internals/features/notifications/route"
	"akademiku_backend/internals/features/notifications/socket"
	authMiddleware "akademiku_backend/internals/middlewares/auth"
	routeDetails "akademiku_backend/internals/route/details"
)

var startTime time.Time

// Options: dependency untuk SetupRoutes.
type Options struct {
	JWTSecret        string
	BlacklistChecker func(rawToken string) (bool, error)
	Revoke           authMiddleware.Revoker // nil = logout 503
	Services         routeDetails.Services
	Hub              *socket.Hub // nil = /ws tidak dipasang
	Ping             func() error
}

func SetupRoutes(app *fiber.App, o Options) {
	startTime = time.Now()

	log.Println("[INFO] Setting up BaseRoutes...")
	BaseRoutes(app, o.Ping, o.Hub)

	authOpts := authMiddleware.AuthJWTOpts{
		Secret:           o.JWTSecret,
		BlacklistChecker: o.BlacklistChecker,
	}
	auth := authMiddleware.AuthJWT(authOpts)

	// ===================== PRIVATE (USER) =====================
	log.Println("[INFO] Setting up PRIVATE (user) group...")
	user := app.Group("/api/u", auth)
	user.Post("/auth/logout", authMiddleware.LogoutHandler(o.Revoke))

	// ===================== TEACHER / ADMIN =====================
	log.Println("[INFO] Setting up TEACHER group...")
	teacher := app.Group("/api/t", auth)

	// ===================== MOUNT ROUTES =====================
	log.Println("[INFO] Mounting Academy routes...")
	routeDetails.AcademyUserRoutes(user, o.Services)
	routeDetails.AcademyTeacherRoutes(teacher, o.Services)

	if o.Hub != nil {
		log.Println("[INFO] Mounting socket route /ws...")
		notifRoute.SocketRoutes(app, o.Hub, authOpts)
	}
}
