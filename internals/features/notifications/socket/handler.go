package socket

import (
	"log"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	helper "akademiku_backend/internals/helpers"
	helperAuth "akademiku_backend/internals/helpers/auth"
)

// RequireUpgrade: tolak request non-websocket (dipasang setelah AuthJWT).
func RequireUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return helper.JsonError(c, fiber.StatusUpgradeRequired, "WebSocket upgrade required")
		}
		return c.Next()
	}
}

// Handler: daftarkan koneksi ke hub, tulis frame keluar, baca sampai putus.
func Handler(h *Hub) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		raw, _ := conn.Locals(helperAuth.LocUserID).(string)
		role, _ := conn.Locals(helperAuth.LocRole).(string)
		userID, err := uuid.Parse(raw)
		if err != nil {
			_ = conn.Close()
			return
		}

		client := h.Register(userID, role, 32)
		log.Printf("[Socket] connect user=%s role=%s conn=%s", userID, role, client.ID)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for frame := range client.Messages() {
				if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
					return
				}
			}
		}()

		// client tidak mengirim apa-apa; loop ini hanya mendeteksi disconnect
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		h.Unregister(client)
		<-done
		_ = conn.Close()
		log.Printf("[Socket] disconnect conn=%s", client.ID)
	})
}
