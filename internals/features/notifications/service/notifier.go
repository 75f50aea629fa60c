// Package service: dispatcher notifikasi best-effort (inbox + socket + push).
// Semua method dipanggil setelah commit; tidak pernah mengembalikan error.
package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"akademiku_backend/internals/features/notifications/model"
	"akademiku_backend/internals/features/notifications/push"
	"akademiku_backend/internals/features/notifications/socket"
	"akademiku_backend/internals/repository"
)

// Dispatcher: kontrak keluar untuk engine reservasi & refund.
type Dispatcher interface {
	NotifyNewEnrollmentRequest(sessionID, studentID uuid.UUID)
	NotifyNewRefundRequest(refundID, studentID, sessionID, academyID uuid.UUID)
	NotifyRefundAccepted(refundID, studentID uuid.UUID)
	NotifyRefundRejected(refundID, studentID uuid.UUID)
	SendPushToUsers(userIDs []uuid.UUID, msg push.Message)
}

type Notifier struct {
	Store   repository.Store
	Sockets socket.Registry
	Push    push.Publisher
	Timeout time.Duration
	Now     func() time.Time

	wg sync.WaitGroup
}

var _ Dispatcher = (*Notifier)(nil)

func NewNotifier(store repository.Store, sockets socket.Registry, pub push.Publisher, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if pub == nil {
		pub = push.LogPublisher{}
	}
	return &Notifier{Store: store, Sockets: sockets, Push: pub, Timeout: timeout, Now: time.Now}
}

// Wait menunggu semua dispatch yang sedang jalan (dipakai test & graceful shutdown).
func (n *Notifier) Wait() { n.wg.Wait() }

// goDetached: jalankan fn di goroutine sendiri dengan timeout; error & panic hanya di-log.
func (n *Notifier) goDetached(name string, fn func(ctx context.Context) error) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[Notify] %s panic: %v", name, r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), n.Timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.Printf("[Notify] %s gagal: %v", name, err)
		}
	}()
}

type note struct {
	Type    model.NotificationType
	Title   string
	Body    string
	Payload map[string]any
}

// deliver: inbox row + socket + push untuk setiap penerima.
func (n *Notifier) deliver(ctx context.Context, recipients []uuid.UUID, nt note) error {
	var firstErr error
	raw, err := sonic.Marshal(nt.Payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	for _, uid := range recipients {
		row := &model.NotificationModel{
			NotificationID:        uuid.New(),
			NotificationUserID:    uid,
			NotificationType:      nt.Type,
			NotificationTitle:     nt.Title,
			NotificationBody:      nt.Body,
			NotificationPayload:   datatypes.JSON(raw),
			NotificationCreatedAt: n.Now(),
		}
		if err := n.Store.CreateNotification(ctx, row); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("inbox %s: %w", uid, err)
		}
		if n.Sockets != nil {
			n.Sockets.SendToUser(uid, string(nt.Type), socketFrame(row))
		}
	}
	if err := n.Push.Publish(ctx, recipients, push.Message{Title: nt.Title, Body: nt.Body}); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("push: %w", err)
	}
	return firstErr
}

// socketFrame: bentuk data socket (ringkas, tanpa kolom internal).
func socketFrame(row *model.NotificationModel) map[string]any {
	return map[string]any{
		"notification_id": row.NotificationID,
		"type":            row.NotificationType,
		"title":           row.NotificationTitle,
		"body":            row.NotificationBody,
		"payload":         row.NotificationPayload,
	}
}

func uniq(ids ...uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// NotifyNewEnrollmentRequest: ke guru pemilik kelas + kepala akademi.
func (n *Notifier) NotifyNewEnrollmentRequest(sessionID, studentID uuid.UUID) {
	n.goDetached("new_enrollment_request", func(ctx context.Context) error {
		sess, err := n.Store.GetClassSession(ctx, sessionID, false)
		if err != nil {
			return fmt.Errorf("sesi %s: %w", sessionID, err)
		}
		class, err := n.Store.GetClass(ctx, sess.ClassSessionClassID)
		if err != nil {
			return fmt.Errorf("kelas %s: %w", sess.ClassSessionClassID, err)
		}
		recipients := []uuid.UUID{class.ClassTeacherUserID}
		if academy, err := n.Store.GetAcademy(ctx, class.ClassAcademyID); err == nil {
			recipients = append(recipients, academy.AcademyPrincipalUserID)
		} else {
			log.Printf("[Notify] akademi %s tidak terbaca: %v", class.ClassAcademyID, err)
		}

		return n.deliver(ctx, uniq(recipients...), note{
			Type:  model.NotifNewEnrollmentRequest,
			Title: "Reservasi baru",
			Body:  fmt.Sprintf("Ada reservasi baru untuk kelas %s (%s)", class.ClassName, sess.ClassSessionStartsAt.Format("2006-01-02 15:04")),
			Payload: map[string]any{
				"class_session_id": sessionID,
				"class_id":         class.ClassID,
				"student_user_id":  studentID,
			},
		})
	})
}

// NotifyNewRefundRequest: ke kepala akademi saja.
func (n *Notifier) NotifyNewRefundRequest(refundID, studentID, sessionID, academyID uuid.UUID) {
	n.goDetached("new_refund_request", func(ctx context.Context) error {
		academy, err := n.Store.GetAcademy(ctx, academyID)
		if err != nil {
			return fmt.Errorf("akademi %s: %w", academyID, err)
		}
		return n.deliver(ctx, uniq(academy.AcademyPrincipalUserID), note{
			Type:  model.NotifNewRefundRequest,
			Title: "Pengajuan refund baru",
			Body:  "Seorang murid mengajukan refund dan menunggu proses.",
			Payload: map[string]any{
				"refund_request_id": refundID,
				"student_user_id":   studentID,
				"class_session_id":  sessionID,
			},
		})
	})
}

func (n *Notifier) NotifyRefundAccepted(refundID, studentID uuid.UUID) {
	n.goDetached("refund_accepted", func(ctx context.Context) error {
		return n.deliver(ctx, uniq(studentID), note{
			Type:    model.NotifRefundAccepted,
			Title:   "Refund disetujui",
			Body:    "Pengajuan refund kamu sudah disetujui.",
			Payload: map[string]any{"refund_request_id": refundID},
		})
	})
}

func (n *Notifier) NotifyRefundRejected(refundID, studentID uuid.UUID) {
	n.goDetached("refund_rejected", func(ctx context.Context) error {
		return n.deliver(ctx, uniq(studentID), note{
			Type:    model.NotifRefundRejected,
			Title:   "Refund ditolak",
			Body:    "Pengajuan refund kamu ditolak. Reservasi tetap aktif.",
			Payload: map[string]any{"refund_request_id": refundID},
		})
	})
}

// SendPushToUsers: push saja, tanpa inbox.
func (n *Notifier) SendPushToUsers(userIDs []uuid.UUID, msg push.Message) {
	ids := uniq(userIDs...)
	n.goDetached("push_users", func(ctx context.Context) error {
		return n.Push.Publish(ctx, ids, msg)
	})
}
