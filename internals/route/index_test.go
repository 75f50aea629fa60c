package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	classService "akademiku_backend/internals/features/academy/classes/service"
	"akademiku_backend/internals/features/academy/enrollments/occupancy"
	enrollService "akademiku_backend/internals/features/academy/enrollments/service"
	refundService "akademiku_backend/internals/features/academy/refunds/service"
	notifService "akademiku_backend/internals/features/notifications/service"
	helper "akademiku_backend/internals/helpers"
	routeDetails "akademiku_backend/internals/route/details"
	"akademiku_backend/internals/testkit"
)

const testSecret = "rahasia-test"

type envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	ErrorCode string          `json:"error_code"`
	Data      json.RawMessage `json:"data"`
}

type testApp struct {
	app *fiber.App
	f   *testkit.Fixture
	rec *testkit.RecordingDispatcher
}

func newTestApp(t *testing.T, capacity int, blacklisted string) *testApp {
	f := testkit.New(t, capacity)
	rec := &testkit.RecordingDispatcher{}
	ledger := occupancy.New()
	ledger.Now = f.Clock.Now

	sessions := classService.NewSessionService(f.Store, time.UTC)
	sessions.Now = f.Clock.Now
	enrollments := enrollService.NewEnrollmentService(f.Store, ledger, rec)
	enrollments.Now = f.Clock.Now
	refunds := refundService.NewRefundService(f.Store, ledger, rec)
	refunds.Now = f.Clock.Now

	var revoked sync.Map
	if blacklisted != "" {
		revoked.Store(blacklisted, true)
	}

	app := fiber.New(fiber.Config{ErrorHandler: helper.FromFiberError})
	SetupRoutes(app, Options{
		JWTSecret: testSecret,
		BlacklistChecker: func(raw string) (bool, error) {
			_, ok := revoked.Load(raw)
			return ok, nil
		},
		Revoke: func(_ context.Context, raw string, ttl time.Duration) error {
			if ttl <= 0 {
				return fmt.Errorf("ttl %s", ttl)
			}
			revoked.Store(raw, true)
			return nil
		},
		Services: routeDetails.Services{
			Sessions:    sessions,
			Enrollments: enrollments,
			Refunds:     refunds,
			Inbox:       notifService.NewInbox(f.Store),
		},
		Ping: func() error { return nil },
	})
	return &testApp{app: app, f: f, rec: rec}
}

func token(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":   userID.String(),
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func (a *testApp) do(t *testing.T, method, path, bearer string, body any) (int, envelope) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+bearer)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &env))
	}
	return resp.StatusCode, env
}

func TestHealthAndAuthGuards(t *testing.T) {
	a := newTestApp(t, 2, "")

	code, _ := a.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, fiber.StatusOK, code)

	code, env := a.do(t, http.MethodGet, "/api/u/session-enrollments/me", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, code)
	assert.False(t, env.Success)
	assert.Equal(t, "UNAUTHORIZED", env.ErrorCode)

	code, _ = a.do(t, http.MethodGet, "/api/u/session-enrollments/me", "bukan.token.valid", nil)
	assert.Equal(t, fiber.StatusUnauthorized, code)

	// guru tidak boleh reservasi
	teacher := token(t, a.f.Teacher, "teacher")
	code, env = a.do(t, http.MethodGet, "/api/u/session-enrollments/me", teacher, nil)
	assert.Equal(t, fiber.StatusForbidden, code)
	assert.Equal(t, "FORBIDDEN", env.ErrorCode)

	// murid tidak boleh ke grup guru
	student := token(t, uuid.New(), "student")
	code, _ = a.do(t, http.MethodPatch, "/api/t/session-enrollments/"+uuid.NewString()+"/status", student, map[string]any{"status": "CONFIRMED"})
	assert.Equal(t, fiber.StatusForbidden, code)
}

func TestRevokedTokenRejected(t *testing.T) {
	revoked := token(t, uuid.New(), "student")
	a := newTestApp(t, 2, revoked)

	code, env := a.do(t, http.MethodGet, "/api/u/session-enrollments/me", revoked, nil)
	assert.Equal(t, fiber.StatusUnauthorized, code)
	assert.Equal(t, "Token revoked", env.Message)
}

func TestLogoutRevokesToken(t *testing.T) {
	a := newTestApp(t, 2, "")
	tok := token(t, uuid.New(), "student")

	code, _ := a.do(t, http.MethodGet, "/api/u/session-enrollments/me", tok, nil)
	require.Equal(t, fiber.StatusOK, code)

	code, env := a.do(t, http.MethodPost, "/api/u/auth/logout", tok, nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.True(t, env.Success)

	code, env = a.do(t, http.MethodGet, "/api/u/session-enrollments/me", tok, nil)
	assert.Equal(t, fiber.StatusUnauthorized, code)
	assert.Equal(t, "Token revoked", env.Message)

	// token lain dari user lain tetap jalan
	code, _ = a.do(t, http.MethodGet, "/api/u/session-enrollments/me", token(t, uuid.New(), "student"), nil)
	assert.Equal(t, fiber.StatusOK, code)
}

func TestEnrollmentAndRefundOverHTTP(t *testing.T) {
	a := newTestApp(t, 1, "")
	sess := a.f.Session(t, 48*time.Hour)
	studentID := uuid.New()
	student := token(t, studentID, "student")
	teacher := token(t, a.f.Teacher, "teacher")

	// validasi body
	code, env := a.do(t, http.MethodPost, "/api/u/session-enrollments", student, map[string]any{"class_session_id": "x"})
	assert.Equal(t, fiber.StatusUnprocessableEntity, code)
	assert.Equal(t, "VALIDATION_ERROR", env.ErrorCode)

	code, env = a.do(t, http.MethodPost, "/api/u/session-enrollments", student, map[string]any{"class_session_id": sess.ClassSessionID})
	require.Equal(t, fiber.StatusCreated, code)
	var created struct {
		SessionEnrollmentID uuid.UUID `json:"session_enrollment_id"`
		Status              string    `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "PENDING", created.Status)

	// sesi penuh
	other := token(t, uuid.New(), "student")
	code, env = a.do(t, http.MethodPost, "/api/u/session-enrollments", other, map[string]any{"class_session_id": sess.ClassSessionID})
	assert.Equal(t, fiber.StatusConflict, code)
	assert.Equal(t, "CONFLICT", env.ErrorCode)

	eid := created.SessionEnrollmentID.String()
	code, _ = a.do(t, http.MethodPatch, "/api/t/session-enrollments/"+eid+"/status", teacher, map[string]any{"status": "CONFIRMED"})
	require.Equal(t, fiber.StatusOK, code)

	refundBody := func(holder string) map[string]any {
		return map[string]any{
			"session_enrollment_id": eid,
			"reason":                "Sakit",
			"amount":                50000,
			"bank_name":             "BSI",
			"account_number":        "7000000001",
			"account_holder":        holder,
		}
	}

	// nama pemilik rekening dibatasi sama dengan kolomnya (varchar 80)
	code, env = a.do(t, http.MethodPost, "/api/u/refund-requests", student, refundBody(strings.Repeat("a", 81)))
	assert.Equal(t, fiber.StatusUnprocessableEntity, code)
	assert.Equal(t, "VALIDATION_ERROR", env.ErrorCode)

	code, env = a.do(t, http.MethodPost, "/api/u/refund-requests", student, map[string]any{
		"session_enrollment_id": eid,
		"reason":                "Sakit",
		"amount":                50000,
		"bank_name":             "BSI",
		"account_number":        "7000000001",
		"account_holder":        strings.Repeat("a", 80),
	})
	require.Equal(t, fiber.StatusCreated, code)
	var refund struct {
		RefundRequestID uuid.UUID `json:"refund_request_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &refund))

	code, _ = a.do(t, http.MethodPatch, "/api/t/refund-requests/"+refund.RefundRequestID.String()+"/approve", teacher, nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, 0, a.f.CurrentStudents(t, sess.ClassSessionID))

	code, env = a.do(t, http.MethodGet, "/api/u/refund-requests?status=APPROVED", student, nil)
	require.Equal(t, fiber.StatusOK, code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)

	code, _ = a.do(t, http.MethodGet, "/api/u/refund-requests?status=NGAWUR", student, nil)
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, env = a.do(t, http.MethodGet, "/api/t/class-sessions/"+sess.ClassSessionID.String()+"/occupancy", teacher, nil)
	require.Equal(t, fiber.StatusOK, code)
	var audit occupancy.Report
	require.NoError(t, json.Unmarshal(env.Data, &audit))
	assert.True(t, audit.Consistent)
	// booking +1, refund disetujui -1
	require.Len(t, audit.Events, 2)
	assert.Equal(t, 1, audit.Events[0].OccupancyEventDelta)
	assert.Equal(t, -1, audit.Events[1].OccupancyEventDelta)

	assert.Equal(t, 1, a.rec.Count("new_enrollment_request"))
	assert.Equal(t, 1, a.rec.Count("refund_accepted"))
}

func TestBadUUIDParam(t *testing.T) {
	a := newTestApp(t, 1, "")
	student := token(t, uuid.New(), "student")

	code, env := a.do(t, http.MethodPatch, "/api/u/session-enrollments/bukan-uuid/cancel", student, nil)
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.False(t, env.Success)
}
