// file: internals/features/academy/refunds/controller/refund_request_controller.go
package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"akademiku_backend/internals/features/academy/refunds/dto"
	"akademiku_backend/internals/features/academy/refunds/model"
	"akademiku_backend/internals/features/academy/refunds/service"
	helper "akademiku_backend/internals/helpers"
	helperAuth "akademiku_backend/internals/helpers/auth"
)

type RefundRequestController struct {
	Svc *service.RefundService
}

func NewRefundRequestController(svc *service.RefundService) *RefundRequestController {
	return &RefundRequestController{Svc: svc}
}

// POST /api/u/refund-requests
func (ctl *RefundRequestController) Create(c *fiber.Ctx) error {
	studentID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.CreateRefundRequestRequest
	if handled, err := helper.BindAndValidate(c, &req); handled {
		return err
	}
	out, err := ctl.Svc.Create(c.UserContext(), studentID, req)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "Pengajuan refund terkirim", out)
}

// PATCH /api/u/refund-requests/:id/cancel
func (ctl *RefundRequestController) Cancel(c *fiber.Ctx) error {
	studentID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	out, err := ctl.Svc.Cancel(c.UserContext(), studentID, id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "Pengajuan refund dibatalkan", out)
}

// GET /api/u/refund-requests?status=&page=&per_page=
func (ctl *RefundRequestController) List(c *fiber.Ctx) error {
	actor, err := helperAuth.ActorFromCtx(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var status *model.RefundRequestStatus
	if raw := strings.ToUpper(strings.TrimSpace(c.Query("status"))); raw != "" {
		st := model.RefundRequestStatus(raw)
		switch st {
		case model.RefundPending, model.RefundApproved, model.RefundPartialApproved, model.RefundRejected, model.RefundCancelled:
			status = &st
		default:
			return helper.JsonError(c, fiber.StatusBadRequest, "status tidak dikenal")
		}
	}

	pg := helper.ResolvePaging(c, 20, 100)
	rows, total, err := ctl.Svc.List(c.UserContext(), actor, status, pg)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	pagination := helper.BuildPagination(total, pg)
	return helper.JsonList(c, "ok", rows, &pagination)
}

// GET /api/u/refund-requests/:id
func (ctl *RefundRequestController) Detail(c *fiber.Ctx) error {
	actor, err := helperAuth.ActorFromCtx(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	out, err := ctl.Svc.Detail(c.UserContext(), actor, id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", out)
}

// PATCH /api/t/refund-requests/:id/approve
func (ctl *RefundRequestController) Approve(c *fiber.Ctx) error {
	actor, err := helperAuth.ActorFromCtx(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	// body opsional (refund penuh)
	var req dto.ApproveRefundRequestRequest
	if len(c.Body()) > 0 {
		if handled, err := helper.BindAndValidate(c, &req); handled {
			return err
		}
	}
	out, err := ctl.Svc.Approve(c.UserContext(), actor, id, req.ActualAmount)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "Refund disetujui", out)
}

// PATCH /api/t/refund-requests/:id/reject
func (ctl *RefundRequestController) Reject(c *fiber.Ctx) error {
	actor, err := helperAuth.ActorFromCtx(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.RejectRefundRequestRequest
	if handled, err := helper.BindAndValidate(c, &req); handled {
		return err
	}
	out, err := ctl.Svc.Reject(c.UserContext(), actor, id, req)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "Refund ditolak", out)
}
