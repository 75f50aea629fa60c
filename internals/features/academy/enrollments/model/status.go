package model

import "strings"

/* ======================================================
   ENUM: session_enrollment_status
====================================================== */

type SessionEnrollmentStatus string

const (
	// StatusNone: belum ada reservasi (dipakai sebagai "from" saat create)
	StatusNone SessionEnrollmentStatus = ""

	StatusPending                 SessionEnrollmentStatus = "PENDING"
	StatusConfirmed               SessionEnrollmentStatus = "CONFIRMED"
	StatusRejected                SessionEnrollmentStatus = "REJECTED"
	StatusCancelled               SessionEnrollmentStatus = "CANCELLED"
	StatusTeacherCancelled        SessionEnrollmentStatus = "TEACHER_CANCELLED"
	StatusAttended                SessionEnrollmentStatus = "ATTENDED"
	StatusAbsent                  SessionEnrollmentStatus = "ABSENT"
	StatusRefundRequested         SessionEnrollmentStatus = "REFUND_REQUESTED"
	StatusRefundCancelled         SessionEnrollmentStatus = "REFUND_CANCELLED"
	StatusRefundRejectedConfirmed SessionEnrollmentStatus = "REFUND_REJECTED_CONFIRMED"
)

var allStatuses = []SessionEnrollmentStatus{
	StatusPending, StatusConfirmed, StatusRejected, StatusCancelled, StatusTeacherCancelled,
	StatusAttended, StatusAbsent, StatusRefundRequested, StatusRefundCancelled, StatusRefundRejectedConfirmed,
}

// ParseStatus normalisasi input (case-insensitive). ok=false kalau tidak dikenal.
func ParseStatus(raw string) (SessionEnrollmentStatus, bool) {
	v := SessionEnrollmentStatus(strings.ToUpper(strings.TrimSpace(raw)))
	for _, s := range allStatuses {
		if s == v {
			return s, true
		}
	}
	return StatusNone, false
}

// IsTerminal: status yang tidak punya transisi lanjutan.
func (s SessionEnrollmentStatus) IsTerminal() bool {
	switch s {
	case StatusRejected, StatusCancelled, StatusRefundCancelled:
		return true
	}
	return false
}

// BlocksRebooking: status yang dihitung sebagai "masih aktif" untuk aturan
// no-duplicate-booking. TEACHER_CANCELLED tidak punya edge keluar, jadi murid
// boleh daftar ulang.
func (s SessionEnrollmentStatus) BlocksRebooking() bool {
	return s != StatusNone && !s.IsTerminal() && s != StatusTeacherCancelled
}

// ActiveStatuses dipakai untuk query duplicate check & partial unique index.
func ActiveStatuses() []SessionEnrollmentStatus {
	out := make([]SessionEnrollmentStatus, 0, len(allStatuses))
	for _, s := range allStatuses {
		if s.BlocksRebooking() {
			out = append(out, s)
		}
	}
	return out
}

// edge yang boleh dilakukan guru/admin lewat updateStatus
var teacherTransitions = map[SessionEnrollmentStatus][]SessionEnrollmentStatus{
	StatusPending:   {StatusConfirmed, StatusRejected},
	StatusConfirmed: {StatusTeacherCancelled, StatusAttended, StatusAbsent},
	StatusAttended:  {StatusAbsent},
	StatusAbsent:    {StatusAttended},
}

// CanTeacherTransition: validasi edge updateStatus. Same-status dianggap valid (no-op).
func CanTeacherTransition(from, to SessionEnrollmentStatus) bool {
	if from == to {
		return true
	}
	for _, next := range teacherTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanStudentCancel: pembatalan oleh murid hanya dari PENDING / CONFIRMED.
func CanStudentCancel(s SessionEnrollmentStatus) bool {
	return s == StatusPending || s == StatusConfirmed
}
