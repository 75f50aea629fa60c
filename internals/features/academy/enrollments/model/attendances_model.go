package model

import (
	"time"

	"github.com/google/uuid"
)

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "ATTENDED"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
)

// SessionAttendanceModel: satu baris per (sesi, murid), di-upsert oleh guru
type SessionAttendanceModel struct {
	SessionAttendanceID            uuid.UUID        `gorm:"column:session_attendance_id;type:uuid;default:gen_random_uuid();primaryKey" json:"session_attendance_id"`
	SessionAttendanceSessionID     uuid.UUID        `gorm:"column:session_attendance_session_id;type:uuid;not null;uniqueIndex:uq_session_attendance_session_student" json:"session_attendance_session_id"`
	SessionAttendanceStudentUserID uuid.UUID        `gorm:"column:session_attendance_student_user_id;type:uuid;not null;uniqueIndex:uq_session_attendance_session_student" json:"session_attendance_student_user_id"`
	SessionAttendanceStatus        AttendanceStatus `gorm:"column:session_attendance_status;type:varchar(20);not null" json:"session_attendance_status"`
	SessionAttendanceCheckedBy     uuid.UUID        `gorm:"column:session_attendance_checked_by;type:uuid;not null" json:"session_attendance_checked_by"`
	SessionAttendanceCheckedAt     time.Time        `gorm:"column:session_attendance_checked_at;type:timestamptz;not null" json:"session_attendance_checked_at"`

	SessionAttendanceCreatedAt time.Time `gorm:"column:session_attendance_created_at;type:timestamptz;not null;default:now();autoCreateTime" json:"session_attendance_created_at"`
	SessionAttendanceUpdatedAt time.Time `gorm:"column:session_attendance_updated_at;type:timestamptz;not null;default:now();autoUpdateTime" json:"session_attendance_updated_at"`
}

func (SessionAttendanceModel) TableName() string {
	return "session_attendances"
}
