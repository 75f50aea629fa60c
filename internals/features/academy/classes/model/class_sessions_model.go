package model

import (
	"time"

	"github.com/google/uuid"
)

// ClassSessionModel merepresentasikan tabel `class_sessions`.
// Sesi sudah di-materialize (bukan hasil rule berulang).
type ClassSessionModel struct {
	ClassSessionID      uuid.UUID `json:"class_session_id"       gorm:"column:class_session_id;type:uuid;default:gen_random_uuid();primaryKey"`
	ClassSessionClassID uuid.UUID `json:"class_session_class_id" gorm:"column:class_session_class_id;type:uuid;not null;index"`

	// Jadwal: date + jam mulai/selesai (disimpan absolut di starts_at/ends_at)
	ClassSessionDate     time.Time `json:"class_session_date"      gorm:"column:class_session_date;type:date;not null;index"`
	ClassSessionStartsAt time.Time `json:"class_session_starts_at" gorm:"column:class_session_starts_at;type:timestamptz;not null"`
	ClassSessionEndsAt   time.Time `json:"class_session_ends_at"   gorm:"column:class_session_ends_at;type:timestamptz;not null"`

	// Counter kursi terisi (cache dari SUM occupancy events)
	ClassSessionCurrentStudents int `json:"class_session_current_students" gorm:"column:class_session_current_students;not null;default:0"`

	ClassSessionCreatedAt time.Time `json:"class_session_created_at" gorm:"column:class_session_created_at;type:timestamptz;not null;default:now();autoCreateTime"`
	ClassSessionUpdatedAt time.Time `json:"class_session_updated_at" gorm:"column:class_session_updated_at;type:timestamptz;not null;default:now();autoUpdateTime"`
}

func (ClassSessionModel) TableName() string {
	return "class_sessions"
}

// HasStarted: true kalau jam mulai sudah lewat (atau tepat sekarang).
func (s *ClassSessionModel) HasStarted(now time.Time) bool {
	return !now.Before(s.ClassSessionStartsAt)
}
