// file: internals/features/academy/classes/dto/class_session_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"

	"akademiku_backend/internals/features/academy/classes/model"
	"akademiku_backend/internals/helpers/dbtime"
)

/* =========================================================
   REQUEST
========================================================= */

// Tanggal "YYYY-MM-DD", jam "HH:mm" (zona waktu akademi)
type CreateClassSessionRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

// PATCH: field nil = tidak diubah
type UpdateClassSessionRequest struct {
	Date      *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
}

/* =========================================================
   RESPONSE
========================================================= */

type ClassSessionResponse struct {
	ClassSessionID  uuid.UUID  `json:"class_session_id"`
	ClassID         uuid.UUID  `json:"class_id"`
	ClassName       string     `json:"class_name,omitempty"`
	Date            string     `json:"date"`
	StartTime       dbtime.Tod `json:"start_time"`
	EndTime         dbtime.Tod `json:"end_time"`
	StartsAt        time.Time  `json:"starts_at"`
	EndsAt          time.Time  `json:"ends_at"`
	MaxStudents     int        `json:"max_students"`
	CurrentStudents int        `json:"current_students"`
	RemainingSeats  int        `json:"remaining_seats"`
	HasStarted      bool       `json:"has_started"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func FromClassSessionModel(m model.ClassSessionModel, class *model.ClassModel, loc *time.Location, now time.Time) ClassSessionResponse {
	starts := dbtime.ToAcademyTime(m.ClassSessionStartsAt, loc)
	ends := dbtime.ToAcademyTime(m.ClassSessionEndsAt, loc)

	out := ClassSessionResponse{
		ClassSessionID:  m.ClassSessionID,
		ClassID:         m.ClassSessionClassID,
		Date:            starts.Format("2006-01-02"),
		StartTime:       dbtime.From(starts),
		EndTime:         dbtime.From(ends),
		StartsAt:        starts,
		EndsAt:          ends,
		CurrentStudents: m.ClassSessionCurrentStudents,
		HasStarted:      m.HasStarted(now),
		CreatedAt:       m.ClassSessionCreatedAt,
		UpdatedAt:       m.ClassSessionUpdatedAt,
	}
	if class != nil {
		out.ClassName = class.ClassName
		out.MaxStudents = class.ClassMaxStudents
		out.RemainingSeats = class.ClassMaxStudents - m.ClassSessionCurrentStudents
		if out.RemainingSeats < 0 {
			out.RemainingSeats = 0
		}
	}
	return out
}

func FromClassSessionModels(rows []model.ClassSessionModel, class *model.ClassModel, loc *time.Location, now time.Time) []ClassSessionResponse {
	out := make([]ClassSessionResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromClassSessionModel(r, class, loc, now))
	}
	return out
}
