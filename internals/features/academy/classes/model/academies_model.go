package model

import (
	"time"

	"github.com/google/uuid"
)

// AcademyModel merepresentasikan tabel `academies` (direktori, read-only di modul ini)
type AcademyModel struct {
	AcademyID              uuid.UUID `json:"academy_id"               gorm:"column:academy_id;type:uuid;default:gen_random_uuid();primaryKey"`
	AcademyName            string    `json:"academy_name"             gorm:"column:academy_name;type:varchar(120);not null"`
	AcademyPrincipalUserID uuid.UUID `json:"academy_principal_user_id" gorm:"column:academy_principal_user_id;type:uuid;not null;index"`

	AcademyCreatedAt time.Time `json:"academy_created_at" gorm:"column:academy_created_at;type:timestamptz;not null;default:now();autoCreateTime"`
	AcademyUpdatedAt time.Time `json:"academy_updated_at" gorm:"column:academy_updated_at;type:timestamptz;not null;default:now();autoUpdateTime"`
}

func (AcademyModel) TableName() string {
	return "academies"
}
