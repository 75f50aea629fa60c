// models/class_model.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// ClassModel merepresentasikan tabel `classes`
type ClassModel struct {
	// PK & tenant
	ClassID        uuid.UUID `json:"class_id"         gorm:"column:class_id;type:uuid;default:gen_random_uuid();primaryKey"`
	ClassAcademyID uuid.UUID `json:"class_academy_id" gorm:"column:class_academy_id;type:uuid;not null;index"`

	// Pemilik kelas (guru)
	ClassTeacherUserID uuid.UUID `json:"class_teacher_user_id" gorm:"column:class_teacher_user_id;type:uuid;not null;index"`

	// Identitas
	ClassName string `json:"class_name" gorm:"column:class_name;type:varchar(120);not null"`

	// Kapasitas per sesi & biaya (satuan mata uang terkecil)
	ClassMaxStudents int   `json:"class_max_students" gorm:"column:class_max_students;not null;default:0"`
	ClassTuitionFee  int64 `json:"class_tuition_fee"  gorm:"column:class_tuition_fee;type:numeric(12,0);not null;default:0"`

	ClassIsActive bool `json:"class_is_active" gorm:"column:class_is_active;not null;default:true"`

	ClassCreatedAt time.Time `json:"class_created_at" gorm:"column:class_created_at;type:timestamptz;not null;default:now();autoCreateTime"`
	ClassUpdatedAt time.Time `json:"class_updated_at" gorm:"column:class_updated_at;type:timestamptz;not null;default:now();autoUpdateTime"`
}

func (ClassModel) TableName() string {
	return "classes"
}
