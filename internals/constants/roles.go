package constants

import "fmt"

// Role (lowercase, sama dengan klaim di JWT)
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// Template pesan error role
const (
	ErrOnlyStudentsCanAccess = "❌ Hanya murid yang boleh mengakses fitur %s."
	ErrOnlyTeachersCanAccess = "❌ Hanya teacher atau admin yang boleh mengakses fitur %s."
)

func RoleErrorStudent(feature string) string {
	return fmt.Sprintf(ErrOnlyStudentsCanAccess, feature)
}

func RoleErrorTeacher(feature string) string {
	return fmt.Sprintf(ErrOnlyTeachersCanAccess, feature)
}

// ==========================
// ✅ Grouped Role Slices
// ==========================
var (
	AllRoles        = []string{RoleStudent, RoleTeacher, RoleAdmin}
	StudentOnly     = []string{RoleStudent}
	TeacherAndAbove = []string{RoleTeacher, RoleAdmin}
)
