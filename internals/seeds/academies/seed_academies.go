package academies

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"gorm.io/gorm"

	classModel "akademiku_backend/internals/features/academy/classes/model"
)

// Directory: isi file seed (akademi + kelas). Keduanya read-only bagi engine reservasi.
type Directory struct {
	Academies []classModel.AcademyModel `json:"academies"`
	Classes   []classModel.ClassModel   `json:"classes"`
}

// ReadDirectory membaca file JSON berbentuk Directory.
func ReadDirectory(filePath string) (*Directory, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("baca seed %s: %w", filePath, err)
	}
	var dir Directory
	if err := sonic.Unmarshal(raw, &dir); err != nil {
		return nil, fmt.Errorf("parse seed %s: %w", filePath, err)
	}
	for i, c := range dir.Classes {
		if c.ClassAcademyID == uuid.Nil {
			return nil, fmt.Errorf("seed %s: kelas #%d tanpa class_academy_id", filePath, i)
		}
		if c.ClassMaxStudents < 0 {
			return nil, fmt.Errorf("seed %s: kelas %q class_max_students negatif", filePath, c.ClassName)
		}
	}
	return &dir, nil
}

// SeedDirectoryFromJSON: insert akademi & kelas yang belum ada (berdasarkan ID).
func SeedDirectoryFromJSON(db *gorm.DB, filePath string) (inserted int, err error) {
	log.Println("📥 Membaca file:", filePath)
	dir, err := ReadDirectory(filePath)
	if err != nil {
		return 0, err
	}

	for _, a := range dir.Academies {
		if a.AcademyID == uuid.Nil {
			a.AcademyID = uuid.New()
		}
		var existing classModel.AcademyModel
		err := db.Where("academy_id = ?", a.AcademyID).First(&existing).Error
		if err == nil {
			log.Printf("ℹ️ Akademi %s sudah ada, lewati...", a.AcademyID)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return inserted, fmt.Errorf("cek akademi %s: %w", a.AcademyID, err)
		}
		if err := db.Create(&a).Error; err != nil {
			return inserted, fmt.Errorf("insert akademi %s: %w", a.AcademyName, err)
		}
		log.Printf("✅ Berhasil insert akademi %s", a.AcademyName)
		inserted++
	}

	for _, c := range dir.Classes {
		if c.ClassID == uuid.Nil {
			c.ClassID = uuid.New()
		}
		var existing classModel.ClassModel
		err := db.Where("class_id = ?", c.ClassID).First(&existing).Error
		if err == nil {
			log.Printf("ℹ️ Kelas %s sudah ada, lewati...", c.ClassID)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return inserted, fmt.Errorf("cek kelas %s: %w", c.ClassID, err)
		}
		if err := db.Create(&c).Error; err != nil {
			return inserted, fmt.Errorf("insert kelas %s: %w", c.ClassName, err)
		}
		log.Printf("✅ Berhasil insert kelas %s (max %d)", c.ClassName, c.ClassMaxStudents)
		inserted++
	}
	return inserted, nil
}
