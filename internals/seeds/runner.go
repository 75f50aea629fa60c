package seeds

import (
	"log"
	"strings"

	"gorm.io/gorm"

	academies "akademiku_backend/internals/seeds/academies"
)

// RunAllSeeds: seed direktori ke Postgres. path kosong = tidak ada yang di-seed.
func RunAllSeeds(db *gorm.DB, directoryPath string) error {
	if strings.TrimSpace(directoryPath) == "" {
		return nil
	}

	//* Akademi & kelas
	n, err := academies.SeedDirectoryFromJSON(db, directoryPath)
	if err != nil {
		return err
	}
	log.Printf("✅ Seed direktori selesai: %d baris baru", n)
	return nil
}
