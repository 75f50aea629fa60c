// file: internals/helpers/pg_error.go
package helper

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// pgCode: SQLSTATE dari pgx atau lib/pq ("" kalau bukan error Postgres).
func pgCode(err error) string {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// IsUniqueViolation: 23505 (pgx / lib/pq), fallback cek pesan.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if pgCode(err) == "23505" {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "duplicate key value")
}

// MapPGError: PG error → (status HTTP, pesan).
func MapPGError(err error) (int, string) {
	switch pgCode(err) {
	case "23505":
		return http.StatusConflict, "Data duplikat (unique violation)."
	case "23503":
		return http.StatusBadRequest, "Referensi tidak ditemukan (FK violation)."
	case "23514":
		return http.StatusBadRequest, "Data melanggar constraint (check violation)."
	case "":
		return http.StatusInternalServerError, "Terjadi kesalahan pada server"
	default:
		return http.StatusInternalServerError, "Kesalahan database"
	}
}
