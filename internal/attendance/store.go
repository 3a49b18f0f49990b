package attendance

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when a card uid or student name matches no
// provisioned student. Unknown cards are routine (lost or foreign cards),
// so callers treat this as a normal typed outcome rather than a fault.
var ErrNotFound = errors.New("not found")

// Student is a provisioned card holder. Records are created by an
// out-of-band admin flow; this service only reads them.
type Student struct {
	ID    int64  `json:"id"`
	UID   string `json:"uid"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Log is one recorded scan. Rows are immutable once written.
type Log struct {
	ID        int64     `json:"id"`
	StudentID int64     `json:"student_id"`
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Store is the persistence capability the service needs.
type Store interface {
	// FindStudentByUID looks a student up by normalized card uid.
	// Returns ErrNotFound for unprovisioned cards.
	FindStudentByUID(ctx context.Context, uid string) (Student, error)

	// FindStudentByName looks a student up by display name. Unsafe under
	// duplicate names; kept only for the legacy pre-resolved log form and
	// the read-only status endpoint.
	FindStudentByName(ctx context.Context, name string) (Student, error)

	// LatestLog returns the most recent log row for a student, ordered by
	// timestamp with row id as tiebreak. Returns ErrNotFound when no rows
	// exist.
	LatestLog(ctx context.Context, studentID int64) (Log, error)

	// InsertLog appends one immutable row with a store-assigned timestamp.
	InsertLog(ctx context.Context, studentID int64, status Status) (Log, error)
}

// NormalizeUID canonicalizes a raw reader-emitted uid. Physical readers
// are inconsistent about case and whitespace.
func NormalizeUID(uid string) string {
	return strings.ToUpper(strings.TrimSpace(uid))
}
