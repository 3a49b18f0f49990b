package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Repository persists students and attendance logs in Postgres.
//
// Expected schema:
//
//	students        (id bigserial pk, uid text unique, name text, phone text)
//	attendance_logs (id bigserial pk, student_id bigint references students,
//	                 status text, ts timestamptz default now())
//	index on attendance_logs (student_id, ts)
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// FindStudentByUID resolves a normalized card uid to a student.
func (r *Repository) FindStudentByUID(ctx context.Context, uid string) (Student, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, uid, name, COALESCE(phone, '')
		FROM students
		WHERE uid = $1
	`, uid)
	var st Student
	if err := row.Scan(&st.ID, &st.UID, &st.Name, &st.Phone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Student{}, ErrNotFound
		}
		return Student{}, fmt.Errorf("find student by uid: %w", err)
	}
	return st, nil
}

// FindStudentByName resolves a display name to a student. Picks the
// lowest id when names collide.
func (r *Repository) FindStudentByName(ctx context.Context, name string) (Student, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, uid, name, COALESCE(phone, '')
		FROM students
		WHERE name = $1
		ORDER BY id
		LIMIT 1
	`, name)
	var st Student
	if err := row.Scan(&st.ID, &st.UID, &st.Name, &st.Phone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Student{}, ErrNotFound
		}
		return Student{}, fmt.Errorf("find student by name: %w", err)
	}
	return st, nil
}

// LatestLog returns the newest row for a student. The id sort breaks ties
// between rows committed within the same timestamp resolution.
func (r *Repository) LatestLog(ctx context.Context, studentID int64) (Log, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, student_id, status, ts
		FROM attendance_logs
		WHERE student_id = $1
		ORDER BY ts DESC, id DESC
		LIMIT 1
	`, studentID)
	var l Log
	if err := row.Scan(&l.ID, &l.StudentID, &l.Status, &l.Timestamp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Log{}, ErrNotFound
		}
		return Log{}, fmt.Errorf("latest log: %w", err)
	}
	return l, nil
}

// InsertLog appends one row. The timestamp is assigned by the database at
// insert so it stays consistent with LatestLog's ordering.
func (r *Repository) InsertLog(ctx context.Context, studentID int64, status Status) (Log, error) {
	if !status.Valid() {
		return Log{}, fmt.Errorf("insert log: invalid status %q", status)
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_logs (student_id, status)
		VALUES ($1, $2)
		RETURNING id, student_id, status, ts
	`, studentID, status)
	var l Log
	if err := row.Scan(&l.ID, &l.StudentID, &l.Status, &l.Timestamp); err != nil {
		return Log{}, fmt.Errorf("insert log: %w", err)
	}
	return l, nil
}
