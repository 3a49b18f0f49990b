package attendance

import (
	"context"
	"sync"
	"time"
)

// MemStore is a mutex-guarded in-memory Store for dev and testing.
type MemStore struct {
	mu       sync.Mutex
	students []Student
	logs     []Log
	nextID   int64
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{nextID: 1}
}

// AddStudent provisions a student, mirroring the out-of-band admin flow.
// The uid is normalized before storage.
func (m *MemStore) AddStudent(uid, name, phone string) Student {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := Student{
		ID:    int64(len(m.students) + 1),
		UID:   NormalizeUID(uid),
		Name:  name,
		Phone: phone,
	}
	m.students = append(m.students, st)
	return st
}

func (m *MemStore) FindStudentByUID(ctx context.Context, uid string) (Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range m.students {
		if st.UID == uid {
			return st, nil
		}
	}
	return Student{}, ErrNotFound
}

func (m *MemStore) FindStudentByName(ctx context.Context, name string) (Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range m.students {
		if st.Name == name {
			return st, nil
		}
	}
	return Student{}, ErrNotFound
}

func (m *MemStore) LatestLog(ctx context.Context, studentID int64) (Log, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	latest := Log{}
	found := false
	for _, l := range m.logs {
		if l.StudentID != studentID {
			continue
		}
		// Timestamp first, row id as tiebreak for same-instant rows.
		if !found || l.Timestamp.After(latest.Timestamp) ||
			(l.Timestamp.Equal(latest.Timestamp) && l.ID > latest.ID) {
			latest = l
			found = true
		}
	}
	if !found {
		return Log{}, ErrNotFound
	}
	return latest, nil
}

func (m *MemStore) InsertLog(ctx context.Context, studentID int64, status Status) (Log, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := Log{
		ID:        m.nextID,
		StudentID: studentID,
		Status:    status,
		Timestamp: time.Now().UTC(),
	}
	m.nextID++
	m.logs = append(m.logs, l)
	return l, nil
}

// Logs returns a copy of all rows for a student in insertion order.
// Test helper.
func (m *MemStore) Logs(studentID int64) []Log {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Log
	for _, l := range m.logs {
		if l.StudentID == studentID {
			out = append(out, l)
		}
	}
	return out
}
