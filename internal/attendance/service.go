package attendance

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Notifier dispatches a status message to a student. Implementations are
// fire-and-forget: Notify must not block on delivery and its errors are
// the implementation's to log, never the caller's.
type Notifier interface {
	Notify(ctx context.Context, st Student, status Status, ts time.Time)
}

// NopNotifier discards notifications. Used when SMS is disabled.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Student, Status, time.Time) {}

// ErrEmptyUID is returned for a blank or whitespace-only card uid.
var ErrEmptyUID = errors.New("empty card uid")

// Service coordinates scan handling: resolve, read last status, toggle,
// record, notify.
type Service struct {
	store    Store
	notifier Notifier

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewService creates a service backed by a store. notifier may be nil.
func NewService(store Store, notifier Notifier) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{
		store:    store,
		notifier: notifier,
		locks:    make(map[int64]*sync.Mutex),
	}
}

// Resolve maps a raw card uid to a student. Returns ErrEmptyUID for blank
// input and ErrNotFound for unprovisioned cards.
func (s *Service) Resolve(ctx context.Context, uid string) (Student, error) {
	uid = NormalizeUID(uid)
	if uid == "" {
		return Student{}, ErrEmptyUID
	}
	return s.store.FindStudentByUID(ctx, uid)
}

// LastStatus reads a student's last-known status. StatusNone means the
// student has never scanned.
func (s *Service) LastStatus(ctx context.Context, studentID int64) (Status, error) {
	l, err := s.store.LatestLog(ctx, studentID)
	if errors.Is(err, ErrNotFound) {
		return StatusNone, nil
	}
	if err != nil {
		return "", err
	}
	return l.Status, nil
}

// LastStatusByName resolves a student by display name and reads their
// last-known status. Read-only.
func (s *Service) LastStatusByName(ctx context.Context, name string) (Status, error) {
	st, err := s.store.FindStudentByName(ctx, name)
	if err != nil {
		return "", err
	}
	return s.LastStatus(ctx, st.ID)
}

// LogScan handles one card scan end to end: resolve the uid, toggle the
// student's status off their latest row, append the new row, then hand the
// result to the notifier. The read-toggle-write sequence is serialized per
// student so concurrent scans of the same card cannot both observe the
// same previous status; scans for distinct students do not contend.
func (s *Service) LogScan(ctx context.Context, uid string) (Student, Log, error) {
	st, err := s.Resolve(ctx, uid)
	if err != nil {
		return Student{}, Log{}, err
	}

	lock := s.studentLock(st.ID)
	lock.Lock()
	prev, err := s.LastStatus(ctx, st.ID)
	if err != nil {
		lock.Unlock()
		return Student{}, Log{}, err
	}
	l, err := s.store.InsertLog(ctx, st.ID, prev.Next())
	lock.Unlock()
	if err != nil {
		return Student{}, Log{}, err
	}

	// The row is durably committed; notification is best-effort from here
	// and never affects the scan outcome.
	s.notifier.Notify(ctx, st, l.Status, l.Timestamp)
	return st, l, nil
}

// RecordStatus appends a row with a caller-supplied status for a student
// resolved by display name. Legacy path for readers that compute the
// toggle themselves; no notification is sent.
func (s *Service) RecordStatus(ctx context.Context, name string, status Status) (Student, Log, error) {
	st, err := s.store.FindStudentByName(ctx, name)
	if err != nil {
		return Student{}, Log{}, err
	}
	lock := s.studentLock(st.ID)
	lock.Lock()
	l, err := s.store.InsertLog(ctx, st.ID, status)
	lock.Unlock()
	if err != nil {
		return Student{}, Log{}, err
	}
	return st, l, nil
}

func (s *Service) studentLock(id int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}
