// Package notify delivers best-effort text messages for recorded scans.
// The scan path publishes jobs to a queue and returns immediately; a
// dispatch loop (the worker binary, or an in-process goroutine when the
// queue backend is memory) drains the queue and calls the SMS gateway.
// Nothing here ever surfaces an error to the scan response — the log row
// is already committed by the time a job exists.
package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/tejomayadarshan/rfid-api/internal/attendance"
	"github.com/tejomayadarshan/rfid-api/internal/metrics"
	"github.com/tejomayadarshan/rfid-api/internal/queue"
)

// MessageType marks notification jobs on the shared queue.
const MessageType = "notify"

// Job is one queued notification.
type Job struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Phone     string            `json:"phone"`
	Status    attendance.Status `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
}

// Templates maps statuses to gateway template identifiers. The Absent
// template is reserved for a batch absentee workflow; the scan path only
// uses Entry and Exit.
type Templates struct {
	Entry  string
	Exit   string
	Absent string
}

// ForStatus returns the template id for a status, or "" when none is
// configured.
func (t Templates) ForStatus(s attendance.Status) string {
	switch s {
	case attendance.StatusEntry:
		return t.Entry
	case attendance.StatusExit:
		return t.Exit
	}
	return ""
}

// QueueNotifier publishes notification jobs. Implements
// attendance.Notifier.
type QueueNotifier struct {
	q queue.Queue
}

// NewQueueNotifier wraps a queue as a Notifier.
func NewQueueNotifier(q queue.Queue) *QueueNotifier {
	return &QueueNotifier{q: q}
}

// Notify enqueues a job for the student. Students without a phone on file
// are skipped silently. Publish failures are logged and dropped; they
// never reach the scan response. The request context is deliberately not
// used — the scan response must not wait on the queue, and a cancelled
// request must not lose a job for an already-committed row.
func (n *QueueNotifier) Notify(_ context.Context, st attendance.Student, status attendance.Status, ts time.Time) {
	if st.Phone == "" {
		metrics.Notifications.WithLabelValues("skipped").Inc()
		return
	}
	body, err := json.Marshal(Job{
		ID:        uuid.NewString(),
		Name:      st.Name,
		Phone:     st.Phone,
		Status:    status,
		Timestamp: ts,
	})
	if err != nil {
		log.Printf("notify: marshal job for %s failed: %v", st.Name, err)
		metrics.Notifications.WithLabelValues("failed").Inc()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := n.q.Publish(ctx, queue.Message{Type: MessageType, Body: body}); err != nil {
		log.Printf("notify: enqueue for %s failed: %v", st.Name, err)
		metrics.Notifications.WithLabelValues("failed").Inc()
	}
}

// Sender drains notification jobs and delivers them through the gateway.
type Sender struct {
	client    *Client
	templates Templates
	loc       *time.Location
}

// NewSender creates a sender. loc controls how timestamps are rendered in
// messages; nil means UTC.
func NewSender(client *Client, templates Templates, loc *time.Location) *Sender {
	if loc == nil {
		loc = time.UTC
	}
	return &Sender{client: client, templates: templates, loc: loc}
}

// Deliver sends one job. Returns the gateway error for logging; callers
// must not propagate it anywhere user-visible.
func (s *Sender) Deliver(ctx context.Context, job Job) error {
	tmpl := s.templates.ForStatus(job.Status)
	if tmpl == "" {
		log.Printf("notify: no template for status %q, dropping job %s", job.Status, job.ID)
		metrics.Notifications.WithLabelValues("skipped").Inc()
		return nil
	}
	vars := map[string]string{
		"name": job.Name,
		"time": job.Timestamp.In(s.loc).Format("02 Jan 2006 15:04"),
	}
	if err := s.client.Send(ctx, job.Phone, tmpl, vars); err != nil {
		metrics.Notifications.WithLabelValues("failed").Inc()
		return err
	}
	metrics.Notifications.WithLabelValues("sent").Inc()
	return nil
}

// Run consumes the queue until ctx is cancelled. Delivery failures are
// logged and the loop keeps going.
func (s *Sender) Run(ctx context.Context, q queue.Queue) error {
	messages, err := q.Consume(ctx)
	if err != nil {
		return err
	}
	for msg := range messages {
		if msg.Type != MessageType {
			continue
		}
		var job Job
		if err := json.Unmarshal(msg.Body, &job); err != nil {
			log.Printf("notify: bad job payload: %v", err)
			continue
		}
		if err := s.Deliver(ctx, job); err != nil {
			log.Printf("notify: deliver %s to %s failed: %v", job.ID, job.Phone, err)
		}
	}
	return nil
}
