package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejomayadarshan/rfid-api/internal/attendance"
	"github.com/tejomayadarshan/rfid-api/internal/queue"
)

// gatewayStub records send requests and answers with a canned response.
type gatewayStub struct {
	mu       sync.Mutex
	requests []sendRequest
	status   int
	ok       bool
}

func (g *gatewayStub) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sendRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		g.mu.Lock()
		g.requests = append(g.requests, req)
		g.mu.Unlock()
		w.WriteHeader(g.status)
		_ = json.NewEncoder(w).Encode(sendResponse{OK: g.ok})
	}
}

func (g *gatewayStub) received() []sendRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]sendRequest(nil), g.requests...)
}

func newStub(status int, ok bool) (*gatewayStub, *httptest.Server) {
	g := &gatewayStub{status: status, ok: ok}
	return g, httptest.NewServer(g.handler())
}

func testTemplates() Templates {
	return Templates{Entry: "tmpl-entry", Exit: "tmpl-exit"}
}

func TestClient_Send(t *testing.T) {
	stub, srv := newStub(http.StatusOK, true)
	defer srv.Close()

	c := NewClient(srv.URL, "secret", "SCHOOL")
	err := c.Send(context.Background(), "+15550100", "tmpl-entry", map[string]string{"name": "Alice"})
	require.NoError(t, err)

	reqs := stub.received()
	require.Len(t, reqs, 1)
	assert.Equal(t, "SCHOOL", reqs[0].Sender)
	assert.Equal(t, "+15550100", reqs[0].To)
	assert.Equal(t, "tmpl-entry", reqs[0].Template)
	assert.Equal(t, "Alice", reqs[0].Variables["name"])
}

func TestClient_Send_GatewayRejection(t *testing.T) {
	_, srv := newStub(http.StatusOK, false)
	defer srv.Close()

	c := NewClient(srv.URL, "secret", "SCHOOL")
	err := c.Send(context.Background(), "+15550100", "tmpl-entry", nil)
	assert.Error(t, err)
}

func TestClient_Send_GatewayDown(t *testing.T) {
	_, srv := newStub(http.StatusInternalServerError, false)
	defer srv.Close()

	c := NewClient(srv.URL, "secret", "SCHOOL")
	err := c.Send(context.Background(), "+15550100", "tmpl-entry", nil)
	assert.Error(t, err)
}

func TestTemplates_ForStatus(t *testing.T) {
	tm := testTemplates()
	assert.Equal(t, "tmpl-entry", tm.ForStatus(attendance.StatusEntry))
	assert.Equal(t, "tmpl-exit", tm.ForStatus(attendance.StatusExit))
	assert.Equal(t, "", tm.ForStatus(attendance.StatusNone))
}

func TestQueueNotifier_PublishesJob(t *testing.T) {
	q := queue.NewInMemory(4)
	n := NewQueueNotifier(q)
	ts := time.Date(2026, 3, 1, 8, 15, 0, 0, time.UTC)

	n.Notify(context.Background(), attendance.Student{Name: "Alice", Phone: "+15550100"}, attendance.StatusEntry, ts)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	messages, err := q.Consume(ctx)
	require.NoError(t, err)

	msg := <-messages
	assert.Equal(t, MessageType, msg.Type)
	var job Job
	require.NoError(t, json.Unmarshal(msg.Body, &job))
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, "Alice", job.Name)
	assert.Equal(t, "+15550100", job.Phone)
	assert.Equal(t, attendance.StatusEntry, job.Status)
	assert.True(t, ts.Equal(job.Timestamp))
}

func TestQueueNotifier_SkipsStudentsWithoutPhone(t *testing.T) {
	q := queue.NewInMemory(4)
	n := NewQueueNotifier(q)

	n.Notify(context.Background(), attendance.Student{Name: "Bob"}, attendance.StatusEntry, time.Now())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	messages, err := q.Consume(ctx)
	require.NoError(t, err)

	select {
	case msg, open := <-messages:
		if open {
			t.Fatalf("unexpected job published: %q", msg.Body)
		}
	case <-ctx.Done():
	}
}

func TestSender_Deliver(t *testing.T) {
	stub, srv := newStub(http.StatusOK, true)
	defer srv.Close()

	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	s := NewSender(NewClient(srv.URL, "secret", "SCHOOL"), testTemplates(), loc)

	job := Job{
		ID:        "job-1",
		Name:      "Alice",
		Phone:     "+15550100",
		Status:    attendance.StatusExit,
		Timestamp: time.Date(2026, 3, 1, 2, 45, 0, 0, time.UTC),
	}
	require.NoError(t, s.Deliver(context.Background(), job))

	reqs := stub.received()
	require.Len(t, reqs, 1)
	assert.Equal(t, "tmpl-exit", reqs[0].Template)
	assert.Equal(t, "Alice", reqs[0].Variables["name"])
	// 02:45 UTC is 08:15 in Kolkata.
	assert.Equal(t, "01 Mar 2026 08:15", reqs[0].Variables["time"])
}

func TestSender_Deliver_FailureIsReturnedNotFatal(t *testing.T) {
	_, srv := newStub(http.StatusBadGateway, false)
	defer srv.Close()

	s := NewSender(NewClient(srv.URL, "secret", "SCHOOL"), testTemplates(), nil)
	err := s.Deliver(context.Background(), Job{Phone: "+15550100", Status: attendance.StatusEntry})
	assert.Error(t, err)
}

func TestSender_Run_DrainsQueueAndSurvivesFailures(t *testing.T) {
	stub, srv := newStub(http.StatusOK, true)
	defer srv.Close()

	q := queue.NewInMemory(8)
	n := NewQueueNotifier(q)
	ctx, cancel := context.WithCancel(context.Background())

	// One deliverable job, one with a status no template covers.
	n.Notify(ctx, attendance.Student{Name: "Alice", Phone: "+15550100"}, attendance.StatusEntry, time.Now())
	n.Notify(ctx, attendance.Student{Name: "Bob", Phone: "+15550101"}, attendance.StatusNone, time.Now())

	s := NewSender(NewClient(srv.URL, "secret", "SCHOOL"), testTemplates(), nil)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx, q)
	}()

	require.Eventually(t, func() bool {
		return len(stub.received()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
	assert.Equal(t, "tmpl-entry", stub.received()[0].Template)
}
