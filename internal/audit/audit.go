// Package audit publishes account and attendance events to a queue and
// records them into the auditLog collection.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"classlink/internal/metrics"
	"classlink/internal/queue"
	"classlink/internal/store"
)

// Event types.
const (
	StudentRegistered = "student.registered"
	TeacherRegistered = "teacher.registered"
	LoggedIn          = "session.login"
	LoggedOut         = "session.logout"
	AttendanceMarked  = "attendance.marked"
)

// MaxEntries bounds the stored audit log; older entries are dropped first.
const MaxEntries = 1000

// Event is what producers publish.
type Event struct {
	ActorID string    `json:"actorId"`
	Role    string    `json:"role"`
	Detail  string    `json:"detail,omitempty"`
	At      time.Time `json:"at"`
}

// Entry is a recorded event.
type Entry struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	ActorID string    `json:"actorId"`
	Role    string    `json:"role"`
	Detail  string    `json:"detail,omitempty"`
	At      time.Time `json:"at"`
}

// Publisher sends events to the queue. Failures are logged and never reach the caller.
type Publisher struct {
	q queue.Queue
}

func NewPublisher(q queue.Queue) *Publisher {
	return &Publisher{q: q}
}

// Publish enqueues an event of the given type.
func (p *Publisher) Publish(ctx context.Context, typ string, evt Event) {
	if p == nil || p.q == nil {
		return
	}
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	body, err := json.Marshal(evt)
	if err != nil {
		log.Printf("audit: encode %s: %v", typ, err)
		return
	}
	if err := p.q.Publish(ctx, queue.Message{Type: typ, Body: body}); err != nil {
		log.Printf("audit: publish %s: %v", typ, err)
	}
}

// Recorder appends events to the auditLog collection.
type Recorder struct {
	kv store.KV
	mu sync.Mutex
}

func NewRecorder(kv store.KV) *Recorder {
	return &Recorder{kv: kv}
}

// Record decodes msg and appends it to the log.
func (r *Recorder) Record(ctx context.Context, msg queue.Message) error {
	var evt Event
	if err := json.Unmarshal(msg.Body, &evt); err != nil {
		return fmt.Errorf("decode %s: %w", msg.Type, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entries := store.Load[Entry](ctx, r.kv, store.AuditLog)
	entries = append(entries, Entry{
		ID:      uuid.NewString(),
		Type:    msg.Type,
		ActorID: evt.ActorID,
		Role:    evt.Role,
		Detail:  evt.Detail,
		At:      evt.At,
	})
	if len(entries) > MaxEntries {
		entries = entries[len(entries)-MaxEntries:]
	}
	if err := store.Save(ctx, r.kv, store.AuditLog, entries); err != nil {
		return err
	}
	metrics.AuditRecorded()
	return nil
}

// Run records messages from q until ctx is done or the queue closes.
func (r *Recorder) Run(ctx context.Context, q queue.Queue) error {
	messages, err := q.Consume(ctx)
	if err != nil {
		return err
	}
	for msg := range messages {
		if err := r.Record(ctx, msg); err != nil {
			log.Printf("audit: %v", err)
		}
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func Recent(ctx context.Context, kv store.KV, limit int) []Entry {
	entries := store.Load[Entry](ctx, kv, store.AuditLog)
	slices.Reverse(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
