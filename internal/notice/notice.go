package notice

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

type Notice struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"type"`
	ExpiresAt time.Time `json:"-"`
	Duration  int64     `json:"duration"`
}

// Queue holds transient user notices per browser session. Notices are
// delivered once and dismissed automatically after the TTL.
type Queue struct {
	clock clockwork.Clock
	ttl   time.Duration

	mu        sync.Mutex
	bySession map[string][]Notice
}

func NewQueue(clock clockwork.Clock, ttl time.Duration) *Queue {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Queue{
		clock:     clock,
		ttl:       ttl,
		bySession: make(map[string][]Notice),
	}
}

func (q *Queue) Show(sessionID, message string, severity Severity) Notice {
	n := Notice{
		ID:        uuid.NewString(),
		Message:   message,
		Severity:  severity,
		ExpiresAt: q.clock.Now().Add(q.ttl),
		Duration:  q.ttl.Milliseconds(),
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.bySession[sessionID] = append(q.bySession[sessionID], n)
	return n
}

func (q *Queue) Success(sessionID, message string) Notice {
	return q.Show(sessionID, message, SeveritySuccess)
}

func (q *Queue) Error(sessionID, message string) Notice {
	return q.Show(sessionID, message, SeverityError)
}

// Pending drains the unexpired notices of a session.
func (q *Queue) Pending(sessionID string) []Notice {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.clock.Now()
	var out []Notice
	for _, n := range q.bySession[sessionID] {
		if now.Before(n.ExpiresAt) {
			out = append(out, n)
		}
	}
	delete(q.bySession, sessionID)
	return out
}

func (q *Queue) Dismiss(sessionID, id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	list := q.bySession[sessionID]
	for i, n := range list {
		if n.ID == id {
			q.bySession[sessionID] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(q.bySession[sessionID]) == 0 {
		delete(q.bySession, sessionID)
	}
}

// Prune drops expired notices across all sessions and returns how many went.
func (q *Queue) Prune() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.clock.Now()
	removed := 0
	for sid, list := range q.bySession {
		kept := list[:0]
		for _, n := range list {
			if now.Before(n.ExpiresAt) {
				kept = append(kept, n)
			} else {
				removed++
			}
		}
		if len(kept) == 0 {
			delete(q.bySession, sid)
		} else {
			q.bySession[sid] = kept
		}
	}
	return removed
}

// Trigger encodes a notice as an HX-Trigger header value understood by the
// show-notification listener in the page script.
func Trigger(n Notice) string {
	payload := map[string]any{
		"show-notification": map[string]any{
			"id":       n.ID,
			"type":     n.Severity,
			"message":  n.Message,
			"duration": n.Duration,
		},
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(b)
}
