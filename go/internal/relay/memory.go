package relay

import (
	"strings"
	"sync"
)

// MemoryRelay is an in-process relay for single-binary deployments and
// tests. Handlers run synchronously on the publishing goroutine.
type MemoryRelay struct {
	mu     sync.RWMutex
	subs   map[int]*memorySub
	nextID int
	closed bool
}

type memorySub struct {
	id      int
	pattern string
	handler Handler
	relay   *MemoryRelay
}

// NewMemoryRelay creates an empty in-memory relay.
func NewMemoryRelay() *MemoryRelay {
	return &MemoryRelay{subs: make(map[int]*memorySub)}
}

func (r *MemoryRelay) Publish(subject string, data []byte) error {
	r.mu.RLock()
	var matched []Handler
	for _, sub := range r.subs {
		if subjectMatches(sub.pattern, subject) {
			matched = append(matched, sub.handler)
		}
	}
	r.mu.RUnlock()

	for _, handler := range matched {
		handler(subject, data)
	}
	return nil
}

func (r *MemoryRelay) Subscribe(subject string, handler Handler) (Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	sub := &memorySub{id: r.nextID, pattern: subject, handler: handler, relay: r}
	r.subs[sub.id] = sub
	return sub, nil
}

func (r *MemoryRelay) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = make(map[int]*memorySub)
	r.closed = true
}

func (s *memorySub) Unsubscribe() error {
	s.relay.mu.Lock()
	defer s.relay.mu.Unlock()
	delete(s.relay.subs, s.id)
	return nil
}

// subjectMatches implements NATS-style subject matching: "*" matches one
// token, ">" matches the rest of the subject.
func subjectMatches(pattern, subject string) bool {
	patternTokens := strings.Split(pattern, ".")
	subjectTokens := strings.Split(subject, ".")

	for i, token := range patternTokens {
		if token == ">" {
			return len(subjectTokens) > i
		}
		if i >= len(subjectTokens) {
			return false
		}
		if token != "*" && token != subjectTokens[i] {
			return false
		}
	}
	return len(patternTokens) == len(subjectTokens)
}
