package donation

import (
	"sync"
	"time"

	"github.com/frahmantamala/campaign-portal/internal/cache"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const FlowCookie = "donation_flow"

// Flow is one visitor's donation form for a campaign.
type Flow struct {
	ID       string
	Slug     string
	Selector *Selector

	mu      sync.Mutex
	data    FormData
	session *PaymentSession
	attempt int
	status  string
}

func (f *Flow) Data() FormData {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data
}

func (f *Flow) update(fn func(d *FormData)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(&f.data)
}

// Session returns the payment session of the current attempt, or nil.
func (f *Flow) Session() *PaymentSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session
}

func (f *Flow) Attempt() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempt
}

// Status is the last payment status reported for the current attempt.
func (f *Flow) Status() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *Flow) setStatus(status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

// Close releases everything the flow has mounted.
func (f *Flow) Close() {
	f.Selector.Close()
}

// FlowStore keeps flows for a while after their last use. Evicted flows are closed.
type FlowStore struct {
	flows *cache.LRU[*Flow]
}

func NewFlowStore(size int, ttl time.Duration, clock clockwork.Clock) *FlowStore {
	return &FlowStore{
		flows: cache.NewLRU[*Flow](size, ttl,
			cache.WithClock[*Flow](clock),
			cache.WithEvict(func(_ string, f *Flow) { f.Close() }),
		),
	}
}

// Get returns the flow with id for the campaign slug and extends its lifetime.
func (s *FlowStore) Get(id, slug string) (*Flow, bool) {
	if id == "" {
		return nil, false
	}
	f, ok := s.flows.Get(id)
	if !ok || f.Slug != slug {
		return nil, false
	}
	s.flows.Touch(id)
	return f, true
}

// New creates and stores a flow. build wires the flow's selector.
func (s *FlowStore) New(slug, currency string, build func(f *Flow) PanelFactory) *Flow {
	f := &Flow{
		ID:   uuid.NewString(),
		Slug: slug,
		data: FormData{Payment: MethodCard, Currency: currency, IsAnonymous: true},
	}
	f.Selector = NewSelector(build(f))
	s.flows.Set(f.ID, f)
	return f
}

func (s *FlowStore) Delete(id string) {
	s.flows.Delete(id)
}

func (s *FlowStore) CleanExpired() int {
	return s.flows.CleanExpired()
}

func (s *FlowStore) Size() int {
	return s.flows.Size()
}
