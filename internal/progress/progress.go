// Package progress implements C6: a publish-only event stream of
// {phase, current, total, message} reporting scan progress to any
// number of subscribers.
//
// Grounded on the teacher's progress callback in pipeline.go
// (processFilesParallel takes a func(done, total int) and backup.go
// renders it through a progressbar.ProgressBar), generalized from a
// single callback into a typed pub-sub channel fan-out so more than
// one listener (CLI bar, log sink, UI collaborator) can observe the
// same scan.
package progress

import "sync"

// Phase is one of the closed set of scan phases, per spec §4.5/§6.
type Phase string

const (
	PhaseStarting    Phase = "starting"
	PhaseDiscovery   Phase = "discovery"
	PhaseGrouping    Phase = "grouping"
	PhaseAnalyzing   Phase = "analyzing"
	PhaseTrailing    Phase = "trailing_hash"
	PhaseHashing     Phase = "hashing"
	PhaseDuplicates  Phase = "duplicates"
	PhasePreparing   Phase = "preparing"
	PhaseRendering   Phase = "rendering"
	PhaseComplete    Phase = "complete"
	PhaseCancelled   Phase = "cancelled"
	PhaseDeleting    Phase = "deleting"
)

// Event is one scan-progress payload. Total == 0 means indeterminate.
type Event struct {
	Phase   Phase
	Current int
	Total   int
	Message string
}

// boundaryPhase reports whether ph always reaches every subscriber,
// even a slow one (spec §4.6: "never drop phase-boundary events").
func boundaryPhase(ph Phase) bool {
	switch ph {
	case PhaseTrailing, PhaseHashing, PhaseDeleting:
		return false
	default:
		return true
	}
}

// subscriber is one listener's mailbox. Boundary events are sent with
// a blocking send (the listener must eventually drain); intra-phase
// events are sent non-blocking and dropped if the listener is behind.
type subscriber struct {
	ch chan Event
}

// Reporter fans a single stream of Events out to many subscribers.
type Reporter struct {
	mu   sync.Mutex
	subs []*subscriber
}

// New builds an empty Reporter.
func New() *Reporter {
	return &Reporter{}
}

// Subscribe registers a new listener and returns a channel that
// receives every Event published from this point on. bufSize controls
// how many intra-phase updates can queue before being dropped; callers
// rendering a progress bar typically pass a small buffer (e.g. 8).
func (r *Reporter) Subscribe(bufSize int) <-chan Event {
	if bufSize <= 0 {
		bufSize = 1
	}
	sub := &subscriber{ch: make(chan Event, bufSize)}
	r.mu.Lock()
	r.subs = append(r.subs, sub)
	r.mu.Unlock()
	return sub.ch
}

// Unsubscribe removes and closes a previously subscribed channel.
func (r *Reporter) Unsubscribe(ch <-chan Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, sub := range r.subs {
		if sub.ch == ch {
			close(sub.ch)
			r.subs = append(r.subs[:i], r.subs[i+1:]...)
			return
		}
	}
}

// Close closes all subscriber channels. Call once the reporter will
// never publish again.
func (r *Reporter) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sub := range r.subs {
		close(sub.ch)
	}
	r.subs = nil
}

// Publish sends ev to every subscriber. Phase-boundary events block
// until delivered; intra-phase events are dropped for a subscriber
// whose buffer is full, per spec §4.6's back-pressure policy.
func (r *Reporter) Publish(ev Event) {
	r.mu.Lock()
	subs := make([]*subscriber, len(r.subs))
	copy(subs, r.subs)
	r.mu.Unlock()

	for _, sub := range subs {
		if boundaryPhase(ev.Phase) {
			sub.ch <- ev
			continue
		}
		select {
		case sub.ch <- ev:
		default:
		}
	}
}
