// Package eventbus implements the hot, multi-subscriber event stream the
// session manager and task launcher both read from. It mirrors the shape of
// Nomad's drivers/shared/eventer: a single emitter fans events out to
// per-subscriber channels, each subscriber detaching when its context is
// canceled.
package eventbus

import (
	"context"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/kessler-frost/mesos-scheduler/pkg/mesos"
)

// subscriberBuffer bounds how far a slow subscriber can lag before its
// events start blocking the emitter. Subscribers are expected to drain
// promptly; the session manager and launcher each run a dedicated
// goroutine per subscription.
const subscriberBuffer = 16

// Filter reports whether an event should be delivered to a given
// subscription. A nil Filter matches everything.
type Filter func(mesos.Event) bool

// Bus is a broadcast channel: every Emit is delivered to every live
// subscriber, each on its own channel, in arrival order per subscriber.
// Different subscribers may observe events concurrently with each other,
// but a single subscriber never sees two events out of order or
// overlapping.
type Bus struct {
	logger hclog.Logger

	mu          sync.Mutex
	subscribers map[*subscription]struct{}
}

type subscription struct {
	ch     chan mesos.Event
	filter Filter
}

// New creates an empty event bus.
func New(logger hclog.Logger) *Bus {
	return &Bus{
		logger:      logger.Named("eventbus"),
		subscribers: make(map[*subscription]struct{}),
	}
}

// Subscribe registers a new subscriber and returns a read-only channel of
// events matching filter (or all events, if filter is nil). The channel is
// closed and the subscriber detached when ctx is canceled.
func (b *Bus) Subscribe(ctx context.Context, filter Filter) <-chan mesos.Event {
	sub := &subscription{
		ch:     make(chan mesos.Event, subscriberBuffer),
		filter: filter,
	}

	b.mu.Lock()
	b.subscribers[sub] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.detach(sub)
	}()

	return sub.ch
}

func (b *Bus) detach(sub *subscription) {
	b.mu.Lock()
	if _, ok := b.subscribers[sub]; !ok {
		b.mu.Unlock()
		return
	}
	delete(b.subscribers, sub)
	b.mu.Unlock()
	close(sub.ch)
}

// Emit delivers ev to every subscriber whose filter accepts it. Delivery to
// distinct subscribers happens concurrently, so one slow subscriber does not
// hold up delivery of this event to the others; Emit returns only once every
// matching subscriber has taken the event, so a subscriber whose buffer is
// full blocks later Emits. Delivery to a given subscriber is always in the
// order Emit was called.
func (b *Bus) Emit(ev mesos.Event) {
	b.mu.Lock()
	subs := make([]*subscription, 0, len(b.subscribers))
	for s := range b.subscribers {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	var wg sync.WaitGroup
	for _, sub := range subs {
		if sub.filter != nil && !sub.filter(ev) {
			continue
		}
		wg.Add(1)
		go func(sub *subscription) {
			defer wg.Done()
			defer func() {
				// A subscriber detaching concurrently with delivery closes
				// its channel out from under us; treat that the same as a
				// subscriber that simply never receives the event.
				_ = recover()
			}()
			sub.ch <- ev
		}(sub)
	}
	wg.Wait()
}

// KindFilter matches events whose Kind is one of kinds.
func KindFilter(kinds ...mesos.EventKind) Filter {
	set := make(map[mesos.EventKind]struct{}, len(kinds))
	for _, k := range kinds {
		set[k] = struct{}{}
	}
	return func(ev mesos.Event) bool {
		_, ok := set[ev.Kind]
		return ok
	}
}

// TaskFilter matches EventTaskEvent events for the given task ID.
func TaskFilter(taskID mesos.TaskID) Filter {
	return func(ev mesos.Event) bool {
		return ev.Kind == mesos.EventTaskEvent && ev.TaskID == taskID
	}
}
