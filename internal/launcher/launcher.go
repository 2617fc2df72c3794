// Package launcher implements the task launcher: it consumes the Offer
// events the session manager's event bus carries, greedily matches pending
// task descriptors against incoming offer batches, and drives
// session.Manager.Launch with the result (declining everything it does not
// use).
package launcher

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/go-set/v3"

	"github.com/kessler-frost/mesos-scheduler/internal/eventbus"
	"github.com/kessler-frost/mesos-scheduler/internal/session"
	"github.com/kessler-frost/mesos-scheduler/pkg/mesos"
)

// Launcher submits task descriptors against the live offer stream and
// launches them as soon as a batch can satisfy every descriptor at once.
type Launcher struct {
	logger hclog.Logger
	mgr    *session.Manager
	bus    *eventbus.Bus
}

// New creates a Launcher bound to mgr's session and event bus.
func New(logger hclog.Logger, mgr *session.Manager) *Launcher {
	return &Launcher{
		logger: logger.Named("launcher"),
		mgr:    mgr,
		bus:    mgr.Events(),
	}
}

// Submit waits for offer batches and, on the first batch whose offers can
// satisfy every descriptor in descriptors under an injective assignment
// accepted by filter, launches them all and returns one Result per
// descriptor in input order. Every offer observed across every batch is
// either part of the winning assignment or declined; none is held for a
// later batch. A nil filter accepts any complete assignment. Submit returns
// immediately, with an already-resolved empty slice, if descriptors is
// empty.
//
// Offers are never hoarded across batches: each batch is matched
// independently against the full descriptor set, with no memory of
// partial matches from a previous batch.
func (l *Launcher) Submit(ctx context.Context, descriptors []mesos.TaskDescriptor, filter Filter) *session.Result[[]mesos.TaskInfo] {
	result := session.NewResult[[]mesos.TaskInfo]()
	if len(descriptors) == 0 {
		result.Resolve(nil)
		return result
	}

	subCtx, cancel := context.WithCancel(ctx)
	events := l.bus.Subscribe(subCtx, eventbus.KindFilter(mesos.EventOffers))

	go l.run(ctx, cancel, events, descriptors, filter, result)
	return result
}

func (l *Launcher) run(ctx context.Context, cancel context.CancelFunc, events <-chan mesos.Event, descriptors []mesos.TaskDescriptor, filter Filter, result *session.Result[[]mesos.TaskInfo]) {
	defer cancel()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if l.tryBatch(ctx, ev.Offers, descriptors, filter, result) {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// tryBatch attempts to satisfy descriptors against a single offer batch. It
// returns true once the batch's assignment has been handed to Launch and no
// further batches need to be considered; the submit Result itself is
// settled later by await, as the per-task launch Results resolve.
func (l *Launcher) tryBatch(ctx context.Context, offers []mesos.Offer, descriptors []mesos.TaskDescriptor, filter Filter, result *session.Result[[]mesos.TaskInfo]) bool {
	if len(offers) == 0 {
		return false
	}

	assignment, used := match(offers, descriptors)
	unused := declineSet(offers, used)

	if len(assignment) != len(descriptors) {
		l.declineAll(offers)
		return false
	}

	ok, _ := accepts(filter, assignment)
	if !ok {
		l.declineAll(offers)
		return false
	}

	offerIDs := make([]mesos.OfferID, len(assignment))
	tasks := make([]mesos.TaskInfo, len(assignment))
	for i, p := range assignment {
		offerIDs[i] = p.Offer.OfferID
		tasks[i] = taskInfoFor(p)
	}

	l.decline(unused)

	launchResults, err := l.mgr.Launch(offerIDs, tasks)
	if err != nil {
		// The unused offers were declined above; the offers of the failed
		// attempt are declined here. A synchronous driver failure leaves
		// this submit pending rather than failing it outright, since a
		// later batch may still satisfy it.
		l.logger.Warn("launch failed synchronously, awaiting a future offer batch", "error", err)
		l.decline(offerIDs)
		return false
	}

	go l.await(ctx, launchResults, result)
	return true
}

func (l *Launcher) await(ctx context.Context, launchResults []*session.Result[mesos.TaskInfo], result *session.Result[[]mesos.TaskInfo]) {
	infos := make([]mesos.TaskInfo, len(launchResults))
	var merr *multierror.Error
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i, r := range launchResults {
		wg.Add(1)
		go func(i int, r *session.Result[mesos.TaskInfo]) {
			defer wg.Done()
			info, err := r.Wait(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				merr = multierror.Append(merr, err)
				return
			}
			infos[i] = info
		}(i, r)
	}
	wg.Wait()

	if err := merr.ErrorOrNil(); err != nil {
		result.Fail(err)
		return
	}
	result.Resolve(infos)
}

func (l *Launcher) declineAll(offers []mesos.Offer) {
	ids := make([]mesos.OfferID, len(offers))
	for i, o := range offers {
		ids[i] = o.OfferID
	}
	l.decline(ids)
}

func (l *Launcher) decline(offerIDs []mesos.OfferID) {
	for _, id := range offerIDs {
		if err := l.mgr.Decline(id, mesos.Filters{}); err != nil {
			l.logger.Warn("decline failed", "offer_id", id.Value, "error", err)
		}
	}
}

// match greedily binds each descriptor, in order, to the first offer (in
// batch order) that is both unbound and satisfies the descriptor's required
// resource names, one offer per descriptor. It returns the assignment built
// so far (possibly shorter than descriptors, if not every descriptor could
// be bound) and the set of offer IDs it consumed.
func match(offers []mesos.Offer, descriptors []mesos.TaskDescriptor) (Assignment, *set.Set[mesos.OfferID]) {
	used := set.New[mesos.OfferID](len(descriptors))
	assignment := make(Assignment, 0, len(descriptors))

	for _, d := range descriptors {
		required := mesos.NameSet(d.Resources)
		for _, o := range offers {
			if used.Contains(o.OfferID) {
				continue
			}
			if !o.MatchesResourceSet(required) {
				continue
			}
			used.Insert(o.OfferID)
			assignment = append(assignment, Pairing{Offer: o, Descriptor: d})
			break
		}
	}
	return assignment, used
}

func declineSet(offers []mesos.Offer, used *set.Set[mesos.OfferID]) []mesos.OfferID {
	unused := make([]mesos.OfferID, 0, len(offers))
	for _, o := range offers {
		if !used.Contains(o.OfferID) {
			unused = append(unused, o.OfferID)
		}
	}
	return unused
}

func taskInfoFor(p Pairing) mesos.TaskInfo {
	return mesos.TaskInfo{
		Name:      p.Descriptor.Name,
		TaskID:    mesos.TaskID{Value: uuid.NewString()},
		SlaveID:   p.Offer.SlaveID,
		Resources: p.Descriptor.Resources,
		Command:   p.Descriptor.Command,
		Container: p.Descriptor.Container,
	}
}
