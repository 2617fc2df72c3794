package launcher

import "github.com/kessler-frost/mesos-scheduler/pkg/mesos"

// Pairing is one binding in a proposed assignment: the offer that would
// carry descriptor.
type Pairing struct {
	Offer      mesos.Offer
	Descriptor mesos.TaskDescriptor
}

// Assignment is a full proposed offer-to-tasks mapping for a batch.
type Assignment []Pairing

// Filter is a caller-supplied predicate over a proposed assignment. A nil
// Filter is equivalent to "always accept".
type Filter func(Assignment) bool

// DistinctSlaves rejects any assignment that places two descriptors on the
// same slave.
func DistinctSlaves() Filter {
	return func(a Assignment) bool {
		seen := make(map[mesos.SlaveID]struct{}, len(a))
		for _, p := range a {
			if _, ok := seen[p.Offer.SlaveID]; ok {
				return false
			}
			seen[p.Offer.SlaveID] = struct{}{}
		}
		return true
	}
}

// OnSlave accepts only assignments where every offer comes from slaveID.
func OnSlave(slaveID mesos.SlaveID) Filter {
	return func(a Assignment) bool {
		for _, p := range a {
			if p.Offer.SlaveID != slaveID {
				return false
			}
		}
		return true
	}
}

// MaxTasksPerOffer accepts an assignment iff no single offer carries more
// than n descriptors. The current matching strategy binds at most one
// descriptor per offer, so this filter is only ever exercised with n>=1
// against that invariant; it exists for forward compatibility with a
// richer, bin-packing matching strategy.
func MaxTasksPerOffer(n int) Filter {
	return func(a Assignment) bool {
		counts := make(map[mesos.OfferID]int, len(a))
		for _, p := range a {
			counts[p.Offer.OfferID]++
			if counts[p.Offer.OfferID] > n {
				return false
			}
		}
		return true
	}
}

func accepts(filter Filter, a Assignment) (ok bool, err error) {
	if filter == nil {
		return true, nil
	}
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, nil
		}
	}()
	return filter(a), nil
}
