package mesos

import "github.com/hashicorp/go-set/v3"

// Offer is a bundle of resources advertised by a slave via the master to a
// framework. It is immutable once received and valid until it is either
// accepted as part of a launch or declined; after either, the offer ID must
// never be reused by the master.
type Offer struct {
	OfferID     OfferID
	FrameworkID FrameworkID
	SlaveID     SlaveID
	Host        string
	ExecutorID  string // optional; empty when the offer carries no executor
	Resources   []Resource
}

// MatchesResourceNames reports whether the offer carries a resource of
// every name in names. Matching is by resource name only, via set
// containment; quantities and resource types are not compared.
func (o Offer) MatchesResourceNames(names []string) bool {
	if len(names) == 0 {
		return true
	}
	have := NameSet(o.Resources)
	for _, n := range names {
		if !have.Contains(n) {
			return false
		}
	}
	return true
}

// MatchesResourceSet reports whether the offer's resource names are a
// superset of required.
func (o Offer) MatchesResourceSet(required *set.Set[string]) bool {
	have := NameSet(o.Resources)
	for _, n := range required.Slice() {
		if !have.Contains(n) {
			return false
		}
	}
	return true
}

// Filters carries optional per-offer filter hints a decline can pass back
// to the master (e.g. refuse-seconds). The core only ever emits
// the zero value today; the type exists so the Driver Handle boundary can
// grow without an interface-breaking change.
type Filters struct {
	RefuseSeconds float64
}

// MasterInfo describes the currently elected master, resolved on a
// successful Registered event.
type MasterInfo struct {
	ID       MasterID
	IP       string
	Port     int32
	Hostname string
}
