// Package mesos contains the data model shared by the session manager and
// the task launcher: identifiers, resources, offers, tasks and events.
package mesos

// FrameworkID identifies this scheduler's registration with the master.
type FrameworkID struct {
	Value string
}

// MasterID identifies the currently elected master.
type MasterID struct {
	Value string
}

// OfferID identifies a single resource offer. An offer ID is consumed
// exactly once, either by a launch or a decline.
type OfferID struct {
	Value string
}

// SlaveID identifies the agent node an offer's resources live on.
type SlaveID struct {
	Value string
}

// TaskID identifies a single launched task within a framework.
type TaskID struct {
	Value string
}

func (id FrameworkID) String() string { return id.Value }
func (id MasterID) String() string    { return id.Value }
func (id OfferID) String() string     { return id.Value }
func (id SlaveID) String() string     { return id.Value }
func (id TaskID) String() string      { return id.Value }
