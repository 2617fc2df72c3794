package mesos

import "github.com/hashicorp/go-set/v3"

// ResourceType tags the kind of quantity a Resource carries. The core only
// ever interprets ResourceScalar; other tags pass through untouched for
// forward compatibility with richer matching strategies (see Filter).
type ResourceType int

const (
	ResourceScalar ResourceType = iota
	ResourceRanges
	ResourceSet
)

// Resource is a single named quantity carried by an Offer or requested by a
// TaskDescriptor. The core's matching semantics only look at Name: an offer
// matches a descriptor iff every resource name the descriptor requests is
// present somewhere in the offer's resource list (set containment).
// Quantitative arithmetic (how much CPU, how many ports) is left to a
// richer matching strategy layered on top of the core; see Filter.
type Resource struct {
	Name   string
	Type   ResourceType
	Amount float64
}

// NameSet returns the distinct resource names in rs as a set.
func NameSet(rs []Resource) *set.Set[string] {
	names := set.New[string](len(rs))
	for _, r := range rs {
		names.Insert(r.Name)
	}
	return names
}

// Names returns the distinct resource names in rs, preserving first
// occurrence order.
func Names(rs []Resource) []string {
	seen := set.New[string](len(rs))
	names := make([]string, 0, len(rs))
	for _, r := range rs {
		if seen.Insert(r.Name) {
			names = append(names, r.Name)
		}
	}
	return names
}
