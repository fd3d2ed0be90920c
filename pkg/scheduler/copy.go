package scheduler

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/meridian-sci/meridian/pkg/types"
)

var copySuffixRe = regexp.MustCompile(`^(?P<prefix>.*\(copy)\s*(?P<number>\d*)\)$`)

// nextCopyLabel computes "<label> (copy)", "<label> (copy 2)", ... by
// scanning existing labels for the highest used suffix. Ported from
// __cloneProtocol's label-numbering loop.
func nextCopyLabel(label string, existing []string) string {
	prefix := label + " (copy"
	oldNumber := 0
	if m := copySuffixRe.FindStringSubmatch(label); m != nil {
		prefix = m[1]
		if m[2] == "" {
			oldNumber = 1
		} else {
			oldNumber, _ = strconv.Atoi(m[2])
		}
	}
	newNumber := oldNumber + 1

	maxSuffix := 0
	for _, other := range existing {
		m := copySuffixRe.FindStringSubmatch(other)
		if m == nil || m[1] != prefix {
			continue
		}
		n := 1
		if m[2] != "" {
			n, _ = strconv.Atoi(m[2])
		}
		if n > maxSuffix {
			maxSuffix = n
		}
	}
	if newNumber <= maxSuffix {
		newNumber = maxSuffix + 1
	}

	if newNumber == 1 {
		return prefix + ")"
	}
	return fmt.Sprintf("%s %d)", prefix, newNumber)
}

// cloneOne copies a protocol's definition (not its outputs or run state)
// and assigns an incrementing "(copy)" label. Ported from __cloneProtocol.
func (s *Scheduler) cloneOne(p *types.Protocol) (*types.Protocol, error) {
	all, err := s.store.ListProtocols()
	if err != nil {
		return nil, err
	}
	labels := make([]string, 0, len(all))
	for _, other := range all {
		labels = append(labels, other.Label)
	}

	clone := p.Clone()
	clone.Label = nextCopyLabel(p.Label, labels)
	if err := s.store.CreateProtocol(clone); err != nil {
		return nil, err
	}
	return clone, nil
}

// CopyProtocol copies a single protocol's definition into a brand new
// protocol in RESTART mode, never copying its outputs. Ported from
// copyProtocol(protocol) (the single-instance branch).
func (s *Scheduler) CopyProtocol(p *types.Protocol) (*types.Protocol, error) {
	return s.cloneOne(p)
}

// CopyProtocols copies a set of protocols together, rewiring every input
// pointer that targeted another protocol in the set onto its new clone so
// the copied subgraph reproduces the original dependencies. Ported from
// copyProtocol's list branch, which needs a two-pass id-indexed rewiring
// because the new protocols' pointer targets may not exist yet when the
// first pass runs.
func (s *Scheduler) CopyProtocols(protocols []*types.Protocol) ([]*types.Protocol, error) {
	newByOldID := make(map[int64]*types.Protocol, len(protocols))
	out := make([]*types.Protocol, 0, len(protocols))

	for _, p := range protocols {
		clone, err := s.cloneOne(p)
		if err != nil {
			return nil, err
		}
		newByOldID[p.ID] = clone
		out = append(out, clone)
	}

	for _, p := range protocols {
		clone := newByOldID[p.ID]
		for name, input := range clone.Inputs {
			clone.Inputs[name] = rewirePointers(input, newByOldID)
		}
		if err := s.store.UpdateProtocol(clone); err != nil {
			return nil, err
		}
	}

	s.invalidateRunsGraph()
	return out, nil
}

// rewirePointers rewrites every pointer in v that targets a protocol
// present in newByOldID onto that protocol's clone id, leaving
// out-of-set pointers untouched.
func rewirePointers(v any, newByOldID map[int64]*types.Protocol) any {
	switch t := v.(type) {
	case types.Pointer:
		if clone, ok := newByOldID[t.ObjectID]; ok {
			return types.Pointer{ObjectID: clone.ID, ExtendedPath: t.ExtendedPath}
		}
		return t
	case types.PointerList:
		out := make(types.PointerList, len(t))
		for i, ptr := range t {
			if clone, ok := newByOldID[ptr.ObjectID]; ok {
				out[i] = types.Pointer{ObjectID: clone.ID, ExtendedPath: ptr.ExtendedPath}
			} else {
				out[i] = ptr
			}
		}
		return out
	default:
		return v
	}
}
