package scheduler

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/meridian-sci/meridian/pkg/types"
)

// workflowEntry is the wire format for one protocol in an exported
// workflow file: "object.className", "object.id", and the rest of a
// protocol's declared params. Pointer params serialize as
// "<srcId>.<outKey>" strings so a re-import can rewire them without the
// original object ids meaning anything in the target project. Ported
// from getProtocolsDict/exportProtocols and loadProtocols.
type workflowEntry struct {
	ClassName     string         `json:"object.className"`
	ID            int64          `json:"object.id"`
	Label         string         `json:"object.label,omitempty"`
	Comment       string         `json:"object.comment,omitempty"`
	UseQueue      bool           `json:"_useQueue"`
	QueueParams   map[string]string `json:"_queueParams,omitempty"`
	Prerequisites []int64        `json:"_prerequisites,omitempty"`
	ForceSchedule bool           `json:"forceSchedule"`
	Params        map[string]any `json:"params,omitempty"`
}

// ExportProtocols serializes protocols to the workflow JSON format,
// rewriting any input pointer that targets another protocol in the set
// to a "<id>.<extendedPath>" string. Ported from exportProtocols/
// getProtocolsDict.
func (s *Scheduler) ExportProtocols(protocols []*types.Protocol) ([]byte, error) {
	inSet := make(map[int64]bool, len(protocols))
	for _, p := range protocols {
		inSet[p.ID] = true
	}

	entries := make([]workflowEntry, 0, len(protocols))
	for _, p := range protocols {
		params := make(map[string]any, len(p.Inputs))
		for name, input := range p.Inputs {
			params[name] = serializeInput(input, inSet)
		}
		entries = append(entries, workflowEntry{
			ClassName:     p.ClassName,
			ID:            p.ID,
			Label:         p.Label,
			Comment:       p.Comment,
			UseQueue:      p.UseQueue,
			QueueParams:   p.QueueParams,
			Prerequisites: p.Prerequisites,
			Params:        params,
		})
	}

	return json.MarshalIndent(entries, "", "  ")
}

// serializeInput converts a bound Pointer/PointerList input into its
// wire form, dropping pointers that target a protocol outside the
// exported set (the original importer tolerates "partial workflows").
func serializeInput(v any, inSet map[int64]bool) any {
	switch t := v.(type) {
	case types.Pointer:
		if !inSet[t.ObjectID] {
			return nil
		}
		return t.String()
	case types.PointerList:
		out := make([]string, 0, len(t))
		for _, ptr := range t {
			if inSet[ptr.ObjectID] {
				out = append(out, ptr.String())
			}
		}
		return out
	default:
		return v
	}
}

// ImportProtocols parses a workflow JSON document, instantiates one new
// protocol per entry via the registry, and rewires pointer params in a
// second pass once every new id is known. Ported from loadProtocols's
// two-pass create-then-rewire shape.
func (s *Scheduler) ImportProtocols(data []byte) ([]*types.Protocol, error) {
	var entries []workflowEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse workflow: %w", err)
	}

	newByOldID := make(map[int64]*types.Protocol, len(entries))
	out := make([]*types.Protocol, 0, len(entries))

	// First pass: instantiate and persist every protocol so each gets its
	// new stable id before any pointer is resolved against it.
	for _, e := range entries {
		p, err := s.registry.New(e.ClassName)
		if err != nil {
			return nil, fmt.Errorf("import protocol %d (%s): %w", e.ID, e.ClassName, err)
		}
		p.Label = e.Label
		p.Comment = e.Comment
		p.UseQueue = e.UseQueue
		p.QueueParams = e.QueueParams
		p.Prerequisites = e.Prerequisites
		if e.ForceSchedule {
			p.Status = types.StatusScheduled
		}
		if err := s.store.CreateProtocol(p); err != nil {
			return nil, fmt.Errorf("persist imported protocol %q: %w", p.Label, err)
		}
		newByOldID[e.ID] = p
		out = append(out, p)
	}

	// Second pass: every new id is known, so pointer params can now be
	// resolved and saved.
	for i, e := range entries {
		p := out[i]
		p.Inputs = make(map[string]any, len(e.Params))
		for name, raw := range e.Params {
			resolved, isPointer := resolvePointerField(raw, newByOldID)
			if isPointer {
				p.Inputs[name] = resolved
			} else if raw != nil {
				p.Inputs[name] = raw
			}
		}
		if err := s.store.UpdateProtocol(p); err != nil {
			return nil, fmt.Errorf("save resolved inputs for %q: %w", p.Label, err)
		}
	}

	s.invalidateRunsGraph()
	return out, nil
}

// resolvePointerField recognizes a "<id>.<ext>" string or a list of such
// strings, resolving <id> against the ids assigned to the protocols
// already created in this import pass, exactly as loadProtocols's
// _setPointer does. A raw value that isn't a pointer wire form is
// returned unchanged with isPointer=false.
func resolvePointerField(raw any, newByOldID map[int64]*types.Protocol) (any, bool) {
	switch t := raw.(type) {
	case string:
		ptr, ok := parsePointerString(t, newByOldID)
		if !ok {
			return nil, false
		}
		return ptr, true
	case []any:
		out := make(types.PointerList, 0, len(t))
		any_ := false
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				continue
			}
			ptr, ok := parsePointerString(s, newByOldID)
			if ok {
				out = append(out, ptr)
				any_ = true
			}
		}
		if !any_ {
			return nil, false
		}
		return out, true
	default:
		return nil, false
	}
}

func parsePointerString(s string, newByOldID map[int64]*types.Protocol) (types.Pointer, bool) {
	parts := strings.SplitN(s, ".", 2)
	oldID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return types.Pointer{}, false
	}
	target, ok := newByOldID[oldID]
	if !ok {
		return types.Pointer{}, false
	}
	ext := ""
	if len(parts) == 2 {
		ext = parts[1]
	}
	return types.Pointer{ObjectID: target.ID, ExtendedPath: ext}, true
}
