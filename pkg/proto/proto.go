// Package proto is the protocol-kind registry: a map from a protocol's
// className string to its constructor and parameter definition, standing
// in for the original's class-based polymorphism. Every other package
// that needs to build or validate a protocol by name goes through here.
package proto

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/meridian-sci/meridian/pkg/types"
)

// ParamKind tags how a declared parameter is bound to a value: a plain
// scalar, a pointer to another protocol's output, a list of such
// pointers, or a scalar that may also be overridden by a pointer.
type ParamKind string

const (
	ParamScalar          ParamKind = "scalar"
	ParamPointer         ParamKind = "pointer"
	ParamPointerList     ParamKind = "pointer_list"
	ParamScalarOrPointer ParamKind = "scalar_or_pointer"
)

// ParamDef declares one parameter a protocol kind accepts.
type ParamDef struct {
	Name     string    `validate:"required"`
	Kind     ParamKind `validate:"required,oneof=scalar pointer pointer_list scalar_or_pointer"`
	Required bool
	// PointerTargets restricts which className values a pointer/
	// pointer_list parameter may reference; empty means any.
	PointerTargets []string
}

// Definition is a protocol kind's full schema: its declared parameters
// and the constructor that builds a fresh Protocol of this kind.
type Definition struct {
	ClassName string
	Params    []ParamDef
	// New builds a protocol's default field values (Steps, Label,
	// UseQueue defaults); the registry assigns no id, the store does.
	New func() *types.Protocol
}

// Registry holds every known protocol kind, keyed by className.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]*Definition
	vld   *validator.Validate
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[string]*Definition), vld: validator.New()}
}

// Register validates and adds a protocol kind definition. It is typically
// called from an init() in the package that implements that kind, the
// way pyworkflow relies on import side effects to populate its plugin
// registry.
func (r *Registry) Register(def *Definition) error {
	if def.ClassName == "" {
		return fmt.Errorf("register protocol kind: className is required")
	}
	for i := range def.Params {
		if err := r.vld.Struct(&def.Params[i]); err != nil {
			return fmt.Errorf("register protocol kind %s: param %q: %w", def.ClassName, def.Params[i].Name, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.kinds[def.ClassName]; exists {
		return fmt.Errorf("protocol kind %s already registered", def.ClassName)
	}
	r.kinds[def.ClassName] = def
	return nil
}

// Lookup returns the definition for a className, or ok=false.
func (r *Registry) Lookup(className string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.kinds[className]
	return def, ok
}

// New instantiates a fresh protocol of the named kind with NEW status and
// creation timestamp, ready to be handed to a store's CreateProtocol.
func (r *Registry) New(className string) (*types.Protocol, error) {
	def, ok := r.Lookup(className)
	if !ok {
		return nil, fmt.Errorf("unknown protocol kind %q", className)
	}
	p := def.New()
	p.ClassName = className
	p.Status = types.StatusNew
	p.CreatedAt = time.Now()
	return p, nil
}

// ClassNames returns every registered className, for listing available
// protocol kinds (e.g. a CLI's "new" subcommand completion).
func (r *Registry) ClassNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.kinds))
	for name := range r.kinds {
		out = append(out, name)
	}
	return out
}

// ValidateInputs checks that p.Inputs satisfies its kind's required
// parameters and that each bound value's shape (Pointer vs PointerList)
// matches the declared kind.
func (r *Registry) ValidateInputs(p *types.Protocol) error {
	def, ok := r.Lookup(p.ClassName)
	if !ok {
		return fmt.Errorf("unknown protocol kind %q", p.ClassName)
	}

	for _, param := range def.Params {
		val, bound := p.Inputs[param.Name]
		if !bound {
			if param.Required {
				return fmt.Errorf("protocol %d: missing required parameter %q", p.ID, param.Name)
			}
			continue
		}
		if err := checkKind(param, val); err != nil {
			return fmt.Errorf("protocol %d: parameter %q: %w", p.ID, param.Name, err)
		}
	}
	return nil
}

func checkKind(param ParamDef, val any) error {
	switch param.Kind {
	case ParamPointer:
		if _, ok := val.(types.Pointer); !ok {
			return fmt.Errorf("expected a pointer, got %T", val)
		}
	case ParamPointerList:
		if _, ok := val.(types.PointerList); !ok {
			return fmt.Errorf("expected a pointer list, got %T", val)
		}
	case ParamScalarOrPointer:
		switch val.(type) {
		case types.Pointer:
		default:
			// any scalar type is accepted
		}
	case ParamScalar:
		switch val.(type) {
		case types.Pointer, types.PointerList:
			return fmt.Errorf("expected a scalar, got a pointer")
		}
	}
	return nil
}
