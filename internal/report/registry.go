package report

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// NotFoundError is returned when a report name is not registered.
// The message enumerates every registered name.
type NotFoundError struct {
	Name      string
	Available []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unknown report %q: available reports are %s",
		e.Name, strings.Join(e.Available, ", "))
}

// IsNotFound reports whether err is a registry NotFoundError.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// Registry maps report names to their specifications. Read-only after
// construction; shared by reference across the whole pipeline.
type Registry struct {
	specs map[string]*Specification
	names []string
}

// NewRegistry builds a registry from the given specifications.
// Fails on duplicate names.
func NewRegistry(specs ...*Specification) (*Registry, error) {
	r := &Registry{
		specs: make(map[string]*Specification, len(specs)),
		names: make([]string, 0, len(specs)),
	}
	for _, spec := range specs {
		if _, dup := r.specs[spec.Name]; dup {
			return nil, fmt.Errorf("registry: duplicate report name %q", spec.Name)
		}
		r.specs[spec.Name] = spec
		r.names = append(r.names, spec.Name)
	}
	sort.Strings(r.names)
	return r, nil
}

// Get returns the specification for a name, or NotFoundError listing every
// registered name.
func (r *Registry) Get(name string) (*Specification, error) {
	spec, ok := r.specs[name]
	if !ok {
		return nil, &NotFoundError{Name: name, Available: r.Names()}
	}
	return spec, nil
}

// Has reports whether a name is registered. No side effects.
func (r *Registry) Has(name string) bool {
	_, ok := r.specs[name]
	return ok
}

// All returns a snapshot of the full registry. The map is copied; the
// specifications themselves are shared read-only references.
func (r *Registry) All() map[string]*Specification {
	out := make(map[string]*Specification, len(r.specs))
	for name, spec := range r.specs {
		out[name] = spec
	}
	return out
}

// Names returns the registered names in sorted order (copied).
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}
