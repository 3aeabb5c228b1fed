package scrape

import (
	"fmt"

	"github.com/cuongbtq/pharma-pricing-be/internal/competitor/domain"
)

// Factory constructs a fresh Job instance. Jobs are not required to be safe
// for reuse across runs, so the registry never hands out a shared instance.
type Factory func() Job

// Registry is the static competitor → factory mapping. It is built once at
// startup and read-only afterwards, so it needs no synchronization.
type Registry struct {
	factories map[string]Factory
	order     []string
}

// NewRegistry builds a registry from the given factories, keyed by each job's
// own competitor token, preserving registration order.
func NewRegistry(factories ...Factory) *Registry {
	r := &Registry{
		factories: make(map[string]Factory, len(factories)),
	}
	for _, f := range factories {
		token := f().Competitor()
		if _, exists := r.factories[token]; exists {
			continue
		}
		r.factories[token] = f
		r.order = append(r.order, token)
	}
	return r
}

// Competitors returns all registered tokens in registration order.
func (r *Registry) Competitors() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Resolve constructs a fresh Job for the given token. Tokens are matched
// case-sensitively against the registry's canonical uppercase form; callers
// normalize case before lookup.
func (r *Registry) Resolve(competitor string) (Job, error) {
	f, ok := r.factories[competitor]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownCompetitor, competitor)
	}
	return f(), nil
}
