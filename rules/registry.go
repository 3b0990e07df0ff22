package rules

import (
	"fmt"
	"sync"
)

// Registry maps rule ids to evaluators. It is populated at startup and
// read-only during analysis runs.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]Rule
	order []string
}

// NewRegistry creates an empty rule registry.
func NewRegistry() *Registry {
	return &Registry{
		rules: make(map[string]Rule),
	}
}

// Register adds a rule. Registering an id twice returns a
// DuplicateRuleError.
func (r *Registry) Register(rule Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := rule.ID()
	if _, exists := r.rules[id]; exists {
		return &DuplicateRuleError{ID: id}
	}

	r.rules[id] = rule
	r.order = append(r.order, id)
	return nil
}

// MustRegister adds a rule and panics on a duplicate id. It is meant
// for package init registration of built-in rules.
func (r *Registry) MustRegister(rule Rule) {
	if err := r.Register(rule); err != nil {
		panic(fmt.Sprintf("rules: %v", err))
	}
}

// Get returns the rule for an id.
func (r *Registry) Get(id string) (Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, ok := r.rules[id]
	return rule, ok
}

// All returns every registered rule in registration order.
func (r *Registry) All() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]Rule, 0, len(r.order))
	for _, id := range r.order {
		all = append(all, r.rules[id])
	}
	return all
}

// IDs returns every registered rule id in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// DefaultRegistry is the global rule registry. Built-in rules register
// themselves here during init.
var DefaultRegistry = NewRegistry()
