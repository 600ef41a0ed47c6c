package payment

import (
	"sort"
	"sync"
)

// Registry guarda só os gateways configurados.
type Registry struct {
	mu       sync.RWMutex
	gateways map[string]Gateway
}

func NewRegistry(gws ...Gateway) *Registry {
	r := &Registry{gateways: map[string]Gateway{}}
	for _, g := range gws {
		r.Register(g)
	}
	return r
}

func (r *Registry) Register(g Gateway) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gateways[g.Name()] = g
}

func (r *Registry) Get(name string) (Gateway, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.gateways[name]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return g, nil
}

// Transferer devolve o gateway capaz de fazer repasses.
func (r *Registry) Transferer(name string) (Transferer, error) {
	g, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	t, ok := g.(Transferer)
	if !ok {
		return nil, ErrUnknownProvider
	}
	return t, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.gateways))
	for n := range r.gateways {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
