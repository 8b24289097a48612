package agents

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory Repository for tests and early development.
// Phone numbers are unique across tenants, as in Postgres.
type MemoryRepo struct {
	mu     sync.Mutex
	agents map[string]Agent
	phones map[string]string // phone -> agent id
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{agents: map[string]Agent{}, phones: map[string]string{}}
}

func (r *MemoryRepo) FindActiveByPhone(ctx context.Context, number string) (Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.phones[number]
	if !ok {
		return Agent{}, ErrNotFound
	}
	a, ok := r.agents[id]
	if !ok || !a.IsActive {
		return Agent{}, ErrNotFound
	}
	return clone(a), nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[id]
	if !ok {
		return Agent{}, ErrNotFound
	}
	return clone(a), nil
}

func (r *MemoryRepo) GetForTenant(ctx context.Context, tenantID, id string) (Agent, error) {
	a, err := r.Get(ctx, id)
	if err != nil {
		return Agent{}, err
	}
	if a.TenantID != tenantID {
		return Agent{}, ErrNotFound
	}
	return a, nil
}

func (r *MemoryRepo) ListByTenant(ctx context.Context, tenantID string) ([]Agent, error) {
	if tenantID == "" {
		return nil, ErrTenantRequired
	}
	r.mu.Lock()
	out := make([]Agent, 0)
	for _, a := range r.agents {
		if a.TenantID == tenantID {
			out = append(out, clone(a))
		}
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepo) Create(ctx context.Context, a Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.agents[a.ID]; exists {
		return ErrInvalidInput
	}
	if err := r.claimPhones(a.ID, a.PhoneNumbers); err != nil {
		return err
	}
	r.agents[a.ID] = clone(a)
	return nil
}

func (r *MemoryRepo) Update(ctx context.Context, a Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.agents[a.ID]; !ok {
		return ErrNotFound
	}
	if err := r.claimPhones(a.ID, a.PhoneNumbers); err != nil {
		return err
	}
	for p, owner := range r.phones {
		if owner == a.ID && !contains(a.PhoneNumbers, p) {
			delete(r.phones, p)
		}
	}
	r.agents[a.ID] = clone(a)
	return nil
}

// claimPhones must be called with mu held. It is all-or-nothing.
func (r *MemoryRepo) claimPhones(agentID string, phones []string) error {
	for _, p := range phones {
		if owner, ok := r.phones[p]; ok && owner != agentID {
			return ErrPhoneNumberTaken
		}
	}
	for _, p := range phones {
		r.phones[p] = agentID
	}
	return nil
}

func clone(a Agent) Agent {
	a.PhoneNumbers = append([]string(nil), a.PhoneNumbers...)
	return a
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
