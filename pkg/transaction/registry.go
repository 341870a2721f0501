package transaction

import "github.com/pkg/errors"

// ErrAlreadyRunning is returned synchronously when a role's slot is occupied
// by a live transaction.
var ErrAlreadyRunning = errors.New("transaction already running for role")

// IsAlreadyRunning reports whether err is the occupied-slot rejection.
func IsAlreadyRunning(err error) bool {
	return errors.Cause(err) == ErrAlreadyRunning
}

// Handle identifies one live transaction occupying a role's slot. Handles are
// compared by generation so that events delivered late by a superseded
// transaction can be recognized and discarded.
type Handle struct {
	role Role
	gen  uint64
}

// Role reports the role whose slot the handle occupies.
func (h Handle) Role() Role {
	return h.role
}

// Zero reports whether the handle was never issued by a registry.
func (h Handle) Zero() bool {
	return h.gen == 0
}

// Registry tracks at most one live handle per role. It is confined to the
// single control goroutine and therefore unlocked.
type Registry struct {
	slots map[Role]slot
	gen   uint64
}

type slot struct {
	gen  uint64
	live bool
}

// NewRegistry returns an empty Registry with all role slots vacant.
func NewRegistry() *Registry {
	return &Registry{slots: make(map[Role]slot)}
}

// Start occupies the role's slot and issues a fresh handle. The slot must be
// vacant; a live occupant is rejected with ErrAlreadyRunning.
func (r *Registry) Start(role Role) (Handle, error) {
	if r.slots[role].live {
		return Handle{}, errors.WithMessage(ErrAlreadyRunning, string(role))
	}
	return r.issue(role), nil
}

// Replace occupies the role's slot regardless of occupancy. The superseded
// occupant's handle stops being current, so its late events no longer match.
func (r *Registry) Replace(role Role) Handle {
	return r.issue(role)
}

func (r *Registry) issue(role Role) Handle {
	r.gen++
	h := Handle{role: role, gen: r.gen}
	r.slots[role] = slot{gen: r.gen, live: true}
	return h
}

// Clear vacates the handle's slot. A stale handle (superseded by Replace)
// clears nothing.
func (r *Registry) Clear(h Handle) {
	s, ok := r.slots[h.role]
	if !ok || s.gen != h.gen {
		return
	}
	r.slots[h.role] = slot{gen: s.gen, live: false}
}

// Invalidate supersedes any live occupant of the role's slot without issuing
// a replacement. The abandoned occupant's events no longer match.
func (r *Registry) Invalidate(role Role) {
	s, ok := r.slots[role]
	if !ok || !s.live {
		return
	}
	r.gen++
	r.slots[role] = slot{gen: r.gen, live: false}
}

// Current reports whether h is the live occupant of its role's slot. Event
// deliveries are gated on this so a superseded transaction cannot mutate
// state.
func (r *Registry) Current(h Handle) bool {
	s, ok := r.slots[h.role]
	return ok && s.live && s.gen == h.gen
}

// IsRunning reports whether the role's slot is occupied by a live handle.
func (r *Registry) IsRunning(role Role) bool {
	return r.slots[role].live
}
