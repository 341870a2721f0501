package transaction

import (
	"testing"

	"gotest.tools/assert"
)

func TestRegistrySingleOccupancy(t *testing.T) {
	r := NewRegistry()

	h, err := r.Start(RoleRefresh)
	assert.NilError(t, err)
	assert.Check(t, !h.Zero())
	assert.Check(t, r.IsRunning(RoleRefresh))

	_, err = r.Start(RoleRefresh)
	assert.Check(t, IsAlreadyRunning(err))

	// Other roles are unaffected by an occupied refresh slot.
	h2, err := r.Start(RoleDiscover)
	assert.NilError(t, err)
	assert.Check(t, r.Current(h2))
}

func TestRegistryClear(t *testing.T) {
	r := NewRegistry()

	h, err := r.Start(RoleInstall)
	assert.NilError(t, err)

	r.Clear(h)
	assert.Check(t, !r.IsRunning(RoleInstall))
	assert.Check(t, !r.Current(h))

	// The slot is reusable after clearing.
	_, err = r.Start(RoleInstall)
	assert.NilError(t, err)
}

func TestRegistryReplaceSupersedes(t *testing.T) {
	r := NewRegistry()

	old, err := r.Start(RoleDiscover)
	assert.NilError(t, err)

	fresh := r.Replace(RoleDiscover)
	assert.Check(t, r.Current(fresh))
	assert.Check(t, !r.Current(old))

	// A stale handle cannot vacate the slot out from under its successor.
	r.Clear(old)
	assert.Check(t, r.IsRunning(RoleDiscover))
	assert.Check(t, r.Current(fresh))
}

func TestRegistryInvalidate(t *testing.T) {
	r := NewRegistry()

	h, err := r.Start(RoleRefresh)
	assert.NilError(t, err)

	r.Invalidate(RoleRefresh)
	assert.Check(t, !r.Current(h))
	assert.Check(t, !r.IsRunning(RoleRefresh))

	// Invalidating a vacant slot is a no-op.
	r.Invalidate(RoleEulaAccept)
	assert.Check(t, !r.IsRunning(RoleEulaAccept))
}

func TestRegistryZeroHandle(t *testing.T) {
	r := NewRegistry()
	assert.Check(t, Handle{}.Zero())
	assert.Check(t, !r.Current(Handle{}))
	assert.Check(t, !r.IsRunning(RoleDetail))
}
