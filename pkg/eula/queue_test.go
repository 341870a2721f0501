package eula

import (
	"testing"

	"gotest.tools/assert"
)

func record(id string) Record {
	return Record{EulaID: id, PackageID: id + ";1.0;noarch;vendor", Vendor: "VendorX", License: "text"}
}

func TestStrictFIFO(t *testing.T) {
	q := &Queue{}
	q.Enqueue(record("E1"))
	q.Enqueue(record("E2"))

	// Only the head may be resolved.
	_, err := q.Resolve("E2")
	assert.Check(t, IsNotFound(err))

	head, err := q.Resolve("E1")
	assert.NilError(t, err)
	assert.Equal(t, head.EulaID, "E1")

	head, err = q.Resolve("E2")
	assert.NilError(t, err)
	assert.Equal(t, head.EulaID, "E2")
	assert.Check(t, q.Empty())

	_, err = q.Resolve("E2")
	assert.Check(t, IsNotFound(err))
}

func TestSinglePrompt(t *testing.T) {
	q := &Queue{}
	q.Enqueue(record("E1"))
	q.Enqueue(record("E2"))

	r, ok := q.Prompt()
	assert.Check(t, ok)
	assert.Equal(t, r.EulaID, "E1")

	// No second prompt while one is outstanding.
	_, ok = q.Prompt()
	assert.Check(t, !ok)

	_, err := q.Resolve("E1")
	assert.NilError(t, err)

	r, ok = q.Prompt()
	assert.Check(t, ok)
	assert.Equal(t, r.EulaID, "E2")
}

func TestDuplicateEnqueueIgnored(t *testing.T) {
	q := &Queue{}
	q.Enqueue(record("E1"))
	q.Enqueue(record("E1"))
	assert.Equal(t, q.Len(), 1)
}

func TestDrain(t *testing.T) {
	q := &Queue{}
	q.Enqueue(record("E1"))
	q.Enqueue(record("E2"))
	q.Enqueue(record("E3"))
	_, _ = q.Prompt()

	drained := q.Drain()
	assert.Equal(t, len(drained), 3)
	assert.Check(t, q.Empty())

	// The queue is reusable and promptable after draining.
	q.Enqueue(record("E4"))
	r, ok := q.Prompt()
	assert.Check(t, ok)
	assert.Equal(t, r.EulaID, "E4")
}
