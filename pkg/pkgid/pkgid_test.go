package pkgid

import (
	"testing"

	"gotest.tools/assert"
)

func TestRoundTrip(t *testing.T) {
	id := "kernel;5.3.7-301.fc31;x86_64;updates"

	assert.Equal(t, Name(id), "kernel")
	assert.Equal(t, Version(id), "5.3.7-301.fc31")
	assert.Equal(t, Arch(id), "x86_64")
	assert.Equal(t, Data(id), "updates")

	// Field extraction is order independent and stable.
	assert.Equal(t, Version(id), "5.3.7-301.fc31")
	assert.Equal(t, Name(id), "kernel")
}

func TestAwkwardFields(t *testing.T) {
	cases := []struct {
		name    string
		id      string
		pkgname string
		version string
		data    string
	}{
		{"empty", "", "", "", ""},
		{"name-only", "vim", "vim", "", ""},
		{"empty-fields", "vim;;;", "vim", "", ""},
		{"data-with-separators", "vim;2:8.1;x86_64;a;b;c", "vim", "2:8.1", "a;b;c"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, Name(tc.id), tc.pkgname)
			assert.Equal(t, Version(tc.id), tc.version)
			assert.Equal(t, Data(tc.id), tc.data)
		})
	}
}
