package catalog

import (
	"testing"

	"github.com/pkwatch/pkwatch/pkg/transaction"
	"gotest.tools/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		info transaction.Info
		want Severity
	}{
		{transaction.InfoSecurity, SeveritySecurity},
		{transaction.InfoImportant, SeverityImportant},
		{transaction.InfoBugfix, SeverityBugfix},
		{transaction.InfoEnhancement, SeverityEnhancement},
		{transaction.InfoNormal, SeverityOther},
		{transaction.InfoLow, SeverityOther},
		{transaction.InfoUnknown, SeverityOther},
	}
	for _, tc := range cases {
		t.Run(tc.info.String(), func(t *testing.T) {
			assert.Equal(t, Classify(tc.info), tc.want)
		})
	}
}

func TestAggregateCounts(t *testing.T) {
	c := New()
	assert.Check(t, c.IsUpToDate())
	assert.Equal(t, c.Message(), "Your system is up to date")
	assert.Equal(t, c.IconName(), "update-none")

	c.Put(transaction.InfoSecurity, "pkgA;1.0;x86_64;updates", "fix")
	c.Put(transaction.InfoEnhancement, "pkgB;2.0;x86_64;updates", "feat")

	assert.Equal(t, c.Count(), 2)
	assert.Equal(t, c.SecurityCount(), 1)
	assert.Equal(t, c.ImportantCount(), 0)
	assert.Check(t, !c.IsUpToDate())
	assert.Equal(t, c.IconName(), "update-high")
	assert.Equal(t, c.Message(), "You have 2 updates, including 1 security update")
}

func TestReplaceNotMerge(t *testing.T) {
	c := New()
	c.Put(transaction.InfoSecurity, "pkgA;1.0;x86_64;updates", "fix")
	assert.Equal(t, c.SecurityCount(), 1)

	// The same ID arriving again replaces the record and re-derives the sets.
	c.Put(transaction.InfoBugfix, "pkgA;1.0;x86_64;updates", "refined fix")

	assert.Equal(t, c.Count(), 1)
	assert.Equal(t, c.SecurityCount(), 0)
	r, ok := c.Get("pkgA;1.0;x86_64;updates")
	assert.Check(t, ok)
	assert.Equal(t, r.Summary, "refined fix")
	assert.Equal(t, r.Severity(), SeverityBugfix)
}

func TestArrivalOrderAndClear(t *testing.T) {
	c := New()
	c.Put(transaction.InfoNormal, "b;1;noarch;main", "second")
	c.Put(transaction.InfoNormal, "a;1;noarch;main", "first alphabetically")
	c.Put(transaction.InfoNormal, "b;1;noarch;main", "second again")

	assert.DeepEqual(t, c.IDs(), []string{"b;1;noarch;main", "a;1;noarch;main"})
	assert.Equal(t, c.Packages()["b;1;noarch;main"], "second again")

	c.Clear()
	assert.Equal(t, c.Count(), 0)
	assert.Check(t, c.IsUpToDate())
	assert.Equal(t, len(c.IDs()), 0)
}

func TestSingleUpdateMessages(t *testing.T) {
	c := New()
	c.Put(transaction.InfoNormal, "a;1;noarch;main", "one")
	assert.Equal(t, c.Message(), "You have 1 update")
	assert.Equal(t, c.IconName(), "update-low")

	c.Clear()
	c.Put(transaction.InfoSecurity, "a;1;noarch;main", "one")
	assert.Equal(t, c.Message(), "You have 1 security update")

	c.Clear()
	c.Put(transaction.InfoImportant, "a;1;noarch;main", "one")
	assert.Equal(t, c.IconName(), "update-medium")
}
