// Package catalog accumulates the updates discovered in one check cycle and
// derives the aggregate counts and status presented to the consumer.
package catalog

import (
	"fmt"

	"github.com/pkwatch/pkwatch/pkg/transaction"
)

// Severity is the classification derived from a discovery event's info code.
type Severity int

const (
	SeverityOther Severity = iota
	SeverityEnhancement
	SeverityBugfix
	SeverityImportant
	SeveritySecurity
)

func (s Severity) String() string {
	switch s {
	case SeverityEnhancement:
		return "enhancement"
	case SeverityBugfix:
		return "bugfix"
	case SeverityImportant:
		return "important"
	case SeveritySecurity:
		return "security"
	}
	return "other"
}

// Classify maps a discovery info code onto a severity.
func Classify(info transaction.Info) Severity {
	switch info {
	case transaction.InfoSecurity:
		return SeveritySecurity
	case transaction.InfoImportant:
		return SeverityImportant
	case transaction.InfoBugfix:
		return SeverityBugfix
	case transaction.InfoEnhancement:
		return SeverityEnhancement
	}
	return SeverityOther
}

// Record is one discovered update. Identity is the package ID; a recurring ID
// replaces the prior record outright.
type Record struct {
	ID      string
	Summary string
	Info    transaction.Info
}

// Severity reports the record's classification.
func (r Record) Severity() Severity {
	return Classify(r.Info)
}

// Catalog holds the records of the current discovery cycle in arrival order.
// It is confined to the single control goroutine and therefore unlocked.
type Catalog struct {
	order     []string
	records   map[string]Record
	important map[string]struct{}
	security  map[string]struct{}
}

// New returns an empty Catalog.
func New() *Catalog {
	c := &Catalog{}
	c.Clear()
	return c
}

// Clear discards all records. Called at the start of each discovery cycle so
// the catalog repopulates from scratch.
func (c *Catalog) Clear() {
	c.order = nil
	c.records = make(map[string]Record)
	c.important = make(map[string]struct{})
	c.security = make(map[string]struct{})
}

// Put ingests one discovery event, classifying it by its info code. A record
// with a recurring ID is replaced, not merged, and its derived sets are
// recomputed from the replacement alone.
func (c *Catalog) Put(info transaction.Info, packageID, summary string) {
	if _, seen := c.records[packageID]; !seen {
		c.order = append(c.order, packageID)
	}
	c.records[packageID] = Record{ID: packageID, Summary: summary, Info: info}

	delete(c.important, packageID)
	delete(c.security, packageID)
	switch Classify(info) {
	case SeveritySecurity:
		c.security[packageID] = struct{}{}
	case SeverityImportant:
		c.important[packageID] = struct{}{}
	}
}

// Get returns the record for the given package ID.
func (c *Catalog) Get(packageID string) (Record, bool) {
	r, ok := c.records[packageID]
	return r, ok
}

// Count reports the total number of updates, including important and security
// ones.
func (c *Catalog) Count() int {
	return len(c.records)
}

// ImportantCount reports the number of important updates, included in Count.
func (c *Catalog) ImportantCount() int {
	return len(c.important)
}

// SecurityCount reports the number of security updates, included in Count.
func (c *Catalog) SecurityCount() int {
	return len(c.security)
}

// IsUpToDate reports whether the system has no pending updates.
func (c *Catalog) IsUpToDate() bool {
	return len(c.records) == 0
}

// IDs returns the package IDs in arrival order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.order))
	copy(ids, c.order)
	return ids
}

// Packages returns the id-to-summary map presented to the consumer.
func (c *Catalog) Packages() map[string]string {
	pkgs := make(map[string]string, len(c.records))
	for id, r := range c.records {
		pkgs[id] = r.Summary
	}
	return pkgs
}

// Message renders the aggregate status line.
func (c *Catalog) Message() string {
	count := c.Count()
	security := c.SecurityCount()
	switch {
	case count == 0:
		return "Your system is up to date"
	case count == 1 && security == 1:
		return "You have 1 security update"
	case security == 1:
		return fmt.Sprintf("You have %d updates, including 1 security update", count)
	case security > 1:
		return fmt.Sprintf("You have %d updates, including %d security updates", count, security)
	case count == 1:
		return "You have 1 update"
	}
	return fmt.Sprintf("You have %d updates", count)
}

// IconName names the status icon matching the aggregate severity.
func (c *Catalog) IconName() string {
	switch {
	case c.SecurityCount() > 0:
		return "update-high"
	case c.ImportantCount() > 0:
		return "update-medium"
	case c.Count() > 0:
		return "update-low"
	}
	return "update-none"
}
