// Package transaction models the boundary to the asynchronous package service:
// the roles a transaction can play, the events it streams back, and the
// registry that holds at most one live handle per role.
package transaction

import "time"

// Role names the logical job a transaction performs. Each role may have at
// most one live transaction at a time.
type Role string

const (
	// RoleRefresh refreshes the service's metadata caches.
	RoleRefresh Role = "refresh"
	// RoleDiscover enumerates the updates the service is offering.
	RoleDiscover Role = "discover"
	// RoleInstall applies a set of updates.
	RoleInstall Role = "install"
	// RoleDetail fetches extended detail for a single update.
	RoleDetail Role = "detail"
	// RoleEulaAccept records acceptance of a license agreement.
	RoleEulaAccept Role = "eula-accept"
)

// Service is implemented by bindings to the package service. Each method
// starts one asynchronous transaction and returns once it is underway; results
// arrive through the provided Events. Implementations must not invoke Events
// funcs concurrently with the caller - delivery is serialized onto the
// caller's control loop.
type Service interface {
	// RefreshCache refreshes the service's package metadata.
	RefreshCache(force bool, ev *Events) error
	// GetUpdates streams the currently available updates as Package events.
	GetUpdates(ev *Events) error
	// UpdatePackages installs the identified packages. A simulated run must
	// not change system state. An untrusted run pre-authorizes packages that
	// fail signature verification.
	UpdatePackages(ids []string, simulate, untrusted bool, ev *Events) error
	// GetUpdateDetail streams extended detail for a single package.
	GetUpdateDetail(packageID string, ev *Events) error
	// AcceptEula records agreement to the identified license.
	AcceptEula(eulaID string, ev *Events) error
}

// Events carries the per-transaction callbacks. Funcs may be left nil when the
// caller has no interest in that event; the Emit helpers are nil-safe.
type Events struct {
	PackageFunc               func(info Info, packageID, summary string)
	PercentageFunc            func(percentage int)
	RequireRestartFunc        func(kind Restart, packageID string)
	EulaRequiredFunc          func(eulaID, packageID, vendor, license string)
	RepoSignatureRequiredFunc func(sig RepoSignature)
	UpdateDetailFunc          func(d Detail)
	ErrorCodeFunc             func(code Error, details string)
	FinishedFunc              func(exit Exit, runtime time.Duration)
}

// Package delivers one streamed package event.
func (ev *Events) Package(info Info, packageID, summary string) {
	if ev.PackageFunc != nil {
		ev.PackageFunc(info, packageID, summary)
	}
}

// Percentage delivers overall transaction progress, 0 to 100.
func (ev *Events) Percentage(percentage int) {
	if ev.PercentageFunc != nil {
		ev.PercentageFunc(percentage)
	}
}

// RequireRestart delivers a restart requirement reported for a package.
func (ev *Events) RequireRestart(kind Restart, packageID string) {
	if ev.RequireRestartFunc != nil {
		ev.RequireRestartFunc(kind, packageID)
	}
}

// EulaRequired delivers a license agreement that is blocking the transaction.
func (ev *Events) EulaRequired(eulaID, packageID, vendor, license string) {
	if ev.EulaRequiredFunc != nil {
		ev.EulaRequiredFunc(eulaID, packageID, vendor, license)
	}
}

// RepoSignatureRequired delivers an unverified repository signature that is
// blocking the transaction.
func (ev *Events) RepoSignatureRequired(sig RepoSignature) {
	if ev.RepoSignatureRequiredFunc != nil {
		ev.RepoSignatureRequiredFunc(sig)
	}
}

// UpdateDetail delivers one normalized update-detail record.
func (ev *Events) UpdateDetail(d Detail) {
	if ev.UpdateDetailFunc != nil {
		ev.UpdateDetailFunc(d)
	}
}

// ErrorCode delivers the transaction's failure cause ahead of Finished.
func (ev *Events) ErrorCode(code Error, details string) {
	if ev.ErrorCodeFunc != nil {
		ev.ErrorCodeFunc(code, details)
	}
}

// Finished delivers the terminal event. No further events follow it.
func (ev *Events) Finished(exit Exit, runtime time.Duration) {
	if ev.FinishedFunc != nil {
		ev.FinishedFunc(exit, runtime)
	}
}

// RepoSignature describes a repository signing key awaiting confirmation.
type RepoSignature struct {
	PackageID      string
	RepoName       string
	KeyURL         string
	KeyUserID      string
	KeyID          string
	KeyFingerprint string
	KeyTimestamp   string
	Type           SigType
}

// Detail is the normalized per-package update detail record, flattened from
// the service's per-field lists.
type Detail struct {
	PackageID    string
	Updates      []string
	Obsoletes    []string
	VendorURLs   []string
	BugzillaURLs []string
	CVEURLs      []string
	Restart      Restart
	UpdateText   string
	Changelog    string
	State        UpdateState
	Issued       time.Time
	Updated      time.Time
}
