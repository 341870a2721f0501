package updater

import (
	"time"

	"github.com/pkg/errors"
	"github.com/pkwatch/pkwatch/pkg/transaction"
)

// CheckUpdates drives the refresh and discovery sequence. Redundant automatic
// calls coalesce while work is underway; a manual call supersedes an active
// check but never interrupts an install. With the network offline no
// transaction starts and one check is deferred until it returns.
func (u *Updater) CheckUpdates(force, manual bool) {
	u.check(force, manual, false)
}

// check is the internal entry point. A mandatory check bypasses the power and
// metering policy: the deferred check released when the network returns and
// the post-install recheck must both run even on battery or a mobile link.
func (u *Updater) check(force, manual, mandatory bool) {
	if u.IsActive() {
		if !manual || u.activity == ActivityInstallingUpdates {
			// A released deferred check that lands mid-install stays pending
			// instead of being lost.
			if mandatory {
				u.checkWhenOnline = true
			}
			u.log.Debug("update check coalesced, already active")
			return
		}
		// A manual re-check abandons the in-flight check; late events from the
		// superseded transactions no longer match the registry and are
		// discarded.
		u.registry.Invalidate(transaction.RoleRefresh)
		u.registry.Invalidate(transaction.RoleDiscover)
	}
	if !u.env.NetworkOnline {
		u.log.Info("network offline, deferring update check")
		u.checkWhenOnline = true
		return
	}
	if !manual && !mandatory && (u.env.NetworkMobile || u.env.OnBattery) {
		u.log.Debug("skipping automatic check on mobile connection or battery")
		return
	}
	if !force {
		u.getUpdates()
		return
	}
	u.refreshCache()
}

func (u *Updater) refreshCache() {
	u.setActivity(ActivityCheckingUpdates)
	u.setPercentage(PercentageIndeterminate)
	u.setStatusMessage("Checking for updates")

	h := u.registry.Replace(transaction.RoleRefresh)
	errored := false
	ev := &transaction.Events{
		PercentageFunc: func(p int) {
			if u.registry.Current(h) {
				u.setPercentage(p)
			}
		},
		ErrorCodeFunc: func(code transaction.Error, details string) {
			if !u.registry.Current(h) || errored {
				return
			}
			errored = true
			u.lastCheck = CheckFailed
			u.fail(&TransactionError{Role: transaction.RoleRefresh, Code: code, Details: details})
		},
		FinishedFunc: func(exit transaction.Exit, _ time.Duration) {
			if !u.registry.Current(h) {
				return
			}
			u.registry.Clear(h)
			if exit != transaction.ExitSuccess {
				// Discovery is not attempted after a failed forced refresh.
				if !errored {
					u.lastCheck = CheckFailed
					u.fail(&TransactionError{Role: transaction.RoleRefresh, Code: transaction.ErrorUnknown, Details: exit.String()})
				}
				u.setStatusMessage("")
				u.setActivity(ActivityIdle)
				u.handler.OnCheckFinished(u.lastCheck)
				return
			}
			u.getUpdates()
		},
	}
	if err := u.svc.RefreshCache(true, ev); err != nil {
		u.registry.Clear(h)
		u.lastCheck = CheckFailed
		u.setStatusMessage("")
		u.setActivity(ActivityIdle)
		u.fail(errors.Wrap(err, "could not start cache refresh"))
		u.handler.OnCheckFinished(u.lastCheck)
	}
}

// getUpdates clears the catalog and repopulates it from one discovery
// transaction. Aggregate state is published in a single notification once the
// transaction succeeds.
func (u *Updater) getUpdates() {
	u.setActivity(ActivityGettingUpdates)
	u.setPercentage(PercentageIndeterminate)
	u.setStatusMessage("Getting list of updates")
	u.catalog.Clear()

	h := u.registry.Replace(transaction.RoleDiscover)
	errored := false
	ev := &transaction.Events{
		PackageFunc: func(info transaction.Info, packageID, summary string) {
			if u.registry.Current(h) {
				u.catalog.Put(info, packageID, summary)
			}
		},
		PercentageFunc: func(p int) {
			if u.registry.Current(h) {
				u.setPercentage(p)
			}
		},
		ErrorCodeFunc: func(code transaction.Error, details string) {
			if !u.registry.Current(h) || errored {
				return
			}
			errored = true
			u.lastCheck = CheckFailed
			u.fail(&TransactionError{Role: transaction.RoleDiscover, Code: code, Details: details})
		},
		FinishedFunc: func(exit transaction.Exit, _ time.Duration) {
			if !u.registry.Current(h) {
				return
			}
			u.registry.Clear(h)
			if exit == transaction.ExitSuccess {
				u.lastCheck = CheckSucceeded
				u.lastRefresh = time.Now()
				// Any pending deferral is satisfied by this result.
				u.checkWhenOnline = false
			} else if !errored {
				u.lastCheck = CheckFailed
				u.fail(&TransactionError{Role: transaction.RoleDiscover, Code: transaction.ErrorUnknown, Details: exit.String()})
			}
			u.setStatusMessage("")
			u.setActivity(ActivityIdle)
			if u.lastCheck == CheckSucceeded {
				u.publishAggregate()
			}
			u.handler.OnCheckFinished(u.lastCheck)
		},
	}
	if err := u.svc.GetUpdates(ev); err != nil {
		u.registry.Clear(h)
		u.lastCheck = CheckFailed
		u.setStatusMessage("")
		u.setActivity(ActivityIdle)
		u.fail(errors.Wrap(err, "could not start update discovery"))
		u.handler.OnCheckFinished(u.lastCheck)
	}
}
