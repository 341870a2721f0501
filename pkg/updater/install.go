package updater

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/pkwatch/pkwatch/pkg/eula"
	"github.com/pkwatch/pkwatch/pkg/pkgid"
	"github.com/pkwatch/pkwatch/pkg/transaction"
)

// InstallUpdates launches the update process for the given package IDs. An
// empty set is a silent no-op. A simulated run never mutates system state and
// never triggers the post-success recheck; untrusted pre-authorizes packages
// failing signature verification for this run only.
//
// The arguments are retained for the lifetime of any license-agreement drain
// so the identical operation can be re-issued once agreements are resolved.
func (u *Updater) InstallUpdates(ids []string, simulate, untrusted bool) error {
	if len(ids) == 0 {
		u.log.Debug("no packages requested, nothing to install")
		return nil
	}
	ctx := &installContext{
		ids:       append([]string(nil), ids...),
		simulate:  simulate,
		untrusted: untrusted,
	}
	u.restarts = make(map[string]transaction.Restart)
	return u.install(ctx)
}

func (u *Updater) install(ctx *installContext) error {
	h, err := u.registry.Start(transaction.RoleInstall)
	if err != nil {
		return err
	}
	u.pending = ctx
	u.repoSig = nil
	u.setActivity(ActivityInstallingUpdates)
	u.setPercentage(PercentageIndeterminate)
	u.setStatusMessage("Updating software")

	errored := false
	ev := &transaction.Events{
		PackageFunc: func(info transaction.Info, packageID, _ string) {
			if !u.registry.Current(h) {
				return
			}
			switch info {
			case transaction.InfoDownloading:
				u.setStatusMessage(fmt.Sprintf("Downloading %s", pkgid.Name(packageID)))
			case transaction.InfoUpdating, transaction.InfoInstalling:
				u.setStatusMessage(fmt.Sprintf("Updating %s", pkgid.Name(packageID)))
			}
		},
		PercentageFunc: func(p int) {
			if u.registry.Current(h) {
				u.setPercentage(p)
			}
		},
		RequireRestartFunc: func(kind transaction.Restart, packageID string) {
			if u.registry.Current(h) {
				u.restarts[packageID] = kind
			}
		},
		EulaRequiredFunc: func(eulaID, packageID, vendor, license string) {
			if !u.registry.Current(h) {
				return
			}
			u.eulas.Enqueue(eula.Record{
				EulaID:    eulaID,
				PackageID: packageID,
				Vendor:    vendor,
				License:   license,
			})
		},
		RepoSignatureRequiredFunc: func(sig transaction.RepoSignature) {
			if u.registry.Current(h) {
				u.repoSig = &sig
			}
		},
		ErrorCodeFunc: func(code transaction.Error, details string) {
			if !u.registry.Current(h) || errored {
				return
			}
			// License and trust interruptions surface through their own
			// paths, not as failures.
			if code == transaction.ErrorNoLicenseAgreement || code == transaction.ErrorMissingGpgSignature {
				return
			}
			errored = true
			u.fail(&TransactionError{Role: transaction.RoleInstall, Code: code, Details: details})
		},
		FinishedFunc: func(exit transaction.Exit, _ time.Duration) {
			if !u.registry.Current(h) {
				return
			}
			u.registry.Clear(h)
			u.finishInstall(ctx, exit, errored)
		},
	}
	if err := u.svc.UpdatePackages(ctx.ids, ctx.simulate, ctx.untrusted, ev); err != nil {
		u.registry.Clear(h)
		u.pending = nil
		u.setStatusMessage("")
		u.setActivity(ActivityIdle)
		return errors.Wrap(err, "could not start install")
	}
	return nil
}

func (u *Updater) finishInstall(ctx *installContext, exit transaction.Exit, errored bool) {
	switch {
	case exit == transaction.ExitSuccess:
		u.pending = nil
		u.setStatusMessage("")
		u.setActivity(ActivityIdle)
		if ctx.simulate {
			u.log.Debug("simulated install finished, catalog left as is")
			return
		}
		u.handler.OnInstalled(u.restartSnapshot())
		// The catalog no longer reflects the system; refresh it.
		u.check(true, false, true)

	case exit == transaction.ExitEulaRequired && !u.eulas.Empty():
		// Activity stays on installing while agreements drain; the retained
		// context re-issues the install once the queue empties.
		u.setStatusMessage("Waiting for license agreement")
		if rec, ok := u.eulas.Prompt(); ok {
			u.handler.OnEulaRequired(rec)
		}

	case (exit == transaction.ExitNeedUntrusted || exit == transaction.ExitKeyRequired) && u.repoSig != nil:
		// Installation does not proceed until the consumer confirms trust,
		// and is not retried automatically.
		sig := *u.repoSig
		u.repoSig = nil
		u.pending = nil
		u.setStatusMessage("")
		u.setActivity(ActivityIdle)
		u.handler.OnRepoSignatureRequired(sig)

	default:
		if !errored {
			u.fail(&TransactionError{Role: transaction.RoleInstall, Code: transaction.ErrorUnknown, Details: exit.String()})
		}
		u.pending = nil
		u.setStatusMessage("")
		u.setActivity(ActivityIdle)
	}
}

func (u *Updater) restartSnapshot() map[string]transaction.Restart {
	snapshot := make(map[string]transaction.Restart, len(u.restarts))
	for id, kind := range u.restarts {
		snapshot[id] = kind
	}
	return snapshot
}

// EulaAgreementResult answers the license agreement currently in prompt.
// Resolution is strictly FIFO; anything but the queue head is rejected.
// Agreement starts an acceptance transaction; once the queue drains the
// original install is re-issued with its retained arguments. Decline drains
// the queue and fails the install with ErrEulaDeclined.
func (u *Updater) EulaAgreementResult(eulaID string, agreed bool) error {
	if !agreed {
		rec, err := u.eulas.Resolve(eulaID)
		if err != nil {
			return err
		}
		u.log.WithField("eula", rec.EulaID).Info("license agreement declined")
		u.abandonInstall(errors.WithMessage(ErrEulaDeclined, rec.EulaID))
		return nil
	}

	// The slot is claimed before the queue head is popped; a rejected
	// acceptance must leave the queue untouched.
	h, err := u.registry.Start(transaction.RoleEulaAccept)
	if err != nil {
		return err
	}
	rec, err := u.eulas.Resolve(eulaID)
	if err != nil {
		u.registry.Clear(h)
		return err
	}
	ev := &transaction.Events{
		ErrorCodeFunc: func(code transaction.Error, details string) {
			if u.registry.Current(h) {
				u.log.WithField("eula", rec.EulaID).Errorf("eula acceptance errored: %s: %s", code, details)
			}
		},
		FinishedFunc: func(exit transaction.Exit, _ time.Duration) {
			if !u.registry.Current(h) {
				return
			}
			u.registry.Clear(h)
			if exit != transaction.ExitSuccess {
				// A failed acceptance is treated as declined.
				u.abandonInstall(errors.WithMessage(ErrEulaDeclined, "acceptance failed for "+rec.EulaID))
				return
			}
			if next, ok := u.eulas.Prompt(); ok {
				u.handler.OnEulaRequired(next)
				return
			}
			u.resumeInstall()
		},
	}
	if err := u.svc.AcceptEula(eulaID, ev); err != nil {
		u.registry.Clear(h)
		u.abandonInstall(errors.Wrap(err, "could not start eula acceptance"))
	}
	return nil
}

// resumeInstall re-issues the retained install operation after the agreement
// queue has drained by acceptance.
func (u *Updater) resumeInstall() {
	ctx := u.pending
	if ctx == nil {
		u.setStatusMessage("")
		u.setActivity(ActivityIdle)
		return
	}
	if err := u.install(ctx); err != nil {
		u.pending = nil
		u.setStatusMessage("")
		u.setActivity(ActivityIdle)
		u.fail(errors.WithMessage(err, "could not resume install"))
	}
}

// abandonInstall drops the whole agreement queue and fails the retained
// install operation.
func (u *Updater) abandonInstall(err error) {
	u.eulas.Drain()
	u.pending = nil
	u.setStatusMessage("")
	u.setActivity(ActivityIdle)
	u.fail(err)
}
