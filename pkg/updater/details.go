package updater

import (
	"time"

	"github.com/pkg/errors"
	"github.com/pkwatch/pkwatch/pkg/transaction"
)

// detailCacheTTL bounds how long a published detail record answers repeat
// lookups without a transaction. Consumers habitually re-request details for
// the same package while browsing.
const detailCacheTTL = time.Minute

// GetUpdateDetails starts a detail lookup for a single package and republishes
// each received record in normalized shape, streamed as it arrives. A second
// concurrent lookup is rejected with ErrAlreadyRunning; callers needing
// concurrency must serialize.
func (u *Updater) GetUpdateDetails(packageID string) error {
	if item := u.details.Get(packageID); item != nil && !item.Expired() {
		if d, ok := item.Value().(transaction.Detail); ok {
			u.handler.OnUpdateDetail(d)
			return nil
		}
	}

	h, err := u.registry.Start(transaction.RoleDetail)
	if err != nil {
		return err
	}
	errored := false
	ev := &transaction.Events{
		UpdateDetailFunc: func(d transaction.Detail) {
			if !u.registry.Current(h) {
				return
			}
			u.details.Set(d.PackageID, d, detailCacheTTL)
			u.handler.OnUpdateDetail(d)
		},
		ErrorCodeFunc: func(code transaction.Error, details string) {
			if !u.registry.Current(h) || errored {
				return
			}
			errored = true
			u.fail(&TransactionError{Role: transaction.RoleDetail, Code: code, Details: details})
		},
		FinishedFunc: func(exit transaction.Exit, _ time.Duration) {
			if !u.registry.Current(h) {
				return
			}
			u.registry.Clear(h)
			if exit != transaction.ExitSuccess && !errored {
				u.fail(&TransactionError{Role: transaction.RoleDetail, Code: transaction.ErrorUnknown, Details: exit.String()})
			}
		},
	}
	if err := u.svc.GetUpdateDetail(packageID, ev); err != nil {
		u.registry.Clear(h)
		return errors.Wrap(err, "could not start detail lookup")
	}
	return nil
}
