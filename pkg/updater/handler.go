package updater

import (
	"time"

	"github.com/pkwatch/pkwatch/pkg/eula"
	"github.com/pkwatch/pkwatch/pkg/transaction"
)

// Aggregate is the coalesced update summary published to the consumer. One
// Aggregate is emitted per successful discovery cycle, never one per package.
type Aggregate struct {
	Count          int
	ImportantCount int
	SecurityCount  int
	UpToDate       bool
	Message        string
	IconName       string
	Packages       map[string]string
	LastRefresh    time.Time
}

// Progress is the activity and progress snapshot published on each change.
type Progress struct {
	Activity      Activity
	Active        bool
	Percentage    int
	StatusMessage string
}

// Handler receives the updater's outputs. All callbacks are delivered on the
// single control goroutine, exactly one per logical change.
type Handler interface {
	// OnUpdatesChanged delivers the aggregate state after a discovery cycle.
	OnUpdatesChanged(Aggregate)
	// OnProgressChanged delivers activity, percentage and status changes.
	OnProgressChanged(Progress)
	// OnCheckFinished fires when a check concludes, with success or failure.
	OnCheckFinished(CheckState)
	// OnInstalled fires after updates were installed successfully, with the
	// per-package restart requirements collected during the run.
	OnInstalled(restarts map[string]transaction.Restart)
	// OnUpdateDetail delivers one normalized update-detail record.
	OnUpdateDetail(transaction.Detail)
	// OnEulaRequired prompts the caller to resolve a license agreement via
	// EulaAgreementResult.
	OnEulaRequired(eula.Record)
	// OnRepoSignatureRequired asks the caller to confirm trust in a repository
	// signing key. The install is neither resumed nor retried automatically.
	OnRepoSignatureRequired(transaction.RepoSignature)
	// OnError delivers one classified failure per failed logical operation.
	OnError(error)
}

// HandlerFuncs adapts plain funcs to Handler. Nil funcs drop their events.
type HandlerFuncs struct {
	OnUpdatesChangedFunc        func(Aggregate)
	OnProgressChangedFunc       func(Progress)
	OnCheckFinishedFunc         func(CheckState)
	OnInstalledFunc             func(map[string]transaction.Restart)
	OnUpdateDetailFunc          func(transaction.Detail)
	OnEulaRequiredFunc          func(eula.Record)
	OnRepoSignatureRequiredFunc func(transaction.RepoSignature)
	OnErrorFunc                 func(error)
}

var _ Handler = (*HandlerFuncs)(nil)

func (fn *HandlerFuncs) OnUpdatesChanged(a Aggregate) {
	if fn.OnUpdatesChangedFunc != nil {
		fn.OnUpdatesChangedFunc(a)
	}
}

func (fn *HandlerFuncs) OnProgressChanged(p Progress) {
	if fn.OnProgressChangedFunc != nil {
		fn.OnProgressChangedFunc(p)
	}
}

func (fn *HandlerFuncs) OnCheckFinished(s CheckState) {
	if fn.OnCheckFinishedFunc != nil {
		fn.OnCheckFinishedFunc(s)
	}
}

func (fn *HandlerFuncs) OnInstalled(restarts map[string]transaction.Restart) {
	if fn.OnInstalledFunc != nil {
		fn.OnInstalledFunc(restarts)
	}
}

func (fn *HandlerFuncs) OnUpdateDetail(d transaction.Detail) {
	if fn.OnUpdateDetailFunc != nil {
		fn.OnUpdateDetailFunc(d)
	}
}

func (fn *HandlerFuncs) OnEulaRequired(r eula.Record) {
	if fn.OnEulaRequiredFunc != nil {
		fn.OnEulaRequiredFunc(r)
	}
}

func (fn *HandlerFuncs) OnRepoSignatureRequired(sig transaction.RepoSignature) {
	if fn.OnRepoSignatureRequiredFunc != nil {
		fn.OnRepoSignatureRequiredFunc(sig)
	}
}

func (fn *HandlerFuncs) OnError(err error) {
	if fn.OnErrorFunc != nil {
		fn.OnErrorFunc(err)
	}
}
