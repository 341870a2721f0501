// Package updater drives the system update workflow against the asynchronous
// package service: cache refreshes, update discovery, installation, license
// acceptance and trust confirmation, with aggregated progress and results
// published to a Handler.
//
// The Updater is confined to a single control goroutine. Transactions run
// concurrently at the protocol level, but every event lands here one at a
// time, so the state carries no locks.
package updater

import (
	"time"

	"github.com/karlseguin/ccache"
	"github.com/pkg/errors"
	"github.com/pkwatch/pkwatch/pkg/catalog"
	"github.com/pkwatch/pkwatch/pkg/eula"
	"github.com/pkwatch/pkwatch/pkg/logging"
	"github.com/pkwatch/pkwatch/pkg/transaction"
)

// Environment is the externally reported machine state the updater reacts to.
// It is pushed in by the environment monitor, never polled.
type Environment struct {
	NetworkOnline bool
	NetworkMobile bool
	OnBattery     bool
}

// installContext retains the arguments of the install that is currently being
// driven, so a license-agreement drain can re-issue the very same operation.
type installContext struct {
	ids       []string
	simulate  bool
	untrusted bool
}

type Updater struct {
	log     logging.Logger
	svc     transaction.Service
	handler Handler

	registry *transaction.Registry
	catalog  *catalog.Catalog
	eulas    *eula.Queue
	details  *ccache.Cache

	activity    Activity
	lastCheck   CheckState
	status      string
	percentage  int
	lastRefresh time.Time

	env             Environment
	checkWhenOnline bool

	pending  *installContext
	restarts map[string]transaction.Restart
	repoSig  *transaction.RepoSignature
}

// New returns an Updater bound to the given service. A nil handler drops all
// outputs. The environment starts out online; the monitor corrects it on its
// first report.
func New(log logging.Logger, svc transaction.Service, h Handler) (*Updater, error) {
	if svc == nil {
		return nil, errors.New("transaction service must be provided")
	}
	if h == nil {
		h = &HandlerFuncs{}
	}
	return &Updater{
		log:        log,
		svc:        svc,
		handler:    h,
		registry:   transaction.NewRegistry(),
		catalog:    catalog.New(),
		eulas:      &eula.Queue{},
		details:    ccache.New(ccache.Configure().MaxSize(256).ItemsToPrune(16)),
		percentage: PercentageIndeterminate,
		env:        Environment{NetworkOnline: true},
	}, nil
}

// Activity reports the phase currently underway.
func (u *Updater) Activity() Activity {
	return u.activity
}

// IsActive reports whether any user-visible work is underway.
func (u *Updater) IsActive() bool {
	return u.activity != ActivityIdle
}

// LastCheckState answers whether the last check succeeded, independent of the
// current activity.
func (u *Updater) LastCheckState() CheckState {
	return u.lastCheck
}

// StatusMessage conveys the action being performed right now.
func (u *Updater) StatusMessage() string {
	return u.status
}

// Percentage is the current progress, 0 to 100, or PercentageIndeterminate.
func (u *Updater) Percentage() int {
	return u.percentage
}

// LastRefresh is the time of the last successful check, zero if never.
func (u *Updater) LastRefresh() time.Time {
	return u.lastRefresh
}

// Timestamp renders the last successful check for display, empty if never.
func (u *Updater) Timestamp() string {
	if u.lastRefresh.IsZero() {
		return ""
	}
	return u.lastRefresh.Format("Mon Jan 2 15:04:05 2006")
}

// Catalog exposes the current update catalog for reads.
func (u *Updater) Catalog() *catalog.Catalog {
	return u.catalog
}

// Count reports the total number of pending updates.
func (u *Updater) Count() int {
	return u.catalog.Count()
}

// IsSystemUpToDate reports whether no updates are pending.
func (u *Updater) IsSystemUpToDate() bool {
	return u.catalog.IsUpToDate()
}

// Environment returns the last reported environment state.
func (u *Updater) Environment() Environment {
	return u.env
}

// SetNetworkState records reported network reachability. Transitioning to
// online releases a deferred check exactly once.
func (u *Updater) SetNetworkState(online, mobile bool) {
	cameOnline := online && !u.env.NetworkOnline
	u.env.NetworkOnline = online
	u.env.NetworkMobile = mobile
	if cameOnline && u.checkWhenOnline {
		u.checkWhenOnline = false
		u.log.Info("network is back online, running deferred update check")
		u.check(false, false, true)
	}
}

// SetOnBattery records the reported power source.
func (u *Updater) SetOnBattery(onBattery bool) {
	u.env.OnBattery = onBattery
}

// fail surfaces one classified failure notification to the consumer.
func (u *Updater) fail(err error) {
	u.log.WithError(err).Error("operation failed")
	u.handler.OnError(err)
}

func (u *Updater) publishAggregate() {
	u.handler.OnUpdatesChanged(Aggregate{
		Count:          u.catalog.Count(),
		ImportantCount: u.catalog.ImportantCount(),
		SecurityCount:  u.catalog.SecurityCount(),
		UpToDate:       u.catalog.IsUpToDate(),
		Message:        u.catalog.Message(),
		IconName:       u.catalog.IconName(),
		Packages:       u.catalog.Packages(),
		LastRefresh:    u.lastRefresh,
	})
}
