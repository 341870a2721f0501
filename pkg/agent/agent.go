// Package agent hosts the long-lived daemon around the update workflow. The
// agent owns the dispatch loop that serializes every transaction event and
// environment report onto one control goroutine, schedules periodic automatic
// checks, and reports the updater's outputs through the log.
package agent

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/pkwatch/pkwatch/pkg/logging"
	"github.com/pkwatch/pkwatch/pkg/transaction"
	"github.com/pkwatch/pkwatch/pkg/updater"
)

const (
	defaultCheckInterval = 24 * time.Hour
	defaultInitialDelay  = 2 * time.Minute
)

type Config struct {
	// CheckInterval is the cadence of automatic checks.
	CheckInterval time.Duration
	// InitialDelay is the wait before the first automatic check, giving the
	// system time to settle after boot.
	InitialDelay time.Duration
	// Oneshot runs a single forced check and exits instead of daemonizing.
	Oneshot bool
}

type Agent struct {
	log      logging.Logger
	config   Config
	dispatch chan func()
	updater  *updater.Updater

	checked   bool
	lastCheck updater.CheckState
}

// New builds an Agent around svc. The dispatch channel must be the same one
// the transaction client and environment monitor post to; the agent's Run loop
// is its only consumer. The channel must be buffered, handlers may post
// followup work from inside the loop.
func New(log logging.Logger, svc transaction.Service, dispatch chan func(), config Config) (*Agent, error) {
	if config.CheckInterval <= 0 {
		config.CheckInterval = defaultCheckInterval
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = defaultInitialDelay
	}
	a := &Agent{
		log:      log,
		config:   config,
		dispatch: dispatch,
	}
	u, err := updater.New(log, svc, &logHandler{log: log, agent: a})
	if err != nil {
		return nil, errors.WithMessage(err, "unable to build updater")
	}
	a.updater = u
	return a, nil
}

// Updater exposes the driven updater, for wiring and inspection.
func (a *Agent) Updater() *updater.Updater {
	return a.updater
}

// Run drives the control loop until ctx is cancelled. In oneshot mode it
// returns once the forced check concludes, with an error when the check
// failed.
func (a *Agent) Run(ctx context.Context) error {
	a.log.Debug("starting")
	defer a.log.Debug("finished")
	if a.config.Oneshot {
		return a.runOnce(ctx)
	}
	timer := time.NewTimer(a.config.InitialDelay)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			a.updater.CheckUpdates(false, false)
			timer.Reset(a.config.CheckInterval)
		case fn := <-a.dispatch:
			fn()
		}
	}
}

func (a *Agent) runOnce(ctx context.Context) error {
	a.updater.CheckUpdates(true, true)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-a.dispatch:
			fn()
		}
		if a.checked && !a.updater.IsActive() {
			if a.lastCheck == updater.CheckFailed {
				return errors.New("update check failed")
			}
			return nil
		}
	}
}
