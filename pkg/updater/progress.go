package updater

// Activity names the phase of work currently underway. Exactly one value
// holds at a time.
type Activity int

const (
	ActivityIdle Activity = iota
	ActivityCheckingUpdates
	ActivityGettingUpdates
	ActivityInstallingUpdates
)

func (a Activity) String() string {
	switch a {
	case ActivityCheckingUpdates:
		return "checking-updates"
	case ActivityGettingUpdates:
		return "getting-updates"
	case ActivityInstallingUpdates:
		return "installing-updates"
	}
	return "idle"
}

// CheckState records the outcome of the most recent check independent of the
// current activity.
type CheckState int

const (
	NoCheckDone CheckState = iota
	CheckFailed
	CheckSucceeded
)

func (s CheckState) String() string {
	switch s {
	case CheckFailed:
		return "check-failed"
	case CheckSucceeded:
		return "check-succeeded"
	}
	return "no-check-done"
}

// PercentageIndeterminate is the sentinel percentage meaning progress cannot
// be quantified.
const PercentageIndeterminate = 101

func (u *Updater) setActivity(a Activity) {
	if u.activity == a {
		return
	}
	u.activity = a
	u.emitProgress()
}

func (u *Updater) setStatusMessage(msg string) {
	if u.status == msg {
		return
	}
	u.status = msg
	u.emitProgress()
}

// setPercentage clamps out-of-range values rather than rejecting them.
// Anything above 100 collapses to indeterminate.
func (u *Updater) setPercentage(p int) {
	switch {
	case p < 0:
		p = 0
	case p > 100:
		p = PercentageIndeterminate
	}
	if u.percentage == p {
		return
	}
	u.percentage = p
	u.emitProgress()
}

func (u *Updater) emitProgress() {
	u.handler.OnProgressChanged(Progress{
		Activity:      u.activity,
		Active:        u.activity != ActivityIdle,
		Percentage:    u.percentage,
		StatusMessage: u.status,
	})
}
