package main

import (
	"context"
	"flag"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	dbus "github.com/godbus/dbus/v5"
	"github.com/pkwatch/pkwatch/pkg/agent"
	"github.com/pkwatch/pkwatch/pkg/envmon"
	"github.com/pkwatch/pkwatch/pkg/logging"
	"github.com/pkwatch/pkwatch/pkg/pkdbus"
	"github.com/pkwatch/pkwatch/pkg/sigcontext"
	"github.com/pkwatch/pkwatch/pkg/workgroup"
)

var (
	flagLogDebug      = flag.Bool("debug", false, "")
	flagJournal       = flag.Bool("journal", false, "Send log output to the systemd journal")
	flagOneshot       = flag.Bool("oneshot", false, "Run a single forced update check and exit")
	flagCheckInterval = flag.Duration("check-interval", 24*time.Hour, "Time between automatic update checks")
	flagInitialDelay  = flag.Duration("initial-delay", 2*time.Minute, "Wait before the first automatic update check")
)

func main() {
	flag.Parse()

	if *flagLogDebug {
		logging.Set(logging.Level("debug"))
	}

	log := logging.New("main")

	if *flagJournal {
		if err := logging.Set(logging.Journal()); err != nil {
			log.WithError(err).Warn("journal output unavailable, staying on stderr")
		}
	}

	// "debuggable" builds at runtime produce extensive logging output compared
	// to release builds with the debug flag enabled. This requires building and
	// using a distinct build in the deployment in order to use.
	if logging.Debuggable {
		log.Info("low-level logging.Debuggable is enabled in this build")
		log.Warn("logging.Debuggable produces large volumes of logs")
		delay := 3 * time.Second
		log.WithField("delay", delay).Warn("delaying start due to logging.Debuggable build")
		time.Sleep(delay)
		log.Info("starting logging.Debuggable enabled build")
	}

	ctx, cancel := sigcontext.WithSignalCancel(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	conn, err := dbus.SystemBus()
	if err != nil {
		log.WithError(err).Fatal("unable to connect to the system bus")
	}
	defer conn.Close()

	// Buffered so handlers can post followup work from inside the control
	// loop without wedging it.
	dispatch := make(chan func(), 128)

	client, err := pkdbus.New(logging.New("pkdbus"), conn, dispatch)
	if err != nil {
		log.WithError(err).Fatal("unable to bind to the package service")
	}
	if version, err := client.DaemonVersion(); err != nil {
		log.WithError(err).Warn("unable to query package service version")
	} else {
		log.WithField("version", version).Info("connected to package service")
	}

	a, err := agent.New(logging.New("agent"), client, dispatch, agent.Config{
		CheckInterval: *flagCheckInterval,
		InitialDelay:  *flagInitialDelay,
		Oneshot:       *flagOneshot,
	})
	if err != nil {
		log.WithError(err).Fatal("unable to build agent")
	}

	group := workgroup.WithContext(ctx)
	group.Work(client.Run)
	// A forced single check runs regardless of power source or metering, so
	// oneshot mode skips the environment monitor.
	if !*flagOneshot {
		monitor, err := envmon.New(logging.New("envmon"), conn, dispatch, a.Updater())
		if err != nil {
			log.WithError(err).Fatal("unable to watch the host environment")
		}
		group.Work(monitor.Run)
	}
	group.Work(func(ctx context.Context) error {
		// The agent returning ends the process; unwind the bus workers too.
		defer cancel()
		return a.Run(ctx)
	})

	if !*flagOneshot {
		if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
			log.WithError(err).Debug("unable to notify service manager")
		}
	}

	if err := group.Wait(); err != nil && err != context.Canceled {
		log.WithError(err).Fatal("stopped")
	}
}
