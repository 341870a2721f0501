// Package envmon watches the host conditions that gate automatic update
// checks: network reachability, connection metering, and battery power. State
// is probed once at startup and then tracked through bus signals; every change
// is posted to the daemon loop's dispatch channel, so the consumer never sees
// a concurrent call.
package envmon

import (
	"context"

	dbus "github.com/godbus/dbus/v5"
	"github.com/pkg/errors"
	"github.com/pkwatch/pkwatch/pkg/logging"
	"github.com/sirupsen/logrus"
)

const (
	nmBusName = "org.freedesktop.NetworkManager"
	nmPath    = dbus.ObjectPath("/org/freedesktop/NetworkManager")
	nmIface   = "org.freedesktop.NetworkManager"

	upowerBusName = "org.freedesktop.UPower"
	upowerPath    = dbus.ObjectPath("/org/freedesktop/UPower")
	upowerIface   = "org.freedesktop.UPower"

	propsIface = "org.freedesktop.DBus.Properties"
)

// nmStateConnectedSite is the lowest NetworkManager state with usable
// connectivity.
const nmStateConnectedSite uint32 = 60

// Metered property values marking the active connection as pay-per-use.
const (
	meteredYes      uint32 = 1
	meteredGuessYes uint32 = 3
)

// Sink receives environment reports. Calls are delivered on the dispatch loop.
type Sink interface {
	SetNetworkState(online, mobile bool)
	SetOnBattery(onBattery bool)
}

type Monitor struct {
	log      logging.Logger
	conn     *dbus.Conn
	dispatch chan<- func()
	sink     Sink
	signals  chan *dbus.Signal

	online    bool
	mobile    bool
	onBattery bool
}

// New subscribes to network and power state changes on conn. Missing services
// are tolerated; the monitor then reports only what it can observe.
func New(log logging.Logger, conn *dbus.Conn, dispatch chan<- func(), sink Sink) (*Monitor, error) {
	for _, path := range []dbus.ObjectPath{nmPath, upowerPath} {
		if err := conn.AddMatchSignal(
			dbus.WithMatchInterface(propsIface),
			dbus.WithMatchMember("PropertiesChanged"),
			dbus.WithMatchObjectPath(path),
		); err != nil {
			return nil, errors.Wrap(err, "unable to subscribe to property signals")
		}
	}
	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(nmIface),
		dbus.WithMatchMember("StateChanged"),
	); err != nil {
		return nil, errors.Wrap(err, "unable to subscribe to network state signals")
	}
	m := &Monitor{
		log:      log,
		conn:     conn,
		dispatch: dispatch,
		sink:     sink,
		signals:  make(chan *dbus.Signal, 16),
		online:   true,
	}
	conn.Signal(m.signals)
	return m, nil
}

// Run probes the current state, reports it, and then relays changes until ctx
// is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	m.log.Debug("starting")
	defer m.log.Debug("finished")
	m.probe()
	m.reportNetwork()
	m.reportPower()
	for {
		select {
		case <-ctx.Done():
			m.conn.RemoveSignal(m.signals)
			return nil
		case sig, ok := <-m.signals:
			if !ok {
				return errors.New("bus signal channel closed")
			}
			m.handle(sig)
		}
	}
}

// probe reads the initial state. A service that is not on the bus leaves the
// optimistic defaults in place.
func (m *Monitor) probe() {
	if state, err := m.propU32(nmBusName, nmPath, nmIface+".State"); err != nil {
		m.log.WithError(err).Warn("unable to query network state, assuming online")
	} else {
		m.online = state >= nmStateConnectedSite
	}
	if metered, err := m.propU32(nmBusName, nmPath, nmIface+".Metered"); err != nil {
		m.log.WithError(err).Debug("unable to query connection metering")
	} else {
		m.mobile = metered == meteredYes || metered == meteredGuessYes
	}
	if battery, err := m.propBool(upowerBusName, upowerPath, upowerIface+".OnBattery"); err != nil {
		m.log.WithError(err).Debug("unable to query power source, assuming mains")
	} else {
		m.onBattery = battery
	}
	m.log.WithFields(logrus.Fields{
		"online":     m.online,
		"mobile":     m.mobile,
		"on-battery": m.onBattery,
	}).Info("observed environment")
}

func (m *Monitor) handle(sig *dbus.Signal) {
	switch {
	case sig.Name == nmIface+".StateChanged":
		if len(sig.Body) < 1 {
			return
		}
		if state, ok := sig.Body[0].(uint32); ok {
			m.setNetwork(state >= nmStateConnectedSite, m.mobile)
		}
	case sig.Name == propsIface+".PropertiesChanged" && sig.Path == nmPath:
		changed, ok := changedProps(sig, nmIface)
		if !ok {
			return
		}
		online, mobile := m.online, m.mobile
		if v, ok := changed["State"]; ok {
			if state, ok := v.Value().(uint32); ok {
				online = state >= nmStateConnectedSite
			}
		}
		if v, ok := changed["Metered"]; ok {
			if metered, ok := v.Value().(uint32); ok {
				mobile = metered == meteredYes || metered == meteredGuessYes
			}
		}
		m.setNetwork(online, mobile)
	case sig.Name == propsIface+".PropertiesChanged" && sig.Path == upowerPath:
		changed, ok := changedProps(sig, upowerIface)
		if !ok {
			return
		}
		if v, ok := changed["OnBattery"]; ok {
			if battery, ok := v.Value().(bool); ok {
				m.setOnBattery(battery)
			}
		}
	}
}

func (m *Monitor) setNetwork(online, mobile bool) {
	if online == m.online && mobile == m.mobile {
		return
	}
	m.online, m.mobile = online, mobile
	m.log.WithFields(logrus.Fields{
		"online": online,
		"mobile": mobile,
	}).Info("network state changed")
	m.reportNetwork()
}

func (m *Monitor) setOnBattery(onBattery bool) {
	if onBattery == m.onBattery {
		return
	}
	m.onBattery = onBattery
	m.log.WithField("on-battery", onBattery).Info("power source changed")
	m.reportPower()
}

func (m *Monitor) reportNetwork() {
	online, mobile := m.online, m.mobile
	m.dispatch <- func() { m.sink.SetNetworkState(online, mobile) }
}

func (m *Monitor) reportPower() {
	onBattery := m.onBattery
	m.dispatch <- func() { m.sink.SetOnBattery(onBattery) }
}

func (m *Monitor) propU32(dest string, path dbus.ObjectPath, prop string) (uint32, error) {
	v, err := m.conn.Object(dest, path).GetProperty(prop)
	if err != nil {
		return 0, errors.Wrap(err, "unable to query property "+prop)
	}
	n, ok := v.Value().(uint32)
	if !ok {
		return 0, errors.Errorf("unable to handle queried property: %q", v)
	}
	return n, nil
}

func (m *Monitor) propBool(dest string, path dbus.ObjectPath, prop string) (bool, error) {
	v, err := m.conn.Object(dest, path).GetProperty(prop)
	if err != nil {
		return false, errors.Wrap(err, "unable to query property "+prop)
	}
	b, ok := v.Value().(bool)
	if !ok {
		return false, errors.Errorf("unable to handle queried property: %q", v)
	}
	return b, nil
}

func changedProps(sig *dbus.Signal, iface string) (map[string]dbus.Variant, bool) {
	if len(sig.Body) < 2 {
		return nil, false
	}
	if name, ok := sig.Body[0].(string); !ok || name != iface {
		return nil, false
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	return changed, ok
}
