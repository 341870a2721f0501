// Package pkdbus binds the transaction service boundary to the PackageKit
// daemon on the system bus. Each started operation creates one transaction
// object; the daemon streams results back as signals on that object's path,
// which the client converts and posts onto the daemon loop's dispatch channel
// so the core stays on a single control goroutine.
package pkdbus

import (
	"context"
	"sync"

	dbus "github.com/godbus/dbus/v5"
	"github.com/pkg/errors"
	"github.com/pkwatch/pkwatch/pkg/logging"
	"github.com/pkwatch/pkwatch/pkg/transaction"
)

const (
	busName     = "org.freedesktop.PackageKit"
	daemonPath  = dbus.ObjectPath("/org/freedesktop/PackageKit")
	daemonIface = "org.freedesktop.PackageKit"
	transIface  = "org.freedesktop.PackageKit.Transaction"
	propsIface  = "org.freedesktop.DBus.Properties"
)

// Transaction flag bits understood by the daemon.
const (
	flagNone        uint64 = 0
	flagOnlyTrusted uint64 = 1 << 0
	flagSimulate    uint64 = 1 << 1
)

// filterNone asks for the unfiltered update set.
const filterNone uint64 = 1

var _ transaction.Service = (*Client)(nil)

type Client struct {
	log      logging.Logger
	conn     *dbus.Conn
	dispatch chan<- func()
	signals  chan *dbus.Signal

	mu   sync.Mutex
	live map[dbus.ObjectPath]*transaction.Events
}

// New subscribes to PackageKit transaction signals on conn. Events are
// delivered as closures on dispatch; the caller's loop must drain it.
func New(log logging.Logger, conn *dbus.Conn, dispatch chan<- func()) (*Client, error) {
	if err := conn.AddMatchSignal(dbus.WithMatchInterface(transIface)); err != nil {
		return nil, errors.Wrap(err, "unable to subscribe to transaction signals")
	}
	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(propsIface),
		dbus.WithMatchMember("PropertiesChanged"),
	); err != nil {
		return nil, errors.Wrap(err, "unable to subscribe to property signals")
	}
	c := &Client{
		log:      log,
		conn:     conn,
		dispatch: dispatch,
		signals:  make(chan *dbus.Signal, 64),
		live:     make(map[dbus.ObjectPath]*transaction.Events),
	}
	conn.Signal(c.signals)
	return c, nil
}

// Run pumps bus signals until ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	c.log.Debug("starting")
	defer c.log.Debug("finished")
	for {
		select {
		case <-ctx.Done():
			c.conn.RemoveSignal(c.signals)
			return nil
		case sig, ok := <-c.signals:
			if !ok {
				return errors.New("bus signal channel closed")
			}
			c.route(sig)
		}
	}
}

// DaemonVersion reports the daemon's advertised version, for startup logging.
func (c *Client) DaemonVersion() (string, error) {
	obj := c.conn.Object(busName, daemonPath)
	var parts [3]uint32
	for i, prop := range []string{"VersionMajor", "VersionMinor", "VersionMicro"} {
		v, err := obj.GetProperty(daemonIface + "." + prop)
		if err != nil {
			return "", errors.Wrap(err, "unable to query daemon version")
		}
		n, ok := v.Value().(uint32)
		if !ok {
			return "", errors.Errorf("unable to handle queried property: %q", v)
		}
		parts[i] = n
	}
	return versionString(parts), nil
}

func (c *Client) RefreshCache(force bool, ev *transaction.Events) error {
	path, err := c.createTransaction(ev)
	if err != nil {
		return err
	}
	return c.call(path, "RefreshCache", force)
}

func (c *Client) GetUpdates(ev *transaction.Events) error {
	path, err := c.createTransaction(ev)
	if err != nil {
		return err
	}
	return c.call(path, "GetUpdates", filterNone)
}

func (c *Client) UpdatePackages(ids []string, simulate, untrusted bool, ev *transaction.Events) error {
	flags := flagOnlyTrusted
	if untrusted {
		flags = flagNone
	}
	if simulate {
		flags |= flagSimulate
	}
	path, err := c.createTransaction(ev)
	if err != nil {
		return err
	}
	return c.call(path, "UpdatePackages", flags, ids)
}

func (c *Client) GetUpdateDetail(packageID string, ev *transaction.Events) error {
	path, err := c.createTransaction(ev)
	if err != nil {
		return err
	}
	return c.call(path, "GetUpdateDetail", []string{packageID})
}

func (c *Client) AcceptEula(eulaID string, ev *transaction.Events) error {
	path, err := c.createTransaction(ev)
	if err != nil {
		return err
	}
	return c.call(path, "AcceptEula", eulaID)
}

// createTransaction asks the daemon for a fresh transaction object and
// registers ev for its path before any method runs, so no early signal is
// missed.
func (c *Client) createTransaction(ev *transaction.Events) (dbus.ObjectPath, error) {
	obj := c.conn.Object(busName, daemonPath)
	var path dbus.ObjectPath
	if err := obj.Call(daemonIface+".CreateTransaction", 0).Store(&path); err != nil {
		return "", errors.Wrap(err, "unable to create transaction")
	}
	c.register(path, ev)
	if err := c.call(path, "SetHints", []string{"interactive=false"}); err != nil {
		return "", err
	}
	return path, nil
}

func (c *Client) call(path dbus.ObjectPath, method string, args ...interface{}) error {
	obj := c.conn.Object(busName, path)
	if call := obj.Call(transIface+"."+method, 0, args...); call.Err != nil {
		c.unregister(path)
		return errors.Wrap(call.Err, "unable to call "+method)
	}
	return nil
}

func (c *Client) register(path dbus.ObjectPath, ev *transaction.Events) {
	c.mu.Lock()
	c.live[path] = ev
	c.mu.Unlock()
}

func (c *Client) unregister(path dbus.ObjectPath) {
	c.mu.Lock()
	delete(c.live, path)
	c.mu.Unlock()
}

func (c *Client) lookup(path dbus.ObjectPath) *transaction.Events {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live[path]
}

func (c *Client) post(fn func()) {
	c.dispatch <- fn
}
