package pkdbus

import (
	"testing"
	"time"

	dbus "github.com/godbus/dbus/v5"
	"github.com/pkwatch/pkwatch/pkg/internal/testoutput"
	"github.com/pkwatch/pkwatch/pkg/logging"
	"github.com/pkwatch/pkwatch/pkg/transaction"
	"gotest.tools/assert"
)

const testPath = dbus.ObjectPath("/1_aabbccdd")

func testClient(t *testing.T) (*Client, chan func()) {
	dispatch := make(chan func(), 16)
	return &Client{
		log:      testoutput.Logger(t, logging.New("pkdbus")),
		dispatch: dispatch,
		live:     make(map[dbus.ObjectPath]*transaction.Events),
	}, dispatch
}

func drain(ch chan func()) {
	for {
		select {
		case fn := <-ch:
			fn()
		default:
			return
		}
	}
}

func TestRoutePackage(t *testing.T) {
	c, dispatch := testClient(t)
	var gotInfo transaction.Info
	var gotID, gotSummary string
	c.register(testPath, &transaction.Events{
		PackageFunc: func(info transaction.Info, id, summary string) {
			gotInfo, gotID, gotSummary = info, id, summary
		},
	})
	c.route(&dbus.Signal{
		Path: testPath,
		Name: transIface + ".Package",
		Body: []interface{}{uint32(transaction.InfoSecurity), "vim;2:8.1;x86_64;updates", "editor fixes"},
	})
	drain(dispatch)
	assert.Equal(t, gotInfo, transaction.InfoSecurity)
	assert.Equal(t, gotID, "vim;2:8.1;x86_64;updates")
	assert.Equal(t, gotSummary, "editor fixes")
}

func TestRouteFinishedUnregisters(t *testing.T) {
	c, dispatch := testClient(t)
	finishes := 0
	c.register(testPath, &transaction.Events{
		FinishedFunc: func(exit transaction.Exit, runtime time.Duration) {
			finishes++
			assert.Equal(t, exit, transaction.ExitSuccess)
			assert.Equal(t, runtime, 1500*time.Millisecond)
		},
	})
	fin := &dbus.Signal{
		Path: testPath,
		Name: transIface + ".Finished",
		Body: []interface{}{uint32(transaction.ExitSuccess), uint32(1500)},
	}
	c.route(fin)
	// Stragglers after the terminal event have no registration to land on.
	c.route(fin)
	drain(dispatch)
	assert.Equal(t, finishes, 1)
}

func TestRouteUnknownPathDropped(t *testing.T) {
	c, dispatch := testClient(t)
	c.route(&dbus.Signal{
		Path: dbus.ObjectPath("/999_unknown"),
		Name: transIface + ".ErrorCode",
		Body: []interface{}{uint32(transaction.ErrorInternalError), "boom"},
	})
	drain(dispatch)
}

func TestRoutePercentageProperty(t *testing.T) {
	c, dispatch := testClient(t)
	var got []int
	c.register(testPath, &transaction.Events{
		PercentageFunc: func(p int) { got = append(got, p) },
	})
	c.route(&dbus.Signal{
		Path: testPath,
		Name: propsIface + ".PropertiesChanged",
		Body: []interface{}{
			transIface,
			map[string]dbus.Variant{"Percentage": dbus.MakeVariant(uint32(42))},
			[]string{},
		},
	})
	// Property updates for other interfaces on the path are not progress.
	c.route(&dbus.Signal{
		Path: testPath,
		Name: propsIface + ".PropertiesChanged",
		Body: []interface{}{
			"org.freedesktop.DBus.Peer",
			map[string]dbus.Variant{"Percentage": dbus.MakeVariant(uint32(7))},
			[]string{},
		},
	})
	drain(dispatch)
	assert.DeepEqual(t, got, []int{42})
}

func TestDecodeDetail(t *testing.T) {
	d := decodeDetail([]interface{}{
		"kernel;5.2.9;x86_64;updates",
		[]string{"kernel;5.2.8;x86_64;installed"},
		[]string{},
		[]string{"https://vendor.example/advisory"},
		[]string{},
		[]string{"https://cve.example/CVE-2019-0001"},
		uint32(transaction.RestartSystem),
		"fixes a privilege escalation",
		"- rebase to 5.2.9",
		uint32(transaction.UpdateStateStable),
		"2019-08-20T10:00:00Z",
		"",
	})
	assert.Equal(t, d.PackageID, "kernel;5.2.9;x86_64;updates")
	assert.DeepEqual(t, d.Updates, []string{"kernel;5.2.8;x86_64;installed"})
	assert.DeepEqual(t, d.CVEURLs, []string{"https://cve.example/CVE-2019-0001"})
	assert.Equal(t, d.Restart, transaction.RestartSystem)
	assert.Equal(t, d.State, transaction.UpdateStateStable)
	assert.Equal(t, d.Issued, time.Date(2019, 8, 20, 10, 0, 0, 0, time.UTC))
	assert.Assert(t, d.Updated.IsZero())
}

func TestDecodeDefensive(t *testing.T) {
	// Wrong arity and wrong types decode to zero values rather than panicking.
	d := decodeDetail([]interface{}{uint32(7)})
	assert.Equal(t, d.PackageID, "")
	assert.Assert(t, d.Updates == nil)
	assert.Equal(t, bodyU32([]interface{}{"nope"}, 0), uint32(0))
	assert.Equal(t, parseStamp("not a stamp"), time.Time{})
	assert.Equal(t, parseStamp("2019-08-20T10:00:00"), time.Date(2019, 8, 20, 10, 0, 0, 0, time.UTC))
}
