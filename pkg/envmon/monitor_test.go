package envmon

import (
	"testing"

	dbus "github.com/godbus/dbus/v5"
	"github.com/pkwatch/pkwatch/pkg/internal/testoutput"
	"github.com/pkwatch/pkwatch/pkg/logging"
	"gotest.tools/assert"
)

type report struct {
	Online, Mobile bool
}

type testSink struct {
	network []report
	power   []bool
}

func (s *testSink) SetNetworkState(online, mobile bool) {
	s.network = append(s.network, report{online, mobile})
}

func (s *testSink) SetOnBattery(onBattery bool) {
	s.power = append(s.power, onBattery)
}

func testMonitor(t *testing.T) (*Monitor, *testSink, chan func()) {
	sink := &testSink{}
	dispatch := make(chan func(), 16)
	m := &Monitor{
		log:      testoutput.Logger(t, logging.New("envmon")),
		dispatch: dispatch,
		sink:     sink,
		online:   true,
	}
	return m, sink, dispatch
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

func TestNetworkStateChange(t *testing.T) {
	m, sink, dispatch := testMonitor(t)
	m.handle(&dbus.Signal{
		Path: nmPath,
		Name: nmIface + ".StateChanged",
		Body: []interface{}{uint32(20)},
	})
	m.handle(&dbus.Signal{
		Path: nmPath,
		Name: nmIface + ".StateChanged",
		Body: []interface{}{uint32(70)},
	})
	drain(dispatch)
	assert.DeepEqual(t, sink.network, []report{{false, false}, {true, false}})
}

func TestNetworkRepeatSuppressed(t *testing.T) {
	m, sink, dispatch := testMonitor(t)
	for i := 0; i < 3; i++ {
		m.handle(&dbus.Signal{
			Path: nmPath,
			Name: nmIface + ".StateChanged",
			Body: []interface{}{uint32(70)},
		})
	}
	drain(dispatch)
	assert.Equal(t, len(sink.network), 0)
}

func TestMeteringChange(t *testing.T) {
	m, sink, dispatch := testMonitor(t)
	m.handle(&dbus.Signal{
		Path: nmPath,
		Name: propsIface + ".PropertiesChanged",
		Body: []interface{}{
			nmIface,
			map[string]dbus.Variant{"Metered": dbus.MakeVariant(meteredGuessYes)},
			[]string{},
		},
	})
	drain(dispatch)
	assert.DeepEqual(t, sink.network, []report{{true, true}})
}

func TestBatteryChange(t *testing.T) {
	m, sink, dispatch := testMonitor(t)
	m.handle(&dbus.Signal{
		Path: upowerPath,
		Name: propsIface + ".PropertiesChanged",
		Body: []interface{}{
			upowerIface,
			map[string]dbus.Variant{"OnBattery": dbus.MakeVariant(true)},
			[]string{},
		},
	})
	// Same value again must not produce a second report.
	m.handle(&dbus.Signal{
		Path: upowerPath,
		Name: propsIface + ".PropertiesChanged",
		Body: []interface{}{
			upowerIface,
			map[string]dbus.Variant{"OnBattery": dbus.MakeVariant(true)},
			[]string{},
		},
	})
	drain(dispatch)
	assert.DeepEqual(t, sink.power, []bool{true})
}

func TestForeignInterfaceIgnored(t *testing.T) {
	m, sink, dispatch := testMonitor(t)
	m.handle(&dbus.Signal{
		Path: nmPath,
		Name: propsIface + ".PropertiesChanged",
		Body: []interface{}{
			"org.freedesktop.DBus.Peer",
			map[string]dbus.Variant{"State": dbus.MakeVariant(uint32(10))},
			[]string{},
		},
	})
	drain(dispatch)
	assert.Equal(t, len(sink.network), 0)
}
