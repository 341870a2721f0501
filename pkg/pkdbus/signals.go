package pkdbus

import (
	"fmt"
	"strings"
	"time"

	dbus "github.com/godbus/dbus/v5"
	"github.com/pkwatch/pkwatch/pkg/transaction"
)

// route converts one bus signal into an event delivery for the transaction
// registered at the signal's path. Signals for unknown paths are dropped; a
// finished or superseded transaction's stragglers have nowhere to go.
func (c *Client) route(sig *dbus.Signal) {
	if sig.Name == propsIface+".PropertiesChanged" {
		c.routeProperties(sig)
		return
	}
	if !strings.HasPrefix(sig.Name, transIface+".") {
		return
	}
	ev := c.lookup(sig.Path)
	if ev == nil {
		return
	}
	switch strings.TrimPrefix(sig.Name, transIface+".") {
	case "Package":
		info := transaction.Info(bodyU32(sig.Body, 0))
		id := bodyStr(sig.Body, 1)
		summary := bodyStr(sig.Body, 2)
		c.post(func() { ev.Package(info, id, summary) })
	case "RequireRestart":
		kind := transaction.Restart(bodyU32(sig.Body, 0))
		id := bodyStr(sig.Body, 1)
		c.post(func() { ev.RequireRestart(kind, id) })
	case "EulaRequired":
		eulaID := bodyStr(sig.Body, 0)
		id := bodyStr(sig.Body, 1)
		vendor := bodyStr(sig.Body, 2)
		license := bodyStr(sig.Body, 3)
		c.post(func() { ev.EulaRequired(eulaID, id, vendor, license) })
	case "RepoSignatureRequired":
		rs := transaction.RepoSignature{
			PackageID:      bodyStr(sig.Body, 0),
			RepoName:       bodyStr(sig.Body, 1),
			KeyURL:         bodyStr(sig.Body, 2),
			KeyUserID:      bodyStr(sig.Body, 3),
			KeyID:          bodyStr(sig.Body, 4),
			KeyFingerprint: bodyStr(sig.Body, 5),
			KeyTimestamp:   bodyStr(sig.Body, 6),
			Type:           transaction.SigType(bodyU32(sig.Body, 7)),
		}
		c.post(func() { ev.RepoSignatureRequired(rs) })
	case "UpdateDetail":
		d := decodeDetail(sig.Body)
		c.post(func() { ev.UpdateDetail(d) })
	case "ErrorCode":
		code := transaction.Error(bodyU32(sig.Body, 0))
		details := bodyStr(sig.Body, 1)
		c.post(func() { ev.ErrorCode(code, details) })
	case "Finished":
		exit := transaction.Exit(bodyU32(sig.Body, 0))
		runtime := time.Duration(bodyU32(sig.Body, 1)) * time.Millisecond
		c.unregister(sig.Path)
		c.post(func() { ev.Finished(exit, runtime) })
	default:
		c.log.WithField("signal", sig.Name).Debug("ignoring unhandled signal")
	}
}

// routeProperties forwards overall progress, which the daemon exposes as the
// transaction object's Percentage property rather than a dedicated signal.
func (c *Client) routeProperties(sig *dbus.Signal) {
	ev := c.lookup(sig.Path)
	if ev == nil || len(sig.Body) < 2 || bodyStr(sig.Body, 0) != transIface {
		return
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return
	}
	v, ok := changed["Percentage"]
	if !ok {
		return
	}
	n, ok := v.Value().(uint32)
	if !ok {
		return
	}
	c.post(func() { ev.Percentage(int(n)) })
}

func decodeDetail(body []interface{}) transaction.Detail {
	return transaction.Detail{
		PackageID:    bodyStr(body, 0),
		Updates:      bodyStrs(body, 1),
		Obsoletes:    bodyStrs(body, 2),
		VendorURLs:   bodyStrs(body, 3),
		BugzillaURLs: bodyStrs(body, 4),
		CVEURLs:      bodyStrs(body, 5),
		Restart:      transaction.Restart(bodyU32(body, 6)),
		UpdateText:   bodyStr(body, 7),
		Changelog:    bodyStr(body, 8),
		State:        transaction.UpdateState(bodyU32(body, 9)),
		Issued:       parseStamp(bodyStr(body, 10)),
		Updated:      parseStamp(bodyStr(body, 11)),
	}
}

// parseStamp reads the daemon's ISO 8601 timestamps. An absent or malformed
// stamp yields the zero time.
func parseStamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func bodyU32(body []interface{}, i int) uint32 {
	if i < len(body) {
		if n, ok := body[i].(uint32); ok {
			return n
		}
	}
	return 0
}

func bodyStr(body []interface{}, i int) string {
	if i < len(body) {
		if s, ok := body[i].(string); ok {
			return s
		}
	}
	return ""
}

func bodyStrs(body []interface{}, i int) []string {
	if i < len(body) {
		if s, ok := body[i].([]string); ok {
			return s
		}
	}
	return nil
}

func versionString(parts [3]uint32) string {
	return fmt.Sprintf("%d.%d.%d", parts[0], parts[1], parts[2])
}
