// Package cot implements C5: rendering drone, pilot, home, and
// sensor-status records into Cursor-on-Target XML documents.
//
// Grounded on original_source/drone.py (to_cot_xml / to_pilot_cot_xml /
// to_home_cot_xml) and system_status.py (to_cot_xml). Direct string
// construction is used in place of encoding/xml struct-tag marshaling
// because the exact attribute set and ordering (and the element omissions
// between event kinds — <track> only on drone events, <usericon> only on
// status events) is part of the wire contract; see DESIGN.md.
package cot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/flightpath-dev/sentrybridge/internal/model"
)

// cotTimeLayout is the strict CoT time format: YYYY-MM-DDTHH:MM:SS.ffffffZ.
const cotTimeLayout = "2006-01-02T15:04:05.000000Z"

// uaCOTTypeMap maps a Remote-ID UA type index to its CoT event type,
// reproduced exactly from original_source/drone.py's UA_COT_TYPE_MAP.
var uaCOTTypeMap = map[int]string{
	1:  "a-f-A-f",     // Aeroplane / fixed wing
	2:  "a-u-A-M-H-R", // Helicopter / multirotor
	3:  "a-u-A-M-H-R", // Gyroplane (treated as rotorcraft)
	4:  "a-u-A-M-H-R", // VTOL
	5:  "a-f-A-f",     // Ornithopter (treated as fixed wing)
	6:  "a-f-A-f",     // Glider
	7:  "b-m-p-s-m",   // Kite (surface dot)
	8:  "b-m-p-s-m",   // Free balloon
	9:  "b-m-p-s-m",   // Captive balloon
	10: "b-m-p-s-m",   // Airship
	11: "b-m-p-s-m",   // Parachute
	12: "b-m-p-s-m",   // Rocket
	13: "b-m-p-s-m",   // Tethered powered aircraft
	14: "b-m-p-s-m",   // Ground obstacle
	15: "b-m-p-s-m",   // Other
}

// rotorcraftFallback is the CoT type used when the UA type index is absent
// or not in uaCOTTypeMap.
const rotorcraftFallback = "a-u-A-M-H-R"

// surfaceDotType is used for pilot, home, and sensor-status events.
const surfaceDotType = "b-m-p-s-m"

// Event is one rendered CoT document plus a label identifying its kind,
// used by the registry and metrics to describe what was emitted.
type Event struct {
	Kind string // "drone", "pilot", "home", "retirement", "status"
	XML  []byte
}

// DroneInput bundles everything the serializer needs to render a drone
// event (and its optional pilot/home companions) for one tick.
type DroneInput struct {
	Record      model.DroneRecord
	Now         time.Time
	StaleOffset time.Duration
	Unique      bool // true selects a fresh timestamped UID
}

func cotType(uaType int) string {
	if t, ok := uaCOTTypeMap[uaType]; ok {
		return t
	}
	return rotorcraftFallback
}

func baseID(id string) string {
	return strings.TrimPrefix(id, model.DroneIDPrefix)
}

func droneUID(in DroneInput) string {
	if !in.Unique {
		return in.Record.ID
	}
	return fmt.Sprintf("%s-%s", in.Record.ID, in.Now.UTC().Format("20060102T150405Z"))
}

func staleTime(now time.Time, offset time.Duration) time.Time {
	if offset <= 0 {
		return now
	}
	return now.Add(offset)
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// RenderDroneEvents renders the drone event and, when the record carries
// non-zero operator/home positions, the companion pilot and home events,
// in that order — matching spec.md §5's within-tick ordering guarantee.
func RenderDroneEvents(in DroneInput) []Event {
	events := []Event{{Kind: "drone", XML: renderDrone(in)}}

	if in.Record.HasOperatorPosition() {
		events = append(events, Event{Kind: "pilot", XML: renderPilot(in)})
	}
	if in.Record.HasHomePosition() {
		events = append(events, Event{Kind: "home", XML: renderHome(in)})
	}
	return events
}

// RenderDrone renders only the drone event, used for the final retirement
// emission (which carries no pilot/home companions).
func RenderDrone(in DroneInput) []byte {
	return renderDrone(in)
}

func renderDrone(in DroneInput) []byte {
	r := in.Record
	now := in.Now.UTC()
	stale := staleTime(now, in.StaleOffset)

	uid := droneUID(in)
	typ := cotType(r.UAType)

	course := r.Heading
	speed := r.Speed

	remarks := fmt.Sprintf(
		"MAC: %s, RSSI: %ddBm; ID Type: %s; UA Type: %s (%d); "+
			"Operator ID: [%s: %s]; Speed: %s m/s; Vert Speed: %s m/s; "+
			"Altitude: %s m; AGL: %s m; Course: %s°; Index: %d; Runtime: %ds",
		r.MAC, r.RSSI, r.IDType, r.UATypeName, r.UAType,
		r.OperatorIDType, r.OperatorID, fmtFloat(r.Speed), fmtFloat(r.VSpeed),
		fmtFloat(r.AltGeodetic), fmtFloat(r.HeightAGL), fmtFloat(r.Heading),
		r.MessageIndex, int(r.RuntimeSeconds),
	)

	var b strings.Builder
	fmt.Fprintf(&b, `<event version="2.0" uid="%s" type="%s" time="%s" start="%s" stale="%s" how="m-g">`,
		xmlEscapeAttr(uid), typ, now.Format(cotTimeLayout), now.Format(cotTimeLayout), stale.Format(cotTimeLayout))
	fmt.Fprintf(&b, `<point lat="%s" lon="%s" hae="%s" ce="35.0" le="999999"/>`,
		fmtFloat(r.Lat), fmtFloat(r.Lon), fmtFloat(r.AltGeodetic))
	b.WriteString(`<detail>`)
	fmt.Fprintf(&b, `<contact callsign="%s" endpoint="" phone=""/>`, xmlEscapeAttr(r.ID))
	b.WriteString(`<precisionlocation geopointsrc="gps" altsrc="gps"/>`)
	fmt.Fprintf(&b, `<track course="%s" speed="%s"/>`, fmtFloat(course), fmtFloat(speed))
	fmt.Fprintf(&b, `<remarks>%s</remarks>`, xmlEscapeText(remarks))
	b.WriteString(`<color argb="-256"/>`)
	b.WriteString(`</detail>`)
	b.WriteString(`</event>`)

	return []byte(b.String())
}

func renderPilot(in DroneInput) []byte {
	r := in.Record
	now := in.Now.UTC()
	stale := staleTime(now, in.StaleOffset)

	uid := "pilot-" + baseID(r.ID)
	remarks := fmt.Sprintf("Pilot location for drone %s", r.ID)

	var b strings.Builder
	fmt.Fprintf(&b, `<event version="2.0" uid="%s" type="%s" time="%s" start="%s" stale="%s" how="m-g">`,
		xmlEscapeAttr(uid), surfaceDotType, now.Format(cotTimeLayout), now.Format(cotTimeLayout), stale.Format(cotTimeLayout))
	fmt.Fprintf(&b, `<point lat="%s" lon="%s" hae="%s" ce="35.0" le="999999"/>`,
		fmtFloat(r.OperatorLat), fmtFloat(r.OperatorLon), fmtFloat(r.AltGeodetic))
	b.WriteString(`<detail>`)
	fmt.Fprintf(&b, `<contact callsign="%s" endpoint="" phone=""/>`, xmlEscapeAttr(uid))
	b.WriteString(`<precisionlocation geopointsrc="gps" altsrc="gps"/>`)
	fmt.Fprintf(&b, `<remarks>%s</remarks>`, xmlEscapeText(remarks))
	b.WriteString(`<color argb="-256"/>`)
	b.WriteString(`</detail>`)
	b.WriteString(`</event>`)

	return []byte(b.String())
}

func renderHome(in DroneInput) []byte {
	r := in.Record
	now := in.Now.UTC()
	stale := staleTime(now, in.StaleOffset)

	uid := "home-" + baseID(r.ID)
	remarks := fmt.Sprintf("Home location for drone %s", r.ID)

	var b strings.Builder
	fmt.Fprintf(&b, `<event version="2.0" uid="%s" type="%s" time="%s" start="%s" stale="%s" how="m-g">`,
		xmlEscapeAttr(uid), surfaceDotType, now.Format(cotTimeLayout), now.Format(cotTimeLayout), stale.Format(cotTimeLayout))
	fmt.Fprintf(&b, `<point lat="%s" lon="%s" hae="%s" ce="35.0" le="999999"/>`,
		fmtFloat(r.HomeLat), fmtFloat(r.HomeLon), fmtFloat(r.AltGeodetic))
	b.WriteString(`<detail>`)
	fmt.Fprintf(&b, `<contact callsign="%s" endpoint="" phone=""/>`, xmlEscapeAttr(uid))
	b.WriteString(`<precisionlocation geopointsrc="gps" altsrc="gps"/>`)
	fmt.Fprintf(&b, `<remarks>%s</remarks>`, xmlEscapeText(remarks))
	b.WriteString(`<color argb="-256"/>`)
	b.WriteString(`</detail>`)
	b.WriteString(`</event>`)

	return []byte(b.String())
}

// RenderStatus renders a sensor-status event. idPrefix defaults to
// "wardragon-" per original_source/system_status.py but is configurable,
// per SPEC_FULL.md's generalization.
func RenderStatus(status model.SensorStatus, idPrefix string, now time.Time) []byte {
	uid := idPrefix + status.SerialNumber
	stale := now.Add(10 * time.Minute)

	remarks := fmt.Sprintf(
		"CPU Usage: %s%%, Memory Total: %.2f MB, Memory Available: %.2f MB, "+
			"Disk Total: %.2f MB, Disk Used: %.2f MB, Temperature: %s°C, Uptime: %s seconds",
		fmtFloat(status.CPUUsagePercent), status.MemoryTotalMiB, status.MemoryAvailMiB,
		status.DiskTotalMiB, status.DiskUsedMiB, fmtFloat(status.TemperatureC), fmtFloat(status.UptimeSeconds),
	)

	var b strings.Builder
	fmt.Fprintf(&b, `<event version="2.0" uid="%s" type="%s" time="%s" start="%s" stale="%s" how="m-g">`,
		xmlEscapeAttr(uid), surfaceDotType, now.UTC().Format(cotTimeLayout), now.UTC().Format(cotTimeLayout), stale.UTC().Format(cotTimeLayout))
	fmt.Fprintf(&b, `<point lat="%s" lon="%s" hae="%s" ce="35.0" le="999999"/>`,
		fmtFloat(status.Lat), fmtFloat(status.Lon), fmtFloat(status.Alt))
	b.WriteString(`<detail>`)
	fmt.Fprintf(&b, `<contact endpoint="" phone="" callsign="%s"/>`, xmlEscapeAttr(uid))
	b.WriteString(`<precisionlocation geopointsrc="gps" altsrc="gps"/>`)
	fmt.Fprintf(&b, `<remarks>%s</remarks>`, xmlEscapeText(remarks))
	b.WriteString(`<color argb="-256"/>`)
	b.WriteString(`<usericon iconsetpath="34ae1613-9645-4222-a9d2-e5f243dea2865/Military/Ground_Vehicle.png"/>`)
	b.WriteString(`</detail>`)
	b.WriteString(`</event>`)

	return []byte(b.String())
}

// xmlEscapeAttr escapes a string for safe placement inside a double-quoted
// XML attribute value.
func xmlEscapeAttr(s string) string {
	return xmlEscaper.Replace(s)
}

// xmlEscapeText escapes a string for safe placement as XML element text,
// matching xml.sax.saxutils.escape's &/</> -only behavior.
func xmlEscapeText(s string) string {
	r := strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `>`, "&gt;")
	return r.Replace(s)
}

var xmlEscaper = strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `>`, "&gt;", `"`, "&quot;")
