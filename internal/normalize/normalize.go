// Package normalize implements C3: it turns one decoded inbound telemetry
// frame into a canonical model.DroneObservation.
//
// The source dialects this is grounded on (original_source/dragonsync.py)
// walk a loosely-typed JSON value with dynamic map access. Per the
// redesign note, this implementation instead decodes into a tagged union
// of recognized sub-object shapes and accumulates fields from whichever
// shapes are present, in order, using a single explicit builder.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/flightpath-dev/sentrybridge/internal/model"
)

// idTypeSerialNumber and idTypeCAARegistration are the two Basic ID id_type
// values the accumulator recognizes, in priority order.
const (
	idTypeSerialNumber    = "Serial Number (ANSI/CTA-2063-A)"
	idTypeCAARegistration = "CAA Assigned Registration ID"
)

// envelope is the tagged-union input shape: either a single object or an
// array of sub-objects. json.RawMessage defers the single/array decision
// until Parse inspects the first non-whitespace byte.
type envelope struct {
	raw json.RawMessage
}

func (e *envelope) UnmarshalJSON(b []byte) error {
	e.raw = append([]byte(nil), b...)
	return nil
}

// subObject is the union of every recognized Remote-ID sub-object shape.
// Unrecognized keys are ignored; absent keys decode to zero values, which
// the accumulator treats as "not present" via the tolerant-coercion rule.
type subObject struct {
	MAC  *string      `json:"MAC"`
	RSSI *json.Number `json:"RSSI"`

	AUXADVInd *struct {
		RSSI json.Number `json:"rssi"`
	} `json:"AUX_ADV_IND"`
	AExt *struct {
		AdvA string `json:"AdvA"`
	} `json:"aext"`

	BasicID *struct {
		IDType string      `json:"id_type"`
		MAC    string      `json:"MAC"`
		RSSI   json.Number `json:"RSSI"`
		ID     string      `json:"id"`
	} `json:"Basic ID"`

	LocationVector *struct {
		Latitude         json.Number `json:"latitude"`
		Longitude        json.Number `json:"longitude"`
		Speed            json.Number `json:"speed"`
		VertSpeed        json.Number `json:"vert_speed"`
		GeodeticAltitude json.Number `json:"geodetic_altitude"`
		HeightAGL        json.Number `json:"height_agl"`
		Direction        *json.Number `json:"direction"`
		OpStatus         string      `json:"op_status"`
		HorizAccuracy    string      `json:"horiz_acc"`
		VertAccuracy     string      `json:"vert_acc"`
		BaroAccuracy     string      `json:"baro_acc"`
		SpeedAccuracy    string      `json:"speed_acc"`
		PressureAltitude json.Number `json:"pressure_altitude"`
		SpeedMultiplier  json.Number `json:"speed_multiplier"`
		EWDirection      string      `json:"ew_direction"`
	} `json:"Location/Vector Message"`

	SelfID *struct {
		Text string `json:"text"`
	} `json:"Self-ID Message"`

	System *struct {
		Latitude  json.Number `json:"latitude"`
		Longitude json.Number `json:"longitude"`
		HomeLat   json.Number `json:"home_latitude"`
		HomeLon   json.Number `json:"home_longitude"`
	} `json:"System Message"`

	OperatorID *struct {
		OperatorIDType string `json:"operator_id_type"`
		OperatorID     string `json:"operator_id"`
	} `json:"Operator ID Message"`

	// Remote-ID enrichment fields that can appear at the top level of any
	// sub-object in some dialects.
	UAType            *json.Number `json:"ua_type"`
	UATypeName        string       `json:"ua_type_name"`
	TimestampAccuracy string       `json:"timestamp_accuracy"`
	SourceTimestamp   string       `json:"timestamp"`
	Index             *json.Number `json:"index"`
	RuntimeSeconds    *json.Number `json:"runtime"`
	CAARegistrationID string       `json:"caa_registration_id"`
}

// Parse decodes one inbound frame (array-of-sub-objects or single object)
// and accumulates a canonical DroneObservation. ok is false when no
// identifier could be determined, per the "drop unrecognized / missing
// identifier" rule.
func Parse(frame []byte) (obs model.DroneObservation, ok bool) {
	subs, topMAC, topRSSI := decodeFrame(frame)

	var idSet bool
	var caaID string
	var caaSet bool

	if topMAC != "" {
		obs.MAC = topMAC
	}
	if topRSSI != 0 {
		obs.RSSI = topRSSI
	}

	for _, s := range subs {
		if s.MAC != nil && *s.MAC != "" {
			obs.MAC = *s.MAC
		}
		if s.RSSI != nil {
			if v, err := s.RSSI.Int64(); err == nil {
				obs.RSSI = int(v)
			}
		}
		if s.AUXADVInd != nil {
			if v, err := s.AUXADVInd.RSSI.Int64(); err == nil {
				obs.RSSI = int(v)
			}
		}
		if s.AExt != nil && s.AExt.AdvA != "" {
			obs.MAC = macToken(s.AExt.AdvA)
		}

		if s.BasicID != nil {
			if s.BasicID.MAC != "" {
				obs.MAC = s.BasicID.MAC
			}
			if v, err := s.BasicID.RSSI.Int64(); err == nil && v != 0 {
				obs.RSSI = int(v)
			}
			switch s.BasicID.IDType {
			case idTypeSerialNumber:
				if !idSet && s.BasicID.ID != "" {
					obs.ID = s.BasicID.ID
					obs.IDType = s.BasicID.IDType
					idSet = true
				}
			case idTypeCAARegistration:
				if !caaSet && s.BasicID.ID != "" {
					caaID = s.BasicID.ID
					caaSet = true
				}
			}
		}

		if s.LocationVector != nil {
			lv := s.LocationVector
			obs.Lat = coerceFloat(lv.Latitude)
			obs.Lon = coerceFloat(lv.Longitude)
			obs.Speed = coerceFloat(lv.Speed)
			obs.VSpeed = coerceFloat(lv.VertSpeed)
			obs.AltGeodetic = coerceFloat(lv.GeodeticAltitude)
			obs.HeightAGL = coerceFloat(lv.HeightAGL)
			if lv.Direction != nil {
				obs.Heading = coerceFloat(*lv.Direction)
			}
			if lv.OpStatus != "" {
				obs.OpStatus = lv.OpStatus
			}
			if lv.EWDirection != "" {
				obs.EWDirection = lv.EWDirection
			}
			if lv.HorizAccuracy != "" {
				obs.HorizAccuracy = lv.HorizAccuracy
			}
			if lv.VertAccuracy != "" {
				obs.VertAccuracy = lv.VertAccuracy
			}
			if lv.BaroAccuracy != "" {
				obs.BaroAccuracy = lv.BaroAccuracy
			}
			if lv.SpeedAccuracy != "" {
				obs.SpeedAccuracy = lv.SpeedAccuracy
			}
			if f := coerceFloat(lv.PressureAltitude); f != 0 {
				obs.PressureAltitude = f
			}
			if f := coerceFloat(lv.SpeedMultiplier); f != 0 {
				obs.SpeedMultiplier = f
			}
		}

		if s.SelfID != nil && s.SelfID.Text != "" {
			obs.SelfIDText = s.SelfID.Text
		}

		if s.System != nil {
			if f := coerceFloat(s.System.Latitude); f != 0 {
				obs.OperatorLat = f
			}
			if f := coerceFloat(s.System.Longitude); f != 0 {
				obs.OperatorLon = f
			}
			if f := coerceFloat(s.System.HomeLat); f != 0 {
				obs.HomeLat = f
			}
			if f := coerceFloat(s.System.HomeLon); f != 0 {
				obs.HomeLon = f
			}
		}

		if s.OperatorID != nil {
			if s.OperatorID.OperatorIDType != "" {
				obs.OperatorIDType = s.OperatorID.OperatorIDType
			}
			if s.OperatorID.OperatorID != "" {
				obs.OperatorID = s.OperatorID.OperatorID
			}
		}

		if s.UAType != nil {
			if v, err := s.UAType.Int64(); err == nil {
				obs.UAType = int(v)
			}
		}
		if s.UATypeName != "" {
			obs.UATypeName = s.UATypeName
		}
		if s.TimestampAccuracy != "" {
			obs.TimestampAccuracy = s.TimestampAccuracy
		}
		if s.SourceTimestamp != "" {
			obs.SourceTimestamp = s.SourceTimestamp
		}
		if s.Index != nil {
			if v, err := s.Index.Int64(); err == nil {
				obs.MessageIndex = int(v)
			}
		}
		if s.RuntimeSeconds != nil {
			obs.RuntimeSeconds = coerceFloat(*s.RuntimeSeconds)
		}
		if s.CAARegistrationID != "" && !caaSet {
			caaID = s.CAARegistrationID
			caaSet = true
		}
	}

	if !idSet && caaSet {
		obs.ID = caaID
		obs.IDType = idTypeCAARegistration
		idSet = true
	}
	obs.CAARegistrationID = caaID

	if !idSet {
		return model.DroneObservation{}, false
	}

	if !strings.HasPrefix(obs.ID, model.DroneIDPrefix) {
		obs.ID = model.DroneIDPrefix + obs.ID
	}

	return obs, true
}

// decodeFrame accepts either `[ {...}, {...} ]` or `{...}` and returns the
// sub-objects plus any top-level MAC/RSSI fields carried by a bare single
// object frame.
func decodeFrame(frame []byte) (subs []subObject, topMAC string, topRSSI int) {
	trimmed := strings.TrimSpace(string(frame))
	if trimmed == "" {
		return nil, "", 0
	}

	if trimmed[0] == '[' {
		var raw []subObject
		if err := json.Unmarshal(frame, &raw); err != nil {
			return nil, "", 0
		}
		return raw, "", 0
	}

	var top struct {
		subObject
		MAC  string      `json:"MAC"`
		RSSI json.Number `json:"RSSI"`
	}
	if err := json.Unmarshal(frame, &top); err != nil {
		return nil, "", 0
	}
	if top.MAC != "" {
		topMAC = top.MAC
	}
	if v, err := top.RSSI.Int64(); err == nil {
		topRSSI = int(v)
	}
	return []subObject{top.subObject}, topMAC, topRSSI
}

// macToken extracts the token before the first whitespace run, matching
// aext.AdvA's "AA:BB:CC:DD:EE:FF (random)" style values.
func macToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// coerceFloat implements the tolerant numeric coercion rule: non-numeric or
// missing values become zero.
func coerceFloat(n json.Number) float64 {
	if n == "" {
		return 0
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return 0
	}
	return f
}

// InitialBearing computes the great-circle initial bearing in degrees
// [0,360) from (lat1,lon1) to (lat2,lon2). Used as the heading fallback
// when a Location/Vector Message carries no direction.
func InitialBearing(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	deltaLambda := (lon2 - lon1) * math.Pi / 180

	y := math.Sin(deltaLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(deltaLambda)
	theta := math.Atan2(y, x)

	bearing := math.Mod(theta*180/math.Pi+360, 360)
	return bearing
}
