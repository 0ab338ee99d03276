// Package model defines the canonical in-memory types shared by the
// normalizer, registry, and serializer.
package model

import "time"

// DroneIDPrefix is prepended to every canonical drone identifier that does
// not already carry it.
const DroneIDPrefix = "drone-"

// DroneObservation is the canonical, normalized representation of a single
// inbound Remote-ID telemetry message. It is produced by the normalizer and
// consumed by the registry; it is never retained beyond a single upsert.
type DroneObservation struct {
	ID  string // canonical identifier, always prefixed
	MAC string
	RSSI int

	Lat, Lon float64
	AltGeodetic float64 // meters
	VSpeed      float64 // m/s
	Speed       float64 // m/s, ground speed
	HeightAGL   float64 // meters

	OperatorLat, OperatorLon float64
	HomeLat, HomeLon         float64

	SelfIDText string

	// Optional Remote-ID enrichments; zero values mean "not present".
	IDType           string
	UAType           int
	UATypeName       string
	OperatorIDType   string
	OperatorID       string
	OpStatus         string
	EWDirection      string
	Heading          float64
	SpeedMultiplier  float64
	PressureAltitude float64
	HorizAccuracy    string
	VertAccuracy     string
	BaroAccuracy     string
	SpeedAccuracy    string
	TimestampAccuracy string
	SourceTimestamp   string
	MessageIndex      int
	RuntimeSeconds    float64
	CAARegistrationID string
}

// HasOperatorPosition reports whether the operator position is non-zero.
func (o DroneObservation) HasOperatorPosition() bool {
	return o.OperatorLat != 0 || o.OperatorLon != 0
}

// HasHomePosition reports whether the home position is non-zero.
func (o DroneObservation) HasHomePosition() bool {
	return o.HomeLat != 0 || o.HomeLon != 0
}

// IsPositionless reports whether lat and lon are both exactly zero.
func (o DroneObservation) IsPositionless() bool {
	return o.Lat == 0 && o.Lon == 0
}

// DroneRecord is the registry's per-entity state: the latest merged
// observation plus the bookkeeping the scheduler needs to decide when and
// how to emit.
type DroneRecord struct {
	DroneObservation

	CreatedAt    time.Time
	LastUpdate   time.Time
	LastEmit     time.Time
	LastEmitLat  float64
	LastEmitLon  float64
	PrevLat      float64
	PrevLon      float64
	HavePrevPos  bool

	ConsecutiveMoves  int
	LastKeepAliveEmit time.Time
}

// Merge copies non-zero/non-empty fields from obs into the record, leaving
// fields obs does not carry untouched (the "absent fields keep prior value"
// invariant).
func (r *DroneRecord) Merge(obs DroneObservation) {
	if obs.MAC != "" {
		r.MAC = obs.MAC
	}
	if obs.RSSI != 0 {
		r.RSSI = obs.RSSI
	}
	if obs.Lat != 0 || obs.Lon != 0 {
		r.PrevLat, r.PrevLon = r.Lat, r.Lon
		r.HavePrevPos = true
		r.Lat, r.Lon = obs.Lat, obs.Lon
	}
	if obs.AltGeodetic != 0 {
		r.AltGeodetic = obs.AltGeodetic
	}
	if obs.VSpeed != 0 {
		r.VSpeed = obs.VSpeed
	}
	if obs.Speed != 0 {
		r.Speed = obs.Speed
	}
	if obs.HeightAGL != 0 {
		r.HeightAGL = obs.HeightAGL
	}
	if obs.HasOperatorPosition() {
		r.OperatorLat, r.OperatorLon = obs.OperatorLat, obs.OperatorLon
	}
	if obs.HasHomePosition() {
		r.HomeLat, r.HomeLon = obs.HomeLat, obs.HomeLon
	}
	if obs.SelfIDText != "" {
		r.SelfIDText = obs.SelfIDText
	}
	if obs.IDType != "" {
		r.IDType = obs.IDType
	}
	if obs.UAType != 0 {
		r.UAType = obs.UAType
		r.UATypeName = obs.UATypeName
	}
	if obs.OperatorIDType != "" {
		r.OperatorIDType = obs.OperatorIDType
	}
	if obs.OperatorID != "" {
		r.OperatorID = obs.OperatorID
	}
	if obs.OpStatus != "" {
		r.OpStatus = obs.OpStatus
	}
	if obs.EWDirection != "" {
		r.EWDirection = obs.EWDirection
	}
	if obs.Heading != 0 {
		r.Heading = obs.Heading
	}
	if obs.SpeedMultiplier != 0 {
		r.SpeedMultiplier = obs.SpeedMultiplier
	}
	if obs.PressureAltitude != 0 {
		r.PressureAltitude = obs.PressureAltitude
	}
	if obs.HorizAccuracy != "" {
		r.HorizAccuracy = obs.HorizAccuracy
	}
	if obs.VertAccuracy != "" {
		r.VertAccuracy = obs.VertAccuracy
	}
	if obs.BaroAccuracy != "" {
		r.BaroAccuracy = obs.BaroAccuracy
	}
	if obs.SpeedAccuracy != "" {
		r.SpeedAccuracy = obs.SpeedAccuracy
	}
	if obs.TimestampAccuracy != "" {
		r.TimestampAccuracy = obs.TimestampAccuracy
	}
	if obs.SourceTimestamp != "" {
		r.SourceTimestamp = obs.SourceTimestamp
	}
	if obs.MessageIndex != 0 {
		r.MessageIndex = obs.MessageIndex
	}
	if obs.RuntimeSeconds != 0 {
		r.RuntimeSeconds = obs.RuntimeSeconds
	}
	if obs.CAARegistrationID != "" {
		r.CAARegistrationID = obs.CAARegistrationID
	}
}
