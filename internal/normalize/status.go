package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/flightpath-dev/sentrybridge/internal/model"
)

// statusFrame mirrors the wire shape documented in spec.md §6: a flat
// serial_number plus nested gps_data/system_stats/ant_sdr_temps objects.
// Grounded on original_source/dragonsync.py's status-gathering dict and
// system_status.py's SystemStatus constructor.
type statusFrame struct {
	SerialNumber string `json:"serial_number"`
	GPSData      struct {
		Latitude  json.Number `json:"latitude"`
		Longitude json.Number `json:"longitude"`
		Altitude  json.Number `json:"altitude"`
	} `json:"gps_data"`
	SystemStats struct {
		CPUUsage json.Number `json:"cpu_usage"`
		Memory   struct {
			Total     json.Number `json:"total"`
			Available json.Number `json:"available"`
		} `json:"memory"`
		Disk struct {
			Total json.Number `json:"total"`
			Used  json.Number `json:"used"`
		} `json:"disk"`
		Temperature json.Number `json:"temperature"`
		Uptime      json.Number `json:"uptime"`
	} `json:"system_stats"`
	AntSDRTemps *struct {
		PlutoTemp json.Number `json:"pluto_temp"`
		ZynqTemp  json.Number `json:"zynq_temp"`
	} `json:"ant_sdr_temps"`
}

// ParseStatus decodes one status frame into a model.SensorStatus. An empty
// serial_number is treated as a malformed frame, matching Parse's
// missing-identifier rejection for telemetry frames.
func ParseStatus(frame []byte) (model.SensorStatus, error) {
	var sf statusFrame
	dec := json.NewDecoder(bytes.NewReader(frame))
	dec.UseNumber()
	if err := dec.Decode(&sf); err != nil {
		return model.SensorStatus{}, fmt.Errorf("decode status frame: %w", err)
	}
	if sf.SerialNumber == "" {
		return model.SensorStatus{}, fmt.Errorf("status frame missing serial_number")
	}

	status := model.SensorStatus{
		SerialNumber:    sf.SerialNumber,
		Lat:             coerceFloat(sf.GPSData.Latitude),
		Lon:             coerceFloat(sf.GPSData.Longitude),
		Alt:             coerceFloat(sf.GPSData.Altitude),
		CPUUsagePercent: coerceFloat(sf.SystemStats.CPUUsage),
		MemoryTotalMiB:  coerceFloat(sf.SystemStats.Memory.Total),
		MemoryAvailMiB:  coerceFloat(sf.SystemStats.Memory.Available),
		DiskTotalMiB:    coerceFloat(sf.SystemStats.Disk.Total),
		DiskUsedMiB:     coerceFloat(sf.SystemStats.Disk.Used),
		TemperatureC:    coerceFloat(sf.SystemStats.Temperature),
		UptimeSeconds:   coerceFloat(sf.SystemStats.Uptime),
	}
	if sf.AntSDRTemps != nil {
		status.PlutoTempC = coerceFloat(sf.AntSDRTemps.PlutoTemp)
		status.ZynqTempC = coerceFloat(sf.AntSDRTemps.ZynqTemp)
	}
	return status, nil
}
