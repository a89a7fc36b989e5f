package telemetry

import (
	"log/slog"
	"strings"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/sensors"
)

// cpu temperature sensor labels, in preference order.
var cpuSensorHints = []string{"coretemp", "k10temp", "cpu_thermal", "zenpower", "acpitz"}

// CPUCollector reads temperature, aggregate load and frequency for the
// host CPU via gopsutil. Each metric is best-effort: a probe that fails
// yields an explicit no-value reading instead of an error, since partial
// CPU data is still worth displaying.
type CPUCollector struct {
	logger *slog.Logger
}

func NewCPUCollector(logger *slog.Logger) *CPUCollector {
	return &CPUCollector{logger: logger}
}

func (c *CPUCollector) GetAllMetrics() (Snapshot, error) {
	snap := Snapshot{
		KeyCPUTemperature: c.temperature(),
		KeyCPUUsage:       c.usage(),
		KeyCPUFrequency:   c.frequency(),
	}
	return snap, nil
}

func (c *CPUCollector) temperature() Value {
	stats, err := sensors.SensorsTemperatures()
	if err != nil || len(stats) == 0 {
		c.logger.Debug("telemetry.cpu_temperature_unavailable", "error", err)
		return None()
	}
	for _, hint := range cpuSensorHints {
		for _, s := range stats {
			if strings.Contains(strings.ToLower(s.SensorKey), hint) && s.Temperature > 0 {
				return Number(s.Temperature)
			}
		}
	}
	// no recognized CPU sensor; take the first positive reading
	for _, s := range stats {
		if s.Temperature > 0 {
			return Number(s.Temperature)
		}
	}
	return None()
}

func (c *CPUCollector) usage() Value {
	// interval 0 measures utilization since the previous call, which
	// matches the refresher's fixed cadence
	percents, err := cpu.Percent(0, false)
	if err != nil || len(percents) == 0 {
		c.logger.Debug("telemetry.cpu_usage_unavailable", "error", err)
		return None()
	}
	return Number(percents[0])
}

func (c *CPUCollector) frequency() Value {
	infos, err := cpu.Info()
	if err != nil || len(infos) == 0 {
		c.logger.Debug("telemetry.cpu_frequency_unavailable", "error", err)
		return None()
	}
	if infos[0].Mhz <= 0 {
		return None()
	}
	return Number(infos[0].Mhz)
}
