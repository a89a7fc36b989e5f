package telemetry

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
)

const gpuProbeTimeout = 2 * time.Second

// GPUCollector reads temperature, load and clock for the first detected
// GPU. The vendor is probed once at construction: NVIDIA through
// nvidia-smi on any platform, AMD through sysfs hwmon on Linux. Hosts
// without a recognized GPU still report a full snapshot of no-value
// readings so overlays can render placeholders.
type GPUCollector struct {
	logger *slog.Logger
	vendor string // "nvidia", "amd" or ""
	name   string
	hwmon  string // amd hwmon directory
	card   string // amd drm device directory
}

func NewGPUCollector(logger *slog.Logger) *GPUCollector {
	c := &GPUCollector{logger: logger}
	c.detect()
	return c
}

func (c *GPUCollector) detect() {
	if name, ok := c.probeNvidia(); ok {
		c.vendor = "nvidia"
		c.name = name
		c.logger.Info("telemetry.gpu_detected", "vendor", c.vendor, "name", name)
		return
	}
	if runtime.GOOS == "linux" {
		if hwmon, card, name, ok := probeAMDSysfs(); ok {
			c.vendor = "amd"
			c.name = name
			c.hwmon = hwmon
			c.card = card
			c.logger.Info("telemetry.gpu_detected", "vendor", c.vendor, "name", name)
			return
		}
	}
	c.logger.Warn("telemetry.gpu_not_detected")
}

func (c *GPUCollector) GetAllMetrics() (Snapshot, error) {
	snap := Snapshot{
		KeyGPUTemperature: None(),
		KeyGPUUsage:       None(),
		KeyGPUFrequency:   None(),
		KeyGPUVendor:      None(),
		KeyGPUName:        None(),
	}
	switch c.vendor {
	case "nvidia":
		c.fillNvidia(snap)
	case "amd":
		c.fillAMD(snap)
	default:
		return snap, nil
	}
	snap[KeyGPUVendor] = String(c.vendor)
	if c.name != "" {
		snap[KeyGPUName] = String(c.name)
	}
	return snap, nil
}

func (c *GPUCollector) probeNvidia() (string, bool) {
	out, err := runNvidiaSMI("--query-gpu=name", "--format=csv,noheader,nounits")
	if err != nil {
		return "", false
	}
	name := strings.TrimSpace(strings.SplitN(out, "\n", 2)[0])
	return name, name != ""
}

// fillNvidia queries temperature, utilization and SM clock in one
// nvidia-smi call.
func (c *GPUCollector) fillNvidia(snap Snapshot) {
	out, err := runNvidiaSMI(
		"--query-gpu=temperature.gpu,utilization.gpu,clocks.sm",
		"--format=csv,noheader,nounits",
	)
	if err != nil {
		c.logger.Debug("telemetry.nvidia_query_failed", "error", err)
		return
	}
	fields := strings.Split(strings.SplitN(strings.TrimSpace(out), "\n", 2)[0], ",")
	keys := []string{KeyGPUTemperature, KeyGPUUsage, KeyGPUFrequency}
	for i, key := range keys {
		if i >= len(fields) {
			break
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(fields[i]), 64); err == nil {
			snap[key] = Number(v)
		}
	}
}

// fillAMD reads the amdgpu sysfs interface: millidegrees from hwmon,
// percent busy and current sclk from the drm device directory.
func (c *GPUCollector) fillAMD(snap Snapshot) {
	if v, ok := readSysfsFloat(filepath.Join(c.hwmon, "temp1_input")); ok {
		snap[KeyGPUTemperature] = Number(v / 1000.0)
	}
	if v, ok := readSysfsFloat(filepath.Join(c.card, "gpu_busy_percent")); ok {
		snap[KeyGPUUsage] = Number(v)
	}
	if mhz, ok := readAMDCurrentClock(filepath.Join(c.card, "pp_dpm_sclk")); ok {
		snap[KeyGPUFrequency] = Number(mhz)
	}
}

func runNvidiaSMI(args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), gpuProbeTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, "nvidia-smi", args...).Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// probeAMDSysfs scans /sys/class/drm for an amdgpu card (vendor 0x1002)
// and returns its hwmon and device directories.
func probeAMDSysfs() (hwmon, card, name string, ok bool) {
	cards, _ := filepath.Glob("/sys/class/drm/card[0-9]/device")
	for _, dev := range cards {
		vendor, err := os.ReadFile(filepath.Join(dev, "vendor"))
		if err != nil || strings.TrimSpace(string(vendor)) != "0x1002" {
			continue
		}
		hwmons, _ := filepath.Glob(filepath.Join(dev, "hwmon", "hwmon*"))
		if len(hwmons) == 0 {
			continue
		}
		name = "AMD GPU"
		if b, err := os.ReadFile(filepath.Join(dev, "product_name")); err == nil {
			if s := strings.TrimSpace(string(b)); s != "" {
				name = s
			}
		}
		return hwmons[0], dev, name, true
	}
	return "", "", "", false
}

func readSysfsFloat(path string) (float64, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// readAMDCurrentClock parses pp_dpm_sclk, whose active level is marked
// with a trailing '*', e.g. "1: 1240Mhz *".
func readAMDCurrentClock(path string) (float64, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	for _, line := range strings.Split(string(b), "\n") {
		if !strings.Contains(line, "*") {
			continue
		}
		fields := strings.Fields(line)
		for _, f := range fields {
			lower := strings.ToLower(f)
			if strings.HasSuffix(lower, "mhz") {
				if v, err := strconv.ParseFloat(strings.TrimSuffix(lower, "mhz"), 64); err == nil {
					return v, true
				}
			}
		}
	}
	return 0, false
}
