package buildtest

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
)

// ResourceMonitorInterval is how often memory is sampled during a build or
// test run.
const ResourceMonitorInterval = 30 * time.Second

// MemoryWarningPercent and MemoryCriticalPercent are the used-memory
// thresholds above which the monitor logs a warning or critical message.
const (
	MemoryWarningPercent  = 80.0
	MemoryCriticalPercent = 90.0
)

// Severity classifies a single memory sample.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityWarning
	SeverityCritical
)

// MonitorMemory samples system memory every ResourceMonitorInterval until
// ctx is done, invoking onSample with the classified severity and the
// percent used. Sampling failures are ignored: this is a best-effort
// side channel and must never affect the build/test result it runs
// alongside.
func MonitorMemory(ctx context.Context, onSample func(Severity, float64)) {
	ticker := time.NewTicker(ResourceMonitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			vm, err := mem.VirtualMemoryWithContext(ctx)
			if err != nil {
				continue
			}
			onSample(classify(vm.UsedPercent), vm.UsedPercent)
		}
	}
}

func classify(usedPercent float64) Severity {
	switch {
	case usedPercent >= MemoryCriticalPercent:
		return SeverityCritical
	case usedPercent >= MemoryWarningPercent:
		return SeverityWarning
	default:
		return SeverityNone
	}
}
