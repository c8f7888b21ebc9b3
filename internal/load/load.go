// Package load implements the Load Sampler (spec §4.8): rolling CPU,
// memory, and disk-throughput snapshots used to gate scheduler work.
package load

import (
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/joyshmitz/ultrasearch/internal/logging"
	"github.com/joyshmitz/ultrasearch/internal/model"
)

var log = logging.For("load-sampler")

// Sampler produces model.SystemLoad snapshots from OS counters.
type Sampler struct {
	diskBusyThresholdBPS uint64
	lastSample           time.Time
	lastDiskCounters     map[string]disk.IOCountersStat
	diskCountersOK       bool
}

// New builds a Sampler whose disk_busy flag trips at the given
// bytes/second threshold.
func New(diskBusyThresholdBPS uint64) *Sampler {
	s := &Sampler{diskBusyThresholdBPS: diskBusyThresholdBPS, lastSample: time.Now()}
	if counters, err := disk.IOCounters(); err == nil {
		s.lastDiskCounters = counters
		s.diskCountersOK = true
	}
	return s
}

// DiskThreshold returns the configured disk-busy threshold.
func (s *Sampler) DiskThreshold() uint64 { return s.diskBusyThresholdBPS }

// SetDiskThreshold updates the disk-busy threshold, used by the adaptive
// policy or a config reload.
func (s *Sampler) SetDiskThreshold(bps uint64) { s.diskBusyThresholdBPS = bps }

// Sample refreshes counters and computes a SystemLoad. When the OS doesn't
// expose aggregate disk throughput (spec §4.8 "best-effort"),
// DiskBytesPerSec is 0 and DiskBusy is false.
func (s *Sampler) Sample() model.SystemLoad {
	now := time.Now()
	elapsed := now.Sub(s.lastSample)
	if elapsed <= 0 {
		elapsed = time.Millisecond
	}

	cpuPercent := sampleCPUPercent()
	memPercent := sampleMemPercent()
	diskBPS := s.sampleDiskBytesPerSec(elapsed)

	s.lastSample = now

	return model.SystemLoad{
		CPUPercent:       cpuPercent,
		MemUsedPercent:   memPercent,
		DiskBytesPerSec:  diskBPS,
		DiskBusy:         diskBPS >= s.diskBusyThresholdBPS,
		SampleDurationMS: elapsed.Milliseconds(),
	}
}

func sampleCPUPercent() float32 {
	percents, err := cpu.Percent(0, false)
	if err != nil || len(percents) == 0 {
		log.WithError(err).Debug("cpu.Percent failed; reporting 0")
		return 0
	}
	return float32(percents[0])
}

func sampleMemPercent() float32 {
	vm, err := mem.VirtualMemory()
	if err != nil {
		log.WithError(err).Debug("mem.VirtualMemory failed; reporting 0")
		return 0
	}
	return float32(vm.UsedPercent)
}

func (s *Sampler) sampleDiskBytesPerSec(elapsed time.Duration) uint64 {
	if !s.diskCountersOK {
		return 0
	}
	counters, err := disk.IOCounters()
	if err != nil {
		log.WithError(err).Debug("disk.IOCounters failed; best-effort 0")
		s.diskCountersOK = false
		return 0
	}

	var deltaBytes uint64
	for name, cur := range counters {
		if prev, ok := s.lastDiskCounters[name]; ok {
			deltaBytes += diffUint64(cur.ReadBytes, prev.ReadBytes)
			deltaBytes += diffUint64(cur.WriteBytes, prev.WriteBytes)
		}
	}
	s.lastDiskCounters = counters

	secs := elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return uint64(float64(deltaBytes) / secs)
}

func diffUint64(cur, prev uint64) uint64 {
	if cur < prev {
		return 0
	}
	return cur - prev
}
