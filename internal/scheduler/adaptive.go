package scheduler

import (
	"sync"
	"time"

	"github.com/joyshmitz/ultrasearch/internal/config"
	"github.com/joyshmitz/ultrasearch/internal/logging"
	"github.com/joyshmitz/ultrasearch/internal/model"
)

const (
	batchSizeMin     = 10
	batchSizeMax     = 2000
	cpuThresholdMin  = 15.0
	cpuThresholdMax  = 60.0
	adjustmentPeriod = 5 * time.Second
)

var adaptiveLog = logging.For("adaptive-policy")

// AdaptivePolicy retunes content_batch_size and cpu_content_max every
// adjustmentPeriod based on an exponentially smoothed CPU reading
// (spec §4.10 "Adaptive policy"). It never fires faster than
// adjustmentPeriod regardless of how often Update is called.
type AdaptivePolicy struct {
	mu             sync.Mutex
	cfg            config.SchedulerConfig
	smoothedCPU    float32
	lastAdjustment time.Time
}

// NewAdaptivePolicy seeds the policy from a base configuration.
func NewAdaptivePolicy(cfg config.SchedulerConfig) *AdaptivePolicy {
	return &AdaptivePolicy{cfg: cfg, lastAdjustment: time.Now()}
}

// Config returns the current (possibly tuned) scheduler configuration.
func (p *AdaptivePolicy) Config() config.SchedulerConfig {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg
}

// Update folds a new load sample into the smoothed CPU average and, if
// enough time has passed since the last adjustment, retunes batch size and
// the content CPU ceiling.
func (p *AdaptivePolicy) Update(load model.SystemLoad) {
	p.mu.Lock()
	defer p.mu.Unlock()

	smoothing := p.cfg.AdaptiveCPUSmoothing
	if smoothing <= 0 {
		smoothing = 0.2
	}
	p.smoothedCPU = p.smoothedCPU*(1-smoothing) + load.CPUPercent*smoothing

	if time.Since(p.lastAdjustment) < adjustmentPeriod {
		return
	}

	switch {
	case p.smoothedCPU < 20.0:
		p.cfg.ContentBatchSize = minInt(p.cfg.ContentBatchSize+50, batchSizeMax)
	case p.smoothedCPU > 50.0:
		p.cfg.ContentBatchSize = maxInt(p.cfg.ContentBatchSize-100, batchSizeMin)
	}

	switch {
	case p.smoothedCPU < 10.0:
		p.cfg.CPUContentMax = minFloat(p.cfg.CPUContentMax+5.0, cpuThresholdMax)
	case p.smoothedCPU > 40.0:
		p.cfg.CPUContentMax = maxFloat(p.cfg.CPUContentMax-5.0, cpuThresholdMin)
	}

	adaptiveLog.WithField("batch_size", p.cfg.ContentBatchSize).
		WithField("cpu_content_max", p.cfg.CPUContentMax).
		Debug("retuned scheduler policy")

	p.lastAdjustment = time.Now()
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minFloat(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
