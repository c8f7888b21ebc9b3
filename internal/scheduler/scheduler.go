// Package scheduler implements the tick-based job selection and worker
// spawn policy (spec §4.10): which queued jobs run this tick, and whether
// a content-extraction worker should be spawned.
package scheduler

import (
	"time"

	"github.com/joyshmitz/ultrasearch/internal/config"
	"github.com/joyshmitz/ultrasearch/internal/jobqueue"
	"github.com/joyshmitz/ultrasearch/internal/model"
)

const (
	criticalTakeLimit = 16
	metadataTakeLimit = 256
	contentTakeLimit  = 64
)

// Tick pops eligible jobs from queues in priority order and returns them
// for execution. Critical jobs run unconditionally (up to criticalTakeLimit);
// metadata and content jobs are gated by idle state and system load.
func Tick(queues *jobqueue.Queues, idle model.IdleState, load model.SystemLoad, budget model.Budget) []model.Job {
	if budget.MaxFiles == 0 || budget.MaxBytes == 0 {
		return nil
	}

	selected := make([]model.Job, 0, criticalTakeLimit)
	fileCount := 0
	var bytesAccum uint64

	take := func(l *jobqueue.Lane, limit int) {
		for i := 0; i < limit; i++ {
			if fileCount >= budget.MaxFiles {
				return
			}
			j, ok := l.PopFront()
			if !ok {
				return
			}
			if bytesAccum+j.EstBytes > budget.MaxBytes {
				l.PushFront(j)
				return
			}
			selected = append(selected, j)
			fileCount++
			bytesAccum += j.EstBytes
		}
	}

	take(queues.Critical(), criticalTakeLimit)

	if AllowMetadataJobs(idle, load) {
		take(queues.Metadata(), metadataTakeLimit)
	}
	if AllowContentJobs(idle, load) {
		take(queues.Content(), contentTakeLimit)
	}

	return selected
}

// AllowMetadataJobs reports whether metadata-lane jobs may run: the
// machine must be at least warm-idle, CPU below the metadata ceiling, and
// disk not busy.
func AllowMetadataJobs(idle model.IdleState, load model.SystemLoad) bool {
	return (idle == model.WarmIdle || idle == model.DeepIdle) &&
		load.CPUPercent < 60.0 &&
		!load.DiskBusy
}

// AllowContentJobs reports whether content-lane (heavy extraction) jobs may
// run: requires deep idle and a lower CPU ceiling than metadata jobs.
func AllowContentJobs(idle model.IdleState, load model.SystemLoad) bool {
	return idle == model.DeepIdle &&
		load.CPUPercent < 40.0 &&
		!load.DiskBusy
}

// ShouldSpawnContentWorker decides whether to launch a new extraction
// worker process given the current content backlog, idle/load state, and
// the time since the last spawn.
func ShouldSpawnContentWorker(backlog int, idle model.IdleState, load model.SystemLoad, cfg config.SchedulerConfig, lastSpawn *time.Time) bool {
	if backlog == 0 || load.DiskBusy || load.CPUPercent >= cfg.CPUContentMax {
		return false
	}
	if idle != model.DeepIdle {
		return false
	}
	if backlog < cfg.ContentSpawnBacklog {
		return false
	}
	if lastSpawn != nil && time.Since(*lastSpawn) < cfg.ContentSpawnCooldown {
		return false
	}
	return true
}
