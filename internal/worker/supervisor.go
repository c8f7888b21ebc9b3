// Package worker implements the Worker Supervisor (spec §4.6): spawning
// one short-lived child process per content-extraction job, enforcing a
// concurrency cap and a timeout, and tripping a cooldown after repeated
// failures.
package worker

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joyshmitz/ultrasearch/internal/config"
	"github.com/joyshmitz/ultrasearch/internal/docid"
	"github.com/joyshmitz/ultrasearch/internal/logging"
	"github.com/joyshmitz/ultrasearch/internal/model"
	"github.com/joyshmitz/ultrasearch/internal/ultraerr"
)

var log = logging.For("worker-supervisor")

// Result is what a completed worker invocation produced.
type Result struct {
	Doc     docid.DocKey
	Preview string
	PID     int
	Started time.Time
	Elapsed time.Duration
}

// Supervisor spawns and tracks content-extraction worker processes.
type Supervisor struct {
	cfg     config.WorkerConfig
	extract config.ExtractConfig
	sem     chan struct{}

	mu            sync.Mutex
	failures      int
	cooldownUntil time.Time
}

// New builds a Supervisor that allows at most cfg.MaxWorkers concurrent
// children, passing extract's limits through to each worker's CLI flags.
func New(cfg config.WorkerConfig, extract config.ExtractConfig) *Supervisor {
	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	return &Supervisor{cfg: cfg, extract: extract, sem: make(chan struct{}, maxWorkers)}
}

// InCooldown reports whether new content jobs should be paused because
// worker_failures_total crossed the configured threshold recently.
func (s *Supervisor) InCooldown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Now().Before(s.cooldownUntil)
}

// FailureCount returns the running worker_failures_total counter.
func (s *Supervisor) FailureCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures
}

func (s *Supervisor) recordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures++
	if s.failures%s.cfg.WorkerFailureThreshold == 0 {
		s.cooldownUntil = time.Now().Add(s.cfg.CooldownAfterFailures)
		log.WithField("failures", s.failures).Warn("worker failure threshold crossed; pausing content dispatch")
	}
}

// Spawn runs one worker process for job, blocking until a concurrency
// slot is free (or ctx is cancelled). It enforces cfg.WorkerTimeout,
// killing the child and counting a failure if it's exceeded.
func (s *Supervisor) Spawn(ctx context.Context, job model.Job) (Result, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	defer func() { <-s.sem }()

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.WorkerTimeout)
	defer cancel()

	volume, frn := job.Doc.IntoParts()
	args := []string{
		"--volume-id", fmt.Sprint(volume),
		"--file-id", fmt.Sprint(frn),
		"--path", job.Path,
	}
	if s.extract.MaxBytes > 0 {
		args = append(args, "--max-bytes", fmt.Sprint(s.extract.MaxBytes))
	}
	if s.extract.MaxChars > 0 {
		args = append(args, "--max-chars", fmt.Sprint(s.extract.MaxChars))
	}
	if s.extract.EnableRich {
		args = append(args, "--enable-extractous")
	}

	binary := s.cfg.WorkerBinaryPath
	if binary == "" {
		binary = "ultrasearch-worker"
	}

	started := time.Now()
	cmd := exec.CommandContext(runCtx, binary, args...)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	err := cmd.Run()
	elapsed := time.Since(started)

	if runCtx.Err() == context.DeadlineExceeded {
		s.recordFailure()
		return Result{}, ultraerr.Wrapf(ultraerr.ErrWorkerTimeout, "job %s after %s", job.Doc, elapsed)
	}
	if err != nil {
		s.recordFailure()
		return Result{}, ultraerr.Wrapf(ultraerr.ErrWorkerCrash, "job %s: %v", job.Doc, err)
	}

	pid := 0
	if cmd.Process != nil {
		pid = cmd.Process.Pid
	}

	return Result{
		Doc:     job.Doc,
		Preview: strings.TrimSpace(stdout.String()),
		PID:     pid,
		Started: started,
		Elapsed: elapsed,
	}, nil
}

// DefaultBinaryName derives the worker binary name from the current
// executable's directory. Spawn does not use it: when config leaves
// WorkerBinaryPath empty, Spawn runs the bare name "ultrasearch-worker".
func DefaultBinaryName(serviceBinary string) string {
	return filepath.Join(filepath.Dir(serviceBinary), "ultrasearch-worker")
}
