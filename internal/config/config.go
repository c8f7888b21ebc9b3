// Package config loads the service's settings file (spec §6 "Persisted
// state" / "settings file") and the environment variables it recognizes,
// following the teacher's configmap/configstruct idiom of one option
// struct with explicit defaults rather than scattered globals.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// IdleConfig configures the Idle Tracker (spec §4.7).
type IdleConfig struct {
	WarmIdle time.Duration `yaml:"warm_idle"`
	DeepIdle time.Duration `yaml:"deep_idle"`
}

// SchedulerConfig configures the Scheduler Policy (spec §4.10).
type SchedulerConfig struct {
	CPUMetadataMax        float32       `yaml:"cpu_metadata_max"`
	CPUContentMax         float32       `yaml:"cpu_content_max"`
	DiskBusyThresholdBPS  uint64        `yaml:"disk_busy_threshold_bps"`
	MetadataBudgetFiles   int           `yaml:"metadata_budget_files"`
	MetadataBudgetBytes   uint64        `yaml:"metadata_budget_bytes"`
	ContentBudgetFiles    int           `yaml:"content_budget_files"`
	ContentBudgetBytes    uint64        `yaml:"content_budget_bytes"`
	ContentSpawnBacklog   int           `yaml:"content_spawn_backlog"`
	ContentSpawnCooldown  time.Duration `yaml:"content_spawn_cooldown"`
	ContentBatchSize      int           `yaml:"content_batch_size"`
	TickInterval          time.Duration `yaml:"tick_interval"`
	AdaptiveInterval      time.Duration `yaml:"adaptive_interval"`
	AdaptiveCPUSmoothing  float32       `yaml:"adaptive_cpu_smoothing"`
}

// WorkerConfig configures the Worker Supervisor (spec §4.6).
type WorkerConfig struct {
	MaxWorkers            int           `yaml:"max_workers"`
	WorkerTimeout         time.Duration `yaml:"worker_timeout"`
	WorkerFailureThreshold int          `yaml:"worker_failure_threshold"`
	CooldownAfterFailures time.Duration `yaml:"cooldown_after_failures"`
	WorkerBinaryPath      string        `yaml:"worker_binary_path"`
}

// ExtractConfig configures extraction limits (spec §4.5).
type ExtractConfig struct {
	MaxBytes        uint64 `yaml:"max_bytes"`
	MaxChars        int    `yaml:"max_chars"`
	EnableRich      bool   `yaml:"enable_rich"`
	EnableOCR       bool   `yaml:"enable_ocr"`
}

// IPCConfig configures the IPC Server (spec §4.12).
type IPCConfig struct {
	PipeName      string        `yaml:"pipe_name"`
	SocketPath    string        `yaml:"socket_path"`
	MaxFrameBytes uint32        `yaml:"max_frame_bytes"`
	QueueDepth    int           `yaml:"queue_depth"`
	DefaultTimeout time.Duration `yaml:"default_timeout"`
}

// WatcherConfig configures the Change Watcher (spec §4.11).
type WatcherConfig struct {
	TickInterval         time.Duration `yaml:"tick_interval"`
	PollFallbackInterval time.Duration `yaml:"poll_fallback_interval"`
}

// PersistConfig configures on-disk state layout (spec §6).
type PersistConfig struct {
	StateDir               string        `yaml:"state_dir"`
	CursorPersistInterval  time.Duration `yaml:"cursor_persist_interval"`
}

// Config is the complete settings file schema.
type Config struct {
	Volumes   []string        `yaml:"volumes"` // empty == all NTFS volumes
	Idle      IdleConfig      `yaml:"idle"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Worker    WorkerConfig    `yaml:"worker"`
	Extract   ExtractConfig   `yaml:"extract"`
	Watcher   WatcherConfig   `yaml:"watcher"`
	IPC       IPCConfig       `yaml:"ipc"`
	Persist   PersistConfig   `yaml:"persist"`
}

// envEnableExtractous is the environment variable spec §6 documents.
const envEnableExtractous = "ULTRASEARCH_ENABLE_EXTRACTOUS"

// Default returns the configuration with every default named in spec.md
// (idle thresholds 15s/60s, scheduler budgets/thresholds from §4.10,
// worker timeouts from §4.6, cursor persistence cadence from §6).
func Default() Config {
	return Config{
		Idle: IdleConfig{
			WarmIdle: 15 * time.Second,
			DeepIdle: 60 * time.Second,
		},
		Scheduler: SchedulerConfig{
			CPUMetadataMax:       60,
			CPUContentMax:        40,
			DiskBusyThresholdBPS: 10 * 1024 * 1024,
			MetadataBudgetFiles:  256,
			MetadataBudgetBytes:  64 * 1024 * 1024,
			ContentBudgetFiles:   64,
			ContentBudgetBytes:   512 * 1024 * 1024,
			ContentSpawnBacklog:  200,
			ContentSpawnCooldown: 30 * time.Second,
			ContentBatchSize:     500,
			TickInterval:         time.Second,
			AdaptiveInterval:     5 * time.Second,
			AdaptiveCPUSmoothing: 0.2,
		},
		Worker: WorkerConfig{
			MaxWorkers:             4,
			WorkerTimeout:          30 * time.Second,
			WorkerFailureThreshold: 10,
			CooldownAfterFailures:  2 * time.Minute,
			WorkerBinaryPath:       "ultrasearch-worker",
		},
		Extract: ExtractConfig{
			MaxBytes: 10 * 1024 * 1024,
			MaxChars: 100_000,
		},
		Watcher: WatcherConfig{
			TickInterval:         5 * time.Second,
			PollFallbackInterval: 30 * time.Second,
		},
		IPC: IPCConfig{
			PipeName:       `\\.\pipe\ultrasearch`,
			SocketPath:     "/tmp/ultrasearch.sock",
			MaxFrameBytes:  8 * 1024 * 1024,
			QueueDepth:     64,
			DefaultTimeout: 5 * time.Second,
		},
		Persist: PersistConfig{
			StateDir:              defaultStateDir(),
			CursorPersistInterval: 10 * time.Second,
		},
	}
}

// Load reads a YAML settings file, falling back to Default() values for
// anything the file omits. A missing file is not an error: the service
// runs on defaults, matching spec.md's "config file parsing... excluded"
// stance — this package only reads what's there, the installer/onboarding
// UI that writes the file is out of scope.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		applyEnv(&cfg)
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrapf(err, "config: reading %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "config: parsing %s", path)
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv(envEnableExtractous); ok {
		switch v {
		case "1", "true", "TRUE", "True":
			cfg.Extract.EnableRich = true
		}
	}
}
