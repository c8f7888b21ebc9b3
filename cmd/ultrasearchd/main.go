// Command ultrasearchd is the service entrypoint: it wires volume
// discovery, the change watcher, the scheduler tick loop, the worker
// supervisor, and the IPC server into one running process, the way the
// teacher's `cmd/rcd` wires an HTTP server around `fs/rc`'s dispatch table.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/joyshmitz/ultrasearch/internal/config"
	"github.com/joyshmitz/ultrasearch/internal/cursorstore"
	"github.com/joyshmitz/ultrasearch/internal/idle"
	"github.com/joyshmitz/ultrasearch/internal/ipc"
	"github.com/joyshmitz/ultrasearch/internal/jobqueue"
	"github.com/joyshmitz/ultrasearch/internal/load"
	"github.com/joyshmitz/ultrasearch/internal/logging"
	"github.com/joyshmitz/ultrasearch/internal/metacache"
	"github.com/joyshmitz/ultrasearch/internal/metrics"
	"github.com/joyshmitz/ultrasearch/internal/mft"
	"github.com/joyshmitz/ultrasearch/internal/model"
	"github.com/joyshmitz/ultrasearch/internal/scheduler"
	"github.com/joyshmitz/ultrasearch/internal/status"
	"github.com/joyshmitz/ultrasearch/internal/textindex"
	"github.com/joyshmitz/ultrasearch/internal/volumes"
	"github.com/joyshmitz/ultrasearch/internal/watcher"
	"github.com/joyshmitz/ultrasearch/internal/worker"
)

var log = logging.For("ultrasearchd")

func main() {
	var (
		configPath string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:           "ultrasearchd",
		Short:         "Run the ultrasearch indexing and query service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				logging.SetLevel(logrus.DebugLevel)
			}
			return run(configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", defaultConfigPath(), "path to the YAML settings file")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "enable debug logging")

	if err := cmd.Execute(); err != nil {
		log.WithError(err).Error("fatal")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "ultrasearch", "settings.yaml")
	}
	return "ultrasearch.yaml"
}

// service holds every long-lived component the daemon wires together.
type service struct {
	cfg config.Config

	queues    *jobqueue.Queues
	cache     *metacache.Cache
	index     *textindex.Index
	statusP   *status.Provider
	metricsP  *metrics.Metrics
	idleT     *idle.Tracker
	loadS     *load.Sampler
	policy    *scheduler.AdaptivePolicy
	workerSup *worker.Supervisor
	hostname  string
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Persist.StateDir, 0o755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}

	cursors, err := cursorstore.Open(filepath.Join(cfg.Persist.StateDir, "cursors"))
	if err != nil {
		return err
	}
	index, err := textindex.Open(filepath.Join(cfg.Persist.StateDir, "textindex.db"))
	if err != nil {
		return err
	}
	defer index.Close()

	svc := &service{
		cfg:       cfg,
		queues:    jobqueue.New(),
		cache:     metacache.New(1_000_000),
		index:     index,
		statusP:   status.New(),
		metricsP:  metrics.New(),
		idleT:     idle.New(cfg.Idle.WarmIdle, cfg.Idle.DeepIdle),
		loadS:     load.New(cfg.Scheduler.DiskBusyThresholdBPS),
		policy:    scheduler.NewAdaptivePolicy(cfg.Scheduler),
		workerSup: worker.New(cfg.Worker, cfg.Extract),
	}
	if host, err := os.Hostname(); err == nil {
		svc.hostname = host
		svc.statusP.SetServedBy(host)
	}

	all, err := volumes.Discover()
	if err != nil {
		return fmt.Errorf("discovering volumes: %w", err)
	}
	vols := watcher.FilterVolumes(all, cfg.Volumes)
	if len(vols) == 0 {
		log.Warn("no NTFS volumes matched configuration; service will idle")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, v := range vols {
		svc.seedVolume(v)
	}

	w := watcher.New(cfg.Watcher, cfg.Persist.CursorPersistInterval, svc.queues, svc.cache, cursors)
	go w.Run(ctx, vols)

	srv := ipc.NewServer(cfg.IPC, svc.handleSearch, svc.handleStatus)
	go func() {
		if err := srv.Serve(ctx); err != nil {
			log.WithError(err).Error("ipc server stopped")
		}
	}()

	go svc.tickLoop(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.WithField("signal", sig).Info("shutting down")
	case <-ctx.Done():
	}

	cancel()
	_ = srv.Close()
	return nil
}

// seedVolume walks volume's MFT once to give the metadata cache and text
// index a baseline before the watcher starts producing live events, per
// spec §4.2's "seeds the Metadata Cache and Text Index with a baseline".
func (s *service) seedVolume(v model.VolumeInfo) {
	enum, err := mft.Open(v)
	if err != nil {
		log.WithError(err).WithField("volume", v.ID).Warn("MFT enumeration unavailable; starting with an empty baseline")
		return
	}
	defer enum.Close()

	count := 0
	for {
		meta, ok, err := enum.Next()
		if err != nil {
			log.WithError(err).WithField("volume", v.ID).Warn("MFT enumeration stopped early")
			break
		}
		if !ok {
			break
		}
		s.cache.Put(meta)
		if !meta.IsDir() {
			s.index.AddDocument(textindex.Document{
				Key: meta.Key, Volume: meta.Volume, Name: meta.Name,
				Path: meta.Path, Ext: meta.Ext, Size: meta.Size,
				Created: meta.Created, Modified: meta.Modified,
			})
		}
		count++
	}
	if err := s.index.Commit(); err != nil {
		log.WithError(err).WithField("volume", v.ID).Warn("baseline commit failed")
	}
	s.statusP.RecordVolumeCounts(v.ID, uint64(count), 0)
	log.WithField("volume", v.ID).WithField("files", count).Info("baseline enumeration complete")
}

// tickLoop runs the scheduler at cfg.Scheduler.TickInterval: sample idle
// and load, select jobs within budget, execute them, and commit the text
// index once per tick (spec §5's "one tick, one commit").
func (s *service) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Scheduler.TickInterval)
	defer ticker.Stop()

	var lastContentSpawn time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		idleSample := s.idleT.Sample()
		loadSample := s.loadS.Sample()
		s.policy.Update(loadSample)
		tuned := s.policy.Config()

		budget := model.Budget{
			MaxFiles: tuned.MetadataBudgetFiles + tuned.ContentBudgetFiles,
			MaxBytes: tuned.MetadataBudgetBytes + tuned.ContentBudgetBytes,
		}

		selected := scheduler.Tick(s.queues, idleSample.State, loadSample, budget)
		s.execute(ctx, selected)

		if err := s.index.Commit(); err != nil {
			log.WithError(err).Warn("text index commit failed")
		} else {
			s.statusP.RecordIndexCommit(time.Now().Unix())
		}

		s.statusP.SetSchedulerState(idleSample.State.String())
		critical, metadata, content := s.queues.Counts()
		s.metricsP.SetQueueDepth(critical + metadata + content)
		s.statusP.RecordMetrics(s.metricsP.Snapshot())

		backlog := content
		if scheduler.ShouldSpawnContentWorker(backlog, idleSample.State, loadSample, tuned, &lastContentSpawn) {
			lastContentSpawn = time.Now()
		}
	}
}

func (s *service) execute(ctx context.Context, jobs []model.Job) {
	for _, job := range jobs {
		switch job.Payload {
		case model.PayloadDelete:
			if err := s.index.Remove(job.Doc); err != nil {
				log.WithError(err).WithField("doc", job.Doc).Warn("removing document from index")
			}

		case model.PayloadMetadataUpdate:
			s.applyMetadataUpdate(job)

		case model.PayloadContentIndex, model.PayloadRename:
			s.extractAndIndex(ctx, job)
		}
	}
}

func (s *service) applyMetadataUpdate(job model.Job) {
	item, name, ok := s.cache.Get(job.Doc)
	if !ok {
		return
	}
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	s.index.UpdateMetadata(job.Doc, job.Doc.Volume(), name, job.Path, ext, item.Size, 0, item.Modified)
}

func (s *service) extractAndIndex(ctx context.Context, job model.Job) {
	if job.Payload == model.PayloadRename && job.From != job.To {
		if err := s.index.Remove(job.From); err != nil {
			log.WithError(err).WithField("doc", job.From).Debug("removing stale rename source")
		}
	}

	if s.workerSup.InCooldown() {
		s.metricsP.IncContentDropped(1)
		return
	}

	s.metricsP.IncContentEnqueued(1)
	result, err := s.workerSup.Spawn(ctx, job)
	if err != nil {
		log.WithError(err).WithField("doc", job.Doc).WithField("path", job.Path).Warn("content extraction failed")
		s.metricsP.IncContentDropped(1)
		s.indexMetadataOnly(job)
		return
	}

	item, name, _ := s.cache.Get(job.Doc)
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	s.index.AddDocument(textindex.Document{
		Key: job.Doc, Volume: job.Doc.Volume(), Name: name, Path: job.Path,
		Ext: ext, Content: result.Preview, Size: job.Size, Modified: item.Modified,
	})
}

// indexMetadataOnly stages a document with no content after a failed
// extraction, so the file is still name-searchable (spec §4.6 "content
// extraction failures degrade to metadata-only, never drop the file").
func (s *service) indexMetadataOnly(job model.Job) {
	item, name, ok := s.cache.Get(job.Doc)
	if !ok {
		name = filepath.Base(job.Path)
	}
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	s.index.UpdateMetadata(job.Doc, job.Doc.Volume(), name, job.Path, ext, job.Size, 0, item.Modified)
}

func (s *service) handleSearch(ctx context.Context, req ipc.SearchRequest) (ipc.SearchResponse, error) {
	started := time.Now()
	hits, total, err := s.index.Search(req.Query, req.Limit, req.Offset)
	if err != nil {
		return ipc.SearchResponse{}, err
	}
	s.metricsP.ObserveSearchLatency(float64(time.Since(started).Milliseconds()))
	return ipc.SearchResponse{
		Hits: hits, Total: total, TookMS: uint64(time.Since(started).Milliseconds()),
		ServedBy: s.hostname, HasServedBy: s.hostname != "",
	}, nil
}

func (s *service) handleStatus(ctx context.Context, req ipc.StatusRequest) (ipc.StatusResponse, error) {
	return s.statusP.Snapshot(), nil
}
