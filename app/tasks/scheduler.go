package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/Bodobolero/rssdeduper/app/cfg"
	"github.com/Bodobolero/rssdeduper/app/database"
	"github.com/Bodobolero/rssdeduper/app/feed"
	"github.com/Bodobolero/rssdeduper/app/opml"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler drives the processing passes. It runs a single worker on
// purpose: the duplicate registry is shared across all feeds, and running
// passes one at a time keeps first-writer-wins deterministic.
type Scheduler struct {
	registry      *feed.Registry
	settingsCache *feed.SettingsCache
	feedRepo      database.FeedRepository
	parser        *feed.Parser
	httpClient    *http.Client
	userAgent     string
	interval      time.Duration
	maxIterations int
	defaultMaxAge int
	sourceOPML    string
	targetOPML    string
	feedsFile     string
	targetDir     string
	urlPrefix     string
	feeds         map[string]*feed.Feed
	lastRunDate   string
	iterations    int
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	taskQueue     chan TaskInterface
	done          chan struct{}
}

func NewScheduler(registry *feed.Registry, settingsCache *feed.SettingsCache,
	feedRepo database.FeedRepository, httpClient *http.Client) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		registry:      registry,
		settingsCache: settingsCache,
		feedRepo:      feedRepo,
		parser:        feed.NewParser(),
		httpClient:    httpClient,
		userAgent:     cfg.UserAgent,
		interval:      time.Duration(cfg.Interval) * time.Second,
		maxIterations: cfg.MaxIterations,
		defaultMaxAge: cfg.MaxAgeHours,
		sourceOPML:    cfg.SourceOPML,
		targetOPML:    cfg.TargetOPML,
		feedsFile:     cfg.FeedsFile,
		targetDir:     cfg.TargetDir,
		urlPrefix:     cfg.URLPrefix,
		feeds:         make(map[string]*feed.Feed),
		lastRunDate:   time.Now().Format("2006-01-02"),
		ctx:           ctx,
		cancel:        cancel,
		taskQueue:     make(chan TaskInterface, 300),
		done:          make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.worker()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		if s.runPass() {
			return
		}

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				if s.runPass() {
					return
				}
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

// Done is closed after the last pass of a bounded run has finished
// executing. It never closes when max iterations is 0.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// runPass enqueues one full processing round. Returns true when the
// bounded-iteration budget is exhausted and the ticker loop should stop.
func (s *Scheduler) runPass() bool {
	refs, err := opml.CheckAndInit(s.sourceOPML, s.feedsFile, s.urlPrefix, s.targetOPML, s.targetDir)
	if err != nil {
		slog.Error("Failed to prepare feed list, skipping pass", "error", err)
		return false
	}

	// Entries registered yesterday must not suppress today's items.
	today := time.Now().Format("2006-01-02")
	if today != s.lastRunDate {
		s.lastRunDate = today
		if err := s.EnqueueTask(NewResetRegistryTask(s.registry)); err != nil {
			slog.Warn("Failed to enqueue ResetRegistryTask", "error", err)
		}
	}

	slog.Debug("Scheduling processing pass", "feeds", len(refs))

	for _, ref := range refs {
		if !s.settingsCache.Enabled(ref.URL) {
			slog.Debug("Feed disabled, skipping", "feed", ref.URL)
			continue
		}

		f, ok := s.feeds[ref.URL]
		if !ok {
			f = s.registerFeed(ref)
			s.feeds[ref.URL] = f
		}

		rewriter := feed.NewRewriter(s.registry, s.settingsCache.MaxAge(ref.URL, s.defaultMaxAge))
		task := NewProcessFeedTask(f, rewriter, s.parser, s.feedRepo, s.httpClient, s.userAgent)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue ProcessFeedTask", "feed", ref.URL, "error", err)
		}
	}

	s.iterations++
	if s.maxIterations > 0 && s.iterations >= s.maxIterations {
		slog.Info("Max iterations reached, finishing up", "iterations", s.iterations)
		if err := s.EnqueueTask(newShutdownTask(s.done)); err != nil {
			slog.Warn("Failed to enqueue shutdown task", "error", err)
			close(s.done)
		}
		return true
	}

	return false
}

// registerFeed creates the in-memory feed handle and seeds it from the
// database, so an unchanged feed is not republished after a restart.
func (s *Scheduler) registerFeed(ref opml.FeedRef) *feed.Feed {
	f := feed.NewFeed(ref.URL, filepath.Join(s.targetDir, ref.Filename))

	if err := s.feedRepo.UpsertFeed(ref.URL, ref.Filename); err != nil {
		slog.Warn("Failed to register feed in database", "feed", ref.URL, "error", err)
		return f
	}

	stored, err := s.feedRepo.GetFeed(ref.URL)
	if err != nil {
		slog.Warn("Failed to load feed state from database", "feed", ref.URL, "error", err)
		return f
	}
	if stored != nil && stored.LastBuildDate != "" {
		f.SetLastBuildDate(stored.LastBuildDate)
	}

	return f
}

func (s *Scheduler) worker() {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	if err := task.Execute(taskCtx); err != nil {
		slog.Error("Task execution failed", "type", string(task.GetType()),
			"id", task.GetID(), "feed", task.GetFeedURL(), "error", err)
	}
}

// shutdownTask marks the end of a bounded run. Because the worker drains
// the queue in order, every task enqueued before it has finished by the
// time the done channel closes.
type shutdownTask struct {
	Task
	done chan struct{}
}

func newShutdownTask(done chan struct{}) *shutdownTask {
	return &shutdownTask{
		Task: NewTask(TaskTypeShutdown, ""),
		done: done,
	}
}

func (t *shutdownTask) Execute(ctx context.Context) error {
	close(t.done)
	return nil
}
