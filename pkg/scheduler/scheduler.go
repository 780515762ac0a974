package scheduler

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"faceclock/pkg/logger"
)

// EventScheduler runs the periodic maintenance sweeps: the expired-session
// delete and the audit retention cut. Jobs are registered once at startup;
// there is no runtime job management.
type EventScheduler interface {
	Start()
	Stop()
	AddJob(id, cronExpr string, task func()) error
	Jobs() []JobStatus
	IsRunning() bool
}

// JobStatus is a read-only snapshot of one registered sweep, surfaced by
// the detailed health endpoint.
type JobStatus struct {
	ID       string     `json:"id"`
	CronExpr string     `json:"cron"`
	LastRun  *time.Time `json:"last_run,omitempty"`
	NextRun  *time.Time `json:"next_run,omitempty"`
}

type jobEntry struct {
	cronExpr string
	job      *gocron.Job
	lastRun  *time.Time
}

type GocronScheduler struct {
	scheduler *gocron.Scheduler
	jobs      map[string]*jobEntry
	mu        sync.RWMutex
	running   bool
}

func NewEventScheduler() EventScheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	return &GocronScheduler{
		scheduler: s,
		jobs:      make(map[string]*jobEntry),
	}
}

func (s *GocronScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		logger.SchedulerWarn("start", "Scheduler is already running", nil)
		return
	}

	s.scheduler.StartAsync()
	s.running = true
	logger.Scheduler("started", "Maintenance scheduler started", map[string]interface{}{"jobs": len(s.jobs)})
}

func (s *GocronScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.scheduler.Stop()
	s.running = false
	logger.Scheduler("stopped", "Maintenance scheduler stopped", nil)
}

func (s *GocronScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// AddJob registers a sweep under a unique id. The wrapped task records its
// run time for the health surface before executing.
func (s *GocronScheduler) AddJob(id, cronExpr string, task func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[id]; exists {
		return fmt.Errorf("job %s already registered", id)
	}

	job, err := s.scheduler.Cron(cronExpr).Do(func() {
		now := time.Now()
		logger.Scheduler("job_executing", "Running maintenance job", map[string]interface{}{"job_id": id})

		s.mu.Lock()
		if entry, ok := s.jobs[id]; ok {
			entry.lastRun = &now
		}
		s.mu.Unlock()

		task()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %v", id, err)
	}

	s.jobs[id] = &jobEntry{cronExpr: cronExpr, job: job}

	logger.Scheduler("job_added", "Maintenance job registered", map[string]interface{}{
		"job_id":    id,
		"cron_expr": cronExpr,
	})
	return nil
}

// Jobs returns a snapshot of every registered sweep, ordered by id.
func (s *GocronScheduler) Jobs() []JobStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobStatus, 0, len(s.jobs))
	for id, entry := range s.jobs {
		status := JobStatus{ID: id, CronExpr: entry.cronExpr}
		if entry.lastRun != nil {
			lastRun := *entry.lastRun
			status.LastRun = &lastRun
		}
		if entry.job != nil {
			nextRun := entry.job.NextRun()
			status.NextRun = &nextRun
		}
		out = append(out, status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
