package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soltixdb/udlc/internal/analytics/detection"
	"github.com/soltixdb/udlc/internal/analytics/periodogram"
	"github.com/soltixdb/udlc/internal/config"
	"github.com/soltixdb/udlc/internal/logging"
	"github.com/soltixdb/udlc/internal/models"
	"github.com/soltixdb/udlc/internal/queue"
	"github.com/soltixdb/udlc/internal/storage"
)

// JobStatus is the lifecycle state of a sweep job
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// JobSummary counts result rows per terminal state
type JobSummary struct {
	ConvergedOnBand     int `json:"converged_on_band"`
	ConvergedAtBoundary int `json:"converged_at_boundary"`
	Exhausted           int `json:"exhausted"`
	Failed              int `json:"failed"`
}

func summarize(t detection.Table) *JobSummary {
	return &JobSummary{
		ConvergedOnBand:     t.Count(detection.StateConvergedOnBand),
		ConvergedAtBoundary: t.Count(detection.StateConvergedAtBoundary),
		Exhausted:           t.Count(detection.StateExhausted),
		Failed:              t.Count(detection.StateFailed),
	}
}

// Job describes a submitted sweep
type Job struct {
	ID          string      `json:"id"`
	Name        string      `json:"name,omitempty"`
	Status      JobStatus   `json:"status"`
	SubmittedAt time.Time   `json:"submitted_at"`
	StartedAt   *time.Time  `json:"started_at,omitempty"`
	FinishedAt  *time.Time  `json:"finished_at,omitempty"`
	Periods     int         `json:"periods"`
	Done        int         `json:"done"`
	Summary     *JobSummary `json:"summary,omitempty"`
	Error       string      `json:"error,omitempty"`
}

// ErrServiceStopped is returned for queue deliveries that arrive after Stop
var ErrServiceStopped = errors.New("job service is stopped")

// jobMessage is the queue payload for one sweep
type jobMessage struct {
	ID      string               `json:"id"`
	Request *models.SweepRequest `json:"request"`
}

// JobService runs synchronous searches and queued sweep jobs
type JobService struct {
	logger *logging.Logger
	cfg    *config.Config
	queue  queue.Queue
	store  *storage.ResultStore

	mu   sync.RWMutex
	jobs map[string]*Job

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup // in-flight handlers; Add only under mu while !stopping
	started  bool
	stopping bool
}

// NewJobService creates a new JobService
func NewJobService(logger *logging.Logger, cfg *config.Config, q queue.Queue, store *storage.ResultStore) *JobService {
	if logger == nil {
		logger = logging.Global()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &JobService{
		logger: logger,
		cfg:    cfg,
		queue:  q,
		store:  store,
		jobs:   make(map[string]*Job),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start subscribes to the job subject and begins running sweeps
func (s *JobService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	if err := s.queue.Subscribe(s.cfg.Queue.Subject, s.handleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", s.cfg.Queue.Subject, err)
	}
	s.started = true
	s.logger.Info("Job service started", "subject", s.cfg.Queue.Subject, "queue", s.cfg.Queue.Type)
	return nil
}

// Stop cancels running sweeps and waits for their handlers to return
func (s *JobService) Stop(ctx context.Context) error {
	s.mu.Lock()
	started := s.started
	s.started = false
	s.stopping = true
	s.mu.Unlock()

	s.cancel()
	if started {
		if err := s.queue.Unsubscribe(s.cfg.Queue.Subject); err != nil {
			s.logger.Warn("Failed to unsubscribe", "subject", s.cfg.Queue.Subject, "error", err)
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit validates a sweep request and queues it. The returned job is a snapshot.
func (s *JobService) Submit(ctx context.Context, req *models.SweepRequest) (*Job, error) {
	if req == nil {
		return nil, invalid("request body is required")
	}
	p, serr := buildSweepPlan(s.cfg, req)
	if serr != nil {
		return nil, serr
	}

	job := &Job{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Status:      JobPending,
		SubmittedAt: time.Now().UTC(),
		Periods:     len(p.periods),
	}
	data, err := json.Marshal(jobMessage{ID: job.ID, Request: req})
	if err != nil {
		return nil, NewServiceError(CodeInternal, fmt.Sprintf("failed to encode job: %v", err))
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	snapshot := *job
	s.mu.Unlock()

	if err := s.queue.Publish(ctx, s.cfg.Queue.Subject, data); err != nil {
		s.mu.Lock()
		delete(s.jobs, job.ID)
		s.mu.Unlock()
		s.logger.Error("Failed to queue sweep", "job_id", job.ID, "error", err)
		return nil, NewServiceError(CodeInternal, fmt.Sprintf("failed to queue job: %v", err))
	}

	s.logger.Info("Sweep queued", "job_id", job.ID, "name", job.Name, "periods", job.Periods)
	return &snapshot, nil
}

// handleMessage runs one queued sweep. Invalid payloads are dropped; a sweep
// interrupted by Stop returns an error so the backend can redeliver it.
func (s *JobService) handleMessage(data []byte) error {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		return ErrServiceStopped
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	var msg jobMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.ID == "" || msg.Request == nil {
		s.logger.Error("Dropping malformed job message", "error", err, "bytes", len(data))
		return nil
	}

	ctx := logging.WithJobID(s.ctx, msg.ID)
	log := s.logger.WithContext(ctx)

	p, serr := buildSweepPlan(s.cfg, msg.Request)
	if serr != nil {
		s.finish(msg.ID, nil, serr.Message)
		log.Warn("Rejected queued sweep", "error", serr.Message)
		return nil
	}

	s.begin(msg.ID, msg.Request.Name, len(p.periods))
	log.Info("Sweep started", "periods", len(p.periods), "method", p.oracle.Method())

	opts := detection.SweepOptions{
		Workers: s.cfg.Sweep.Workers,
		Logger:  log,
		Progress: func(done, total int, _ detection.Result) {
			s.progress(msg.ID, done)
		},
	}
	table, err := detection.Sweep(ctx, p.series, p.periods, p.oracle, p.search, opts)
	if err != nil {
		s.finish(msg.ID, nil, err.Error())
		log.Warn("Sweep interrupted", "error", err)
		return err
	}

	if err := s.store.Save(msg.ID, table); err != nil {
		s.finish(msg.ID, nil, fmt.Sprintf("failed to store results: %v", err))
		log.Error("Failed to store sweep results", "error", err)
		return nil
	}

	s.finish(msg.ID, table, "")
	log.Info("Sweep completed", "rows", table.Len(), "flagged", len(table.Flagged()))
	return nil
}

func (s *JobService) begin(id, name string, periods int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		// submitted by another process sharing the queue
		job = &Job{ID: id, Name: name, SubmittedAt: time.Now().UTC()}
		s.jobs[id] = job
	}
	now := time.Now().UTC()
	job.Status = JobRunning
	job.StartedAt = &now
	job.FinishedAt = nil
	job.Periods = periods
	job.Done = 0
	job.Error = ""
}

func (s *JobService) progress(id string, done int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		job.Done = done
	}
}

func (s *JobService) finish(id string, table detection.Table, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		job = &Job{ID: id, SubmittedAt: time.Now().UTC()}
		s.jobs[id] = job
	}
	now := time.Now().UTC()
	job.FinishedAt = &now
	if errMsg != "" {
		job.Status = JobFailed
		job.Error = errMsg
		return
	}
	job.Status = JobCompleted
	job.Done = table.Len()
	job.Summary = summarize(table)
}

// Get returns a snapshot of a job
func (s *JobService) Get(id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, NewServiceError(CodeJobNotFound, fmt.Sprintf("job %s not found", id))
	}
	snapshot := *job
	return &snapshot, nil
}

// List returns snapshots of all known jobs, oldest first
func (s *JobService) List() []Job {
	s.mu.RLock()
	jobs := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, *job)
	}
	s.mu.RUnlock()

	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].SubmittedAt.Equal(jobs[j].SubmittedAt) {
			return jobs[i].ID < jobs[j].ID
		}
		return jobs[i].SubmittedAt.Before(jobs[j].SubmittedAt)
	})
	return jobs
}

// Results returns the stored table of a finished job. Tables written by
// earlier runs are served from the store even when the job is not in memory.
func (s *JobService) Results(id string) (detection.Table, error) {
	s.mu.RLock()
	job, known := s.jobs[id]
	var status JobStatus
	var jobErr string
	if known {
		status, jobErr = job.Status, job.Error
	}
	s.mu.RUnlock()

	if known {
		switch status {
		case JobPending, JobRunning:
			return nil, NewServiceErrorWithDetails(CodeJobNotReady,
				fmt.Sprintf("job %s is %s", id, status),
				map[string]interface{}{"status": string(status)})
		case JobFailed:
			return nil, NewServiceErrorWithDetails(CodeJobNotReady,
				fmt.Sprintf("job %s failed: %s", id, jobErr),
				map[string]interface{}{"status": string(status)})
		}
	}

	table, err := s.store.Load(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidID) {
			return nil, NewServiceError(CodeJobNotFound, fmt.Sprintf("job %s not found", id))
		}
		return nil, NewServiceError(CodeInternal, fmt.Sprintf("failed to load results: %v", err))
	}
	return table, nil
}

// Search runs a single-period amplitude search synchronously. A search that
// cannot converge is returned as a flagged row rather than an error.
func (s *JobService) Search(ctx context.Context, req *models.SearchRequest) (detection.Result, error) {
	if req == nil {
		return detection.Result{}, invalid("request body is required")
	}
	if !(req.Period > 0) || math.IsInf(req.Period, 0) {
		return detection.Result{}, invalid("%v: got %v", detection.ErrInvalidPeriod, req.Period)
	}
	series, serr := buildSeries(req.Series)
	if serr != nil {
		return detection.Result{}, serr
	}
	search, serr := buildSearch(s.cfg.Sweep, req.Search)
	if serr != nil {
		return detection.Result{}, serr
	}
	oracle, serr := buildOracle(s.cfg.Periodogram, req.Oracle)
	if serr != nil {
		return detection.Result{}, serr
	}

	res, err := detection.SearchAmplitude(ctx, series, req.Period, oracle, search)
	if err != nil && ctx.Err() != nil {
		return res, NewServiceError(CodeInternal, fmt.Sprintf("search cancelled: %v", ctx.Err()))
	}
	if err != nil {
		s.logger.Warn("Search failed", "period", req.Period, "error", err)
	}
	return res, nil
}

// RunSync runs a small sweep within the request
func (s *JobService) RunSync(ctx context.Context, req *models.SweepRequest) (detection.Table, error) {
	if req == nil {
		return nil, invalid("request body is required")
	}
	p, serr := buildSweepPlan(s.cfg, req)
	if serr != nil {
		return nil, serr
	}
	if limit := s.cfg.Server.MaxSyncPeriods; limit > 0 && len(p.periods) > limit {
		return nil, NewServiceErrorWithDetails(CodeTooLarge,
			fmt.Sprintf("%d periods exceed the synchronous limit of %d; submit a sweep job instead", len(p.periods), limit),
			map[string]interface{}{"periods": len(p.periods), "limit": limit})
	}

	opts := detection.SweepOptions{Workers: s.cfg.Sweep.Workers, Logger: s.logger}
	table, err := detection.Sweep(ctx, p.series, p.periods, p.oracle, p.search, opts)
	if err != nil {
		return nil, NewServiceError(CodeInternal, fmt.Sprintf("sweep interrupted: %v", err))
	}
	return table, nil
}

// Methods lists the available FAP methods and normalizations
func (s *JobService) Methods() *models.MethodsResponse {
	return &models.MethodsResponse{
		Methods: periodogram.ListMethods(),
		Default: s.cfg.Periodogram.FAPMethod,
		Normalizations: []string{
			string(periodogram.NormalizationStandard),
			string(periodogram.NormalizationModel),
			string(periodogram.NormalizationLog),
		},
	}
}
