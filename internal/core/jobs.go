package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobPhase indicates the current stage of an asynchronous processing job.
type JobPhase string

const (
	PhaseQueued     JobPhase = "queued"
	PhaseProcessing JobPhase = "processing"
	PhaseComplete   JobPhase = "complete"
	PhaseFailed     JobPhase = "failed"
)

// JobProgress is a snapshot of a job, broadcast to subscribers.
type JobProgress struct {
	JobID      string   `json:"job_id"`
	Department string   `json:"department"`
	Project    string   `json:"project"`
	FileName   string   `json:"file_name"`
	Phase      JobPhase `json:"phase"`
	Percent    int      `json:"percent"`
	Error      string   `json:"error,omitempty"` // Non-empty if Phase is PhaseFailed
}

// Done reports whether the job reached a terminal phase.
func (p JobProgress) Done() bool {
	return p.Phase == PhaseComplete || p.Phase == PhaseFailed
}

// JobResult is the outcome of a finished job.
type JobResult struct {
	JobID    string          `json:"job_id"`
	FileName string          `json:"file_name"`
	Stats    ProcessingStats `json:"stats"`
	Error    error           `json:"-"`
}

type activeJob struct {
	id       string
	progress JobProgress
	result   *JobResult
	done     chan struct{}

	mu        sync.Mutex // guards progress and listeners
	listeners []chan JobProgress
}

// StartProcessing runs ProcessFile in the background and returns the job id
// immediately. Use SubscribeProgress to follow it and JobResult to collect
// the outcome.
//
// The upload body is read up front so the caller may close the request.
// Returns ErrTooManyUploads if no processing slot frees up in time.
func (s *Service) StartProcessing(ctx context.Context, upload Upload, department, project string) (string, error) {
	if upload.Body == nil {
		return "", fmt.Errorf("%w: no content", ErrFileRead)
	}
	text, err := ReadFileContent(upload.Body, s.maxFileSize)
	if err != nil {
		return "", err
	}
	upload.Body = strings.NewReader(text)

	if err := s.limiter.Acquire(ctx); err != nil {
		return "", err
	}

	jobID := uuid.New().String()
	job := &activeJob{
		id: jobID,
		progress: JobProgress{
			JobID:      jobID,
			Department: department,
			Project:    project,
			FileName:   upload.Name,
			Phase:      PhaseQueued,
		},
		done: make(chan struct{}),
	}

	s.mu.Lock()
	s.jobs[jobID] = job
	s.mu.Unlock()

	logger := loggerFrom(ctx).With("job_id", jobID)
	// The request context ends with the response; keep only its logger.
	jobCtx := ContextWithLogger(context.Background(), logger)

	go func() {
		defer s.limiter.Release()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic in processing job", "panic", r)
				job.finish(&JobResult{
					JobID:    jobID,
					FileName: upload.Name,
					Error:    fmt.Errorf("internal error: %v", r),
				})
				s.cleanup(jobID, s.jobRetention)
			}
		}()

		job.update(func(p *JobProgress) { p.Phase = PhaseProcessing })

		stats, err := s.processFile(jobCtx, upload, department, project, func(percent int) {
			job.update(func(p *JobProgress) { p.Percent = percent })
		})

		job.finish(&JobResult{
			JobID:    jobID,
			FileName: upload.Name,
			Stats:    stats,
			Error:    err,
		})
		s.cleanup(jobID, s.jobRetention)
	}()

	return jobID, nil
}

// SubscribeProgress returns a channel that receives progress updates. The
// current state is delivered first; the channel is closed when the job
// finishes. Slow subscribers miss intermediate updates, never the last.
func (s *Service) SubscribeProgress(jobID string) (<-chan JobProgress, error) {
	job, err := s.job(jobID)
	if err != nil {
		return nil, err
	}

	ch := make(chan JobProgress, 10)

	job.mu.Lock()
	defer job.mu.Unlock()

	ch <- job.progress
	if job.progress.Done() {
		close(ch)
		return ch, nil
	}
	job.listeners = append(job.listeners, ch)
	return ch, nil
}

// JobProgress returns the current state without blocking.
func (s *Service) JobProgress(jobID string) (JobProgress, error) {
	job, err := s.job(jobID)
	if err != nil {
		return JobProgress{}, err
	}

	job.mu.Lock()
	defer job.mu.Unlock()
	return job.progress, nil
}

// JobResult returns the outcome of a job, blocking until it finishes or ctx
// is done.
func (s *Service) JobResult(ctx context.Context, jobID string) (*JobResult, error) {
	job, err := s.job(jobID)
	if err != nil {
		return nil, err
	}

	select {
	case <-job.done:
		return job.result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Service) job(jobID string) (*activeJob, error) {
	s.mu.RLock()
	job, ok := s.jobs[jobID]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	return job, nil
}

// cleanup removes the job from tracking after a delay.
func (s *Service) cleanup(jobID string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.jobs, jobID)
		s.mu.Unlock()
	})
}

// update applies fn to the progress and notifies listeners.
func (j *activeJob) update(fn func(*JobProgress)) {
	j.mu.Lock()
	defer j.mu.Unlock()

	fn(&j.progress)
	for _, ch := range j.listeners {
		select {
		case ch <- j.progress:
		default:
			// Listener is slow, skip this update
		}
	}
}

// finish records the result, sends the terminal progress and closes every
// listener.
func (j *activeJob) finish(result *JobResult) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.progress.Done() {
		return
	}

	j.result = result
	if result.Error != nil {
		j.progress.Phase = PhaseFailed
		j.progress.Error = result.Error.Error()
	} else {
		j.progress.Phase = PhaseComplete
		j.progress.Percent = 100
	}

	for _, ch := range j.listeners {
		// Drop a stale update if needed so the terminal state always lands.
		select {
		case ch <- j.progress:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- j.progress
		}
		close(ch)
	}
	j.listeners = nil
	close(j.done)
}
