// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package jobs

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an ingest job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// etaSmoothing is the weight of the newest per-page duration sample in the
// decaying moving average used for ETA estimation.
const etaSmoothing = 0.2

// Snapshot is a point-in-time copy of a job's progress, safe to retain after
// the job advances.
type Snapshot struct {
	JobID       string
	Status      Status
	DocsDone    int
	DocsTotal   int
	PagesDone   int
	PagesTotal  int
	FailedPages int

	// ETASeconds estimates the remaining processing time. Nil until the job
	// has completed at least one page.
	ETASeconds *float64

	// Error holds the failure reason for jobs in StatusFailed.
	Error string

	StartedAt  time.Time
	FinishedAt time.Time
}

// job is the tracker's mutable record for one ingestion run.
type job struct {
	id          string
	status      Status
	docsDone    int
	docsTotal   int
	pagesDone   int
	pagesTotal  int
	failedPages int
	avgPageSecs float64
	hasSample   bool
	errMsg      string
	startedAt   time.Time
	finishedAt  time.Time
}

// Tracker supervises ingestion jobs: it issues ids, enforces the
// pending → running → {completed, failed} state machine and serves
// progress snapshots to concurrent pollers.
//
// Counters only ever increase. Terminal states freeze the record: updates
// after Complete or Fail are dropped.
type Tracker struct {
	mu     sync.RWMutex
	jobs   map[string]*job
	logger *slog.Logger
}

// NewTracker creates an empty job tracker.
func NewTracker() *Tracker {
	return &Tracker{
		jobs:   make(map[string]*job),
		logger: slog.Default().With("component", "job-tracker"),
	}
}

// Start registers a new job in the pending state and returns its id.
// The job stays pending until the first progress update.
func (t *Tracker) Start() string {
	id := uuid.NewString()

	t.mu.Lock()
	t.jobs[id] = &job{
		id:        id,
		status:    StatusPending,
		startedAt: time.Now().UTC(),
	}
	t.mu.Unlock()

	t.logger.Debug("job registered", "job_id", id)
	return id
}

// Get returns a snapshot of the job, or ErrNotFound for unknown ids.
func (t *Tracker) Get(jobID string) (Snapshot, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	j, ok := t.jobs[jobID]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return j.snapshot(), nil
}

// SetTotals records the pre-scan work totals and moves the job to running.
// Totals never shrink below counts already observed.
func (t *Tracker) SetTotals(jobID string, docsTotal, pagesTotal int) {
	t.withJob(jobID, func(j *job) {
		if docsTotal > j.docsTotal {
			j.docsTotal = docsTotal
		}
		if pagesTotal > j.pagesTotal {
			j.pagesTotal = pagesTotal
		}
		j.status = StatusRunning
	})
}

// PageDone records one completed page and its processing duration, feeding
// the ETA estimate.
func (t *Tracker) PageDone(jobID string, elapsed time.Duration) {
	t.withJob(jobID, func(j *job) {
		j.status = StatusRunning
		if j.pagesDone < j.pagesTotal {
			j.pagesDone++
		}

		sample := elapsed.Seconds()
		if sample < 0 {
			sample = 0
		}
		if !j.hasSample {
			j.avgPageSecs = sample
			j.hasSample = true
		} else {
			j.avgPageSecs = etaSmoothing*sample + (1-etaSmoothing)*j.avgPageSecs
		}
	})
}

// SkipPages credits n pages whose documents were skipped as already
// ingested. No duration sample is recorded, so skips don't skew the ETA.
func (t *Tracker) SkipPages(jobID string, n int) {
	t.withJob(jobID, func(j *job) {
		j.status = StatusRunning
		j.pagesDone += n
		if j.pagesDone > j.pagesTotal {
			j.pagesDone = j.pagesTotal
		}
	})
}

// PageFailed records a page whose retries were exhausted. The page still
// counts toward pages_done so the job can reach its totals.
func (t *Tracker) PageFailed(jobID string) {
	t.withJob(jobID, func(j *job) {
		j.status = StatusRunning
		j.failedPages++
		if j.pagesDone < j.pagesTotal {
			j.pagesDone++
		}
	})
}

// DocDone records one fully processed document.
func (t *Tracker) DocDone(jobID string) {
	t.withJob(jobID, func(j *job) {
		j.status = StatusRunning
		if j.docsDone < j.docsTotal {
			j.docsDone++
		}
	})
}

// Complete moves the job to its completed terminal state.
func (t *Tracker) Complete(jobID string) {
	t.withJob(jobID, func(j *job) {
		j.status = StatusCompleted
		j.finishedAt = time.Now().UTC()
	})
	t.logger.Info("job completed", "job_id", jobID)
}

// Fail moves the job to its failed terminal state with a reason.
func (t *Tracker) Fail(jobID string, err error) {
	t.withJob(jobID, func(j *job) {
		j.status = StatusFailed
		if err != nil {
			j.errMsg = err.Error()
		}
		j.finishedAt = time.Now().UTC()
	})
	t.logger.Error("job failed", "job_id", jobID, "err", err)
}

// withJob runs fn on the named job under the write lock. Unknown ids and
// jobs in a terminal state are left untouched.
func (t *Tracker) withJob(jobID string, fn func(*job)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	j, ok := t.jobs[jobID]
	if !ok || j.terminal() {
		return
	}
	fn(j)
}

func (j *job) terminal() bool {
	return j.status == StatusCompleted || j.status == StatusFailed
}

// snapshot copies the job record. Must be called with at least a read lock held.
func (j *job) snapshot() Snapshot {
	s := Snapshot{
		JobID:       j.id,
		Status:      j.status,
		DocsDone:    j.docsDone,
		DocsTotal:   j.docsTotal,
		PagesDone:   j.pagesDone,
		PagesTotal:  j.pagesTotal,
		FailedPages: j.failedPages,
		Error:       j.errMsg,
		StartedAt:   j.startedAt,
		FinishedAt:  j.finishedAt,
	}

	if j.hasSample && j.status == StatusRunning {
		remaining := j.pagesTotal - j.pagesDone
		if remaining < 0 {
			remaining = 0
		}
		eta := j.avgPageSecs * float64(remaining)
		s.ETASeconds = &eta
	}
	return s
}
