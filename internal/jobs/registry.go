package jobs

import (
	"sync"

	"github.com/google/uuid"

	"github.com/rxscan/rxscan/constants"
)

// Registry tracks in-flight jobs in memory. It is an owned, injectable
// object, not a process singleton, so tests run against isolated instances.
// State is ephemeral and lost on restart.
//
// Each job has exactly one writer (its own background goroutine); readers
// poll concurrently. Updates replace the stored record wholesale so a reader
// never observes a partially updated job.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*Job)}
}

// Create registers a new queued job and returns its snapshot. IDs are
// opaque and caller-unguessable.
func (r *Registry) Create() Job {
	j := &Job{
		ID:     uuid.NewString(),
		Status: constants.JobStatusQueued,
	}
	r.mu.Lock()
	r.jobs[j.ID] = j
	r.mu.Unlock()
	return *j
}

// Get returns a value snapshot of the job.
func (r *Registry) Get(id string) (Job, bool) {
	r.mu.RLock()
	j, ok := r.jobs[id]
	r.mu.RUnlock()
	if !ok {
		return Job{}, false
	}
	return *j, true
}

// update applies fn to a copy of the record and atomically replaces it.
// Terminal jobs are immutable; late updates are dropped.
func (r *Registry) update(id string, fn func(*Job)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.jobs[id]
	if !ok || cur.Status.Terminal() {
		return
	}
	next := *cur
	fn(&next)
	r.jobs[id] = &next
}

// SetProcessing transitions a queued job into processing.
func (r *Registry) SetProcessing(id string) {
	r.update(id, func(j *Job) {
		j.Status = constants.JobStatusProcessing
		if j.Percent < 1 {
			j.Percent = 1
		}
	})
}

// ReportProgress records pipeline progress. The stored percent is clamped to
// max(last, percent): across any sequence of status polls for one job the
// percent never decreases.
func (r *Registry) ReportProgress(id string, percent int) {
	if percent > 100 {
		percent = 100
	}
	r.update(id, func(j *Job) {
		if percent > j.Percent {
			j.Percent = percent
		}
	})
}

// Finish marks the job done with its result attached; percent pins to 100.
func (r *Registry) Finish(id string, res *Result) {
	r.update(id, func(j *Job) {
		j.Status = constants.JobStatusDone
		j.Percent = 100
		j.Done = true
		j.Error = nil
		j.Result = res
	})
}

// Fail marks the job failed with a generic error code; no result is attached.
func (r *Registry) Fail(id string, code string) {
	r.update(id, func(j *Job) {
		j.Status = constants.JobStatusError
		j.Done = true
		j.Error = &code
		j.Result = nil
	})
}
