package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"filesearch/flow"
	"filesearch/logging"
)

// jobRetention is how long a finished job stays subscribable so a browser
// that reconnects late can still replay the full update history.
const jobRetention = 10 * time.Minute

// Job is one background ingestion run. Updates are buffered so subscribers
// joining mid-run replay everything emitted so far, then follow live.
type Job struct {
	ID string

	mu      sync.Mutex
	updates []flow.Update
	subs    map[chan flow.Update]struct{}
	done    bool
	err     error
}

func newJob() *Job {
	return &Job{ID: uuid.NewString(), subs: map[chan flow.Update]struct{}{}}
}

func (j *Job) publish(u flow.Update) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.updates = append(j.updates, u)
	for ch := range j.subs {
		select {
		case ch <- u:
		default: // slow subscriber, it will catch up from the buffer on reconnect
		}
	}
}

func (j *Job) finish(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.done = true
	j.err = err
	for ch := range j.subs {
		close(ch)
	}
	j.subs = map[chan flow.Update]struct{}{}
}

// subscribe returns the buffered history, a live channel (nil when the job
// already finished), the completion state and an unsubscribe func.
func (j *Job) subscribe() (history []flow.Update, live chan flow.Update, done bool, err error, cancel func()) {
	j.mu.Lock()
	defer j.mu.Unlock()
	history = make([]flow.Update, len(j.updates))
	copy(history, j.updates)
	if j.done {
		return history, nil, true, j.err, func() {}
	}
	live = make(chan flow.Update, 32)
	j.subs[live] = struct{}{}
	cancel = func() {
		j.mu.Lock()
		defer j.mu.Unlock()
		if _, ok := j.subs[live]; ok {
			delete(j.subs, live)
			close(live)
		}
	}
	return history, live, false, nil, cancel
}

// state reports the job's completion flag and terminal error.
func (j *Job) state() (done bool, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.done, j.err
}

// Jobs tracks in-flight and recently finished background runs.
type Jobs struct {
	mu     sync.RWMutex
	jobs   map[string]*Job
	logger logging.Logger
}

// NewJobs constructs an empty registry.
func NewJobs(logger logging.Logger) *Jobs {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Jobs{jobs: map[string]*Job{}, logger: logger}
}

// Start launches run in the background, forwarding its updates to the job
// buffer until both channels are drained.
func (r *Jobs) Start(run func() (<-chan flow.Update, <-chan error)) *Job {
	job := newJob()
	r.mu.Lock()
	r.jobs[job.ID] = job
	r.mu.Unlock()

	go func() {
		out, errCh := run()
		for u := range out {
			job.publish(u)
		}
		err := <-errCh
		if err != nil {
			r.logger.Warn("job failed", "job", job.ID, "error", err)
		}
		job.finish(err)
		time.AfterFunc(jobRetention, func() { r.remove(job.ID) })
	}()

	return job
}

// Get returns the job by id.
func (r *Jobs) Get(id string) (*Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	return j, ok
}

func (r *Jobs) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, id)
}
