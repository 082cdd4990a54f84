package plugin

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ayusman/courtside/internal/log"
)

var (
	// ErrQueueFull is returned by Submit when the backlog is at capacity.
	ErrQueueFull = errors.New("plugin queue full")
	// ErrDispatcherStopped is returned by Submit after Stop.
	ErrDispatcherStopped = errors.New("plugin dispatcher stopped")
	// ErrUnsupportedAction is reported when a plugin does not list the action.
	ErrUnsupportedAction = errors.New("action not supported by plugin")
)

// Runner executes a single plugin request.
type Runner interface {
	Execute(ctx context.Context, plugin *Plugin, req *Request) (*Response, error)
}

// Job asks the named plugin to run a request.
type Job struct {
	Plugin  string
	Request Request
}

// Result reports the outcome of a Job.
type Result struct {
	Job      Job
	Response *Response
	Err      error
}

// Dispatcher runs jobs on background workers so the frame loop never waits
// on a plugin process.
type Dispatcher struct {
	manager  *Manager
	runner   Runner
	jobs     chan Job
	onResult func(Result)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

// NewDispatcher returns a dispatcher with a backlog of queueSize jobs.
// onResult, if set, is called from a worker goroutine for every job.
func NewDispatcher(manager *Manager, runner Runner, queueSize int, onResult func(Result)) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 16
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		manager:  manager,
		runner:   runner,
		jobs:     make(chan Job, queueSize),
		onResult: onResult,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches workers goroutines.
func (d *Dispatcher) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
}

// Submit queues a job without blocking.
func (d *Dispatcher) Submit(job Job) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		return ErrDispatcherStopped
	}

	select {
	case d.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop rejects new jobs, lets queued jobs finish and waits for the workers.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.jobs)
	d.mu.Unlock()

	d.wg.Wait()
	d.cancel()
}

func (d *Dispatcher) work() {
	defer d.wg.Done()

	for job := range d.jobs {
		resp, err := d.run(job)
		switch {
		case err != nil:
			log.Warn("plugin action failed", "plugin", job.Plugin, "action", job.Request.Action, "event", job.Request.Event, "error", err)
		case !resp.Success:
			log.Warn("plugin reported failure", "plugin", job.Plugin, "action", job.Request.Action, "error", resp.Error)
		default:
			log.Debug("plugin action ran", "plugin", job.Plugin, "action", job.Request.Action, "event", job.Request.Event)
		}

		if d.onResult != nil {
			d.onResult(Result{Job: job, Response: resp, Err: err})
		}
	}
}

func (d *Dispatcher) run(job Job) (*Response, error) {
	p, err := d.manager.Get(job.Plugin)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", job.Plugin, err)
	}
	if !p.Supports(job.Request.Action) {
		return nil, fmt.Errorf("%s/%s: %w", job.Plugin, job.Request.Action, ErrUnsupportedAction)
	}
	return d.runner.Execute(d.ctx, p, &job.Request)
}
