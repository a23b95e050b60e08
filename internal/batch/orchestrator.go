package batch

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/flanksource/commons/logger"

	"github.com/takeshy/ddsbatch/internal/texconv"
)

// ErrNoConverter is returned when an orchestrator has nothing to run jobs with
var ErrNoConverter = errors.New("no converter configured")

// Converter runs one conversion. *texconv.Invoker is the production implementation.
type Converter interface {
	Run(ctx context.Context, req texconv.Request) texconv.Result
}

// Orchestrator executes planned jobs with a fixed worker pool
type Orchestrator struct {
	converter   Converter
	concurrency int
	observer    Observer
}

// NewOrchestrator validates the converter binary and wires a texconv invoker.
// A bad path fails with texconv.ErrConverterNotFound before any process starts.
func NewOrchestrator(binaryPath string, timeout time.Duration, concurrency int) (*Orchestrator, error) {
	inv, err := texconv.NewInvoker(binaryPath, timeout)
	if err != nil {
		return nil, err
	}
	return NewOrchestratorWith(inv, concurrency), nil
}

// NewOrchestratorWith uses an existing converter. concurrency < 1 means GOMAXPROCS.
func NewOrchestratorWith(conv Converter, concurrency int) *Orchestrator {
	if concurrency < 1 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &Orchestrator{
		converter:   conv,
		concurrency: concurrency,
		observer:    nopObserver{},
	}
}

// SetObserver registers the progress observer; nil removes it
func (o *Orchestrator) SetObserver(obs Observer) {
	if obs == nil {
		obs = nopObserver{}
	}
	o.observer = obs
}

// Concurrency returns the worker count upper bound
func (o *Orchestrator) Concurrency() int {
	return o.concurrency
}

// Run executes jobs and returns the batch report
func (o *Orchestrator) Run(ctx context.Context, jobs []*Job) (*Report, error) {
	return o.RunBatch(ctx, Batch{Jobs: jobs})
}

// RunBatch executes a planned batch. Jobs that are already terminal (up to date
// or colliding) are reported without being dispatched.
//
// Cancelling ctx stops dispatch: jobs not yet started fail as cancelled while
// conversions already running are left to finish under their own timeout.
func (o *Orchestrator) RunBatch(ctx context.Context, b Batch) (*Report, error) {
	if o.converter == nil {
		return nil, ErrNoConverter
	}

	jobs := b.Jobs
	report := newReport(jobs)
	report.Profile = b.Profile
	report.SourceDir = b.SourceDir
	var mu sync.Mutex
	complete := func(job *Job) {
		mu.Lock()
		defer mu.Unlock()
		report.record(job)
		o.observer.OnJobComplete(job, job.Result)
	}

	o.observer.OnBatchStart(len(jobs))

	var pending []int
	for i, job := range jobs {
		if job.Terminal() {
			complete(job)
			continue
		}
		job.Status = StatusPending
		pending = append(pending, i)
	}

	workers := min(o.concurrency, len(pending))
	logger.Debugf("batch %s: %d jobs, %d to convert, %d workers", report.BatchID, len(jobs), len(pending), workers)

	queue := make(chan int, len(pending))
	for _, idx := range pending {
		queue <- idx
	}
	close(queue)

	// running conversions must survive batch cancellation
	runCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range queue {
				job := jobs[idx]
				if ctx.Err() != nil {
					job.fail(texconv.NewJobError(texconv.FailureCancelled, job.Source, "batch cancelled before start", ctx.Err()))
					complete(job)
					continue
				}
				job.Status = StatusRunning
				job.finish(o.converter.Run(runCtx, job.Request()))
				complete(job)
			}
		}()
	}
	wg.Wait()

	report.finish()
	o.observer.OnBatchComplete(report)
	return report, nil
}
