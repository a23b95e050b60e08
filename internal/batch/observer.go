package batch

import "github.com/takeshy/ddsbatch/internal/texconv"

// Observer receives batch progress. Calls are serialised by the orchestrator,
// so implementations need no locking of their own.
type Observer interface {
	OnBatchStart(jobCount int)
	// OnJobComplete fires once per job; result is nil when the job never ran
	OnJobComplete(job *Job, result *texconv.Result)
	OnBatchComplete(report *Report)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are ignored.
type ObserverFuncs struct {
	BatchStart    func(jobCount int)
	JobComplete   func(job *Job, result *texconv.Result)
	BatchComplete func(report *Report)
}

func (o ObserverFuncs) OnBatchStart(jobCount int) {
	if o.BatchStart != nil {
		o.BatchStart(jobCount)
	}
}

func (o ObserverFuncs) OnJobComplete(job *Job, result *texconv.Result) {
	if o.JobComplete != nil {
		o.JobComplete(job, result)
	}
}

func (o ObserverFuncs) OnBatchComplete(report *Report) {
	if o.BatchComplete != nil {
		o.BatchComplete(report)
	}
}

type nopObserver struct{}

func (nopObserver) OnBatchStart(int)                    {}
func (nopObserver) OnJobComplete(*Job, *texconv.Result) {}
func (nopObserver) OnBatchComplete(*Report)             {}
