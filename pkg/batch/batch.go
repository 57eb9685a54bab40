// Package batch prepares many targets at once: it runs their dependency
// steps with bounded parallelism and applies a failure policy.
package batch

import (
	"context"
	"sync"
	"time"

	"bclharness/pkg/log"
	"bclharness/pkg/model"
	"bclharness/pkg/steps"
	"bclharness/pkg/targets"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPrepared Status = "prepared"
	StatusFailed   Status = "failed"
	StatusSkipped  Status = "skipped"
)

// Result is the outcome of preparing one target.
type Result struct {
	Target   *targets.Target
	Status   Status
	Err      error
	Duration time.Duration
}

// Report lists one Result per target, in the order the targets were given.
type Report struct {
	RunID   string
	Results []Result
}

func (r *Report) count(s Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

func (r *Report) Prepared() int { return r.count(StatusPrepared) }
func (r *Report) Failed() int   { return r.count(StatusFailed) }
func (r *Report) Skipped() int  { return r.count(StatusSkipped) }

// OK reports whether every target was prepared.
func (r *Report) OK() bool {
	return r.Prepared() == len(r.Results)
}

// Preparer runs dependency steps of a batch of targets.
type Preparer struct {
	MaxParallel int
	Policy      model.FailurePolicy
	Logger      log.Logger
}

// FromConfig returns a Preparer configured by cfg.
func FromConfig(cfg model.BatchConfig, logger log.Logger) *Preparer {
	return &Preparer{MaxParallel: cfg.MaxParallel, Policy: cfg.Policy, Logger: logger}
}

// Prepare runs the dependency of every target. Targets start in input order
// with at most MaxParallel in flight. Under PolicyBatch the first failure
// cancels the rest: targets that have not started are skipped and running
// ones see their context canceled.
func (p *Preparer) Prepare(ctx context.Context, list []targets.Target) *Report {
	report := &Report{RunID: uuid.New().String(), Results: make([]Result, len(list))}

	limit := p.MaxParallel
	if limit < 1 {
		limit = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p.Logger.Info("Preparing targets", "run", report.RunID, "count", len(list), "parallel", limit, "policy", p.policy())

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for i := range list {
		target := &list[i]
		report.Results[i].Target = target

		acquired := false
		select {
		case sem <- struct{}{}:
			acquired = true
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			if acquired {
				<-sem
			}
			report.Results[i].Status = StatusSkipped
			report.Results[i].Err = ctx.Err()
			p.Logger.Warn("Skipping target", "target", target.Name)
			continue
		}

		wg.Add(1)
		go func(res *Result) {
			defer wg.Done()
			defer func() { <-sem }()

			p.Logger.Info("=> " + target.Name)
			start := time.Now()
			err := target.Prepare(ctx)
			res.Duration = time.Since(start)
			res.Err = err

			switch {
			case err == nil:
				res.Status = StatusPrepared
			case isCanceled(err) && ctx.Err() != nil:
				res.Status = StatusSkipped
				p.Logger.Warn("Target preparation canceled", "target", target.Name)
			default:
				res.Status = StatusFailed
				p.Logger.Error("Target preparation failed", "target", target.Name, "error", err)
				if p.policy() == model.PolicyBatch {
					cancel()
				}
			}
		}(&report.Results[i])
	}
	wg.Wait()

	p.Logger.Info("Preparation complete", "run", report.RunID,
		"prepared", report.Prepared(), "failed", report.Failed(), "skipped", report.Skipped())
	return report
}

func (p *Preparer) policy() model.FailurePolicy {
	if p.Policy == "" {
		return model.PolicyTarget
	}
	return p.Policy
}

func isCanceled(err error) bool {
	kind, ok := steps.KindOf(err)
	return ok && kind == steps.KindCanceled
}
