package steps

import (
	"context"
)

// Once shares a single execution of a step between every caller. Callers
// arriving while it runs wait for that run; later callers get its result.
// A run that ended in cancellation is not remembered, so the next caller
// tries again.
type Once struct {
	step Step
	sem  chan struct{}
	done bool
	err  error
}

func NewOnce(step Step) *Once {
	return &Once{step: step, sem: make(chan struct{}, 1)}
}

func (o *Once) Description() string {
	return o.step.Description()
}

func (o *Once) ExecutionDetails() []string {
	return o.step.ExecutionDetails()
}

func (o *Once) name() string {
	if n, ok := o.step.(interface{ Name() string }); ok {
		return n.Name()
	}
	return o.step.Description()
}

func (o *Once) Run(ctx context.Context) error {
	select {
	case o.sem <- struct{}{}:
	case <-ctx.Done():
		return &StepError{Step: o.name(), Kind: KindCanceled, Err: ctx.Err()}
	}
	defer func() { <-o.sem }()

	if o.done {
		return o.err
	}
	err := o.step.Run(ctx)
	if kind, ok := KindOf(err); ok && kind == KindCanceled {
		return err
	}
	o.done, o.err = true, err
	return err
}
