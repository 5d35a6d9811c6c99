package model

import "fmt"

// StepFunc receives a short progress message at each resolution step.
type StepFunc func(message string)

// Trace is the append-only thinking trace of one utterance.
type Trace struct {
	onStep StepFunc
	steps  []string
}

// NewTrace creates a trace that forwards each step to onStep, if set.
func NewTrace(onStep StepFunc) *Trace {
	return &Trace{onStep: onStep}
}

// Add appends a formatted step and notifies the step callback.
func (t *Trace) Add(format string, args ...any) {
	step := format
	if len(args) > 0 {
		step = fmt.Sprintf(format, args...)
	}
	t.steps = append(t.steps, step)
	if t.onStep != nil {
		t.onStep(step)
	}
}

// Steps returns a copy of the recorded steps.
func (t *Trace) Steps() []string {
	steps := make([]string, len(t.steps))
	copy(steps, t.steps)
	return steps
}

// Len returns the number of recorded steps.
func (t *Trace) Len() int {
	return len(t.steps)
}
