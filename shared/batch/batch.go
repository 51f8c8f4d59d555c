// Package batch collects per-item outcomes of a sequential run so one bad
// item never hides the rest of the results.
package batch

import (
	"fmt"
	"strings"
)

// Outcome records what happened to a single item
type Outcome struct {
	Item string
	Err  error
}

func (o Outcome) OK() bool {
	return o.Err == nil
}

type Batch struct {
	Name     string
	outcomes []Outcome
}

func New(name string) *Batch {
	return &Batch{Name: name}
}

func (b *Batch) Succeed(item string) {
	b.outcomes = append(b.outcomes, Outcome{Item: item})
}

func (b *Batch) Fail(item string, err error) {
	b.outcomes = append(b.outcomes, Outcome{Item: item, Err: err})
}

func (b *Batch) Outcomes() []Outcome {
	return b.outcomes
}

func (b *Batch) Total() int {
	return len(b.outcomes)
}

func (b *Batch) Succeeded() int {
	n := 0
	for _, o := range b.outcomes {
		if o.OK() {
			n++
		}
	}
	return n
}

func (b *Batch) Failed() int {
	return b.Total() - b.Succeeded()
}

// Failures returns the failed outcomes in processing order
func (b *Batch) Failures() []Outcome {
	var failures []Outcome
	for _, o := range b.outcomes {
		if !o.OK() {
			failures = append(failures, o)
		}
	}
	return failures
}

// FailureRatio is 0 for an empty batch
func (b *Batch) FailureRatio() float64 {
	if b.Total() == 0 {
		return 0
	}
	return float64(b.Failed()) / float64(b.Total())
}

// Exceeds reports whether more than maxRatio of the items failed
func (b *Batch) Exceeds(maxRatio float64) bool {
	return b.FailureRatio() > maxRatio
}

// Merge appends the outcomes of other, keeping their order
func (b *Batch) Merge(other *Batch) {
	if other == nil {
		return
	}
	b.outcomes = append(b.outcomes, other.outcomes...)
}

func (b *Batch) Summary() string {
	summary := fmt.Sprintf("%s: %d/%d succeeded", b.Name, b.Succeeded(), b.Total())
	failures := b.Failures()
	if len(failures) == 0 {
		return summary
	}

	items := make([]string, 0, len(failures))
	for _, f := range failures {
		items = append(items, f.Item)
	}
	return summary + " (failed: " + strings.Join(items, ", ") + ")"
}
