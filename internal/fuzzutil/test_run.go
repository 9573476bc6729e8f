// Copyright 2024 Francis Michael Stephens. All rights reserved.  Use of this
// source code is governed by an MIT license that can be found in the LICENSE
// file.

package fuzzutil

// TestRun is a pre-decoded sequence of Steps, built once from a fuzz
// input and then replayed. Decoding up front (rather than interleaving
// decode and execution) means a run's step count and shape are fixed
// before any step mutates shared state.
type TestRun struct {
	steps   []Step
	cleanup func()
}

// NewTestRun decodes bytes into a sequence of Steps by repeatedly
// calling stepMaker until the consumer is empty, then returns a TestRun
// that will execute cleanup once after the last step regardless of how
// many steps ran.
func NewTestRun(bytes []byte, stepMaker func(*ByteConsumer) Step, cleanup func()) *TestRun {
	tr := &TestRun{
		steps:   make([]Step, 0),
		cleanup: cleanup,
	}
	byteConsumer := NewByteConsumer(bytes)

	for byteConsumer.Len() > 0 {
		step := stepMaker(byteConsumer)
		tr.steps = append(tr.steps, step)
	}
	return tr
}

// Run executes every decoded step in order, then runs cleanup.
func (t *TestRun) Run() {
	defer t.cleanup()
	for _, step := range t.steps {
		step.DoStep()
	}
}

// Step is one decoded unit of fuzz-driven work, such as an allocate or
// a free against the allocator under test.
type Step interface {
	DoStep()
}
