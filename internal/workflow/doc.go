// Package workflow runs dataset generation as a Temporal workflow.
//
// The workflow keeps at most Concurrency GenerateSample activities in flight,
// appends each returned sample through a single AppendSample activity at a
// time, and closes the dataset once every task has resolved. A task whose
// activity fails is dropped, matching the in-process pipeline.
//
// Workflow code stays deterministic: the random seed for a run with no
// configured seed is drawn through a side effect and every I/O step is an
// activity.
package workflow
