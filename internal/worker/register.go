// Package worker wires the dataset workflow and its activities into a Temporal
// worker and submits runs to it.
package worker

import (
	"github.com/ahrav/go-instructgen/internal/activity"
	"github.com/ahrav/go-instructgen/internal/workflow"
)

// Registry is the registration surface shared by sdk workers and the test
// workflow environment.
type Registry interface {
	RegisterWorkflow(w any)
	RegisterActivity(a any)
}

// RegisterAll registers the dataset workflow and every activity method of acts.
// Call it once, before the worker starts.
func RegisterAll(r Registry, acts *activity.Activities) {
	r.RegisterWorkflow(workflow.DatasetWorkflow)
	r.RegisterActivity(acts)
}
