// Package handlerregistry discovers workflow and activity handlers from a
// plain user-defined struct via reflection and struct tags, and registers
// them on a worker.Worker. This is the one place in the module that reads
// runtime type information instead of using a corpus library: none of the
// retrieval pack's dependency-injection or plugin-discovery mechanisms
// operate on ad hoc user structs by tag the way this needs to — they all
// assume compile-time registration (explicit constructor wiring, code
// generation) rather than "hand me a struct and I'll find its handlers."
package handlerregistry

import (
	"fmt"
	"reflect"

	"github.com/roadrunner-server/temporal-worker-core/worker"
)

// TagWorkflow and TagActivity are the struct tags Discover looks for.
const (
	TagWorkflow = "workflow"
	TagActivity = "activity"
)

// reservedName is a tag value Discover never registers as a live handler.
// It exists so a struct can document a field as intentionally excluded
// from dispatch (e.g. a template/example handler kept for reference)
// without Discover rejecting the struct outright for a type mismatch.
const reservedName = "readonly"

// Reader discovers handlers by struct tag.
type Reader struct{}

// New constructs a Reader.
func New() *Reader { return &Reader{} }

// Discover scans v — a struct or pointer to struct — for fields tagged
// `workflow:"Name"` or `activity:"Name"`, and registers each on w under
// Name. A tagged field whose type does not match worker.WorkflowHandler or
// worker.ActivityHandler is an error; a field tagged with the reserved
// name "readonly" is skipped.
func (r *Reader) Discover(w *worker.Worker, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return fmt.Errorf("handlerregistry: nil pointer passed to Discover")
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("handlerregistry: Discover requires a struct or pointer to struct, got %s", rv.Kind())
	}
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		fv := rv.Field(i)

		_, hasWorkflowTag := field.Tag.Lookup(TagWorkflow)
		_, hasActivityTag := field.Tag.Lookup(TagActivity)
		if (hasWorkflowTag || hasActivityTag) && !field.IsExported() {
			return fmt.Errorf("handlerregistry: tagged field %s must be exported", field.Name)
		}

		if name, ok := field.Tag.Lookup(TagWorkflow); ok {
			if name == reservedName {
				continue
			}
			handler, ok := fv.Interface().(worker.WorkflowHandler)
			if !ok {
				return fmt.Errorf("handlerregistry: field %s tagged workflow:%q is not a worker.WorkflowHandler", field.Name, name)
			}
			w.RegisterWorkflow(name, handler)
		}

		if name, ok := field.Tag.Lookup(TagActivity); ok {
			if name == reservedName {
				continue
			}
			handler, ok := fv.Interface().(worker.ActivityHandler)
			if !ok {
				return fmt.Errorf("handlerregistry: field %s tagged activity:%q is not a worker.ActivityHandler", field.Name, name)
			}
			w.RegisterActivity(name, handler)
		}
	}
	return nil
}
