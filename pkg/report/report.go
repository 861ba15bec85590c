// Package report persists the results of deployment-processing runs so
// they can be listed, compared and served later. Two backends are
// provided: a JSON file store for CLI usage and a mongo store for
// shared deployments.
package report

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/loomproc/loom/pkg/processor"
)

// BeanSummary is the persisted view of a single discovered bean.
type BeanSummary struct {
	Class      string   `json:"class" bson:"class"`
	Kind       string   `json:"kind" bson:"kind"`
	Scope      string   `json:"scope" bson:"scope"`
	Qualifiers []string `json:"qualifiers,omitempty" bson:"qualifiers,omitempty"`
	Priority   int      `json:"priority,omitempty" bson:"priority,omitempty"`
}

// InterceptorSummary is the persisted view of a single interceptor.
type InterceptorSummary struct {
	Class     string         `json:"class" bson:"class"`
	Bindings  []string       `json:"bindings" bson:"bindings"`
	Priority  int            `json:"priority" bson:"priority"`
	Callbacks map[string]int `json:"callbacks" bson:"callbacks"`
}

// Report is the persisted result of one processing run.
type Report struct {
	ID        string    `json:"id" bson:"_id"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`

	// Source is the index archive the run processed.
	Source string `json:"source" bson:"source"`
	// IndexHash is the content hash of the archive, for change detection.
	IndexHash string `json:"indexHash" bson:"indexHash"`

	Beans        []BeanSummary        `json:"beans" bson:"beans"`
	Interceptors []InterceptorSummary `json:"interceptors" bson:"interceptors"`
	Warnings     []string             `json:"warnings,omitempty" bson:"warnings,omitempty"`
}

// Build creates a report from a processed deployment. The report gets a
// fresh random ID and the current timestamp.
func Build(d *processor.Deployment, source, indexHash string) *Report {
	r := &Report{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Source:    source,
		IndexHash: indexHash,
	}

	for _, b := range d.Beans() {
		summary := BeanSummary{
			Class:    string(b.TargetClass()),
			Kind:     b.Kind().String(),
			Scope:    string(b.Scope()),
			Priority: b.Priority(),
		}
		for _, q := range b.Qualifiers() {
			summary.Qualifiers = append(summary.Qualifiers, string(q.Name))
		}
		r.Beans = append(r.Beans, summary)
	}

	for _, i := range d.Interceptors() {
		summary := InterceptorSummary{
			Class:     string(i.TargetClass()),
			Priority:  i.Priority(),
			Callbacks: map[string]int{},
		}
		for _, b := range i.BindingNames() {
			summary.Bindings = append(summary.Bindings, string(b))
		}
		for _, k := range processor.Kinds {
			if n := len(i.MethodsOf(k)); n > 0 {
				summary.Callbacks[k.String()] = n
			}
		}
		r.Interceptors = append(r.Interceptors, summary)
	}

	r.Warnings = d.Warnings()
	return r
}

// Store persists reports. Implementations must be safe for concurrent
// use.
type Store interface {
	// Put stores a report, replacing any existing report with the same ID.
	Put(ctx context.Context, r *Report) error
	// Get retrieves a report by ID.
	Get(ctx context.Context, id string) (*Report, error)
	// List returns up to limit reports, newest first. A non-positive
	// limit returns all reports.
	List(ctx context.Context, limit int) ([]*Report, error)
	// Delete removes a report by ID. Deleting a missing report is not an
	// error.
	Delete(ctx context.Context, id string) error
	// Close releases backend resources.
	Close() error
}
