// Package workflow talks to the external no-code engine that holds the
// multi-turn assistant conversations. One parametrized client serves every
// generator kind; per-kind data lives only in the static table built at
// startup.
package workflow

import (
	"github.com/promptweaver/weaver/internal/schema"
)

// Workflow is the static per-kind configuration. Constructed once at
// startup, never mutated.
type Workflow struct {
	ID         string      `json:"id"`
	Kind       schema.Kind `json:"kind"`
	Title      string      `json:"title"`
	WebhookURL string      `json:"-"`
	CreditCost int         `json:"creditCost"`
	RoutePath  string      `json:"routePath"`
}

// Table maps generator kinds to their workflow configuration.
type Table struct {
	byKind map[schema.Kind]Workflow
}

// NewTable builds the immutable kind table.
func NewTable(workflows map[schema.Kind]Workflow) *Table {
	byKind := make(map[schema.Kind]Workflow, len(workflows))
	for kind, wf := range workflows {
		wf.Kind = kind
		byKind[kind] = wf
	}
	return &Table{byKind: byKind}
}

// Get returns the workflow for a kind.
func (t *Table) Get(kind schema.Kind) (Workflow, bool) {
	wf, ok := t.byKind[kind]
	return wf, ok
}

// All returns the configured workflows in declared kind order.
func (t *Table) All() []Workflow {
	out := make([]Workflow, 0, len(t.byKind))
	for _, kind := range schema.Kinds {
		if wf, ok := t.byKind[kind]; ok {
			out = append(out, wf)
		}
	}
	return out
}
