package diag

import (
	"fmt"

	"github.com/chili-lang/chili/internal/ast"
)

// LabelKind distinguishes the primary offending span from supporting
// context spans, per spec §6.
type LabelKind int

const (
	Primary LabelKind = iota
	Secondary
)

// Label attaches a message to a span within a Diagnostic.
type Label struct {
	Kind    LabelKind
	Span    ast.Span
	Message string
}

// Diagnostic is the external record shape spec §6 fixes: a rendering
// collaborator (out of scope here) turns this into terminal output using
// ASCII box drawing, 4-wide tabs, and 3/1 lines of leading/trailing
// context. Core only ever constructs and emits these; it never renders.
type Diagnostic struct {
	Kind    Kind
	Code    string
	Message string
	Labels  []Label
	Notes   []string
}

// Error satisfies the error interface so a Diagnostic can travel through
// ordinary Go error-returning call chains before reaching a Sink.
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s", d.Code, d.Message)
}

// New builds a Diagnostic for kind k with a primary label at span.
func New(k Kind, span ast.Span, message string) *Diagnostic {
	return &Diagnostic{
		Kind:    k,
		Code:    k.Code(),
		Message: message,
		Labels:  []Label{{Kind: Primary, Span: span, Message: message}},
	}
}

// WithSecondary appends a secondary (supporting-context) label.
func (d *Diagnostic) WithSecondary(span ast.Span, message string) *Diagnostic {
	d.Labels = append(d.Labels, Label{Kind: Secondary, Span: span, Message: message})
	return d
}

// WithNote appends a free-form note.
func (d *Diagnostic) WithNote(note string) *Diagnostic {
	d.Notes = append(d.Notes, note)
	return d
}

// Sink is the collaborator diagnostics are emitted into. Parse and check
// propagate to a Sink and attempt local recovery (spec §7); lower and the
// VM never emit through a Sink: a VM trap reaches the caller as an error
// returned from vm.Run.
type Sink interface {
	Emit(*Diagnostic)
	Diagnostics() []*Diagnostic
	HasErrors() bool
}

// SliceSink is the in-process Sink used by tests and by the CLI before
// handing diagnostics to the out-of-scope renderer.
type SliceSink struct {
	items []*Diagnostic
}

// NewSliceSink returns an empty SliceSink.
func NewSliceSink() *SliceSink { return &SliceSink{} }

func (s *SliceSink) Emit(d *Diagnostic) { s.items = append(s.items, d) }

func (s *SliceSink) Diagnostics() []*Diagnostic { return s.items }

func (s *SliceSink) HasErrors() bool { return len(s.items) > 0 }
