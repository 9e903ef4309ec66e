package diag

import "encoding/json"

// jsonLabel and jsonDiagnostic mirror Diagnostic/Label with stable field
// names, matching the teacher's json_encoder.go approach of keeping the
// wire shape decoupled from the in-memory struct tags.
type jsonLabel struct {
	Kind    string `json:"kind"`
	File    string `json:"file"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
}

type jsonDiagnostic struct {
	Schema  string      `json:"schema"`
	Kind    string      `json:"kind"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Labels  []jsonLabel `json:"labels"`
	Notes   []string    `json:"notes,omitempty"`
}

// EncodeJSON renders d in the "chili.diagnostic/v1" wire schema, for
// tooling that wants structured output instead of the ASCII renderer.
func (d *Diagnostic) EncodeJSON(compact bool) (string, error) {
	out := jsonDiagnostic{
		Schema:  "chili.diagnostic/v1",
		Kind:    d.Kind.String(),
		Code:    d.Code,
		Message: d.Message,
		Notes:   d.Notes,
	}
	for _, l := range d.Labels {
		kind := "primary"
		if l.Kind == Secondary {
			kind = "secondary"
		}
		out.Labels = append(out.Labels, jsonLabel{
			Kind:    kind,
			File:    l.Span.File,
			Line:    l.Span.Start.Line,
			Column:  l.Span.Start.Column,
			Message: l.Message,
		})
	}

	var (
		data []byte
		err  error
	)
	if compact {
		data, err = json.Marshal(out)
	} else {
		data, err = json.MarshalIndent(out, "", "  ")
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
