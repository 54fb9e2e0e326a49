// Package report defines the analysis report and its YAML rendering.
package report

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/vk/weft/internal/diag"
)

// Report is the output of one full analysis pass.
type Report struct {
	Resources   []ResourceEntry   `yaml:"resources,omitempty"`
	Templates   []TemplateEntry   `yaml:"templates,omitempty"`
	Diagnostics []diag.Diagnostic `yaml:"diagnostics,omitempty"`
	Stats       Stats             `yaml:"stats"`
}

// ResourceEntry describes one project-wide resource.
type ResourceEntry struct {
	Kind      string   `yaml:"kind"`
	Name      string   `yaml:"name"`
	Source    string   `yaml:"source,omitempty"`
	Bindables []string `yaml:"bindables,omitempty"`
}

// TemplateEntry summarizes the resolution of one template.
type TemplateEntry struct {
	Path        string            `yaml:"path"`
	Matches     int               `yaml:"matches"`
	Bindings    int               `yaml:"bindings"`
	Diagnostics []diag.Diagnostic `yaml:"diagnostics,omitempty"`
}

// Stats reports the size of the analysis graph after the pass.
type Stats struct {
	Nodes       int          `yaml:"nodes"`
	Edges       int          `yaml:"edges"`
	Stale       int          `yaml:"stale"`
	Convergence *Convergence `yaml:"convergence,omitempty"`
}

// Convergence summarizes the last cyclic-requires fixed point computation.
type Convergence struct {
	Converged    bool `yaml:"converged"`
	Iterations   int  `yaml:"iterations"`
	Participants int  `yaml:"participants"`
}

// ErrorCount returns the number of error-severity diagnostics across the
// whole report, which drives the process exit code.
func (r *Report) ErrorCount() int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Severity == diag.SeverityError {
			n++
		}
	}
	for _, t := range r.Templates {
		for _, d := range t.Diagnostics {
			if d.Severity == diag.SeverityError {
				n++
			}
		}
	}
	return n
}

// WriteYAML renders the report to w.
func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return enc.Close()
}
