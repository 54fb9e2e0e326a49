// Package diag defines the diagnostic record shared by template lowering,
// binding resolution, and reporting.
package diag

import "fmt"

// Severity classifies a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is one finding attached to a template file.
type Diagnostic struct {
	Path     string   `yaml:"path"`
	Subject  string   `yaml:"subject,omitempty"`
	Severity Severity `yaml:"severity"`
	Summary  string   `yaml:"summary"`
	Detail   string   `yaml:"detail,omitempty"`
}

// String renders a compact single-line form for logs.
func (d Diagnostic) String() string {
	if d.Subject == "" {
		return fmt.Sprintf("%s: %s: %s", d.Path, d.Severity, d.Summary)
	}
	return fmt.Sprintf("%s: %s: %s (%s)", d.Path, d.Severity, d.Summary, d.Subject)
}

// Errorf builds an error diagnostic.
func Errorf(path, subject, format string, args ...any) Diagnostic {
	return Diagnostic{
		Path:     path,
		Subject:  subject,
		Severity: SeverityError,
		Summary:  fmt.Sprintf(format, args...),
	}
}

// Warnf builds a warning diagnostic.
func Warnf(path, subject, format string, args ...any) Diagnostic {
	return Diagnostic{
		Path:     path,
		Subject:  subject,
		Severity: SeverityWarning,
		Summary:  fmt.Sprintf(format, args...),
	}
}
