package scene

import "fmt"

// Severity ranks a load diagnostic.
type Severity int

const (
	// SeverityWarning marks input that was accepted with a fallback.
	SeverityWarning Severity = iota
	// SeverityError marks input that was skipped.
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Diagnostic records one degraded condition found while loading a scene.
type Diagnostic struct {
	Severity Severity
	// Subject names the offending element, e.g. "mesh 2 primitive 0".
	Subject string
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Severity, d.Subject, d.Message)
}
